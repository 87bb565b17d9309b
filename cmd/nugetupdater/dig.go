package main

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/nugetupdater/internal"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/controllers"
)

func injectAppContext() (*internal.AppInternal, *controllers.LocalController) {
	container := dig.New()

	// Register all providers
	if err := internal.RegisterProviders(container); err != nil {
		panic(err)
	}

	var appInternal *internal.AppInternal
	var localController *controllers.LocalController
	if err := container.Invoke(func(ai *internal.AppInternal, lc *controllers.LocalController) {
		appInternal = ai
		localController = lc
	}); err != nil {
		panic(err)
	}

	return appInternal, localController
}
