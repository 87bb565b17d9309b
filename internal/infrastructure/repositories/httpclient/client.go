package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetries      = 3
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
)

// New returns a retrying client that retries connection errors, 429 and 5xx
// responses of idempotent requests and hands the final response back to the
// caller unchanged. Mutations are sent exactly once.
func New(timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetries
	client.RetryWaitMin = defaultRetryWaitMin
	client.RetryWaitMax = defaultRetryWaitMax
	client.HTTPClient.Timeout = timeout
	client.Logger = leveledLogger{}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.CheckRetry = IdempotentRetryPolicy
	return client
}

// IdempotentRetryPolicy applies retryablehttp's default policy to GET, HEAD and
// OPTIONS requests only. A failed POST, PUT or PATCH may already have been
// applied by the server, so it is never repeated.
func IdempotentRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	switch requestMethod(resp, err) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	default:
		return false, nil
	}
}

// requestMethod recovers the method from the response or, on transport
// failures, from the *url.Error returned by net/http.
func requestMethod(resp *http.Response, err error) string {
	if resp != nil && resp.Request != nil {
		return resp.Request.Method
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return strings.ToUpper(urlErr.Op)
	}
	return ""
}

// Standard wraps a retrying client as a plain *http.Client for SDKs that take one.
func Standard(timeout time.Duration) *http.Client {
	return New(timeout).StandardClient()
}

// leveledLogger forwards retryablehttp logs to logrus at debug level (warnings stay warnings).
type leveledLogger struct{}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Debug("[http] " + msg)
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Debug("[http] " + msg)
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Debug("[http] " + msg)
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.WithFields(fields(keysAndValues)).Warn("[http] " + msg)
}

func fields(keysAndValues []interface{}) logger.Fields {
	result := make(logger.Fields, len(keysAndValues)/2) //nolint:mnd // key/value pairs
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		result[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return result
}
