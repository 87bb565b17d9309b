package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// InteractiveSelector asks the operator, through a terminal multi-select, which
// repositories to visit and which updates to apply. Every entry starts selected.
type InteractiveSelector struct {
	input  io.Reader
	output io.Writer
}

// NewInteractiveSelector creates a selector bound to the process terminal.
func NewInteractiveSelector() repositories.SelectorRepository {
	return NewInteractiveSelectorWithIO(os.Stdin, os.Stderr)
}

// NewInteractiveSelectorWithIO creates a selector reading and drawing on the given streams.
func NewInteractiveSelectorWithIO(input io.Reader, output io.Writer) *InteractiveSelector {
	return &InteractiveSelector{input: input, output: output}
}

func (s *InteractiveSelector) SelectRepositories(
	ctx context.Context,
	repos []entities.Repository,
) ([]entities.Repository, error) {
	if len(repos) == 0 {
		return nil, nil
	}

	labels := make([]string, len(repos))
	for i, repo := range repos {
		labels[i] = repo.FullName()
	}

	chosen, err := s.multiSelect(ctx, fmt.Sprintf("Repositories to update (%d found)", len(repos)), labels)
	if err != nil {
		return nil, err
	}

	selected := make([]entities.Repository, 0, len(chosen))
	for _, index := range chosen {
		selected = append(selected, repos[index])
	}
	return selected, nil
}

func (s *InteractiveSelector) SelectUpdates(
	ctx context.Context,
	repo entities.Repository,
	updates []entities.ResolvedUpdate,
) ([]entities.ResolvedUpdate, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	labels := make([]string, len(updates))
	for i, update := range updates {
		labels[i] = fmt.Sprintf("%s  %s -> %s", update.ID, update.CurrentVersion, update.LatestVersion)
	}

	chosen, err := s.multiSelect(ctx, "Updates to apply on "+repo.FullName(), labels)
	if err != nil {
		return nil, err
	}

	selected := make([]entities.ResolvedUpdate, 0, len(chosen))
	for _, index := range chosen {
		selected = append(selected, updates[index])
	}
	return selected, nil
}

// multiSelect returns the indexes of the chosen labels, in their original order.
func (s *InteractiveSelector) multiSelect(ctx context.Context, title string, labels []string) ([]int, error) {
	options := make([]huh.Option[int], len(labels))
	for i, label := range labels {
		options[i] = huh.NewOption(label, i).Selected(true)
	}

	var chosen []int
	field := huh.NewMultiSelect[int]().
		Title(title).
		Options(options...).
		Value(&chosen)

	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(s.input).
		WithOutput(s.output)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, entities.ErrSelectionAborted
		}
		return nil, fmt.Errorf("failed to run the selection prompt: %w", err)
	}

	return sortedIndexes(chosen, len(labels)), nil
}

func sortedIndexes(chosen []int, size int) []int {
	marked := make([]bool, size)
	for _, index := range chosen {
		if index >= 0 && index < size {
			marked[index] = true
		}
	}
	ordered := make([]int, 0, len(chosen))
	for index, ok := range marked {
		if ok {
			ordered = append(ordered, index)
		}
	}
	return ordered
}
