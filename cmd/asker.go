package cmd

import (
	"errors"
	"fmt"

	"github.com/danielolaszy/slacheck/internal/discovery"
	"github.com/danielolaszy/slacheck/internal/prompt"
	"github.com/danielolaszy/slacheck/internal/report"
	"github.com/danielolaszy/slacheck/pkg/models"
)

// consoleAsker answers discovery questions from the console.
type consoleAsker struct {
	console *prompt.Console
	report  *report.Reporter
}

func (a *consoleAsker) AskLabel(spec models.FieldSpec, attempt int) (string, error) {
	a.report.Warn(fmt.Sprintf("No Jira field found for %q (attempt %d of %d).", spec.Label, attempt, discovery.MaxAttempts))

	label := fmt.Sprintf("Field name to use for %q", spec.Label)
	if spec.Optional {
		label += " (blank to skip)"
	}
	return a.console.Ask(label, "")
}

func (a *consoleAsker) ChooseField(label string, candidates []models.Field) (models.Field, error) {
	options := make([]string, len(candidates))
	for i, f := range candidates {
		options[i] = fmt.Sprintf("%s (%s)", f.Name, f.ID)
	}

	idx, err := a.console.Choose(fmt.Sprintf("Several Jira fields match %q:", label), options)
	if err != nil {
		if errors.Is(err, prompt.ErrCanceled) {
			return models.Field{}, discovery.ErrAborted
		}
		return models.Field{}, err
	}
	return candidates[idx], nil
}

// noInputAsker never asks: optional fields are skipped and ambiguous
// matches abort.
type noInputAsker struct{}

func (noInputAsker) AskLabel(models.FieldSpec, int) (string, error) {
	return "", nil
}

func (noInputAsker) ChooseField(string, []models.Field) (models.Field, error) {
	return models.Field{}, fmt.Errorf("%w: several fields match and --no-input is set", discovery.ErrAborted)
}
