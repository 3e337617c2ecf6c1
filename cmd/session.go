package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielolaszy/slacheck/internal/config"
	"github.com/danielolaszy/slacheck/internal/discovery"
	"github.com/danielolaszy/slacheck/internal/jira"
	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/internal/prompt"
	"github.com/danielolaszy/slacheck/internal/report"
	"github.com/danielolaszy/slacheck/internal/sla"
	"github.com/danielolaszy/slacheck/pkg/models"
	"github.com/spf13/cobra"
)

// session is the Jira API surface the commands use.
type session interface {
	Myself(ctx context.Context) (models.User, error)
	discovery.FieldLister
	sla.TicketSource
}

// connect opens a Jira session. Tests replace it with a fake.
var connect = func(creds config.Credentials) (session, error) {
	client, err := jira.NewClient(creds)
	if err != nil {
		return nil, err
	}
	return client, nil
}

var errNoInput = errors.New("value required but --no-input is set")

// run bundles the per-invocation state shared by the commands.
type run struct {
	path     string
	settings *config.Settings
	console  *prompt.Console
	report   *report.Reporter
	noInput  bool
}

func newRun(cmd *cobra.Command) (*run, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = config.DefaultPath()
	}
	noInput, err := cmd.Flags().GetBool("no-input")
	if err != nil {
		return nil, err
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("loaded settings", "path", path, "site_url", settings.SiteURL, "fields", len(settings.Fields))

	return &run{
		path:     path,
		settings: settings,
		console:  prompt.New(cmd.InOrStdin(), cmd.OutOrStdout()),
		report:   report.New(cmd.OutOrStdout()),
		noInput:  noInput,
	}, nil
}

// ask prompts for a value unless --no-input is set, in which case def is
// returned or errNoInput when def is empty.
func (r *run) ask(label, def string) (string, error) {
	if r.noInput {
		if def == "" {
			return "", fmt.Errorf("%s: %w", strings.ToLower(label), errNoInput)
		}
		return def, nil
	}
	return r.console.Ask(label, def)
}

// credentials collects the site URL, email and token. Saved values are
// offered for confirmation; the token comes from the environment or a
// no-echo prompt.
func (r *run) credentials() (config.Credentials, error) {
	s := r.settings
	mode := s.Mode()
	needEmail := mode != config.AuthBearer

	haveSaved := s.SiteURL != "" && (!needEmail || s.Email != "")
	useSaved := haveSaved
	if haveSaved && !r.noInput {
		question := fmt.Sprintf("Use saved Jira site %s", s.SiteURL)
		if needEmail {
			question += fmt.Sprintf(" as %s", s.Email)
		}
		ok, err := r.console.Confirm(question+"?", true)
		if err != nil {
			return config.Credentials{}, err
		}
		useSaved = ok
	}

	siteURL, email := s.SiteURL, s.Email
	if !useSaved {
		var err error
		if siteURL, err = r.ask("Jira site URL", s.SiteURL); err != nil {
			return config.Credentials{}, err
		}
		if needEmail {
			if email, err = r.ask("Email", s.Email); err != nil {
				return config.Credentials{}, err
			}
		}
	}

	token := config.EnvToken()
	if token == "" {
		if r.noInput {
			return config.Credentials{}, fmt.Errorf("api token: %w", errNoInput)
		}
		var err error
		if token, err = r.console.Secret("API token"); err != nil {
			return config.Credentials{}, err
		}
	} else {
		logging.Debug("using api token from environment")
	}

	creds := config.Credentials{
		SiteURL:  config.NormalizeSiteURL(siteURL),
		Email:    strings.TrimSpace(email),
		Token:    token,
		AuthMode: mode,
	}
	if err := config.ValidateCredentials(creds); err != nil {
		return config.Credentials{}, err
	}
	return creds, nil
}

// login connects and verifies the credentials. Settings are updated in
// memory only; callers save them once the run is authenticated.
func (r *run) login(ctx context.Context) (session, error) {
	creds, err := r.credentials()
	if err != nil {
		return nil, err
	}

	client, err := connect(creds)
	if err != nil {
		return nil, err
	}

	user, err := client.Myself(ctx)
	if err != nil {
		if errors.Is(err, jira.ErrUnauthorized) {
			r.report.Error("Authentication failed. Check your email and API token.")
		} else {
			r.report.Error(fmt.Sprintf("Could not connect to %s.", creds.SiteURL))
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	r.report.Success(fmt.Sprintf("Connected to %s as %s", creds.SiteURL, user.DisplayName))

	r.settings.SiteURL = creds.SiteURL
	r.settings.Email = creds.Email
	return client, nil
}

// save writes the settings file.
func (r *run) save() error {
	if err := config.Save(r.path, r.settings); err != nil {
		return err
	}
	logging.Info("saved settings", "path", r.path)
	return nil
}

// asker returns the discovery prompt for this run.
func (r *run) asker() discovery.Asker {
	if r.noInput {
		return noInputAsker{}
	}
	return &consoleAsker{console: r.console, report: r.report}
}
