// Package cmd provides the command-line interface for slacheck.
package cmd

import (
	"context"

	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slacheck",
	Short: "Slacheck measures Jira tickets against configuration SLAs",
	Long: `Slacheck is a CLI tool that measures how quickly configuration issues reported
in Jira are identified and resolved. It finds ACS tickets for a health plan,
follows their links to LPM tickets and counts the business days in between.

Running slacheck without a subcommand is the same as running 'slacheck check'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runCheck,
}

// ExecuteContext runs the root command with ctx, which is passed to every
// Jira request.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (default $XDG_CONFIG_HOME/slacheck/settings.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log JQL queries, field IDs and link decisions")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("no-input", false, "Never prompt; fail when a value is missing")

	addCheckFlags(rootCmd)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fieldsCmd)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	switch {
	case verbose:
		logging.SetupLogger(cmd.ErrOrStderr(), logging.LevelDebug)
	case level != "":
		logging.SetupLogger(cmd.ErrOrStderr(), logging.ParseLevel(level))
	}

	logging.SetRunID(uuid.NewString())
	logging.Debug("starting slacheck", "command", cmd.CommandPath())
	return nil
}
