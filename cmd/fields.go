package cmd

import (
	"context"
	"sort"

	"github.com/danielolaszy/slacheck/internal/config"
	"github.com/danielolaszy/slacheck/internal/discovery"
	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/internal/sla"
	"github.com/danielolaszy/slacheck/pkg/models"
	"github.com/spf13/cobra"
)

// fieldsCmd shows or refreshes the discovered Jira field IDs.
var fieldsCmd = &cobra.Command{
	Use:   "fields [search]",
	Short: "Show discovered Jira field IDs",
	Long: `Show the Jira field IDs remembered from field discovery.

With a search term, list the Jira fields whose name contains it. With
--rediscover, forget the remembered IDs and look them up again.

Examples:
  slacheck fields
  slacheck fields "health plan"
  slacheck fields --rediscover`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().Bool("rediscover", false, "Forget remembered field IDs and discover them again")
}

// knownRoles is the display order of field roles.
var knownRoles = []string{
	models.FieldHealthPlan,
	models.FieldCategory,
	models.FieldSourceOfID,
	models.FieldConfigDoneDate,
}

func runFields(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rediscover, err := cmd.Flags().GetBool("rediscover")
	if err != nil {
		return err
	}

	r, err := newRun(cmd)
	if err != nil {
		return err
	}

	if !rediscover && len(args) == 0 {
		r.report.Fields(fieldRows(r.settings.Fields))
		return nil
	}

	client, err := r.login(ctx)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		fields, err := newDiscoverer(r, client).Search(ctx, args[0])
		if err != nil {
			return err
		}
		r.report.FieldList(fields)
		if !rediscover {
			return r.save()
		}
	}

	// A failed rediscovery leaves the saved IDs untouched.
	fresh := &config.Settings{}
	if _, err := newDiscoverer(r, client).Ensure(ctx, fresh, fieldSpecs(sla.Rules())); err != nil {
		logging.Warn("rediscovery failed, keeping saved fields", "count", len(r.settings.Fields), "error", err)
		return err
	}

	logging.Info("replacing discovered fields", "old", len(r.settings.Fields), "new", len(fresh.Fields))
	r.settings.Fields = fresh.Fields
	if err := r.save(); err != nil {
		return err
	}

	r.report.Success("Jira fields rediscovered")
	r.report.Fields(fieldRows(r.settings.Fields))
	return nil
}

func newDiscoverer(r *run, client session) *discovery.Discoverer {
	return discovery.New(client, r.asker())
}

// fieldRows lists known roles first, then any others by name.
func fieldRows(fields map[string]string) [][]string {
	var rows [][]string
	seen := make(map[string]bool)
	for _, role := range knownRoles {
		if id := fields[role]; id != "" {
			rows = append(rows, []string{role, sla.DefaultLabel(role), id})
			seen[role] = true
		}
	}

	var extra []string
	for role, id := range fields {
		if !seen[role] && id != "" {
			extra = append(extra, role)
		}
	}
	sort.Strings(extra)
	for _, role := range extra {
		rows = append(rows, []string{role, "-", fields[role]})
	}
	return rows
}
