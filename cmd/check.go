package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/internal/report"
	"github.com/danielolaszy/slacheck/internal/sla"
	"github.com/danielolaszy/slacheck/pkg/models"
	"github.com/spf13/cobra"
)

// checkCmd runs the SLA compliance check.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check ticket SLA compliance",
	Long: `Check ACS tickets against the configuration SLAs.

On the first run you are asked for your Jira site, email and API token, and
the Jira fields the rules need are looked up by name. Everything except the
token is remembered for the next run.

Rules:
  identification  ACS ticket created until a linked LPM 'break fix' ticket
                  is created; 30 business days
  resolution      ACS ticket created until the linked LPM ticket's config
                  done date; 60 business days

Examples:
  slacheck check
  slacheck check --rule identification --from 2024-01-01 --to 2024-06-30
  SLACHECK_API_TOKEN=... slacheck check --no-input --metrics-file /var/lib/node_exporter/slacheck.prom`,
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("rule", "r", []string{}, "Rule to check (identification, resolution); repeatable, default all")
	cmd.Flags().String("from", "", "Only tickets created on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only tickets created on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("metrics-file", "", "Write results in Prometheus textfile format to this path")
}

type checkOptions struct {
	rules       []sla.Rule
	from        string
	to          string
	dateFlags   bool
	metricsFile string
}

func readCheckOptions(cmd *cobra.Command) (checkOptions, error) {
	var opts checkOptions

	ids, err := cmd.Flags().GetStringArray("rule")
	if err != nil {
		return opts, err
	}
	opts.rules, err = selectRules(ids)
	if err != nil {
		return opts, err
	}

	if opts.from, err = cmd.Flags().GetString("from"); err != nil {
		return opts, err
	}
	if opts.to, err = cmd.Flags().GetString("to"); err != nil {
		return opts, err
	}
	opts.dateFlags = cmd.Flags().Changed("from") || cmd.Flags().Changed("to")

	if opts.metricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return opts, err
	}
	return opts, nil
}

// selectRules resolves rule IDs, keeping order and dropping duplicates.
// No IDs selects every rule.
func selectRules(ids []string) ([]sla.Rule, error) {
	if len(ids) == 0 {
		return sla.Rules(), nil
	}

	seen := make(map[string]bool)
	var rules []sla.Rule
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			rule, err := sla.Lookup(part)
			if err != nil {
				return nil, err
			}
			if !seen[rule.ID] {
				seen[rule.ID] = true
				rules = append(rules, rule)
			}
		}
	}
	return rules, nil
}

// fieldSpecs merges the fields needed by rules. A role required by any rule
// is required.
func fieldSpecs(rules []sla.Rule) []models.FieldSpec {
	var specs []models.FieldSpec
	index := make(map[string]int)
	for _, rule := range rules {
		for _, spec := range rule.FieldSpecs() {
			if i, ok := index[spec.Role]; ok {
				specs[i].Optional = specs[i].Optional && spec.Optional
				continue
			}
			index[spec.Role] = len(specs)
			specs = append(specs, spec)
		}
	}
	return specs
}

func runCheck(cmd *cobra.Command, _ []string) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := readCheckOptions(cmd)
	if err != nil {
		return err
	}

	r, err := newRun(cmd)
	if err != nil {
		return err
	}

	r.report.Header("SLA Compliance Check", "Jira configuration SLAs for ACS tickets")

	client, err := r.login(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if saveErr := r.save(); saveErr != nil {
			logging.Error("failed to save settings", "path", r.path, "error", saveErr)
			if err == nil {
				err = saveErr
			}
		}
	}()

	changed, err := newDiscoverer(r, client).Ensure(ctx, r.settings, fieldSpecs(opts.rules))
	if err != nil {
		return err
	}
	if changed {
		r.report.Success("Jira fields discovered and saved for next time")
	}

	dates, err := r.dateRange(opts)
	if err != nil {
		return err
	}
	r.report.Info(fmt.Sprintf("Checking tickets created %s", dates))

	var summaries []*sla.Summary
	var failed []string
	for _, rule := range opts.rules {
		logging.Info("checking rule", "rule", rule.ID, "dates", dates.String())

		checker := sla.NewChecker(client, r.settings, sla.NewEvaluator(rule, time.Local), dates)
		summary, runErr := checker.Run(ctx)
		if runErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error("rule failed", "rule", rule.ID, "error", runErr)
			r.report.Error(fmt.Sprintf("%s: %v", rule.Name, runErr))
			failed = append(failed, rule.ID)
			continue
		}

		r.report.Rule(summary, dates)
		summaries = append(summaries, summary)
	}

	if opts.metricsFile != "" {
		if err := report.WriteMetrics(opts.metricsFile, summaries); err != nil {
			return err
		}
		logging.Info("wrote metrics", "path", opts.metricsFile)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d rules failed: %s", len(failed), len(opts.rules), strings.Join(failed, ", "))
	}
	return nil
}

// dateRange returns the creation-date filter from flags, or asks for it
// when running interactively without date flags.
func (r *run) dateRange(opts checkOptions) (sla.DateRange, error) {
	if opts.dateFlags || r.noInput {
		return sla.ParseDateRange(opts.from, opts.to)
	}

	for attempt := 0; attempt < 3; attempt++ {
		from, err := r.console.Ask("Start date (YYYY-MM-DD, blank for all)", "")
		if err != nil {
			return sla.DateRange{}, err
		}
		to, err := r.console.Ask("End date (YYYY-MM-DD, blank for today)", "")
		if err != nil {
			return sla.DateRange{}, err
		}

		dates, err := sla.ParseDateRange(from, to)
		if err == nil {
			return dates, nil
		}
		r.report.Warn(err.Error())
	}
	return sla.DateRange{}, fmt.Errorf("no valid date range entered")
}
