// Package report renders SLA results to the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danielolaszy/slacheck/internal/sla"
	"github.com/danielolaszy/slacheck/pkg/models"
)

const dateFormat = "2006-01-02"

// statusColumn is the index of the Status column in the ticket table.
const statusColumn = 7

// Reporter writes styled output. Colors are only used when out is a terminal.
type Reporter struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	styles   styles
}

// New creates a Reporter writing to out.
func New(out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{out: out, renderer: r, styles: newStyles(r)}
}

// Header prints a boxed title with optional detail lines.
func (r *Reporter) Header(title string, lines ...string) {
	body := r.styles.title.Render(title)
	for _, l := range lines {
		body += "\n" + r.styles.muted.Render(l)
	}
	fmt.Fprintln(r.out, r.styles.box.Render(body))
}

// Info prints a plain message.
func (r *Reporter) Info(msg string) {
	fmt.Fprintln(r.out, r.styles.value.Render(msg))
}

// Success prints a confirmation.
func (r *Reporter) Success(msg string) {
	fmt.Fprintln(r.out, r.renderer.NewStyle().Foreground(colorMet).Render("✓ "+msg))
}

// Warn prints a warning.
func (r *Reporter) Warn(msg string) {
	fmt.Fprintln(r.out, r.renderer.NewStyle().Foreground(colorAtRisk).Render("! "+msg))
}

// Error prints an error.
func (r *Reporter) Error(msg string) {
	fmt.Fprintln(r.out, r.renderer.NewStyle().Foreground(colorBreached).Bold(true).Render("✗ "+msg))
}

// Rule prints the summary panel and ticket table of one rule run.
func (r *Reporter) Rule(s *sla.Summary, dates sla.DateRange) {
	r.Summary(s, dates)
	r.Tickets(s)
}

type metric struct {
	label string
	value string
}

// Summary prints the rule's headline metrics.
func (r *Reporter) Summary(s *sla.Summary, dates sla.DateRange) {
	rate := s.ComplianceRate()
	rateStyle := r.renderer.NewStyle().Foreground(complianceColor(rate)).Bold(true)

	rows := []metric{
		{"Target", fmt.Sprintf("%d business days", s.Rule.TargetDays)},
		{"Period", dates.String()},
		{"Tickets", fmt.Sprintf("%d", s.Total())},
		{"Met", r.status(sla.StatusMet, fmt.Sprintf("%d", s.Count(sla.StatusMet)))},
		{"Breached", r.status(sla.StatusBreached, fmt.Sprintf("%d", s.Count(sla.StatusBreached)))},
		{"In progress", r.status(sla.StatusInProgress, fmt.Sprintf("%d", s.Count(sla.StatusInProgress)))},
		{"At risk", r.status(sla.StatusAtRisk, fmt.Sprintf("%d", s.Count(sla.StatusAtRisk)))},
		{"Compliance", rateStyle.Render(fmt.Sprintf("%.1f%%", rate))},
	}
	if len(s.Excluded) > 0 {
		rows = append(rows, metric{"Excluded", fmt.Sprintf("%d closed without link", len(s.Excluded))})
	}

	var b strings.Builder
	b.WriteString(r.styles.title.Render(s.Rule.Name))
	b.WriteString("\n")
	b.WriteString(r.styles.muted.Render(s.Rule.Description))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(r.styles.label.Render(row.label))
		b.WriteString(r.styles.value.Render(row.value))
	}

	fmt.Fprintln(r.out, r.styles.box.Render(b.String()))
}

// Tickets prints one row per result, newest source ticket first.
func (r *Reporter) Tickets(s *sla.Summary) {
	results := s.Sorted()
	if len(results) == 0 {
		fmt.Fprintln(r.out, r.styles.muted.Render("No tickets found."))
		return
	}

	statuses := make([]sla.Status, len(results))
	rows := make([][]string, len(results))
	for i, res := range results {
		statuses[i] = res.Status
		rows[i] = []string{
			res.Source.Key,
			formatDate(res.Source.Created),
			formatDate(res.Due),
			orDash(res.SourceOfID),
			linkedKey(res),
			stopDate(res),
			days(res),
			res.Status.Label(),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.border).
		Headers("Source", "Created", "Due", "Source of ID", "Linked", "Stop date", "Business days", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			if col == statusColumn && row >= 0 && row < len(statuses) {
				return r.styles.cell.Foreground(statusColor(statuses[row]))
			}
			return r.styles.cell
		})

	fmt.Fprintln(r.out, t.String())
}

// Fields prints the cached role to field ID mapping.
func (r *Reporter) Fields(rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(r.out, r.styles.muted.Render("No fields discovered yet."))
		return
	}
	r.plainTable([]string{"Role", "Label", "Field ID"}, rows)
}

// FieldList prints Jira field metadata.
func (r *Reporter) FieldList(fields []models.Field) {
	if len(fields) == 0 {
		fmt.Fprintln(r.out, r.styles.muted.Render("No matching fields."))
		return
	}
	rows := make([][]string, len(fields))
	for i, f := range fields {
		custom := ""
		if f.Custom {
			custom = "yes"
		}
		rows[i] = []string{f.ID, f.Name, orDash(f.Type), custom}
	}
	r.plainTable([]string{"ID", "Name", "Type", "Custom"}, rows)
}

func (r *Reporter) plainTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return r.styles.cell
		})
	fmt.Fprintln(r.out, t.String())
}

func (r *Reporter) status(status sla.Status, text string) string {
	return r.renderer.NewStyle().Foreground(statusColor(status)).Render(text)
}

func linkedKey(res sla.Result) string {
	if res.Stop == nil {
		return "-"
	}
	return res.Stop.Key
}

func stopDate(res sla.Result) string {
	if res.Stop == nil {
		return "-"
	}
	return formatDate(res.Stop.At)
}

func days(res sla.Result) string {
	if !res.Status.Open() {
		return fmt.Sprintf("%d / %d", res.ElapsedDays, res.TargetDays)
	}
	remaining := res.RemainingDays()
	if remaining < 0 {
		return fmt.Sprintf("%d / %d (%d over)", res.ElapsedDays, res.TargetDays, -remaining)
	}
	return fmt.Sprintf("%d / %d (%d left)", res.ElapsedDays, res.TargetDays, remaining)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateFormat)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
