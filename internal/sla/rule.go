package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielolaszy/slacheck/pkg/models"
)

// StopKind selects which event on a linked ticket stops the SLA clock.
type StopKind int

const (
	// StopOnLinkedCreated stops the clock when a linked ticket with the
	// rule's category is created.
	StopOnLinkedCreated StopKind = iota
	// StopOnLinkedDate stops the clock at a date field set on the linked ticket.
	StopOnLinkedDate
)

// Rule describes one SLA: which tickets start the clock, which linked
// ticket stops it, and the business-day target.
type Rule struct {
	ID          string
	Name        string
	Description string

	// Start predicate: tickets in SourceProject whose plan field equals PlanValue.
	SourceProject string
	PlanField     string
	PlanValue     string

	// Stop predicate: a linked ticket in LinkedProject.
	LinkedProject string
	Stop          StopKind
	Category      string
	StopField     string

	TargetDays int
	AtRiskDays int
}

var (
	// IdentificationRule is the break-fix identification SLA.
	IdentificationRule = Rule{
		ID:            "identification",
		Name:          "Identification of Resolution for Configuration Issues",
		Description:   "Time from ACS ticket creation to a linked LPM ticket with category 'break fix'",
		SourceProject: "ACS",
		PlanField:     models.FieldHealthPlan,
		PlanValue:     "BCBSLA",
		LinkedProject: "LPM",
		Stop:          StopOnLinkedCreated,
		Category:      "break fix",
		TargetDays:    30,
		AtRiskDays:    5,
	}

	// ResolutionRule is the configuration resolution SLA.
	ResolutionRule = Rule{
		ID:            "resolution",
		Name:          "Resolution of Configuration Issues",
		Description:   "Time from ACS ticket creation to the config done date on a linked LPM ticket",
		SourceProject: "ACS",
		PlanField:     models.FieldHealthPlan,
		PlanValue:     "BCBSLA",
		LinkedProject: "LPM",
		Stop:          StopOnLinkedDate,
		StopField:     models.FieldConfigDoneDate,
		TargetDays:    60,
		AtRiskDays:    10,
	}
)

// fieldLabels are the Jira labels looked up during field discovery.
var fieldLabels = map[string]string{
	models.FieldHealthPlan:     "Health plan (migrated)",
	models.FieldCategory:       "Category",
	models.FieldSourceOfID:     "Source of identification",
	models.FieldConfigDoneDate: "Config done date",
}

// DefaultLabel returns the Jira label normally used for a field role.
func DefaultLabel(role string) string {
	return fieldLabels[role]
}

// Rules returns every supported rule in display order.
func Rules() []Rule {
	return []Rule{IdentificationRule, ResolutionRule}
}

// Lookup finds a rule by ID.
func Lookup(id string) (Rule, error) {
	for _, r := range Rules() {
		if strings.EqualFold(r.ID, id) {
			return r, nil
		}
	}
	ids := make([]string, 0, len(Rules()))
	for _, r := range Rules() {
		ids = append(ids, r.ID)
	}
	return Rule{}, fmt.Errorf("unknown rule %q: expected one of %v", id, ids)
}

// FieldSpecs lists the fields the rule reads, for discovery.
func (r Rule) FieldSpecs() []models.FieldSpec {
	specs := []models.FieldSpec{
		{Role: r.PlanField, Label: DefaultLabel(r.PlanField)},
		{Role: models.FieldCategory, Label: DefaultLabel(models.FieldCategory), Optional: r.Stop != StopOnLinkedCreated},
		{Role: models.FieldSourceOfID, Label: DefaultLabel(models.FieldSourceOfID), Optional: true},
	}
	if r.Stop == StopOnLinkedDate {
		specs = append(specs, models.FieldSpec{Role: r.StopField, Label: DefaultLabel(r.StopField)})
	}
	return specs
}

// JQL builds the source ticket query. planFieldID is the discovered field ID
// for the plan field; without it the field's label is used.
func (r Rule) JQL(planFieldID string, dates DateRange) string {
	jql := fmt.Sprintf("project = %s AND %s = %s",
		r.SourceProject,
		jqlField(planFieldID, DefaultLabel(r.PlanField)),
		strconv.Quote(r.PlanValue))
	return jql + dates.JQL()
}

// jqlField returns the JQL reference for a field: cf[N] for custom fields,
// otherwise the quoted label.
func jqlField(id, label string) string {
	if n, ok := strings.CutPrefix(id, "customfield_"); ok && n != "" {
		return "cf[" + n + "]"
	}
	return strconv.Quote(label)
}

// DateRange optionally limits source tickets by creation date. Zero values
// leave that side open. Both ends are inclusive calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

const dateLayout = "2006-01-02"

// ParseDateRange parses YYYY-MM-DD bounds. Empty strings leave a side open.
func ParseDateRange(from, to string) (DateRange, error) {
	var dr DateRange
	var err error

	if from = strings.TrimSpace(from); from != "" {
		if dr.From, err = time.Parse(dateLayout, from); err != nil {
			return DateRange{}, fmt.Errorf("start date %q is not valid, expected YYYY-MM-DD", from)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if dr.To, err = time.Parse(dateLayout, to); err != nil {
			return DateRange{}, fmt.Errorf("end date %q is not valid, expected YYYY-MM-DD", to)
		}
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return dr, nil
}

// JQL returns the created-date clauses, each prefixed with " AND ".
func (d DateRange) JQL() string {
	var b strings.Builder
	if !d.From.IsZero() {
		fmt.Fprintf(&b, ` AND created >= "%s"`, d.From.Format(dateLayout))
	}
	if !d.To.IsZero() {
		fmt.Fprintf(&b, ` AND created < "%s"`, d.To.AddDate(0, 0, 1).Format(dateLayout))
	}
	return b.String()
}

func (d DateRange) String() string {
	from, to := "beginning", "now"
	if !d.From.IsZero() {
		from = d.From.Format(dateLayout)
	}
	if !d.To.IsZero() {
		to = d.To.Format(dateLayout)
	}
	return from + " to " + to
}
