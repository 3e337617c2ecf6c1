package sla

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielolaszy/slacheck/internal/jira"
	"github.com/danielolaszy/slacheck/internal/logging"
	"github.com/danielolaszy/slacheck/pkg/models"
)

// TicketSource is the subset of the Jira client the checker needs.
type TicketSource interface {
	SearchTickets(ctx context.Context, jql string, fields []string) ([]models.Ticket, error)
	GetTicket(ctx context.Context, key string, fields []string) (models.Ticket, error)
}

// FieldIDs resolves field roles to discovered Jira field IDs.
type FieldIDs interface {
	FieldID(role string) string
}

// closedStatuses mark source tickets that are dropped when no stop event exists.
var closedStatuses = map[string]bool{
	"closed":    true,
	"resolved":  true,
	"canceled":  true,
	"cancelled": true,
}

// Checker correlates source tickets with their linked tickets and evaluates
// them against one rule.
type Checker struct {
	source    TicketSource
	fields    FieldIDs
	evaluator *Evaluator
	dates     DateRange
}

// NewChecker creates a checker for the evaluator's rule.
func NewChecker(source TicketSource, fields FieldIDs, evaluator *Evaluator, dates DateRange) *Checker {
	return &Checker{
		source:    source,
		fields:    fields,
		evaluator: evaluator,
		dates:     dates,
	}
}

// Run queries source tickets, resolves stop events from linked tickets and
// returns the evaluated summary. A failed linked-ticket fetch skips that link;
// a failed search fails the run.
func (c *Checker) Run(ctx context.Context) (*Summary, error) {
	rule := c.evaluator.Rule
	planID := c.fields.FieldID(rule.PlanField)
	sourceOfID := c.fields.FieldID(models.FieldSourceOfID)

	jql := rule.JQL(planID, c.dates)
	sourceFields := nonEmpty("created", "summary", "status", "project", "issuelinks", planID, sourceOfID)

	logging.Debug("running sla query",
		"rule", rule.ID,
		"jql", jql,
		"fields", sourceFields)

	tickets, err := c.source.SearchTickets(ctx, jql, sourceFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s tickets for %q: %w", rule.SourceProject, rule.Name, err)
	}

	logging.Info("source tickets returned", "rule", rule.ID, "count", len(tickets))

	summary := &Summary{Rule: rule}
	for _, ticket := range tickets {
		candidates, err := c.stopEvents(ctx, ticket)
		if err != nil {
			return nil, err
		}

		result := c.evaluator.Evaluate(ticket, candidates)
		result.SourceOfID = ticket.FieldValue(sourceOfID)

		if result.Stop == nil && closedStatuses[strings.ToLower(ticket.Status)] {
			logging.Debug("excluding ticket without stop event",
				"ticket", ticket.Key,
				"status", ticket.Status)
			summary.Excluded = append(summary.Excluded, ticket.Key)
			continue
		}

		logging.Debug("evaluated ticket",
			"ticket", ticket.Key,
			"status", result.Status,
			"business_days", result.ElapsedDays,
			"elapsed", result.Elapsed)

		summary.Add(result)
	}

	return summary, nil
}

// stopEvents fetches the ticket's links in the rule's linked project and
// returns those that satisfy the stop predicate.
func (c *Checker) stopEvents(ctx context.Context, ticket models.Ticket) ([]StopEvent, error) {
	rule := c.evaluator.Rule
	categoryID := c.fields.FieldID(models.FieldCategory)
	stopFieldID := ""
	if rule.Stop == StopOnLinkedDate {
		stopFieldID = c.fields.FieldID(rule.StopField)
	}
	linkedFields := nonEmpty("created", categoryID, stopFieldID)

	var events []StopEvent
	for _, key := range ticket.LinksInProject(rule.LinkedProject) {
		linked, err := c.source.GetTicket(ctx, key, linkedFields)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logging.Warn("failed to fetch linked ticket",
				"ticket", ticket.Key,
				"linked", key,
				"error", err)
			continue
		}

		if event, ok := c.stopEvent(linked, categoryID, stopFieldID); ok {
			logging.Debug("linked ticket matches stop predicate",
				"ticket", ticket.Key,
				"linked", key,
				"at", event.At)
			events = append(events, event)
		} else {
			logging.Debug("linked ticket does not match",
				"ticket", ticket.Key,
				"linked", key,
				"category", linked.FieldValue(categoryID))
		}
	}
	return events, nil
}

func (c *Checker) stopEvent(linked models.Ticket, categoryID, stopFieldID string) (StopEvent, bool) {
	rule := c.evaluator.Rule
	category := linked.FieldValue(categoryID)

	switch rule.Stop {
	case StopOnLinkedCreated:
		if !strings.EqualFold(strings.TrimSpace(category), rule.Category) || linked.Created.IsZero() {
			return StopEvent{}, false
		}
		return StopEvent{Key: linked.Key, At: linked.Created, Category: category}, true

	case StopOnLinkedDate:
		raw := linked.FieldValue(stopFieldID)
		if raw == "" {
			return StopEvent{}, false
		}
		at, err := jira.ParseTime(raw, c.evaluator.Location)
		if err != nil {
			logging.Warn("ignoring unparseable stop date",
				"linked", linked.Key,
				"value", raw,
				"error", err)
			return StopEvent{}, false
		}
		return StopEvent{Key: linked.Key, At: at, Category: category}, true
	}

	return StopEvent{}, false
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
