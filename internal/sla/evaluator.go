package sla

import (
	"sort"
	"time"

	"github.com/danielolaszy/slacheck/pkg/models"
)

// Status is the SLA outcome for one source ticket.
type Status string

const (
	StatusMet        Status = "met"
	StatusBreached   Status = "breached"
	StatusInProgress Status = "in_progress"
	StatusAtRisk     Status = "at_risk"
)

// Open reports whether the clock is still running.
func (s Status) Open() bool {
	return s == StatusInProgress || s == StatusAtRisk
}

// Label is the human-readable status name.
func (s Status) Label() string {
	switch s {
	case StatusMet:
		return "Met"
	case StatusBreached:
		return "Breached"
	case StatusInProgress:
		return "In Progress"
	case StatusAtRisk:
		return "At Risk"
	default:
		return string(s)
	}
}

// StopEvent is a linked ticket that satisfies a rule's stop predicate.
type StopEvent struct {
	Key      string
	At       time.Time
	Category string
}

// Result is the evaluation of one source ticket against a rule.
type Result struct {
	Source      models.Ticket
	Stop        *StopEvent
	ElapsedDays int
	TargetDays  int
	Due         time.Time
	Elapsed     string
	Status      Status
	SourceOfID  string
}

// RemainingDays is the unused business-day budget; negative once overdue.
func (r Result) RemainingDays() int {
	return r.TargetDays - r.ElapsedDays
}

// Evaluator applies a rule to source tickets.
type Evaluator struct {
	Rule     Rule
	Location *time.Location
	Now      func() time.Time
}

// NewEvaluator returns an evaluator counting calendar days in loc
// (time.Local when nil).
func NewEvaluator(rule Rule, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{Rule: rule, Location: loc, Now: time.Now}
}

// SelectStop picks the earliest stop event; equal times fall back to the
// lowest key. It returns nil when there are no candidates.
func SelectStop(candidates []StopEvent) *StopEvent {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.At.Before(best.At) || (c.At.Equal(best.At) && c.Key < best.Key) {
			best = c
		}
	}
	return &best
}

// Evaluate computes elapsed business days and status for source. Without a
// stop event the ticket is open and measured up to now.
func (e *Evaluator) Evaluate(source models.Ticket, candidates []StopEvent) Result {
	now := e.Now().In(e.Location)

	start := now
	if !source.Created.IsZero() {
		start = source.Created.In(e.Location)
	}

	stop := SelectStop(candidates)
	end := now
	if stop != nil {
		end = stop.At.In(e.Location)
	}

	result := Result{
		Source:      source,
		Stop:        stop,
		ElapsedDays: BusinessDays(start, end),
		TargetDays:  e.Rule.TargetDays,
		Due:         AddBusinessDays(start, e.Rule.TargetDays),
		Elapsed:     FormatElapsed(start, end),
	}

	switch {
	case stop != nil && result.ElapsedDays <= result.TargetDays:
		result.Status = StatusMet
	case stop != nil:
		result.Status = StatusBreached
	case result.RemainingDays() < e.Rule.AtRiskDays:
		result.Status = StatusAtRisk
	default:
		result.Status = StatusInProgress
	}

	return result
}

// Summary collects the results of one rule run.
type Summary struct {
	Rule     Rule
	Results  []Result
	Excluded []string
}

// Add appends a result.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// Total is the number of evaluated tickets.
func (s *Summary) Total() int {
	return len(s.Results)
}

// Count returns how many results have the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Resolved is the number of tickets whose clock has stopped.
func (s *Summary) Resolved() int {
	return s.Count(StatusMet) + s.Count(StatusBreached)
}

// ComplianceRate is the percentage of resolved tickets that met target.
// With nothing resolved it is 100.
func (s *Summary) ComplianceRate() float64 {
	resolved := s.Resolved()
	if resolved == 0 {
		return 100.0
	}
	return float64(s.Count(StatusMet)) / float64(resolved) * 100
}

// Sorted returns the results newest source ticket first.
func (s *Summary) Sorted() []Result {
	out := make([]Result, len(s.Results))
	copy(out, s.Results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Source.Created.After(out[j].Source.Created)
	})
	return out
}
