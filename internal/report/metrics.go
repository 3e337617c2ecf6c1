package report

import (
	"fmt"

	"github.com/danielolaszy/slacheck/internal/sla"
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes the summaries to path in the Prometheus text format,
// for pickup by a node_exporter textfile collector.
func WriteMetrics(path string, summaries []*sla.Summary) error {
	registry := prometheus.NewRegistry()

	ticketCount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slacheck_tickets",
			Help: "Number of evaluated tickets by rule and SLA status.",
		},
		[]string{"rule", "status"},
	)
	compliance := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slacheck_compliance_percent",
			Help: "Share of resolved tickets that met the target, in percent.",
		},
		[]string{"rule"},
	)
	target := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slacheck_target_business_days",
			Help: "Business-day target of the rule.",
		},
		[]string{"rule"},
	)
	elapsed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slacheck_ticket_business_days",
			Help: "Elapsed business days per source ticket.",
		},
		[]string{"rule", "ticket", "status"},
	)
	excluded := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slacheck_excluded_tickets",
			Help: "Closed source tickets without a matching linked ticket.",
		},
		[]string{"rule"},
	)

	registry.MustRegister(ticketCount, compliance, target, elapsed, excluded)

	statuses := []sla.Status{sla.StatusMet, sla.StatusBreached, sla.StatusInProgress, sla.StatusAtRisk}
	for _, s := range summaries {
		if s == nil {
			continue
		}
		rule := s.Rule.ID
		for _, status := range statuses {
			ticketCount.WithLabelValues(rule, string(status)).Set(float64(s.Count(status)))
		}
		compliance.WithLabelValues(rule).Set(s.ComplianceRate())
		target.WithLabelValues(rule).Set(float64(s.Rule.TargetDays))
		excluded.WithLabelValues(rule).Set(float64(len(s.Excluded)))
		for _, r := range s.Results {
			elapsed.WithLabelValues(rule, r.Source.Key, string(r.Status)).Set(float64(r.ElapsedDays))
		}
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
