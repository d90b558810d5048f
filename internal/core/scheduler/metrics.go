package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

// Metrics exports scheduler activity to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	events          *prometheus.CounterVec
	postponed       prometheus.Counter
	passes          prometheus.Counter
	consumedRefTime prometheus.Counter
	consumedProof   prometheus.Counter
	incomplete      prometheus.Gauge
}

// NewMetrics creates and registers the scheduler collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "events_total",
			Help:      "Scheduler events by kind.",
		}, []string{"kind"}),
		postponed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "postponed_total",
			Help:      "Tasks left in their agenda for a later pass.",
		}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "passes_total",
			Help:      "Servicing passes run.",
		}),
		consumedRefTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "consumed_ref_time_total",
			Help:      "Reference time consumed by servicing passes.",
		}),
		consumedProof: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "consumed_proof_size_total",
			Help:      "Proof size consumed by servicing passes.",
		}),
		incomplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "schedd",
			Subsystem: "scheduler",
			Name:      "incomplete_since",
			Help:      "Earliest tick with backlog, or zero when none.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.postponed, m.passes, m.consumedRefTime, m.consumedProof, m.incomplete)
	}
	return m
}

func (m *Metrics) observeEvents(events []Event) {
	if m == nil {
		return
	}
	for _, ev := range events {
		m.events.WithLabelValues(ev.Kind.String()).Inc()
	}
}

func (m *Metrics) observePass(consumed weight.Weight, postponed int, incomplete *Tick) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.postponed.Add(float64(postponed))
	m.consumedRefTime.Add(float64(consumed.RefTime))
	m.consumedProof.Add(float64(consumed.ProofSize))
	if incomplete != nil {
		m.incomplete.Set(float64(*incomplete))
	} else {
		m.incomplete.Set(0)
	}
}
