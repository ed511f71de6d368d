package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

// Recorder counts store activity on its own registry.
// It satisfies todos.Observer.
type Recorder struct {
	reg *prometheus.Registry

	mutationsTotal       *prometheus.CounterVec
	persistFailuresTotal *prometheus.CounterVec
	hydrationsTotal      *prometheus.CounterVec
	items                prometheus.Gauge
}

func New(namespace string) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of applied list mutations",
			},
			[]string{"op"},
		),
		persistFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Total number of failed writes to durable storage",
			},
			[]string{"op"},
		),
		hydrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hydrations_total",
				Help:      "Total number of hydrations by outcome",
			},
			[]string{"outcome"},
		),
		items: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items",
				Help:      "Number of items in the list",
			},
		),
	}
	r.reg.MustRegister(r.mutationsTotal, r.persistFailuresTotal, r.hydrationsTotal, r.items)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Mutated(op string, count int) {
	r.mutationsTotal.WithLabelValues(op).Inc()
	r.items.Set(float64(count))
}

func (r *Recorder) PersistFailed(op string, _ error) {
	r.persistFailuresTotal.WithLabelValues(op).Inc()
}

func (r *Recorder) Hydrated(count int, err error) {
	r.hydrationsTotal.WithLabelValues(outcome(err)).Inc()
	r.items.Set(float64(count))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func outcome(err error) string {
	var herr *jsonstore.HydrationError
	var perr *jsonstore.PersistenceError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &herr):
		return "malformed"
	case errors.As(err, &perr):
		return "unavailable"
	default:
		return "error"
	}
}
