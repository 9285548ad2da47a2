package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/wasm-native/errors"
)

const namespace = "wasmnative"

// Metrics counts bindings and native calls.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	bindings     prometheus.Gauge
	bindFailures *prometheus.CounterVec
	nativeCalls  *prometheus.CounterVec
}

// New creates the collectors and registers them with r.
func New(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bindings",
			Help:      "number of live native bindings",
		}),
		bindFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bind_failures_total",
			Help:      "number of rejected bind requests by error kind",
		}, []string{"kind"}),
		nativeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_calls_total",
			Help:      "number of native calls made by guests",
		}, []string{"namespace", "name"}),
	}

	err := errors.Join(
		r.Register(m.bindings),
		r.Register(m.bindFailures),
		r.Register(m.nativeCalls),
	)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindRegistration, err, "register metrics")
	}
	return m, nil
}

// NewRegistry creates a fresh registry with the collectors registered.
func NewRegistry() (*prometheus.Registry, *Metrics, error) {
	r := prometheus.NewRegistry()
	m, err := New(r)
	if err != nil {
		return nil, nil, err
	}
	return r, m, nil
}

// BindingAdded records a successful bind.
func (m *Metrics) BindingAdded() {
	if m == nil {
		return
	}
	m.bindings.Inc()
}

// BindingRemoved records a released binding.
func (m *Metrics) BindingRemoved() {
	if m == nil {
		return
	}
	m.bindings.Dec()
}

// BindFailed records a rejected bind request.
func (m *Metrics) BindFailed(err error) {
	if m == nil {
		return
	}
	kind := "unknown"
	var e *errors.Error
	if errors.As(err, &e) {
		kind = string(e.Kind)
	}
	m.bindFailures.WithLabelValues(kind).Inc()
}

// CallCounter returns the counter of one import, resolved once so the call
// path does no label lookup. It returns nil for a nil *Metrics.
func (m *Metrics) CallCounter(ns, name string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.nativeCalls.WithLabelValues(ns, name)
}
