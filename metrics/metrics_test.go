package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wippyai/wasm-native/errors"
)

func TestMetrics(t *testing.T) {
	_, m, err := NewRegistry()
	require.NoError(t, err)

	m.BindingAdded()
	m.BindingAdded()
	m.BindingRemoved()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bindings))

	m.BindFailed(werrors.DuplicateImport("env", "incr"))
	m.BindFailed(werrors.DuplicateImport("env", "incr"))
	m.BindFailed(assert.AnError)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bindFailures.WithLabelValues("duplicate_import")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bindFailures.WithLabelValues("unknown")))

	c := m.CallCounter("env", "incr")
	c.Inc()
	c.Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.nativeCalls.WithLabelValues("env", "incr")))
}

func TestMetricsDoubleRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	_, err := New(r)
	require.NoError(t, err)

	_, err = New(r)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BindingAdded()
		m.BindingRemoved()
		m.BindFailed(assert.AnError)
	})
	assert.Nil(t, m.CallCounter("env", "incr"))
}
