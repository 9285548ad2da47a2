package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/engine"
	"github.com/wippyai/wasm-native/library"
	"github.com/wippyai/wasm-native/linker"
)

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
	loader     *library.Loader
	engine     engine.Config
	linker     linker.Options
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger for runtime and bind events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngineConfig sets the wazero engine configuration.
func WithEngineConfig(cfg engine.Config) Option {
	return func(o *options) {
		o.engine = cfg
	}
}

// WithMetrics registers binding and native call collectors with r.
func WithMetrics(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithTracer traces every native call.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithLoader uses l to open libraries. The runtime closes it.
func WithLoader(l *library.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLinkerOptions sets the linker options.
func WithLinkerOptions(opts linker.Options) Option {
	return func(o *options) {
		o.linker = opts
	}
}

func buildOptions(opts []Option) *options {
	o := &options{linker: linker.DefaultOptions()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.loader == nil {
		o.loader = library.NewLoader()
	}
	return o
}
