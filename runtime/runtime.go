package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/bridge"
	"github.com/wippyai/wasm-native/config"
	"github.com/wippyai/wasm-native/engine"
	"github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/library"
	"github.com/wippyai/wasm-native/linker"
	"github.com/wippyai/wasm-native/metrics"
)

// Import binds (Namespace, Name) to Symbol of the library opened under
// Library. Symbol defaults to Name.
type Import struct {
	Namespace string
	Name      string
	Library   string
	Symbol    string
	Params    []abi.ParamType
	Result    abi.ParamType
}

type Runtime struct {
	engine  *engine.WazeroEngine
	linker  *linker.Linker
	loader  *library.Loader
	logger  *zap.Logger
	metrics *metrics.Metrics
	bind    []bridge.Option
	mu      sync.Mutex
	closed  bool
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	o := buildOptions(opts)

	var m *metrics.Metrics
	if o.registerer != nil {
		var err error
		if m, err = metrics.New(o.registerer); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindRegistration, err, "register metrics")
		}
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &o.engine)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	bindOpts := []bridge.Option{bridge.WithLogger(o.logger), bridge.WithMetrics(m)}
	if o.tracer != nil {
		bindOpts = append(bindOpts, bridge.WithTracer(o.tracer))
	}

	return &Runtime{
		engine:  eng,
		linker:  linker.New(eng.Runtime(), o.linker),
		loader:  o.loader,
		logger:  o.logger,
		metrics: m,
		bind:    bindOpts,
	}, nil
}

// NewFromManifest creates a runtime configured by m.Engine and binds m.
func NewFromManifest(ctx context.Context, m *config.Manifest, opts ...Option) (*Runtime, error) {
	if err := config.Validate(m); err != nil {
		return nil, err
	}
	cfg := engine.Config{
		MemoryLimitPages: m.Engine.MemoryLimitPages,
		EnableWASI:       m.Engine.WASI,
	}
	opts = append([]Option{WithEngineConfig(cfg)}, opts...)

	r, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.BindManifest(m); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return r, nil
}

// Engine returns the underlying engine.
func (r *Runtime) Engine() *engine.WazeroEngine {
	return r.engine
}

// Linker returns the import linker shared by every module of the runtime.
func (r *Runtime) Linker() *linker.Linker {
	return r.linker
}

// Loader returns the library loader.
func (r *Runtime) Loader() *library.Loader {
	return r.loader
}

// Metrics returns the runtime's collectors, or nil without WithMetrics.
func (r *Runtime) Metrics() *metrics.Metrics {
	return r.metrics
}

// OpenLibrary opens the shared library at path under name.
func (r *Runtime) OpenLibrary(name, path string) (library.Handle, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.loader.Open(name, path)
}

// AddLibrary registers an open handle, such as a library.Table, under
// name. The runtime takes over the caller's reference.
func (r *Runtime) AddLibrary(name string, h library.Handle) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	return r.loader.Add(name, h)
}

// Bind binds imp. See bridge.UnsafeBind for what is and is not checked.
func (r *Runtime) Bind(imp Import) (*bridge.Binding, error) {
	req, err := r.request(imp)
	if err != nil {
		return nil, err
	}
	return r.BindRequest(req)
}

// BindRequest binds a request carrying its own library handle.
func (r *Runtime) BindRequest(req bridge.Request) (*bridge.Binding, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return bridge.UnsafeBind(r.linker, req, r.bind...)
}

// BindAll binds every import or none.
func (r *Runtime) BindAll(imps []Import) ([]*bridge.Binding, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	reqs := make([]bridge.Request, 0, len(imps))
	for _, imp := range imps {
		req, err := r.request(imp)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return bridge.UnsafeBindAll(r.linker, reqs, r.bind...)
}

// BindManifest opens the manifest's libraries and binds its imports as one
// batch. Libraries stay open if binding fails.
func (r *Runtime) BindManifest(m *config.Manifest) error {
	if err := config.Validate(m); err != nil {
		return err
	}

	for _, lib := range m.Libraries {
		if _, err := r.OpenLibrary(lib.Name, lib.ResolvedPath()); err != nil {
			return err
		}
	}

	imps := make([]Import, 0, len(m.Imports))
	for _, spec := range m.Imports {
		sig, err := spec.Sig()
		if err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err,
				"signature of "+spec.Namespace+"."+spec.Name)
		}
		imps = append(imps, Import{
			Namespace: spec.Namespace,
			Name:      spec.Name,
			Library:   spec.Library,
			Symbol:    spec.SymbolName(),
			Params:    sig.Params,
			Result:    sig.Result,
		})
	}

	if _, err := r.BindAll(imps); err != nil {
		return err
	}
	r.logger.Info("manifest bound",
		zap.Int("libraries", len(m.Libraries)),
		zap.Int("imports", len(imps)))
	return nil
}

// Unbind removes a binding and releases its library reference. Once a
// module importing from the namespace has been instantiated the namespace is
// sealed and Unbind fails with errors.KindRegistration.
func (r *Runtime) Unbind(namespace, name string) error {
	return r.linker.Undefine(namespace, name)
}

func (r *Runtime) request(imp Import) (bridge.Request, error) {
	h, err := r.loader.Get(imp.Library)
	if err != nil {
		return bridge.Request{}, err
	}
	return bridge.Request{
		Namespace: imp.Namespace,
		Name:      imp.Name,
		Library:   h,
		Symbol:    imp.Symbol,
		Params:    imp.Params,
		Result:    imp.Result,
	}, nil
}

// LoadWASM compiles a core WebAssembly module. Its imports are resolved
// when it is instantiated.
func (r *Runtime) LoadWASM(ctx context.Context, wasm []byte) (*Module, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	mod, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}
	return &Module{runtime: r, wazeroModule: mod}, nil
}

func (r *Runtime) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.NotInitialized(errors.PhaseRuntime, "runtime")
	}
	return nil
}

// Close releases all runtime resources: bindings, libraries and the
// engine. Instances must not be used afterwards.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	return errors.Join(
		r.linker.Close(ctx),
		r.loader.Close(),
		r.engine.Close(ctx),
	)
}
