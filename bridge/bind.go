package bridge

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/abi"
	"github.com/wippyai/wasm-native/errors"
	"github.com/wippyai/wasm-native/library"
	"github.com/wippyai/wasm-native/linker"
	"github.com/wippyai/wasm-native/native"
)

// Request describes one import to satisfy with a native symbol.
type Request struct {
	Namespace string
	Name      string
	Library   library.Handle
	// Symbol defaults to Name when empty.
	Symbol string
	Params []abi.ParamType
	Result abi.ParamType
}

// Signature returns the signature the request binds.
func (r Request) Signature() abi.Signature {
	return abi.Signature{Params: r.Params, Result: r.Result}
}

func (r Request) symbolName() string {
	if r.Symbol == "" {
		return r.Name
	}
	return r.Symbol
}

// Binding is a native symbol registered as an import.
// The linker owns it after a successful bind.
type Binding struct {
	Namespace string
	Name      string
	Symbol    library.Symbol
	Signature abi.Signature

	handle library.Handle
	call   *native.Call
	opts   *options
}

// UnsafeBind resolves req.Symbol in req.Library, builds a host function of
// the declared signature and registers it in l as (req.Namespace, req.Name).
//
// Nothing about the native function is checked: a wrong signature corrupts
// arguments or crashes the process, and pointer arguments give native code
// unchecked access to guest memory.
//
// On failure l is left as it was and the library reference count is
// unchanged. On success the binding holds a reference to req.Library that is
// released when the definition is removed from l or l is closed.
func UnsafeBind(l *linker.Linker, req Request, opts ...Option) (*Binding, error) {
	o := buildOptions(opts)

	b, err := bind(l, req, o)
	if err != nil {
		o.metrics.BindFailed(err)
		o.logger.Debug("bind rejected",
			zap.String("namespace", req.Namespace),
			zap.String("name", req.Name),
			zap.Error(err))
		return nil, err
	}

	o.metrics.BindingAdded()
	o.logger.Info("native import bound",
		zap.String("namespace", b.Namespace),
		zap.String("name", b.Name),
		zap.String("symbol", b.Symbol.Name),
		zap.String("library", b.handle.Path()),
		zap.Stringer("signature", b.Signature))
	return b, nil
}

func bind(l *linker.Linker, req Request, o *options) (*Binding, error) {
	if err := validate(l, req); err != nil {
		return nil, err
	}
	sig := req.Signature()

	sym, err := library.Resolve(req.Library, []byte(req.symbolName()))
	if err != nil {
		return nil, annotate(err, req)
	}

	call, err := native.Compile(sym, sig)
	if err != nil {
		return nil, annotate(err, req)
	}

	if err := req.Library.Retain(); err != nil {
		return nil, annotate(err, req)
	}

	b := &Binding{
		Namespace: req.Namespace,
		Name:      req.Name,
		Symbol:    sym,
		Signature: sig,
		handle:    req.Library,
		call:      call,
		opts:      o,
	}

	params, results := sig.ValueTypes()
	if err := l.Define(req.Namespace, req.Name, b.hostFunc(), params, results, b.release); err != nil {
		_ = req.Library.Release()
		return nil, err
	}
	return b, nil
}

func validate(l *linker.Linker, req Request) error {
	switch {
	case l == nil:
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Import(req.Namespace, req.Name).
			Detail("nil linker").
			Build()
	case req.Namespace == "" || req.Name == "":
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Import(req.Namespace, req.Name).
			Detail("namespace and name must not be empty").
			Build()
	case req.Library == nil:
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Import(req.Namespace, req.Name).
			Detail("nil library handle").
			Build()
	}
	if err := req.Signature().Validate(); err != nil {
		return annotate(err, req)
	}
	return nil
}

// annotate fills in the import pair on structured errors.
func annotate(err error, req Request) error {
	var e *errors.Error
	if errors.As(err, &e) && e.Namespace == "" && e.Name == "" {
		e.Namespace = req.Namespace
		e.Name = req.Name
	}
	return err
}

// release is the linker closer of the binding.
func (b *Binding) release() error {
	b.opts.metrics.BindingRemoved()
	b.opts.logger.Debug("native import released",
		zap.String("namespace", b.Namespace),
		zap.String("name", b.Name))
	return b.handle.Release()
}

// Library returns the handle the symbol was resolved from.
func (b *Binding) Library() library.Handle {
	return b.handle
}

// hostFunc synthesizes the host function for the binding.
func (b *Binding) hostFunc() api.GoModuleFunc {
	sig := b.Signature
	call := b.call
	needBase := sig.HasPointer()
	hasResult := sig.HasResult()
	counter := b.opts.metrics.CallCounter(b.Namespace, b.Name)
	tracer := b.opts.tracer
	spanName := b.Namespace + "." + b.Name
	spanAttrs := trace.WithAttributes(
		attribute.String("wasmnative.symbol", b.Symbol.Name),
		attribute.String("wasmnative.signature", sig.String()),
	)

	return func(ctx context.Context, mod api.Module, stack []uint64) {
		if tracer != nil {
			_, span := tracer.Start(ctx, spanName, spanAttrs)
			defer span.End()
		}
		if counter != nil {
			counter.Inc()
		}

		var base uintptr
		if needBase {
			base = abi.MemoryBase(mod.Memory())
		}

		var f abi.Frame
		sig.Lower(&f, stack, base)
		i, fl := call.Invoke(&f)
		if hasResult {
			stack[0] = sig.Lift(i, fl, base)
		}
	}
}
