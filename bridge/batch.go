package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/linker"
)

// UnsafeBindAll binds every request or none. On the first failure the
// bindings already made by this call are undefined again and the error of
// the failing request is returned.
func UnsafeBindAll(l *linker.Linker, reqs []Request, opts ...Option) ([]*Binding, error) {
	o := buildOptions(opts)
	bindings := make([]*Binding, 0, len(reqs))

	for i, req := range reqs {
		b, err := UnsafeBind(l, req, opts...)
		if err != nil {
			o.logger.Warn("batch bind failed, rolling back",
				zap.Int("index", i),
				zap.Int("bound", len(bindings)),
				zap.Error(err))
			for j := len(bindings) - 1; j >= 0; j-- {
				if uerr := l.Undefine(bindings[j].Namespace, bindings[j].Name); uerr != nil {
					o.logger.Error("rollback failed",
						zap.String("namespace", bindings[j].Namespace),
						zap.String("name", bindings[j].Name),
						zap.Error(uerr))
				}
			}
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}
