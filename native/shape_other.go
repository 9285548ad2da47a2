//go:build !((darwin || freebsd || linux) && (amd64 || arm64))

package native

import (
	"github.com/wippyai/wasm-native/errors"
)

func shape(uintptr, int, bool) (invoker, error) {
	return nil, errors.Unsupported(errors.PhaseDispatch, "native calls on this platform")
}
