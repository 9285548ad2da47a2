//go:build !((darwin || freebsd || linux) && (amd64 || arm64))

package library

import (
	"github.com/wippyai/wasm-native/errors"
)

func dlopen(string) (uintptr, error) {
	return 0, errors.Unsupported(errors.PhaseLoad, "dynamic loading on this platform")
}

func dlsym(uintptr, string) (uintptr, error) {
	return 0, errors.Unsupported(errors.PhaseResolve, "dynamic loading on this platform")
}

func dlclose(uintptr) error {
	return nil
}

func newCallback(any) uintptr {
	return 0
}
