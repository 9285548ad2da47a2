package library

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/errors"
)

// Library is a shared object opened with the platform's dynamic loader.
// It starts with one reference, owned by the caller of Open.
type Library struct {
	path   string
	mu     sync.Mutex
	handle uintptr
	refs   int
}

var _ Handle = (*Library)(nil)

// Open loads the shared object at path. The path is passed to the dynamic
// loader as is, so bare names like "libm.so.6" use the loader's search path.
func Open(path string) (*Library, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty library path")
	}

	h, err := dlopen(path)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return nil, err
		}
		return nil, errors.LibraryOpen(path, err)
	}

	Logger().Debug("opened library", zap.String("path", path))
	return &Library{path: path, handle: h, refs: 1}, nil
}

// Path returns the path the library was opened with.
func (l *Library) Path() string {
	return l.path
}

// Lookup returns the address of an exported symbol.
func (l *Library) Lookup(name string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refs == 0 {
		return 0, errors.LibraryClosed(l.path)
	}
	return dlsym(l.handle, name)
}

// Retain adds a reference.
func (l *Library) Retain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refs == 0 {
		return errors.LibraryClosed(l.path)
	}
	l.refs++
	return nil
}

// Release drops a reference and unloads the library when it was the last.
func (l *Library) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refs == 0 {
		return errors.LibraryClosed(l.path)
	}
	l.refs--
	if l.refs > 0 {
		return nil
	}

	Logger().Debug("closing library", zap.String("path", l.path))
	h := l.handle
	l.handle = 0
	if err := dlclose(h); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindLibraryOpen, err, "close "+l.path)
	}
	return nil
}

// Refs returns the current reference count.
func (l *Library) Refs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refs
}
