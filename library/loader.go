package library

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-native/errors"
)

// OpenFunc opens a library by path.
type OpenFunc func(path string) (Handle, error)

// Loader opens libraries under short names and shares one handle per path.
// It keeps one reference per name until Close.
type Loader struct {
	mu     sync.Mutex
	open   OpenFunc
	byName map[string]Handle
	byPath map[string]Handle
	paths  map[string]string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOpenFunc replaces the dynamic loader, mainly for tests.
func WithOpenFunc(fn OpenFunc) LoaderOption {
	return func(l *Loader) {
		l.open = fn
	}
}

// NewLoader creates a loader backed by Open.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		open: func(path string) (Handle, error) {
			return Open(path)
		},
		byName: make(map[string]Handle),
		byPath: make(map[string]Handle),
		paths:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open opens path under name. Opening the same name and path twice returns
// the existing handle; a path already open under another name is shared.
func (l *Loader) Open(name, path string) (Handle, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty library name")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.byName[name]; ok {
		if l.paths[name] != path {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Value(name).
				Detail("library %q already open from %q", name, l.paths[name]).
				Build()
		}
		return h, nil
	}

	if h, ok := l.byPath[path]; ok {
		if err := h.Retain(); err != nil {
			return nil, err
		}
		l.byName[name] = h
		l.paths[name] = path
		return h, nil
	}

	h, err := l.open(path)
	if err != nil {
		return nil, err
	}
	l.byName[name] = h
	l.byPath[path] = h
	l.paths[name] = path

	Logger().Info("library loaded", zap.String("name", name), zap.String("path", path))
	return h, nil
}

// Add registers an already open handle under name. The loader takes over
// the caller's reference.
func (l *Loader) Add(name string, h Handle) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseLoad, "empty library name")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byName[name]; ok {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Value(name).
			Detail("library %q already registered", name).
			Build()
	}
	l.byName[name] = h
	l.paths[name] = h.Path()
	return nil
}

// Get returns the handle registered under name.
func (l *Loader) Get(name string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.byName[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "library", name)
	}
	return h, nil
}

// Names returns the registered names in sorted order.
func (l *Loader) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.byName))
	for name := range l.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the loader's reference to every library. Libraries still
// retained by bindings stay loaded until those are released.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for name, h := range l.byName {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
		delete(l.byName, name)
	}
	clear(l.byPath)
	clear(l.paths)
	return errors.Join(errs...)
}
