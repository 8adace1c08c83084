package ocr

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// None is the selection that disables OCR. Image pages then extract as empty
// text with a warning.
const None = "none"

// ErrNoEngine is returned by Active while OCR is switched off.
var ErrNoEngine = errors.New("ocr: no engine selected")

// Registry maps engine names to engine instances. Switching the active engine
// is safe while other goroutines read it.
type Registry struct {
	mu      sync.RWMutex
	active  string
	engines map[string]Engine
}

// NewRegistry creates a registry with the given engines. The first engine
// becomes the active one unless SetActive is called.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		r.engines[e.Name()] = e
		if r.active == "" {
			r.active = e.Name()
		}
	}
	return r
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(name)
}

func (r *Registry) get(name string) (Engine, error) {
	if e, ok := r.engines[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("ocr engine %q not registered (available: %v)", name, r.names())
}

// Active returns the currently selected engine, or ErrNoEngine when the
// selection is None.
func (r *Registry) Active() (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" || r.active == None {
		return nil, ErrNoEngine
	}
	return r.get(r.active)
}

// ActiveName returns the name of the selected engine, None when OCR is off.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return None
	}
	return r.active
}

// SetActive switches the selected engine. None turns OCR off.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == None {
		r.active = None
		return nil
	}
	if _, ok := r.engines[name]; !ok {
		return fmt.Errorf("ocr engine %s not found", name)
	}
	r.active = name
	return nil
}

// Choices lists every valid SetActive argument: the registered engines
// followed by None.
func (r *Registry) Choices() []string {
	return append(r.Names(), None)
}

// Names lists the registered engines in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.engines))
	for n := range r.engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
