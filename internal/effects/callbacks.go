package effects

import (
	"fmt"
	"sort"
	"sync"
)

// CallbackFunc receives the eased progress of a callback stage.
type CallbackFunc func(progress float64) error

// Callbacks resolves the callback names used in scenario files.
type Callbacks struct {
	mu    sync.RWMutex
	funcs map[string]CallbackFunc
}

// NewCallbacks returns an empty registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{funcs: make(map[string]CallbackFunc)}
}

// Register adds fn under name, replacing any previous registration.
func (c *Callbacks) Register(name string, fn CallbackFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs[name] = fn
}

// Lookup returns the callback registered under name.
func (c *Callbacks) Lookup(name string) (CallbackFunc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.funcs[name]
	if !ok {
		return nil, fmt.Errorf("callback %q is not registered", name)
	}
	return fn, nil
}

// Names lists the registered callbacks in sorted order.
func (c *Callbacks) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.funcs))
	for name := range c.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
