package platform

import (
	"sync"

	"github.com/PizzaHomicide/webauth/internal/authflow"
)

// WindowRegistry tracks the host's windows for the anchor resolver.  Windows are immutable once registered: changing
// one replaces it, which invalidates anchors taken on the old value.
type WindowRegistry struct {
	mu      sync.RWMutex
	key     string
	windows []*authflow.Window
}

func NewWindowRegistry() *WindowRegistry {
	return &WindowRegistry{}
}

// Put registers w, replacing any window with the same ID.
func (r *WindowRegistry) Put(w authflow.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	win := &w
	for i, existing := range r.windows {
		if existing.ID == w.ID {
			r.windows[i] = win
			return
		}
	}
	r.windows = append(r.windows, win)
}

// Remove drops the window with the given ID.
func (r *WindowRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.windows {
		if existing.ID == id {
			r.windows = append(r.windows[:i], r.windows[i+1:]...)
			break
		}
	}
	if r.key == id {
		r.key = ""
	}
}

// MakeKey marks the window with the given ID as the key window.
func (r *WindowRegistry) MakeKey(id string) {
	r.mu.Lock()
	r.key = id
	r.mu.Unlock()
}

func (r *WindowRegistry) KeyWindow() *authflow.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.key == "" {
		return nil
	}
	for _, w := range r.windows {
		if w.ID == r.key {
			return w
		}
	}
	return nil
}

func (r *WindowRegistry) Windows() []*authflow.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*authflow.Window(nil), r.windows...)
}
