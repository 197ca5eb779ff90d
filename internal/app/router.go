package app

import (
	"sync"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: History implements domain.Router.
var _ domain.Router = (*History)(nil)

// History is an in-memory router with a back stack.
type History struct {
	mu        sync.Mutex
	stack     []string
	listeners map[int]func(string)
	nextID    int
}

// NewHistory creates a router positioned at start.
func NewHistory(start string) *History {
	return &History{
		stack:     []string{domain.NormalizePath(start)},
		listeners: make(map[int]func(string)),
	}
}

// Current returns the path on top of the stack.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack[len(h.stack)-1]
}

// Push navigates to path, adding a back-stack entry.
func (h *History) Push(path string) {
	h.navigate(path, false)
}

// Replace navigates to path in place of the current entry.
func (h *History) Replace(path string) {
	h.navigate(path, true)
}

// Back pops the current entry. It reports false when there is nothing to go back to.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) < 2 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	current := h.stack[len(h.stack)-1]
	listeners := h.snapshot()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
	return true
}

// Depth returns the number of entries on the back stack.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}

// OnChange registers a listener called after every navigation.
func (h *History) OnChange(fn func(string)) domain.Unsubscribe {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *History) navigate(path string, replace bool) {
	path = domain.NormalizePath(path)

	h.mu.Lock()
	top := len(h.stack) - 1
	if h.stack[top] == path {
		h.mu.Unlock()
		return
	}
	if replace {
		h.stack[top] = path
	} else {
		h.stack = append(h.stack, path)
	}
	listeners := h.snapshot()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
}

// snapshot copies the listeners; h.mu must be held.
func (h *History) snapshot() []func(string) {
	out := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		out = append(out, fn)
	}
	return out
}
