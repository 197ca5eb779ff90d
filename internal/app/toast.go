package app

import (
	"sync"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// ToastDuration is how long a toast stays visible unless closed.
const ToastDuration = 2500 * time.Millisecond

// Toaster holds at most one visible toast and dismisses it after a fixed duration.
type Toaster struct {
	duration time.Duration
	onShow   func(domain.Toast)

	mu      sync.Mutex
	current *domain.Toast
	timer   *time.Timer
	gen     uint64
}

// ToasterOption configures a Toaster.
type ToasterOption func(*Toaster)

// WithToastDuration overrides the auto-dismiss duration.
func WithToastDuration(d time.Duration) ToasterOption {
	return func(t *Toaster) { t.duration = d }
}

// WithToastObserver registers fn to be called for every shown toast.
func WithToastObserver(fn func(domain.Toast)) ToasterOption {
	return func(t *Toaster) { t.onShow = fn }
}

// NewToaster creates an empty toaster.
func NewToaster(opts ...ToasterOption) *Toaster {
	t := &Toaster{duration: ToastDuration}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Show replaces the visible toast and restarts the dismiss timer.
func (t *Toaster) Show(kind domain.ToastKind, message string) {
	toast := domain.Toast{Message: message, Kind: kind}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.current = &toast
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.duration, func() { t.dismiss(gen) })
	onShow := t.onShow
	t.mu.Unlock()

	if onShow != nil {
		onShow(toast)
	}
}

// Current returns the visible toast, if any.
func (t *Toaster) Current() (domain.Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.Toast{}, false
	}
	return *t.current, true
}

// Close dismisses the visible toast.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.current = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Toaster) dismiss(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen == t.gen {
		t.current = nil
		t.timer = nil
	}
}
