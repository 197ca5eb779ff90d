package app

import "github.com/neomorfeo/roomie/internal/domain"

// FormBuffer is the transient edit state of one form dialog.
type FormBuffer[V any] struct {
	mode   domain.FormMode
	open   bool
	values V
	valid  func(V) bool
}

// NewFormBuffer creates a closed form using valid as its predicate.
func NewFormBuffer[V any](valid func(V) bool) *FormBuffer[V] {
	return &FormBuffer[V]{mode: domain.FormAdd, valid: valid}
}

// Open shows the dialog seeded with values.
func (f *FormBuffer[V]) Open(mode domain.FormMode, values V) {
	f.mode = mode
	f.values = values
	f.open = true
}

// Set replaces the staged values.
func (f *FormBuffer[V]) Set(values V) { f.values = values }

// Values returns the staged values.
func (f *FormBuffer[V]) Values() V { return f.values }

// Mode returns whether the dialog adds or edits.
func (f *FormBuffer[V]) Mode() domain.FormMode { return f.mode }

// IsOpen reports whether the dialog is visible.
func (f *FormBuffer[V]) IsOpen() bool { return f.open }

// Valid reports whether the staged values may be saved.
func (f *FormBuffer[V]) Valid() bool { return f.valid(f.values) }

// Close hides the dialog and discards the staged values.
func (f *FormBuffer[V]) Close() {
	var zero V
	f.values = zero
	f.open = false
}

// Confirm is a yes/no dialog.
type Confirm struct {
	Title   string
	Message string
	open    bool
}

// Request shows the dialog.
func (c *Confirm) Request(title, message string) {
	c.Title, c.Message, c.open = title, message, true
}

// IsOpen reports whether the dialog is visible.
func (c *Confirm) IsOpen() bool { return c.open }

// Close hides the dialog.
func (c *Confirm) Close() {
	c.Title, c.Message, c.open = "", "", false
}
