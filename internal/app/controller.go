package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Errors returned by Controller operations that never reach the repository.
var (
	ErrFormClosed     = errors.New("form dialog is not open")
	ErrSaveInProgress = errors.New("a save is already in progress")
)

// State is a point-in-time snapshot of a Controller.
type State[E, V any] struct {
	Items   []E
	Visible []E
	Loading bool
	Query   string

	FormMode   domain.FormMode
	FormOpen   bool
	FormValues V
	FormValid  bool
	Saving     bool
	Editing    *E

	ConfirmOpen    bool
	ConfirmTitle   string
	ConfirmMessage string
	Deleting       *E

	Toast *domain.Toast
}

// Controller coordinates one screen: the list of items, the search query,
// the form dialog, the delete confirmation and toasts, against a Repository.
// All state changes are serialized; repository calls run outside the lock.
type Controller[E, V any] struct {
	kind     Kind[E, V]
	repo     domain.Repository[E, V]
	sessions SessionSource
	toaster  *Toaster
	logger   *slog.Logger

	mu       sync.Mutex
	items    []E
	query    string
	inflight int
	// issued numbers refreshes; applied is the newest one whose result (or a
	// newer local change) is reflected in items.
	issued  uint64
	applied uint64

	form    *FormBuffer[V]
	formGen uint64
	editing *E
	saving  bool

	confirm  Confirm
	deleting *E
}

// NewController creates a controller for one entity kind.
func NewController[E, V any](kind Kind[E, V], repo domain.Repository[E, V], sessions SessionSource, toaster *Toaster, logger *slog.Logger) *Controller[E, V] {
	if toaster == nil {
		toaster = NewToaster()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[E, V]{
		kind:     kind,
		repo:     repo,
		sessions: sessions,
		toaster:  toaster,
		logger:   logger.With("kind", string(kind.Kind)),
		form:     NewFormBuffer(kind.Valid),
	}
}

// Kind returns the descriptor the controller was built with.
func (c *Controller[E, V]) Kind() Kind[E, V] { return c.kind }

// Toaster returns the toaster the controller notifies through.
func (c *Controller[E, V]) Toaster() *Toaster { return c.toaster }

// Refresh replaces the items with the repository's current list. On failure
// the items are kept and an error toast is shown. A result is dropped when a
// newer refresh or a local change has already been applied.
func (c *Controller[E, V]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	items, err := c.repo.List(ctx)

	c.mu.Lock()
	c.inflight--
	if err == nil && seq > c.applied {
		c.items = slices.Clone(items)
		c.applied = seq
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.ErrorContext(ctx, "list failed", "error", err)
		c.toaster.Show(domain.ToastError, "Failed to load "+c.kind.Plural)
		return err
	}
	return nil
}

// OpenAdd opens an empty form dialog.
func (c *Controller[E, V]) OpenAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.formGen++
	c.form.Open(domain.FormAdd, c.kind.Empty())
}

// OpenEdit opens the form dialog seeded from the item's current values.
func (c *Controller[E, V]) OpenEdit(item E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.kind.ID(item)
	if i := c.indexOf(id); i >= 0 {
		item = c.items[i]
	}
	c.editing = &item
	c.formGen++
	c.form.Open(domain.FormEdit, c.kind.Values(item))
}

// SetValues stages values in the open form dialog.
func (c *Controller[E, V]) SetValues(values V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form.IsOpen() {
		c.form.Set(values)
	}
}

// CloseForm hides the form dialog and discards its values.
func (c *Controller[E, V]) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeFormLocked()
}

// Save persists values from the open form dialog. Adding requires a signed-in
// operator; without one the repository is never called. On failure the
// dialog stays open with the values staged.
func (c *Controller[E, V]) Save(ctx context.Context, values V) error {
	c.mu.Lock()
	if !c.form.IsOpen() {
		c.mu.Unlock()
		return ErrFormClosed
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.form.Set(values)
	if !c.form.Valid() {
		c.mu.Unlock()
		return domain.ErrInvalidForm
	}
	mode := c.form.Mode()
	gen := c.formGen
	var editingID string
	if mode == domain.FormEdit {
		if c.editing == nil {
			c.mu.Unlock()
			return ErrFormClosed
		}
		editingID = c.kind.ID(*c.editing)
	}

	var ownerID string
	if mode == domain.FormAdd {
		session := c.sessions.Session()
		if !session.Resolved() || !session.IsAuthenticated() {
			c.mu.Unlock()
			err := &domain.AuthRequiredError{Op: "add " + strings.ToLower(c.kind.Noun)}
			c.logger.WarnContext(ctx, "save blocked", "error", err)
			c.toaster.Show(domain.ToastError, "Sign in to add "+c.kind.Plural)
			return err
		}
		ownerID = session.UserID
	}
	c.saving = true
	c.mu.Unlock()

	var err error
	if mode == domain.FormAdd {
		err = c.repo.Create(ctx, values, ownerID)
	} else {
		err = c.repo.Update(ctx, editingID, values)
	}

	c.mu.Lock()
	c.saving = false
	if err == nil && gen == c.formGen {
		c.closeFormLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.ErrorContext(ctx, "save failed", "mode", mode, "id", editingID, "error", err)
		c.toaster.Show(domain.ToastError, "Save failed")
		return err
	}

	verb := "added"
	if mode == domain.FormEdit {
		verb = "updated"
	}
	c.toaster.Show(domain.ToastSuccess, fmt.Sprintf("%s %s", c.kind.Noun, verb))
	_ = c.Refresh(ctx)
	return nil
}

// RequestDelete stages item for deletion and opens the confirmation.
func (c *Controller[E, V]) RequestDelete(item E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleting = &item
	c.confirm.Request(
		"Delete "+c.kind.Noun,
		fmt.Sprintf("Are you sure you want to delete %s? This cannot be undone.", c.kind.Describe(item)),
	)
}

// CancelDelete closes the confirmation without deleting.
func (c *Controller[E, V]) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleting = nil
	c.confirm.Close()
}

// ConfirmDelete deletes the staged item. It is a no-op when nothing is staged.
// On failure the items are left unchanged and one error toast is shown.
func (c *Controller[E, V]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.deleting == nil {
		c.mu.Unlock()
		return nil
	}
	id := c.kind.ID(*c.deleting)
	c.deleting = nil
	c.confirm.Close()
	c.mu.Unlock()

	if err := c.repo.Delete(ctx, id); err != nil {
		c.logger.ErrorContext(ctx, "delete failed", "id", id, "error", err)
		c.toaster.Show(domain.ToastError, "Delete failed")
		return err
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.items = slices.Delete(slices.Clone(c.items), i, i+1)
	}
	// Refreshes issued before the delete may still list the item.
	c.applied = c.issued
	c.mu.Unlock()

	c.toaster.Show(domain.ToastSuccess, c.kind.Noun+" deleted")
	_ = c.Refresh(ctx)
	return nil
}

// SetQuery changes the search text. It only affects Visible.
func (c *Controller[E, V]) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = text
}

// Items returns the full list in repository order.
func (c *Controller[E, V]) Items() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Visible returns the items matching the search query, in repository order.
func (c *Controller[E, V]) Visible() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

// State returns a snapshot of the controller.
func (c *Controller[E, V]) State() State[E, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State[E, V]{
		Items:          slices.Clone(c.items),
		Visible:        c.visibleLocked(),
		Loading:        c.inflight > 0,
		Query:          c.query,
		FormMode:       c.form.Mode(),
		FormOpen:       c.form.IsOpen(),
		FormValues:     c.form.Values(),
		Saving:         c.saving,
		ConfirmOpen:    c.confirm.IsOpen(),
		ConfirmTitle:   c.confirm.Title,
		ConfirmMessage: c.confirm.Message,
	}
	if s.FormOpen {
		s.FormValid = c.form.Valid()
	}
	if c.editing != nil {
		editing := *c.editing
		s.Editing = &editing
	}
	if c.deleting != nil {
		deleting := *c.deleting
		s.Deleting = &deleting
	}
	if toast, ok := c.toaster.Current(); ok {
		s.Toast = &toast
	}
	return s
}

func (c *Controller[E, V]) visibleLocked() []E {
	q := strings.ToLower(strings.TrimSpace(c.query))
	if q == "" {
		return slices.Clone(c.items)
	}
	out := make([]E, 0, len(c.items))
	for _, item := range c.items {
		if c.kind.Match(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Controller[E, V]) closeFormLocked() {
	c.form.Close()
	c.editing = nil
	c.formGen++
}

// indexOf finds an item by id; c.mu must be held.
func (c *Controller[E, V]) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item E) bool { return c.kind.ID(item) == id })
}
