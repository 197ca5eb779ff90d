// Package console is the interactive operator shell: it renders the current
// screen as text and turns command lines into controller and session calls.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/neomorfeo/roomie/internal/app"
	"github.com/neomorfeo/roomie/internal/domain"
)

// Deps are the collaborators a Shell drives.
type Deps struct {
	Sessions  *app.SessionStore
	Router    *app.History
	Navigator *app.Navigator
	Toaster   *app.Toaster
	Tenants   *app.Controller[domain.Tenant, domain.TenantValues]
	Rooms     *app.Controller[domain.Room, domain.RoomValues]
	Payments  *app.Controller[domain.Payment, domain.PaymentValues]
}

// Shell reads commands line by line and renders after each one.
type Shell struct {
	deps    Deps
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
	screens map[string]screen

	// rendered is the path shown by the last render; entering a new screen
	// loads its data.
	rendered string
}

// New creates a shell reading from in and writing to out.
func New(deps Deps, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		deps:   deps,
		in:     in,
		out:    out,
		logger: logger,
		screens: map[string]screen{
			domain.PathTenants:  newTenantScreen(deps.Tenants),
			domain.PathRooms:    newRoomScreen(deps.Rooms),
			domain.PathPayments: newPaymentScreen(deps.Payments),
		},
	}
}

// usageError is a mistake in the command line itself. Failures of the
// operation behind a command are reported through toasts instead.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// Run resolves the session, then processes commands until quit, end of
// input, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.deps.Sessions.Bootstrap(ctx)
	s.Render(ctx)
	if err := s.deps.Sessions.Wait(ctx); err != nil {
		return err
	}
	s.Render(ctx)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "roomie> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		quit, err := s.Exec(ctx, scanner.Text())
		if err != nil {
			s.logger.DebugContext(ctx, "command rejected", "error", err)
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Render(ctx)
	}
}

// listCommands only work on the tenants, rooms and payments screens.
var listCommands = []string{"search", "add", "edit", "set", "save", "cancel", "delete", "yes", "no"}

// Exec runs one command line. It reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, usagef("cannot parse command: %v", err)
	}
	if len(args) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		s.help()
		return false, nil
	case "login":
		return false, s.login(ctx, args)
	case "logout":
		s.deps.Sessions.Logout(ctx)
		return false, nil
	case "go":
		return false, s.navigate(args)
	case "back":
		if !s.deps.Router.Back() {
			return false, usagef("nothing to go back to")
		}
		return false, nil
	case "toast":
		s.deps.Toaster.Close()
		return false, nil
	case "refresh":
		return false, s.refresh(ctx)
	}

	if !slices.Contains(listCommands, cmd) {
		return false, usagef("unknown command %q, try help", cmd)
	}
	scr, err := s.active()
	if err != nil {
		return false, err
	}
	switch cmd {
	case "search":
		scr.search(strings.Join(args, " "))
		return false, nil
	case "add":
		scr.openAdd()
		return false, scr.set(args)
	case "edit":
		if len(args) == 0 {
			return false, usagef("usage: edit <n> [field=value ...]")
		}
		if err := scr.openEdit(args[0]); err != nil {
			return false, err
		}
		return false, scr.set(args[1:])
	case "set":
		return false, scr.set(args)
	case "save":
		return false, scr.save(ctx)
	case "cancel":
		scr.cancel()
		return false, nil
	case "delete":
		if len(args) != 1 {
			return false, usagef("usage: delete <n>")
		}
		return false, scr.requestDelete(args[0])
	case "yes":
		return false, scr.confirm(ctx)
	case "no":
		scr.dismiss()
		return false, nil
	}
	return false, usagef("unknown command %q, try help", cmd)
}

func (s *Shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("usage: login <email> <password>")
	}
	if !s.deps.Sessions.Login(ctx, args[0], args[1]) {
		s.deps.Toaster.Show(domain.ToastError, "Invalid email or password.")
	}
	return nil
}

func (s *Shell) navigate(args []string) error {
	if len(args) != 1 {
		return usagef("usage: go <path>")
	}
	path := domain.NormalizePath(args[0])
	if !slices.Contains(domain.Paths, path) {
		return usagef("unknown screen %q", args[0])
	}
	s.deps.Router.Push(path)
	return nil
}

// refresh reloads the current screen; the dashboard reloads every list.
func (s *Shell) refresh(ctx context.Context) error {
	if !s.deps.Navigator.CanRender() {
		return usagef("nothing to refresh here")
	}
	current := domain.NormalizePath(s.deps.Router.Current())
	if scr, ok := s.screens[current]; ok {
		_ = scr.refresh(ctx)
		return nil
	}
	if current == domain.PathDashboard {
		for _, path := range []string{domain.PathTenants, domain.PathRooms, domain.PathPayments} {
			_ = s.screens[path].refresh(ctx)
		}
	}
	return nil
}

func (s *Shell) active() (screen, error) {
	current := domain.NormalizePath(s.deps.Router.Current())
	scr, ok := s.screens[current]
	if !ok {
		return nil, usagef("no list on the %s screen", strings.ToLower(domain.Title(current)))
	}
	if !s.deps.Navigator.CanRender() {
		return nil, usagef("sign in first")
	}
	return scr, nil
}

// Render loads a newly entered screen and writes it to out.
func (s *Shell) Render(ctx context.Context) {
	current := domain.NormalizePath(s.deps.Router.Current())
	if !s.deps.Navigator.CanRender() {
		fmt.Fprintf(s.out, "== %s ==\nLoading…\n", domain.Title(current))
		return
	}
	if current != s.rendered {
		s.rendered = current
		_ = s.refresh(ctx)
	}

	fmt.Fprintf(s.out, "== %s ==\n", domain.Title(current))
	switch current {
	case domain.PathLogin:
		fmt.Fprintln(s.out, "Sign in with: login <email> <password>")
	case domain.PathDashboard:
		s.renderDashboard()
	case domain.PathSettings:
		fmt.Fprintf(s.out, "Signed in as %s\n", s.deps.Sessions.UserID())
		fmt.Fprintln(s.out, "logout to sign out")
	default:
		if scr, ok := s.screens[current]; ok {
			scr.render(s.out)
		}
	}

	if toast, ok := s.deps.Toaster.Current(); ok {
		mark := "ok"
		if toast.Kind == domain.ToastError {
			mark = "!!"
		}
		fmt.Fprintf(s.out, "[%s] %s\n", mark, toast.Message)
	}
}

func (s *Shell) renderDashboard() {
	rooms := s.deps.Rooms.Items()
	full := 0
	for _, r := range rooms {
		if r.Full() {
			full++
		}
	}
	var total float64
	for _, p := range s.deps.Payments.Items() {
		total += p.Amount
	}
	fmt.Fprintf(s.out, "Tenants:  %d\n", len(s.deps.Tenants.Items()))
	fmt.Fprintf(s.out, "Rooms:    %d (%d full)\n", len(rooms), full)
	fmt.Fprintf(s.out, "Payments: %d (%.2f total)\n", len(s.deps.Payments.Items()), total)
}

func (s *Shell) help() {
	fmt.Fprint(s.out, `Commands:
  login <email> <password>   sign in
  logout                     sign out
  go <path>                  open a screen: /dashboard /tenants /rooms /payments /settings
  back                       previous screen
  refresh                    reload the current screen
  search <text>              filter the list
  add [field=value ...]      open the add form
  edit <n> [field=value ...] open the edit form for row n
  set field=value ...        change form fields
  save | cancel              submit or close the form
  delete <n>                 ask to delete row n
  yes | no                   answer the confirmation
  toast                      dismiss the notification
  quit                       leave
`)
}

// screen is one list screen, independent of its entity kind.
type screen interface {
	refresh(ctx context.Context) error
	search(query string)
	openAdd()
	openEdit(row string) error
	set(assignments []string) error
	save(ctx context.Context) error
	cancel()
	requestDelete(row string) error
	confirm(ctx context.Context) error
	dismiss()
	render(w io.Writer)
}

// resource adapts a Controller to the screen interface.
type resource[E, V any] struct {
	ctl *app.Controller[E, V]
	// assign stages one field=value pair into the form values.
	assign func(values *V, field, value string) error
	row    func(E) string
	form   func(V) string
	fields string
}

func (r *resource[E, V]) refresh(ctx context.Context) error { return r.ctl.Refresh(ctx) }

func (r *resource[E, V]) search(query string) { r.ctl.SetQuery(query) }

func (r *resource[E, V]) openAdd() { r.ctl.OpenAdd() }

func (r *resource[E, V]) openEdit(row string) error {
	item, err := r.pick(row)
	if err != nil {
		return err
	}
	r.ctl.OpenEdit(item)
	return nil
}

func (r *resource[E, V]) set(assignments []string) error {
	if len(assignments) == 0 {
		return nil
	}
	state := r.ctl.State()
	if !state.FormOpen {
		return usagef("no form is open, use add or edit")
	}
	values := state.FormValues
	for _, a := range assignments {
		field, value, ok := strings.Cut(a, "=")
		if !ok {
			return usagef("expected field=value, got %q", a)
		}
		if err := r.assign(&values, strings.ToLower(strings.TrimSpace(field)), value); err != nil {
			return err
		}
	}
	r.ctl.SetValues(values)
	return nil
}

func (r *resource[E, V]) save(ctx context.Context) error {
	err := r.ctl.Save(ctx, r.ctl.State().FormValues)
	switch {
	case errors.Is(err, app.ErrFormClosed):
		return usagef("no form is open, use add or edit")
	case errors.Is(err, app.ErrSaveInProgress):
		return usagef("still saving")
	case errors.Is(err, domain.ErrInvalidForm) && !isRepositoryError(err):
		return usagef("form is incomplete")
	}
	return nil
}

func (r *resource[E, V]) cancel() { r.ctl.CloseForm() }

func (r *resource[E, V]) requestDelete(row string) error {
	item, err := r.pick(row)
	if err != nil {
		return err
	}
	r.ctl.RequestDelete(item)
	return nil
}

func (r *resource[E, V]) confirm(ctx context.Context) error {
	if !r.ctl.State().ConfirmOpen {
		return usagef("nothing to confirm")
	}
	_ = r.ctl.ConfirmDelete(ctx)
	return nil
}

func (r *resource[E, V]) dismiss() { r.ctl.CancelDelete() }

// pick resolves a 1-based row number against the visible list.
func (r *resource[E, V]) pick(row string) (E, error) {
	var zero E
	n, err := strconv.Atoi(row)
	if err != nil {
		return zero, usagef("row must be a number, got %q", row)
	}
	visible := r.ctl.Visible()
	if n < 1 || n > len(visible) {
		return zero, usagef("no row %d", n)
	}
	return visible[n-1], nil
}

func (r *resource[E, V]) render(w io.Writer) {
	state := r.ctl.State()
	plural := r.ctl.Kind().Plural

	if state.Query != "" {
		fmt.Fprintf(w, "search: %q\n", state.Query)
	}
	switch {
	case len(state.Visible) > 0:
		for i, item := range state.Visible {
			fmt.Fprintf(w, "%3d. %s\n", i+1, r.row(item))
		}
	case state.Loading:
		fmt.Fprintln(w, "Loading…")
	case state.Query != "":
		fmt.Fprintf(w, "No %s match the search.\n", plural)
	default:
		fmt.Fprintf(w, "No %s yet. Use add to create one.\n", plural)
	}

	if state.FormOpen {
		title := "Add " + strings.ToLower(r.ctl.Kind().Noun)
		if state.FormMode == domain.FormEdit {
			title = "Edit " + strings.ToLower(r.ctl.Kind().Noun)
		}
		status := "incomplete"
		if state.FormValid {
			status = "ready, save to submit"
		}
		if state.Saving {
			status = "saving…"
		}
		fmt.Fprintf(w, "-- %s (%s) --\n%s\nfields: %s\n", title, status, r.form(state.FormValues), r.fields)
	}
	if state.ConfirmOpen {
		fmt.Fprintf(w, "-- %s --\n%s [yes/no]\n", state.ConfirmTitle, state.ConfirmMessage)
	}
}

func isRepositoryError(err error) bool {
	var repoErr *domain.RepositoryError
	return errors.As(err, &repoErr)
}

func optional(value string) *string {
	// Keep "" so that saving an edit clears the field.
	return domain.Ptr(strings.TrimSpace(value))
}

func show(s *string) string {
	if v := domain.Deref(s); v != "" {
		return v
	}
	return "-"
}

func unknownField(field, fields string) error {
	return usagef("unknown field %q, expected one of %s", field, fields)
}

func newTenantScreen(ctl *app.Controller[domain.Tenant, domain.TenantValues]) screen {
	const fields = "name phone address room"
	return &resource[domain.Tenant, domain.TenantValues]{
		ctl:    ctl,
		fields: fields,
		assign: func(v *domain.TenantValues, field, value string) error {
			switch field {
			case "name":
				v.Name = strings.TrimSpace(value)
			case "phone":
				v.Phone = optional(value)
			case "address":
				v.Address = optional(value)
			case "room":
				v.Room = optional(value)
			default:
				return unknownField(field, fields)
			}
			return nil
		},
		row: func(t domain.Tenant) string {
			room := "unassigned"
			if t.IsAssigned {
				room = "room " + domain.Deref(t.Room)
			}
			return fmt.Sprintf("%-20s %-14s %-24s %s", t.Name, show(t.Phone), show(t.Address), room)
		},
		form: func(v domain.TenantValues) string {
			return fmt.Sprintf("name=%s phone=%s address=%s room=%s", v.Name, show(v.Phone), show(v.Address), show(v.Room))
		},
	}
}

func newRoomScreen(ctl *app.Controller[domain.Room, domain.RoomValues]) screen {
	const fields = "number capacity"
	return &resource[domain.Room, domain.RoomValues]{
		ctl:    ctl,
		fields: fields,
		assign: func(v *domain.RoomValues, field, value string) error {
			switch field {
			case "number":
				v.Number = strings.TrimSpace(value)
			case "capacity":
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return usagef("capacity must be a whole number, got %q", value)
				}
				v.Capacity = n
			default:
				return unknownField(field, fields)
			}
			return nil
		},
		row: func(r domain.Room) string {
			status := "available"
			if r.Full() {
				status = "FULL"
			}
			return fmt.Sprintf("room %-8s %d/%d  %s", r.Number, r.Occupants, r.Capacity, status)
		},
		form: func(v domain.RoomValues) string {
			return fmt.Sprintf("number=%s capacity=%d", v.Number, v.Capacity)
		},
	}
}

func newPaymentScreen(ctl *app.Controller[domain.Payment, domain.PaymentValues]) screen {
	const fields = "tenant room amount paid note"
	return &resource[domain.Payment, domain.PaymentValues]{
		ctl:    ctl,
		fields: fields,
		assign: func(v *domain.PaymentValues, field, value string) error {
			switch field {
			case "tenant":
				v.Tenant = strings.TrimSpace(value)
			case "room":
				v.Room = optional(value)
			case "amount":
				amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
				if err != nil {
					return usagef("amount must be a number, got %q", value)
				}
				v.Amount = amount
			case "paid", "paid_at":
				v.PaidAt = strings.TrimSpace(value)
			case "note":
				v.Note = optional(value)
			default:
				return unknownField(field, fields)
			}
			return nil
		},
		row: func(p domain.Payment) string {
			return fmt.Sprintf("%s  %-20s %-8s %10.2f  %s", p.PaidAt, p.Tenant, show(p.Room), p.Amount, show(p.Note))
		},
		form: func(v domain.PaymentValues) string {
			return fmt.Sprintf("tenant=%s room=%s amount=%.2f paid=%s note=%s", v.Tenant, show(v.Room), v.Amount, v.PaidAt, show(v.Note))
		},
	}
}
