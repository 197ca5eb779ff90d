package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Repository ---

// tenantRepo is an in-memory tenant repository that lists newest first and
// can be told to fail the next call of an operation.
type tenantRepo struct {
	mu      sync.Mutex
	items   []domain.Tenant
	nextID  int
	calls   map[string]int
	failing map[string]error
	// listGate, when set, blocks the next List until it is closed.
	listGate    chan struct{}
	listEntered chan struct{}
}

func newTenantRepo(seed ...domain.Tenant) *tenantRepo {
	return &tenantRepo{
		items:   slices.Clone(seed),
		calls:   make(map[string]int),
		failing: make(map[string]error),
	}
}

func (r *tenantRepo) fail(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[op] = err
}

func (r *tenantRepo) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *tenantRepo) snapshot() []domain.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// enter records a call and returns the injected failure, if any.
func (r *tenantRepo) enter(op string) error {
	r.calls[op]++
	if err, ok := r.failing[op]; ok {
		delete(r.failing, op)
		return &domain.RepositoryError{Op: op, Kind: domain.KindTenant, Err: err}
	}
	return nil
}

func (r *tenantRepo) List(_ context.Context) ([]domain.Tenant, error) {
	r.mu.Lock()
	err := r.enter("list")
	items := slices.Clone(r.items)
	gate, entered := r.listGate, r.listEntered
	r.listGate, r.listEntered = nil, nil
	r.mu.Unlock()

	// The result is taken before blocking so a held call returns stale data.
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// hold makes the next List call block after reading until release is called.
func (r *tenantRepo) hold() (entered <-chan struct{}, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{}, 1)
	r.listGate, r.listEntered = gate, in
	return in, func() { close(gate) }
}

// add inserts a record behind the controller's back.
func (r *tenantRepo) add(t domain.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]domain.Tenant{t}, r.items...)
}

func (r *tenantRepo) Create(_ context.Context, values domain.TenantValues, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("create"); err != nil {
		return err
	}
	r.nextID++
	t := domain.Tenant{
		ID:        fmt.Sprintf("t-%d", r.nextID),
		Name:      values.Name,
		Phone:     values.Phone,
		Address:   values.Address,
		Room:      values.Room,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	t.IsAssigned = t.Room != nil
	r.items = append([]domain.Tenant{t}, r.items...)
	return nil
}

func (r *tenantRepo) Update(_ context.Context, id string, values domain.TenantValues) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("update"); err != nil {
		return err
	}
	i := slices.IndexFunc(r.items, func(t domain.Tenant) bool { return t.ID == id })
	if i < 0 {
		return &domain.RepositoryError{Op: "update", Kind: domain.KindTenant, Err: domain.ErrNotFound}
	}
	t := r.items[i]
	if values.Name != "" {
		t.Name = values.Name
	}
	if values.Phone != nil {
		t.Phone = domain.Optional(*values.Phone)
	}
	if values.Address != nil {
		t.Address = domain.Optional(*values.Address)
	}
	if values.Room != nil {
		t.Room = domain.Optional(*values.Room)
	}
	t.IsAssigned = t.Room != nil
	r.items[i] = t
	return nil
}

func (r *tenantRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("delete"); err != nil {
		return err
	}
	i := slices.IndexFunc(r.items, func(t domain.Tenant) bool { return t.ID == id })
	if i < 0 {
		return &domain.RepositoryError{Op: "delete", Kind: domain.KindTenant, Err: domain.ErrNotFound}
	}
	r.items = slices.Delete(r.items, i, i+1)
	return nil
}

// --- Session ---

// fixedSession is a SessionSource with a settable value.
type fixedSession struct {
	mu      sync.Mutex
	session domain.Session
}

func (f *fixedSession) Session() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fixedSession) set(s domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

// --- Identity provider ---

// fakeIdentity accepts the passwords in users and can hold GetSession back
// until release is closed.
type fakeIdentity struct {
	mu         sync.Mutex
	current    domain.Session
	getErr     error
	signOutErr error
	users      map[string]string // email -> password
	release    chan struct{}
	listeners  map[int]func(domain.Session)
	nextID     int
	signOuts   int
}

func newFakeIdentity(current domain.Session) *fakeIdentity {
	return &fakeIdentity{
		current:   current,
		users:     map[string]string{"ops@example.com": "secret"},
		listeners: make(map[int]func(domain.Session)),
	}
}

func (f *fakeIdentity) GetSession(ctx context.Context) (domain.Session, error) {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.Session{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Session{}, f.getErr
	}
	return f.current, nil
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if want, ok := f.users[email]; !ok || want != password {
		return domain.Session{}, &domain.AuthError{Reason: "invalid credentials"}
	}
	f.current = domain.SignedIn("user-" + email)
	return f.current, nil
}

func (f *fakeIdentity) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.current = domain.SignedOut()
	return f.signOutErr
}

func (f *fakeIdentity) OnAuthStateChange(listener func(domain.Session)) domain.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// emit delivers an external session change to every listener.
func (f *fakeIdentity) emit(s domain.Session) {
	f.mu.Lock()
	f.current = s
	listeners := make([]func(domain.Session), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

func (f *fakeIdentity) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// --- Publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []domain.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// --- Auth ---

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	sessions map[string]domain.AuthSession
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		accounts: make(map[string]domain.Account),
		sessions: make(map[string]domain.AuthSession),
	}
}

func (m *memAccounts) CreateAccount(_ context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Email]; ok {
		return &domain.EmailTakenError{Email: a.Email}
	}
	m.accounts[a.Email] = a
	return nil
}

func (m *memAccounts) AccountByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) CreateSession(_ context.Context, s domain.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memAccounts) SessionByID(_ context.Context, id string) (domain.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.AuthSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memAccounts) RevokeSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.RevokedAt == nil {
		s.RevokedAt = &at
	}
	m.sessions[id] = s
	return nil
}

// plainTokens encodes claims as "user|session|unix-expiry" without signing.
type plainTokens struct{}

func (plainTokens) Issue(c domain.TokenClaims) (string, error) {
	return fmt.Sprintf("%s|%s|%d", c.UserID, c.SessionID, c.ExpiresAt.Unix()), nil
}

func (plainTokens) Verify(token string) (domain.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return domain.TokenClaims{}, errors.New("malformed token")
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return domain.TokenClaims{}, fmt.Errorf("malformed expiry: %w", err)
	}
	return domain.TokenClaims{UserID: parts[0], SessionID: parts[1], ExpiresAt: time.Unix(exp, 0)}, nil
}
