package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	handler "github.com/neomorfeo/roomie/internal/adapter/http"
	"github.com/neomorfeo/roomie/internal/adapter/remote"
	"github.com/neomorfeo/roomie/internal/adapter/sqlite"
	"github.com/neomorfeo/roomie/internal/adapter/token"
	"github.com/neomorfeo/roomie/internal/app"
	"github.com/neomorfeo/roomie/internal/domain"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.ChangeEvent) error { return nil }

type apiServer struct {
	url  string
	auth *app.AuthService
}

// newAPIServer starts the real API on an in-memory database with one
// registered operator, ops@example.com / pw.
func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	issuer, err := token.NewIssuer("test-secret")
	if err != nil {
		t.Fatalf("creating issuer: %v", err)
	}
	auth := app.NewAuthService(store.Accounts(), issuer, time.Hour)
	if _, err := auth.Register(context.Background(), "ops@example.com", "pw"); err != nil {
		t.Fatalf("registering operator: %v", err)
	}

	router := chi.NewMux()
	router.Use(handler.Authenticate(auth, nil))
	api := humachi.New(router, huma.DefaultConfig("roomie", "0.1.0"))
	handler.Register(api, handler.Services{
		Auth:     auth,
		Tenants:  app.NewRecordService(app.TenantKind, store.Tenants(), noopPublisher{}, nil),
		Rooms:    app.NewRecordService(app.RoomKind, store.Rooms(), noopPublisher{}, nil),
		Payments: app.NewRecordService(app.PaymentKind, store.Payments(), noopPublisher{}, nil),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiServer{url: srv.URL, auth: auth}
}

func signIn(t *testing.T, idp *remote.IdentityProvider) domain.Session {
	t.Helper()
	session, err := idp.SignInWithPassword(context.Background(), "ops@example.com", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	return session
}

// --- Identity ---

func TestIdentity_SignInAndGetSession(t *testing.T) {
	srv := newAPIServer(t)
	client := remote.NewClient(srv.url, time.Second)
	idp := remote.NewIdentityProvider(client, 0, nil)
	ctx := context.Background()

	session, err := idp.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.State != domain.SessionUnauthenticated {
		t.Errorf("state = %q, want unauthenticated before sign-in", session.State)
	}

	signedIn := signIn(t, idp)
	if !signedIn.IsAuthenticated() || signedIn.UserID == "" {
		t.Fatalf("session = %+v, want authenticated", signedIn)
	}

	session, err = idp.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session != signedIn {
		t.Errorf("session = %+v, want %+v", session, signedIn)
	}
}

func TestIdentity_WrongPassword(t *testing.T) {
	srv := newAPIServer(t)
	idp := remote.NewIdentityProvider(remote.NewClient(srv.url, time.Second), 0, nil)

	_, err := idp.SignInWithPassword(context.Background(), "ops@example.com", "wrong")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestIdentity_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	idp := remote.NewIdentityProvider(remote.NewClient(url, time.Second), 0, nil)
	_, err := idp.SignInWithPassword(context.Background(), "ops@example.com", "pw")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestIdentity_SignOutForgetsToken(t *testing.T) {
	srv := newAPIServer(t)
	client := remote.NewClient(srv.url, time.Second)
	idp := remote.NewIdentityProvider(client, 0, nil)
	signIn(t, idp)
	stale := client.Token()

	if err := idp.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if client.Token() != "" {
		t.Error("token should be forgotten after sign-out")
	}

	// The server revoked the old token too.
	if _, err := srv.auth.Resolve(context.Background(), stale); err == nil {
		t.Error("revoked token still resolves")
	}
}

func TestIdentity_PollReportsRevocation(t *testing.T) {
	srv := newAPIServer(t)
	client := remote.NewClient(srv.url, time.Second)
	idp := remote.NewIdentityProvider(client, 20*time.Millisecond, nil)
	t.Cleanup(idp.Close)

	changes := make(chan domain.Session, 1)
	unsubscribe := idp.OnAuthStateChange(func(s domain.Session) {
		select {
		case changes <- s:
		default:
		}
	})
	defer unsubscribe()

	signIn(t, idp)
	// Sign out elsewhere.
	if err := srv.auth.Logout(context.Background(), client.Token()); err != nil {
		t.Fatalf("server logout failed: %v", err)
	}

	select {
	case s := <-changes:
		if s.State != domain.SessionUnauthenticated {
			t.Errorf("state = %q, want unauthenticated", s.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sign-out notification")
	}
	if client.Token() != "" {
		t.Error("revoked token should be forgotten")
	}
}

// --- Records ---

func TestRepositories_RoundTrip(t *testing.T) {
	srv := newAPIServer(t)
	client := remote.NewClient(srv.url, time.Second)
	userID := signIn(t, remote.NewIdentityProvider(client, 0, nil)).UserID
	ctx := context.Background()

	tenants := remote.NewTenantRepository(client)
	rooms := remote.NewRoomRepository(client)
	payments := remote.NewPaymentRepository(client)

	if err := rooms.Create(ctx, domain.RoomValues{Number: "101", Capacity: 1}, userID); err != nil {
		t.Fatalf("creating room: %v", err)
	}
	err := tenants.Create(ctx, domain.TenantValues{
		Name: "Ana", Phone: domain.Ptr(""), Address: domain.Ptr("1 Main St"), Room: domain.Ptr("101"),
	}, userID)
	if err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
	if err := payments.Create(ctx, domain.PaymentValues{Tenant: "Ana", Amount: 300, PaidAt: "2024-05-01"}, userID); err != nil {
		t.Fatalf("creating payment: %v", err)
	}

	listed, err := tenants.List(ctx)
	if err != nil {
		t.Fatalf("listing tenants: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("got %d tenants, want 1", len(listed))
	}
	ana := listed[0]
	if ana.Phone != nil {
		t.Errorf("Phone = %q, want nil for blank input", *ana.Phone)
	}
	if !ana.IsAssigned || ana.OwnerID != userID || ana.CreatedAt.IsZero() {
		t.Errorf("tenant = %+v", ana)
	}

	roomList, err := rooms.List(ctx)
	if err != nil {
		t.Fatalf("listing rooms: %v", err)
	}
	if len(roomList) != 1 || !roomList[0].Full() {
		t.Errorf("rooms = %+v, want one full room", roomList)
	}

	// Unassign; the room frees up.
	if err := tenants.Update(ctx, ana.ID, domain.TenantValues{Room: domain.Ptr("")}); err != nil {
		t.Fatalf("updating tenant: %v", err)
	}
	roomList, _ = rooms.List(ctx)
	if roomList[0].Occupants != 0 {
		t.Errorf("Occupants = %d, want 0", roomList[0].Occupants)
	}

	if err := tenants.Delete(ctx, ana.ID); err != nil {
		t.Fatalf("deleting tenant: %v", err)
	}
	if err := tenants.Delete(ctx, ana.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	paid, err := payments.List(ctx)
	if err != nil {
		t.Fatalf("listing payments: %v", err)
	}
	if len(paid) != 1 || paid[0].Amount != 300 {
		t.Errorf("payments = %+v", paid)
	}
}

func TestRepositories_ErrorMapping(t *testing.T) {
	srv := newAPIServer(t)
	client := remote.NewClient(srv.url, time.Second)
	tenants := remote.NewTenantRepository(client)
	ctx := context.Background()

	// Signed out.
	_, err := tenants.List(ctx)
	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if repoErr.Op != "list" || repoErr.Kind != domain.KindTenant {
		t.Errorf("error = %+v", repoErr)
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	userID := signIn(t, remote.NewIdentityProvider(client, 0, nil)).UserID

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"other owner", func() error {
			return tenants.Create(ctx, domain.TenantValues{Name: "Ana"}, "someone-else")
		}, domain.ErrForbidden},
		{"missing record", func() error {
			return tenants.Update(ctx, "missing", domain.TenantValues{Name: "X"})
		}, domain.ErrNotFound},
		{"invalid values", func() error {
			return remote.NewRoomRepository(client).Create(ctx, domain.RoomValues{Number: "1", Capacity: -1}, userID)
		}, domain.ErrInvalidForm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRepositories_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := remote.NewPaymentRepository(remote.NewClient(srv.URL, time.Second)).List(context.Background())
	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		t.Errorf("500 should not map to a domain sentinel: %v", err)
	}
}
