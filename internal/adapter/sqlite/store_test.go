package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/roomie/internal/adapter/sqlite"
	"github.com/neomorfeo/roomie/internal/domain"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ownerCtx(userID string) context.Context {
	return domain.WithOwner(context.Background(), userID)
}

func mustCreateTenant(t *testing.T, repo *sqlite.TenantRepository, ctx context.Context, v domain.TenantValues, ownerID string) {
	t.Helper()
	if err := repo.Create(ctx, v, ownerID); err != nil {
		t.Fatalf("creating tenant: %v", err)
	}
}

func TestTenants_CreateAndList(t *testing.T) {
	repo := newTestStore(t).Tenants()
	ctx := ownerCtx("u-1")

	mustCreateTenant(t, repo, domain.WithRecordID(ctx, "t-1"), domain.TenantValues{
		Name: "Ana", Phone: domain.Ptr("555-0101"), Address: domain.Ptr("1 Main St"), Room: domain.Ptr("101"),
	}, "u-1")
	mustCreateTenant(t, repo, domain.WithRecordID(ctx, "t-2"), domain.TenantValues{
		Name: "Ben", Address: domain.Ptr("2 Main St"),
	}, "u-1")

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].ID != "t-2" || got[1].ID != "t-1" {
		t.Errorf("order = [%s %s], want [t-2 t-1]", got[0].ID, got[1].ID)
	}
	if got[0].Room != nil || got[0].IsAssigned {
		t.Errorf("Ben room = %v assigned = %v, want unassigned", got[0].Room, got[0].IsAssigned)
	}
	if domain.Deref(got[1].Room) != "101" || !got[1].IsAssigned {
		t.Errorf("Ana room = %q assigned = %v, want 101 assigned", domain.Deref(got[1].Room), got[1].IsAssigned)
	}
	if got[1].OwnerID != "u-1" {
		t.Errorf("OwnerID = %q, want %q", got[1].OwnerID, "u-1")
	}
	if got[1].CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestTenants_ListScopedToOwner(t *testing.T) {
	repo := newTestStore(t).Tenants()

	mustCreateTenant(t, repo, ownerCtx("u-1"), domain.TenantValues{Name: "Ana", Address: domain.Ptr("x")}, "u-1")
	mustCreateTenant(t, repo, ownerCtx("u-2"), domain.TenantValues{Name: "Ben", Address: domain.Ptr("y")}, "u-2")

	got, err := repo.List(ownerCtx("u-2"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ben" {
		t.Errorf("got %+v, want only Ben", got)
	}
}

func TestTenants_ListEmpty(t *testing.T) {
	repo := newTestStore(t).Tenants()

	got, err := repo.List(ownerCtx("u-1"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestTenants_ListWithoutOwner(t *testing.T) {
	repo := newTestStore(t).Tenants()

	_, err := repo.List(context.Background())
	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected RepositoryError, got %v", err)
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestTenants_PartialUpdate(t *testing.T) {
	repo := newTestStore(t).Tenants()
	ctx := ownerCtx("u-1")
	mustCreateTenant(t, repo, domain.WithRecordID(ctx, "t-1"), domain.TenantValues{
		Name: "Ana", Phone: domain.Ptr("555"), Address: domain.Ptr("1 Main St"), Room: domain.Ptr("101"),
	}, "u-1")

	// Name and address untouched, phone replaced, room cleared.
	err := repo.Update(ctx, "t-1", domain.TenantValues{Phone: domain.Ptr("777"), Room: domain.Ptr("")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.List(ctx)
	if got[0].Name != "Ana" {
		t.Errorf("Name = %q, want %q", got[0].Name, "Ana")
	}
	if domain.Deref(got[0].Address) != "1 Main St" {
		t.Errorf("Address = %q, want unchanged", domain.Deref(got[0].Address))
	}
	if domain.Deref(got[0].Phone) != "777" {
		t.Errorf("Phone = %q, want %q", domain.Deref(got[0].Phone), "777")
	}
	if got[0].Room != nil || got[0].IsAssigned {
		t.Errorf("Room = %v, want cleared", got[0].Room)
	}
}

func TestTenants_UpdateNotFound(t *testing.T) {
	repo := newTestStore(t).Tenants()

	tests := []struct {
		name   string
		values domain.TenantValues
	}{
		{"with fields", domain.TenantValues{Name: "X"}},
		{"no fields", domain.TenantValues{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Update(ownerCtx("u-1"), "missing", tt.values)
			if !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestTenants_UpdateOtherOwner(t *testing.T) {
	repo := newTestStore(t).Tenants()
	mustCreateTenant(t, repo, domain.WithRecordID(ownerCtx("u-1"), "t-1"), domain.TenantValues{Name: "Ana", Address: domain.Ptr("x")}, "u-1")

	err := repo.Update(ownerCtx("u-2"), "t-1", domain.TenantValues{Name: "Mallory"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTenants_Delete(t *testing.T) {
	repo := newTestStore(t).Tenants()
	ctx := ownerCtx("u-1")
	mustCreateTenant(t, repo, domain.WithRecordID(ctx, "t-1"), domain.TenantValues{Name: "Ana", Address: domain.Ptr("x")}, "u-1")

	if err := repo.Delete(ctx, "t-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ := repo.List(ctx)
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}

	if err := repo.Delete(ctx, "t-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestTenants_CreateRejectsBlankName(t *testing.T) {
	repo := newTestStore(t).Tenants()

	err := repo.Create(ownerCtx("u-1"), domain.TenantValues{Name: "  "}, "u-1")
	if !errors.Is(err, domain.ErrInvalidForm) {
		t.Errorf("expected ErrInvalidForm, got %v", err)
	}
}

func TestRooms_OccupantsDerivedFromTenants(t *testing.T) {
	store := newTestStore(t)
	ctx := ownerCtx("u-1")

	if err := store.Rooms().Create(domain.WithRecordID(ctx, "r-1"), domain.RoomValues{Number: "101", Capacity: 2}, "u-1"); err != nil {
		t.Fatalf("creating room: %v", err)
	}
	for _, name := range []string{"Ana", "Ben"} {
		mustCreateTenant(t, store.Tenants(), ctx, domain.TenantValues{Name: name, Address: domain.Ptr("x"), Room: domain.Ptr("101")}, "u-1")
	}
	// Another owner's tenant in a room with the same number does not count.
	mustCreateTenant(t, store.Tenants(), ownerCtx("u-2"), domain.TenantValues{Name: "Eve", Address: domain.Ptr("y"), Room: domain.Ptr("101")}, "u-2")

	rooms, err := store.Rooms().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("len = %d, want 1", len(rooms))
	}
	if rooms[0].Occupants != 2 {
		t.Errorf("Occupants = %d, want 2", rooms[0].Occupants)
	}
	if !rooms[0].Full() {
		t.Error("room with 2/2 occupants should be full")
	}
}

func TestRooms_DuplicateNumber(t *testing.T) {
	repo := newTestStore(t).Rooms()
	ctx := ownerCtx("u-1")

	if err := repo.Create(ctx, domain.RoomValues{Number: "101", Capacity: 1}, "u-1"); err != nil {
		t.Fatalf("creating room: %v", err)
	}
	err := repo.Create(ctx, domain.RoomValues{Number: "101", Capacity: 3}, "u-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Same number for a different owner is fine.
	if err := repo.Create(ownerCtx("u-2"), domain.RoomValues{Number: "101", Capacity: 1}, "u-2"); err != nil {
		t.Errorf("other owner create failed: %v", err)
	}
}

func TestRooms_UpdateCapacity(t *testing.T) {
	repo := newTestStore(t).Rooms()
	ctx := ownerCtx("u-1")
	if err := repo.Create(domain.WithRecordID(ctx, "r-1"), domain.RoomValues{Number: "101", Capacity: 1}, "u-1"); err != nil {
		t.Fatalf("creating room: %v", err)
	}

	if err := repo.Update(ctx, "r-1", domain.RoomValues{Capacity: 4}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rooms, _ := repo.List(ctx)
	if rooms[0].Number != "101" || rooms[0].Capacity != 4 {
		t.Errorf("got %s/%d, want 101/4", rooms[0].Number, rooms[0].Capacity)
	}
}

func TestPayments_CreateUpdateDelete(t *testing.T) {
	repo := newTestStore(t).Payments()
	ctx := ownerCtx("u-1")

	err := repo.Create(domain.WithRecordID(ctx, "p-1"), domain.PaymentValues{
		Tenant: "Ana", Room: domain.Ptr("101"), Amount: 450, PaidAt: "2024-05-01", Note: domain.Ptr("May"),
	}, "u-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Update(ctx, "p-1", domain.PaymentValues{Amount: 500, Note: domain.Ptr("")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	p := got[0]
	if p.Tenant != "Ana" || p.Amount != 500 || p.PaidAt != "2024-05-01" {
		t.Errorf("got %+v", p)
	}
	if domain.Deref(p.Room) != "101" {
		t.Errorf("Room = %q, want 101", domain.Deref(p.Room))
	}
	if p.Note != nil {
		t.Errorf("Note = %q, want cleared", *p.Note)
	}

	if err := repo.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestPayments_CreateRejectsNonPositiveAmount(t *testing.T) {
	repo := newTestStore(t).Payments()

	err := repo.Create(ownerCtx("u-1"), domain.PaymentValues{Tenant: "Ana", Amount: -1, PaidAt: "2024-05-01"}, "u-1")
	if !errors.Is(err, domain.ErrInvalidForm) {
		t.Errorf("expected ErrInvalidForm, got %v", err)
	}
}

func TestCreate_WithoutOwnerID(t *testing.T) {
	store := newTestStore(t)

	err := store.Rooms().Create(context.Background(), domain.RoomValues{Number: "1", Capacity: 1}, "")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestAccounts_CreateAndLookup(t *testing.T) {
	accounts := newTestStore(t).Accounts()
	ctx := context.Background()
	now := time.Now()

	account := domain.Account{ID: "u-1", Email: "ops@example.com", PasswordHash: "hash", CreatedAt: now}
	if err := accounts.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	got, err := accounts.AccountByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("AccountByEmail failed: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" {
		t.Errorf("got %+v", got)
	}

	err = accounts.CreateAccount(ctx, domain.Account{ID: "u-2", Email: "ops@example.com", PasswordHash: "h", CreatedAt: now})
	var taken *domain.EmailTakenError
	if !errors.As(err, &taken) {
		t.Fatalf("expected EmailTakenError, got %v", err)
	}

	if _, err := accounts.AccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAccounts_SessionLifecycle(t *testing.T) {
	accounts := newTestStore(t).Accounts()
	ctx := context.Background()
	now := time.Now()

	if err := accounts.CreateAccount(ctx, domain.Account{ID: "u-1", Email: "a@b.c", PasswordHash: "h", CreatedAt: now}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	session := domain.AuthSession{ID: "s-1", UserID: "u-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := accounts.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := accounts.SessionByID(ctx, "s-1")
	if err != nil {
		t.Fatalf("SessionByID failed: %v", err)
	}
	if !got.Active(now) {
		t.Error("new session should be active")
	}

	revokedAt := now.Add(time.Minute)
	if err := accounts.RevokeSession(ctx, "s-1", revokedAt); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	// Revoking again keeps the first time.
	if err := accounts.RevokeSession(ctx, "s-1", revokedAt.Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeSession failed: %v", err)
	}

	got, _ = accounts.SessionByID(ctx, "s-1")
	if got.Active(now) {
		t.Error("revoked session should not be active")
	}
	if got.RevokedAt == nil || !got.RevokedAt.Equal(revokedAt.UTC()) {
		t.Errorf("RevokedAt = %v, want %v", got.RevokedAt, revokedAt.UTC())
	}

	if _, err := accounts.SessionByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := accounts.RevokeSession(ctx, "missing", now); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
