package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Kind describes how a Controller handles one entity kind.
type Kind[E, V any] struct {
	Kind   domain.Kind
	Noun   string // "Tenant"
	Plural string // "tenants"

	ID     func(E) string
	Values func(E) V
	Valid  func(V) bool
	// Empty returns the values of a fresh add dialog.
	Empty func() V
	// Match reports whether the item matches a trimmed, lower-cased query.
	Match func(item E, query string) bool
	// Describe names the item in the delete confirmation.
	Describe func(E) string
}

// TenantKind searches name, phone and room.
var TenantKind = Kind[domain.Tenant, domain.TenantValues]{
	Kind:   domain.KindTenant,
	Noun:   "Tenant",
	Plural: "tenants",
	ID:     func(t domain.Tenant) string { return t.ID },
	Values: domain.Tenant.Values,
	Valid:  domain.TenantValues.Valid,
	Empty:  func() domain.TenantValues { return domain.TenantValues{} },
	Match: func(t domain.Tenant, q string) bool {
		return contains(t.Name, q) || contains(domain.Deref(t.Phone), q) || contains(domain.Deref(t.Room), q)
	},
	Describe: func(t domain.Tenant) string { return t.Name },
}

// RoomKind searches the room number.
var RoomKind = Kind[domain.Room, domain.RoomValues]{
	Kind:     domain.KindRoom,
	Noun:     "Room",
	Plural:   "rooms",
	ID:       func(r domain.Room) string { return r.ID },
	Values:   domain.Room.Values,
	Valid:    domain.RoomValues.Valid,
	Empty:    func() domain.RoomValues { return domain.RoomValues{Capacity: 1} },
	Match:    func(r domain.Room, q string) bool { return contains(r.Number, q) },
	Describe: func(r domain.Room) string { return "room " + r.Number },
}

// PaymentKind searches tenant, room and note.
var PaymentKind = Kind[domain.Payment, domain.PaymentValues]{
	Kind:   domain.KindPayment,
	Noun:   "Payment",
	Plural: "payments",
	ID:     func(p domain.Payment) string { return p.ID },
	Values: domain.Payment.Values,
	Valid:  domain.PaymentValues.Valid,
	Empty:  func() domain.PaymentValues { return domain.PaymentValues{PaidAt: today()} },
	Match: func(p domain.Payment, q string) bool {
		return contains(p.Tenant, q) || contains(domain.Deref(p.Room), q) || contains(domain.Deref(p.Note), q)
	},
	Describe: func(p domain.Payment) string {
		return fmt.Sprintf("the %.2f payment from %s", p.Amount, p.Tenant)
	},
}

func contains(field, query string) bool {
	return strings.Contains(strings.ToLower(field), query)
}

func today() string {
	return time.Now().Format(domain.DateLayout)
}
