package domain

import (
	"strings"
	"time"
)

// Tenant is a person renting a room from the operator.
type Tenant struct {
	ID         string
	Name       string
	Phone      *string
	Address    *string
	Room       *string // room number
	IsAssigned bool
	OwnerID    string
	CreatedAt  time.Time
}

// TenantValues holds the editable fields of a tenant. Nil optional fields
// are left untouched on update; a pointer to "" clears the field.
type TenantValues struct {
	Name    string
	Phone   *string
	Address *string
	Room    *string
}

// Valid reports whether the values may be saved: a name and an address are required.
func (v TenantValues) Valid() bool {
	return strings.TrimSpace(v.Name) != "" && strings.TrimSpace(Deref(v.Address)) != ""
}

// Values returns the tenant's current editable fields.
func (t Tenant) Values() TenantValues {
	return TenantValues{
		Name:    t.Name,
		Phone:   copyString(t.Phone),
		Address: copyString(t.Address),
		Room:    copyString(t.Room),
	}
}
