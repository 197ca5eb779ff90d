package domain

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO 8601 calendar date format used for PaidAt.
const DateLayout = "2006-01-02"

// Payment is a rent payment received from a tenant.
type Payment struct {
	ID        string
	Tenant    string
	Room      *string
	Amount    float64
	PaidAt    string
	Note      *string
	OwnerID   string
	CreatedAt time.Time
}

// PaymentValues holds the editable fields of a payment.
type PaymentValues struct {
	Tenant string
	Room   *string
	Amount float64
	PaidAt string
	Note   *string
}

// Valid reports whether the values may be saved. Amount must be finite and positive.
func (v PaymentValues) Valid() bool {
	if strings.TrimSpace(v.Tenant) == "" || !(v.Amount > 0) || math.IsInf(v.Amount, 0) {
		return false
	}
	_, err := time.Parse(DateLayout, v.PaidAt)
	return err == nil
}

// Values returns the payment's current editable fields.
func (p Payment) Values() PaymentValues {
	return PaymentValues{
		Tenant: p.Tenant,
		Room:   copyString(p.Room),
		Amount: p.Amount,
		PaidAt: p.PaidAt,
		Note:   copyString(p.Note),
	}
}
