package remote

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time checks: the constructors below satisfy the domain ports.
var (
	_ domain.TenantRepository  = (*Repository[domain.Tenant, domain.TenantValues, tenantWire])(nil)
	_ domain.RoomRepository    = (*Repository[domain.Room, domain.RoomValues, roomWire])(nil)
	_ domain.PaymentRepository = (*Repository[domain.Payment, domain.PaymentValues, paymentWire])(nil)
)

// Repository implements domain.Repository for one kind over the records API.
// W is the wire shape of a listed record. Calls are never retried.
type Repository[E, V, W any] struct {
	client *Client
	kind   domain.Kind
	path   string

	decode     func(W) E
	createBody func(V, string) any
	updateBody func(V) any
}

func (r *Repository[E, V, W]) List(ctx context.Context) ([]E, error) {
	var out []W
	req, _ := r.client.request(ctx)
	resp, err := req.SetResult(&out).SetError(&apiError{}).Get(r.path)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: r.kind, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &domain.RepositoryError{Op: "list", Kind: r.kind, Err: statusError(resp)}
	}

	items := make([]E, len(out))
	for i, w := range out {
		items[i] = r.decode(w)
	}
	return items, nil
}

func (r *Repository[E, V, W]) Create(ctx context.Context, values V, ownerID string) error {
	req, _ := r.client.request(ctx)
	resp, err := req.SetBody(r.createBody(values, ownerID)).SetError(&apiError{}).Post(r.path)
	return r.finish("create", resp, err)
}

func (r *Repository[E, V, W]) Update(ctx context.Context, id string, values V) error {
	req, _ := r.client.request(ctx)
	resp, err := req.SetBody(r.updateBody(values)).SetError(&apiError{}).
		SetPathParam("id", id).
		Patch(r.path + "/{id}")
	return r.finish("update", resp, err)
}

func (r *Repository[E, V, W]) Delete(ctx context.Context, id string) error {
	req, _ := r.client.request(ctx)
	resp, err := req.SetError(&apiError{}).
		SetPathParam("id", id).
		Delete(r.path + "/{id}")
	return r.finish("delete", resp, err)
}

// finish converts the outcome of a mutation into a RepositoryError.
func (r *Repository[E, V, W]) finish(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &domain.RepositoryError{Op: op, Kind: r.kind, Err: err}
	}
	if !resp.IsSuccess() {
		return &domain.RepositoryError{Op: op, Kind: r.kind, Err: statusError(resp)}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// --- Tenants ---

type tenantWire struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	Room       *string `json:"room"`
	IsAssigned bool    `json:"is_assigned"`
	OwnerID    string  `json:"owner_id"`
	CreatedAt  string  `json:"created_at"`
}

type tenantFields struct {
	Name    string  `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Room    *string `json:"room,omitempty"`
	OwnerID string  `json:"owner_id,omitempty"`
}

// NewTenantRepository returns the tenant store of the API.
func NewTenantRepository(client *Client) *Repository[domain.Tenant, domain.TenantValues, tenantWire] {
	return &Repository[domain.Tenant, domain.TenantValues, tenantWire]{
		client: client,
		kind:   domain.KindTenant,
		path:   "/tenants",
		decode: func(w tenantWire) domain.Tenant {
			return domain.Tenant{
				ID:         w.ID,
				Name:       w.Name,
				Phone:      w.Phone,
				Address:    w.Address,
				Room:       w.Room,
				IsAssigned: w.IsAssigned,
				OwnerID:    w.OwnerID,
				CreatedAt:  parseTime(w.CreatedAt),
			}
		},
		createBody: func(v domain.TenantValues, ownerID string) any {
			return tenantFields{Name: v.Name, Phone: blankToNil(v.Phone), Address: blankToNil(v.Address), Room: blankToNil(v.Room), OwnerID: ownerID}
		},
		updateBody: func(v domain.TenantValues) any {
			return tenantFields{Name: v.Name, Phone: v.Phone, Address: v.Address, Room: v.Room}
		},
	}
}

// --- Rooms ---

type roomWire struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Capacity  int    `json:"capacity"`
	Occupants int    `json:"occupants"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

type roomFields struct {
	Number   string `json:"number,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	OwnerID  string `json:"owner_id,omitempty"`
}

// NewRoomRepository returns the room store of the API.
func NewRoomRepository(client *Client) *Repository[domain.Room, domain.RoomValues, roomWire] {
	return &Repository[domain.Room, domain.RoomValues, roomWire]{
		client: client,
		kind:   domain.KindRoom,
		path:   "/rooms",
		decode: func(w roomWire) domain.Room {
			return domain.Room{
				ID:        w.ID,
				Number:    w.Number,
				Capacity:  w.Capacity,
				Occupants: w.Occupants,
				OwnerID:   w.OwnerID,
				CreatedAt: parseTime(w.CreatedAt),
			}
		},
		createBody: func(v domain.RoomValues, ownerID string) any {
			return roomFields{Number: v.Number, Capacity: v.Capacity, OwnerID: ownerID}
		},
		updateBody: func(v domain.RoomValues) any {
			return roomFields{Number: v.Number, Capacity: v.Capacity}
		},
	}
}

// --- Payments ---

type paymentWire struct {
	ID        string  `json:"id"`
	Tenant    string  `json:"tenant"`
	Room      *string `json:"room"`
	Amount    float64 `json:"amount"`
	PaidAt    string  `json:"paid_at"`
	Note      *string `json:"note"`
	OwnerID   string  `json:"owner_id"`
	CreatedAt string  `json:"created_at"`
}

type paymentFields struct {
	Tenant  string  `json:"tenant,omitempty"`
	Room    *string `json:"room,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	PaidAt  string  `json:"paid_at,omitempty"`
	Note    *string `json:"note,omitempty"`
	OwnerID string  `json:"owner_id,omitempty"`
}

// NewPaymentRepository returns the payment store of the API.
func NewPaymentRepository(client *Client) *Repository[domain.Payment, domain.PaymentValues, paymentWire] {
	return &Repository[domain.Payment, domain.PaymentValues, paymentWire]{
		client: client,
		kind:   domain.KindPayment,
		path:   "/payments",
		decode: func(w paymentWire) domain.Payment {
			return domain.Payment{
				ID:        w.ID,
				Tenant:    w.Tenant,
				Room:      w.Room,
				Amount:    w.Amount,
				PaidAt:    w.PaidAt,
				Note:      w.Note,
				OwnerID:   w.OwnerID,
				CreatedAt: parseTime(w.CreatedAt),
			}
		},
		createBody: func(v domain.PaymentValues, ownerID string) any {
			return paymentFields{Tenant: v.Tenant, Room: blankToNil(v.Room), Amount: v.Amount, PaidAt: v.PaidAt, Note: blankToNil(v.Note), OwnerID: ownerID}
		},
		updateBody: func(v domain.PaymentValues) any {
			return paymentFields{Tenant: v.Tenant, Room: v.Room, Amount: v.Amount, PaidAt: v.PaidAt, Note: v.Note}
		},
	}
}

// blankToNil drops empty optional fields from create bodies; there is
// nothing to clear on a new record.
func blankToNil(s *string) *string {
	return domain.Optional(domain.Deref(s))
}
