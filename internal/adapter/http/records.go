package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/roomie/internal/domain"
)

const timeLayout = time.RFC3339Nano

// RecordPath identifies one record.
type RecordPath struct {
	ID string `path:"id" doc:"Record ID"`
}

// --- Tenants ---

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID         string  `json:"id" doc:"Unique identifier"`
	Name       string  `json:"name" doc:"Full name"`
	Phone      *string `json:"phone,omitempty" doc:"Contact phone"`
	Address    *string `json:"address,omitempty" doc:"Home address"`
	Room       *string `json:"room,omitempty" doc:"Assigned room number"`
	IsAssigned bool    `json:"is_assigned" doc:"Whether the tenant has a room"`
	OwnerID    string  `json:"owner_id" doc:"Operator who owns the record"`
	CreatedAt  string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toTenantResponse(t domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		Phone:      t.Phone,
		Address:    t.Address,
		Room:       t.Room,
		IsAssigned: t.IsAssigned,
		OwnerID:    t.OwnerID,
		CreatedAt:  t.CreatedAt.UTC().Format(timeLayout),
	}
}

// TenantFields are the writable tenant fields. On update an omitted field is
// left unchanged and an empty string clears it.
type TenantFields struct {
	Name    string  `json:"name,omitempty" maxLength:"255" doc:"Full name"`
	Phone   *string `json:"phone,omitempty" doc:"Contact phone"`
	Address *string `json:"address,omitempty" doc:"Home address"`
	Room    *string `json:"room,omitempty" doc:"Assigned room number"`
}

func (f TenantFields) values() domain.TenantValues {
	return domain.TenantValues{Name: f.Name, Phone: f.Phone, Address: f.Address, Room: f.Room}
}

type CreateTenantInput struct {
	Body struct {
		Name    string  `json:"name" minLength:"1" maxLength:"255" doc:"Full name"`
		Phone   *string `json:"phone,omitempty" doc:"Contact phone"`
		Address *string `json:"address,omitempty" doc:"Home address"`
		Room    *string `json:"room,omitempty" doc:"Assigned room number"`
		OwnerID string  `json:"owner_id" minLength:"1" doc:"Must be the signed-in operator"`
	}
}

type UpdateTenantInput struct {
	RecordPath
	Body TenantFields
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

func registerTenants(api huma.API, repo domain.TenantRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List the operator's tenants, newest first",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantsOutput, error) {
		if _, err := caller(ctx); err != nil {
			return nil, err
		}
		tenants, err := repo.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]TenantResponse, len(tenants))
		for i, t := range tenants {
			resp[i] = toTenantResponse(t)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-tenant",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants",
		Summary:       "Create a tenant",
		Tags:          []string{"Tenants"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTenantInput) (*struct{}, error) {
		b := input.Body
		values := domain.TenantValues{Name: b.Name, Phone: b.Phone, Address: b.Address, Room: b.Room}
		return nil, create(ctx, repo, values, input.Body.OwnerID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Update the supplied fields of a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*struct{}, error) {
		return nil, update(ctx, repo, input.ID, input.Body.values())
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-tenant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Delete a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *RecordPath) (*struct{}, error) {
		return nil, remove(ctx, repo, input.ID)
	})
}

// --- Rooms ---

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Number    string `json:"number" doc:"Room number"`
	Capacity  int    `json:"capacity" doc:"Number of places"`
	Occupants int    `json:"occupants" doc:"Tenants assigned to this room number"`
	Full      bool   `json:"full" doc:"Whether no places are left"`
	OwnerID   string `json:"owner_id" doc:"Operator who owns the record"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		Number:    r.Number,
		Capacity:  r.Capacity,
		Occupants: r.Occupants,
		Full:      r.Full(),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.UTC().Format(timeLayout),
	}
}

type CreateRoomInput struct {
	Body struct {
		Number   string `json:"number" minLength:"1" maxLength:"50" doc:"Room number"`
		Capacity int    `json:"capacity" minimum:"1" doc:"Number of places"`
		OwnerID  string `json:"owner_id" minLength:"1" doc:"Must be the signed-in operator"`
	}
}

type UpdateRoomInput struct {
	RecordPath
	Body struct {
		Number   string `json:"number,omitempty" maxLength:"50" doc:"Room number"`
		Capacity int    `json:"capacity,omitempty" minimum:"1" doc:"Number of places"`
	}
}

type ListRoomsOutput struct {
	Body []RoomResponse
}

func registerRooms(api huma.API, repo domain.RoomRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms",
		Summary:     "List the operator's rooms, newest first",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, _ *struct{}) (*ListRoomsOutput, error) {
		if _, err := caller(ctx); err != nil {
			return nil, err
		}
		rooms, err := repo.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]RoomResponse, len(rooms))
		for i, r := range rooms {
			resp[i] = toRoomResponse(r)
		}
		return &ListRoomsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-room",
		Method:        http.MethodPost,
		Path:          "/api/v1/rooms",
		Summary:       "Create a room",
		Tags:          []string{"Rooms"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateRoomInput) (*struct{}, error) {
		values := domain.RoomValues{Number: input.Body.Number, Capacity: input.Body.Capacity}
		return nil, create(ctx, repo, values, input.Body.OwnerID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-room",
		Method:      http.MethodPatch,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Update the supplied fields of a room",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *UpdateRoomInput) (*struct{}, error) {
		values := domain.RoomValues{Number: input.Body.Number, Capacity: input.Body.Capacity}
		return nil, update(ctx, repo, input.ID, values)
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-room",
		Method:      http.MethodDelete,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Delete a room",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *RecordPath) (*struct{}, error) {
		return nil, remove(ctx, repo, input.ID)
	})
}

// --- Payments ---

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID        string  `json:"id" doc:"Unique identifier"`
	Tenant    string  `json:"tenant" doc:"Who paid"`
	Room      *string `json:"room,omitempty" doc:"Room the payment is for"`
	Amount    float64 `json:"amount" doc:"Amount received"`
	PaidAt    string  `json:"paid_at" doc:"Payment date (YYYY-MM-DD)"`
	Note      *string `json:"note,omitempty" doc:"Free-form note"`
	OwnerID   string  `json:"owner_id" doc:"Operator who owns the record"`
	CreatedAt string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toPaymentResponse(p domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		Tenant:    p.Tenant,
		Room:      p.Room,
		Amount:    p.Amount,
		PaidAt:    p.PaidAt,
		Note:      p.Note,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(timeLayout),
	}
}

// PaymentFields are the writable payment fields.
type PaymentFields struct {
	Tenant string  `json:"tenant,omitempty" maxLength:"255" doc:"Who paid"`
	Room   *string `json:"room,omitempty" doc:"Room the payment is for"`
	Amount float64 `json:"amount,omitempty" exclusiveMinimum:"0" doc:"Amount received"`
	PaidAt string  `json:"paid_at,omitempty" format:"date" doc:"Payment date (YYYY-MM-DD)"`
	Note   *string `json:"note,omitempty" doc:"Free-form note"`
}

func (f PaymentFields) values() domain.PaymentValues {
	return domain.PaymentValues{Tenant: f.Tenant, Room: f.Room, Amount: f.Amount, PaidAt: f.PaidAt, Note: f.Note}
}

type CreatePaymentInput struct {
	Body struct {
		Tenant  string  `json:"tenant" minLength:"1" maxLength:"255" doc:"Who paid"`
		Room    *string `json:"room,omitempty" doc:"Room the payment is for"`
		Amount  float64 `json:"amount" exclusiveMinimum:"0" doc:"Amount received"`
		PaidAt  string  `json:"paid_at" format:"date" doc:"Payment date (YYYY-MM-DD)"`
		Note    *string `json:"note,omitempty" doc:"Free-form note"`
		OwnerID string  `json:"owner_id" minLength:"1" doc:"Must be the signed-in operator"`
	}
}

type UpdatePaymentInput struct {
	RecordPath
	Body PaymentFields
}

type ListPaymentsOutput struct {
	Body []PaymentResponse
}

func registerPayments(api huma.API, repo domain.PaymentRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "list-payments",
		Method:      http.MethodGet,
		Path:        "/api/v1/payments",
		Summary:     "List the operator's payments, newest first",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, _ *struct{}) (*ListPaymentsOutput, error) {
		if _, err := caller(ctx); err != nil {
			return nil, err
		}
		payments, err := repo.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]PaymentResponse, len(payments))
		for i, p := range payments {
			resp[i] = toPaymentResponse(p)
		}
		return &ListPaymentsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-payment",
		Method:        http.MethodPost,
		Path:          "/api/v1/payments",
		Summary:       "Record a payment",
		Tags:          []string{"Payments"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePaymentInput) (*struct{}, error) {
		b := input.Body
		values := domain.PaymentValues{Tenant: b.Tenant, Room: b.Room, Amount: b.Amount, PaidAt: b.PaidAt, Note: b.Note}
		return nil, create(ctx, repo, values, input.Body.OwnerID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-payment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/payments/{id}",
		Summary:     "Update the supplied fields of a payment",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *UpdatePaymentInput) (*struct{}, error) {
		return nil, update(ctx, repo, input.ID, input.Body.values())
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-payment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/payments/{id}",
		Summary:     "Delete a payment",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *RecordPath) (*struct{}, error) {
		return nil, remove(ctx, repo, input.ID)
	})
}

// --- shared ---

func create[E, V any](ctx context.Context, repo domain.Repository[E, V], values V, ownerID string) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return huma.Error403Forbidden("owner_id must be the signed-in operator")
	}
	if err := repo.Create(ctx, values, ownerID); err != nil {
		return toHumaError(err)
	}
	return nil
}

func update[E, V any](ctx context.Context, repo domain.Repository[E, V], id string, values V) error {
	if _, err := caller(ctx); err != nil {
		return err
	}
	if err := repo.Update(ctx, id, values); err != nil {
		return toHumaError(err)
	}
	return nil
}

func remove[E, V any](ctx context.Context, repo domain.Repository[E, V], id string) error {
	if _, err := caller(ctx); err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return toHumaError(err)
	}
	return nil
}
