package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Authenticator is the server side of the identity provider.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, domain.Session, error)
	Resolve(ctx context.Context, token string) (domain.Session, error)
	Logout(ctx context.Context, token string) error
}

// Services are the application services exposed over HTTP.
type Services struct {
	Auth     Authenticator
	Tenants  domain.TenantRepository
	Rooms    domain.RoomRepository
	Payments domain.PaymentRepository
}

// --- Auth ---

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"1" doc:"Operator email"`
		Password string `json:"password" minLength:"1" doc:"Operator password"`
	}
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token  string `json:"token" doc:"Bearer token for subsequent requests"`
	UserID string `json:"user_id" doc:"Signed-in operator"`
}

type LoginOutput struct {
	Body LoginResponse
}

// SessionResponse describes the session a bearer token belongs to.
type SessionResponse struct {
	UserID string `json:"user_id" doc:"Signed-in operator"`
}

type SessionOutput struct {
	Body SessionResponse
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

// Register adds all roomie API routes to the Huma API. The bearer middleware
// from Authenticate must run in front of the router.
func Register(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Liveness check",
		Tags:        []string{"Health"},
	}, func(_ context.Context, _ *struct{}) (*HealthOutput, error) {
		out := &HealthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})

	registerAuth(api, svc.Auth)
	registerTenants(api, svc.Tenants)
	registerRooms(api, svc.Rooms)
	registerPayments(api, svc.Payments)
}

func registerAuth(api huma.API, auth Authenticator) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		token, session, err := auth.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LoginOutput{Body: LoginResponse{Token: token, UserID: session.UserID}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/session",
		Summary:     "Describe the current session",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
		userID, err := caller(ctx)
		if err != nil {
			return nil, err
		}
		return &SessionOutput{Body: SessionResponse{UserID: userID}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Revoke the current session",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		token, ok := bearerFrom(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing bearer token")
		}
		if err := auth.Logout(ctx, token); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}

// caller returns the authenticated operator or a 401.
func caller(ctx context.Context) (string, error) {
	userID, ok := domain.OwnerFrom(ctx)
	if !ok {
		return "", huma.Error401Unauthorized("sign in required")
	}
	return userID, nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return huma.Error401Unauthorized("authentication failed")
	}

	var requiredErr *domain.AuthRequiredError
	if errors.As(err, &requiredErr) {
		return huma.Error401Unauthorized(requiredErr.Error())
	}

	var takenErr *domain.EmailTakenError
	if errors.As(err, &takenErr) {
		return huma.Error409Conflict(takenErr.Error())
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("record not found")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("not permitted")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrInvalidForm):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
