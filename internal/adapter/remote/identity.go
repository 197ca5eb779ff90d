package remote

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: IdentityProvider implements domain.IdentityProvider.
var _ domain.IdentityProvider = (*IdentityProvider)(nil)

// DefaultPollInterval is how often the session endpoint is checked for
// revocation or expiry.
const DefaultPollInterval = 30 * time.Second

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	UserID string `json:"user_id"`
}

// IdentityProvider implements domain.IdentityProvider against the auth API.
// After the first listener subscribes it polls the session endpoint and
// reports a sign-out when the server no longer accepts the token.
type IdentityProvider struct {
	client   *Client
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(domain.Session)
	nextID    int

	startPoll sync.Once
	stop      context.CancelFunc
	done      chan struct{}
}

// NewIdentityProvider creates an identity provider. A non-positive interval
// disables polling.
func NewIdentityProvider(client *Client, interval time.Duration, logger *slog.Logger) *IdentityProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityProvider{
		client:    client,
		interval:  interval,
		logger:    logger,
		listeners: make(map[int]func(domain.Session)),
	}
}

// GetSession asks the server whether the held token is still valid. Without
// a token the operator is signed out and no request is made.
func (p *IdentityProvider) GetSession(ctx context.Context) (domain.Session, error) {
	req, token := p.client.request(ctx)
	if token == "" {
		return domain.SignedOut(), nil
	}

	var out sessionResponse
	resp, err := req.SetResult(&out).SetError(&apiError{}).Get("/auth/session")
	if err != nil {
		return domain.Session{}, &domain.AuthError{Reason: "session lookup", Err: err}
	}
	switch {
	case resp.IsSuccess():
		return domain.SignedIn(out.UserID), nil
	case resp.StatusCode() == http.StatusUnauthorized:
		p.client.clearToken(token)
		return domain.SignedOut(), nil
	}
	return domain.Session{}, &domain.AuthError{Reason: "session lookup", Err: statusError(resp)}
}

// SignInWithPassword exchanges credentials for a bearer token.
func (p *IdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error) {
	var out loginResponse
	resp, err := p.client.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/auth/login")
	if err != nil {
		return domain.Session{}, &domain.AuthError{Reason: "login request", Err: err}
	}
	if !resp.IsSuccess() {
		if resp.StatusCode() == http.StatusUnauthorized {
			return domain.Session{}, &domain.AuthError{Reason: "invalid credentials"}
		}
		return domain.Session{}, &domain.AuthError{Reason: "login rejected", Err: statusError(resp)}
	}
	if out.Token == "" || out.UserID == "" {
		return domain.Session{}, &domain.AuthError{Reason: "login response had no session"}
	}

	p.client.setToken(out.Token)
	return domain.SignedIn(out.UserID), nil
}

// SignOut revokes the token on the server. The token is forgotten even when
// the server cannot be reached.
func (p *IdentityProvider) SignOut(ctx context.Context) error {
	req, token := p.client.request(ctx)
	if token == "" {
		return nil
	}
	defer p.client.clearToken(token)

	resp, err := req.SetError(&apiError{}).Post("/auth/logout")
	if err != nil {
		return &domain.AuthError{Reason: "logout request", Err: err}
	}
	// An already revoked token is as good as signed out.
	if !resp.IsSuccess() && resp.StatusCode() != http.StatusUnauthorized {
		return &domain.AuthError{Reason: "logout rejected", Err: statusError(resp)}
	}
	return nil
}

// OnAuthStateChange registers listener for sign-outs detected by polling.
// Listeners run on the polling goroutine.
func (p *IdentityProvider) OnAuthStateChange(listener func(domain.Session)) domain.Unsubscribe {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener
	p.mu.Unlock()

	if p.interval > 0 {
		p.startPoll.Do(p.startPolling)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close stops polling and waits for the poller to exit.
func (p *IdentityProvider) Close() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	<-done
}

func (p *IdentityProvider) startPolling() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.stop = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

func (p *IdentityProvider) poll(ctx context.Context) {
	if p.client.Token() == "" {
		return
	}
	session, err := p.GetSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.DebugContext(ctx, "session poll failed", "error", err)
		}
		return
	}
	// A token left in place belongs to a newer sign-in.
	if session.IsAuthenticated() || p.client.Token() != "" {
		return
	}

	p.logger.InfoContext(ctx, "session ended on the server")
	p.mu.Lock()
	listeners := make([]func(domain.Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(session)
	}
}
