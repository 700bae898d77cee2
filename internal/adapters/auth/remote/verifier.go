package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"event-reports/internal/platform/httpclient"
	"event-reports/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("remote verifier not configured")
	ErrUpstream      = errors.New("identity service upstream error")
)

const verifyPath = "/v1/credentials/verify"

// Config del servicio de identidad. Normalmente viene de env vars.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Default "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
}

// Verifier delega la validación de usuario/password a un servicio de identidad externo.
type Verifier struct {
	client *httpclient.Client
}

var _ auth.Verifier = (*Verifier)(nil)

func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c, err := httpclient.New(strings.TrimSpace(cfg.BaseURL), timeout,
		httpclient.WithHeader(h, strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, err
	}
	return &Verifier{client: c}, nil
}

type verifyRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type verifyResponse struct {
	User string `json:"user"`
}

// Verify: 401/403 del servicio => ErrUnauthorized; cualquier otra falla => ErrUpstream.
func (v *Verifier) Verify(ctx context.Context, user, password string) (auth.Claims, error) {
	if strings.TrimSpace(user) == "" {
		return auth.Claims{}, auth.ErrUnauthorized
	}

	var out verifyResponse
	_, err := v.client.DoJSON(ctx, http.MethodPost, verifyPath, verifyRequest{User: user, Password: password}, &out)
	if err != nil {
		var herr *httpclient.HTTPError
		if errors.As(err, &herr) &&
			(herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, auth.ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	// El servicio puede normalizar el usuario (ej: minúsculas).
	u := strings.TrimSpace(out.User)
	if u == "" {
		u = user
	}
	return auth.Claims{User: u, Scheme: "basic"}, nil
}
