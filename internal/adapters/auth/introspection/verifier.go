// Package introspection implementa auth.AuthVerifier contra un endpoint de
// introspección de tokens (estilo RFC 7662). Solo se usa para saber quién
// registra cada aplicación; no hay autorización en este servicio.
package introspection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shelter-medical/internal/platform/httpclient"
	"shelter-medical/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("token introspection not configured")
	ErrInactiveToken = errors.New("token is not active")
	ErrUpstream      = errors.New("token introspection failed")
)

type Config struct {
	URL    string
	APIKey string
	// Header de la API key; vacío = "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
}

type Verifier struct {
	url       string
	apiKey    string
	keyHeader string
	client    *httpclient.Client
}

func NewVerifier(cfg Config) *Verifier {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Verifier{
		url:       strings.TrimSpace(cfg.URL),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		keyHeader: h,
		client:    httpclient.New(cfg.Timeout),
	}
}

var _ auth.AuthVerifier = (*Verifier)(nil)

type introspectResponse struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.url == "" {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInactiveToken
	}

	headers := map[string]string{}
	if v.apiKey != "" {
		headers[v.keyHeader] = v.apiKey
	}

	var out introspectResponse
	err := v.client.PostJSON(ctx, v.url, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrInactiveToken
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	sub := strings.TrimSpace(out.Subject)
	if !out.Active || sub == "" {
		return auth.Claims{}, ErrInactiveToken
	}
	return auth.Claims{
		UserID:   sub,
		Email:    strings.TrimSpace(out.Email),
		TenantID: strings.TrimSpace(out.TenantID),
	}, nil
}
