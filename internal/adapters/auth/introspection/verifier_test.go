package introspection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		switch body.Token {
		case "good":
			_, _ = w.Write([]byte(`{"active":true,"sub":" vet-9 ","email":"vet@shelter.org"}`))
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"active":false}`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestVerifier_Verify(t *testing.T) {
	ts := newUpstream(t)
	v := NewVerifier(Config{URL: ts.URL, APIKey: "secret"})
	ctx := context.Background()

	claims, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "vet-9", claims.UserID)
	assert.Equal(t, "vet@shelter.org", claims.Email)

	_, err = v.Verify(ctx, "expired")
	assert.ErrorIs(t, err, ErrInactiveToken)

	_, err = v.Verify(ctx, "broken")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(ctx, "  ")
	assert.ErrorIs(t, err, ErrInactiveToken)
}

func TestVerifier_WrongKeyAndNotConfigured(t *testing.T) {
	ts := newUpstream(t)

	_, err := NewVerifier(Config{URL: ts.URL, APIKey: "nope"}).Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrInactiveToken)

	_, err = NewVerifier(Config{}).Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
