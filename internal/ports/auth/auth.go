// Package auth define lo mínimo para saber quién hace cada request: el
// servicio registra al usuario en "given by"/"created by" y no autoriza nada.
package auth

import "context"

// Claims del usuario autenticado. Solo UserID es obligatorio.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// AuthVerifier valida un Bearer token. Un error deja el request como
// anónimo (actor "system"), no lo rechaza.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
