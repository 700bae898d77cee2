package auth

import (
	"context"
	"errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier valida credenciales usuario/password y devuelve claims o ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, user, password string) (Claims, error)
}
