package static

import (
	"context"
	"crypto/subtle"
	"strings"

	"event-reports/internal/ports/auth"
)

// Verifier implementa auth.Verifier contra un set fijo de usuarios (config).
type Verifier struct {
	users map[string]string
}

var _ auth.Verifier = (*Verifier)(nil)

func NewVerifier(users map[string]string) *Verifier {
	cp := make(map[string]string, len(users))
	for u, p := range users {
		if u = strings.TrimSpace(u); u != "" {
			cp[u] = p
		}
	}
	return &Verifier{users: cp}
}

// Verify compara en tiempo constante; un usuario desconocido también paga la comparación.
func (v *Verifier) Verify(_ context.Context, user, password string) (auth.Claims, error) {
	expected, ok := v.users[user]
	if !ok {
		expected = "\x00"
	}
	match := subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
	if !ok || !match {
		return auth.Claims{}, auth.ErrUnauthorized
	}
	return auth.Claims{User: user, Scheme: "basic"}, nil
}
