// Package auth delegates identity to an external provider. The only
// capability the application needs is "verify bearer token, get the
// subject"; token issuance and session state stay outside this repo.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken covers every verification failure. Callers map it to
// a 401 without leaking the underlying cause.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller: the provider subject plus whatever
// profile claims the token carried. Profile fields may be empty.
type Identity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// TokenVerifier validates a bearer token against the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
