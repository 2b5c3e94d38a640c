// Package identity is the account half of the backend gateway.
package identity

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("identity: email already registered")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrWeakPassword       = errors.New("identity: password must have at least 6 characters")
)

// MinPasswordLength mirrors the hosted provider's rule so both adapters reject the same input.
const MinPasswordLength = 6

// Provider creates and authenticates password accounts. Both calls return the account id.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}
