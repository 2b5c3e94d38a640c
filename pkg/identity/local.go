package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

// CredentialsCollection holds bcrypt hashes for the local provider.
const CredentialsCollection = "Cuentas"

// Local keeps credentials in the document store.
type Local struct {
	store docstore.Store
	cost  int
	now   func() time.Time
}

// NewLocal builds a provider over store. A zero cost uses bcrypt.DefaultCost.
func NewLocal(store docstore.Store, cost int) *Local {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Local{store: store, cost: cost, now: time.Now}
}

func (l *Local) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normaliseEmail(email)
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	existing, err := docstore.QueryEquals(ctx, l.store, CredentialsCollection, "email", email)
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if len(existing) > 0 {
		return "", ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id, err := l.store.Add(ctx, CredentialsCollection, docstore.Data{
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    l.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("store account: %w", err)
	}
	return id, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (string, error) {
	docs, err := docstore.QueryEquals(ctx, l.store, CredentialsCollection, "email", normaliseEmail(email))
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if len(docs) == 0 {
		return "", ErrInvalidCredentials
	}
	hash, _ := docs[0].Data["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("compare password: %w", err)
	}
	return docs[0].ID, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Provider = (*Local)(nil)
