package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// AccountCreator is the subset of the Firebase admin client used for sign-up.
type AccountCreator interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
}

// PasswordVerifier checks an email/password pair and returns the account id.
type PasswordVerifier func(ctx context.Context, email, password string) (string, error)

// Firebase delegates accounts to Firebase Authentication. The admin SDK cannot
// check passwords, so sign-in goes through the Identity Toolkit API with the web key.
type Firebase struct {
	admin  AccountCreator
	verify PasswordVerifier
}

// NewFirebase wires the admin client and an Identity Toolkit verifier for apiKey.
func NewFirebase(ctx context.Context, admin AccountCreator, apiKey string) (*Firebase, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return NewFirebaseWithVerifier(admin, toolkitVerifier(svc)), nil
}

// NewFirebaseWithVerifier lets callers supply the password check.
func NewFirebaseWithVerifier(admin AccountCreator, verify PasswordVerifier) *Firebase {
	return &Firebase{admin: admin, verify: verify}
}

func (f *Firebase) SignUp(ctx context.Context, email, password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	params := (&auth.UserToCreate{}).Email(normaliseEmail(email)).Password(password)
	user, err := f.admin.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create firebase user: %w", err)
	}
	return user.UID, nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (string, error) {
	return f.verify(ctx, normaliseEmail(email), password)
}

func toolkitVerifier(svc *identitytoolkit.Service) PasswordVerifier {
	return func(ctx context.Context, email, password string) (string, error) {
		resp, err := svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}).Context(ctx).Do()
		if err != nil {
			if isCredentialRejection(err) {
				return "", ErrInvalidCredentials
			}
			return "", fmt.Errorf("verify password: %w", err)
		}
		return resp.LocalId, nil
	}
}

func isCredentialRejection(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED"} {
		if strings.Contains(apiErr.Message, code) {
			return true
		}
	}
	return false
}

var _ Provider = (*Firebase)(nil)
