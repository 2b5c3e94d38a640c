package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/googleapi"

	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

func TestLocalSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	provider := NewLocal(docstore.NewMemory(), bcrypt.MinCost)

	id, err := provider.SignUp(ctx, " Docente@Escuela.edu ", "secreto1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := provider.SignIn(ctx, "docente@escuela.edu", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = provider.SignIn(ctx, "docente@escuela.edu", "otra")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.SignIn(ctx, "nadie@escuela.edu", "secreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalSignUpRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	ctx := context.Background()
	provider := NewLocal(docstore.NewMemory(), bcrypt.MinCost)

	_, err := provider.SignUp(ctx, "a@b.c", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = provider.SignUp(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	_, err = provider.SignUp(ctx, "A@B.C", "123456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

type fakeCreator struct {
	uid string
	err error
}

func (f *fakeCreator) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: f.uid}}, nil
}

func TestFirebaseSignUpReturnsUID(t *testing.T) {
	provider := NewFirebaseWithVerifier(&fakeCreator{uid: "uid-1"}, nil)
	id, err := provider.SignUp(context.Background(), "x@y.z", "123456")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id)
}

func TestFirebaseSignUpWrapsFailures(t *testing.T) {
	provider := NewFirebaseWithVerifier(&fakeCreator{err: errors.New("quota")}, nil)
	_, err := provider.SignUp(context.Background(), "x@y.z", "123456")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
}

func TestFirebaseSignInUsesVerifier(t *testing.T) {
	var seen string
	provider := NewFirebaseWithVerifier(nil, func(ctx context.Context, email, password string) (string, error) {
		seen = email
		return "uid-9", nil
	})
	id, err := provider.SignIn(context.Background(), "  PADRE@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "uid-9", id)
	assert.Equal(t, "padre@x.com", seen)
}

func TestCredentialRejection(t *testing.T) {
	assert.True(t, isCredentialRejection(&googleapi.Error{Code: 400, Message: "INVALID_PASSWORD"}))
	assert.False(t, isCredentialRejection(&googleapi.Error{Code: 400, Message: "TOO_MANY_ATTEMPTS_TRY_LATER"}))
	assert.False(t, isCredentialRejection(errors.New("dial tcp")))
}
