package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrDuplicate, "subject name already exists")
	wrapped := fmt.Errorf("create subject: %w", err)

	assert.True(t, errors.Is(wrapped, ErrDuplicate))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestBackendKeepsCause(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Backend(cause, "failed to load course")

	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	err := WithDetails(ErrValidation, []string{"c1", "c2"})
	assert.NotNil(t, err.Details)
	assert.Nil(t, ErrValidation.Details)
}
