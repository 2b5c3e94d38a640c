package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/identity"
)

func defaults(validate *validator.Validate, logger *zap.Logger) (*validator.Validate, *zap.Logger) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return validate, logger
}

// lookupErr maps a repository read failure to NotFound or BackendError.
func lookupErr(err error, what string) error {
	if repository.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.Backend(err, "failed to load "+what)
}

func invalid(err error, msg string) error {
	return appErrors.Validation(err, msg)
}

func authorize(session models.Session, roles ...models.UserRole) error {
	if session.AccountID == "" {
		return appErrors.ErrUnauthorized
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if session.Role == r {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role "+string(session.Role)+" may not perform this action")
}

// foldName normalises names for case- and space-insensitive comparison.
func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// diagnostic renders a combined error for batch reports.
func diagnostic(err error) string {
	if err == nil {
		return ""
	}
	errs := multierr.Errors(err)
	if len(errs) > 5 {
		return multierr.Combine(errs[:5]...).Error() + "; ..."
	}
	return err.Error()
}

// signUpErr maps identity provider failures onto the error taxonomy.
func signUpErr(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return appErrors.Clone(appErrors.ErrDuplicate, "email is already registered")
	case errors.Is(err, identity.ErrWeakPassword):
		return appErrors.Validation(err, "password must have at least 6 characters")
	default:
		return appErrors.Backend(err, "failed to create account")
	}
}

// matchesSearch reports whether any field contains search, ignoring case and spacing.
func matchesSearch(search string, fields ...string) bool {
	needle := foldName(search)
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(foldName(f), needle) {
			return true
		}
	}
	return false
}
