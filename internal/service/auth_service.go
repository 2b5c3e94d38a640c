package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/identity"
)

type accountRepository interface {
	Probe(ctx context.Context, id string) (*models.Teacher, *models.Student, *models.Account, error)
	Save(ctx context.Context, account *models.Account) error
}

// AuthConfig defines configuration for access tokens.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService signs accounts in and turns them into sessions.
type AuthService struct {
	accounts  identity.Provider
	profiles  accountRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts identity.Provider, profiles accountRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	validate, logger = defaults(validate, logger)
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{accounts: accounts, profiles: profiles, validator: validate, logger: logger, config: config, now: time.Now}
}

// SignIn authenticates the credentials, resolves the role from the profile collections
// and issues an access token.
func (s *AuthService) SignIn(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid login payload")
	}

	id, err := s.accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Backend(err, "identity provider unavailable")
	}

	session, err := s.resolveSession(ctx, id, req.Email)
	if err != nil {
		return nil, err
	}
	if req.Portal != "" && session.Role != req.Portal {
		s.logger.Info("login rejected for portal", zap.String("account_id", id), zap.String("portal", string(req.Portal)))
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this account cannot use the "+string(req.Portal)+" portal")
	}

	token, issuedAt, expiresAt, err := s.issue(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	s.logger.Info("login succeeded", zap.String("account_id", id), zap.String("role", string(session.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(expiresAt.Sub(issuedAt).Seconds()),
		Session:     session,
		IssuedAt:    issuedAt,
	}, nil
}

// resolveSession probes Docentes, then Estudiantes, then users.
func (s *AuthService) resolveSession(ctx context.Context, id, email string) (models.Session, error) {
	teacher, student, account, err := s.profiles.Probe(ctx, id)
	switch {
	case err != nil && repository.IsNotFound(err):
		return models.Session{}, appErrors.Clone(appErrors.ErrForbidden, "account has no portal profile")
	case err != nil:
		return models.Session{}, appErrors.Backend(err, "failed to load profile")
	case teacher != nil:
		return models.Session{AccountID: id, Role: models.RoleTeacher, Email: email, Name: teacher.Name}, nil
	case student != nil:
		return models.Session{AccountID: id, Role: models.RoleStudent, Email: email, Name: student.Name}, nil
	case account != nil:
		switch account.Role {
		case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
			return models.Session{AccountID: id, Role: account.Role, Email: email, Name: account.Name}, nil
		}
		return models.Session{}, appErrors.Clone(appErrors.ErrForbidden, "account role "+string(account.Role)+" is not supported")
	default:
		return models.Session{}, appErrors.Clone(appErrors.ErrForbidden, "account has no portal profile")
	}
}

func (s *AuthService) issue(session models.Session) (string, time.Time, time.Time, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		AccountID: session.AccountID,
		Role:      session.Role,
		Email:     session.Email,
		Name:      session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.AccountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// BootstrapAdmin creates an administrator account and its users profile. An email that
// is already registered is reported as a duplicate.
func (s *AuthService) BootstrapAdmin(ctx context.Context, req models.BootstrapAdminRequest) (*models.Account, error) {
	req.Name, req.NationalID, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.NationalID), strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid administrator payload")
	}
	id, err := s.accounts.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, signUpErr(err)
	}
	account := &models.Account{ID: id, Name: req.Name, NationalID: req.NationalID, Email: req.Email, Role: models.RoleAdmin}
	if err := s.profiles.Save(ctx, account); err != nil {
		return nil, appErrors.Backend(err, "failed to save administrator")
	}
	s.logger.Info("administrator created", zap.String("account_id", id))
	return account, nil
}
