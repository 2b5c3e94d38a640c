package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/identity"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
	Save(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// TeacherService manages teacher accounts and profiles.
type TeacherService struct {
	repo      teacherRepository
	accounts  identity.Provider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, accounts identity.Provider, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	validate, logger = defaults(validate, logger)
	return &TeacherService{repo: repo, accounts: accounts, validator: validate, logger: logger}
}

// Create signs the teacher up and stores the profile under the new account id.
func (s *TeacherService) Create(ctx context.Context, session models.Session, req models.CreateTeacherRequest) (*models.Teacher, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name, req.NationalID, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.NationalID), strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	id, err := s.accounts.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, signUpErr(err)
	}
	teacher := &models.Teacher{ID: id, Name: req.Name, NationalID: req.NationalID, Email: req.Email}
	if err := s.repo.Save(ctx, teacher); err != nil {
		s.logger.Error("teacher profile write failed after sign-up", zap.String("teacher_id", id), zap.Error(err))
		return nil, appErrors.Backend(err, "failed to save teacher")
	}
	s.logger.Info("teacher registered", zap.String("account_id", session.AccountID), zap.String("teacher_id", id))
	return teacher, nil
}

// Update edits the profile fields.
func (s *TeacherService) Update(ctx context.Context, session models.Session, id string, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name, req.NationalID, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.NationalID), strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	teacher := &models.Teacher{ID: id, Name: req.Name, NationalID: req.NationalID, Email: req.Email}
	if err := s.repo.Update(ctx, teacher); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Backend(err, "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes the profile. Courses taught by the teacher are kept.
func (s *TeacherService) Delete(ctx context.Context, session models.Session, id string) error {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupErr(err, "teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Backend(err, "failed to delete teacher")
	}
	return nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "teacher")
	}
	return teacher, nil
}

// List returns teachers whose name or national id contains search.
func (s *TeacherService) List(ctx context.Context, search string) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list teachers")
	}
	out := teachers[:0]
	for _, t := range teachers {
		if matchesSearch(search, t.Name, t.NationalID) {
			out = append(out, t)
		}
	}
	return out, nil
}
