package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/config"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
	FindByName(ctx context.Context, name string) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// SubjectConfig tunes name collision checks.
type SubjectConfig struct {
	// NameMatching is config.SubjectMatchCaseInsensitive (default) or config.SubjectMatchLegacy,
	// where creation only rejects exact matches.
	NameMatching string
}

// SubjectService guards subject name uniqueness.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubjectConfig
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg SubjectConfig) *SubjectService {
	validate, logger = defaults(validate, logger)
	if cfg.NameMatching != config.SubjectMatchLegacy {
		cfg.NameMatching = config.SubjectMatchCaseInsensitive
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Create inserts a subject after trimming its name.
func (s *SubjectService) Create(ctx context.Context, session models.Session, req models.SubjectRequest) (*models.Subject, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "subject name is required")
	}

	taken, err := s.nameTakenOnCreate(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a subject named "+req.Name+" already exists")
	}

	subject := &models.Subject{Name: req.Name}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Backend(err, "failed to create subject")
	}
	s.cache.Invalidate(ctx, cachePatternCatalogue)
	return subject, nil
}

func (s *SubjectService) nameTakenOnCreate(ctx context.Context, name string) (bool, error) {
	if s.cfg.NameMatching == config.SubjectMatchLegacy {
		matches, err := s.repo.FindByName(ctx, name)
		if err != nil {
			return false, appErrors.Backend(err, "failed to check subject name")
		}
		return len(matches) > 0, nil
	}
	return s.nameTaken(ctx, name, "")
}

// nameTaken scans every subject case-insensitively, ignoring excludeID.
func (s *SubjectService) nameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return false, appErrors.Backend(err, "failed to check subject name")
	}
	for _, sub := range subjects {
		if sub.ID != excludeID && strings.EqualFold(strings.TrimSpace(sub.Name), name) {
			return true, nil
		}
	}
	return false, nil
}

// Rename changes a subject's name. Students keep their old snapshot of the name.
func (s *SubjectService) Rename(ctx context.Context, session models.Session, id string, req models.SubjectRequest) (*models.Subject, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "subject name is required")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "subject")
	}

	taken, err := s.nameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a subject named "+req.Name+" already exists")
	}

	if err := s.repo.Rename(ctx, id, req.Name); err != nil {
		return nil, appErrors.Backend(err, "failed to rename subject")
	}
	subject.Name = req.Name
	s.cache.Invalidate(ctx, cachePatternCatalogue)
	return subject, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "subject")
	}
	return subject, nil
}

// List returns subjects whose name contains search, ignoring case.
func (s *SubjectService) List(ctx context.Context, search string) ([]models.Subject, error) {
	subjects, err := remember(ctx, s.cache, cacheKeySubjects, func() ([]models.Subject, error) {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, appErrors.Backend(err, "failed to list subjects")
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return subjects, nil
	}
	filtered := make([]models.Subject, 0, len(subjects))
	for _, sub := range subjects {
		if strings.Contains(strings.ToLower(sub.Name), needle) {
			filtered = append(filtered, sub)
		}
	}
	return filtered, nil
}

// Delete removes the subject; courses and students referencing it are not touched.
func (s *SubjectService) Delete(ctx context.Context, session models.Session, id string) error {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupErr(err, "subject")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Backend(err, "failed to delete subject")
	}
	s.cache.Invalidate(ctx, cachePatternCatalogue)
	return nil
}
