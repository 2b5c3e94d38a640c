package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/config"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type memoryCacheRepo struct {
	items       map[string]interface{}
	invalidated []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.Subject:
		*d = append([]models.Subject(nil), value.([]models.Subject)...)
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.items == nil {
		m.items = map[string]interface{}{}
	}
	m.items[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.items = nil
	return nil
}

func newSubjectService(matching string) (*SubjectService, *repository.SubjectRepository, *memoryCacheRepo) {
	repo := repository.NewSubjectRepository(docstore.NewMemory())
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return NewSubjectService(repo, cache, nil, nil, SubjectConfig{NameMatching: matching}), repo, cacheRepo
}

func TestSubjectServiceCreateTrimsAndRejectsDuplicates(t *testing.T) {
	svc, _, _ := newSubjectService(config.SubjectMatchCaseInsensitive)
	ctx := context.Background()

	subject, err := svc.Create(ctx, adminSession, models.SubjectRequest{Name: "  Matemáticas "})
	require.NoError(t, err)
	assert.Equal(t, "Matemáticas", subject.Name)

	_, err = svc.Create(ctx, adminSession, models.SubjectRequest{Name: "matemáticas"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))

	_, err = svc.Create(ctx, adminSession, models.SubjectRequest{Name: "   "})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSubjectServiceLegacyCreateOnlyRejectsExactNames(t *testing.T) {
	svc, _, _ := newSubjectService(config.SubjectMatchLegacy)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Arte"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminSession, models.SubjectRequest{Name: "ARTE"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Arte"})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))
}

func TestSubjectServiceRenameCollisionLeavesSubjectUnchanged(t *testing.T) {
	svc, repo, _ := newSubjectService(config.SubjectMatchCaseInsensitive)
	ctx := context.Background()

	math, err := svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Matemáticas"})
	require.NoError(t, err)
	art, err := svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Arte"})
	require.NoError(t, err)

	_, err = svc.Rename(ctx, adminSession, art.ID, models.SubjectRequest{Name: "MATEMÁTICAS"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))

	stored, err := repo.FindByID(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arte", stored.Name)

	// Renaming to a different casing of its own name is allowed.
	renamed, err := svc.Rename(ctx, adminSession, math.ID, models.SubjectRequest{Name: "matemáticas"})
	require.NoError(t, err)
	assert.Equal(t, "matemáticas", renamed.Name)
}

func TestSubjectServiceRenameMissing(t *testing.T) {
	svc, _, _ := newSubjectService(config.SubjectMatchCaseInsensitive)

	_, err := svc.Rename(context.Background(), adminSession, "missing", models.SubjectRequest{Name: "Arte"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSubjectServiceListUsesCacheAndInvalidatesOnWrite(t *testing.T) {
	svc, _, cacheRepo := newSubjectService(config.SubjectMatchCaseInsensitive)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Arte"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminSession, models.SubjectRequest{Name: "Ciencias Naturales"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, cacheRepo.items, cacheKeySubjects)

	filtered, err := svc.List(ctx, "natur")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Ciencias Naturales", filtered[0].Name)

	require.NoError(t, svc.Delete(ctx, adminSession, filtered[0].ID))
	assert.Contains(t, cacheRepo.invalidated, cachePatternCatalogue)

	all, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubjectServiceRequiresAdmin(t *testing.T) {
	svc, _, _ := newSubjectService(config.SubjectMatchCaseInsensitive)

	_, err := svc.Create(context.Background(), teacherSession, models.SubjectRequest{Name: "Arte"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}
