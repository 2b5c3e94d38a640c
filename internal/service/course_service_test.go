package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/config"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

var (
	adminSession   = models.Session{AccountID: "admin-1", Role: models.RoleAdmin, Email: "admin@escuela.test"}
	teacherSession = models.Session{AccountID: "t1", Role: models.RoleTeacher, Email: "t1@escuela.test"}
	parentSession  = models.Session{AccountID: "s1", Role: models.RoleStudent, Email: "s1@escuela.test"}
)

type courseFixture struct {
	store    *docstore.Memory
	courses  *repository.CourseRepository
	subjects *repository.SubjectRepository
	teachers *repository.TeacherRepository
	service  *CourseService
}

func newCourseFixture(t *testing.T, policy string) *courseFixture {
	t.Helper()
	store := docstore.NewMemory()
	f := &courseFixture{
		store:    store,
		courses:  repository.NewCourseRepository(store),
		subjects: repository.NewSubjectRepository(store),
		teachers: repository.NewTeacherRepository(store),
	}
	f.service = NewCourseService(f.courses, f.subjects, f.teachers, nil, nil, nil, zap.NewNop(), CourseConfig{ExcludedRepresentative: policy})
	return f
}

func (f *courseFixture) sectionsOf(t *testing.T, grade, subjectID, teacherID string) map[models.Section]string {
	t.Helper()
	courses, err := f.courses.List(context.Background(), models.CourseFilter{Grade: grade, SubjectID: subjectID, TeacherID: teacherID})
	require.NoError(t, err)
	out := map[models.Section]string{}
	for _, c := range courses {
		out[c.Section] = c.ID
	}
	return out
}

func createReq(sections ...models.Section) models.CreateCourseRequest {
	return models.CreateCourseRequest{Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: sections}
}

func TestCourseServiceCreateIsIdempotent(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	first, err := f.service.Create(ctx, adminSession, createReq(models.SectionA, models.SectionB))
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.AlreadyExisted)

	second, err := f.service.Create(ctx, adminSession, createReq(models.SectionA, models.SectionB))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.AlreadyExisted)
	assert.Equal(t, 0, second.Failed)

	assert.Len(t, f.sectionsOf(t, "1ro básica", "math", "t1"), 2)
}

func TestCourseServiceCreateDropsRepeatedSections(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)

	result, err := f.service.Create(context.Background(), adminSession, createReq(models.SectionC, models.SectionC, models.SectionA))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, models.SectionA, result.Sections[0].Section)
	assert.Equal(t, models.SectionC, result.Sections[1].Section)
}

func TestCourseServiceCreateRejectsInvalidInput(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)

	_, err := f.service.Create(context.Background(), adminSession, createReq("D"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.service.Create(context.Background(), adminSession, models.CreateCourseRequest{Grade: "  ", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{"A"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.service.Create(context.Background(), teacherSession, createReq(models.SectionA))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.service.Create(context.Background(), models.Session{}, createReq(models.SectionA))
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

type flakyCourseRepo struct {
	*repository.CourseRepository
	failCreate map[models.Section]bool
	failDelete map[string]bool
}

func (r *flakyCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if r.failCreate[course.Section] {
		return errors.New("deadline exceeded")
	}
	return r.CourseRepository.Create(ctx, course)
}

func (r *flakyCourseRepo) Delete(ctx context.Context, id string) error {
	if r.failDelete[id] {
		return errors.New("unavailable")
	}
	return r.CourseRepository.Delete(ctx, id)
}

func TestCourseServiceCreateIsolatesSectionFailures(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	repo := &flakyCourseRepo{CourseRepository: f.courses, failCreate: map[models.Section]bool{models.SectionB: true}}
	metrics := NewMetricsService()
	svc := NewCourseService(repo, f.subjects, f.teachers, nil, metrics, nil, nil, CourseConfig{})

	result, err := svc.Create(context.Background(), adminSession, createReq(models.SectionA, models.SectionB, models.SectionC))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.OutcomeFailed, result.Sections[1].Outcome)
	assert.Contains(t, result.Sections[1].Error, "deadline")

	got := f.sectionsOf(t, "1ro básica", "math", "t1")
	assert.Contains(t, got, models.SectionA)
	assert.Contains(t, got, models.SectionC)
	assert.NotContains(t, got, models.SectionB)
}

func TestCourseServiceEditDiffsSections(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA, models.SectionB))
	require.NoError(t, err)
	before := f.sectionsOf(t, "1ro básica", "math", "t1")

	// Edit the B record to {B, C}: A goes away, B stays put and C is created.
	result, err := f.service.Edit(ctx, adminSession, before[models.SectionB], models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionB, models.SectionC},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.RepresentativeDeleted)
	assert.Equal(t, models.SectionB, result.OriginalSection)

	after := f.sectionsOf(t, "1ro básica", "math", "t1")
	assert.Len(t, after, 2)
	assert.NotContains(t, after, models.SectionA)
	assert.Equal(t, before[models.SectionB], after[models.SectionB])
	assert.NotEmpty(t, after[models.SectionC])

	outcomes := map[models.Section]string{}
	for _, o := range result.Sections {
		outcomes[o.Section] = o.Outcome
	}
	assert.Equal(t, models.OutcomeUpdated, outcomes[models.SectionB])
	assert.Equal(t, models.OutcomeDeleted, outcomes[models.SectionA])
	assert.Equal(t, models.OutcomeCreated, outcomes[models.SectionC])
}

func TestCourseServiceEditLeavesUntouchedPeersWithTheirAssignments(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA, models.SectionB))
	require.NoError(t, err)
	ids := f.sectionsOf(t, "1ro básica", "math", "t1")

	tasks := repository.NewAssignmentRepository(f.store)
	task := &models.Assignment{CourseID: ids[models.SectionB], Title: "Fracciones", DueDate: "2024-05-10"}
	require.NoError(t, tasks.Create(ctx, task))

	_, err = f.service.Edit(ctx, adminSession, ids[models.SectionA], models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionA, models.SectionB},
	})
	require.NoError(t, err)

	_, err = tasks.FindByID(ctx, ids[models.SectionB], task.ID)
	assert.NoError(t, err)
}

func TestCourseServiceEditExcludedRepresentativeKeep(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	ids := f.sectionsOf(t, "1ro básica", "math", "t1")

	result, err := f.service.Edit(ctx, adminSession, ids[models.SectionA], models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionB},
	})
	require.NoError(t, err)
	assert.False(t, result.RepresentativeDeleted)

	after := f.sectionsOf(t, "1ro básica", "math", "t1")
	assert.Equal(t, ids[models.SectionA], after[models.SectionA])
	assert.Contains(t, after, models.SectionB)
}

func TestCourseServiceEditExcludedRepresentativeDelete(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeDelete)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	ids := f.sectionsOf(t, "1ro básica", "math", "t1")

	result, err := f.service.Edit(ctx, adminSession, ids[models.SectionA], models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionB, models.SectionC},
	})
	require.NoError(t, err)
	assert.True(t, result.RepresentativeDeleted)
	assert.Equal(t, models.OutcomeDeleted, result.Sections[0].Outcome)

	after := f.sectionsOf(t, "1ro básica", "math", "t1")
	assert.Len(t, after, 2)
	assert.NotContains(t, after, models.SectionA)
}

func TestCourseServiceEditRetargetsInPlace(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	id := f.sectionsOf(t, "1ro básica", "math", "t1")[models.SectionA]

	result, err := f.service.Edit(ctx, adminSession, id, models.EditCourseRequest{
		Grade: "2do básica", SubjectID: "math", TeacherID: "t2", Sections: []models.Section{models.SectionA},
	})
	require.NoError(t, err)
	assert.Equal(t, "2do básica", result.Course.Grade)
	require.NotNil(t, result.Course.UpdatedAt)

	got, err := f.courses.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.TeacherID)
	assert.Empty(t, f.sectionsOf(t, "1ro básica", "math", "t1"))
}

func TestCourseServiceEditRejectsDuplicateTuple(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, adminSession, models.CreateCourseRequest{Grade: "2do básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionA}})
	require.NoError(t, err)
	id := f.sectionsOf(t, "1ro básica", "math", "t1")[models.SectionA]

	_, err = f.service.Edit(ctx, adminSession, id, models.EditCourseRequest{
		Grade: "2do básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionA},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))

	got, err := f.courses.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1ro básica", got.Grade)
}

func TestCourseServiceEditMissingCourse(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)

	_, err := f.service.Edit(context.Background(), adminSession, "missing", models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionA},
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceEditCountsPeerFailures(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA, models.SectionB))
	require.NoError(t, err)
	ids := f.sectionsOf(t, "1ro básica", "math", "t1")

	repo := &flakyCourseRepo{CourseRepository: f.courses, failDelete: map[string]bool{ids[models.SectionB]: true}}
	svc := NewCourseService(repo, f.subjects, f.teachers, nil, nil, nil, nil, CourseConfig{})

	result, err := svc.Edit(ctx, adminSession, ids[models.SectionA], models.EditCourseRequest{
		Grade: "1ro básica", SubjectID: "math", TeacherID: "t1", Sections: []models.Section{models.SectionA, models.SectionC},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, f.sectionsOf(t, "1ro básica", "math", "t1"), models.SectionC)
}

func TestCourseServiceDelete(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	id := f.sectionsOf(t, "1ro básica", "math", "t1")[models.SectionA]

	require.NoError(t, f.service.Delete(ctx, adminSession, id))
	err = f.service.Delete(ctx, adminSession, id)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceGroupedAndSubjectsForGrade(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	math := &models.Subject{Name: "Matemáticas"}
	art := &models.Subject{Name: "Arte"}
	unused := &models.Subject{Name: "Química"}
	for _, s := range []*models.Subject{math, art, unused} {
		require.NoError(t, f.subjects.Create(ctx, s))
	}
	require.NoError(t, f.teachers.Save(ctx, &models.Teacher{ID: "t1", Name: "Rosa Paz"}))

	_, err := f.service.Create(ctx, adminSession, models.CreateCourseRequest{Grade: "1ro básica", SubjectID: math.ID, TeacherID: "t1", Sections: []models.Section{"B", "A"}})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, adminSession, models.CreateCourseRequest{Grade: "1ro básica", SubjectID: art.ID, TeacherID: "t1", Sections: []models.Section{"C"}})
	require.NoError(t, err)

	groups, err := f.service.Grouped(ctx, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Arte", groups[0].SubjectName)
	assert.Equal(t, "Matemáticas", groups[1].SubjectName)
	assert.Equal(t, []models.Section{models.SectionA, models.SectionB}, groups[1].Sections)
	assert.Equal(t, "Rosa Paz", groups[1].TeacherName)

	subjects, err := f.service.SubjectsForGrade(ctx, "1ro básica")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Arte", subjects[0].Name)
	assert.Equal(t, "Matemáticas", subjects[1].Name)
}

func TestCourseServiceTeacherCoursesScopesTeachers(t *testing.T) {
	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	_, err := f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, adminSession, models.CreateCourseRequest{Grade: "1ro básica", SubjectID: "math", TeacherID: "t2", Sections: []models.Section{"B"}})
	require.NoError(t, err)

	own, err := f.service.TeacherCourses(ctx, teacherSession, "t2")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "t1", own[0].TeacherID)

	other, err := f.service.TeacherCourses(ctx, adminSession, "t2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "t2", other[0].TeacherID)

	_, err = f.service.TeacherCourses(ctx, parentSession, "")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestCourseServiceWatchTeacherCourses(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	f := newCourseFixture(t, config.RepresentativeKeep)
	ctx := context.Background()

	updates := make(chan []models.Course, 8)
	stop, err := f.service.WatchTeacherCourses(ctx, teacherSession, "", func(courses []models.Course) {
		updates <- courses
	})
	require.NoError(t, err)

	select {
	case initial := <-updates:
		assert.Empty(t, initial)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	_, err = f.service.Create(ctx, adminSession, createReq(models.SectionA))
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case courses := <-updates:
			if len(courses) == 1 {
				assert.Equal(t, models.SectionA, courses[0].Section)
				stop()
				return
			}
		case <-deadline:
			stop()
			t.Fatal("course never streamed")
		}
	}
}

func TestCourseServiceWatchLogsUndecodableSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	f := newCourseFixture(t, config.RepresentativeKeep)
	core, logs := observer.New(zap.InfoLevel)
	f.service.logger = zap.New(core)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, repository.CoursesCollection, "broken", docstore.Data{
		"grado": "1ro básica", "paralelo": "A", "asignaturaId": "math", "docenteId": "t1", "fechaCreacion": "ayer",
	}, false))

	var calls int32
	stop, err := f.service.WatchTeacherCourses(ctx, teacherSession, "", func([]models.Course) {
		atomic.AddInt32(&calls, 1)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("course snapshot dropped").Len() == 1
	}, time.Second, 10*time.Millisecond)
	stop()
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestResolveCourse(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Grade: "1ro básica", Section: models.SectionA},
		{ID: "c2", Grade: "1ro básica", Section: models.SectionB},
		{ID: "c3", Grade: "1ro básica", Section: models.SectionB},
	}

	unique := ResolveCourse(courses, "1ro básica", models.SectionA)
	assert.Equal(t, models.ResolutionUnique, unique.Kind)
	require.NotNil(t, unique.Course)
	assert.Equal(t, "c1", unique.Course.ID)

	ambiguous := ResolveCourse(courses, "1ro básica", models.SectionB)
	assert.Equal(t, models.ResolutionAmbiguous, ambiguous.Kind)
	assert.Nil(t, ambiguous.Course)
	assert.Len(t, ambiguous.Candidates, 2)

	missing := ResolveCourse(courses, "2do básica", models.SectionA)
	assert.Equal(t, models.ResolutionNotFound, missing.Kind)
	assert.Nil(t, missing.Course)
	assert.Empty(t, missing.Candidates)
}
