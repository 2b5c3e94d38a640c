package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/identity"
)

type enrollmentFixture struct {
	courses  *CourseService
	students *repository.StudentRepository
	parent   *models.Parent
	math     *models.Subject
	art      *models.Subject
	service  *StudentService
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	subjects := repository.NewSubjectRepository(store)
	parents := repository.NewParentRepository(store)

	f := &enrollmentFixture{
		students: repository.NewStudentRepository(store),
		math:     &models.Subject{Name: "Matemáticas"},
		art:      &models.Subject{Name: "Arte"},
		parent:   &models.Parent{Name: "Rosa Pinto", NationalID: "0102030405"},
	}
	require.NoError(t, subjects.Create(ctx, f.math))
	require.NoError(t, subjects.Create(ctx, f.art))
	require.NoError(t, parents.Create(ctx, f.parent))

	f.courses = NewCourseService(repository.NewCourseRepository(store), subjects, repository.NewTeacherRepository(store), nil, nil, nil, nil, CourseConfig{})
	f.service = NewStudentService(f.students, f.courses, parents, identity.NewLocal(store, bcrypt.MinCost), nil, nil)
	return f
}

func (f *enrollmentFixture) addCourse(t *testing.T, subjectID, teacherID string, sections ...models.Section) {
	t.Helper()
	_, err := f.courses.Create(context.Background(), adminSession, models.CreateCourseRequest{
		Grade: "1ro básica", SubjectID: subjectID, TeacherID: teacherID, Sections: sections,
	})
	require.NoError(t, err)
}

func (f *enrollmentFixture) studentReq(email string, subjectIDs ...string) models.CreateStudentRequest {
	return models.CreateStudentRequest{
		Name:       "Ana Torres",
		NationalID: "0911111111",
		Email:      email,
		Password:   "secreto1",
		Grade:      "1ro básica",
		Section:    models.SectionA,
		SubjectIDs: subjectIDs,
		ParentID:   f.parent.ID,
	}
}

func TestStudentServiceCreateWithUniqueCourse(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.addCourse(t, f.math.ID, "t1", models.SectionA, models.SectionB)

	student, err := f.service.Create(context.Background(), adminSession, f.studentReq("ana@escuela.test", f.math.ID, f.math.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NotEmpty(t, student.CourseID)
	assert.Equal(t, []models.SubjectRef{{ID: f.math.ID, Name: "Matemáticas"}}, student.Subjects)

	stored, err := f.students.FindByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.CourseID, stored.CourseID)
	assert.Equal(t, f.parent.ID, stored.ParentID)
}

func TestStudentServiceCreateAmbiguousCourseNeedsChoice(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	f.addCourse(t, f.math.ID, "t1", models.SectionA)
	f.addCourse(t, f.art.ID, "t2", models.SectionA)

	_, err := f.service.Create(ctx, adminSession, f.studentReq("ana@escuela.test", f.math.ID, f.art.ID))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	candidates, ok := appErr.Details.([]string)
	require.True(t, ok)
	assert.Len(t, candidates, 2)

	req := f.studentReq("ana@escuela.test", f.math.ID, f.art.ID)
	req.CourseID = candidates[1]
	student, err := f.service.Create(ctx, adminSession, req)
	require.NoError(t, err)
	assert.Equal(t, candidates[1], student.CourseID)
}

func TestStudentServiceCreateRejectsMissingCourse(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.addCourse(t, f.math.ID, "t1", models.SectionB)

	_, err := f.service.Create(context.Background(), adminSession, f.studentReq("ana@escuela.test", f.math.ID))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceCreateRejectsSubjectsOutsideGrade(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.addCourse(t, f.math.ID, "t1", models.SectionA)

	_, err := f.service.Create(context.Background(), adminSession, f.studentReq("ana@escuela.test", f.math.ID, f.art.ID))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{f.art.ID}, appErr.Details)
}

func TestStudentServiceCreateRequiresExistingParent(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.addCourse(t, f.math.ID, "t1", models.SectionA)

	req := f.studentReq("ana@escuela.test", f.math.ID)
	req.ParentID = "ghost"
	_, err := f.service.Create(context.Background(), adminSession, req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	f.addCourse(t, f.math.ID, "t1", models.SectionA)

	_, err := f.service.Create(ctx, adminSession, f.studentReq("ana@escuela.test", f.math.ID))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, adminSession, f.studentReq("ANA@escuela.test", f.math.ID))
	assert.True(t, errors.Is(err, appErrors.ErrDuplicate))
}

func TestStudentServiceUpdateMovesSection(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	f.addCourse(t, f.math.ID, "t1", models.SectionA, models.SectionB)

	student, err := f.service.Create(ctx, adminSession, f.studentReq("ana@escuela.test", f.math.ID))
	require.NoError(t, err)

	updated, err := f.service.Update(ctx, adminSession, student.ID, models.UpdateStudentRequest{
		Name: "Ana Torres", NationalID: "0911111111", Email: "ana@escuela.test",
		Grade: "1ro básica", Section: models.SectionB, SubjectIDs: []string{f.math.ID}, ParentID: f.parent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SectionB, updated.Section)
	assert.NotEqual(t, student.CourseID, updated.CourseID)

	_, err = f.service.Update(ctx, adminSession, "ghost", models.UpdateStudentRequest{
		Name: "X", NationalID: "1", Email: "x@escuela.test", Grade: "1ro básica", Section: models.SectionB,
		SubjectIDs: []string{f.math.ID}, ParentID: f.parent.ID,
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceReadScopes(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	f.addCourse(t, f.math.ID, "t1", models.SectionA)

	ana, err := f.service.Create(ctx, adminSession, f.studentReq("ana@escuela.test", f.math.ID))
	require.NoError(t, err)
	req := f.studentReq("luis@escuela.test", f.math.ID)
	req.Name, req.NationalID = "Luis Vera", "0922222222"
	_, err = f.service.Create(ctx, adminSession, req)
	require.NoError(t, err)

	own, err := f.service.Get(ctx, models.Session{AccountID: ana.ID, Role: models.RoleStudent}, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", own.Name)

	_, err = f.service.Get(ctx, models.Session{AccountID: "other", Role: models.RoleStudent}, ana.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	found, err := f.service.List(ctx, teacherSession, models.StudentFilter{Search: "  vera"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Luis Vera", found[0].Name)

	roster, err := f.service.Roster(ctx, teacherSession, "1ro básica", models.SectionA)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	require.NoError(t, f.service.Delete(ctx, adminSession, ana.ID))
	_, err = f.service.Get(ctx, adminSession, ana.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
