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

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type assignmentFixture struct {
	tasks    *repository.AssignmentRepository
	students *repository.StudentRepository
	subjects *repository.SubjectRepository
	course   *models.Course
	service  *AssignmentService
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	f := &assignmentFixture{
		tasks:    repository.NewAssignmentRepository(store),
		students: repository.NewStudentRepository(store),
		subjects: repository.NewSubjectRepository(store),
	}
	courses := repository.NewCourseRepository(store)
	f.course = &models.Course{Grade: "3ro básica", Section: models.SectionA, SubjectID: "math", TeacherID: "t1", CreatedAt: time.Now().UTC()}
	require.NoError(t, courses.Create(ctx, f.course))

	f.service = NewAssignmentService(f.tasks, courses, f.students, f.subjects, nil, nil, nil, AssignmentConfig{FanoutConcurrency: 2, DueSoonDays: 2})
	return f
}

func (f *assignmentFixture) enroll(t *testing.T, id, name, courseID string, section models.Section) {
	t.Helper()
	require.NoError(t, f.students.Save(context.Background(), &models.Student{
		ID: id, Name: name, Grade: "3ro básica", Section: section, CourseID: courseID, ParentID: "p1",
	}))
}

func assignmentReq() models.CreateAssignmentRequest {
	return models.CreateAssignmentRequest{
		Title:       "Tablas de multiplicar",
		Description: "Practicar la tabla del 7",
		DueDate:     "2024-05-12",
		SubjectID:   "math",
		SubjectName: "Matemáticas",
		Grade:       "3ro básica",
		Section:     models.SectionA,
	}
}

func TestAssignmentServiceCreateFansOutToSectionRoster(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)
	f.enroll(t, "s2", "Luis", f.course.ID, models.SectionA)
	f.enroll(t, "s3", "Marta", f.course.ID, models.SectionA)
	f.enroll(t, "s4", "Pedro", f.course.ID, models.SectionB)
	f.enroll(t, "s5", "Sara", "other-course", models.SectionA)

	result, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)
	assert.Equal(t, models.WriteReport{Expected: 3, Written: 3}, result.Statuses)
	assert.Equal(t, "t1", result.Assignment.CreatedBy)
	assert.Equal(t, models.AssignmentStatusActive, result.Assignment.Status)

	statuses, err := f.tasks.ListStatuses(ctx, f.course.ID, result.Assignment.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, st := range statuses {
		assert.Nil(t, st.Fulfilled)
		assert.Empty(t, st.Grade)
		assert.NotEmpty(t, st.StudentName)
	}
}

func TestAssignmentServiceCreateFillsSubjectName(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	req := assignmentReq()
	req.SubjectName = "  "
	result, err := f.service.Create(ctx, teacherSession, f.course.ID, req)
	require.NoError(t, err)
	assert.Equal(t, unnamedSubject, result.Assignment.SubjectName)

	subject := &models.Subject{Name: "Lengua"}
	require.NoError(t, f.subjects.Create(ctx, subject))
	req.SubjectID = subject.ID
	result, err = f.service.Create(ctx, teacherSession, f.course.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Lengua", result.Assignment.SubjectName)
}

func TestAssignmentServiceCreateValidation(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	req := assignmentReq()
	req.Title = "   "
	_, err := f.service.Create(ctx, teacherSession, f.course.ID, req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	req = assignmentReq()
	req.DueDate = "12/05/2024"
	_, err = f.service.Create(ctx, teacherSession, f.course.ID, req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.service.Create(ctx, models.Session{AccountID: "t9", Role: models.RoleTeacher}, f.course.ID, assignmentReq())
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.service.Create(ctx, teacherSession, "missing", assignmentReq())
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type flakyStatusRepo struct {
	*repository.AssignmentRepository
	failFor map[string]bool
	calls   int32
}

func (r *flakyStatusRepo) InitStatus(ctx context.Context, courseID, taskID, studentID, studentName string) error {
	atomic.AddInt32(&r.calls, 1)
	if r.failFor[studentID] {
		return errors.New("unavailable")
	}
	return r.AssignmentRepository.InitStatus(ctx, courseID, taskID, studentID, studentName)
}

func TestAssignmentServiceCreateReportsPartialFanout(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	f := newAssignmentFixture(t)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		f.enroll(t, id, "Estudiante "+id, f.course.ID, models.SectionA)
	}
	repo := &flakyStatusRepo{AssignmentRepository: f.tasks, failFor: map[string]bool{"s2": true, "s4": true}}
	svc := NewAssignmentService(repo, f.service.courses, f.students, f.subjects, NewMetricsService(), nil, nil, AssignmentConfig{FanoutConcurrency: 3})

	result, err := svc.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&repo.calls))
	assert.Equal(t, 4, result.Statuses.Expected)
	assert.Equal(t, 2, result.Statuses.Written)
	assert.Equal(t, 2, result.Statuses.Failed)
	assert.Equal(t, []string{"s2", "s4"}, result.Statuses.FailedIDs)
	assert.Contains(t, result.Statuses.Diagnostic, "unavailable")

	_, err = f.tasks.FindByID(ctx, f.course.ID, result.Assignment.ID)
	assert.NoError(t, err)
}

func TestAssignmentServiceUpdateKeepsGrading(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	created, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)
	taskID := created.Assignment.ID

	done := true
	_, err = f.service.Grade(ctx, teacherSession, f.course.ID, taskID, models.GradeAssignmentRequest{
		Entries: []models.GradeEntry{{StudentID: "s1", StudentName: "Ana", Fulfilled: &done, Note: "9/10"}},
	})
	require.NoError(t, err)

	f.enroll(t, "s1", "Ana María", f.course.ID, models.SectionA)
	f.enroll(t, "s2", "Luis", f.course.ID, models.SectionB)

	title := "  Tablas del 7 y 8 "
	updated, err := f.service.Update(ctx, teacherSession, f.course.ID, taskID, models.UpdateAssignmentRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Tablas del 7 y 8", updated.Assignment.Title)
	assert.Equal(t, 2, updated.Statuses.Written)

	graded, err := f.tasks.FindStatus(ctx, f.course.ID, taskID, "s1")
	require.NoError(t, err)
	require.NotNil(t, graded.Fulfilled)
	assert.True(t, *graded.Fulfilled)
	assert.Equal(t, "9/10", graded.Grade)
	assert.Equal(t, "Ana María", graded.StudentName)

	backfilled, err := f.tasks.FindStatus(ctx, f.course.ID, taskID, "s2")
	require.NoError(t, err)
	assert.Equal(t, "Luis", backfilled.StudentName)
}

func TestAssignmentServiceUpdateMissingTask(t *testing.T) {
	f := newAssignmentFixture(t)
	title := "Nuevo"

	_, err := f.service.Update(context.Background(), teacherSession, f.course.ID, "missing", models.UpdateAssignmentRequest{Title: &title})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAssignmentServiceGradeStoresPendingForBlankNotes(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	created, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)

	missed := false
	report, err := f.service.Grade(ctx, teacherSession, f.course.ID, created.Assignment.ID, models.GradeAssignmentRequest{
		Entries: []models.GradeEntry{{StudentID: "s1", Fulfilled: &missed, Note: "  "}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)

	status, err := f.tasks.FindStatus(ctx, f.course.ID, created.Assignment.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.PendingGrade, status.Grade)
	assert.Equal(t, "Ana", status.StudentName)
	require.NotNil(t, status.Fulfilled)
	assert.False(t, *status.Fulfilled)
}

func TestAssignmentServiceGradeSkipsStudentsOutsideRoster(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	created, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)

	done := true
	report, err := f.service.Grade(ctx, teacherSession, f.course.ID, created.Assignment.ID, models.GradeAssignmentRequest{
		Entries: []models.GradeEntry{
			{StudentID: "s1", Fulfilled: &done, Note: "10"},
			{StudentID: "intruder", Fulfilled: &done, Note: "10"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expected)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"intruder"}, report.FailedIDs)
	assert.Contains(t, report.Diagnostic, "not enrolled")

	_, err = f.tasks.FindStatus(ctx, f.course.ID, created.Assignment.ID, "intruder")
	assert.True(t, repository.IsNotFound(err))

	statuses, err := f.tasks.ListStatuses(ctx, f.course.ID, created.Assignment.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "s1", statuses[0].StudentID)
}

type brokenRoster struct {
	*repository.StudentRepository
}

func (brokenRoster) List(context.Context, models.StudentFilter) ([]models.Student, error) {
	return nil, errors.New("backend unavailable")
}

func TestAssignmentServiceGradeFailsWhenRosterUnavailable(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	created, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)

	svc := NewAssignmentService(f.tasks, f.service.courses, brokenRoster{f.students}, f.subjects, nil, nil, nil, AssignmentConfig{})
	done := true
	_, err = svc.Grade(ctx, teacherSession, f.course.ID, created.Assignment.ID, models.GradeAssignmentRequest{
		Entries: []models.GradeEntry{{StudentID: "s1", Fulfilled: &done, Note: "10"}},
	})
	assert.True(t, errors.Is(err, appErrors.ErrBackend))

	status, err := f.tasks.FindStatus(ctx, f.course.ID, created.Assignment.ID, "s1")
	require.NoError(t, err)
	assert.Nil(t, status.Fulfilled)
}

func TestNewAssignmentServiceDefaultsDueSoonWindow(t *testing.T) {
	svc := NewAssignmentService(nil, nil, nil, nil, nil, nil, nil, AssignmentConfig{})
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	class, days, err := svc.Classify("2024-05-12", now)
	require.NoError(t, err)
	assert.Equal(t, models.ClassDueSoon, class)
	assert.Equal(t, 2, days)

	class, _, err = svc.Classify("2024-05-13", now)
	require.NoError(t, err)
	assert.Equal(t, models.ClassOnTrack, class)
}

func TestClassifyDueDateBoundaries(t *testing.T) {
	now := time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC)

	cases := []struct {
		due  string
		want models.Classification
		days int
	}{
		{"2024-05-09", models.ClassOverdue, -1},
		{"2024-05-10", models.ClassDueSoon, 0},
		{"2024-05-12", models.ClassDueSoon, 2},
		{"2024-05-13", models.ClassOnTrack, 3},
	}
	for _, tc := range cases {
		got, days, err := ClassifyDueDate(tc.due, now, 2)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.due)
		assert.Equal(t, tc.days, days, tc.due)
	}

	_, _, err := ClassifyDueDate("mañana", now, 2)
	assert.Error(t, err)
}

func TestAssignmentServiceListSortsByDueDate(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	for _, due := range []string{"2024-06-01", "2024-05-01", "2024-05-11"} {
		req := assignmentReq()
		req.DueDate = due
		_, err := f.service.Create(ctx, teacherSession, f.course.ID, req)
		require.NoError(t, err)
	}

	list, err := f.service.List(ctx, teacherSession, f.course.ID, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-05-01", list[0].DueDate)
	assert.Equal(t, models.ClassOverdue, list[0].Classification)
	assert.Equal(t, models.ClassDueSoon, list[1].Classification)
	assert.Equal(t, models.ClassOnTrack, list[2].Classification)
}

func TestAssignmentServiceStatusBoardDefaultsMissingStatuses(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	created, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)
	f.enroll(t, "s2", "Luis", f.course.ID, models.SectionA)

	rows, err := f.service.StatusBoard(ctx, teacherSession, f.course.ID, created.Assignment.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byID := map[string]models.StatusBoardRow{}
	for _, r := range rows {
		byID[r.StudentID] = r
	}
	assert.True(t, byID["s1"].HasStatus)
	assert.False(t, byID["s2"].HasStatus)
	assert.False(t, byID["s2"].Fulfilled)
	assert.Empty(t, byID["s2"].Grade)
}

func TestAssignmentServiceStudentAssignmentsFilters(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	f.enroll(t, "s1", "Ana", f.course.ID, models.SectionA)

	first, err := f.service.Create(ctx, teacherSession, f.course.ID, assignmentReq())
	require.NoError(t, err)
	second := assignmentReq()
	second.DueDate = "2024-05-20"
	_, err = f.service.Create(ctx, teacherSession, f.course.ID, second)
	require.NoError(t, err)
	other := assignmentReq()
	other.SubjectName = "Arte"
	_, err = f.service.Create(ctx, teacherSession, f.course.ID, other)
	require.NoError(t, err)

	done := true
	_, err = f.service.Grade(ctx, teacherSession, f.course.ID, first.Assignment.ID, models.GradeAssignmentRequest{
		Entries: []models.GradeEntry{{StudentID: "s1", Fulfilled: &done, Note: "10"}},
	})
	require.NoError(t, err)

	session := models.Session{AccountID: "s1", Role: models.RoleStudent}
	all, err := f.service.StudentAssignments(ctx, session, "  matemáticas ", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fulfilled, err := f.service.StudentAssignments(ctx, session, "Matemáticas", models.StudentFilterFulfilled)
	require.NoError(t, err)
	require.Len(t, fulfilled, 1)
	assert.Equal(t, "10", fulfilled[0].Grade)

	pending, err := f.service.StudentAssignments(ctx, session, "Matemáticas", models.StudentFilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2024-05-20", pending[0].DueDate)

	_, err = f.service.StudentAssignments(ctx, session, "Matemáticas", "late")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
