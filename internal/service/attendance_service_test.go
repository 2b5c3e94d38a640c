package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

func newAttendanceService(t *testing.T) (*AttendanceService, *repository.AttendanceRepository) {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	students := repository.NewStudentRepository(store)
	subjects := repository.NewSubjectRepository(store)
	for _, st := range []models.Student{
		{ID: "s1", Name: "Ana", Grade: "2do básica", Section: models.SectionA},
		{ID: "s2", Name: "Luis", Grade: "2do básica", Section: models.SectionA},
		{ID: "s3", Name: "Pedro", Grade: "2do básica", Section: models.SectionB},
	} {
		st := st
		require.NoError(t, students.Save(ctx, &st))
	}
	require.NoError(t, store.Set(ctx, repository.SubjectsCollection, "math", docstore.Data{"nombre": "Matemáticas"}, false))

	attendance := repository.NewAttendanceRepository(store)
	return NewAttendanceService(attendance, students, subjects, nil, nil, nil, 2), attendance
}

func TestAttendanceServiceSaveKeysAndDefaults(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	svc, repo := newAttendanceService(t)
	ctx := context.Background()

	report, err := svc.SaveDailySheet(ctx, teacherSession, models.SaveAttendanceRequest{
		Grade: "2do básica", Section: models.SectionA, SubjectID: "math", Date: "2024-05-06",
		Entries: map[string]string{"s1": models.AttendanceLate},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expected)
	assert.Equal(t, 2, report.Written)

	records, err := repo.ListForDay(ctx, "2do básica", models.SectionA, "math", "2024-05-06")
	require.NoError(t, err)
	require.Len(t, records, 2)
	states := map[string]models.AttendanceRecord{}
	for _, r := range records {
		states[r.StudentID] = r
	}
	assert.Equal(t, models.AttendanceLate, states["s1"].State)
	assert.Equal(t, models.AttendanceUnselected, states["s2"].State)
	assert.Equal(t, models.AttendanceKey("s1", "2024-05-06", "math"), states["s1"].ID)
	assert.Equal(t, "Matemáticas", states["s1"].SubjectName)

	// Saving again overwrites the same documents.
	_, err = svc.SaveDailySheet(ctx, teacherSession, models.SaveAttendanceRequest{
		Grade: "2do básica", Section: models.SectionA, SubjectID: "math", Date: "2024-05-06",
		Entries: map[string]string{"s1": models.AttendancePresent, "s2": models.AttendanceExcused},
	})
	require.NoError(t, err)
	records, err = repo.ListForDay(ctx, "2do básica", models.SectionA, "math", "2024-05-06")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAttendanceServiceRejectsUnknownStates(t *testing.T) {
	svc, repo := newAttendanceService(t)
	ctx := context.Background()

	_, err := svc.SaveDailySheet(ctx, teacherSession, models.SaveAttendanceRequest{
		Grade: "2do básica", Section: models.SectionA, SubjectID: "math", Date: "2024-05-06",
		Entries: map[string]string{"s1": "Vacaciones"},
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	records, err := repo.ListForDay(ctx, "2do básica", models.SectionA, "math", "2024-05-06")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAttendanceServiceDailySheetDefaultsToPresent(t *testing.T) {
	svc, repo := newAttendanceService(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.AttendanceRecord{
		StudentID: "s2", Grade: "2do básica", Section: models.SectionA, Date: "2024-05-06", State: models.AttendanceUnexcused, SubjectID: "math",
	}))

	sheet, err := svc.DailySheet(ctx, teacherSession, models.AttendanceSheetQuery{Grade: "2do básica", Section: models.SectionA, SubjectID: "math", Date: "2024-05-06"})
	require.NoError(t, err)
	assert.Equal(t, "Matemáticas", sheet.SubjectName)
	require.Len(t, sheet.Rows, 2)
	rows := map[string]models.AttendanceSheetRow{}
	for _, r := range sheet.Rows {
		rows[r.StudentID] = r
	}
	assert.Equal(t, models.AttendancePresent, rows["s1"].State)
	assert.False(t, rows["s1"].Recorded)
	assert.Equal(t, models.AttendanceUnexcused, rows["s2"].State)
	assert.True(t, rows["s2"].Recorded)
}

func TestAttendanceServiceStudentMonth(t *testing.T) {
	svc, repo := newAttendanceService(t)
	ctx := context.Background()

	for _, rec := range []models.AttendanceRecord{
		{StudentID: "s1", Date: "2024-04-30", State: models.AttendancePresent, SubjectID: "math", SubjectName: "Matemáticas"},
		{StudentID: "s1", Date: "2024-05-02", State: models.AttendanceLate, SubjectID: "math", SubjectName: "Matemáticas"},
		{StudentID: "s1", Date: "2024-05-20", State: models.AttendancePresent, SubjectID: "math", SubjectName: "Matemáticas"},
		{StudentID: "s1", Date: "2024-05-21", State: models.AttendancePresent, SubjectID: "art", SubjectName: "Arte"},
		{StudentID: "s1", Date: "2024-06-01", State: models.AttendancePresent, SubjectID: "math", SubjectName: "Matemáticas"},
		{StudentID: "s2", Date: "2024-05-03", State: models.AttendancePresent, SubjectID: "math", SubjectName: "Matemáticas"},
	} {
		require.NoError(t, repo.Save(ctx, rec))
	}

	// Parent sessions are pinned to their own student whatever id is asked for.
	summary, err := svc.StudentAttendance(ctx, models.Session{AccountID: "s1", Role: models.RoleStudent}, "s2", 2024, 5, " matemáticas")
	require.NoError(t, err)
	require.Len(t, summary.Records, 2)
	assert.Equal(t, "2024-05-20", summary.Records[0].Date)
	assert.Equal(t, "2024-05-02", summary.Records[1].Date)
	assert.Equal(t, map[string]int{models.AttendancePresent: 1, models.AttendanceLate: 1}, summary.Totals)

	december, err := svc.StudentAttendance(ctx, adminSession, "s1", 2024, 12, "")
	require.NoError(t, err)
	assert.Empty(t, december.Records)

	_, err = svc.StudentAttendance(ctx, adminSession, "s1", 2024, 13, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
