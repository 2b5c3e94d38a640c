package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type attendanceRepository interface {
	Save(ctx context.Context, rec models.AttendanceRecord) error
	ListForDay(ctx context.Context, grade string, section models.Section, subjectID, date string) ([]models.AttendanceRecord, error)
	ListForStudentRange(ctx context.Context, studentID, from, to string) ([]models.AttendanceRecord, error)
}

// AttendanceService keeps daily attendance sheets per grade section and subject.
type AttendanceService struct {
	repo        attendanceRepository
	students    studentReader
	subjects    subjectFinder
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	concurrency int
}

// NewAttendanceService constructs an AttendanceService. concurrency bounds the writes of a save.
func NewAttendanceService(repo attendanceRepository, students studentReader, subjects subjectFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, concurrency int) *AttendanceService {
	validate, logger = defaults(validate, logger)
	if concurrency <= 0 {
		concurrency = defaultFanoutConcurrency
	}
	return &AttendanceService{
		repo:        repo,
		students:    students,
		subjects:    subjects,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		concurrency: concurrency,
	}
}

// DailySheet returns the section roster with the day's recorded states. Students without
// a record default to present.
func (s *AttendanceService) DailySheet(ctx context.Context, session models.Session, q models.AttendanceSheetQuery) (*models.AttendanceSheet, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	q.Grade, q.SubjectID = strings.TrimSpace(q.Grade), strings.TrimSpace(q.SubjectID)
	if err := s.validator.Struct(q); err != nil {
		return nil, invalid(err, "grade, section, subject and date are required")
	}

	roster, err := s.students.List(ctx, models.StudentFilter{Grade: q.Grade, Section: q.Section})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load roster")
	}
	records, err := s.repo.ListForDay(ctx, q.Grade, q.Section, q.SubjectID, q.Date)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load attendance")
	}
	states := make(map[string]string, len(records))
	for _, rec := range records {
		states[rec.StudentID] = rec.State
	}

	sheet := &models.AttendanceSheet{
		Grade:       q.Grade,
		Section:     q.Section,
		SubjectID:   q.SubjectID,
		SubjectName: s.subjectName(ctx, q.SubjectID),
		Date:        q.Date,
		Rows:        make([]models.AttendanceSheetRow, 0, len(roster)),
	}
	for _, st := range roster {
		row := models.AttendanceSheetRow{StudentID: st.ID, StudentName: st.Name, State: models.AttendancePresent}
		if state, ok := states[st.ID]; ok {
			row.State, row.Recorded = state, true
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func (s *AttendanceService) subjectName(ctx context.Context, subjectID string) string {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return ""
	}
	return subject.Name
}

// SaveDailySheet upserts one record per roster student. Students missing from Entries are
// stored as "Sin seleccionar".
func (s *AttendanceService) SaveDailySheet(ctx context.Context, session models.Session, req models.SaveAttendanceRequest) (*models.WriteReport, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	req.Grade, req.SubjectID = strings.TrimSpace(req.Grade), strings.TrimSpace(req.SubjectID)
	req.SubjectName = strings.TrimSpace(req.SubjectName)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "grade, section, subject and date are required")
	}
	var bad []string
	for studentID, state := range req.Entries {
		if !models.ValidAttendanceState(state) && state != models.AttendanceUnselected {
			bad = append(bad, fmt.Sprintf("%s: %q", studentID, state))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown attendance state"), bad)
	}

	roster, err := s.students.List(ctx, models.StudentFilter{Grade: req.Grade, Section: req.Section})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load roster")
	}
	if req.SubjectName == "" {
		req.SubjectName = s.subjectName(ctx, req.SubjectID)
	}

	report := fanout(ctx, s.concurrency, roster, studentID, func(ctx context.Context, st models.Student) error {
		state, ok := req.Entries[st.ID]
		if !ok {
			state = models.AttendanceUnselected
		}
		return s.repo.Save(ctx, models.AttendanceRecord{
			StudentID:   st.ID,
			StudentName: st.Name,
			Grade:       req.Grade,
			Section:     req.Section,
			Date:        req.Date,
			State:       state,
			SubjectID:   req.SubjectID,
			SubjectName: req.SubjectName,
		})
	})
	s.metrics.RecordFanout("save_attendance", report.Written, report.Failed)
	if report.Failed > 0 {
		s.logger.Warn("attendance save incomplete", zap.String("date", req.Date), zap.String("diagnostic", report.Diagnostic))
	}
	return &report, nil
}

// StudentAttendance returns a student's records for one month, newest first, with totals
// per state. Parent portal sessions always read their own student.
func (s *AttendanceService) StudentAttendance(ctx context.Context, session models.Session, studentID string, year, month int, subjectName string) (*models.AttendanceSummary, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher, models.RoleStudent); err != nil {
		return nil, err
	}
	if session.Role == models.RoleStudent {
		studentID = session.AccountID
	}
	if studentID == "" || month < 1 || month > 12 || year < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student, year and month are required")
	}
	from := fmt.Sprintf("%04d-%02d-01", year, month)
	next, nextYear := month+1, year
	if next > 12 {
		next, nextYear = 1, year+1
	}
	to := fmt.Sprintf("%04d-%02d-01", nextYear, next)

	records, err := s.repo.ListForStudentRange(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load attendance")
	}
	want := foldName(subjectName)
	summary := &models.AttendanceSummary{Records: make([]models.AttendanceRecord, 0, len(records)), Totals: map[string]int{}}
	for _, rec := range records {
		if want != "" && foldName(rec.SubjectName) != want {
			continue
		}
		summary.Records = append(summary.Records, rec)
		summary.Totals[rec.State]++
	}
	sort.SliceStable(summary.Records, func(i, j int) bool {
		if summary.Records[i].Date != summary.Records[j].Date {
			return summary.Records[i].Date > summary.Records[j].Date
		}
		return summary.Records[i].SubjectName < summary.Records[j].SubjectName
	})
	return summary, nil
}
