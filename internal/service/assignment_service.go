package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

const unnamedSubject = "Sin nombre"

// errNotEnrolled marks grading entries for students outside the course roster.
var errNotEnrolled = errors.New("student is not enrolled in the course")

type assignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, courseID, taskID string) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	UpdateFields(ctx context.Context, courseID, taskID string, req models.UpdateAssignmentRequest) error
	InitStatus(ctx context.Context, courseID, taskID, studentID, studentName string) error
	TouchStatus(ctx context.Context, courseID, taskID, studentID, studentName string) error
	GradeStatus(ctx context.Context, courseID, taskID string, status models.AssignmentStatus) error
	FindStatus(ctx context.Context, courseID, taskID, studentID string) (*models.AssignmentStatus, error)
	ListStatuses(ctx context.Context, courseID, taskID string) ([]models.AssignmentStatus, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// AssignmentConfig tunes the status fan-out.
type AssignmentConfig struct {
	FanoutConcurrency int
	DueSoonDays       int
}

// AssignmentService creates assignments and keeps one status record per rostered student.
type AssignmentService struct {
	repo      assignmentRepository
	courses   courseFinder
	students  studentReader
	subjects  subjectFinder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AssignmentConfig
	now       func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, courses courseFinder, students studentReader, subjects subjectFinder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AssignmentConfig) *AssignmentService {
	validate, logger = defaults(validate, logger)
	if cfg.FanoutConcurrency <= 0 {
		cfg.FanoutConcurrency = defaultFanoutConcurrency
	}
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = 2
	}
	return &AssignmentService{
		repo:      repo,
		courses:   courses,
		students:  students,
		subjects:  subjects,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// course loads courseID and checks that a teacher caller owns it.
func (s *AssignmentService) course(ctx context.Context, session models.Session, courseID string) (*models.Course, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupErr(err, "course")
	}
	if session.Role == models.RoleTeacher && course.TeacherID != session.AccountID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return course, nil
}

// Create inserts the assignment and then writes an ungraded status for every student of
// the course section. It returns once every status write has settled; the assignment is
// kept even when some of them fail.
func (s *AssignmentService) Create(ctx context.Context, session models.Session, courseID string, req models.CreateAssignmentRequest) (*models.AssignmentCreated, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Grade = strings.TrimSpace(req.Grade)
	req.SubjectName = strings.TrimSpace(req.SubjectName)
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "title, description, due date, subject, grade and section are required")
	}
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedBy:   session.AccountID,
		SubjectID:   req.SubjectID,
		SubjectName: s.subjectName(ctx, req.SubjectID, req.SubjectName),
		Grade:       req.Grade,
		Section:     req.Section,
		Status:      models.AssignmentStatusActive,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Backend(err, "failed to create assignment")
	}

	result := &models.AssignmentCreated{Assignment: assignment}
	roster, err := s.students.List(ctx, models.StudentFilter{CourseID: courseID, Section: req.Section})
	if err != nil {
		s.logger.Error("assignment roster lookup failed", zap.String("course_id", courseID), zap.String("task_id", assignment.ID), zap.Error(err))
		result.Statuses.Diagnostic = "roster unavailable: " + err.Error()
		return result, nil
	}

	result.Statuses = s.fanout(ctx, "create_assignment", roster, func(ctx context.Context, st models.Student) error {
		return s.repo.InitStatus(ctx, courseID, assignment.ID, st.ID, st.Name)
	})
	s.logger.Info("assignment created",
		zap.String("account_id", session.AccountID),
		zap.String("course_id", courseID),
		zap.String("task_id", assignment.ID),
		zap.Int("expected", result.Statuses.Expected),
		zap.Int("written", result.Statuses.Written),
		zap.Int("failed", result.Statuses.Failed),
	)
	return result, nil
}

func (s *AssignmentService) subjectName(ctx context.Context, subjectID, given string) string {
	if given != "" {
		return given
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil || strings.TrimSpace(subject.Name) == "" {
		if err != nil && !repository.IsNotFound(err) {
			s.logger.Warn("subject name lookup failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
		return unnamedSubject
	}
	return subject.Name
}

func (s *AssignmentService) fanout(ctx context.Context, operation string, roster []models.Student, write func(context.Context, models.Student) error) models.WriteReport {
	report := fanout(ctx, s.cfg.FanoutConcurrency, roster, studentID, write)
	s.metrics.RecordFanout(operation, report.Written, report.Failed)
	if report.Failed > 0 {
		s.logger.Warn("status fan-out incomplete",
			zap.String("operation", operation),
			zap.Int("failed", report.Failed),
			zap.String("diagnostic", report.Diagnostic),
		)
	}
	return report
}

// Update patches the assignment and backfills a status for every student of the course.
// Only the student name is merged, so existing grading survives.
func (s *AssignmentService) Update(ctx context.Context, session models.Session, courseID, taskID string, req models.UpdateAssignmentRequest) (*models.AssignmentUpdated, error) {
	trimPtr(req.Title)
	trimPtr(req.Description)
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid assignment payload")
	}
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, courseID, taskID, req); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Backend(err, "failed to update assignment")
	}
	assignment, err := s.repo.FindByID(ctx, courseID, taskID)
	if err != nil {
		return nil, lookupErr(err, "assignment")
	}

	result := &models.AssignmentUpdated{Assignment: assignment}
	roster, err := s.students.List(ctx, models.StudentFilter{CourseID: courseID})
	if err != nil {
		s.logger.Error("assignment roster lookup failed", zap.String("course_id", courseID), zap.String("task_id", taskID), zap.Error(err))
		result.Statuses.Diagnostic = "roster unavailable: " + err.Error()
		return result, nil
	}
	result.Statuses = s.fanout(ctx, "update_assignment", roster, func(ctx context.Context, st models.Student) error {
		return s.repo.TouchStatus(ctx, courseID, taskID, st.ID, st.Name)
	})
	return result, nil
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

// Grade overwrites the fulfilled flag and note of each entry. A blank note is stored as
// "Pendiente". Entries are written independently; students outside the course roster
// are reported as failed and never written.
func (s *AssignmentService) Grade(ctx context.Context, session models.Session, courseID, taskID string, req models.GradeAssignmentRequest) (*models.WriteReport, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "every grading entry needs a student id")
	}
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, courseID, taskID); err != nil {
		return nil, lookupErr(err, "assignment")
	}

	roster, err := s.students.List(ctx, models.StudentFilter{CourseID: courseID})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load course roster")
	}
	names := make(map[string]string, len(roster))
	for _, st := range roster {
		names[st.ID] = st.Name
	}

	report := fanout(ctx, s.cfg.FanoutConcurrency, req.Entries, func(e models.GradeEntry) string { return e.StudentID },
		func(ctx context.Context, e models.GradeEntry) error {
			if _, ok := names[e.StudentID]; !ok {
				return errNotEnrolled
			}
			status := models.AssignmentStatus{
				StudentID:   e.StudentID,
				StudentName: strings.TrimSpace(e.StudentName),
				Fulfilled:   e.Fulfilled,
				Grade:       strings.TrimSpace(e.Note),
			}
			if status.StudentName == "" {
				status.StudentName = names[e.StudentID]
			}
			if status.Grade == "" {
				status.Grade = models.PendingGrade
			}
			return s.repo.GradeStatus(ctx, courseID, taskID, status)
		})
	s.metrics.RecordFanout("grade_assignment", report.Written, report.Failed)
	if report.Failed > 0 {
		s.logger.Warn("grading incomplete", zap.String("task_id", taskID), zap.String("diagnostic", report.Diagnostic))
	}
	return &report, nil
}

// Classify buckets dueDate (YYYY-MM-DD) against the calendar day of now.
func (s *AssignmentService) Classify(dueDate string, now time.Time) (models.Classification, int, error) {
	return ClassifyDueDate(dueDate, now, s.cfg.DueSoonDays)
}

// ClassifyDueDate returns overdue for past days, dueSoon for 0..window days ahead and
// onTrack beyond, along with the day difference.
func ClassifyDueDate(dueDate string, now time.Time, window int) (models.Classification, int, error) {
	due, err := time.Parse("2006-01-02", strings.TrimSpace(dueDate))
	if err != nil {
		return "", 0, err
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return models.ClassOverdue, days, nil
	case days <= window:
		return models.ClassDueSoon, days, nil
	default:
		return models.ClassOnTrack, days, nil
	}
}

// List returns the course's assignments ordered by due date, classified against now.
func (s *AssignmentService) List(ctx context.Context, session models.Session, courseID string, now time.Time) ([]models.ClassifiedAssignment, error) {
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list assignments")
	}
	sortByDueDate(assignments)

	out := make([]models.ClassifiedAssignment, 0, len(assignments))
	for _, a := range assignments {
		class, days, err := s.Classify(a.DueDate, now)
		if err != nil {
			s.logger.Warn("assignment due date unreadable", zap.String("task_id", a.ID), zap.String("due_date", a.DueDate))
			class = models.ClassOnTrack
		}
		out = append(out, models.ClassifiedAssignment{Assignment: a, Classification: class, DaysUntilDue: days})
	}
	return out, nil
}

func sortByDueDate(assignments []models.Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].DueDate != assignments[j].DueDate {
			return assignments[i].DueDate < assignments[j].DueDate
		}
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
}

// Get returns one assignment of a course.
func (s *AssignmentService) Get(ctx context.Context, session models.Session, courseID, taskID string) (*models.Assignment, error) {
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}
	assignment, err := s.repo.FindByID(ctx, courseID, taskID)
	if err != nil {
		return nil, lookupErr(err, "assignment")
	}
	return assignment, nil
}

// StatusBoard joins the course roster with the assignment's statuses. Students without a
// status read as not fulfilled and ungraded.
func (s *AssignmentService) StatusBoard(ctx context.Context, session models.Session, courseID, taskID string) ([]models.StatusBoardRow, error) {
	if _, err := s.course(ctx, session, courseID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, courseID, taskID); err != nil {
		return nil, lookupErr(err, "assignment")
	}
	roster, err := s.students.List(ctx, models.StudentFilter{CourseID: courseID})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load roster")
	}
	statuses, err := s.repo.ListStatuses(ctx, courseID, taskID)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load statuses")
	}
	byStudent := make(map[string]models.AssignmentStatus, len(statuses))
	for _, st := range statuses {
		byStudent[st.StudentID] = st
	}

	rows := make([]models.StatusBoardRow, 0, len(roster))
	for _, student := range roster {
		row := models.StatusBoardRow{StudentID: student.ID, StudentName: student.Name}
		if st, ok := byStudent[student.ID]; ok {
			row.HasStatus = true
			row.Grade = st.Grade
			row.Fulfilled = st.Fulfilled != nil && *st.Fulfilled
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// StudentAssignments is the parent portal view: the student's course assignments whose
// subject matches subjectName, ignoring case and spacing, with the student's own status.
func (s *AssignmentService) StudentAssignments(ctx context.Context, session models.Session, subjectName, filter string) ([]models.StudentAssignment, error) {
	if err := authorize(session, models.RoleStudent); err != nil {
		return nil, err
	}
	switch filter {
	case "":
		filter = models.StudentFilterAll
	case models.StudentFilterAll, models.StudentFilterFulfilled, models.StudentFilterUnfulfilled, models.StudentFilterPending:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter must be all, fulfilled, unfulfilled or pending")
	}

	student, err := s.students.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, lookupErr(err, "student")
	}
	if student.CourseID == "" {
		return []models.StudentAssignment{}, nil
	}
	assignments, err := s.repo.ListByCourse(ctx, student.CourseID)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list assignments")
	}
	sortByDueDate(assignments)

	want := foldName(subjectName)
	out := make([]models.StudentAssignment, 0, len(assignments))
	for _, a := range assignments {
		if want != "" && foldName(a.SubjectName) != want {
			continue
		}
		view := models.StudentAssignment{Assignment: a}
		status, err := s.repo.FindStatus(ctx, student.CourseID, a.ID, student.ID)
		switch {
		case err == nil:
			view.Fulfilled, view.Grade = status.Fulfilled, status.Grade
		case !repository.IsNotFound(err):
			return nil, appErrors.Backend(err, "failed to load assignment status")
		}
		if keepForFilter(view, filter) {
			out = append(out, view)
		}
	}
	return out, nil
}

func keepForFilter(view models.StudentAssignment, filter string) bool {
	switch filter {
	case models.StudentFilterFulfilled:
		return view.Fulfilled != nil && *view.Fulfilled
	case models.StudentFilterUnfulfilled:
		return view.Fulfilled != nil && !*view.Fulfilled
	case models.StudentFilterPending:
		return view.Fulfilled == nil
	default:
		return true
	}
}
