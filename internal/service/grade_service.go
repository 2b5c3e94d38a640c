package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
	"github.com/noah-isme/escuela-portal-api/pkg/export"
)

var scorePattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`)

type gradeRepository interface {
	Save(ctx context.Context, studentID string, grade models.TrimesterGrade) error
	Find(ctx context.Context, studentID, trimester, subjectName string) (*models.TrimesterGrade, error)
}

// GradeService records trimester grades per subject and renders grade reports.
type GradeService struct {
	repo      gradeRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	validate, logger = defaults(validate, logger)
	return &GradeService{repo: repo, students: students, validator: validate, logger: logger, now: time.Now}
}

// ParseScore accepts a number between 0 and 100 with at most two decimals.
func ParseScore(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !scorePattern.MatchString(raw) {
		return 0, fmt.Errorf("%q is not a number with at most two decimals", raw)
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("%s is outside 0 to 100", raw)
	}
	return score, nil
}

// GradeSheet returns the section roster with each student's score, nil when not graded.
func (s *GradeService) GradeSheet(ctx context.Context, session models.Session, q models.GradeSheetQuery) (*models.GradeSheet, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	q.Grade, q.SubjectName = strings.TrimSpace(q.Grade), strings.TrimSpace(q.SubjectName)
	if err := s.validator.Struct(q); err != nil {
		return nil, invalid(err, "grade, section, subject and trimester are required")
	}
	roster, err := s.students.List(ctx, models.StudentFilter{Grade: q.Grade, Section: q.Section})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load roster")
	}

	sheet := &models.GradeSheet{GradeSheetQuery: q, Rows: make([]models.GradeSheetRow, 0, len(roster))}
	for _, st := range roster {
		row := models.GradeSheetRow{StudentID: st.ID, StudentName: st.Name}
		grade, err := s.repo.Find(ctx, st.ID, q.Trimester, q.SubjectName)
		switch {
		case err == nil:
			score := grade.Score
			row.Score = &score
		case !repository.IsNotFound(err):
			return nil, appErrors.Backend(err, "failed to load grades")
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// SaveGradeSheet validates every score before writing any: each id must belong to the
// grade and section roster and each score must be a valid number. Students left out of
// Scores keep their current grade. Valid grades are written one after another.
func (s *GradeService) SaveGradeSheet(ctx context.Context, session models.Session, req models.SaveGradeSheetRequest) (*models.WriteReport, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	req.Grade, req.SubjectName = strings.TrimSpace(req.Grade), strings.TrimSpace(req.SubjectName)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "grade, section, subject, trimester and scores are required")
	}
	roster, err := s.students.List(ctx, models.StudentFilter{Grade: req.Grade, Section: req.Section})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to load roster")
	}
	enrolled := make(map[string]bool, len(roster))
	for _, st := range roster {
		enrolled[st.ID] = true
	}

	ids := make([]string, 0, len(req.Scores))
	for id := range req.Scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scores := make(map[string]float64, len(ids))
	var outsiders, problems []string
	for _, id := range ids {
		if !enrolled[id] {
			outsiders = append(outsiders, id)
			continue
		}
		score, err := ParseScore(req.Scores[id])
		if err != nil {
			problems = append(problems, id+": "+err.Error())
			continue
		}
		scores[id] = score
	}
	if len(outsiders) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "scores reference students outside the grade and section"), outsiders)
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "scores must be between 0 and 100 with at most two decimals"), problems)
	}

	at := s.now().UTC()
	report := &models.WriteReport{Expected: len(scores)}
	var errs error
	for _, id := range ids {
		score := scores[id]
		err := s.repo.Save(ctx, id, models.TrimesterGrade{Score: score, SubjectName: req.SubjectName, Trimester: req.Trimester, UpdatedAt: at})
		if err != nil {
			report.Failed++
			report.FailedIDs = append(report.FailedIDs, id)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		report.Written++
	}
	report.Diagnostic = diagnostic(errs)
	if report.Failed > 0 {
		s.logger.Warn("grade sheet save incomplete", zap.String("subject", req.SubjectName), zap.String("diagnostic", report.Diagnostic))
	}
	return report, nil
}

// StudentGrade returns one grade for the parent portal, "Pendiente" when not graded yet.
func (s *GradeService) StudentGrade(ctx context.Context, session models.Session, studentID, subjectName, trimester string) (*models.StudentGradeView, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher, models.RoleStudent); err != nil {
		return nil, err
	}
	if session.Role == models.RoleStudent {
		studentID = session.AccountID
	}
	subjectName = strings.TrimSpace(subjectName)
	if studentID == "" || subjectName == "" || !models.ValidTrimester(trimester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student, subject and a valid trimester are required")
	}

	view := &models.StudentGradeView{SubjectName: subjectName, Trimester: trimester, Score: models.PendingGrade}
	grade, err := s.repo.Find(ctx, studentID, trimester, subjectName)
	switch {
	case err == nil:
		view.Score = strconv.FormatFloat(grade.Score, 'f', -1, 64)
	case !repository.IsNotFound(err):
		return nil, appErrors.Backend(err, "failed to load grade")
	}
	return view, nil
}

// ExportGradeReport renders the grade sheet as CSV or PDF.
func (s *GradeService) ExportGradeReport(ctx context.Context, session models.Session, q models.GradeSheetQuery, format export.Format) (*models.ReportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv or pdf")
	}
	sheet, err := s.GradeSheet(ctx, session, q)
	if err != nil {
		return nil, err
	}

	headers := []string{"Estudiante", "Nota"}
	dataset := export.Dataset{
		Title: "Calificaciones " + sheet.SubjectName,
		Caption: []string{
			"Grado: " + sheet.Grade + " " + string(sheet.Section),
			"Trimestre: " + sheet.Trimester,
		},
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(sheet.Rows)),
	}
	for _, row := range sheet.Rows {
		score := models.PendingGrade
		if row.Score != nil {
			score = strconv.FormatFloat(*row.Score, 'f', 2, 64)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{"Estudiante": row.StudentName, "Nota": score})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	name := strings.ReplaceAll(fmt.Sprintf("calificaciones_%s_%s_%s_%s", sheet.Grade, sheet.Section, sheet.SubjectName, sheet.Trimester), " ", "_")
	return &models.ReportFile{
		Filename:    name + "." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
