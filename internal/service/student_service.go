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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Save(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// courseCatalogue is the read side of the course engine that enrollment depends on.
type courseCatalogue interface {
	SubjectsForGrade(ctx context.Context, grade string) ([]models.Subject, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type parentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
}

// StudentService enrolls students in a course section with a subject selection.
type StudentService struct {
	repo      studentRepository
	courses   courseCatalogue
	parents   parentFinder
	accounts  identity.Provider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, courses courseCatalogue, parents parentFinder, accounts identity.Provider, validate *validator.Validate, logger *zap.Logger) *StudentService {
	validate, logger = defaults(validate, logger)
	return &StudentService{repo: repo, courses: courses, parents: parents, accounts: accounts, validator: validate, logger: logger}
}

type enrollment struct {
	courseID string
	subjects []models.SubjectRef
}

// enroll checks the subject selection against the grade's offer, resolves the course of
// (grade, section) and verifies the parent.
func (s *StudentService) enroll(ctx context.Context, grade string, section models.Section, subjectIDs []string, courseID, parentID string) (*enrollment, error) {
	offered, err := s.courses.SubjectsForGrade(ctx, grade)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Subject, len(offered))
	for _, sub := range offered {
		byID[sub.ID] = sub
	}
	seen := map[string]struct{}{}
	var refs []models.SubjectRef
	var unknown []string
	for _, id := range subjectIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sub, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		refs = append(refs, models.SubjectRef{ID: sub.ID, Name: sub.Name})
	}
	if len(unknown) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "subjects are not offered for grade "+grade), unknown)
	}

	courses, err := s.courses.List(ctx, models.CourseFilter{Grade: grade, Section: section})
	if err != nil {
		return nil, err
	}
	resolved, err := pickCourse(ResolveCourse(courses, grade, section), courseID, grade, section)
	if err != nil {
		return nil, err
	}

	if _, err := s.parents.FindByID(ctx, parentID); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent "+parentID+" does not exist")
		}
		return nil, appErrors.Backend(err, "failed to load parent")
	}
	return &enrollment{courseID: resolved, subjects: refs}, nil
}

// pickCourse turns a resolution into a course id. An explicit choice is required when
// several courses share the grade and section.
func pickCourse(res models.CourseResolution, chosen, grade string, section models.Section) (string, error) {
	switch res.Kind {
	case models.ResolutionUnique:
		if chosen != "" && chosen != res.Course.ID {
			return "", appErrors.Clone(appErrors.ErrValidation, "course "+chosen+" does not belong to "+grade+" "+string(section))
		}
		return res.Course.ID, nil
	case models.ResolutionAmbiguous:
		ids := make([]string, 0, len(res.Candidates))
		for _, c := range res.Candidates {
			if c.ID == chosen {
				return chosen, nil
			}
			ids = append(ids, c.ID)
		}
		return "", appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "several courses match "+grade+" "+string(section)+"; choose one with courseId"), ids)
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "no course exists for "+grade+" "+string(section))
	}
}

// Create enrolls a student and opens the account the parent portal signs in with.
// The student id is the account id.
func (s *StudentService) Create(ctx context.Context, session models.Session, req models.CreateStudentRequest) (*models.Student, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name, req.NationalID = strings.TrimSpace(req.Name), strings.TrimSpace(req.NationalID)
	req.Email, req.Grade = strings.TrimSpace(req.Email), strings.TrimSpace(req.Grade)
	req.ParentID, req.CourseID = strings.TrimSpace(req.ParentID), strings.TrimSpace(req.CourseID)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}

	plan, err := s.enroll(ctx, req.Grade, req.Section, req.SubjectIDs, req.CourseID, req.ParentID)
	if err != nil {
		return nil, err
	}

	id, err := s.accounts.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, signUpErr(err)
	}
	student := &models.Student{
		ID:         id,
		Name:       req.Name,
		NationalID: req.NationalID,
		Email:      req.Email,
		Grade:      req.Grade,
		Section:    req.Section,
		CourseID:   plan.courseID,
		Subjects:   plan.subjects,
		ParentID:   req.ParentID,
	}
	if err := s.repo.Save(ctx, student); err != nil {
		s.logger.Error("student profile write failed after sign-up", zap.String("student_id", id), zap.Error(err))
		return nil, appErrors.Backend(err, "failed to save student")
	}
	s.logger.Info("student enrolled",
		zap.String("account_id", session.AccountID),
		zap.String("student_id", id),
		zap.String("course_id", plan.courseID),
	)
	return student, nil
}

// Update re-validates the enrollment and rewrites the profile. The sign-in email of the
// account is not changed.
func (s *StudentService) Update(ctx context.Context, session models.Session, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name, req.NationalID = strings.TrimSpace(req.Name), strings.TrimSpace(req.NationalID)
	req.Email, req.Grade = strings.TrimSpace(req.Email), strings.TrimSpace(req.Grade)
	req.ParentID, req.CourseID = strings.TrimSpace(req.ParentID), strings.TrimSpace(req.CourseID)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "student")
	}

	plan, err := s.enroll(ctx, req.Grade, req.Section, req.SubjectIDs, req.CourseID, req.ParentID)
	if err != nil {
		return nil, err
	}
	student.Name, student.NationalID, student.Email = req.Name, req.NationalID, req.Email
	student.Grade, student.Section, student.CourseID = req.Grade, req.Section, plan.courseID
	student.Subjects, student.ParentID = plan.subjects, req.ParentID

	if err := s.repo.Update(ctx, student); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Backend(err, "failed to update student")
	}
	return student, nil
}

// Delete removes the profile only; statuses, attendance and the account remain.
func (s *StudentService) Delete(ctx context.Context, session models.Session, id string) error {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupErr(err, "student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Backend(err, "failed to delete student")
	}
	return nil
}

// Get returns a student. Parent portal sessions may only read their own record.
func (s *StudentService) Get(ctx context.Context, session models.Session, id string) (*models.Student, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher, models.RoleStudent); err != nil {
		return nil, err
	}
	if session.Role == models.RoleStudent && session.AccountID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only read their own record")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "student")
	}
	return student, nil
}

// List returns students matching filter; Search matches name or national id.
func (s *StudentService) List(ctx context.Context, session models.Session, filter models.StudentFilter) ([]models.Student, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return nil, err
	}
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list students")
	}
	out := students[:0]
	for _, st := range students {
		if matchesSearch(filter.Search, st.Name, st.NationalID) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Roster lists the students of a grade section by name.
func (s *StudentService) Roster(ctx context.Context, session models.Session, grade string, section models.Section) ([]models.Student, error) {
	if !section.Valid() || strings.TrimSpace(grade) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and a section A, B or C are required")
	}
	return s.List(ctx, session, models.StudentFilter{Grade: strings.TrimSpace(grade), Section: section})
}
