package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/internal/repository"
	"github.com/noah-isme/escuela-portal-api/pkg/config"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByKey(ctx context.Context, key models.CourseKey) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Retarget(ctx context.Context, id, grade, subjectID, teacherID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, filter models.CourseFilter, fn func([]models.Course, error)) (func(), error)
}

type subjectLister interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type teacherLister interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

// CourseConfig tunes the consistency engine.
type CourseConfig struct {
	// ExcludedRepresentative decides the fate of an edited course whose own section
	// is left out of the new section set: config.RepresentativeKeep or RepresentativeDelete.
	ExcludedRepresentative string
}

// CourseService keeps the physical one-record-per-section courses consistent with the
// logical "grade + subject + teacher + sections" view administrators edit.
type CourseService struct {
	repo      courseRepository
	subjects  subjectLister
	teachers  teacherLister
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CourseConfig
	now       func() time.Time
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, subjects subjectLister, teachers teacherLister, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CourseConfig) *CourseService {
	validate, logger = defaults(validate, logger)
	if cfg.ExcludedRepresentative != config.RepresentativeDelete {
		cfg.ExcludedRepresentative = config.RepresentativeKeep
	}
	return &CourseService{
		repo:      repo,
		subjects:  subjects,
		teachers:  teachers,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

func normaliseCourseInput(grade, subjectID, teacherID string) (string, string, string) {
	return strings.TrimSpace(grade), strings.TrimSpace(subjectID), strings.TrimSpace(teacherID)
}

// Create adds one course per selected section. Sections whose tuple already exists are
// reported as already existing; a failing section does not stop the others.
func (s *CourseService) Create(ctx context.Context, session models.Session, req models.CreateCourseRequest) (*models.CourseBatchResult, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Grade, req.SubjectID, req.TeacherID = normaliseCourseInput(req.Grade, req.SubjectID, req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid course payload")
	}

	result := &models.CourseBatchResult{}
	for _, section := range models.NewSectionSet(req.Sections...).Sorted() {
		key := models.CourseKey{Grade: req.Grade, Section: section, SubjectID: req.SubjectID, TeacherID: req.TeacherID}
		outcome := s.createSection(ctx, key)
		switch outcome.Outcome {
		case models.OutcomeCreated:
			result.Created++
		case models.OutcomeAlreadyExisted:
			result.AlreadyExisted++
		default:
			result.Failed++
		}
		s.metrics.RecordCourseSection("create", outcome.Outcome)
		result.Sections = append(result.Sections, outcome)
	}

	if result.Created > 0 {
		s.cache.Invalidate(ctx, cachePatternCatalogue)
	}
	s.logger.Info("course batch created",
		zap.String("account_id", session.AccountID),
		zap.String("grade", req.Grade),
		zap.String("subject_id", req.SubjectID),
		zap.String("teacher_id", req.TeacherID),
		zap.Int("created", result.Created),
		zap.Int("already_existed", result.AlreadyExisted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *CourseService) createSection(ctx context.Context, key models.CourseKey) models.SectionOutcome {
	outcome := models.SectionOutcome{Section: key.Section}

	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		s.logger.Warn("course duplicate check failed", zap.String("section", string(key.Section)), zap.Error(err))
		outcome.Outcome = models.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	if len(existing) > 0 {
		outcome.Outcome = models.OutcomeAlreadyExisted
		outcome.CourseID = existing[0].ID
		return outcome
	}

	course := &models.Course{
		Grade:     key.Grade,
		Section:   key.Section,
		SubjectID: key.SubjectID,
		TeacherID: key.TeacherID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		s.logger.Warn("course create failed", zap.String("section", string(key.Section)), zap.Error(err))
		outcome.Outcome = models.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Outcome = models.OutcomeCreated
	outcome.CourseID = course.ID
	return outcome
}

// Edit retargets the course record in place and reconciles the sibling records of the
// new (grade, subject, teacher): siblings outside the new section set are deleted, missing
// sections are created and the rest are left untouched so their assignments survive.
// Every sibling write is best effort and reported individually.
func (s *CourseService) Edit(ctx context.Context, session models.Session, id string, req models.EditCourseRequest) (*models.CourseEditResult, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Grade, req.SubjectID, req.TeacherID = normaliseCourseInput(req.Grade, req.SubjectID, req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid course payload")
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "course")
	}
	originalSection := target.Section
	sections := models.NewSectionSet(req.Sections...)

	clash, err := s.repo.FindByKey(ctx, models.CourseKey{Grade: req.Grade, Section: originalSection, SubjectID: req.SubjectID, TeacherID: req.TeacherID})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to check course uniqueness")
	}
	for _, c := range clash {
		if c.ID != id {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "another course already holds this grade, section, subject and teacher")
		}
	}

	at := s.now().UTC()
	if err := s.repo.Retarget(ctx, id, req.Grade, req.SubjectID, req.TeacherID, at); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Backend(err, "failed to update course")
	}
	target.Grade, target.SubjectID, target.TeacherID, target.UpdatedAt = req.Grade, req.SubjectID, req.TeacherID, &at

	result := &models.CourseEditResult{
		Course:          target,
		OriginalSection: originalSection,
		Sections:        []models.SectionOutcome{{Section: originalSection, CourseID: id, Outcome: models.OutcomeUpdated}},
	}
	record := func(o models.SectionOutcome) {
		if o.Outcome == models.OutcomeFailed {
			result.Failed++
		}
		s.metrics.RecordCourseSection("edit", o.Outcome)
		result.Sections = append(result.Sections, o)
	}

	peers, err := s.repo.List(ctx, models.CourseFilter{Grade: req.Grade, SubjectID: req.SubjectID, TeacherID: req.TeacherID})
	if err != nil {
		s.logger.Warn("course peer lookup failed", zap.String("course_id", id), zap.Error(err))
		result.Failed++
		return result, nil
	}

	present := models.NewSectionSet()
	for _, peer := range peers {
		if peer.ID == id {
			continue
		}
		if sections.Has(peer.Section) {
			present[peer.Section] = struct{}{}
			record(models.SectionOutcome{Section: peer.Section, CourseID: peer.ID, Outcome: models.OutcomeUntouched})
			continue
		}
		outcome := models.SectionOutcome{Section: peer.Section, CourseID: peer.ID, Outcome: models.OutcomeDeleted}
		if err := s.repo.Delete(ctx, peer.ID); err != nil {
			s.logger.Warn("course peer delete failed", zap.String("course_id", peer.ID), zap.Error(err))
			outcome.Outcome, outcome.Error = models.OutcomeFailed, err.Error()
		}
		record(outcome)
	}

	for _, section := range sections.Sorted() {
		if section == originalSection || present.Has(section) {
			continue
		}
		outcome := s.createSection(ctx, models.CourseKey{Grade: req.Grade, Section: section, SubjectID: req.SubjectID, TeacherID: req.TeacherID})
		record(outcome)
	}

	if !sections.Has(originalSection) {
		s.applyRepresentativePolicy(ctx, result)
	}

	s.cache.Invalidate(ctx, cachePatternCatalogue)
	s.logger.Info("course edited",
		zap.String("account_id", session.AccountID),
		zap.String("course_id", id),
		zap.String("original_section", string(originalSection)),
		zap.Bool("representative_deleted", result.RepresentativeDeleted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *CourseService) applyRepresentativePolicy(ctx context.Context, result *models.CourseEditResult) {
	id := result.Course.ID
	if s.cfg.ExcludedRepresentative != config.RepresentativeDelete {
		s.logger.Warn("edited course kept outside its section set",
			zap.String("course_id", id),
			zap.String("section", string(result.OriginalSection)))
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("representative delete failed", zap.String("course_id", id), zap.Error(err))
		result.Failed++
		s.metrics.RecordCourseSection("edit", models.OutcomeFailed)
		result.Sections[0].Outcome, result.Sections[0].Error = models.OutcomeFailed, err.Error()
		return
	}
	result.RepresentativeDeleted = true
	result.Sections[0].Outcome = models.OutcomeDeleted
	s.metrics.RecordCourseSection("edit", models.OutcomeDeleted)
}

// Delete removes a single course record. Students and assignments pointing at it are left as is.
func (s *CourseService) Delete(ctx context.Context, session models.Session, id string) error {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupErr(err, "course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Backend(err, "failed to delete course")
	}
	s.cache.Invalidate(ctx, cachePatternCatalogue)
	return nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "course")
	}
	return course, nil
}

// List returns the courses matching filter, ordered by grade catalogue then section.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list courses")
	}
	sortCourses(courses)
	return courses, nil
}

// TeacherCourses lists the caller's courses; administrators may name any teacher.
func (s *CourseService) TeacherCourses(ctx context.Context, session models.Session, teacherID string) ([]models.Course, error) {
	teacherID, err := s.scopeTeacher(session, teacherID)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, models.CourseFilter{TeacherID: teacherID})
}

// WatchTeacherCourses streams the teacher's course list until ctx ends or the returned
// func is called.
func (s *CourseService) WatchTeacherCourses(ctx context.Context, session models.Session, teacherID string, fn func([]models.Course)) (func(), error) {
	teacherID, err := s.scopeTeacher(session, teacherID)
	if err != nil {
		return nil, err
	}
	stop, err := s.repo.Watch(ctx, models.CourseFilter{TeacherID: teacherID}, func(courses []models.Course, err error) {
		if err != nil {
			s.logger.Error("course snapshot dropped", zap.String("teacher_id", teacherID), zap.Error(err))
			return
		}
		sortCourses(courses)
		fn(courses)
	})
	if err != nil {
		return nil, appErrors.Backend(err, "failed to watch courses")
	}
	return stop, nil
}

func (s *CourseService) scopeTeacher(session models.Session, teacherID string) (string, error) {
	if err := authorize(session, models.RoleAdmin, models.RoleTeacher); err != nil {
		return "", err
	}
	if session.Role == models.RoleTeacher {
		return session.AccountID, nil
	}
	if teacherID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	return teacherID, nil
}

// Grouped folds the physical records into one row per grade, subject and teacher.
func (s *CourseService) Grouped(ctx context.Context, filter models.CourseFilter) ([]models.CourseGroup, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to list courses")
	}
	subjectNames, teacherNames := map[string]string{}, map[string]string{}
	if subjects, err := s.subjects.List(ctx); err == nil {
		for _, sub := range subjects {
			subjectNames[sub.ID] = sub.Name
		}
	} else {
		s.logger.Warn("subject names unavailable for grouped courses", zap.Error(err))
	}
	if teachers, err := s.teachers.List(ctx); err == nil {
		for _, t := range teachers {
			teacherNames[t.ID] = t.Name
		}
	} else {
		s.logger.Warn("teacher names unavailable for grouped courses", zap.Error(err))
	}

	type groupKey struct{ grade, subject, teacher string }
	index := map[groupKey]*models.CourseGroup{}
	var order []groupKey
	for _, c := range courses {
		k := groupKey{c.Grade, c.SubjectID, c.TeacherID}
		g, ok := index[k]
		if !ok {
			g = &models.CourseGroup{
				Grade:       c.Grade,
				SubjectID:   c.SubjectID,
				SubjectName: subjectNames[c.SubjectID],
				TeacherID:   c.TeacherID,
				TeacherName: teacherNames[c.TeacherID],
				CourseIDs:   map[models.Section]string{},
			}
			index[k] = g
			order = append(order, k)
		}
		g.CourseIDs[c.Section] = c.ID
	}

	groups := make([]models.CourseGroup, 0, len(order))
	for _, k := range order {
		g := index[k]
		set := models.NewSectionSet()
		for section := range g.CourseIDs {
			set[section] = struct{}{}
		}
		g.Sections = set.Sorted()
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		gi, gj := models.GradeIndex(groups[i].Grade), models.GradeIndex(groups[j].Grade)
		if gi != gj {
			return gi < gj
		}
		if groups[i].SubjectName != groups[j].SubjectName {
			return groups[i].SubjectName < groups[j].SubjectName
		}
		return groups[i].TeacherName < groups[j].TeacherName
	})
	return groups, nil
}

// SubjectsForGrade returns the subjects that have at least one course at grade, by name.
func (s *CourseService) SubjectsForGrade(ctx context.Context, grade string) ([]models.Subject, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	return remember(ctx, s.cache, cacheKeyGradeSubjects+grade, func() ([]models.Subject, error) {
		courses, err := s.repo.List(ctx, models.CourseFilter{Grade: grade})
		if err != nil {
			return nil, appErrors.Backend(err, "failed to list courses")
		}
		offered := map[string]struct{}{}
		for _, c := range courses {
			offered[c.SubjectID] = struct{}{}
		}
		all, err := s.subjects.List(ctx)
		if err != nil {
			return nil, appErrors.Backend(err, "failed to list subjects")
		}
		subjects := make([]models.Subject, 0, len(offered))
		for _, sub := range all {
			if _, ok := offered[sub.ID]; ok {
				subjects = append(subjects, sub)
			}
		}
		sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
		return subjects, nil
	})
}

// ResolveCourse matches a (grade, section) pair against courses without guessing:
// a single match is Unique, several are Ambiguous and none is NotFound.
func ResolveCourse(courses []models.Course, grade string, section models.Section) models.CourseResolution {
	var matches []models.Course
	for _, c := range courses {
		if c.Grade == grade && c.Section == section {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return models.CourseResolution{Kind: models.ResolutionNotFound}
	case 1:
		course := matches[0]
		return models.CourseResolution{Kind: models.ResolutionUnique, Course: &course}
	default:
		return models.CourseResolution{Kind: models.ResolutionAmbiguous, Candidates: matches}
	}
}

func sortCourses(courses []models.Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		gi, gj := models.GradeIndex(courses[i].Grade), models.GradeIndex(courses[j].Grade)
		if gi != gj {
			return gi < gj
		}
		if courses[i].Section != courses[j].Section {
			return courses[i].Section < courses[j].Section
		}
		return courses[i].ID < courses[j].ID
	})
}
