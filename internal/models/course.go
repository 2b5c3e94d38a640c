package models

import "time"

// Course is one physical (grade, section, subject, teacher) record.
type Course struct {
	ID        string     `json:"id" mapstructure:"-"`
	Grade     string     `json:"grade" mapstructure:"grado"`
	Section   Section    `json:"section" mapstructure:"paralelo"`
	SubjectID string     `json:"subjectId" mapstructure:"asignaturaId"`
	TeacherID string     `json:"teacherId" mapstructure:"docenteId"`
	CreatedAt time.Time  `json:"createdAt" mapstructure:"fechaCreacion"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" mapstructure:"fechaModificacion"`
}

// CourseKey is the uniqueness tuple of a course.
type CourseKey struct {
	Grade     string
	Section   Section
	SubjectID string
	TeacherID string
}

// Key returns the uniqueness tuple of c.
func (c Course) Key() CourseKey {
	return CourseKey{Grade: c.Grade, Section: c.Section, SubjectID: c.SubjectID, TeacherID: c.TeacherID}
}

// CourseFilter narrows course listings. Empty fields match everything.
type CourseFilter struct {
	Grade     string
	Section   Section
	SubjectID string
	TeacherID string
}

// CreateCourseRequest adds one course record per selected section.
type CreateCourseRequest struct {
	Grade     string    `json:"grade" validate:"required"`
	SubjectID string    `json:"subjectId" validate:"required"`
	TeacherID string    `json:"teacherId" validate:"required"`
	Sections  []Section `json:"sections" validate:"required,min=1,dive,oneof=A B C"`
}

// EditCourseRequest retargets a course and reconciles its sibling sections.
type EditCourseRequest struct {
	Grade     string    `json:"grade" validate:"required"`
	SubjectID string    `json:"subjectId" validate:"required"`
	TeacherID string    `json:"teacherId" validate:"required"`
	Sections  []Section `json:"sections" validate:"required,min=1,dive,oneof=A B C"`
}

// Outcomes of a per-section course write.
const (
	OutcomeCreated        = "created"
	OutcomeUpdated        = "updated"
	OutcomeAlreadyExisted = "already_existed"
	OutcomeDeleted        = "deleted"
	OutcomeUntouched      = "untouched"
	OutcomeFailed         = "failed"
)

// SectionOutcome reports what happened to one section of a batch.
type SectionOutcome struct {
	Section  Section `json:"section"`
	CourseID string  `json:"courseId,omitempty"`
	Outcome  string  `json:"outcome"`
	Error    string  `json:"error,omitempty"`
}

// CourseBatchResult is the aggregate report of CreateCourse.
type CourseBatchResult struct {
	Created        int              `json:"created"`
	AlreadyExisted int              `json:"alreadyExisted"`
	Failed         int              `json:"failed"`
	Sections       []SectionOutcome `json:"sections"`
}

// CourseEditResult is the aggregate report of EditCourse.
type CourseEditResult struct {
	Course                *Course          `json:"course"`
	OriginalSection       Section          `json:"originalSection"`
	Sections              []SectionOutcome `json:"sections"`
	RepresentativeDeleted bool             `json:"representativeDeleted"`
	Failed                int              `json:"failed"`
}

// CourseGroup is the logical course shown to administrators: one grade, subject and
// teacher with the set of sections that exist for it.
type CourseGroup struct {
	Grade       string             `json:"grade"`
	SubjectID   string             `json:"subjectId"`
	SubjectName string             `json:"subjectName"`
	TeacherID   string             `json:"teacherId"`
	TeacherName string             `json:"teacherName"`
	Sections    []Section          `json:"sections"`
	CourseIDs   map[Section]string `json:"courseIds"`
}

// ResolutionKind tags a course lookup result.
type ResolutionKind string

const (
	ResolutionUnique    ResolutionKind = "unique"
	ResolutionAmbiguous ResolutionKind = "ambiguous"
	ResolutionNotFound  ResolutionKind = "not_found"
)

// CourseResolution is the outcome of matching a (grade, section) pair to a course.
// Course is set only for ResolutionUnique; Candidates only for ResolutionAmbiguous.
type CourseResolution struct {
	Kind       ResolutionKind `json:"kind"`
	Course     *Course        `json:"course,omitempty"`
	Candidates []Course       `json:"candidates,omitempty"`
}
