package models

import "time"

// AssignmentStatusActive is the only status assignments are created with.
const AssignmentStatusActive = "Activa"

// PendingGrade is stored when a grade is saved blank.
const PendingGrade = "Pendiente"

// Assignment ("tarea") lives under its course. SubjectName is a snapshot.
type Assignment struct {
	ID          string    `json:"id" mapstructure:"-"`
	CourseID    string    `json:"courseId" mapstructure:"-"`
	Title       string    `json:"title" mapstructure:"titulo"`
	Description string    `json:"description" mapstructure:"descripcion"`
	DueDate     string    `json:"dueDate" mapstructure:"fechaEntrega"`
	CreatedBy   string    `json:"createdBy" mapstructure:"creadaPor"`
	SubjectID   string    `json:"subjectId" mapstructure:"asignaturaId"`
	SubjectName string    `json:"subjectName" mapstructure:"asignaturaNombre"`
	Grade       string    `json:"grade" mapstructure:"grado"`
	Section     Section   `json:"section" mapstructure:"paralelo"`
	Status      string    `json:"status" mapstructure:"estadoGeneral"`
	CreatedAt   time.Time `json:"createdAt" mapstructure:"createdAt"`
}

// AssignmentStatus ("estado") is one student's record for an assignment.
// Fulfilled is nil until graded.
type AssignmentStatus struct {
	StudentID   string `json:"studentId" mapstructure:"-"`
	StudentName string `json:"studentName" mapstructure:"estudianteNombre"`
	Fulfilled   *bool  `json:"fulfilled" mapstructure:"cumplio"`
	Grade       string `json:"grade" mapstructure:"nota"`
}

// CreateAssignmentRequest is scoped to a course section. Dates use YYYY-MM-DD.
type CreateAssignmentRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	DueDate     string  `json:"dueDate" validate:"required,datetime=2006-01-02"`
	SubjectID   string  `json:"subjectId" validate:"required"`
	SubjectName string  `json:"subjectName"`
	Grade       string  `json:"grade" validate:"required"`
	Section     Section `json:"section" validate:"required,oneof=A B C"`
}

// UpdateAssignmentRequest patches the editable fields; nil leaves a field unchanged.
type UpdateAssignmentRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// GradeEntry is one roster row of a grading save.
type GradeEntry struct {
	StudentID   string `json:"studentId" validate:"required"`
	StudentName string `json:"studentName"`
	Fulfilled   *bool  `json:"fulfilled"`
	Note        string `json:"note"`
}

// GradeAssignmentRequest saves every visible row.
type GradeAssignmentRequest struct {
	Entries []GradeEntry `json:"entries" validate:"required,min=1,dive"`
}

// WriteReport aggregates a fan-out of independent writes.
type WriteReport struct {
	Expected   int      `json:"expected"`
	Written    int      `json:"written"`
	Failed     int      `json:"failed"`
	FailedIDs  []string `json:"failedIds,omitempty"`
	Diagnostic string   `json:"diagnostic,omitempty"`
}

// AssignmentCreated pairs the new assignment with its status fan-out report.
type AssignmentCreated struct {
	Assignment *Assignment `json:"assignment"`
	Statuses   WriteReport `json:"statuses"`
}

// AssignmentUpdated pairs the edited assignment with its status backfill report.
type AssignmentUpdated struct {
	Assignment *Assignment `json:"assignment"`
	Statuses   WriteReport `json:"statuses"`
}

// Classification is the due-date bucket of an assignment relative to today.
type Classification string

const (
	ClassOverdue Classification = "overdue"
	ClassDueSoon Classification = "dueSoon"
	ClassOnTrack Classification = "onTrack"
)

// ClassifiedAssignment is an assignment with its read-side bucket.
type ClassifiedAssignment struct {
	Assignment
	Classification Classification `json:"classification"`
	DaysUntilDue   int            `json:"daysUntilDue"`
}

// StatusBoardRow is one student of the grading roster.
type StatusBoardRow struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Fulfilled   bool   `json:"fulfilled"`
	Grade       string `json:"grade"`
	HasStatus   bool   `json:"hasStatus"`
}

// Parent view filters over a student's assignments.
const (
	StudentFilterAll         = "all"
	StudentFilterFulfilled   = "fulfilled"
	StudentFilterUnfulfilled = "unfulfilled"
	StudentFilterPending     = "pending"
)

// StudentAssignment is an assignment as seen from the parent portal.
type StudentAssignment struct {
	Assignment
	Fulfilled *bool  `json:"fulfilled"`
	Grade     string `json:"grade"`
}
