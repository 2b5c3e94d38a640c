package models

import "time"

// Trimesters that can hold a grade.
const (
	Trimester1 = "trimestre1"
	Trimester2 = "trimestre2"
	Trimester3 = "trimestre3"
)

// ValidTrimester reports whether t names a trimester.
func ValidTrimester(t string) bool {
	return t == Trimester1 || t == Trimester2 || t == Trimester3
}

// TrimesterGrade lives under Estudiantes/{id}/Calificaciones/{trimester}_{subjectName}.
type TrimesterGrade struct {
	Score       float64   `json:"score" mapstructure:"nota"`
	SubjectName string    `json:"subjectName" mapstructure:"asignaturaNombre"`
	Trimester   string    `json:"trimester" mapstructure:"trimestre"`
	UpdatedAt   time.Time `json:"updatedAt" mapstructure:"fechaActualizacion"`
}

// TrimesterGradeKey builds the document id of a grade.
func TrimesterGradeKey(trimester, subjectName string) string {
	return trimester + "_" + subjectName
}

// GradeSheetQuery selects one subject's trimester sheet for a section.
type GradeSheetQuery struct {
	Grade       string  `form:"grade" json:"grade" validate:"required"`
	Section     Section `form:"section" json:"section" validate:"required,oneof=A B C"`
	SubjectName string  `form:"subjectName" json:"subjectName" validate:"required"`
	Trimester   string  `form:"trimester" json:"trimester" validate:"required,oneof=trimestre1 trimestre2 trimestre3"`
}

// GradeSheetRow is one student; Score is nil when no grade exists yet.
type GradeSheetRow struct {
	StudentID   string   `json:"studentId"`
	StudentName string   `json:"studentName"`
	Score       *float64 `json:"score"`
}

// GradeSheet is a section roster with scores.
type GradeSheet struct {
	GradeSheetQuery
	Rows []GradeSheetRow `json:"rows"`
}

// SaveGradeSheetRequest maps student ids to raw score input such as "95.5".
type SaveGradeSheetRequest struct {
	Grade       string            `json:"grade" validate:"required"`
	Section     Section           `json:"section" validate:"required,oneof=A B C"`
	SubjectName string            `json:"subjectName" validate:"required"`
	Trimester   string            `json:"trimester" validate:"required,oneof=trimestre1 trimestre2 trimestre3"`
	Scores      map[string]string `json:"scores" validate:"required,min=1"`
}

// StudentGradeView is a single grade for the parent portal; Score is "Pendiente" when missing.
type StudentGradeView struct {
	SubjectName string `json:"subjectName"`
	Trimester   string `json:"trimester"`
	Score       string `json:"score"`
}

// ReportFile is a rendered export ready to be served as a download.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
