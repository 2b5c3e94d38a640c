package models

// Attendance states.
const (
	AttendancePresent    = "Presente"
	AttendanceLate       = "Atraso"
	AttendanceExcused    = "Falta Justificada"
	AttendanceUnexcused  = "Falta Injustificada"
	AttendanceUnselected = "Sin seleccionar"
)

// AttendanceStates lists the states a teacher can pick.
var AttendanceStates = []string{AttendancePresent, AttendanceLate, AttendanceExcused, AttendanceUnexcused}

// ValidAttendanceState reports whether state can be chosen on a sheet.
func ValidAttendanceState(state string) bool {
	for _, s := range AttendanceStates {
		if s == state {
			return true
		}
	}
	return false
}

// AttendanceRecord is keyed {studentId}_{date}_{subjectId}.
type AttendanceRecord struct {
	ID          string  `json:"id" mapstructure:"-"`
	StudentID   string  `json:"studentId" mapstructure:"estudianteId"`
	StudentName string  `json:"studentName" mapstructure:"estudianteNombre"`
	Grade       string  `json:"grade" mapstructure:"grado"`
	Section     Section `json:"section" mapstructure:"paralelo"`
	Date        string  `json:"date" mapstructure:"fecha"`
	State       string  `json:"state" mapstructure:"estado"`
	SubjectID   string  `json:"subjectId" mapstructure:"asignaturaId"`
	SubjectName string  `json:"subjectName" mapstructure:"asignaturaNombre"`
}

// AttendanceKey builds the document id of a record.
func AttendanceKey(studentID, date, subjectID string) string {
	return studentID + "_" + date + "_" + subjectID
}

// AttendanceSheetQuery selects a daily sheet.
type AttendanceSheetQuery struct {
	Grade     string  `form:"grade" validate:"required"`
	Section   Section `form:"section" validate:"required,oneof=A B C"`
	SubjectID string  `form:"subjectId" validate:"required"`
	Date      string  `form:"date" validate:"required,datetime=2006-01-02"`
}

// AttendanceSheetRow is one student on a daily sheet.
type AttendanceSheetRow struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	State       string `json:"state"`
	Recorded    bool   `json:"recorded"`
}

// AttendanceSheet is a roster with the day's states.
type AttendanceSheet struct {
	Grade       string               `json:"grade"`
	Section     Section              `json:"section"`
	SubjectID   string               `json:"subjectId"`
	SubjectName string               `json:"subjectName"`
	Date        string               `json:"date"`
	Rows        []AttendanceSheetRow `json:"rows"`
}

// SaveAttendanceRequest stores a daily sheet. Entries map student id to state;
// roster students without an entry are stored as "Sin seleccionar".
type SaveAttendanceRequest struct {
	Grade       string            `json:"grade" validate:"required"`
	Section     Section           `json:"section" validate:"required,oneof=A B C"`
	SubjectID   string            `json:"subjectId" validate:"required"`
	SubjectName string            `json:"subjectName"`
	Date        string            `json:"date" validate:"required,datetime=2006-01-02"`
	Entries     map[string]string `json:"entries"`
}

// AttendanceSummary is a student's records for a month with per-state totals.
type AttendanceSummary struct {
	Records []AttendanceRecord `json:"records"`
	Totals  map[string]int     `json:"totals"`
}
