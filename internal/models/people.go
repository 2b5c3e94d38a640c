package models

// Student is enrolled in one grade and section; the parent portal signs in with its account.
type Student struct {
	ID         string       `json:"id" mapstructure:"-"`
	Name       string       `json:"name" mapstructure:"nombre"`
	NationalID string       `json:"nationalId" mapstructure:"cedula"`
	Email      string       `json:"email" mapstructure:"email"`
	Grade      string       `json:"grade" mapstructure:"grado"`
	Section    Section      `json:"section" mapstructure:"paralelo"`
	CourseID   string       `json:"courseId" mapstructure:"cursoId"`
	Subjects   []SubjectRef `json:"subjects" mapstructure:"asignaturas"`
	ParentID   string       `json:"parentId" mapstructure:"idPadre"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Grade    string
	Section  Section
	CourseID string
	Search   string
}

// CreateStudentRequest enrolls a student and opens the account used by the parent portal.
type CreateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	NationalID string   `json:"nationalId" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Grade      string   `json:"grade" validate:"required"`
	Section    Section  `json:"section" validate:"required,oneof=A B C"`
	SubjectIDs []string `json:"subjectIds" validate:"required,min=1,dive,required"`
	ParentID   string   `json:"parentId" validate:"required"`
	// CourseID picks among several courses sharing the grade and section.
	CourseID string `json:"courseId"`
}

// UpdateStudentRequest edits an enrolled student.
type UpdateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	NationalID string   `json:"nationalId" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Grade      string   `json:"grade" validate:"required"`
	Section    Section  `json:"section" validate:"required,oneof=A B C"`
	SubjectIDs []string `json:"subjectIds" validate:"required,min=1,dive,required"`
	ParentID   string   `json:"parentId" validate:"required"`
	CourseID   string   `json:"courseId"`
}

// Teacher is keyed by its account id.
type Teacher struct {
	ID         string `json:"id" mapstructure:"-"`
	Name       string `json:"name" mapstructure:"nombre"`
	NationalID string `json:"nationalId" mapstructure:"cedula"`
	Email      string `json:"email" mapstructure:"email"`
}

// CreateTeacherRequest registers a teacher account and profile.
type CreateTeacherRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
}

// UpdateTeacherRequest edits a teacher profile.
type UpdateTeacherRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

// Parent ("padre") is linked from students.
type Parent struct {
	ID         string `json:"id" mapstructure:"-"`
	Name       string `json:"name" mapstructure:"nombre"`
	NationalID string `json:"nationalId" mapstructure:"cedula"`
}

// CreateParentRequest requires both fields.
type CreateParentRequest struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"nationalId" validate:"required"`
}
