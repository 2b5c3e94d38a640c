package models

// Subject represents an academic subject ("asignatura").
type Subject struct {
	ID   string `json:"id" mapstructure:"-"`
	Name string `json:"name" mapstructure:"nombre"`
}

// SubjectRef is the denormalised snapshot stored on students. It may go stale if
// the subject is renamed later.
type SubjectRef struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"nombre"`
}

// SubjectRequest carries the name for create and rename.
type SubjectRequest struct {
	Name string `json:"name" validate:"required"`
}
