package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

const (
	tasksSubcollection    = "Tareas"
	statusesSubcollection = "Estados"
)

// TasksPath is the assignments sub-collection of a course.
func TasksPath(courseID string) string {
	return docstore.Path(CoursesCollection, courseID, tasksSubcollection)
}

// StatusesPath is the per-student status sub-collection of an assignment.
func StatusesPath(courseID, taskID string) string {
	return docstore.Path(CoursesCollection, courseID, tasksSubcollection, taskID, statusesSubcollection)
}

// AssignmentRepository persists assignments and their per-student statuses.
type AssignmentRepository struct {
	store docstore.Store
}

// NewAssignmentRepository constructs an assignment repository.
func NewAssignmentRepository(store docstore.Store) *AssignmentRepository {
	return &AssignmentRepository{store: store}
}

func assignmentSetter(courseID string) func(*models.Assignment, string) {
	return func(a *models.Assignment, id string) {
		a.ID = id
		a.CourseID = courseID
	}
}

func setStatusID(s *models.AssignmentStatus, id string) { s.StudentID = id }

// Create inserts the assignment under its course.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	id, err := r.store.Add(ctx, TasksPath(a.CourseID), docstore.Data{
		"titulo":           a.Title,
		"descripcion":      a.Description,
		"fechaEntrega":     a.DueDate,
		"creadaPor":        a.CreatedBy,
		"estadoGeneral":    a.Status,
		"asignaturaId":     a.SubjectID,
		"asignaturaNombre": a.SubjectName,
		"paralelo":         string(a.Section),
		"grado":            a.Grade,
		"createdAt":        a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	a.ID = id
	return nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, courseID, taskID string) (*models.Assignment, error) {
	doc, err := r.store.Get(ctx, TasksPath(courseID), taskID)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, assignmentSetter(courseID))
}

// ListByCourse returns the course's assignments in storage order.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(TasksPath(courseID)))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return decodeDocs(docs, assignmentSetter(courseID))
}

// UpdateFields patches the editable fields present in req.
func (r *AssignmentRepository) UpdateFields(ctx context.Context, courseID, taskID string, req models.UpdateAssignmentRequest) error {
	data := docstore.Data{}
	if req.Title != nil {
		data["titulo"] = *req.Title
	}
	if req.Description != nil {
		data["descripcion"] = *req.Description
	}
	if req.DueDate != nil {
		data["fechaEntrega"] = *req.DueDate
	}
	if len(data) == 0 {
		_, err := r.store.Get(ctx, TasksPath(courseID), taskID)
		return err
	}
	return r.store.Update(ctx, TasksPath(courseID), taskID, data)
}

// InitStatus writes a fresh ungraded status, replacing any previous record.
func (r *AssignmentRepository) InitStatus(ctx context.Context, courseID, taskID, studentID, studentName string) error {
	return r.store.Set(ctx, StatusesPath(courseID, taskID), studentID, docstore.Data{
		"cumplio":          nil,
		"nota":             "",
		"estudianteNombre": studentName,
	}, false)
}

// TouchStatus merges only the student name, leaving any grading intact.
func (r *AssignmentRepository) TouchStatus(ctx context.Context, courseID, taskID, studentID, studentName string) error {
	return r.store.Set(ctx, StatusesPath(courseID, taskID), studentID, docstore.Data{
		"estudianteNombre": studentName,
	}, true)
}

// GradeStatus overwrites the grading fields of one status.
func (r *AssignmentRepository) GradeStatus(ctx context.Context, courseID, taskID string, status models.AssignmentStatus) error {
	data := docstore.Data{
		"cumplio":          nil,
		"nota":             status.Grade,
		"estudianteNombre": status.StudentName,
	}
	if status.Fulfilled != nil {
		data["cumplio"] = *status.Fulfilled
	}
	return r.store.Set(ctx, StatusesPath(courseID, taskID), status.StudentID, data, false)
}

func (r *AssignmentRepository) FindStatus(ctx context.Context, courseID, taskID, studentID string) (*models.AssignmentStatus, error) {
	doc, err := r.store.Get(ctx, StatusesPath(courseID, taskID), studentID)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setStatusID)
}

func (r *AssignmentRepository) ListStatuses(ctx context.Context, courseID, taskID string) ([]models.AssignmentStatus, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(StatusesPath(courseID, taskID)))
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return decodeDocs(docs, setStatusID)
}
