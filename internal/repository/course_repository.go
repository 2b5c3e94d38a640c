package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

// CoursesCollection holds one document per (grade, section, subject, teacher).
const CoursesCollection = "Cursos"

// CourseRepository persists courses.
type CourseRepository struct {
	store docstore.Store
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(store docstore.Store) *CourseRepository {
	return &CourseRepository{store: store}
}

func setCourseID(c *models.Course, id string) { c.ID = id }

func courseDoc(c *models.Course) docstore.Data {
	data := docstore.Data{
		"grado":         c.Grade,
		"paralelo":      string(c.Section),
		"asignaturaId":  c.SubjectID,
		"docenteId":     c.TeacherID,
		"fechaCreacion": c.CreatedAt,
	}
	if c.UpdatedAt != nil {
		data["fechaModificacion"] = *c.UpdatedAt
	}
	return data
}

func courseQuery(filter models.CourseFilter) docstore.Query {
	q := docstore.Collection(CoursesCollection)
	if filter.Grade != "" {
		q = q.Where("grado", filter.Grade)
	}
	if filter.Section != "" {
		q = q.Where("paralelo", string(filter.Section))
	}
	if filter.SubjectID != "" {
		q = q.Where("asignaturaId", filter.SubjectID)
	}
	if filter.TeacherID != "" {
		q = q.Where("docenteId", filter.TeacherID)
	}
	return q
}

// FindByID loads one course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	doc, err := r.store.Get(ctx, CoursesCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setCourseID)
}

// List returns courses matching every non-empty filter field.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	docs, err := r.store.Query(ctx, courseQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return decodeDocs(docs, setCourseID)
}

// FindByKey returns courses holding exactly the uniqueness tuple.
func (r *CourseRepository) FindByKey(ctx context.Context, key models.CourseKey) ([]models.Course, error) {
	return r.List(ctx, models.CourseFilter{
		Grade:     key.Grade,
		Section:   key.Section,
		SubjectID: key.SubjectID,
		TeacherID: key.TeacherID,
	})
}

// Create inserts the course and assigns its id.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	id, err := r.store.Add(ctx, CoursesCollection, courseDoc(course))
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	course.ID = id
	return nil
}

// Retarget moves the course to another grade, subject and teacher, keeping its section.
func (r *CourseRepository) Retarget(ctx context.Context, id, grade, subjectID, teacherID string, at time.Time) error {
	return r.store.Update(ctx, CoursesCollection, id, docstore.Data{
		"grado":             grade,
		"asignaturaId":      subjectID,
		"docenteId":         teacherID,
		"fechaModificacion": at,
	})
}

// Delete removes a course without touching its sub-collections.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CoursesCollection, id)
}

// Watch streams the courses matching filter until unsubscribed. A snapshot that fails
// to decode is handed to fn as an error instead of courses.
func (r *CourseRepository) Watch(ctx context.Context, filter models.CourseFilter, fn func([]models.Course, error)) (func(), error) {
	return r.store.Watch(ctx, courseQuery(filter), func(docs []docstore.Document) {
		fn(decodeDocs(docs, setCourseID))
	})
}
