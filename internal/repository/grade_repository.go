package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

const gradesSubcollection = "Calificaciones"

// GradesPath is the trimester grade sub-collection of a student.
func GradesPath(studentID string) string {
	return docstore.Path(StudentsCollection, studentID, gradesSubcollection)
}

// GradeRepository persists trimester grades.
type GradeRepository struct {
	store docstore.Store
}

// NewGradeRepository constructs a grade repository.
func NewGradeRepository(store docstore.Store) *GradeRepository {
	return &GradeRepository{store: store}
}

func (r *GradeRepository) Save(ctx context.Context, studentID string, grade models.TrimesterGrade) error {
	id := models.TrimesterGradeKey(grade.Trimester, grade.SubjectName)
	return r.store.Set(ctx, GradesPath(studentID), id, docstore.Data{
		"nota":               grade.Score,
		"asignaturaNombre":   grade.SubjectName,
		"trimestre":          grade.Trimester,
		"fechaActualizacion": grade.UpdatedAt,
	}, false)
}

func (r *GradeRepository) Find(ctx context.Context, studentID, trimester, subjectName string) (*models.TrimesterGrade, error) {
	doc, err := r.store.Get(ctx, GradesPath(studentID), models.TrimesterGradeKey(trimester, subjectName))
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, func(*models.TrimesterGrade, string) {})
}

// ListForStudent returns every grade stored for a student.
func (r *GradeRepository) ListForStudent(ctx context.Context, studentID string) ([]models.TrimesterGrade, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(GradesPath(studentID)))
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return decodeDocs(docs, func(*models.TrimesterGrade, string) {})
}
