package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

// AttendanceCollection holds one document per student, day and subject.
const AttendanceCollection = "Asistencias"

// AttendanceRepository persists attendance records.
type AttendanceRepository struct {
	store docstore.Store
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(store docstore.Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

func setAttendanceID(a *models.AttendanceRecord, id string) { a.ID = id }

// Save upserts the record under its composite key.
func (r *AttendanceRepository) Save(ctx context.Context, rec models.AttendanceRecord) error {
	id := models.AttendanceKey(rec.StudentID, rec.Date, rec.SubjectID)
	return r.store.Set(ctx, AttendanceCollection, id, docstore.Data{
		"estudianteId":     rec.StudentID,
		"estudianteNombre": rec.StudentName,
		"grado":            rec.Grade,
		"paralelo":         string(rec.Section),
		"fecha":            rec.Date,
		"estado":           rec.State,
		"asignaturaId":     rec.SubjectID,
		"asignaturaNombre": rec.SubjectName,
	}, false)
}

// ListForDay returns the records of one subject sheet on date.
func (r *AttendanceRepository) ListForDay(ctx context.Context, grade string, section models.Section, subjectID, date string) ([]models.AttendanceRecord, error) {
	q := docstore.Collection(AttendanceCollection).
		Where("grado", grade).
		Where("paralelo", string(section)).
		Where("asignaturaId", subjectID).
		Where("fecha", date)
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return decodeDocs(docs, setAttendanceID)
}

// ListForStudentRange returns a student's records with from <= date < to.
func (r *AttendanceRepository) ListForStudentRange(ctx context.Context, studentID, from, to string) ([]models.AttendanceRecord, error) {
	q := docstore.Collection(AttendanceCollection).
		Where("estudianteId", studentID).
		Range("fecha", from, to)
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return decodeDocs(docs, setAttendanceID)
}
