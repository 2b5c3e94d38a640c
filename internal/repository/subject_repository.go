package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

// SubjectsCollection holds the subject catalogue.
const SubjectsCollection = "Asignaturas"

// SubjectRepository persists subjects.
type SubjectRepository struct {
	store docstore.Store
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(store docstore.Store) *SubjectRepository {
	return &SubjectRepository{store: store}
}

func setSubjectID(s *models.Subject, id string) { s.ID = id }

func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	doc, err := r.store.Get(ctx, SubjectsCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setSubjectID)
}

// List returns every subject ordered by name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(SubjectsCollection).Ordered("nombre"))
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return decodeDocs(docs, setSubjectID)
}

// FindByName matches the stored name exactly.
func (r *SubjectRepository) FindByName(ctx context.Context, name string) ([]models.Subject, error) {
	docs, err := docstore.QueryEquals(ctx, r.store, SubjectsCollection, "nombre", name)
	if err != nil {
		return nil, fmt.Errorf("find subject by name: %w", err)
	}
	return decodeDocs(docs, setSubjectID)
}

func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	id, err := r.store.Add(ctx, SubjectsCollection, docstore.Data{"nombre": subject.Name})
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	subject.ID = id
	return nil
}

func (r *SubjectRepository) Rename(ctx context.Context, id, name string) error {
	return r.store.Update(ctx, SubjectsCollection, id, docstore.Data{"nombre": name})
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, SubjectsCollection, id)
}
