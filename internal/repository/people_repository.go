package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

const (
	TeachersCollection = "Docentes"
	StudentsCollection = "Estudiantes"
	ParentsCollection  = "Padres"
	AccountsCollection = "users"
)

// TeacherRepository persists teacher profiles keyed by account id.
type TeacherRepository struct {
	store docstore.Store
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(store docstore.Store) *TeacherRepository {
	return &TeacherRepository{store: store}
}

func setTeacherID(t *models.Teacher, id string) { t.ID = id }

func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	doc, err := r.store.Get(ctx, TeachersCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setTeacherID)
}

func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(TeachersCollection).Ordered("nombre"))
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return decodeDocs(docs, setTeacherID)
}

// Save writes the full profile under the teacher's account id.
func (r *TeacherRepository) Save(ctx context.Context, teacher *models.Teacher) error {
	return r.store.Set(ctx, TeachersCollection, teacher.ID, docstore.Data{
		"nombre": teacher.Name,
		"cedula": teacher.NationalID,
		"email":  teacher.Email,
		"role":   string(models.RoleTeacher),
		"uid":    teacher.ID,
	}, false)
}

func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	return r.store.Update(ctx, TeachersCollection, teacher.ID, docstore.Data{
		"nombre": teacher.Name,
		"cedula": teacher.NationalID,
		"email":  teacher.Email,
	})
}

func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, TeachersCollection, id)
}

// StudentRepository persists student enrollments keyed by account id.
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

func setStudentID(s *models.Student, id string) { s.ID = id }

func studentDoc(s *models.Student) docstore.Data {
	subjects := make([]interface{}, 0, len(s.Subjects))
	for _, ref := range s.Subjects {
		subjects = append(subjects, map[string]interface{}{"id": ref.ID, "nombre": ref.Name})
	}
	return docstore.Data{
		"nombre":      s.Name,
		"cedula":      s.NationalID,
		"email":       s.Email,
		"grado":       s.Grade,
		"paralelo":    string(s.Section),
		"cursoId":     s.CourseID,
		"asignaturas": subjects,
		"idPadre":     s.ParentID,
	}
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	doc, err := r.store.Get(ctx, StudentsCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setStudentID)
}

// List returns students matching every non-empty filter field except Search.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	q := docstore.Collection(StudentsCollection)
	if filter.Grade != "" {
		q = q.Where("grado", filter.Grade)
	}
	if filter.Section != "" {
		q = q.Where("paralelo", string(filter.Section))
	}
	if filter.CourseID != "" {
		q = q.Where("cursoId", filter.CourseID)
	}
	docs, err := r.store.Query(ctx, q.Ordered("nombre"))
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return decodeDocs(docs, setStudentID)
}

// Save writes the full enrollment under the student's account id.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) error {
	data := studentDoc(student)
	data["uid"] = student.ID
	return r.store.Set(ctx, StudentsCollection, student.ID, data, false)
}

func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.store.Update(ctx, StudentsCollection, student.ID, studentDoc(student))
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, StudentsCollection, id)
}

// ParentRepository persists parents.
type ParentRepository struct {
	store docstore.Store
}

// NewParentRepository constructs a parent repository.
func NewParentRepository(store docstore.Store) *ParentRepository {
	return &ParentRepository{store: store}
}

func setParentID(p *models.Parent, id string) { p.ID = id }

func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	doc, err := r.store.Get(ctx, ParentsCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setParentID)
}

// SearchByNamePrefix runs the range query [prefix, prefix+) on names.
func (r *ParentRepository) SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]models.Parent, error) {
	q := docstore.Collection(ParentsCollection).
		Range("nombre", prefix, docstore.PrefixUpper(prefix)).
		Ordered("nombre").
		Take(limit)
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search parents: %w", err)
	}
	return decodeDocs(docs, setParentID)
}

func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	id, err := r.store.Add(ctx, ParentsCollection, docstore.Data{
		"nombre": parent.Name,
		"cedula": parent.NationalID,
	})
	if err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	parent.ID = id
	return nil
}

// AccountRepository reads administrator profiles.
type AccountRepository struct {
	store docstore.Store
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(store docstore.Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func setAccountID(a *models.Account, id string) { a.ID = id }

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	doc, err := r.store.Get(ctx, AccountsCollection, id)
	if err != nil {
		return nil, err
	}
	return decodeDoc(doc, setAccountID)
}

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	return r.store.Set(ctx, AccountsCollection, account.ID, docstore.Data{
		"uid":    account.ID,
		"name":   account.Name,
		"cedula": account.NationalID,
		"email":  account.Email,
		"role":   string(account.Role),
	}, false)
}

// Probe reports which portal collections hold a profile for id, in role-resolution order.
func (r *AccountRepository) Probe(ctx context.Context, id string) (teacher *models.Teacher, student *models.Student, account *models.Account, err error) {
	if doc, getErr := r.store.Get(ctx, TeachersCollection, id); getErr == nil {
		teacher, err = decodeDoc(doc, setTeacherID)
		return
	} else if !IsNotFound(getErr) {
		return nil, nil, nil, getErr
	}
	if doc, getErr := r.store.Get(ctx, StudentsCollection, id); getErr == nil {
		student, err = decodeDoc(doc, setStudentID)
		return
	} else if !IsNotFound(getErr) {
		return nil, nil, nil, getErr
	}
	account, err = r.FindByID(ctx, id)
	return
}
