package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/escuela-portal-api/internal/models"
	appErrors "github.com/noah-isme/escuela-portal-api/pkg/errors"
)

type parentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
}

// ParentConfig tunes the typeahead.
type ParentConfig struct {
	SearchMinChars int
	SearchLimit    int
	Debounce       time.Duration
}

// ParentService looks up and registers parents for the enrollment form.
type ParentService struct {
	repo      parentRepository
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ParentConfig
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentRepository, validate *validator.Validate, logger *zap.Logger, cfg ParentConfig) *ParentService {
	validate, logger = defaults(validate, logger)
	if cfg.SearchMinChars <= 0 {
		cfg.SearchMinChars = 2
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 400 * time.Millisecond
	}
	return &ParentService{repo: repo, validator: validate, logger: logger, cfg: cfg}
}

// Search returns parents whose name starts with text. Short input returns an empty list
// without touching the backend.
func (s *ParentService) Search(ctx context.Context, session models.Session, text string) ([]models.Parent, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < s.cfg.SearchMinChars {
		return []models.Parent{}, nil
	}
	parents, err := s.repo.SearchByNamePrefix(ctx, text, s.cfg.SearchLimit)
	if err != nil {
		return nil, appErrors.Backend(err, "failed to search parents")
	}
	return parents, nil
}

// Create registers a parent; name and national id are both required.
func (s *ParentService) Create(ctx context.Context, session models.Session, req models.CreateParentRequest) (*models.Parent, error) {
	if err := authorize(session, models.RoleAdmin); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.NationalID = strings.TrimSpace(req.NationalID)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "parent name and national id are required")
	}
	parent := &models.Parent{Name: req.Name, NationalID: req.NationalID}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Backend(err, "failed to create parent")
	}
	s.logger.Info("parent created", zap.String("account_id", session.AccountID), zap.String("parent_id", parent.ID))
	return parent, nil
}

// Get returns a parent by id.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	return parent, nil
}

// ParentPicker is the debounced typeahead behind the enrollment form. Typing clears any
// selection and schedules a search once input has been idle for the debounce window;
// only the latest search reports results.
type ParentPicker struct {
	service   *ParentService
	session   models.Session
	onResults func([]models.Parent, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	text     string
	selected *models.Parent
	results  []models.Parent
	timer    *time.Timer
	gen      uint64
	closed   bool
}

// NewPicker starts a picker for session. onResults may be nil.
func (s *ParentService) NewPicker(ctx context.Context, session models.Session, onResults func([]models.Parent, error)) *ParentPicker {
	ctx, cancel := context.WithCancel(ctx)
	return &ParentPicker{service: s, session: session, onResults: onResults, ctx: ctx, cancel: cancel}
}

// Type records new input.
func (p *ParentPicker) Type(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.text = text
	p.selected = nil
	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.service.cfg.Debounce, func() { p.fire(gen) })
}

func (p *ParentPicker) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	text := p.text
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	results, err := p.service.Search(p.ctx, p.session, text)

	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	if err == nil {
		p.results = results
	}
	p.mu.Unlock()

	if p.onResults != nil {
		p.onResults(results, err)
	}
}

// Select pins parent as the chosen one until the next Type.
func (p *ParentPicker) Select(parent models.Parent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
	}
	p.selected = &parent
	p.text = parent.Name
	p.results = nil
}

// Selected returns the pinned parent, if any.
func (p *ParentPicker) Selected() *models.Parent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return nil
	}
	parent := *p.selected
	return &parent
}

// Results returns the latest search results.
func (p *ParentPicker) Results() []models.Parent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Parent(nil), p.results...)
}

// Resolve returns the selected parent or registers a new one named after the typed text.
func (p *ParentPicker) Resolve(ctx context.Context, nationalID string) (*models.Parent, error) {
	p.mu.Lock()
	selected, text := p.selected, p.text
	p.mu.Unlock()
	if selected != nil {
		parent := *selected
		return &parent, nil
	}
	parent, err := p.service.Create(ctx, p.session, models.CreateParentRequest{Name: text, NationalID: nationalID})
	if err != nil {
		return nil, err
	}
	p.Select(*parent)
	return parent, nil
}

// Close stops pending searches and waits for one in flight to return.
func (p *ParentPicker) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}
