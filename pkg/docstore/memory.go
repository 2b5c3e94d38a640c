package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used for local development and tests.
type Memory struct {
	mu       sync.RWMutex
	docs     map[string]map[string]Data
	watchers map[string]map[int]chan struct{}
	nextID   int
	newID    func() string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[string]Data),
		watchers: make(map[string]map[int]chan struct{}),
		newID:    func() string { return uuid.NewString() },
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Collection: collection, Data: copyData(data)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, data Data, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	coll := m.collection(collection)
	existing, ok := coll[id]
	if merge && ok {
		for k, v := range data {
			existing[k] = copyValue(v)
		}
	} else {
		coll[id] = copyData(data)
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, data Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := m.newID()
	m.mu.Lock()
	m.collection(collection)[id] = copyData(data)
	m.mu.Unlock()
	m.notify(collection)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	existing, ok := m.docs[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range data {
		existing[k] = copyValue(v)
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.docs[collection], id)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	result := make([]Document, 0)
	for id, data := range m.docs[q.Collection] {
		if Matches(data, q.Filters) {
			result = append(result, Document{ID: id, Collection: q.Collection, Data: copyData(data)})
		}
	}
	m.mu.RUnlock()

	SortDocuments(result, q.OrderBy)
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Watch runs fn on its own goroutine; it is never called concurrently with itself.
func (m *Memory) Watch(ctx context.Context, q Query, fn func([]Document)) (func(), error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	signal := make(chan struct{}, 1)
	signal <- struct{}{}

	m.mu.Lock()
	key := m.nextID
	m.nextID++
	if m.watchers[q.Collection] == nil {
		m.watchers[q.Collection] = make(map[int]chan struct{})
	}
	m.watchers[q.Collection][key] = signal
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				docs, err := m.Query(ctx, q)
				if err != nil {
					continue
				}
				fn(docs)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers[q.Collection], key)
			m.mu.Unlock()
			cancel()
			<-done
		})
	}, nil
}

func (m *Memory) collection(path string) map[string]Data {
	coll, ok := m.docs[path]
	if !ok {
		coll = make(map[string]Data)
		m.docs[path] = coll
	}
	return coll
}

func (m *Memory) notify(collection string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.watchers[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func copyData(src Data) Data {
	dst := make(Data, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyData(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = copyData(t[i])
		}
		return out
	}
	return v
}

var _ Store = (*Memory)(nil)
