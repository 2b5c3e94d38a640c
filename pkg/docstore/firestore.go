package docstore

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Cloud Firestore client. Collection paths may address
// sub-collections ("Cursos/{id}/Tareas").
type Firestore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestore wraps client.
func NewFirestore(client *firestore.Client, logger *zap.Logger) *Firestore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Firestore{client: client, logger: logger}
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return &Document{ID: snap.Ref.ID, Collection: collection, Data: snap.Data()}, nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data Data, merge bool) error {
	ref := f.client.Collection(collection).Doc(id)
	var err error
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Add(ctx context.Context, collection string, data Data) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("add document to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, data Data) error {
	updates := make([]firestore.Update, 0, len(data))
	for k, v := range data {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := f.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	iter := f.build(q).Documents(ctx)
	defer iter.Stop()

	docs := make([]Document, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Collection, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Collection: q.Collection, Data: snap.Data()})
	}
	return docs, nil
}

func (f *Firestore) Watch(ctx context.Context, q Query, fn func([]Document)) (func(), error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	iter := f.build(q).Snapshots(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					f.logger.Warn("firestore watch stopped", zap.String("collection", q.Collection), zap.Error(err))
				}
				return
			}
			all, err := snap.Documents.GetAll()
			if err != nil {
				f.logger.Warn("firestore snapshot read failed", zap.String("collection", q.Collection), zap.Error(err))
				continue
			}
			docs := make([]Document, 0, len(all))
			for _, s := range all {
				docs = append(docs, Document{ID: s.Ref.ID, Collection: q.Collection, Data: s.Data()})
			}
			fn(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (f *Firestore) build(q Query) firestore.Query {
	query := f.client.Collection(q.Collection).Query
	for _, filter := range q.Filters {
		query = query.Where(filter.Field, string(filter.Op), filter.Value)
	}
	if q.OrderBy != "" {
		query = query.OrderBy(q.OrderBy, firestore.Asc)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

var _ Store = (*Firestore)(nil)
