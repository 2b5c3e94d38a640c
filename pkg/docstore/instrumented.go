package docstore

import (
	"context"
	"errors"
	"time"
)

// Observer receives the latency and outcome of every gateway call.
type Observer interface {
	ObserveBackendCall(op string, duration time.Duration, err error)
}

type instrumented struct {
	next     Store
	observer Observer
}

// Instrument wraps s so each call is reported to observer. A nil observer returns s unchanged.
func Instrument(s Store, observer Observer) Store {
	if observer == nil {
		return s
	}
	return &instrumented{next: s, observer: observer}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	i.observer.ObserveBackendCall(op, time.Since(start), err)
}

func (i *instrumented) Get(ctx context.Context, collection, id string) (*Document, error) {
	start := time.Now()
	doc, err := i.next.Get(ctx, collection, id)
	i.observe("get", start, err)
	return doc, err
}

func (i *instrumented) Set(ctx context.Context, collection, id string, data Data, merge bool) error {
	start := time.Now()
	err := i.next.Set(ctx, collection, id, data, merge)
	i.observe("set", start, err)
	return err
}

func (i *instrumented) Add(ctx context.Context, collection string, data Data) (string, error) {
	start := time.Now()
	id, err := i.next.Add(ctx, collection, data)
	i.observe("add", start, err)
	return id, err
}

func (i *instrumented) Update(ctx context.Context, collection, id string, data Data) error {
	start := time.Now()
	err := i.next.Update(ctx, collection, id, data)
	i.observe("update", start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := i.next.Delete(ctx, collection, id)
	i.observe("delete", start, err)
	return err
}

func (i *instrumented) Query(ctx context.Context, q Query) ([]Document, error) {
	start := time.Now()
	docs, err := i.next.Query(ctx, q)
	i.observe("query", start, err)
	return docs, err
}

func (i *instrumented) Watch(ctx context.Context, q Query, fn func([]Document)) (func(), error) {
	start := time.Now()
	stop, err := i.next.Watch(ctx, q, fn)
	i.observe("watch", start, err)
	return stop, err
}
