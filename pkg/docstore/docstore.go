// Package docstore is the document-store half of the backend gateway: collection
// paths holding schemaless documents, simple equality and range queries, and live
// change subscriptions. It has no cross-document transactions.
package docstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get and Update when the document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Data is the field map of a document.
type Data = map[string]interface{}

// Document is a stored record and its collection-relative identity.
type Document struct {
	ID         string
	Collection string
	Data       Data
}

// Op is a comparison operator supported by queries.
type Op string

const (
	OpEqual Op = "=="
	OpGTE   Op = ">="
	OpLT    Op = "<"
)

// Filter restricts a query on one top-level field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Limit      int
}

// Store is implemented by every backend adapter.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Set writes the document with id. With merge, fields absent from data are preserved.
	Set(ctx context.Context, collection, id string, data Data, merge bool) error
	Add(ctx context.Context, collection string, data Data) (string, error)
	// Update patches existing fields and fails with ErrNotFound if the document is missing.
	Update(ctx context.Context, collection, id string, data Data) error
	// Delete removes the document; deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	// Watch delivers the query result now and after every change to the collection until
	// ctx ends or the returned unsubscribe func is called.
	Watch(ctx context.Context, q Query, fn func([]Document)) (func(), error)
}

// Collection starts a query on collection.
func Collection(path string) Query {
	return Query{Collection: path}
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field string, value interface{}) Query {
	return q.with(Filter{Field: field, Op: OpEqual, Value: value})
}

// Range returns a copy of q restricted to lower <= field < upper.
func (q Query) Range(field, lower, upper string) Query {
	return q.with(Filter{Field: field, Op: OpGTE, Value: lower}, Filter{Field: field, Op: OpLT, Value: upper})
}

// Ordered returns a copy of q sorted ascending by field.
func (q Query) Ordered(field string) Query {
	q.OrderBy = field
	return q
}

// Take returns a copy of q capped at n results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

func (q Query) with(filters ...Filter) Query {
	next := make([]Filter, 0, len(q.Filters)+len(filters))
	next = append(next, q.Filters...)
	next = append(next, filters...)
	q.Filters = next
	return q
}

// PrefixUpper is the exclusive upper bound of a prefix range query on text.
func PrefixUpper(text string) string {
	return text + "\uf8ff"
}

// Path joins collection and document ids into a slash-separated path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// QueryEquals is shorthand for a single-field equality query.
func QueryEquals(ctx context.Context, s Store, collection, field string, value interface{}) ([]Document, error) {
	return s.Query(ctx, Collection(collection).Where(field, value))
}

// QueryRange is shorthand for a single-field range query.
func QueryRange(ctx context.Context, s Store, collection, field, lower, upper string) ([]Document, error) {
	return s.Query(ctx, Collection(collection).Range(field, lower, upper))
}
