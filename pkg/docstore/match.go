package docstore

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Matches reports whether data satisfies every filter. It implements the query
// semantics shared by the in-process adapters.
func Matches(data Data, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !equalValues(v, f.Value) {
				return false
			}
		case OpGTE:
			c, ok := compareValues(v, f.Value)
			if !ok || c < 0 {
				return false
			}
		case OpLT:
			c, ok := compareValues(v, f.Value)
			if !ok || c >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortDocuments orders docs ascending by field, then by id.
func SortDocuments(docs []Document, field string) {
	sort.SliceStable(docs, func(i, j int) bool {
		if field != "" {
			c, ok := compareValues(docs[i].Data[field], docs[j].Data[field])
			if ok && c != 0 {
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
}

func equalValues(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	fa, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	fb, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	}
	return 0, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func validateQuery(q Query) error {
	if q.Collection == "" {
		return fmt.Errorf("docstore: query without collection")
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("docstore: filter without field")
		}
		switch f.Op {
		case OpEqual, OpGTE, OpLT:
		default:
			return fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
	}
	return nil
}
