package repository

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/escuela-portal-api/pkg/docstore"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = docstore.ErrNotFound

var timeType = reflect.TypeOf(time.Time{})

// timeHook accepts RFC 3339 strings (JSONB backends) and native timestamps
// (Firestore, memory); empty strings decode to the zero time.
func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	raw := data.(string)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func decode(data docstore.Data, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeHook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// decodeDocs decodes every document and hands each result its id.
func decodeDocs[T any](docs []docstore.Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := decode(doc.Data, &item); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
		}
		setID(&item, doc.ID)
		out = append(out, item)
	}
	return out, nil
}

func decodeDoc[T any](doc *docstore.Document, setID func(*T, string)) (*T, error) {
	items, err := decodeDocs[T]([]docstore.Document{*doc}, setID)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// IsNotFound reports whether err means the document is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
