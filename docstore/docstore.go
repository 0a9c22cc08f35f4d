// Package docstore is the client boundary to a schemaless document store.
// Documents live in named collections, are addressed by a store assigned ID and
// hold a flat set of untyped fields.
package docstore

import (
	"context"
	"encoding/json"
	"reflect"
)

// Document is the flat, untyped field set of a stored record.
type Document map[string]any

// Clone returns a shallow copy; stored values are scalars so this is enough to
// keep callers from mutating store state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Snapshot is a document read back from the store together with its ID.
type Snapshot struct {
	ID     string
	Fields Document
}

// Condition is an equality test on one field. It is used both as a query
// filter and as a write precondition.
type Condition struct {
	Field string
	Value any
}

// WhereEquals builds an equality condition.
func WhereEquals(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}

// Store is implemented by every document store backend.
//
// UpdateFields and Delete evaluate their preconditions atomically with the
// write. A document that does not satisfy them is reported as
// errors.ErrNotFound and left untouched. Delete of a missing document is not
// an error.
type Store interface {
	Insert(ctx context.Context, collection string, fields Document) (string, error)
	Query(ctx context.Context, collection string, where ...Condition) ([]Snapshot, error)
	UpdateFields(ctx context.Context, collection, id string, fields Document, preconditions ...Condition) error
	Delete(ctx context.Context, collection, id string, preconditions ...Condition) error
	Close() error
}

// Matches reports whether doc satisfies every condition.
func Matches(doc Document, conditions ...Condition) bool {
	for _, c := range conditions {
		v, ok := doc[c.Field]
		if !ok || !valuesEqual(v, c.Value) {
			return false
		}
	}
	return true
}

// valuesEqual compares field values, treating all numeric kinds alike since
// a JSON round trip turns ints into float64.
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
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
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
