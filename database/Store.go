package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProfileCollection  = "profile"
	UsersCollection    = "users"
	ContentsCollection = "contents"
	AccountsCollection = "accounts"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrNotArray = errors.New("field is not an array")
)

// Document is a raw stored document. The id lives under "_id".
type Document = bson.M

// Store is the document store every module talks to. Updates are atomic per
// document; nothing spans documents.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Create(ctx context.Context, collection string, fields Document) (string, error)
	Set(ctx context.Context, collection, id string, fields Document) error
	Update(ctx context.Context, collection, id string, deltas ...Delta) error
}

type FilterOp int

const (
	OpEq FilterOp = iota
	OpIn
)

type Filter struct {
	Field  string
	Op     FilterOp
	Value  any
	Values []any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func In[T any](field string, values []T) Filter {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Filter{Field: field, Op: OpIn, Values: vals}
}

type DeltaKind int

const (
	DeltaSet DeltaKind = iota
	DeltaAddToSet
	DeltaRemoveFromSet
)

type Delta struct {
	Kind  DeltaKind
	Field string
	Value any
}

func SetField(field string, value any) Delta {
	return Delta{Kind: DeltaSet, Field: field, Value: value}
}

func AddToSet(field string, value any) Delta {
	return Delta{Kind: DeltaAddToSet, Field: field, Value: value}
}

func RemoveFromSet(field string, value any) Delta {
	return Delta{Kind: DeltaRemoveFromSet, Field: field, Value: value}
}

// Decode maps a document onto a model struct through its bson tags.
func Decode(doc Document, v any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, v)
}

// StringSet reads an array-of-strings field. Anything that is not an array
// yields an empty set.
func StringSet(v any) []string {
	var items []any
	switch arr := v.(type) {
	case []string:
		return append([]string{}, arr...)
	case primitive.A:
		items = arr
	case []any:
		items = arr
	default:
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		value, ok := doc[f.Field]
		switch f.Op {
		case OpEq:
			if !ok || !equalOrContains(value, f.Value) {
				return false
			}
		case OpIn:
			if !ok || !containsValue(f.Values, value) {
				return false
			}
		}
	}
	return true
}

func equalOrContains(value, want any) bool {
	if arr, ok := toSlice(value); ok {
		return containsValue(arr, want)
	}
	return reflect.DeepEqual(value, want)
}

func containsValue(arr []any, want any) bool {
	for _, item := range arr {
		if reflect.DeepEqual(item, want) {
			return true
		}
	}
	return false
}

func toSlice(v any) ([]any, bool) {
	switch arr := v.(type) {
	case primitive.A:
		return arr, true
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// applyDeltas mutates doc in place with the same semantics as Mongo's
// $set, $addToSet and $pull.
func applyDeltas(doc Document, deltas []Delta) error {
	for _, d := range deltas {
		switch d.Kind {
		case DeltaSet:
			doc[d.Field] = d.Value
		case DeltaAddToSet:
			current, ok := doc[d.Field]
			if !ok || current == nil {
				doc[d.Field] = primitive.A{d.Value}
				continue
			}
			arr, ok := toSlice(current)
			if !ok {
				return fmt.Errorf("add to %q: %w", d.Field, ErrNotArray)
			}
			if !containsValue(arr, d.Value) {
				arr = append(append(primitive.A{}, arr...), d.Value)
			}
			doc[d.Field] = primitive.A(arr)
		case DeltaRemoveFromSet:
			current, ok := doc[d.Field]
			if !ok || current == nil {
				continue
			}
			arr, ok := toSlice(current)
			if !ok {
				return fmt.Errorf("remove from %q: %w", d.Field, ErrNotArray)
			}
			kept := primitive.A{}
			for _, item := range arr {
				if !reflect.DeepEqual(item, d.Value) {
					kept = append(kept, item)
				}
			}
			doc[d.Field] = kept
		default:
			return fmt.Errorf("unknown delta kind %d", d.Kind)
		}
	}
	return nil
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if arr, ok := toSlice(v); ok {
			out[k] = append(primitive.A{}, arr...)
			continue
		}
		out[k] = v
	}
	return out
}
