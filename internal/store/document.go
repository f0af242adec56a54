package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound the addressed document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrInvalidFilter the filter cannot be expressed by the backend
	ErrInvalidFilter = errors.New("invalid filter")
)

// Document a schema-less record addressed by collection + id.
// Fields hold JSON-compatible values only (string, float64, bool, nil, []any, map[string]any).
type Document struct {
	ID     string
	Fields map[string]any
}

// Op filter operator
type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLess           Op = "<"
	OpArrayContains  Op = "array-contains"
)

// Filter a single predicate on a top-level field. Filters in one query are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// WriteKind batch operation kind
type WriteKind int

const (
	WriteSet    WriteKind = iota // create or overwrite
	WriteUpdate                  // merge top-level fields, document must exist
	WriteDelete                  // remove, absent documents are ignored
)

// WriteOp one entry of a Batch. A WriteSet with an empty ID gets a generated id.
type WriteOp struct {
	Kind       WriteKind
	Collection string
	ID         string
	Fields     map[string]any
}

// SetOp creates or overwrites collection/id.
func SetOp(collection, id string, fields map[string]any) WriteOp {
	return WriteOp{Kind: WriteSet, Collection: collection, ID: id, Fields: fields}
}

// UpdateOp merges fields into an existing document.
func UpdateOp(collection, id string, fields map[string]any) WriteOp {
	return WriteOp{Kind: WriteUpdate, Collection: collection, ID: id, Fields: fields}
}

// DeleteOp removes collection/id.
func DeleteOp(collection, id string) WriteOp {
	return WriteOp{Kind: WriteDelete, Collection: collection, ID: id}
}

// DocumentStore generic collection API consumed by the repositories.
//
// Batch is all-or-nothing on every backend in this package: the SQL stores run it
// in one transaction, the memory store stages it under a single lock.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Batch(ctx context.Context, ops []WriteOp) error
	Close() error
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateName(kind, name string) error {
	if !fieldNameRe.MatchString(name) {
		return fmt.Errorf("%w: bad %s name %q", ErrInvalidFilter, kind, name)
	}
	return nil
}

func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := validateName("field", f.Field); err != nil {
			return err
		}
		switch f.Op {
		case OpEqual, OpArrayContains:
		case OpGreaterOrEqual, OpLess:
			switch f.Value.(type) {
			case string, float64, int, int64:
			default:
				return fmt.Errorf("%w: range on %s needs a string or number, got %T", ErrInvalidFilter, f.Field, f.Value)
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
		}
	}
	return nil
}

// Encode converts a typed record into document fields through its JSON form.
// The "id" key is dropped: ids live beside the fields.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

// Decode fills out (a pointer to a typed record) from doc, setting its "id".
func Decode(doc Document, out any) error {
	fields := make(map[string]any, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	fields["id"] = doc.ID
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// normalize deep-copies fields into their JSON value forms.
func normalize(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("normalize fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("normalize fields: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeFields returns base overlaid with patch (top level only), without mutating either.
func mergeFields(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
