package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore in-process DocumentStore (development and tests)
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	newID       func() string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		newID:       uuid.NewString,
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	wanted := make([]any, len(filters))
	for i, f := range filters {
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		wanted[i] = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Document{}
	for id, fields := range s.collections[collection] {
		if matchAll(fields, filters, wanted) {
			out = append(out, Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.newID()
	if err := s.Batch(ctx, []WriteOp{SetOp(collection, id, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Batch(ctx, []WriteOp{UpdateOp(collection, id, fields)})
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return s.Batch(ctx, []WriteOp{DeleteOp(collection, id)})
}

type docKey struct {
	collection string
	id         string
}

// Batch stages every op against a view of the current state and commits only
// when all of them apply.
func (s *MemoryStore) Batch(ctx context.Context, ops []WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepared := make([]WriteOp, 0, len(ops))
	for _, op := range ops {
		if err := validateName("collection", op.Collection); err != nil {
			return err
		}
		if op.Kind == WriteSet && op.ID == "" {
			op.ID = s.newID()
		}
		if op.ID == "" {
			return fmt.Errorf("batch op on %s without id: %w", op.Collection, ErrNotFound)
		}
		if op.Kind != WriteDelete {
			fields, err := normalize(op.Fields)
			if err != nil {
				return err
			}
			op.Fields = fields
		}
		prepared = append(prepared, op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[docKey]map[string]any, len(prepared))
	lookup := func(k docKey) (map[string]any, bool) {
		if v, ok := staged[k]; ok {
			return v, v != nil
		}
		v, ok := s.collections[k.collection][k.id]
		return v, ok
	}
	for _, op := range prepared {
		k := docKey{op.Collection, op.ID}
		switch op.Kind {
		case WriteSet:
			staged[k] = op.Fields
		case WriteUpdate:
			cur, ok := lookup(k)
			if !ok {
				return fmt.Errorf("update %s/%s: %w", op.Collection, op.ID, ErrNotFound)
			}
			staged[k] = mergeFields(cur, op.Fields)
		case WriteDelete:
			staged[k] = nil
		default:
			return fmt.Errorf("unknown write kind %d", op.Kind)
		}
	}

	for k, fields := range staged {
		coll := s.collections[k.collection]
		if fields == nil {
			delete(coll, k.id)
			continue
		}
		if coll == nil {
			coll = make(map[string]map[string]any)
			s.collections[k.collection] = coll
		}
		coll[k.id] = fields
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func matchAll(fields map[string]any, filters []Filter, wanted []any) bool {
	for i, f := range filters {
		got, ok := fields[f.Field]
		if !ok {
			return false
		}
		if !match(got, f.Op, wanted[i]) {
			return false
		}
	}
	return true
}

func match(got any, op Op, want any) bool {
	switch op {
	case OpEqual:
		return reflect.DeepEqual(got, want)
	case OpArrayContains:
		arr, ok := got.([]any)
		if !ok {
			return false
		}
		for _, el := range arr {
			if reflect.DeepEqual(el, want) {
				return true
			}
		}
		return false
	case OpGreaterOrEqual:
		c, ok := compareScalars(got, want)
		return ok && c >= 0
	case OpLess:
		c, ok := compareScalars(got, want)
		return ok && c < 0
	}
	return false
}

// compareScalars orders strings bytewise and numbers numerically; mixed types never match.
func compareScalars(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := b.(float64)
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
	}
	return 0, false
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}
