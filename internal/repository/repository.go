package repository

import (
	"context"
	"errors"
	"fmt"

	"labcatalog/internal/domain"
	"labcatalog/internal/store"
)

// Collection names as stored.
const (
	CollectionCompounds = "compounds"
	CollectionMethods   = "methods"
	CollectionPanels    = "panels"
	CollectionNotes     = "notes"
	CollectionEmployees = "employees"
	CollectionTrainings = "trainings"
	CollectionJobs      = "jobs"
)

// Batcher applies a group of writes atomically.
type Batcher interface {
	Batch(ctx context.Context, ops []store.WriteOp) error
}

// Repository typed access to every collection over one DocumentStore.
// It implements all the *Repository interfaces of this package.
type Repository struct {
	s store.DocumentStore
}

func New(s store.DocumentStore) *Repository {
	return &Repository{s: s}
}

func (r *Repository) Batch(ctx context.Context, ops []store.WriteOp) error {
	if err := r.s.Batch(ctx, ops); err != nil {
		return translate("batch write", err)
	}
	return nil
}

// SetOp encodes v as a full-document write. An empty id generates one.
func SetOp(collection, id string, v any) (store.WriteOp, error) {
	fields, err := store.Encode(v)
	if err != nil {
		return store.WriteOp{}, domain.Validationf("%v", err)
	}
	return store.SetOp(collection, id, fields), nil
}

// translate maps store errors onto the domain taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	case errors.Is(err, store.ErrInvalidFilter):
		return fmt.Errorf("%w: %s: %v", domain.ErrValidation, op, err)
	default:
		return domain.Upstream(op, err)
	}
}

func getTyped[T any](ctx context.Context, s store.DocumentStore, collection, id string) (*T, error) {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, translate(fmt.Sprintf("get %s %s", collection, id), err)
	}
	out := new(T)
	if err := store.Decode(doc, out); err != nil {
		return nil, domain.Upstream("decode "+collection, err)
	}
	return out, nil
}

func queryTyped[T any](ctx context.Context, s store.DocumentStore, collection string, filters ...store.Filter) ([]*T, error) {
	docs, err := s.Query(ctx, collection, filters...)
	if err != nil {
		return nil, translate("query "+collection, err)
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		item := new(T)
		if err := store.Decode(doc, item); err != nil {
			return nil, domain.Upstream("decode "+collection, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func create(ctx context.Context, s store.DocumentStore, collection string, v any) (string, error) {
	fields, err := store.Encode(v)
	if err != nil {
		return "", domain.Validationf("%v", err)
	}
	id, err := s.Add(ctx, collection, fields)
	if err != nil {
		return "", translate("add "+collection, err)
	}
	return id, nil
}

func save(ctx context.Context, s store.DocumentStore, collection, id string, v any) error {
	op, err := SetOp(collection, id, v)
	if err != nil {
		return err
	}
	if err := s.Batch(ctx, []store.WriteOp{op}); err != nil {
		return translate(fmt.Sprintf("save %s %s", collection, id), err)
	}
	return nil
}

func remove(ctx context.Context, s store.DocumentStore, collection, id string) error {
	if err := s.Delete(ctx, collection, id); err != nil {
		return translate(fmt.Sprintf("delete %s %s", collection, id), err)
	}
	return nil
}
