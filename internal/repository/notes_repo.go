package repository

import (
	"context"
	"time"

	"labcatalog/internal/domain"
	"labcatalog/internal/store"
)

// NotePatch partial note update; nil fields are left untouched.
type NotePatch struct {
	CorrectiveActions *string
	AssignedTo        *string
	Status            *domain.NoteStatus
	UpdatedAt         time.Time
}

// NotesRepository note documents. Notes are never deleted.
type NotesRepository interface {
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	// ListNotes all notes, or only those with the given status when status != ""
	ListNotes(ctx context.Context, status domain.NoteStatus) ([]*domain.Note, error)
	CreateNote(ctx context.Context, n *domain.Note) (string, error)
	PatchNote(ctx context.Context, id string, patch NotePatch) error
}

func (r *Repository) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	return getTyped[domain.Note](ctx, r.s, CollectionNotes, id)
}

func (r *Repository) ListNotes(ctx context.Context, status domain.NoteStatus) ([]*domain.Note, error) {
	var filters []store.Filter
	if status != "" {
		filters = append(filters, store.Where("status", store.OpEqual, string(status)))
	}
	return queryTyped[domain.Note](ctx, r.s, CollectionNotes, filters...)
}

func (r *Repository) CreateNote(ctx context.Context, n *domain.Note) (string, error) {
	return create(ctx, r.s, CollectionNotes, n)
}

func (r *Repository) PatchNote(ctx context.Context, id string, patch NotePatch) error {
	fields := map[string]any{"updatedAt": patch.UpdatedAt.UTC().Format(time.RFC3339Nano)}
	if patch.CorrectiveActions != nil {
		fields["correctiveActions"] = *patch.CorrectiveActions
	}
	if patch.AssignedTo != nil {
		fields["assignedTo"] = *patch.AssignedTo
	}
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	if err := r.s.Update(ctx, CollectionNotes, id, fields); err != nil {
		return translate("update note "+id, err)
	}
	return nil
}
