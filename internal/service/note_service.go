package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"

	"go.uber.org/zap"
)

// NoteService issue records tied to a compound+method pair.
// Status is a free label over open/inProgress/closed: every transition is allowed.
type NoteService struct {
	notes     repository.NotesRepository
	methods   repository.MethodsRepository
	publisher notify.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewNoteService(notes repository.NotesRepository, methods repository.MethodsRepository, publisher notify.Publisher, logger *zap.Logger) *NoteService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &NoteService{
		notes:     notes,
		methods:   methods,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateNoteRequest body of POST /api/save-notes
type CreateNoteRequest struct {
	CompoundName string `json:"compoundName" validate:"notblank"`
	CompoundCAS  string `json:"compoundCAS"`
	MethodName   string `json:"methodName"`
	NotesText    string `json:"notesText" validate:"notblank"`
	// MethodDetails snapshot of the method attributes as displayed. When
	// absent and MethodID is set, the stored method is snapshotted instead.
	MethodDetails map[string]any `json:"methodDetails"`
	MethodID      string         `json:"methodId,omitempty"`
}

// CreateNote stores a new open note and returns its id.
func (s *NoteService) CreateNote(ctx context.Context, req CreateNoteRequest) (string, error) {
	p, err := auth.RequireUser(ctx)
	if err != nil {
		return "", err
	}
	if err := validateRequest(req); err != nil {
		return "", err
	}

	details, err := s.snapshot(ctx, req)
	if err != nil {
		return "", err
	}
	note := &domain.Note{
		Compound:      strings.TrimSpace(req.CompoundName),
		CAS:           strings.TrimSpace(req.CompoundCAS),
		Method:        strings.TrimSpace(req.MethodName),
		Notes:         req.NotesText,
		MethodDetails: details,
		Status:        domain.NoteStatusOpen,
		CreatedAt:     s.now(),
	}
	id, err := s.notes.CreateNote(ctx, note)
	if err != nil {
		return "", fmt.Errorf("failed to create note: %w", err)
	}

	s.logger.Info("note created", zap.String("note_id", id), zap.String("compound", note.Compound), zap.String("by", p.Email))
	s.publish(ctx, notify.Event{
		Type:    notify.EventNoteCreated,
		Subject: note.Compound,
		At:      note.CreatedAt,
		Payload: map[string]any{"id": id, "method": note.Method, "by": p.Email},
	})
	return id, nil
}

// snapshot deep-copies the supplied details so later edits to the caller's
// map or to the method never reach the stored note.
func (s *NoteService) snapshot(ctx context.Context, req CreateNoteRequest) (map[string]any, error) {
	if req.MethodDetails == nil && req.MethodID != "" {
		m, err := s.methods.GetMethod(ctx, req.MethodID)
		if err != nil {
			return nil, fmt.Errorf("snapshot method %s: %w", req.MethodID, err)
		}
		return m.Snapshot(), nil
	}
	if req.MethodDetails == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(req.MethodDetails)
	if err != nil {
		return nil, domain.Validationf("methodDetails: %v", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, domain.Validationf("methodDetails: %v", err)
	}
	return out, nil
}

// UpdateNoteRequest body of PUT /api/notes/{id}; nil fields are left unchanged.
type UpdateNoteRequest struct {
	CorrectiveActions *string `json:"correctiveActions"`
	AssignedTo        *string `json:"assignedTo"`
	Status            *string `json:"status"`
}

// UpdateNote applies a partial update. An invalid status is rejected before
// anything is written.
func (s *NoteService) UpdateNote(ctx context.Context, id string, req UpdateNoteRequest) (*domain.Note, error) {
	p, err := auth.RequireAdmin(ctx, "update note")
	if err != nil {
		return nil, err
	}
	patch := repository.NotePatch{
		CorrectiveActions: req.CorrectiveActions,
		AssignedTo:        req.AssignedTo,
		UpdatedAt:         s.now(),
	}
	if req.Status != nil {
		st, err := domain.ParseNoteStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &st
	}

	if err := s.notes.PatchNote(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload note %s: %w", id, err)
	}

	s.logger.Info("note updated", zap.String("note_id", id), zap.String("status", string(note.Status)), zap.String("by", p.Email))
	s.publish(ctx, notify.Event{
		Type:    notify.EventNoteUpdated,
		Subject: id,
		At:      patch.UpdatedAt,
		Payload: map[string]any{"status": string(note.Status), "assignedTo": note.AssignedTo, "by": p.Email},
	})
	return note, nil
}

// ListNotes newest first. status "" lists every note; otherwise it must be a
// valid status and is pushed down to the store as an equality filter.
func (s *NoteService) ListNotes(ctx context.Context, status string) ([]*domain.Note, error) {
	if _, err := auth.RequireAdmin(ctx, "list notes"); err != nil {
		return nil, err
	}
	var filter domain.NoteStatus
	if strings.TrimSpace(status) != "" {
		st, err := domain.ParseNoteStatus(status)
		if err != nil {
			return nil, err
		}
		filter = st
	}
	notes, err := s.notes.ListNotes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

func (s *NoteService) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	if _, err := auth.RequireAdmin(ctx, "read note"); err != nil {
		return nil, err
	}
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	return note, nil
}

func (s *NoteService) publish(ctx context.Context, ev notify.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("note event not delivered", zap.String("type", ev.Type), zap.Error(err))
	}
}
