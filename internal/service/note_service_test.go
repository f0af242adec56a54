package service

import (
	"context"
	"testing"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/domain"
	"labcatalog/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreateNote_SnapshotIsIsolated(t *testing.T) {
	env := newTestEnv(t)
	methodID := env.seedMethod(t, domain.Method{Name: "NIOSH 1300", ReportingLimit: "0.01 mg"})

	details := map[string]any{"method": "NIOSH 1300", "reportingLimit": "0.01 mg", "media": []any{"CSC"}}
	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{
		CompoundName:  " Acetone ",
		CompoundCAS:   "67-64-1",
		MethodName:    "NIOSH 1300",
		NotesText:     "RL looks wrong",
		MethodDetails: details,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	details["reportingLimit"] = "changed"
	details["media"].([]any)[0] = "changed"
	_, err = env.catalog.UpdateMethod(adminCtx, methodID, domain.Method{Name: "NIOSH 1300", ReportingLimit: "5 mg"})
	require.NoError(t, err)

	note, err := env.notes.GetNote(adminCtx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acetone", note.Compound)
	assert.Equal(t, domain.NoteStatusOpen, note.Status)
	assert.Equal(t, "0.01 mg", note.MethodDetails["reportingLimit"])
	assert.Equal(t, []any{"CSC"}, note.MethodDetails["media"])
	assert.Nil(t, note.UpdatedAt)
	assert.Equal(t, []string{notify.EventNoteCreated}, env.events.types())
}

func TestCreateNote_SnapshotFromStoredMethod(t *testing.T) {
	env := newTestEnv(t)
	methodID := env.seedMethod(t, domain.Method{Name: "EPA TO-15", StandardTAT: "5 days"})

	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Benzene", NotesText: "check TAT", MethodID: methodID})
	require.NoError(t, err)

	note, err := env.notes.GetNote(adminCtx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"method": "EPA TO-15", "standardTAT": "5 days"}, note.MethodDetails)

	_, err = env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Benzene", NotesText: "x", MethodID: "gone"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateNote_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Acetone", NotesText: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.notes.CreateNote(userCtx, CreateNoteRequest{NotesText: "text"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.notes.CreateNote(context.Background(), CreateNoteRequest{CompoundName: "Acetone", NotesText: "text"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	assert.Empty(t, env.events.types())
}

func TestUpdateNote_AnyTransitionAllowed(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Acetone", NotesText: "n"})
	require.NoError(t, err)

	for _, st := range []string{"closed", "open", "inProgress", "closed", "inProgress"} {
		note, err := env.notes.UpdateNote(adminCtx, id, UpdateNoteRequest{Status: strPtr(st)})
		require.NoError(t, err, st)
		assert.Equal(t, domain.NoteStatus(st), note.Status)
		require.NotNil(t, note.UpdatedAt)
	}
}

func TestUpdateNote_PartialFields(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Acetone", NotesText: "n"})
	require.NoError(t, err)

	_, err = env.notes.UpdateNote(adminCtx, id, UpdateNoteRequest{AssignedTo: strPtr("chemist@lab.example")})
	require.NoError(t, err)
	note, err := env.notes.UpdateNote(adminCtx, id, UpdateNoteRequest{CorrectiveActions: strPtr("re-ran blank")})
	require.NoError(t, err)

	assert.Equal(t, "chemist@lab.example", note.AssignedTo)
	assert.Equal(t, "re-ran blank", note.CorrectiveActions)
	assert.Equal(t, domain.NoteStatusOpen, note.Status)
	assert.Equal(t, "n", note.Notes)
	assert.Equal(t, []string{notify.EventNoteCreated, notify.EventNoteUpdated, notify.EventNoteUpdated}, env.events.types())
}

func TestUpdateNote_RejectsInvalidStatusWithoutWriting(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Acetone", NotesText: "n"})
	require.NoError(t, err)

	_, err = env.notes.UpdateNote(adminCtx, id, UpdateNoteRequest{Status: strPtr("done"), AssignedTo: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	note, err := env.notes.GetNote(adminCtx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.NoteStatusOpen, note.Status)
	assert.Empty(t, note.AssignedTo)
	assert.Nil(t, note.UpdatedAt)
}

func TestUpdateNote_Errors(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: "Acetone", NotesText: "n"})
	require.NoError(t, err)

	_, err = env.notes.UpdateNote(userCtx, id, UpdateNoteRequest{Status: strPtr("closed")})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = env.notes.UpdateNote(adminCtx, "missing", UpdateNoteRequest{Status: strPtr("closed")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.notes.GetNote(adminCtx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.notes.ListNotes(userCtx, "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestListNotes_FilterAndNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.notes.now = fixedClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))

	var ids []string
	for _, compound := range []string{"first", "second", "third"} {
		id, err := env.notes.CreateNote(userCtx, CreateNoteRequest{CompoundName: compound, NotesText: "n"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := env.notes.UpdateNote(adminCtx, ids[1], UpdateNoteRequest{Status: strPtr("closed")})
	require.NoError(t, err)

	all, err := env.notes.ListNotes(adminCtx, "")
	require.NoError(t, err)
	var order []string
	for _, n := range all {
		order = append(order, n.Compound)
	}
	assert.Equal(t, []string{"third", "second", "first"}, order)

	open, err := env.notes.ListNotes(adminCtx, "open")
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, n := range open {
		assert.Equal(t, domain.NoteStatusOpen, n.Status)
	}

	closed, err := env.notes.ListNotes(adminCtx, "closed")
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, ids[1], closed[0].ID)

	_, err = env.notes.ListNotes(adminCtx, "Closed")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
