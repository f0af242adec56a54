package httpapi

import (
	"net/http"

	"labcatalog/internal/service"
)

// NotesHandler issue notes endpoints
type NotesHandler struct {
	notes *service.NoteService
	ErrorWriter
}

func NewNotesHandler(notes *service.NoteService, errs ErrorWriter) *NotesHandler {
	return &NotesHandler{notes: notes, ErrorWriter: errs}
}

// ListNotes GET /api/notes[?status=open|inProgress|closed]
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.ListNotes(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(notes))
}

func (h *NotesHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(note))
}

func (h *NotesHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateNoteRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	note, err := h.notes.UpdateNote(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(note))
}

func (h *NotesHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNoteRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.notes.CreateNote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]string{"id": id}))
}
