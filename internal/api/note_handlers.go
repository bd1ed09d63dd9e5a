package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/http/response"
	"github.com/dipa/notefournote-server/internal/service"
)

// NoteResponse is the wire representation of a note, including the
// requesting user's ownership classification.
type NoteResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Tags       []string         `json:"tags"`
	Owner      string           `json:"owner"`
	SharedWith []string         `json:"shared_with"`
	Ownership  domain.Ownership `json:"ownership"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// newNoteResponse builds the response DTO for a note as seen by username.
// The recipient list is visible to the owner only; recipients must not learn
// who else the note was shared with.
func newNoteResponse(note *domain.Note, username string) NoteResponse {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	sharedWith := []string{}
	if note.IsOwner(username) && note.SharedWith != nil {
		sharedWith = note.SharedWith
	}

	return NoteResponse{
		ID:         note.ID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       tags,
		Owner:      note.OwnerUsername,
		SharedWith: sharedWith,
		Ownership:  note.Classify(username),
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

func newNoteResponses(notes []*domain.Note, username string) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteResponse(n, username))
	}
	return out
}

// handleCreateNote creates a note owned by the authenticated user.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)

	var req service.CreateNoteRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	note, err := s.noteService.CreateNote(ctx, username, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, newNoteResponse(note, username), s.logger)
}

// handleListNotes returns the user's owned and shared notes, most recently
// updated first.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)

	notes, err := s.noteService.ListNotes(ctx, username)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newNoteResponses(notes, username), s.logger)
}

// handleGetNote returns a single note if the user has access.
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)
	id := chi.URLParam(r, "id")

	if id == "" {
		response.BadRequest(w, "Note ID is required", s.logger)
		return
	}

	note, err := s.noteService.GetNote(ctx, username, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newNoteResponse(note, username), s.logger)
}

// handleUpdateNote replaces a note's title, content, and tags.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateNoteRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	note, err := s.noteService.UpdateNote(ctx, username, id, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newNoteResponse(note, username), s.logger)
}

// handleDeleteNote deletes a note the user owns.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)
	id := chi.URLParam(r, "id")

	if err := s.noteService.DeleteNote(ctx, username, id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleShareNote grants another user read access to a note.
func (s *Server) handleShareNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)
	id := chi.URLParam(r, "id")

	var req service.ShareNoteRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	note, err := s.noteService.ShareNote(ctx, username, id, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newNoteResponse(note, username), s.logger)
}

// handleSearchNotes runs a text and tag search over the user's accessible
// notes. Query parameters: q for text, tags for a comma-separated tag list.
func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := getUsername(ctx)

	req := service.SearchNotesRequest{
		Text: r.URL.Query().Get("q"),
	}
	if rawTags := r.URL.Query().Get("tags"); rawTags != "" {
		req.Tags = strings.Split(rawTags, ",")
	}

	notes, err := s.noteService.SearchNotes(ctx, username, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newNoteResponses(notes, username), s.logger)
}
