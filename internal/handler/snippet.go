package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/knowledge-hub/internal/service"
)

// SnippetHandler implements the /knowledge CRUD surface.
//
// The handler's only jobs are HTTP ones: decode the body, call the service,
// map the result to a response. Validation and persistence rules live a
// layer down, so the same rules hold no matter who calls the service.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// snippetRequest is the request body for create and update.
//
// The shapes are declared once and validated centrally by the service —
// no duck typing at the boundary. ID is accepted ONLY on create, and only
// as an optional caller-chosen identifier; on update the ID comes from the
// URL and a body ID is ignored (IDs are immutable).
type snippetRequest struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// messageResponse is the confirmation body for delete.
type messageResponse struct {
	Message string `json:"message"`
}

// HandleList returns the whole collection.
//
// HTTP: GET /knowledge/
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate saves a new snippet and returns it with its generated ID.
//
// HTTP: POST /knowledge/
// REQUEST BODY: {"title": "...", "content": "...", "category": "..."}
//
// The response is not written until the write is durable — the service
// call returns only after the store has persisted the collection.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid knowledge JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Create(r.Context(), req.ID, req.Title, req.Content, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleGetByID returns a single snippet.
//
// HTTP: GET /knowledge/{id} — 404 if absent.
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate replaces all mutable fields of an existing snippet.
//
// HTTP: PUT /knowledge/{id} — full-field replace, 404 if absent.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid knowledge JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /knowledge/{id}
//
// Always 200 with a confirmation message, whether or not the snippet
// existed — delete reports the end state, never "not found".
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "knowledge deleted"})
}
