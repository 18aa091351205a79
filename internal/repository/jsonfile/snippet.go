package jsonfile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/model"
	"github.com/sakif/knowledge-hub/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// Verifies at compile time that *Store implements repository.SnippetRepository.
// If a method is missing or has the wrong signature, the build fails here,
// not at some distant call site.
var _ repository.SnippetRepository = (*Store)(nil)

// Create adds a new snippet to the collection and persists it.
//
// ID GENERATION:
// IDs are random UUIDv4 strings (128 bits of randomness) — globally unique
// without coordination, so concurrent creates can't collide. A caller MAY
// supply its own ID; if that ID is already taken, Create returns a Conflict
// instead of overwriting the existing record.
//
// The pointer receiver matters: after Create returns, the caller's snippet
// carries the generated ID and timestamps.
func (s *Store) Create(ctx context.Context, snippet *model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snippet.ID == "" {
		snippet.ID = uuid.NewString()
	} else if s.indexOf(snippet.ID) >= 0 {
		return apperror.Conflict("knowledge", snippet.ID)
	}

	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	// Build the new collection first, persist it, and only then commit it.
	// If the write fails, the in-memory state (and the old file) are intact.
	next := make([]model.Snippet, len(s.snippets), len(s.snippets)+1)
	copy(next, s.snippets)
	next = append(next, *snippet)

	if err := s.persist(next); err != nil {
		return err
	}
	s.snippets = next

	return nil
}

// GetByID returns a copy of the snippet with the given ID.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("knowledge", id)
	}

	// Return a copy — callers must never hold references into the store.
	found := s.snippets[i]
	return &found, nil
}

// List returns a snapshot of all snippets in insertion order.
//
// There is deliberately no pagination or filtering: the collection is the
// whole point — the agent consumes it in full as context, and the UI shows
// all of it. This is an explicit contract, not a missing feature.
func (s *Store) List(ctx context.Context) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Snippet, len(s.snippets))
	copy(out, s.snippets)
	return out, nil
}

// Update replaces the mutable fields (title, content, category) of an
// existing snippet and persists the collection. ID and CreatedAt never
// change; UpdatedAt is stamped here.
func (s *Store) Update(ctx context.Context, snippet *model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(snippet.ID)
	if i < 0 {
		return apperror.NotFound("knowledge", snippet.ID)
	}

	updated := s.snippets[i]
	updated.Title = snippet.Title
	updated.Content = snippet.Content
	updated.Category = snippet.Category
	updated.UpdatedAt = time.Now().UTC()

	next := make([]model.Snippet, len(s.snippets))
	copy(next, s.snippets)
	next[i] = updated

	if err := s.persist(next); err != nil {
		return err
	}
	s.snippets = next

	*snippet = updated
	return nil
}

// Delete removes the snippet with the given ID if it exists.
//
// IDEMPOTENT BY CONTRACT:
// Deleting an absent ID is SUCCESS, not an error. The end state the caller
// asked for ("no snippet with this id") holds either way, and retrying a
// delete after a dropped response must not surface a spurious 404.
// When the ID is absent we don't rewrite the file at all — nothing changed.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]model.Snippet, 0, len(s.snippets)-1)
	next = append(next, s.snippets[:i]...)
	next = append(next, s.snippets[i+1:]...)

	if err := s.persist(next); err != nil {
		return err
	}
	s.snippets = next

	return nil
}

// indexOf returns the position of the snippet with the given ID, or -1.
// Linear scan — the collection is small and kept in insertion order, so a
// side index would buy nothing but bookkeeping. Caller must hold mu.
func (s *Store) indexOf(id string) int {
	for i := range s.snippets {
		if s.snippets[i].ID == id {
			return i
		}
	}
	return -1
}
