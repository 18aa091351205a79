package repository

import (
	"context"

	"github.com/sakif/knowledge-hub/internal/model"
)

// SnippetRepository is the storage contract for knowledge snippets.
//
// Semantics every implementation must honour:
//   - Create generates an ID when snippet.ID is empty; a supplied ID that
//     already exists is a Conflict.
//   - List returns ALL snippets in insertion order — no pagination. The
//     collection is a complete snapshot; callers own the returned values.
//   - Delete is idempotent: deleting an absent ID succeeds silently.
//   - A mutation is not acknowledged (nil error) until it is durably
//     persisted.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}
