package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/model"
	"github.com/sakif/knowledge-hub/internal/repository"
)

// Compile-time check that *DB satisfies the repository contract.
var _ repository.SnippetRepository = (*DB)(nil)

// Create inserts a new snippet.
//
// Generated IDs use xid: 20 chars, URL-safe, sortable by creation time.
// A caller-supplied ID is honoured but collides with an existing row as a
// Conflict — the UNIQUE constraint on id is the backstop for the race
// between the existence check and the insert.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	if snippet.ID == "" {
		snippet.ID = xid.New().String()
	} else {
		var exists int
		err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM knowledge WHERE id = ?`, snippet.ID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking knowledge id: %w", err)
		}
		if exists > 0 {
			return apperror.Conflict("knowledge", snippet.ID)
		}
	}

	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO knowledge (id, title, content, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Content,
		snippet.Category,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating knowledge: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated into the domain NotFound error so the handler
// knows to return 404 — storage details never leak past this layer.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var snippet model.Snippet

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, category, created_at, updated_at
		 FROM knowledge
		 WHERE id = ?`,
		id,
	).Scan(
		&snippet.ID,
		&snippet.Title,
		&snippet.Content,
		&snippet.Category,
		&snippet.CreatedAt,
		&snippet.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("knowledge", id)
		}
		return nil, fmt.Errorf("sqlite: getting knowledge %s: %w", id, err)
	}

	return &snippet, nil
}

// List returns the entire collection in insertion order (ORDER BY seq).
// No LIMIT/OFFSET: the repository contract is a complete snapshot.
func (db *DB) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, category, created_at, updated_at
		 FROM knowledge
		 ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing knowledge: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Content, &s.Category,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning knowledge row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating knowledge: %w", err)
	}

	return snippets, nil
}

// Update replaces title, content and category of an existing snippet.
// id, seq and created_at are immutable; updated_at is stamped here.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE knowledge
		 SET title = ?, content = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Content,
		snippet.Category,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating knowledge %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("knowledge", snippet.ID)
	}

	return nil
}

// Delete removes a snippet by ID. Unlike Update, zero rows affected is NOT
// an error — delete is idempotent by contract, the end state is the same.
func (db *DB) Delete(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM knowledge WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting knowledge %s: %w", id, err)
	}
	return nil
}
