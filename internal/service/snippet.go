// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes durable storage
//
// The service takes a repository.SnippetRepository (interface), NOT a
// concrete store. In tests we pass a mock; in production either the JSON
// document store or the sqlite backend — the service can't tell the
// difference, and that is the point.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/model"
	"github.com/sakif/knowledge-hub/internal/repository"
)

// Validation constants — named so error messages and tests reference one
// source of truth.
const (
	MaxTitleLength   = 200
	MaxContentLength = 100000 // ~100KB of text
)

// Config adjusts validation behaviour.
type Config struct {
	// AllowEmptyContent relaxes the default rule that content is required.
	// Titles are always required.
	AllowEmptyContent bool
}

// SnippetService handles business logic for knowledge snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	config Config
	logger *slog.Logger
}

// NewSnippetService creates a SnippetService. The caller decides which
// repository implementation to inject (jsonfile, sqlite, mock).
func NewSnippetService(repo repository.SnippetRepository, cfg Config, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

// validateFields enforces the field rules shared by Create and Update:
// title required and bounded, content required unless configured otherwise.
// Category is free-form and never validated.
func (s *SnippetService) validateFields(title, content string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if content == "" && !s.config.AllowEmptyContent {
		return apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	return nil
}

// Create validates and saves a new snippet.
//
// The optional id lets a caller bring its own identifier (the store rejects
// duplicates with a Conflict); normally it is empty and the store generates
// one. The method returns only after the write is durably persisted — that
// guarantee comes from the repository contract.
func (s *SnippetService) Create(ctx context.Context, id, title, content, category string) (*model.Snippet, error) {
	title = strings.TrimSpace(title)
	if err := s.validateFields(title, content); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		ID:       strings.TrimSpace(id),
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(category),
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		// Conflict propagates as-is; anything else gets context for the logs.
		s.logger.Error("failed to create knowledge",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("knowledge created",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
	)

	return snippet, nil
}

// GetByID retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "knowledge ID is required")
	}

	return s.repo.GetByID(ctx, id)
}

// List returns every snippet, insertion order. No pagination, no filtering —
// an explicit simplification, not an omission: the collection is consumed
// whole, both by the UI and as agent context.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list knowledge", slog.String("error", err.Error()))
		return nil, err
	}
	return snippets, nil
}

// Update replaces ALL mutable fields (title, content, category) of an
// existing snippet — a full-field replace, not a patch. The ID is taken from
// the URL, never from the body, and is immutable.
func (s *SnippetService) Update(ctx context.Context, id, title, content, category string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "knowledge ID is required")
	}

	title = strings.TrimSpace(title)
	if err := s.validateFields(title, content); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		ID:       id,
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(category),
	}

	if err := s.repo.Update(ctx, snippet); err != nil {
		// NotFound is a normal outcome, not a failure worth an error log.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to update knowledge",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("knowledge updated",
		slog.String("id", snippet.ID),
		slog.String("title", snippet.Title),
	)

	return snippet, nil
}

// Delete removes a snippet by its ID. Always succeeds whether or not the
// snippet existed — deletion reports the end state, not the prior one.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "knowledge ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete knowledge",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("knowledge deleted", slog.String("id", id))
	return nil
}
