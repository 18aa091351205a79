package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/model"
	"github.com/sakif/knowledge-hub/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockSnippetRepo implements repository.SnippetRepository in memory, in
// insertion order, with the same contract semantics as the real stores
// (optional supplied IDs, conflict detection, idempotent delete). The
// service can't tell the difference — that's the point of the interface.

type mockSnippetRepo struct {
	snippets []model.Snippet
	nextID   int
}

var _ repository.SnippetRepository = (*mockSnippetRepo)(nil)

func newMockRepo() *mockSnippetRepo {
	return &mockSnippetRepo{}
}

func (m *mockSnippetRepo) indexOf(id string) int {
	for i := range m.snippets {
		if m.snippets[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	if snippet.ID == "" {
		m.nextID++
		snippet.ID = "mock-" + strconv.Itoa(m.nextID)
	} else if m.indexOf(snippet.ID) >= 0 {
		return apperror.Conflict("knowledge", snippet.ID)
	}
	m.snippets = append(m.snippets, *snippet)
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	i := m.indexOf(id)
	if i < 0 {
		return nil, apperror.NotFound("knowledge", id)
	}
	found := m.snippets[i]
	return &found, nil
}

func (m *mockSnippetRepo) List(_ context.Context) ([]model.Snippet, error) {
	out := make([]model.Snippet, len(m.snippets))
	copy(out, m.snippets)
	return out, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	i := m.indexOf(snippet.ID)
	if i < 0 {
		return apperror.NotFound("knowledge", snippet.ID)
	}
	m.snippets[i] = *snippet
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	i := m.indexOf(id)
	if i < 0 {
		return nil // idempotent
	}
	m.snippets = append(m.snippets[:i], m.snippets[i+1:]...)
	return nil
}

// failingRepo simulates storage being down.
type failingRepo struct {
	mockSnippetRepo
}

func (f *failingRepo) List(_ context.Context) ([]model.Snippet, error) {
	return nil, apperror.Storage("read", errors.New("disk gone"))
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestService(t *testing.T, cfg Config) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSnippetService(repo, cfg, logger)
	return svc, repo
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	snippet, err := svc.Create(context.Background(), "", "Glycolysis", "Glucose to pyruvate.", "pathway")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("expected snippet to have an ID")
	}
	if snippet.Title != "Glycolysis" {
		t.Errorf("Title = %q, want %q", snippet.Title, "Glycolysis")
	}
	if snippet.Category != "pathway" {
		t.Errorf("Category = %q, want %q", snippet.Category, "pathway")
	}
}

func TestCreate_TrimsWhitespace(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	snippet, err := svc.Create(context.Background(), "", "  spaced out  ", "content", "  pathway  ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.Title != "spaced out" {
		t.Errorf("Title = %q, want trimmed %q", snippet.Title, "spaced out")
	}
	if snippet.Category != "pathway" {
		t.Errorf("Category = %q, want trimmed %q", snippet.Category, "pathway")
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.Create(context.Background(), "", "", "content", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}

	_, err = svc.Create(context.Background(), "", "   ", "content", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("whitespace-only title: error = %v, want ErrValidation", err)
	}
}

func TestCreate_EmptyContent(t *testing.T) {
	// Default config: content required.
	svc, _ := newTestService(t, Config{})
	_, err := svc.Create(context.Background(), "", "title", "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}

	// AllowEmptyContent relaxes the rule.
	relaxed, _ := newTestService(t, Config{AllowEmptyContent: true})
	if _, err := relaxed.Create(context.Background(), "", "title", "", ""); err != nil {
		t.Errorf("Create() with AllowEmptyContent error = %v, want nil", err)
	}
}

func TestCreate_TitleTooLong(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	longTitle := strings.Repeat("a", MaxTitleLength+1)
	_, err := svc.Create(context.Background(), "", longTitle, "content", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreate_SuppliedIDConflict(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	if _, err := svc.Create(context.Background(), "chosen-id", "a", "b", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := svc.Create(context.Background(), "chosen-id", "c", "d", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET / LIST TESTS
// =========================================================================

func TestGetByID_Success(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	created, err := svc.Create(context.Background(), "", "test", "content", "")
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	found, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "test" {
		t.Errorf("Title = %q, want %q", found.Title, "test")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetByID_EmptyID(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.GetByID(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestList_ReturnsAllInOrder(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	a, _ := svc.Create(context.Background(), "", "a", "1", "")
	b, _ := svc.Create(context.Background(), "", "b", "2", "")

	snippets, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 2 || snippets[0].ID != a.ID || snippets[1].ID != b.ID {
		t.Errorf("List() = %+v, want [%s %s] in order", snippets, a.ID, b.ID)
	}
}

func TestList_StorageUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewSnippetService(&failingRepo{}, Config{}, logger)

	_, err := svc.List(context.Background())
	if !errors.Is(err, apperror.ErrStorage) {
		t.Errorf("error = %v, want ErrStorage", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate_FullReplace(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	created, _ := svc.Create(context.Background(), "", "original", "old content", "old cat")

	updated, err := svc.Update(context.Background(), created.ID, "new title", "new content", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Full-field replace: the empty category REPLACES the old one, it does
	// not mean "leave unchanged".
	if updated.Title != "new title" || updated.Content != "new content" || updated.Category != "" {
		t.Errorf("Update() = %+v, want full replace", updated)
	}
	if updated.ID != created.ID {
		t.Errorf("ID changed on update: %s → %s", created.ID, updated.ID)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.Update(context.Background(), "nonexistent", "title", "content", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ValidatesLikeCreate(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	created, _ := svc.Create(context.Background(), "", "ok", "content", "")

	_, err := svc.Update(context.Background(), created.ID, "", "content", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty title on update: error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_Success(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	created, _ := svc.Create(context.Background(), "", "to delete", "content", "")
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := svc.GetByID(context.Background(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

func TestDelete_IdempotentOnMissing(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	// Deleting an ID that never existed succeeds — deletion never reports
	// "not found".
	if err := svc.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

func TestDelete_EmptyID(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	err := svc.Delete(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
