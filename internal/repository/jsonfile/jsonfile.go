// Package jsonfile implements the snippet repository as a single JSON document
// on disk — the entire collection serialized as one file.
//
// WHY ONE FILE INSTEAD OF A DATABASE?
// The knowledge collection is small (tens to hundreds of snippets) and read far
// more often than written. Treating the whole file as the unit of atomicity is
// a deliberate simplicity/robustness trade-off:
//   - There is exactly one durable artifact to back up, inspect, or copy.
//   - A crash can never leave a half-written record, because a half-written
//     FILE is never made visible (see persist below).
//   - No migrations, no drivers, no connection pool.
// The cost is that every mutation rewrites the whole collection. For datasets
// that outgrow this, the sqlite repository implements the same interface.
//
// DURABILITY DISCIPLINE:
// Every mutation follows the same sequence:
//  1. Take the write lock (mutations are serialized, whole-collection scope).
//  2. Build the NEW collection in memory without touching the current one.
//  3. Persist the new collection: marshal → temp file → fsync → rename.
//  4. Only after the rename succeeds, commit the new collection in memory.
// The caller's nil return therefore means "durably on disk". If persist fails,
// the in-memory state is untouched and the store still serves the old data.
//
// ATOMIC VISIBILITY:
// os.Rename on the same filesystem is atomic — readers of the file see either
// the complete old document or the complete new one, never bytes of both.
// In-process readers take the read lock, so a read that overlaps a write
// observes pre-write or post-write state, never an intermediate one.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/model"
)

// documentVersion is written into every persisted document. The original
// format had no version field; it is included so a future layout change can
// be detected instead of silently misread.
const documentVersion = 1

// document is the on-disk shape: a version tag plus the ordered collection.
// Order in the array IS insertion order — List preserves it.
type document struct {
	Version  int             `json:"version"`
	Snippets []model.Snippet `json:"snippets"`
}

// Store owns the persisted snippet collection.
//
// CONCURRENCY POLICY:
// mu is a sync.RWMutex scoped to the whole collection:
//   - mutations take the write lock → single writer at a time, totally ordered
//   - reads take the read lock → reads run concurrently with each other
// Callers never receive references into the internal slice, only copies, so
// nothing outside this package can mutate state behind the lock's back.
type Store struct {
	path string

	mu       sync.RWMutex
	snippets []model.Snippet
}

// New opens (or creates) the store backed by the document at path.
//
// A missing file is not an error — it means an empty collection, matching
// first-run behaviour. An unreadable or corrupt file IS an error: silently
// starting empty would shadow real data, and the next write would destroy it.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, apperror.Storage("open", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.Storage("decode", err)
	}
	if doc.Version != documentVersion {
		return nil, apperror.Storage("decode",
			fmt.Errorf("unsupported document version %d", doc.Version))
	}

	s.snippets = doc.Snippets
	return s, nil
}

// persist writes the given collection to disk as a single atomic unit.
//
// TEMP FILE + RENAME:
// Writing directly to s.path would expose partial content to concurrent
// readers of the file (and leave garbage behind on a crash mid-write).
// Instead we write a temp file IN THE SAME DIRECTORY (renames across
// filesystems are not atomic) and rename it over the target. The fsync
// before the rename ensures the bytes are on the platter, not just in the
// page cache, before the new document becomes visible.
//
// persist is called with the write lock held.
func (s *Store) persist(snippets []model.Snippet) error {
	raw, err := json.MarshalIndent(document{
		Version:  documentVersion,
		Snippets: snippets,
	}, "", "  ")
	if err != nil {
		return apperror.Storage("encode", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return apperror.Storage("write", err)
	}

	// On any failure below, remove the temp file so we don't litter the
	// data directory. Rename makes the name vanish, so this is a no-op on
	// the success path.
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return apperror.Storage("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperror.Storage("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return apperror.Storage("write", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperror.Storage("rename", err)
	}

	return nil
}
