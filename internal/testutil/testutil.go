// Package testutil provides shared test helpers for setting up decks and databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/flashdeck/internal/index"
	"github.com/starford/flashdeck/internal/parser"
	"github.com/starford/flashdeck/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "flashdeck-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDeck creates a temporary deck directory with a storage.Provider for
// card source files.
func TestDeck(t *testing.T) (string, storage.Provider) {
	t.Helper()
	deckDir := t.TempDir()
	store, err := storage.NewFS(deckDir, parser.Ext)
	if err != nil {
		t.Fatal(err)
	}
	return deckDir, store
}

// CardSource renders a single card block in source format.
func CardSource(id, name string, paths ...string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = fmt.Sprintf("%q,", p)
	}
	return fmt.Sprintf("#card(%q, %q, (%s))\nQuestion %s?\n#answer\nAnswer %s.\n",
		id, name, strings.Join(quoted, " "), id, id)
}

// WriteSource writes a source file into the deck directory.
func WriteSource(t *testing.T, deckDir, rel string, blocks ...string) {
	t.Helper()
	full := filepath.Join(deckDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(strings.Join(blocks, "")), 0o644); err != nil {
		t.Fatal(err)
	}
}
