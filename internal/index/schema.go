package index

import (
	"context"

	"github.com/starford/flashdeck/internal/catalog"
	"github.com/starford/flashdeck/internal/deck"
	"github.com/starford/flashdeck/internal/study"
)

// CardIndex defines the card indexing operations used by sync and the watcher.
// Consumers should depend on this interface rather than the concrete *DB type.
type CardIndex interface {
	UpsertSource(s SourceRow, cards []CardRow) error
	DeleteSource(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListSources() ([]SourceRow, error)
	Records(ctx context.Context) ([]deck.Record, error)
	SearchCards(query string, limit int) ([]SearchResult, error)
	Close() error
}

// StudyStore persists studies and their reviews.
type StudyStore interface {
	SaveStudy(s *study.Study) error
	GetStudy(id string) (*study.Study, error)
	ListStudies() ([]*study.Study, error)
	DeleteStudy(id string) error
	RecordReview(studyID, cardID string, r study.Rating) error
	FinishStudy(id string) error
}

// Verify *DB satisfies the interfaces at compile time.
var (
	_ CardIndex            = (*DB)(nil)
	_ StudyStore           = (*DB)(nil)
	_ catalog.RecordSource = (*DB)(nil)
)
