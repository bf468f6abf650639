package index

import (
	"log/slog"
	"time"

	"github.com/starford/flashdeck/internal/checksum"
	"github.com/starford/flashdeck/internal/parser"
	"github.com/starford/flashdeck/internal/storage"
)

// SyncStats counts what a Sync pass changed.
type SyncStats struct {
	Indexed int
	Removed int
	Failed  int
}

// Changed reports whether the pass touched the index.
func (s SyncStats) Changed() bool { return s.Indexed+s.Removed > 0 }

// Sync walks the deck directory and brings the index up to date:
//   - new/changed sources are parsed and upserted
//   - sources removed from disk are deleted from the index
//
// A source that fails to parse is logged and left as previously indexed.
func Sync(db CardIndex, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			stats.Failed++
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		n, err := IndexSource(db, m.Path, data)
		if err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path), slog.Int("cards", n))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteSource(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}
	return stats, nil
}

// IndexSource parses data and replaces the cards of path in the index. It
// returns the number of cards indexed.
func IndexSource(db CardIndex, path string, data []byte) (int, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return 0, err
	}
	cards := make([]CardRow, len(res.Cards))
	for i, c := range res.Cards {
		cards[i] = CardRow{
			ID:       c.ID,
			Name:     c.Name,
			Question: c.Question,
			Answer:   c.Answer,
			Paths:    c.Paths,
		}
	}
	row := SourceRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Header:    res.Header,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertSource(row, cards); err != nil {
		return 0, err
	}
	return len(cards), nil
}
