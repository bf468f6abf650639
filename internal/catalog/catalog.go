// Package catalog holds the current deck snapshot and rebuilds it on demand.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/flashdeck/internal/deck"
)

// RecordSource supplies the flat card list a snapshot is built from.
type RecordSource interface {
	Records(ctx context.Context) ([]deck.Record, error)
}

// Catalog publishes immutable deck snapshots. Readers call Current once per
// operation and keep using that snapshot, so handles from two builds never mix.
type Catalog struct {
	src    RecordSource
	logger *slog.Logger

	current atomic.Pointer[deck.Deck]
	group   singleflight.Group
	loaded  atomic.Bool
}

// New creates a catalog with an empty snapshot.
func New(src RecordSource, logger *slog.Logger) *Catalog {
	c := &Catalog{src: src, logger: logger}
	c.current.Store(deck.Empty())
	return c
}

// Current returns the latest snapshot. It is never nil.
func (c *Catalog) Current() *deck.Deck {
	return c.current.Load()
}

// Loaded reports whether at least one reload has completed.
func (c *Catalog) Loaded() bool {
	return c.loaded.Load()
}

// Reload rebuilds the snapshot from the record source. Calls that arrive
// while a rebuild is in flight share it, then run one more shared rebuild so
// the returned snapshot reflects every record written before the call.
func (c *Catalog) Reload(ctx context.Context) (*deck.Deck, error) {
	d, shared, err := c.rebuild(ctx)
	if err == nil && shared {
		d, _, err = c.rebuild(ctx)
	}
	return d, err
}

func (c *Catalog) rebuild(ctx context.Context) (*deck.Deck, bool, error) {
	v, err, shared := c.group.Do("reload", func() (any, error) {
		start := time.Now()
		// Joined callers must not inherit the first caller's cancellation.
		records, err := c.src.Records(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("catalog: load records: %w", err)
		}
		d := deck.Build(records)
		c.current.Store(d)
		c.loaded.Store(true)

		c.logger.Info("catalog: reloaded",
			slog.Int("cards", d.NumCards()),
			slog.Int("tags", d.NumTags()),
			slog.Int("roots", len(d.Roots())),
			slog.Duration("took", time.Since(start)))
		return d, nil
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*deck.Deck), shared, nil
}
