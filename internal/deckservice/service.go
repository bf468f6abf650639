// Package deckservice coordinates deck storage, the card index and the
// snapshot catalog for the HTTP, MCP and CLI surfaces.
package deckservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/flashdeck/internal/catalog"
	"github.com/starford/flashdeck/internal/deck"
	"github.com/starford/flashdeck/internal/index"
	"github.com/starford/flashdeck/internal/storage"
	"github.com/starford/flashdeck/internal/study"
)

const reloadDebounce = 150 * time.Millisecond

// Notifier receives source changes and published snapshots.
type Notifier interface {
	SourceChanged(kind, path string)
	DeckReloaded(d *deck.Deck)
}

type nopNotifier struct{}

func (nopNotifier) SourceChanged(string, string) {}
func (nopNotifier) DeckReloaded(*deck.Deck)      {}

// Option configures a Service.
type Option func(*Service)

// WithNotifier routes change notifications to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notify = n
		}
	}
}

// Service coordinates storage, index and catalog operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	cat    *catalog.Catalog
	logger *slog.Logger
	notify Notifier

	studyMu sync.Mutex
	studies map[string]*study.Study
}

// NewService creates a new deck service.
func NewService(store storage.Provider, db *index.DB, cat *catalog.Catalog, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		db:      db,
		cat:     cat,
		logger:  logger,
		notify:  nopNotifier{},
		studies: make(map[string]*study.Study),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Deck returns the current snapshot.
func (s *Service) Deck() *deck.Deck { return s.cat.Current() }

// Ready reports whether a snapshot has been loaded.
func (s *Service) Ready() bool { return s.cat.Loaded() }

// ReloadResult describes a completed Reload.
type ReloadResult struct {
	Indexed    int    `json:"indexed"`
	Removed    int    `json:"removed"`
	Failed     int    `json:"failed"`
	Cards      int    `json:"cards"`
	Tags       int    `json:"tags"`
	Roots      int    `json:"roots"`
	Generation uint64 `json:"generation"`
}

// Reload re-syncs the deck directory into the index and publishes a new
// snapshot.
func (s *Service) Reload(ctx context.Context) (*ReloadResult, error) {
	stats, err := index.Sync(s.db, s.store, s.logger)
	if err != nil {
		return nil, err
	}
	d, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &ReloadResult{
		Indexed:    stats.Indexed,
		Removed:    stats.Removed,
		Failed:     stats.Failed,
		Cards:      d.NumCards(),
		Tags:       d.NumTags(),
		Roots:      len(d.Roots()),
		Generation: d.Generation(),
	}, nil
}

// refresh rebuilds the snapshot from the index without touching the disk.
func (s *Service) refresh(ctx context.Context) (*deck.Deck, error) {
	d, err := s.cat.Reload(ctx)
	if err != nil {
		return nil, err
	}
	s.notify.DeckReloaded(d)
	return d, nil
}

// Watch keeps the index and the snapshot in step with the deck directory
// until ctx is cancelled. Bursts of file events trigger one rebuild.
func (s *Service) Watch(ctx context.Context) error {
	trigger := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return index.Watch(gctx, s.db, s.store, s.logger, func(kind, path string) {
			s.notify.SourceChanged(kind, path)
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	})
	g.Go(func() error {
		s.reloadLoop(gctx, trigger)
		return nil
	})
	return g.Wait()
}

func (s *Service) reloadLoop(ctx context.Context, trigger <-chan struct{}) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-trigger:
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				fire = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}
		case <-fire:
			timer, fire = nil, nil
			if _, err := s.refresh(ctx); err != nil {
				s.logger.Warn("deckservice: reload after change failed", slog.String("error", err.Error()))
			}
		}
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
