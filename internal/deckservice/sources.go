package deckservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/flashdeck/internal/apperr"
	"github.com/starford/flashdeck/internal/checksum"
	"github.com/starford/flashdeck/internal/index"
	"github.com/starford/flashdeck/internal/models"
	"github.com/starford/flashdeck/internal/parser"
)

// ListSources returns every source file on disk. Files that failed to parse
// are listed with Indexed false.
func (s *Service) ListSources(_ context.Context) ([]models.Source, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	rows, err := s.db.ListSources()
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]index.SourceRow, len(rows))
	for _, r := range rows {
		indexed[r.Path] = r
	}

	out := make([]models.Source, 0, len(metas))
	for _, m := range metas {
		src := models.Source{SourceMetadata: m}
		if r, ok := indexed[m.Path]; ok && r.Checksum == m.Checksum {
			src.Indexed = true
			src.Cards = r.Cards
		}
		out = append(out, src)
	}
	return out, nil
}

// GetSource reads a source file.
func (s *Service) GetSource(_ context.Context, path string) (*models.Source, error) {
	if !s.store.IsSource(path) {
		return nil, apperr.ErrNotFound
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return sourceOf(path, data), nil
}

// PutSource creates or replaces a source file. A non-empty ifMatch must equal
// the checksum of the current content. Content that does not parse is
// rejected with apperr.ErrInvalid. created reports whether the file is new.
func (s *Service) PutSource(ctx context.Context, path string, content []byte, ifMatch string) (src *models.Source, created bool, err error) {
	if !s.store.IsSource(path) {
		return nil, false, fmt.Errorf("%w: %q is not a %s file", apperr.ErrInvalid, path, parser.Ext)
	}
	if _, err := parser.Parse(content); err != nil {
		return nil, false, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	existing, err := s.read(path)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if ifMatch != "" {
			return nil, false, apperr.ErrNotFound
		}
		created = true
	case err != nil:
		return nil, false, err
	case ifMatch != "" && !checksum.Matches(existing, ifMatch):
		return nil, false, apperr.ErrConflict
	}

	if err := s.store.Write(path, content); err != nil {
		return nil, false, err
	}
	if _, err := index.IndexSource(s.db, path, content); err != nil {
		return nil, false, err
	}
	kind := index.EventUpdated
	if created {
		kind = index.EventCreated
	}
	s.notify.SourceChanged(kind, path)
	if _, err := s.refresh(ctx); err != nil {
		return nil, false, err
	}
	return sourceOf(path, content), created, nil
}

// DeleteSource removes a source file and its cards. A non-empty ifMatch must
// equal the checksum of the current content.
func (s *Service) DeleteSource(ctx context.Context, path string, ifMatch string) error {
	if !s.store.IsSource(path) {
		return apperr.ErrNotFound
	}
	existing, err := s.read(path)
	if err != nil {
		return err
	}
	if ifMatch != "" && !checksum.Matches(existing, ifMatch) {
		return apperr.ErrConflict
	}
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if err := s.db.DeleteSource(path); err != nil {
		return err
	}
	s.notify.SourceChanged(index.EventDeleted, path)
	_, err = s.refresh(ctx)
	return err
}

// MoveSource renames a source file. Its cards keep their IDs, so studies
// referring to them are unaffected.
func (s *Service) MoveSource(ctx context.Context, from, to string) (*models.Source, error) {
	if !s.store.IsSource(from) {
		return nil, apperr.ErrNotFound
	}
	if !s.store.IsSource(to) {
		return nil, fmt.Errorf("%w: %q is not a %s file", apperr.ErrInvalid, to, parser.Ext)
	}
	data, err := s.read(from)
	if err != nil {
		return nil, err
	}
	if _, err := s.read(to); err == nil {
		return nil, apperr.ErrAlreadyExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if err := s.store.Move(from, to); err != nil {
		return nil, err
	}
	if err := s.db.DeleteSource(from); err != nil {
		return nil, err
	}
	if _, err := index.IndexSource(s.db, to, data); err != nil {
		// The file moved but does not parse; it stays on disk unindexed.
		s.logger.Warn("deckservice: index moved source failed",
			slog.String("path", to),
			slog.String("error", err.Error()))
	}
	s.notify.SourceChanged(index.EventDeleted, from)
	s.notify.SourceChanged(index.EventCreated, to)
	if _, err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return sourceOf(to, data), nil
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}

func sourceOf(path string, data []byte) *models.Source {
	src := &models.Source{
		SourceMetadata: models.SourceMetadata{
			Path:      path,
			Checksum:  checksum.Sum(data),
			UpdatedAt: time.Now().UTC(),
		},
		Content: string(data),
	}
	if res, err := parser.Parse(data); err == nil {
		src.Indexed = true
		src.Cards = len(res.Cards)
	}
	return src
}
