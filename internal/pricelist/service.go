package pricelist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/csvrows"
	"github.com/cleared-dev/stockval/internal/kvstore"
)

// SnapshotKey is the fixed store key the table is persisted under.
const SnapshotKey = "masterSKUData"

var (
	// ErrPriceTableMissing means no table is loaded and none can be restored.
	ErrPriceTableMissing = errors.New("master price table not loaded")
	// ErrInputMissing means no file was supplied for an upload action.
	ErrInputMissing = errors.New("no input file selected")
)

// LoadResult is returned by Service.Load.
type LoadResult struct {
	BuildResult
	Size int // distinct SKUs in the new table
}

// Service owns the current master price table and its persisted snapshot.
type Service struct {
	store  kvstore.Store
	strict bool
	logger *zap.Logger

	mu      sync.RWMutex
	current *Table
}

// NewService creates a Service persisting to store. strict selects the
// quote-aware tokenizer.
func NewService(store kvstore.Store, strict bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, strict: strict, logger: logger}
}

// Load reads a master list and replaces the current table with it. The
// snapshot is persisted before the swap, so a failed load leaves both the
// in-memory table and the stored copy untouched.
func (s *Service) Load(ctx context.Context, r io.Reader) (LoadResult, error) {
	if r == nil {
		return LoadResult{}, ErrInputMissing
	}
	rows, err := csvrows.Read(ctx, r, s.strict)
	if err != nil {
		return LoadResult{}, fmt.Errorf("reading master list: %w", err)
	}

	t, res := Build(rows)
	data, err := MarshalSnapshot(t)
	if err != nil {
		return LoadResult{}, err
	}
	if err := s.store.Put(ctx, SnapshotKey, data); err != nil {
		return LoadResult{}, fmt.Errorf("persisting price table: %w", err)
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()

	s.logger.Info("master price table loaded",
		zap.Int("kept", res.Kept),
		zap.Int("size", t.Len()),
		zap.Int("skipped", res.Diagnostics.SkippedTotal()),
		zap.Strings("sample", res.Sample))

	return LoadResult{BuildResult: res, Size: t.Len()}, nil
}

// Current returns the loaded table, restoring the persisted snapshot when
// nothing has been loaded in this process yet.
func (s *Service) Current(ctx context.Context) (*Table, error) {
	s.mu.RLock()
	t := s.current
	s.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	ok, err := s.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPriceTableMissing
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Restore replaces the in-memory table with the persisted snapshot. It
// reports false when no snapshot exists.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	data, err := s.store.Get(ctx, SnapshotKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading price snapshot: %w", err)
	}
	t, err := UnmarshalSnapshot(data)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()

	s.logger.Info("master price table restored", zap.Int("size", t.Len()))
	return true, nil
}
