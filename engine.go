package lineage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/fixture"
	"github.com/jward/lineage/internal/hierarchy"
	"github.com/jward/lineage/internal/store"
)

// Engine owns the store and runs class hierarchy recomputations against it.
type Engine struct {
	store  *store.Store
	logger *zap.Logger

	deleteBatchSize int
	maxMergeDepth   int
	flushEvery      int

	// branchLocks serializes recomputations that share a compatibility tag.
	mu          sync.Mutex
	branchLocks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the Engine. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDeleteBatchSize bounds how many ids go into one DELETE statement.
func WithDeleteBatchSize(n int) Option {
	return func(e *Engine) {
		e.deleteBatchSize = n
	}
}

// WithMaxMergeDepth bounds how many inheritance levels a merge follows.
// Deeper chains are cut off as if they were cyclic.
func WithMaxMergeDepth(n int) Option {
	return func(e *Engine) {
		e.maxMergeDepth = n
	}
}

// WithFlushEvery sets how many classes the writer buffers per transaction.
func WithFlushEvery(n int) Option {
	return func(e *Engine) {
		e.flushEvery = n
	}
}

// New creates an Engine backed by a SQLite database at dbPath, creating the
// parent directory and schema as needed.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:          zap.NewNop(),
		deleteBatchSize: store.DefaultDeleteBatchSize,
		maxMergeDepth:   hierarchy.DefaultMaxMergeDepth,
		flushEvery:      hierarchy.DefaultFlushEvery,
		branchLocks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("lineage: create database directory: %w", err)
		}
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("lineage: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("lineage: migrate: %w", err)
	}
	s.SetDeleteBatchSize(e.deleteBatchSize)
	e.store = s
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a QueryBuilder over the Engine's store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Seed loads a fixture of pre-parsed records into the store.
func (e *Engine) Seed(f *fixture.Fixture) (*fixture.IDs, error) {
	ids, err := fixture.Apply(e.store, f)
	if err != nil {
		return nil, fmt.Errorf("lineage: seed: %w", err)
	}
	e.logger.Info("fixture seeded",
		zap.Int("branches", len(ids.Branches)),
		zap.Int("docblocks", len(ids.DocBlocks)),
	)
	return ids, nil
}

// RecomputeBranch rebuilds the derived class facts of a freshly parsed
// branch and of the classes in compatible branches that depend on it.
// Calls for branches sharing a compatibility tag run one at a time.
// A failed run leaves the store safe to recompute again.
func (e *Engine) RecomputeBranch(ctx context.Context, branchID int64) (*Stats, error) {
	b, err := e.store.BranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("lineage: recompute branch %d: %w", branchID, err)
	}
	if b == nil {
		return nil, fmt.Errorf("lineage: recompute branch %d: %w", branchID, store.ErrBranchNotFound)
	}

	lock := e.lockFor(b)
	lock.Lock()
	defer lock.Unlock()

	r := hierarchy.NewRecomputer(e.store,
		hierarchy.WithLogger(e.logger),
		hierarchy.WithMaxMergeDepth(e.maxMergeDepth),
		hierarchy.WithFlushEvery(e.flushEvery),
	)
	stats, err := r.Recompute(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("lineage: recompute branch %d: %w", branchID, err)
	}
	return stats, nil
}

// DeleteBranch removes a branch with all its records and derived facts.
func (e *Engine) DeleteBranch(branchID int64) error {
	if err := e.store.DeleteBranchData(branchID); err != nil {
		return fmt.Errorf("lineage: delete branch %d: %w", branchID, err)
	}
	return nil
}

// lockFor returns the mutex guarding b's compatibility group. Untagged
// branches only conflict with themselves.
func (e *Engine) lockFor(b *store.Branch) *sync.Mutex {
	key := "tag:" + b.CoreCompatibility
	if b.CoreCompatibility == "" {
		key = fmt.Sprintf("branch:%d", b.ID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.branchLocks[key]
	if !ok {
		l = &sync.Mutex{}
		e.branchLocks[key] = l
	}
	return l
}
