package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
)

// DefaultFlushEvery is the number of fact groups buffered before the
// writer commits them.
const DefaultFlushEvery = 100

// Stats summarizes one branch recomputation.
type Stats struct {
	RunID              string
	BranchID           int64
	Seeded             int
	Visited            int
	Changed            int
	ClassMembers       int
	Overrides          int
	SummariesUpdated   int
	ComputedReferences int
	Duration           time.Duration
}

// Option configures a Recomputer.
type Option func(*Recomputer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Recomputer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxMergeDepth bounds how deep a single merge follows parents.
func WithMaxMergeDepth(n int) Option {
	return func(r *Recomputer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithFlushEvery sets how many fact groups are buffered per commit.
func WithFlushEvery(n int) Option {
	return func(r *Recomputer) {
		if n > 0 {
			r.flushEvery = n
		}
	}
}

// Recomputer rebuilds the derived class facts of a branch: resolved parent
// references, merged class members, overrides, and member references.
// Concurrent calls on branches sharing a compatibility tag must be
// serialized by the caller.
type Recomputer struct {
	store      store.HierarchyStore
	logger     *zap.Logger
	maxDepth   int
	flushEvery int
}

func NewRecomputer(s store.HierarchyStore, opts ...Option) *Recomputer {
	r := &Recomputer{
		store:      s,
		logger:     zap.NewNop(),
		maxDepth:   DefaultMaxMergeDepth,
		flushEvery: DefaultFlushEvery,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// worklist tracks which classes still need visiting and which need their
// facts rewritten. Ids enter at most once.
type worklist struct {
	todo         []int64
	added        map[int64]bool
	changed      map[int64]bool
	changedOrder []int64
	visited      map[int64]bool
}

func newWorklist() *worklist {
	return &worklist{
		added:   make(map[int64]bool),
		changed: make(map[int64]bool),
		visited: make(map[int64]bool),
	}
}

// enqueue adds id to todo and marks it changed unless it was added before.
func (w *worklist) enqueue(id int64) bool {
	if w.added[id] {
		return false
	}
	w.added[id] = true
	w.todo = append(w.todo, id)
	w.markChanged(id)
	return true
}

func (w *worklist) markChanged(id int64) {
	if w.changed[id] {
		return
	}
	w.changed[id] = true
	w.changedOrder = append(w.changedOrder, id)
}

func (w *worklist) pop() (int64, bool) {
	if len(w.todo) == 0 {
		return 0, false
	}
	id := w.todo[0]
	w.todo = w.todo[1:]
	return id, true
}

// run is the state of one Recompute call.
type run struct {
	*Recomputer
	logger   *zap.Logger
	id       string
	branch   *store.Branch
	resolver *Resolver
	work     *worklist
	graph    *classGraph
	branches map[int64]*store.Branch
	siblings map[int64][]int64
	stats    *Stats
}

// Recompute rebuilds the derived facts of every class-like record in the
// branch and of every class in compatible branches that depends on one of
// them. Phase one resolves parents and collects members for the whole
// worklist; phase two merges and persists. Store errors abort the run;
// rerunning converges because every write replaces prior facts.
func (r *Recomputer) Recompute(ctx context.Context, branchID int64) (_ *Stats, err error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "hierarchy.Recomputer.Recompute")
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("branch_id", branchID),
	)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "recompute failed")
		}
		recomputeTotal.WithLabelValues(status).Inc()
		recomputeDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	branch, err := r.store.BranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("recompute: branch %d: %w", branchID, store.ErrBranchNotFound)
	}

	logger := r.logger.With(zap.String("run_id", runID), zap.Int64("branch", branchID))
	rr := &run{
		Recomputer: r,
		logger:     logger,
		id:         runID,
		branch:     branch,
		resolver:   NewResolver(r.store, logger),
		work:       newWorklist(),
		graph:      newClassGraph(),
		branches:   map[int64]*store.Branch{branch.ID: branch},
		siblings:   make(map[int64][]int64),
		stats:      &Stats{RunID: runID, BranchID: branchID},
	}

	seeds, err := r.store.ClassLikeIDsByBranch(branchID)
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}
	for _, id := range seeds {
		rr.work.enqueue(id)
	}
	rr.stats.Seeded = len(seeds)
	logger.Info("recompute started", zap.Int("seeds", len(seeds)))

	buildCtx, buildSpan := tracer.Start(ctx, "hierarchy.build")
	err = rr.build(buildCtx)
	buildSpan.SetAttributes(attribute.Int("visited", rr.stats.Visited))
	buildSpan.End()
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}

	persistCtx, persistSpan := tracer.Start(ctx, "hierarchy.persist")
	err = rr.persist(persistCtx)
	persistSpan.SetAttributes(attribute.Int("changed", rr.stats.Changed))
	persistSpan.End()
	if err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}

	rr.stats.Duration = time.Since(start)
	classesVisited.Add(float64(rr.stats.Visited))
	classesChanged.Add(float64(rr.stats.Changed))
	span.SetAttributes(
		attribute.Int("visited", rr.stats.Visited),
		attribute.Int("changed", rr.stats.Changed),
	)
	logger.Info("recompute finished",
		zap.Int("visited", rr.stats.Visited),
		zap.Int("changed", rr.stats.Changed),
		zap.Int("class_members", rr.stats.ClassMembers),
		zap.Int("overrides", rr.stats.Overrides),
		zap.Int("computed_references", rr.stats.ComputedReferences),
		zap.Duration("duration", rr.stats.Duration),
	)
	return rr.stats, nil
}

// build drains the worklist, collecting parents, members, and trait
// modifiers for every reachable class.
func (r *run) build(ctx context.Context) error {
	for {
		id, ok := r.work.pop()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.work.visited[id] {
			continue
		}
		if err := r.visit(id); err != nil {
			return err
		}
		r.work.visited[id] = true
	}
}

func (r *run) visit(id int64) error {
	class, err := r.store.DocBlock(id)
	if err != nil {
		return err
	}
	if class == nil || !store.IsClassLike(class.Kind) {
		r.logger.Debug("skipping missing class", zap.Int64("class", id))
		return nil
	}
	branch, err := r.branchOf(class.BranchID)
	if err != nil {
		return err
	}
	if branch == nil {
		r.logger.Debug("skipping class without branch", zap.Int64("class", id))
		return nil
	}
	r.stats.Visited++

	members, err := collectDirectMembers(r.store, class, branch)
	if err != nil {
		return err
	}
	parents, err := r.buildParents(class, branch)
	if err != nil {
		return err
	}
	aliases, err := extractAliases(r.store, id)
	if err != nil {
		return err
	}
	precedence, err := extractPrecedence(r.store, id)
	if err != nil {
		return err
	}

	r.graph.classes[id] = class
	r.graph.members[id] = members
	r.graph.parents[id] = parents
	r.graph.aliases[id] = aliases
	r.graph.precedence[id] = precedence

	if r.work.changed[id] {
		return r.discoverDependents(class, branch)
	}
	return nil
}

// discoverDependents enqueues classes in compatible branches that inherit
// from class, by resolved target or by name.
func (r *run) discoverDependents(class *store.DocBlock, branch *store.Branch) error {
	scope, ok := r.siblings[branch.ID]
	if !ok {
		var err error
		scope, err = r.store.CompatibleBranchIDs(branch)
		if err != nil {
			return err
		}
		r.siblings[branch.ID] = scope
	}
	deps, err := r.store.DependentClassIDs(class.ID, class.Name, scope)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if r.work.enqueue(dep) {
			r.logger.Debug("dependent enqueued", zap.Int64("class", class.ID), zap.Int64("dependent", dep))
		}
	}
	return nil
}

func (r *run) branchOf(id int64) (*store.Branch, error) {
	if b, ok := r.branches[id]; ok {
		return b, nil
	}
	b, err := r.store.BranchByID(id)
	if err != nil {
		return nil, err
	}
	r.branches[id] = b
	return b, nil
}
