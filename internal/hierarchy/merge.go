package hierarchy

import (
	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
)

// DefaultMaxMergeDepth bounds the inheritance chain a single merge will
// follow before returning what it has.
const DefaultMaxMergeDepth = 64

// classGraph holds everything phase one collected: direct parents, direct
// members, and trait modifiers of every visited class.
type classGraph struct {
	classes    map[int64]*store.DocBlock
	parents    map[int64][]ParentLink
	members    map[int64]*directMembers
	aliases    map[int64]aliasRules
	precedence map[int64]omitRules
}

func newClassGraph() *classGraph {
	return &classGraph{
		classes:    make(map[int64]*store.DocBlock),
		parents:    make(map[int64][]ParentLink),
		members:    make(map[int64]*directMembers),
		aliases:    make(map[int64]aliasRules),
		precedence: make(map[int64]omitRules),
	}
}

// merger computes merged member sets over a classGraph. Results are
// memoized per class id for the lifetime of one recomputation.
type merger struct {
	graph    *classGraph
	cache    map[int64]*MemberSet
	maxDepth int
	logger   *zap.Logger
}

func newMerger(g *classGraph, maxDepth int, logger *zap.Logger) *merger {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxMergeDepth
	}
	return &merger{graph: g, cache: make(map[int64]*MemberSet), maxDepth: maxDepth, logger: logger}
}

// merge returns the merged member set of classID. Callers must not modify
// the returned set.
func (m *merger) merge(classID int64) *MemberSet {
	return m.mergeAt(classID, 0)
}

func (m *merger) mergeAt(classID int64, depth int) *MemberSet {
	if set, ok := m.cache[classID]; ok {
		return set
	}
	direct, ok := m.graph.members[classID]
	if !ok {
		return NewMemberSet()
	}

	result := direct.set.Clone()
	// A re-entrant call while parents are in progress sees direct members only.
	m.cache[classID] = result.Clone()

	parents := m.graph.parents[classID]
	if len(parents) == 0 {
		m.cache[classID] = result
		return result
	}
	if depth >= m.maxDepth {
		mergeDepthExceeded.Inc()
		m.logger.Warn("inheritance chain too deep, merge truncated",
			zap.Int64("class", classID),
			zap.Int("depth", depth),
		)
		m.cache[classID] = result
		return result
	}

	aliases := m.graph.aliases[classID]
	precedence := m.graph.precedence[classID]
	for _, p := range parents {
		inherited := m.mergeAt(p.ID, depth+1)
		mergeParent(result, inherited, aliases.forParent(p), precedence[p.Name])
	}

	m.cache[classID] = result
	return result
}

// mergeParent folds the entries of one parent's merged set into result.
func mergeParent(result, parent *MemberSet, aliases map[string]string, omit map[string]bool) {
	parent.Each(func(kind string, p *MemberInfo) {
		bare := p.Alias
		target, aliased := bare, false
		if kind == store.KindFunction {
			if a, ok := aliases[bare]; ok {
				target, aliased = a, true
			}
		}
		// An excluded member survives only under an explicit alias.
		if omit[bare] && !aliased {
			return
		}

		existing := result.Get(kind, target)
		if existing == nil {
			entry := *p
			entry.Alias = target
			entry.Direct = false
			result.Put(kind, &entry)
			return
		}
		// Inherited entries keep the first ancestor that supplied them. A
		// member reached again through a cycle does not override itself.
		if !existing.Direct || existing.SourceID == p.SourceID {
			return
		}
		if existing.OverriddenID == 0 {
			existing.OverriddenID = p.SourceID
		}
		if existing.DocumentedAt == 0 {
			existing.DocumentedAt = p.DocumentedAt
		}
		if existing.Summary == "" {
			existing.Summary = p.Summary
		}
	})
}
