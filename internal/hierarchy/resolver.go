package hierarchy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
)

// Resolution outcomes, used as metric labels.
const (
	resolvedUnique    = "unique"
	resolvedAmbiguous = "ambiguous"
	resolvedNone      = "none"
)

// Resolver maps a class-like name to a single doc block id using the
// visibility scopes of the referencing branch: the branch itself, then core
// branches of the same compatibility tag, then the other compatible
// branches. A scope yields a result only when exactly one record matches.
type Resolver struct {
	store  store.HierarchyStore
	logger *zap.Logger
	scopes map[int64][][]int64
}

func NewResolver(s store.HierarchyStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: s, logger: logger, scopes: make(map[int64][][]int64)}
}

// ResolveBestClass returns the id of the class-like record named name as
// seen from branch, or 0 when no scope has exactly one match. An ambiguous
// scope ends the search: later scopes are not consulted.
func (r *Resolver) ResolveBestClass(name string, branch *store.Branch) (int64, error) {
	name = normalizeName(name)
	if name == "" {
		resolutionsTotal.WithLabelValues(resolvedNone).Inc()
		return 0, nil
	}
	scopes, err := r.branchScopes(branch)
	if err != nil {
		return 0, err
	}
	for _, scope := range scopes {
		ids, err := r.store.ClassLikeIDsByName(name, scope)
		if err != nil {
			return 0, fmt.Errorf("resolve %q: %w", name, err)
		}
		switch len(ids) {
		case 0:
			continue
		case 1:
			resolutionsTotal.WithLabelValues(resolvedUnique).Inc()
			return ids[0], nil
		default:
			resolutionsTotal.WithLabelValues(resolvedAmbiguous).Inc()
			r.logger.Debug("ambiguous class name",
				zap.String("name", name),
				zap.Int64("branch", branch.ID),
				zap.Int64s("candidates", ids),
			)
			return 0, nil
		}
	}
	resolutionsTotal.WithLabelValues(resolvedNone).Inc()
	return 0, nil
}

func (r *Resolver) branchScopes(b *store.Branch) ([][]int64, error) {
	if scopes, ok := r.scopes[b.ID]; ok {
		return scopes, nil
	}
	scopes, err := r.store.BranchScopes(b)
	if err != nil {
		return nil, fmt.Errorf("branch scopes of %d: %w", b.ID, err)
	}
	r.scopes[b.ID] = scopes
	return scopes, nil
}
