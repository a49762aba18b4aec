package hierarchy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
)

// parentKinds is the order in which inheritance references are resolved.
// Earlier kinds take precedence when members collide during a merge.
var parentKinds = []string{store.RefTrait, store.RefClass, store.RefInterface}

// ParentLink is one resolved direct parent of a class.
type ParentLink struct {
	Name string // normalized reference text
	ID   int64
	Kind string // store.RefTrait, store.RefClass or store.RefInterface
}

// buildParents resolves the inheritance references owned by class and
// returns its direct parents in precedence order. Resolutions that differ
// from the stored target are written back and mark class as changed.
// Resolved parents not seen before are enqueued on the worklist.
func (r *run) buildParents(class *store.DocBlock, branch *store.Branch) ([]ParentLink, error) {
	var parents []ParentLink
	seen := make(map[string]bool)

	for _, kind := range parentKinds {
		refs, err := r.store.RawReferencesByDocBlock(class.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("build parents of %d: %w", class.ID, err)
		}
		for _, ref := range refs {
			id, err := r.resolver.ResolveBestClass(ref.Name, branch)
			if err != nil {
				return nil, fmt.Errorf("build parents of %d: %w", class.ID, err)
			}
			if id != store.IDValue(ref.ExtendsID) {
				if err := r.store.UpdateReferenceExtends(ref.ID, store.IDPtr(id)); err != nil {
					return nil, fmt.Errorf("build parents of %d: %w", class.ID, err)
				}
				r.logger.Debug("parent resolution changed",
					zap.Int64("class", class.ID),
					zap.String("ref", ref.Name),
					zap.Int64("was", store.IDValue(ref.ExtendsID)),
					zap.Int64("now", id),
				)
				r.work.markChanged(class.ID)
			}
			if id == 0 {
				continue
			}
			r.work.enqueue(id)

			name := normalizeName(ref.Name)
			if seen[name] {
				continue
			}
			seen[name] = true
			parents = append(parents, ParentLink{Name: name, ID: id, Kind: kind})
		}
	}
	return parents, nil
}
