package hierarchy

import (
	"fmt"
	"strings"

	"github.com/jward/lineage/internal/store"
)

// memberRefKinds are the computed reference kinds owned by a class's direct
// functions and rewritten on each recomputation.
var memberRefKinds = []string{store.RefMemberParent, store.RefMemberSelf}

// memberReferences resolves the parent:: and self:: calls made by the direct
// functions of a class to the member that would be dispatched.
// parent:: calls look through the merged members of the class's extended
// parents in declaration order; self:: calls use the class's own merged set.
func (r *run) memberReferences(classID int64, dm *directMembers, m *merger) (store.ReferenceFacts, error) {
	rf := store.ReferenceFacts{DocBlockIDs: dm.functions, Kinds: memberRefKinds}
	class := r.graph.classes[classID]

	for _, fnID := range dm.functions {
		for _, kind := range memberRefKinds {
			refs, err := r.store.RawReferencesByDocBlock(fnID, kind)
			if err != nil {
				return rf, fmt.Errorf("member references of %d: %w", fnID, err)
			}
			for _, ref := range refs {
				name := calledMember(ref.Name)
				if name == "" {
					continue
				}
				var target int64
				if kind == store.RefMemberParent {
					target = r.parentFunction(classID, name, m)
				} else {
					target = functionIn(m.merge(classID), name)
				}
				if target == 0 {
					continue
				}
				rf.References = append(rf.References, store.ComputedReference{
					DocBlockID: fnID,
					TargetID:   target,
					Kind:       kind,
					BranchID:   class.BranchID,
				})
			}
		}
	}
	return rf, nil
}

// parentFunction returns the function named name inherited through the
// first extended parent that has one.
func (r *run) parentFunction(classID int64, name string, m *merger) int64 {
	for _, p := range r.graph.parents[classID] {
		if p.Kind != store.RefClass {
			continue
		}
		if id := functionIn(m.merge(p.ID), name); id != 0 {
			return id
		}
	}
	return 0
}

func functionIn(set *MemberSet, name string) int64 {
	if info := set.Get(store.KindFunction, name); info != nil {
		return info.SourceID
	}
	return 0
}

// calledMember reduces a call reference such as "parent::build()" to the
// bare member name.
func calledMember(ref string) string {
	ref = strings.TrimSpace(ref)
	for _, prefix := range []string{"parent::", "self::", "static::"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	ref = strings.TrimSuffix(ref, "()")
	return ref
}
