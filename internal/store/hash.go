package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeFactsDigest computes a deterministic hash over a class's derived
// facts: its merged members and the override facts of its direct members.
// Row ids do NOT affect the hash, so two recomputations that produce the
// same facts produce the same digest.
func ComputeFactsDigest(members []*ClassMember, overrides []*Override) string {
	h := sha256.New()

	// Members, sorted by (alias, docblock) for determinism.
	type memberKey struct {
		alias   string
		docID   int64
		classID int64
	}
	mkeys := make([]memberKey, len(members))
	for i, m := range members {
		mkeys[i] = memberKey{m.Alias, m.DocBlockID, m.ClassID}
	}
	sort.Slice(mkeys, func(i, j int) bool {
		if mkeys[i].alias != mkeys[j].alias {
			return mkeys[i].alias < mkeys[j].alias
		}
		return mkeys[i].docID < mkeys[j].docID
	})
	for _, mk := range mkeys {
		fmt.Fprintf(h, "member:%d:%s:%d\n", mk.classID, mk.alias, mk.docID)
	}

	// Overrides, sorted by member docblock.
	type overrideKey struct {
		docID, overrides, documentedIn int64
	}
	okeys := make([]overrideKey, len(overrides))
	for i, o := range overrides {
		okeys[i] = overrideKey{o.DocBlockID, IDValue(o.OverridesID), IDValue(o.DocumentedInID)}
	}
	sort.Slice(okeys, func(i, j int) bool {
		return okeys[i].docID < okeys[j].docID
	})
	for _, ok := range okeys {
		fmt.Fprintf(h, "override:%d:%d:%d\n", ok.docID, ok.overrides, ok.documentedIn)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// ClassFactsDigest loads a class's stored facts and digests them.
func (s *Store) ClassFactsDigest(classID int64) (string, error) {
	members, err := s.ClassMembersByClass(classID)
	if err != nil {
		return "", fmt.Errorf("class facts digest: %w", err)
	}
	overrides, err := s.OverridesByClass(classID)
	if err != nil {
		return "", fmt.Errorf("class facts digest: %w", err)
	}
	return ComputeFactsDigest(members, overrides), nil
}
