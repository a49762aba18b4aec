package lineage

import (
	"fmt"

	"github.com/jward/lineage/internal/hierarchy"
	"github.com/jward/lineage/internal/store"
)

// QueryBuilder provides a read API over the derived class facts.
type QueryBuilder struct {
	store *store.Store
}

// MemberEntry is one member of a class's merged member set.
type MemberEntry struct {
	Alias     string
	Member    *DocBlock
	Inherited bool // declared by an ancestor, not the class itself
}

// ClassMembers returns the merged members of a class in stored order.
// Members whose doc block no longer exists are skipped.
func (q *QueryBuilder) ClassMembers(classID int64) ([]MemberEntry, error) {
	rows, err := q.store.ClassMembersByClass(classID)
	if err != nil {
		return nil, fmt.Errorf("class members: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i, cm := range rows {
		ids[i] = cm.DocBlockID
	}
	docs, err := q.store.DocBlocksByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("class members: %w", err)
	}
	byID := make(map[int64]*DocBlock, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	entries := make([]MemberEntry, 0, len(rows))
	for _, cm := range rows {
		d, ok := byID[cm.DocBlockID]
		if !ok {
			continue
		}
		entries = append(entries, MemberEntry{
			Alias:     cm.Alias,
			Member:    d,
			Inherited: store.IDValue(d.ClassID) != classID,
		})
	}
	return entries, nil
}

// Override returns the override fact of a direct member, or nil if the
// member has not been computed.
func (q *QueryBuilder) Override(memberID int64) (*Override, error) {
	o, err := q.store.OverrideByDocBlock(memberID)
	if err != nil {
		return nil, fmt.Errorf("override: %w", err)
	}
	return o, nil
}

// ResolveClass resolves a class-like name as seen from a branch. It
// returns nil when the name is unknown or ambiguous.
func (q *QueryBuilder) ResolveClass(name string, branchID int64) (*DocBlock, error) {
	b, err := q.store.BranchByID(branchID)
	if err != nil {
		return nil, fmt.Errorf("resolve class: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("resolve class: branch %d: %w", branchID, store.ErrBranchNotFound)
	}
	id, err := hierarchy.NewResolver(q.store, nil).ResolveBestClass(name, b)
	if err != nil {
		return nil, fmt.Errorf("resolve class: %w", err)
	}
	if id == 0 {
		return nil, nil
	}
	return q.store.DocBlock(id)
}

// ComputedReferences returns the member references computed for a doc
// block.
func (q *QueryBuilder) ComputedReferences(docBlockID int64) ([]*ComputedReference, error) {
	return q.store.ComputedReferencesByDocBlock(docBlockID)
}

// ClassDigest returns a hash of a class's member and override facts.
// Equal digests across runs mean the facts are identical.
func (q *QueryBuilder) ClassDigest(classID int64) (string, error) {
	return q.store.ClassFactsDigest(classID)
}
