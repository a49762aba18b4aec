package store

import "sync"

// SummaryUpdate overwrites the blank summary of a member doc block with the
// summary inherited from where its documentation lives.
type SummaryUpdate struct {
	DocBlockID int64
	Summary    string
}

// ClassFacts is the complete derived state of one class: the override facts
// of its direct members and its merged member set. Committing it replaces
// whatever was stored for the class before.
type ClassFacts struct {
	ClassID         int64
	DirectMemberIDs []int64
	Overrides       []Override
	Members         []ClassMember
	SummaryUpdates  []SummaryUpdate
}

// ReferenceFacts replaces the computed references of the given kinds owned
// by DocBlockIDs.
type ReferenceFacts struct {
	DocBlockIDs []int64
	Kinds       []string
	References  []ComputedReference
}

// FactBatch buffers derived facts in memory until CommitFacts writes them
// in a single transaction.
//
// Thread safety: the mutex protects slice appends and Reset.
type FactBatch struct {
	mu sync.Mutex

	Classes    []ClassFacts
	References []ReferenceFacts
}

// NewFactBatch creates an empty FactBatch.
func NewFactBatch() *FactBatch {
	return &FactBatch{}
}

func (b *FactBatch) AddClass(cf ClassFacts) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Classes = append(b.Classes, cf)
}

func (b *FactBatch) AddReferences(rf ReferenceFacts) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.References = append(b.References, rf)
}

// Len returns the number of buffered fact groups.
func (b *FactBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Classes) + len(b.References)
}

// Reset discards all buffered facts.
func (b *FactBatch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Classes = nil
	b.References = nil
}
