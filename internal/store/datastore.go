package store

// HierarchyStore is the interface the hierarchy engine reads and writes
// through. *Store implements it against SQLite.
type HierarchyStore interface {
	// Branch scope lookups.
	BranchByID(id int64) (*Branch, error)
	BranchScopes(b *Branch) ([][]int64, error)
	CompatibleBranchIDs(b *Branch) ([]int64, error)

	// Parsed record reads.
	DocBlock(id int64) (*DocBlock, error)
	ClassLikeIDsByBranch(branchID int64) ([]int64, error)
	ClassLikeIDsByName(name string, branchIDs []int64) ([]int64, error)
	MembersOf(classID, branchID int64) ([]*DocBlock, error)
	RawReferencesByDocBlock(docBlockID int64, kind string) ([]*RawReference, error)
	DependentClassIDs(classID int64, name string, branchIDs []int64) ([]int64, error)
	TraitModifiers(classID int64, kind string) ([]*TraitModifier, error)

	// Writes owned by the engine.
	UpdateReferenceExtends(refID int64, target *int64) error
	CommitFacts(batch *FactBatch) error
}

// Compile-time check: *Store satisfies HierarchyStore.
var _ HierarchyStore = (*Store)(nil)
