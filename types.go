package lineage

import (
	"github.com/jward/lineage/internal/hierarchy"
	"github.com/jward/lineage/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. External consumers use these names; no conversion is needed.

type Store = store.Store
type Branch = store.Branch
type DocBlock = store.DocBlock
type ClassMember = store.ClassMember
type Override = store.Override
type ComputedReference = store.ComputedReference
type Stats = hierarchy.Stats

// ErrBranchNotFound is returned by RecomputeBranch for an unknown branch id.
var ErrBranchNotFound = store.ErrBranchNotFound
