// Package lineage resolves class hierarchies over pre-parsed documentation
// records. Given classes, interfaces, traits, their members, and the raw
// textual references between them, it computes each class's inherited
// members, applies trait aliasing and insteadof precedence, and records
// which member overrides which and where each member's documentation lives.
//
// # Pipeline
//
// Records arrive grouped in branches, versioned snapshots of a codebase.
// Branches sharing a core compatibility tag can see each other's classes.
// After a branch is parsed, [Engine.RecomputeBranch] runs in two phases:
//
//  1. Build: walk a worklist seeded with every class-like record of the
//     branch, resolve parent references by name, collect direct members
//     and trait modifiers, and enqueue parents and dependents.
//
//  2. Persist: merge each changed class over the collected graph and
//     replace its class member, override, and member reference facts.
//
// # Usage
//
//	e, err := lineage.New(".lineage/lineage.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	stats, err := e.RecomputeBranch(ctx, branchID)
//
//	q := e.Query()
//	members, err := q.ClassMembers(classID)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.ClassMembers]: the merged member set of a class.
//   - [QueryBuilder.Override]: what a member overrides and where its
//     documentation lives.
//   - [QueryBuilder.ResolveClass]: name resolution as seen from a branch.
//   - [QueryBuilder.ComputedReferences]: resolved parent:: and self:: calls.
//   - [QueryBuilder.ClassDigest]: a hash of a class's derived facts.
package lineage
