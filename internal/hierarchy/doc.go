// Package hierarchy computes the inheritance closure of class-like doc
// blocks: it resolves parent references by name, merges inherited members
// through traits, classes, and interfaces, and records which member
// overrides which and where its documentation lives.
//
// A recomputation runs in two phases. Phase one drains a worklist seeded
// with every class-like record of the branch, resolving parents,
// collecting direct members and trait modifiers, and enqueuing parents and
// dependents as they are discovered. Phase two merges each changed class
// over the collected graph and commits its facts through the store.
package hierarchy
