package main

import (
	"github.com/jward/lineage"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIBranch is a JSON-friendly branch representation.
type CLIBranch struct {
	ID                int64  `json:"id"`
	Project           string `json:"project"`
	Label             string `json:"label"`
	CoreCompatibility string `json:"core_compatibility,omitempty"`
	IsCore            bool   `json:"is_core"`
}

// CLIDocBlock is a JSON-friendly doc block representation.
type CLIDocBlock struct {
	ID         int64  `json:"id"`
	BranchID   int64  `json:"branch_id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	MemberName string `json:"member_name,omitempty"`
	ClassID    *int64 `json:"class_id,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// CLIMember is one entry of a merged member set.
type CLIMember struct {
	Alias     string      `json:"alias"`
	Member    CLIDocBlock `json:"member"`
	Inherited bool        `json:"inherited"`
}

// CLIOverride is a JSON-friendly override fact.
type CLIOverride struct {
	DocBlockID     int64  `json:"docblock_id"`
	OverridesID    *int64 `json:"overrides_id,omitempty"`
	DocumentedInID *int64 `json:"documented_in_id,omitempty"`
}

// CLIReference is a JSON-friendly computed reference.
type CLIReference struct {
	DocBlockID int64  `json:"docblock_id"`
	TargetID   int64  `json:"target_id"`
	Kind       string `json:"kind"`
	BranchID   int64  `json:"branch_id"`
}

// CLIDigest is the facts digest of one class.
type CLIDigest struct {
	ClassID int64  `json:"class_id"`
	Digest  string `json:"digest"`
}

// CLIStats summarizes one recomputation.
type CLIStats struct {
	RunID              string `json:"run_id"`
	BranchID           int64  `json:"branch_id"`
	Seeded             int    `json:"seeded"`
	Visited            int    `json:"visited"`
	Changed            int    `json:"changed"`
	ClassMembers       int    `json:"class_members"`
	Overrides          int    `json:"overrides"`
	SummariesUpdated   int    `json:"summaries_updated"`
	ComputedReferences int    `json:"computed_references"`
	DurationMS         int64  `json:"duration_ms"`
}

// CLISeedResult reports the ids assigned by a seed.
type CLISeedResult struct {
	Branches   map[string]int64 `json:"branches"`
	DocBlocks  map[string]int64 `json:"docblocks"`
	Recomputed []CLIStats       `json:"recomputed,omitempty"`
}

// CLIDeleted confirms a branch deletion.
type CLIDeleted struct {
	BranchID int64 `json:"branch_id"`
}

func branchToCLI(b *lineage.Branch) CLIBranch {
	return CLIBranch{
		ID:                b.ID,
		Project:           b.Project,
		Label:             b.Label,
		CoreCompatibility: b.CoreCompatibility,
		IsCore:            b.IsCore,
	}
}

func docBlockToCLI(d *lineage.DocBlock) CLIDocBlock {
	return CLIDocBlock{
		ID:         d.ID,
		BranchID:   d.BranchID,
		Kind:       d.Kind,
		Name:       d.Name,
		MemberName: d.MemberName,
		ClassID:    d.ClassID,
		Summary:    d.Summary,
	}
}

func statsToCLI(s *lineage.Stats) CLIStats {
	return CLIStats{
		RunID:              s.RunID,
		BranchID:           s.BranchID,
		Seeded:             s.Seeded,
		Visited:            s.Visited,
		Changed:            s.Changed,
		ClassMembers:       s.ClassMembers,
		Overrides:          s.Overrides,
		SummariesUpdated:   s.SummariesUpdated,
		ComputedReferences: s.ComputedReferences,
		DurationMS:         s.Duration.Milliseconds(),
	}
}
