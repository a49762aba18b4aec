package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

func formatBranchesText(w io.Writer, branches []CLIBranch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tLABEL\tCORE_COMPATIBILITY\tCORE")
	for _, b := range branches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", b.ID, b.Project, b.Label, b.CoreCompatibility, b.IsCore)
	}
	tw.Flush()
}

// formatMembersText formats a merged member set as aligned columns.
// Inherited members are marked with "*".
func formatMembersText(w io.Writer, members []CLIMember) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tKIND\tID\tDECLARED")
	for _, m := range members {
		mark := ""
		if m.Inherited {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%d\t%s\n", m.Alias, mark, m.Member.Kind, m.Member.ID, m.Member.Name)
	}
	tw.Flush()
}

func formatReferencesText(w io.Writer, refs []CLIReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tKIND\tTARGET")
	for _, r := range refs {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", r.DocBlockID, r.Kind, r.TargetID)
	}
	tw.Flush()
}

func formatStatsText(w io.Writer, s CLIStats) {
	fmt.Fprintf(w, "Branch %d (run %s): visited %d, changed %d, %d members, %d overrides, %d summaries, %d references in %dms\n",
		s.BranchID, s.RunID, s.Visited, s.Changed, s.ClassMembers, s.Overrides,
		s.SummariesUpdated, s.ComputedReferences, s.DurationMS)
}

func formatSeedText(w io.Writer, r CLISeedResult) {
	labels := make([]string, 0, len(r.Branches))
	for label := range r.Branches {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	fmt.Fprintf(w, "Seeded %d branches, %d doc blocks\n", len(r.Branches), len(r.DocBlocks))
	for _, label := range labels {
		fmt.Fprintf(w, "  %s: %d\n", label, r.Branches[label])
	}
	for _, s := range r.Recomputed {
		formatStatsText(w, s)
	}
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

// outputResultText dispatches a CLIResult to the matching text formatter.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIBranch:
		formatBranchesText(w, v)
	case []CLIMember:
		formatMembersText(w, v)
	case []CLIReference:
		formatReferencesText(w, v)
	case CLIDocBlock:
		fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.Kind, v.Name)
	case CLIOverride:
		fmt.Fprintf(w, "member %d overrides %s, documented in %s\n",
			v.DocBlockID, optionalID(v.OverridesID), optionalID(v.DocumentedInID))
	case CLIDigest:
		fmt.Fprintf(w, "%d\t%s\n", v.ClassID, v.Digest)
	case CLIStats:
		formatStatsText(w, v)
	case CLISeedResult:
		formatSeedText(w, v)
	case CLIDeleted:
		fmt.Fprintf(w, "Deleted branch %d\n", v.BranchID)
	case nil:
		// No output for nil results (e.g., resolve with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
