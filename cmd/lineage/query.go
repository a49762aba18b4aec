package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/lineage"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query derived class facts",
}

func init() {
	resolveCmd.Flags().Int64Var(&flagBranch, "branch", 0, "branch to resolve from")
	_ = resolveCmd.MarkFlagRequired("branch")

	queryCmd.AddCommand(branchesCmd)
	queryCmd.AddCommand(membersCmd)
	queryCmd.AddCommand(overrideCmd)
	queryCmd.AddCommand(resolveCmd)
	queryCmd.AddCommand(refsCmd)
	queryCmd.AddCommand(digestCmd)
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List every branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "branches", func(e *lineage.Engine) (any, *int, error) {
			branches, err := e.Store().Branches()
			if err != nil {
				return nil, nil, err
			}
			out := make([]CLIBranch, len(branches))
			for i, b := range branches {
				out[i] = branchToCLI(b)
			}
			n := len(out)
			return out, &n, nil
		})
	},
}

var membersCmd = &cobra.Command{
	Use:   "members <class-id>",
	Short: "Show the merged member set of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "members", func(e *lineage.Engine) (any, *int, error) {
			id, err := parseIDArg(args[0], "class id")
			if err != nil {
				return nil, nil, err
			}
			entries, err := e.Query().ClassMembers(id)
			if err != nil {
				return nil, nil, err
			}
			out := make([]CLIMember, len(entries))
			for i, m := range entries {
				out[i] = CLIMember{Alias: m.Alias, Member: docBlockToCLI(m.Member), Inherited: m.Inherited}
			}
			n := len(out)
			return out, &n, nil
		})
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override <member-id>",
	Short: "Show what a member overrides and where its documentation lives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "override", func(e *lineage.Engine) (any, *int, error) {
			id, err := parseIDArg(args[0], "member id")
			if err != nil {
				return nil, nil, err
			}
			o, err := e.Query().Override(id)
			if err != nil || o == nil {
				return nil, nil, err
			}
			return CLIOverride{DocBlockID: o.DocBlockID, OverridesID: o.OverridesID, DocumentedInID: o.DocumentedInID}, nil, nil
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a class-like name as seen from a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "resolve", func(e *lineage.Engine) (any, *int, error) {
			d, err := e.Query().ResolveClass(args[0], flagBranch)
			if err != nil || d == nil {
				return nil, nil, err
			}
			return docBlockToCLI(d), nil, nil
		})
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs <docblock-id>",
	Short: "Show the member references computed for a doc block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "refs", func(e *lineage.Engine) (any, *int, error) {
			id, err := parseIDArg(args[0], "doc block id")
			if err != nil {
				return nil, nil, err
			}
			refs, err := e.Query().ComputedReferences(id)
			if err != nil {
				return nil, nil, err
			}
			out := make([]CLIReference, len(refs))
			for i, r := range refs {
				out[i] = CLIReference{DocBlockID: r.DocBlockID, TargetID: r.TargetID, Kind: r.Kind, BranchID: r.BranchID}
			}
			n := len(out)
			return out, &n, nil
		})
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest <class-id>",
	Short: "Hash the member and override facts of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "digest", func(e *lineage.Engine) (any, *int, error) {
			id, err := parseIDArg(args[0], "class id")
			if err != nil {
				return nil, nil, err
			}
			digest, err := e.Query().ClassDigest(id)
			if err != nil {
				return nil, nil, err
			}
			return CLIDigest{ClassID: id, Digest: digest}, nil, nil
		})
	},
}

// --- Helpers ---

// runQuery opens the existing database, runs fn, and writes its result.
func runQuery(cmd *cobra.Command, command string, fn func(*lineage.Engine) (any, *int, error)) error {
	engine, err := openEngine(false)
	if err != nil {
		return outputError(cmd, command, err)
	}
	defer engine.Close()

	results, total, err := fn(engine)
	if err != nil {
		return outputError(cmd, command, err)
	}
	return outputResult(cmd, CLIResult{Command: command, Results: results, TotalCount: total})
}

// parseIDArg parses a positional argument as a doc block or branch id.
func parseIDArg(value, name string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, value)
	}
	return n, nil
}

// outputResult writes a CLIResult to the command's stdout in the selected
// format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(cmd.OutOrStdout(), result)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}
