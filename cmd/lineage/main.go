package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/lineage"
	"github.com/jward/lineage/internal/config"
	"github.com/jward/lineage/internal/fixture"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// Set up by the root command before any subcommand runs.
var (
	cfg      = config.DefaultConfig()
	logger   = zap.NewNop()
	repoRoot string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lineage",
	Short:         "Class hierarchy and member inheritance engine",
	Long:          "Lineage computes merged member sets, override facts, and member references for classes, interfaces, and traits across compatible branches, storing results in SQLite.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.DefaultPath+" relative to repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(queryCmd)
}

// setup loads the config and builds the logger.
func setup() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot = findRepoRoot(cwd)

	path := flagConfig
	if path == "" {
		path = filepath.Join(repoRoot, config.DefaultPath)
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l, err := c.NewLogger(flagVerbose)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

var flagRecompute bool

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load pre-parsed branch records from a YAML fixture",
	Long:  "Writes the branches, doc blocks, raw references, and trait modifiers of a fixture file into the database, creating it if needed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&flagRecompute, "recompute", false, "recompute every seeded branch after loading")
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := fixture.Load(args[0])
	if err != nil {
		return outputError(cmd, "seed", err)
	}

	engine, err := openEngine(true)
	if err != nil {
		return outputError(cmd, "seed", err)
	}
	defer engine.Close()

	ids, err := engine.Seed(f)
	if err != nil {
		return outputError(cmd, "seed", err)
	}

	result := CLISeedResult{Branches: ids.Branches, DocBlocks: ids.DocBlocks}
	if flagRecompute {
		for _, b := range f.Branches {
			stats, err := engine.RecomputeBranch(cmd.Context(), ids.Branches[b.Label])
			if err != nil {
				return outputError(cmd, "seed", err)
			}
			result.Recomputed = append(result.Recomputed, statsToCLI(stats))
		}
	}
	return outputResult(cmd, CLIResult{Command: "seed", Results: result})
}

var flagBranch int64

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute the class facts of a branch and its dependents",
	Args:  cobra.NoArgs,
	RunE:  runRecompute,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a branch with its records and derived facts",
	Args:  cobra.NoArgs,
	RunE:  runDelete,
}

func init() {
	for _, c := range []*cobra.Command{recomputeCmd, deleteCmd} {
		c.Flags().Int64Var(&flagBranch, "branch", 0, "branch id")
		_ = c.MarkFlagRequired("branch")
	}
}

func runRecompute(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(false)
	if err != nil {
		return outputError(cmd, "recompute", err)
	}
	defer engine.Close()

	stats, err := engine.RecomputeBranch(cmd.Context(), flagBranch)
	if err != nil {
		return outputError(cmd, "recompute", err)
	}
	return outputResult(cmd, CLIResult{Command: "recompute", Results: statsToCLI(stats)})
}

func runDelete(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(false)
	if err != nil {
		return outputError(cmd, "delete", err)
	}
	defer engine.Close()

	if err := engine.DeleteBranch(flagBranch); err != nil {
		return outputError(cmd, "delete", err)
	}
	return outputResult(cmd, CLIResult{Command: "delete", Results: CLIDeleted{BranchID: flagBranch}})
}

// openEngine opens the database at the resolved path. Unless create is
// set, the database must already exist.
func openEngine(create bool) (*lineage.Engine, error) {
	dbPath := resolveDBPath()
	if !create {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s (run 'lineage seed' first)", dbPath)
		}
	}
	return lineage.New(dbPath,
		lineage.WithLogger(logger),
		lineage.WithDeleteBatchSize(cfg.DeleteBatchSize),
		lineage.WithMaxMergeDepth(cfg.MaxMergeDepth),
		lineage.WithFlushEvery(cfg.FlushEvery),
	)
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the
// config, joined to the repo root when relative.
func resolveDBPath() string {
	path := flagDB
	if path == "" {
		path = cfg.Database
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoRoot, path)
}
