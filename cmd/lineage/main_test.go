package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliFixture = `
branches:
  - label: core
    core: true
    core_compatibility: "8.x"
    classes:
      - name: Base
        members:
          - name: build
            summary: Builds the thing.
            documentation: Long form.
  - label: ext
    core_compatibility: "8.x"
    classes:
      - name: Widget
        extends: [Base]
        members:
          - name: build
            calls_parent: ["parent::build()"]
`

type envelope struct {
	Command    string          `json:"command"`
	Results    json.RawMessage `json:"results"`
	TotalCount *int            `json:"total_count"`
	Error      string          `json:"error"`
}

// execute runs the root command in-process with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagDB, flagFormat, flagConfig, flagVerbose = "", "json", "", false
	flagBranch, flagRecompute, errorHandled = 0, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type cliEnv struct {
	db, config string
}

func newCLIEnv(t *testing.T) cliEnv {
	dir := t.TempDir()
	return cliEnv{
		db:     filepath.Join(dir, "db", "lineage.db"),
		config: filepath.Join(dir, "missing.yaml"),
	}
}

func (c cliEnv) run(t *testing.T, args ...string) (envelope, error) {
	t.Helper()
	args = append(args, "--db", c.db, "--config", c.config)
	out, err := execute(t, args...)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "invalid JSON output: %s", out)
	return env, err
}

// seed writes cliFixture to disk, seeds and recomputes it.
func (c cliEnv) seed(t *testing.T) CLISeedResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cliFixture), 0o644))

	env, err := c.run(t, "seed", path, "--recompute")
	require.NoError(t, err)
	require.Empty(t, env.Error)
	var res CLISeedResult
	require.NoError(t, json.Unmarshal(env.Results, &res))
	return res
}

func idArg(v int64) string { return fmt.Sprintf("%d", v) }

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("xml"))
}

func TestParseIDArg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseIDArg(tt.in, "id")
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestOutputResultText_UnsupportedType(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: 3.5})
	require.Error(t, err)
}

func TestOutputResultText_Members(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: []CLIMember{
		{Alias: "build", Member: CLIDocBlock{ID: 4, Kind: "function", Name: "Widget::build"}},
		{Alias: "ID", Member: CLIDocBlock{ID: 2, Kind: "constant", Name: "Base::ID"}, Inherited: true},
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ALIAS")
	assert.Contains(t, lines[1], "Widget::build")
	assert.True(t, strings.HasPrefix(lines[2], "ID*"))
}

func TestCLI_InvalidFormat(t *testing.T) {
	_, err := execute(t, "query", "branches", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCLI_QueryWithoutDatabase(t *testing.T) {
	c := newCLIEnv(t)
	env, err := c.run(t, "query", "branches")
	require.Error(t, err)
	assert.Equal(t, "branches", env.Command)
	assert.Contains(t, env.Error, "database not found")
}

func TestCLI_SeedRecomputesBranches(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	assert.Len(t, res.Branches, 2)
	require.Len(t, res.Recomputed, 2)
	assert.NotEmpty(t, res.Recomputed[0].RunID)
	assert.Contains(t, res.DocBlocks, "ext:Widget::build")
}

func TestCLI_QueryBranches(t *testing.T) {
	c := newCLIEnv(t)
	c.seed(t)

	env, err := c.run(t, "query", "branches")
	require.NoError(t, err)
	var branches []CLIBranch
	require.NoError(t, json.Unmarshal(env.Results, &branches))
	require.Len(t, branches, 2)
	assert.Equal(t, "core", branches[0].Label)
	assert.True(t, branches[0].IsCore)
	require.NotNil(t, env.TotalCount)
	assert.Equal(t, 2, *env.TotalCount)
}

func TestCLI_QueryMembersAndOverride(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	env, err := c.run(t, "query", "members", idArg(res.DocBlocks["ext:Widget"]))
	require.NoError(t, err)
	var members []CLIMember
	require.NoError(t, json.Unmarshal(env.Results, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "build", members[0].Alias)
	assert.False(t, members[0].Inherited)
	assert.Equal(t, "Builds the thing.", members[0].Member.Summary)

	env, err = c.run(t, "query", "override", idArg(res.DocBlocks["ext:Widget::build"]))
	require.NoError(t, err)
	var o CLIOverride
	require.NoError(t, json.Unmarshal(env.Results, &o))
	require.NotNil(t, o.OverridesID)
	assert.Equal(t, res.DocBlocks["core:Base::build"], *o.OverridesID)
	require.NotNil(t, o.DocumentedInID)
	assert.Equal(t, res.DocBlocks["core:Base::build"], *o.DocumentedInID)
}

func TestCLI_QueryResolve(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	env, err := c.run(t, "query", "resolve", `\Base`, "--branch", idArg(res.Branches["ext"]))
	require.NoError(t, err)
	var d CLIDocBlock
	require.NoError(t, json.Unmarshal(env.Results, &d))
	assert.Equal(t, res.DocBlocks["core:Base"], d.ID)

	env, err = c.run(t, "query", "resolve", "Missing", "--branch", idArg(res.Branches["ext"]))
	require.NoError(t, err)
	assert.Equal(t, "null", string(env.Results))
}

func TestCLI_QueryRefsAndDigest(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	env, err := c.run(t, "query", "refs", idArg(res.DocBlocks["ext:Widget::build"]))
	require.NoError(t, err)
	var refs []CLIReference
	require.NoError(t, json.Unmarshal(env.Results, &refs))
	require.Len(t, refs, 1)
	assert.Equal(t, "member-parent", refs[0].Kind)
	assert.Equal(t, res.DocBlocks["core:Base::build"], refs[0].TargetID)

	env, err = c.run(t, "query", "digest", idArg(res.DocBlocks["ext:Widget"]))
	require.NoError(t, err)
	var first CLIDigest
	require.NoError(t, json.Unmarshal(env.Results, &first))

	_, err = c.run(t, "recompute", "--branch", idArg(res.Branches["ext"]))
	require.NoError(t, err)
	env, err = c.run(t, "query", "digest", idArg(res.DocBlocks["ext:Widget"]))
	require.NoError(t, err)
	var second CLIDigest
	require.NoError(t, json.Unmarshal(env.Results, &second))
	assert.Equal(t, first.Digest, second.Digest)
}

func TestCLI_RecomputeUnknownBranch(t *testing.T) {
	c := newCLIEnv(t)
	c.seed(t)

	env, err := c.run(t, "recompute", "--branch", "999")
	require.Error(t, err)
	assert.Equal(t, "recompute", env.Command)
	assert.Contains(t, env.Error, "branch not found")
}

func TestCLI_Delete(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	_, err := c.run(t, "delete", "--branch", idArg(res.Branches["ext"]))
	require.NoError(t, err)

	env, err := c.run(t, "query", "branches")
	require.NoError(t, err)
	var branches []CLIBranch
	require.NoError(t, json.Unmarshal(env.Results, &branches))
	require.Len(t, branches, 1)
	assert.Equal(t, "core", branches[0].Label)
}

func TestCLI_TextFormat(t *testing.T) {
	c := newCLIEnv(t)
	res := c.seed(t)

	out, err := execute(t, "query", "members", idArg(res.DocBlocks["ext:Widget"]),
		"--db", c.db, "--config", c.config, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "ALIAS")
	assert.Contains(t, out, "Widget::build")
}
