package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jward/lineage/internal/store"
)

func recompute(t *testing.T, s *store.Store, branchID int64, opts ...Option) *Stats {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	stats, err := NewRecomputer(s, opts...).Recompute(context.Background(), branchID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	return stats
}

const inheritedFixture = `
branches:
  - label: b1
    classes:
      - name: A
        members:
          - name: m
            summary: orig
            documentation: Original docs.
      - name: Sub
        extends: [A]
`

func TestRecompute_InheritedMember(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, inheritedFixture)
	a, sub, am := ids.Class("b1", "A"), ids.Class("b1", "Sub"), ids.Member("b1", "A", "m")

	stats := recompute(t, s, ids.Branches["b1"])

	assert.Equal(t, 2, stats.Seeded)
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, 2, stats.Changed)
	assert.NotEmpty(t, stats.RunID)

	assert.Equal(t, map[string]int64{"m": am}, membersByAlias(t, s, sub))
	assert.Equal(t, map[string]int64{"m": am}, membersByAlias(t, s, a))

	subOverrides, err := s.OverridesByClass(sub)
	require.NoError(t, err)
	assert.Empty(t, subOverrides)

	o, err := s.OverrideByDocBlock(am)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Nil(t, o.OverridesID)
	require.NotNil(t, o.DocumentedInID)
	assert.Equal(t, am, *o.DocumentedInID)

	refs, err := s.RawReferencesByDocBlock(sub, store.RefClass)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].ExtendsID)
	assert.Equal(t, a, *refs[0].ExtendsID)
}

func TestRecompute_OverrideAdoptsSummary(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: A
        members:
          - name: m
            summary: orig
            documentation: Original docs.
      - name: Sub
        extends: [A]
        members:
          - name: m
`)
	am, subm := ids.Member("b1", "A", "m"), ids.Member("b1", "Sub", "m")

	stats := recompute(t, s, ids.Branches["b1"])
	assert.Equal(t, 1, stats.SummariesUpdated)

	o, err := s.OverrideByDocBlock(subm)
	require.NoError(t, err)
	require.NotNil(t, o)
	require.NotNil(t, o.OverridesID)
	assert.Equal(t, am, *o.OverridesID)
	require.NotNil(t, o.DocumentedInID)
	assert.Equal(t, am, *o.DocumentedInID)

	doc, err := s.DocBlock(subm)
	require.NoError(t, err)
	assert.Equal(t, "orig", doc.Summary)

	assert.Equal(t, map[string]int64{"m": subm}, membersByAlias(t, s, ids.Class("b1", "Sub")))
}

func TestRecompute_KeepsOwnSummary(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: A
        members:
          - name: m
            summary: parent summary
            documentation: Docs.
      - name: Sub
        extends: [A]
        members:
          - name: m
            summary: own summary
`)
	subm := ids.Member("b1", "Sub", "m")

	stats := recompute(t, s, ids.Branches["b1"])
	assert.Zero(t, stats.SummariesUpdated)

	doc, err := s.DocBlock(subm)
	require.NoError(t, err)
	assert.Equal(t, "own summary", doc.Summary)
}

func TestRecompute_Idempotent(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: T
        kind: trait
        members:
          - name: foo
          - name: shared
            documentation: From the trait.
      - name: I
        kind: interface
        members:
          - name: VERSION
            kind: constant
      - name: A
        implements: [I]
        members:
          - name: m
            summary: orig
            documentation: Docs.
          - name: prop
            kind: property
      - name: Sub
        extends: [A]
        uses: [T]
        aliases:
          "T::foo": bar
        members:
          - name: m
          - name: shared
`)
	branch := ids.Branches["b1"]
	classes := []int64{ids.Class("b1", "T"), ids.Class("b1", "I"), ids.Class("b1", "A"), ids.Class("b1", "Sub")}

	digests := func() []string {
		var out []string
		for _, id := range classes {
			d, err := s.ClassFactsDigest(id)
			require.NoError(t, err)
			out = append(out, d)
		}
		return out
	}

	recompute(t, s, branch)
	first := digests()
	recompute(t, s, branch)
	second := digests()
	recompute(t, s, branch, WithFlushEvery(1))
	third := digests()

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	sub := membersByAlias(t, s, ids.Class("b1", "Sub"))
	assert.Equal(t, ids.Member("b1", "T", "foo"), sub["bar"])
	assert.Equal(t, ids.Member("b1", "I", "VERSION"), sub["VERSION"])
	assert.Equal(t, ids.Member("b1", "A", "prop"), sub["prop"])
	assert.Equal(t, ids.Member("b1", "Sub", "shared"), sub["shared"])
	assert.NotContains(t, sub, "foo")

	o, err := s.OverrideByDocBlock(ids.Member("b1", "Sub", "shared"))
	require.NoError(t, err)
	require.NotNil(t, o.OverridesID)
	assert.Equal(t, ids.Member("b1", "T", "shared"), *o.OverridesID)
}

func TestRecompute_TraitPrecedence(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: T1
        kind: trait
        members:
          - name: baz
      - name: T2
        kind: trait
        members:
          - name: baz
      - name: C
        uses: [T1, T2]
        insteadof:
          - "T2::baz insteadof T1"
`)
	recompute(t, s, ids.Branches["b1"])

	rows, err := s.ClassMembersByClass(ids.Class("b1", "C"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "baz", rows[0].Alias)
	assert.Equal(t, ids.Member("b1", "T2", "baz"), rows[0].DocBlockID)
}

func TestRecompute_CycleTerminates(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: A
        extends: [B]
        members:
          - name: a
      - name: B
        extends: [A]
        members:
          - name: b
`)
	recompute(t, s, ids.Branches["b1"])

	for _, name := range []string{"A", "B"} {
		m := membersByAlias(t, s, ids.Class("b1", name))
		assert.Contains(t, m, "a", name)
		assert.Contains(t, m, "b", name)
	}
	o, err := s.OverrideByDocBlock(ids.Member("b1", "A", "a"))
	require.NoError(t, err)
	assert.Nil(t, o.OverridesID)
}

func TestRecompute_DependentInSiblingBranch(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: core
    core: true
    core_compatibility: "8.x"
    classes:
      - name: Base
        members:
          - name: render
  - label: module
    core_compatibility: "8.x"
    classes:
      - name: Widget
        extends: [\Base]
  - label: unrelated
    core_compatibility: "9.x"
    classes:
      - name: Loner
        extends: [Base]
`)
	stats := recompute(t, s, ids.Branches["core"])

	assert.Equal(t, 1, stats.Seeded)
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, map[string]int64{"render": ids.Member("core", "Base", "render")},
		membersByAlias(t, s, ids.Class("module", "Widget")))
	assert.Empty(t, membersByAlias(t, s, ids.Class("unrelated", "Loner")))
}

func TestRecompute_ParentInSiblingBranch(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: core
    core: true
    core_compatibility: "8.x"
    classes:
      - name: Base
        members:
          - name: render
  - label: module
    core_compatibility: "8.x"
    classes:
      - name: Widget
        extends: [Base]
`)
	stats := recompute(t, s, ids.Branches["module"])

	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, ids.Member("core", "Base", "render"), membersByAlias(t, s, ids.Class("module", "Widget"))["render"])
}

func TestRecompute_ClearsStaleResolution(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, inheritedFixture)
	branch := ids.Branches["b1"]
	sub := ids.Class("b1", "Sub")

	recompute(t, s, branch)
	require.NotEmpty(t, membersByAlias(t, s, sub))

	// A second class named A makes the reference ambiguous.
	_, err := s.InsertDocBlock(&store.DocBlock{BranchID: branch, Kind: store.KindInterface, Name: "A"})
	require.NoError(t, err)
	recompute(t, s, branch)

	refs, err := s.RawReferencesByDocBlock(sub, store.RefClass)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Nil(t, refs[0].ExtendsID)
	assert.Empty(t, membersByAlias(t, s, sub))
}

func TestRecompute_MemberReferences(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: b1
    classes:
      - name: Root
        members:
          - name: build
      - name: A
        extends: [Root]
      - name: Sub
        extends: [A]
        members:
          - name: build
            calls_parent: ["parent::build()"]
          - name: run
            calls_self: ["self::build()", "self::missing()"]
`)
	stats := recompute(t, s, ids.Branches["b1"])
	assert.Equal(t, 2, stats.ComputedReferences)

	build, err := s.ComputedReferencesByDocBlock(ids.Member("b1", "Sub", "build"))
	require.NoError(t, err)
	require.Len(t, build, 1)
	assert.Equal(t, store.RefMemberParent, build[0].Kind)
	assert.Equal(t, ids.Member("b1", "Root", "build"), build[0].TargetID)

	run, err := s.ComputedReferencesByDocBlock(ids.Member("b1", "Sub", "run"))
	require.NoError(t, err)
	require.Len(t, run, 1)
	assert.Equal(t, store.RefMemberSelf, run[0].Kind)
	assert.Equal(t, ids.Member("b1", "Sub", "build"), run[0].TargetID)

	// Rerunning replaces rather than duplicates.
	recompute(t, s, ids.Branches["b1"])
	build, err = s.ComputedReferencesByDocBlock(ids.Member("b1", "Sub", "build"))
	require.NoError(t, err)
	assert.Len(t, build, 1)
}

func TestRecompute_UnknownBranch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := NewRecomputer(s).Recompute(context.Background(), 42)
	require.ErrorIs(t, err, store.ErrBranchNotFound)
}

func TestRecompute_Cancelled(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, inheritedFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRecomputer(s).Recompute(ctx, ids.Branches["b1"])
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, membersByAlias(t, s, ids.Class("b1", "Sub")))
}

func TestRecompute_EmptyBranch(t *testing.T) {
	t.Parallel()
	s, ids := seed(t, `
branches:
  - label: empty
`)
	stats := recompute(t, s, ids.Branches["empty"])
	assert.Zero(t, stats.Visited)
	assert.Zero(t, stats.Changed)
}
