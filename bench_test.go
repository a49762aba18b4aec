package lineage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jward/lineage/internal/fixture"
)

// benchFixture builds a branch of depth-deep inheritance chains, each class
// using a shared trait and declaring a few members.
func benchFixture(chains, depth int) *fixture.Fixture {
	b := fixture.Branch{Label: "bench"}
	b.Classes = append(b.Classes, fixture.Class{
		Name: "Bench\\Loggable",
		Kind: "trait",
		Members: []fixture.Member{
			{Name: "log", Summary: "Logs a message.", Documentation: "Writes to the channel."},
			{Name: "channel", Kind: "property"},
		},
	})
	for c := 0; c < chains; c++ {
		for d := 0; d < depth; d++ {
			cls := fixture.Class{
				Name: fmt.Sprintf("Bench\\C%d_%d", c, d),
				Uses: []string{"Bench\\Loggable"},
				Members: []fixture.Member{
					{Name: "build", CallsParent: []string{"parent::build()"}},
					{Name: fmt.Sprintf("own%d", d), Summary: "Own member."},
					{Name: "VERSION", Kind: "constant"},
				},
			}
			if d > 0 {
				cls.Extends = []string{fmt.Sprintf("\\Bench\\C%d_%d", c, d-1)}
			}
			b.Classes = append(b.Classes, cls)
		}
	}
	return &fixture.Fixture{Branches: []fixture.Branch{b}}
}

func setupBenchEngine(b *testing.B, chains, depth int) (*Engine, int64) {
	b.Helper()
	e, err := New(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { e.Close() })
	ids, err := e.Seed(benchFixture(chains, depth))
	if err != nil {
		b.Fatal(err)
	}
	return e, ids.Branches["bench"]
}

func BenchmarkRecomputeBranch_Small(b *testing.B) {
	e, branchID := setupBenchEngine(b, 10, 5)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.RecomputeBranch(ctx, branchID); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecomputeBranch_Deep(b *testing.B) {
	e, branchID := setupBenchEngine(b, 4, 40)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.RecomputeBranch(ctx, branchID); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkQueryClassMembers(b *testing.B) {
	e, branchID := setupBenchEngine(b, 10, 5)
	if _, err := e.RecomputeBranch(context.Background(), branchID); err != nil {
		b.Fatal(err)
	}
	q := e.Query()
	leaf, err := q.ResolveClass("Bench\\C0_4", branchID)
	if err != nil || leaf == nil {
		b.Fatalf("resolve leaf: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := q.ClassMembers(leaf.ID); err != nil {
			b.Fatal(err)
		}
	}
}
