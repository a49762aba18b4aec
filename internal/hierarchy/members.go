package hierarchy

import (
	"fmt"
	"strings"

	"github.com/jward/lineage/internal/store"
)

// MemberInfo is one entry of a class's merged member set.
type MemberInfo struct {
	SourceID     int64  // member doc block providing this entry
	OverriddenID int64  // first ancestor member a direct member overrides; 0 if none
	DocumentedAt int64  // member doc block holding the authoritative documentation; 0 if none
	Summary      string // own summary, or the first non-empty inherited one
	Alias        string // name under which the class exposes the member
	Origin       string // bare name in the declaring class
	Direct       bool   // declared by the class itself
}

// memberTable keeps the entries of one member kind in insertion order.
type memberTable struct {
	order   []string
	byAlias map[string]*MemberInfo
}

// MemberSet maps member kind → alias → MemberInfo. Iteration follows
// store.MemberKinds, then insertion order within a kind, so persisted
// output is deterministic.
type MemberSet struct {
	kinds map[string]*memberTable
}

func NewMemberSet() *MemberSet {
	return &MemberSet{kinds: make(map[string]*memberTable, len(store.MemberKinds))}
}

// Get returns the entry at (kind, alias), or nil.
func (s *MemberSet) Get(kind, alias string) *MemberInfo {
	t, ok := s.kinds[kind]
	if !ok {
		return nil
	}
	return t.byAlias[alias]
}

// Put stores info under (kind, info.Alias). A new alias is appended to the
// kind's order; an existing one keeps its position.
func (s *MemberSet) Put(kind string, info *MemberInfo) {
	t, ok := s.kinds[kind]
	if !ok {
		t = &memberTable{byAlias: make(map[string]*MemberInfo)}
		s.kinds[kind] = t
	}
	if _, exists := t.byAlias[info.Alias]; !exists {
		t.order = append(t.order, info.Alias)
	}
	t.byAlias[info.Alias] = info
}

// Aliases returns the aliases of one kind in insertion order.
func (s *MemberSet) Aliases(kind string) []string {
	t, ok := s.kinds[kind]
	if !ok {
		return nil
	}
	return t.order
}

// Each calls fn for every entry in iteration order.
func (s *MemberSet) Each(fn func(kind string, info *MemberInfo)) {
	for _, kind := range store.MemberKinds {
		t, ok := s.kinds[kind]
		if !ok {
			continue
		}
		for _, alias := range t.order {
			fn(kind, t.byAlias[alias])
		}
	}
}

// Len returns the total number of entries across kinds.
func (s *MemberSet) Len() int {
	n := 0
	for _, t := range s.kinds {
		n += len(t.order)
	}
	return n
}

// Clone returns a deep copy; entries of the copy can be modified without
// affecting s.
func (s *MemberSet) Clone() *MemberSet {
	c := NewMemberSet()
	s.Each(func(kind string, info *MemberInfo) {
		cp := *info
		c.Put(kind, &cp)
	})
	return c
}

// directMembers is what the member collector gathers for one class.
type directMembers struct {
	set       *MemberSet
	records   map[int64]*store.DocBlock
	functions []int64 // direct function member ids, declaration order
}

// collectDirectMembers loads the functions, properties, and constants
// declared by class within branch, keyed by kind and bare member name.
func collectDirectMembers(s store.HierarchyStore, class *store.DocBlock, branch *store.Branch) (*directMembers, error) {
	docs, err := s.MembersOf(class.ID, branch.ID)
	if err != nil {
		return nil, fmt.Errorf("collect members of %d: %w", class.ID, err)
	}
	dm := &directMembers{
		set:     NewMemberSet(),
		records: make(map[int64]*store.DocBlock, len(docs)),
	}
	for _, doc := range docs {
		name := bareName(doc)
		if name == "" {
			continue
		}
		info := &MemberInfo{
			SourceID: doc.ID,
			Summary:  doc.Summary,
			Alias:    name,
			Origin:   name,
			Direct:   true,
		}
		if doc.Documentation != "" {
			info.DocumentedAt = doc.ID
		}
		dm.set.Put(doc.Kind, info)
		dm.records[doc.ID] = doc
		if doc.Kind == store.KindFunction {
			dm.functions = append(dm.functions, doc.ID)
		}
	}
	return dm, nil
}

// bareName returns a member's name within its class, falling back to the
// part of its namespaced name after the last "::".
func bareName(doc *store.DocBlock) string {
	if doc.MemberName != "" {
		return doc.MemberName
	}
	if i := strings.LastIndex(doc.Name, "::"); i >= 0 {
		return doc.Name[i+2:]
	}
	return doc.Name
}
