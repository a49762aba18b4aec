// Package fixture loads flat documentation records from YAML into the
// store. It is the hand-off format between an external parser and the
// hierarchy engine: branches, class-like doc blocks with their members,
// raw inheritance references, and trait modifiers.
package fixture

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/lineage/internal/store"
)

// Fixture is the root of a seed file.
type Fixture struct {
	Branches []Branch `yaml:"branches"`
}

type Branch struct {
	Project           string  `yaml:"project"`
	Label             string  `yaml:"label"`
	CoreCompatibility string  `yaml:"core_compatibility"`
	Core              bool    `yaml:"core"`
	Classes           []Class `yaml:"classes"`
}

type Class struct {
	Name          string            `yaml:"name"`
	Kind          string            `yaml:"kind"`
	Summary       string            `yaml:"summary"`
	Documentation string            `yaml:"documentation"`
	Uses          []string          `yaml:"uses"`
	Extends       []string          `yaml:"extends"`
	Implements    []string          `yaml:"implements"`
	Aliases       map[string]string `yaml:"aliases"`
	InsteadOf     []string          `yaml:"insteadof"`
	Members       []Member          `yaml:"members"`
}

type Member struct {
	Name          string   `yaml:"name"`
	Kind          string   `yaml:"kind"`
	Summary       string   `yaml:"summary"`
	Documentation string   `yaml:"documentation"`
	CallsParent   []string `yaml:"calls_parent"`
	CallsSelf     []string `yaml:"calls_self"`
}

// IDs maps "label:Name" for classes and "label:Name::member" for members to
// the doc block ids assigned on Apply. Branch ids are keyed by label.
type IDs struct {
	Branches  map[string]int64
	DocBlocks map[string]int64
}

// Class returns the doc block id of a class seeded in the branch labelled
// label, or 0.
func (ids *IDs) Class(label, name string) int64 {
	return ids.DocBlocks[label+":"+name]
}

// Member returns the doc block id of a member seeded in the branch labelled
// label, or 0.
func (ids *IDs) Member(label, class, member string) int64 {
	return ids.DocBlocks[label+":"+class+"::"+member]
}

// Parse decodes a fixture from YAML bytes.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and decodes a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Validate checks kinds and required names.
func (f *Fixture) Validate() error {
	for _, b := range f.Branches {
		if b.Label == "" {
			return fmt.Errorf("fixture: branch without label")
		}
		for _, c := range b.Classes {
			if c.Name == "" {
				return fmt.Errorf("fixture: branch %s: class without name", b.Label)
			}
			if c.Kind != "" && !store.IsClassLike(c.Kind) {
				return fmt.Errorf("fixture: class %s: kind %q is not class-like", c.Name, c.Kind)
			}
			for _, m := range c.Members {
				switch m.Kind {
				case "", store.KindFunction, store.KindProperty, store.KindConstant:
				default:
					return fmt.Errorf("fixture: member %s::%s: unsupported kind %q", c.Name, m.Name, m.Kind)
				}
			}
		}
	}
	return nil
}

// Apply inserts the fixture's records into s in fixture order, so raw
// reference ids follow declaration order within each class.
func Apply(s *store.Store, f *Fixture) (*IDs, error) {
	ids := &IDs{Branches: map[string]int64{}, DocBlocks: map[string]int64{}}

	for _, fb := range f.Branches {
		project := fb.Project
		if project == "" {
			project = "default"
		}
		b := &store.Branch{
			Project:           project,
			Label:             fb.Label,
			CoreCompatibility: fb.CoreCompatibility,
			IsCore:            fb.Core,
		}
		if _, err := s.InsertBranch(b); err != nil {
			return nil, fmt.Errorf("apply fixture: %w", err)
		}
		ids.Branches[fb.Label] = b.ID

		for _, fc := range fb.Classes {
			if err := applyClass(s, b, fc, ids); err != nil {
				return nil, fmt.Errorf("apply fixture: %s: %w", fc.Name, err)
			}
		}
	}
	return ids, nil
}

func applyClass(s *store.Store, b *store.Branch, fc Class, ids *IDs) error {
	kind := fc.Kind
	if kind == "" {
		kind = store.KindClass
	}
	class := &store.DocBlock{
		BranchID:      b.ID,
		Kind:          kind,
		Name:          fc.Name,
		Summary:       fc.Summary,
		Documentation: fc.Documentation,
	}
	if _, err := s.InsertDocBlock(class); err != nil {
		return err
	}
	ids.DocBlocks[b.Label+":"+fc.Name] = class.ID

	edges := []struct {
		kind  string
		names []string
	}{
		{store.RefTrait, fc.Uses},
		{store.RefClass, fc.Extends},
		{store.RefInterface, fc.Implements},
	}
	for _, e := range edges {
		for _, name := range e.names {
			ref := &store.RawReference{DocBlockID: class.ID, BranchID: b.ID, Kind: e.kind, Name: name}
			if _, err := s.InsertRawReference(ref); err != nil {
				return err
			}
		}
	}

	for _, packed := range sortedKeys(fc.Aliases) {
		m := &store.TraitModifier{ClassID: class.ID, Kind: store.ModifierAlias, Name: packed, Alias: fc.Aliases[packed]}
		if _, err := s.InsertTraitModifier(m); err != nil {
			return err
		}
	}
	for _, rule := range fc.InsteadOf {
		for _, packed := range expandInsteadOf(rule) {
			m := &store.TraitModifier{ClassID: class.ID, Kind: store.ModifierInsteadOf, Name: packed}
			if _, err := s.InsertTraitModifier(m); err != nil {
				return err
			}
		}
	}

	for _, fm := range fc.Members {
		kind := fm.Kind
		if kind == "" {
			kind = store.KindFunction
		}
		classID := class.ID
		member := &store.DocBlock{
			BranchID:      b.ID,
			Kind:          kind,
			Name:          fc.Name + "::" + fm.Name,
			MemberName:    fm.Name,
			ClassID:       &classID,
			Summary:       fm.Summary,
			Documentation: fm.Documentation,
		}
		if _, err := s.InsertDocBlock(member); err != nil {
			return err
		}
		ids.DocBlocks[b.Label+":"+member.Name] = member.ID

		calls := []struct {
			kind  string
			names []string
		}{
			{store.RefMemberParent, fm.CallsParent},
			{store.RefMemberSelf, fm.CallsSelf},
		}
		for _, c := range calls {
			for _, name := range c.names {
				ref := &store.RawReference{DocBlockID: member.ID, BranchID: b.ID, Kind: c.kind, Name: name}
				if _, err := s.InsertRawReference(ref); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// expandInsteadOf turns "T2::baz insteadof T1, T3" into the packed names of
// the excluded members, "T1::baz" and "T3::baz". Rules already in packed
// form pass through unchanged.
func expandInsteadOf(rule string) []string {
	winner, losers, ok := strings.Cut(rule, " insteadof ")
	if !ok {
		return []string{strings.TrimSpace(rule)}
	}
	member := strings.TrimSpace(winner)
	if i := strings.LastIndex(member, "::"); i >= 0 {
		member = member[i+2:]
	}
	var packed []string
	for _, trait := range strings.Split(losers, ",") {
		if trait = strings.TrimSpace(trait); trait != "" {
			packed = append(packed, trait+"::"+member)
		}
	}
	return packed
}

// sortedKeys returns map keys in a stable order; YAML mappings carry no
// order once decoded.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
