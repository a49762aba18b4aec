package hierarchy

import (
	"fmt"
	"strings"

	"github.com/jward/lineage/internal/store"
)

// anyTrait keys alias rules whose packed name carries no trait qualifier.
// Such rules apply to every trait the class uses.
const anyTrait = ""

// aliasRules maps trait name → member bare name → alias.
type aliasRules map[string]map[string]string

// forParent returns the alias rules that apply to one parent link.
// Qualified rules win over unqualified ones.
func (r aliasRules) forParent(p ParentLink) map[string]string {
	specific := r[p.Name]
	if p.Kind != store.RefTrait {
		return specific
	}
	wildcard := r[anyTrait]
	if len(wildcard) == 0 {
		return specific
	}
	merged := make(map[string]string, len(wildcard)+len(specific))
	for k, v := range wildcard {
		merged[k] = v
	}
	for k, v := range specific {
		merged[k] = v
	}
	return merged
}

// omitRules maps trait name → bare member names excluded by insteadof.
type omitRules map[string]map[string]bool

// extractAliases loads the alias modifiers of a class.
func extractAliases(s store.HierarchyStore, classID int64) (aliasRules, error) {
	mods, err := s.TraitModifiers(classID, store.ModifierAlias)
	if err != nil {
		return nil, fmt.Errorf("extract aliases of %d: %w", classID, err)
	}
	rules := aliasRules{}
	for _, m := range mods {
		if m.Alias == "" {
			continue
		}
		trait, member := splitPacked(m.Name)
		if member == "" {
			continue
		}
		if rules[trait] == nil {
			rules[trait] = map[string]string{}
		}
		rules[trait][member] = m.Alias
	}
	return rules, nil
}

// extractPrecedence loads the insteadof modifiers of a class. Each record
// names a trait member that another trait's member takes precedence over.
func extractPrecedence(s store.HierarchyStore, classID int64) (omitRules, error) {
	mods, err := s.TraitModifiers(classID, store.ModifierInsteadOf)
	if err != nil {
		return nil, fmt.Errorf("extract precedence of %d: %w", classID, err)
	}
	rules := omitRules{}
	for _, m := range mods {
		trait, member := splitPacked(m.Name)
		if trait == anyTrait || member == "" {
			continue
		}
		if rules[trait] == nil {
			rules[trait] = map[string]bool{}
		}
		rules[trait][member] = true
	}
	return rules, nil
}

// splitPacked splits "Trait::member" at the last "::". A name without a
// qualifier yields anyTrait.
func splitPacked(packed string) (trait, member string) {
	packed = strings.TrimSpace(packed)
	i := strings.LastIndex(packed, "::")
	if i < 0 {
		return anyTrait, packed
	}
	return normalizeName(packed[:i]), packed[i+2:]
}

// normalizeName drops the leading namespace separator of a fully qualified
// class name.
func normalizeName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}
