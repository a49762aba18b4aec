package store

// Parsed-record domain types. These are written by the external parser
// hand-off (see Seed) and read by the hierarchy engine.

// Doc block kinds.
const (
	KindClass     = "class"
	KindInterface = "interface"
	KindTrait     = "trait"
	KindFunction  = "function"
	KindProperty  = "property"
	KindConstant  = "constant"
	KindFile      = "file"
	KindNamespace = "namespace"
	KindGroup     = "group"
	KindService   = "service"
	KindGlobal    = "global"
)

// Raw reference kinds. The class-like kinds denote inheritance and trait
// use edges; the rest are plain usage edges.
const (
	RefTrait        = "trait"
	RefClass        = "class"
	RefInterface    = "interface"
	RefFunction     = "function"
	RefMemberSelf   = "member-self"
	RefMemberClass  = "member-class"
	RefMemberParent = "member-parent"
	RefServiceTag   = "service_tag"
)

// Trait modifier kinds.
const (
	ModifierAlias     = "alias"
	ModifierInsteadOf = "insteadof"
)

// ClassLikeKinds lists the doc block kinds that can have members.
var ClassLikeKinds = []string{KindClass, KindInterface, KindTrait}

// MemberKinds lists the doc block kinds collected as class members, in
// the order they are merged and persisted.
var MemberKinds = []string{KindFunction, KindProperty, KindConstant}

// IsClassLike reports whether kind is class, interface, or trait.
func IsClassLike(kind string) bool {
	return kind == KindClass || kind == KindInterface || kind == KindTrait
}

type Branch struct {
	ID                int64
	Project           string
	Label             string
	CoreCompatibility string
	IsCore            bool
}

type DocBlock struct {
	ID            int64
	BranchID      int64
	Kind          string
	Name          string
	MemberName    string
	ClassID       *int64
	Summary       string
	Documentation string
}

type RawReference struct {
	ID         int64
	DocBlockID int64
	BranchID   int64
	Kind       string
	Name       string
	ExtendsID  *int64
}

type TraitModifier struct {
	ID      int64
	ClassID int64
	Kind    string
	Name    string // packed "Trait::member"
	Alias   string
}

// Derived domain types, owned by the hierarchy engine.

type ClassMember struct {
	ID         int64
	ClassID    int64
	DocBlockID int64
	Alias      string
}

type Override struct {
	ID             int64
	DocBlockID     int64
	OverridesID    *int64
	DocumentedInID *int64
}

type ComputedReference struct {
	ID         int64
	DocBlockID int64
	TargetID   int64
	Kind       string
	BranchID   int64
}
