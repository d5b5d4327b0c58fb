// Package typesystem implements the VSCFL type model described in spec.md
// §3.2-§3.3 and §4.1-§4.2: a two-axis (uniqueness x sharing) modality over
// type shapes, a per-definition arena of LocalType slots with union-find
// parameter entries, a matcher that unifies them under trait constraints,
// and a type stack that instantiates a generic definition's table at a
// concrete call site.
//
// The package keeps the teacher's (internal/typesystem) separation of a
// Type interface and a textual String() form for diagnostics, but replaces
// its Hindley-Milner TVar/TApp/Subst machinery with the arena/union-find
// model spec.md requires: matching two parameter slots must make later
// lookups through either index observe the same TypeParamEntry object
// (§8 "Union propagation"), which plain substitution maps cannot express.
package typesystem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vscfl/vscfl/internal/token"
)

// UniqFlag marks a type value as unique (exclusive, move-only) or not.
type UniqFlag int

const (
	UniqNone UniqFlag = iota
	Uniq
)

func (f UniqFlag) String() string {
	if f == Uniq {
		return "uniq"
	}
	return ""
}

// SharedFlag is the derived sharedness of a type value (spec.md §3.2): never
// Shared for anything carrying Uniq, and Shared only when every constituent
// is non-unique and built-in-shared.
type SharedFlag int

const (
	SharedNone SharedFlag = iota
	Shared
)

// TraitNameKind distinguishes the three forms a trait constraint can take.
type TraitNameKind int

const (
	TraitShared TraitNameKind = iota // built-in Shared constraint
	TraitFun                         // built-in Fun (closure) constraint
	TraitUser                        // Name(ident): a user-defined trait
)

// TraitName is one entry in a type-parameter entry's constraint set.
type TraitName struct {
	Kind  TraitNameKind
	Ident string // populated only when Kind == TraitUser
}

func (t TraitName) String() string {
	switch t.Kind {
	case TraitShared:
		return "shared"
	case TraitFun:
		return "fun"
	default:
		return t.Ident
	}
}

// Equal reports structural equality, used for set semantics on trait names.
func (t TraitName) Equal(o TraitName) bool {
	return t.Kind == o.Kind && (t.Kind != TraitUser || t.Ident == o.Ident)
}

// TypeValueNameKind discriminates the head constructor of a concrete TypeValue.
type TypeValueNameKind int

const (
	NameTuple TypeValueNameKind = iota
	NameArray
	NameFun
	NameIdent
)

// TypeValueName is the head constructor of a concrete type value
// (spec.md §3.2): Tuple, Array(len?), Fun, or Name(ident).
type TypeValueName struct {
	Kind   TypeValueNameKind
	Ident  string // populated only when Kind == NameIdent
	ArrLen *int   // populated only when Kind == NameArray; nil means unknown ("_")
}

func (n TypeValueName) String() string {
	switch n.Kind {
	case NameTuple:
		return "tuple"
	case NameArray:
		if n.ArrLen == nil {
			return "array[_]"
		}
		return fmt.Sprintf("array[%d]", *n.ArrLen)
	case NameFun:
		return "fun"
	default:
		return n.Ident
	}
}

// TypeName is the "bare" identity of a type value's head constructor,
// stripped of argument values — used by the mangler when a parameter is
// only trait-constrained (spec.md §4.6: "just the bare type-name encoding").
type TypeName struct {
	Kind       TypeValueNameKind
	Ident      string
	FieldCount int  // for Tuple
	ArgCount   int  // for Fun
	ArrLen     *int // for Array
}

// TypeValue is one of Param(uniq, LocalType) or Type(uniq, name, args)
// (spec.md §3.2).
type TypeValue interface {
	isTypeValue()
	String() string
	// Substitute replaces every Param(_, lt) with typeValues[lt] when lt is
	// in range, recursively. It returns (nil, false-equivalent) when nothing
	// changed, mirroring the original's Option<TypeValue> return so callers
	// can avoid needless allocation.
	Substitute(typeValues []TypeValue) (TypeValue, bool)
	// TypeName extracts the bare head-constructor identity, or ok=false for
	// a Param (which has no fixed identity yet).
	TypeName() (TypeName, bool)
}

// ParamValue references a local type slot (spec.md §3.2 Param(uniq_flag, LocalType)).
type ParamValue struct {
	Uniq  UniqFlag
	Local LocalType
}

func (ParamValue) isTypeValue() {}
func (p ParamValue) String() string {
	if p.Uniq == Uniq {
		return fmt.Sprintf("uniq t%d", int(p.Local))
	}
	return fmt.Sprintf("t%d", int(p.Local))
}
func (p ParamValue) Substitute(typeValues []TypeValue) (TypeValue, bool) {
	if int(p.Local) >= 0 && int(p.Local) < len(typeValues) && typeValues[p.Local] != nil {
		return typeValues[p.Local], true
	}
	return p, false
}
func (p ParamValue) TypeName() (TypeName, bool) { return TypeName{}, false }

// ConcreteValue is a fully-formed type shape (spec.md §3.2 Type(uniq, name, args)).
type ConcreteValue struct {
	Uniq UniqFlag
	Name TypeValueName
	Args []TypeValue
}

func (ConcreteValue) isTypeValue() {}

func (c ConcreteValue) String() string {
	var sb strings.Builder
	if c.Uniq == Uniq {
		sb.WriteString("uniq ")
	}
	switch c.Name.Kind {
	case NameTuple:
		sb.WriteByte('(')
		for i, a := range c.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte(')')
	case NameArray:
		sb.WriteByte('[')
		if len(c.Args) > 0 {
			sb.WriteString(c.Args[0].String())
		}
		sb.WriteByte(';')
		if c.Name.ArrLen != nil {
			fmt.Fprintf(&sb, "%d", *c.Name.ArrLen)
		} else {
			sb.WriteByte('_')
		}
		sb.WriteByte(']')
	case NameFun:
		sb.WriteByte('(')
		for i := 0; i < len(c.Args)-1; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.Args[i].String())
		}
		sb.WriteString(") -> ")
		if len(c.Args) > 0 {
			sb.WriteString(c.Args[len(c.Args)-1].String())
		}
	default:
		sb.WriteString(c.Name.Ident)
		if len(c.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range c.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(a.String())
			}
			sb.WriteByte('>')
		}
	}
	return sb.String()
}

func (c ConcreteValue) Substitute(typeValues []TypeValue) (TypeValue, bool) {
	changed := false
	newArgs := make([]TypeValue, len(c.Args))
	for i, a := range c.Args {
		if a == nil {
			newArgs[i] = a
			continue
		}
		n, ok := a.Substitute(typeValues)
		if ok {
			changed = true
			newArgs[i] = n
		} else {
			newArgs[i] = a
		}
	}
	if !changed {
		return c, false
	}
	return ConcreteValue{Uniq: c.Uniq, Name: c.Name, Args: newArgs}, true
}

func (c ConcreteValue) TypeName() (TypeName, bool) {
	switch c.Name.Kind {
	case NameTuple:
		return TypeName{Kind: NameTuple, FieldCount: len(c.Args)}, true
	case NameArray:
		return TypeName{Kind: NameArray, ArrLen: c.Name.ArrLen}, true
	case NameFun:
		return TypeName{Kind: NameFun, ArgCount: len(c.Args) - 1}, true
	default:
		return TypeName{Kind: NameIdent, Ident: c.Name.Ident}, true
	}
}

// UnitType is the canonical `()` fallback used by change_type_params_to_types
// (spec.md §4.2, §9 Open Questions) when a type parameter is never refined.
func UnitType() TypeValue {
	return ConcreteValue{Name: TypeValueName{Kind: NameTuple}}
}

// TypeParamEntry is the constraint block attached to a parameter slot
// (spec.md §3.2 "type-parameter entry"). Multiple LocalType slots may point
// at the same *TypeParamEntry after a successful Param x Param match — that
// shared pointer identity IS the union-find merge (spec.md §4.1, §5, §8
// "Union propagation").
type TypeParamEntry struct {
	TraitNames         []TraitName
	TypeValues         []TypeValue        // positional trait-argument type values
	ClosureLocalTypes  map[LocalType]bool // set of captured local types (Fun-constrained entries only)
	Number             *int
	Ident              string
	Pos                token.Pos
}

// NewTypeParamEntry builds an empty constraint block.
func NewTypeParamEntry() *TypeParamEntry {
	return &TypeParamEntry{ClosureLocalTypes: make(map[LocalType]bool)}
}

// HasTrait reports whether name is already in the constraint set.
func (e *TypeParamEntry) HasTrait(name TraitName) bool {
	for _, t := range e.TraitNames {
		if t.Equal(name) {
			return true
		}
	}
	return false
}

// AddTrait adds name to the constraint set if not already present. Per
// spec.md §3.3 "grows monotonically": existing constraints are never removed.
func (e *TypeParamEntry) AddTrait(name TraitName) {
	if !e.HasTrait(name) {
		e.TraitNames = append(e.TraitNames, name)
	}
}

// AddClosureLocalType records a captured local type on a Fun-constrained entry.
func (e *TypeParamEntry) AddClosureLocalType(lt LocalType) {
	if e.ClosureLocalTypes == nil {
		e.ClosureLocalTypes = make(map[LocalType]bool)
	}
	e.ClosureLocalTypes[lt] = true
}

// SortedClosureLocalTypes returns the capture set in a deterministic order,
// required so mangling and diagnostic output never depend on map iteration
// order (spec.md §8 "Mangling is deterministic").
func (e *TypeParamEntry) SortedClosureLocalTypes() []LocalType {
	out := make([]LocalType, 0, len(e.ClosureLocalTypes))
	for lt := range e.ClosureLocalTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsOnlyShared reports whether the entry's sole constraint (if any) is the
// built-in Shared trait with no trait-argument type values — the condition
// the mangler uses to decide between a full type-value encoding and a bare
// type-name encoding (spec.md §4.6).
func (e *TypeParamEntry) IsOnlyShared() bool {
	if len(e.TypeValues) != 0 {
		return false
	}
	if len(e.TraitNames) == 0 {
		return true
	}
	return len(e.TraitNames) == 1 && e.TraitNames[0].Kind == TraitShared
}

// Type is a definition's declared type shape: an ordered sequence of
// type-parameter entries plus the shape built from them (spec.md §3.2).
type Type struct {
	ParamEntries []*TypeParamEntry
	Value        TypeValue
}

func (t Type) TypeParamEntries() []*TypeParamEntry { return t.ParamEntries }
func (t Type) TypeValue() TypeValue                { return t.Value }

// TypeParamEntry returns the entry for the i-th declared parameter, or nil
// if out of range.
func (t Type) TypeParamEntry(i LocalType) *TypeParamEntry {
	if int(i) < 0 || int(i) >= len(t.ParamEntries) {
		return nil
	}
	return t.ParamEntries[i]
}
