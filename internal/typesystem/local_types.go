package typesystem

// LocalType is an integer index into a per-definition LocalTypes arena
// (spec.md §3.3). Every expression node, pattern node, and argument site
// owns exactly one.
type LocalType int

// LocalTypeEntryKind discriminates a slot's current state.
type LocalTypeEntryKind int

const (
	EntryParam LocalTypeEntryKind = iota
	EntryType
)

// DefinedFlag distinguishes parameters declared in a signature from ones the
// typer introduced during inference (spec.md §3.3).
type DefinedFlag int

const (
	Inferred DefinedFlag = iota
	Defined
)

// LocalTypeEntry is one arena slot: either a parameter (owning a
// *TypeParamEntry, possibly shared by reference with other slots via the
// matcher's union-find merge) or a fixed concrete TypeValue.
type LocalTypeEntry struct {
	Kind LocalTypeEntryKind

	// Param variant.
	ParamEntry          *TypeParamEntry
	Defined             DefinedFlag
	UniqOverride        UniqFlag
	InNonUniqLambda     bool
	DefinedTypeParamEq  bool

	// Type variant.
	Value TypeValue
}

// LocalTypes is the per-definition arena described in spec.md §3.3.
type LocalTypes struct {
	entries []LocalTypeEntry
}

// NewLocalTypes builds an empty arena.
func NewLocalTypes() *LocalTypes {
	return &LocalTypes{}
}

// Len returns the number of slots currently allocated.
func (lt *LocalTypes) Len() int { return len(lt.entries) }

// AddParam allocates a fresh parameter slot with its own TypeParamEntry and
// returns its index.
func (lt *LocalTypes) AddParam(defined DefinedFlag) LocalType {
	idx := LocalType(len(lt.entries))
	lt.entries = append(lt.entries, LocalTypeEntry{
		Kind:        EntryParam,
		ParamEntry:  NewTypeParamEntry(),
		Defined:     defined,
		UniqOverride: UniqNone,
	})
	return idx
}

// SetDefinedType allocates a fresh parameter slot for each entry of typ and
// returns the index of a slot representing the whole type (mirroring the
// original's set_defined_type used to seed a signature's declared shape
// into a fresh local-types table before elaborating the body).
func (lt *LocalTypes) SetDefinedType(typ Type) LocalType {
	for range typ.ParamEntries {
		lt.AddParam(Defined)
	}
	return lt.AddTypeValue(typ.Value)
}

// AddTypeValue allocates a fresh concrete-type slot and returns its index.
func (lt *LocalTypes) AddTypeValue(v TypeValue) LocalType {
	idx := LocalType(len(lt.entries))
	lt.entries = append(lt.entries, LocalTypeEntry{Kind: EntryType, Value: v})
	return idx
}

// Entry returns the slot at lt, or nil if out of range.
func (lt *LocalTypes) Entry(local LocalType) *LocalTypeEntry {
	if int(local) < 0 || int(local) >= len(lt.entries) {
		return nil
	}
	return &lt.entries[local]
}

// SetType overwrites a slot with a fixed concrete type value (used when a
// Param x Concrete match resolves a parameter, spec.md §4.1).
func (lt *LocalTypes) SetType(local LocalType, v TypeValue) {
	e := lt.Entry(local)
	if e == nil {
		return
	}
	e.Kind = EntryType
	e.ParamEntry = nil
	e.Value = v
}

// Alias makes `from` share its entry with `to` (both become Param entries
// pointing at the same *TypeParamEntry). This is the union-find merge step
// used by the matcher (spec.md §4.1 "union the two parameter entries").
func (lt *LocalTypes) Alias(from, to LocalType) {
	fe := lt.Entry(from)
	te := lt.Entry(to)
	if fe == nil || te == nil {
		return
	}
	fe.Kind = EntryParam
	fe.ParamEntry = te.ParamEntry
}

// Resolve follows a parameter slot to the representative entry it currently
// shares (itself, if unaliased). Used by Matcher and TypeStack to compare
// slot identity after unions (spec.md §8 "Union propagation").
func (lt *LocalTypes) Resolve(local LocalType) *TypeParamEntry {
	e := lt.Entry(local)
	if e == nil || e.Kind != EntryParam {
		return nil
	}
	return e.ParamEntry
}
