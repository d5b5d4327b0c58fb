package typesystem

import "fmt"

// TraitImplLookup is the contract the matcher needs from the Tree (spec.md
// §4.1 "the concrete type must have an implementation in scope"). ast.Tree
// implements this; typesystem never imports ast, keeping the dependency
// order leaves-first (spec.md §2 "Error -> Tree -> Mangler -> Type Stack ->
// Type Matcher -> Typer -> Instancer -> Evaluator").
type TraitImplLookup interface {
	// FindImpl reports whether traitIdent has an implementation registered
	// for typeName, and if so the impl's positional trait-argument type
	// values (possibly empty).
	FindImpl(traitIdent string, typeName TypeName) ([]TypeValue, bool)
	// BuiltinSharedFlag reports the built-in sharedness of a primitive or
	// data type named ident.
	BuiltinSharedFlag(ident string) (SharedFlag, bool)
}

// MatchStatus is the result of a match attempt.
type MatchStatus int

const (
	Matched MatchStatus = iota
	Mismatched
)

// MatchResult is returned by Matcher.Matches.
type MatchResult struct {
	Status MatchStatus
	Reason string
}

func matched() MatchResult         { return MatchResult{Status: Matched} }
func mismatch(reason string) MatchResult {
	return MatchResult{Status: Mismatched, Reason: reason}
}

// Matcher implements spec.md §4.1: deciding whether two local types can be
// made equal under current constraints, mutating the arena to the strongest
// common refinement on success.
type Matcher struct {
	Lookup TraitImplLookup
}

// NewMatcher builds a Matcher bound to a trait-implementation lookup.
func NewMatcher(lookup TraitImplLookup) *Matcher {
	return &Matcher{Lookup: lookup}
}

// Matches implements the public contract of spec.md §4.1.
func (m *Matcher) Matches(a, b LocalType, lt *LocalTypes) MatchResult {
	ea := lt.Entry(a)
	eb := lt.Entry(b)
	if ea == nil || eb == nil {
		return mismatch("local type out of range")
	}

	switch {
	case ea.Kind == EntryParam && eb.Kind == EntryParam:
		return m.matchParamParam(a, b, lt)
	case ea.Kind == EntryParam && eb.Kind == EntryType:
		return m.matchParamConcrete(a, b, lt)
	case ea.Kind == EntryType && eb.Kind == EntryParam:
		return m.matchParamConcrete(b, a, lt)
	default:
		return m.matchConcreteConcrete(ea.Value, eb.Value, lt)
	}
}

// matchParamParam unions two parameter entries into one shared entry
// (spec.md §4.1 Parameter x Parameter).
func (m *Matcher) matchParamParam(a, b LocalType, lt *LocalTypes) MatchResult {
	ea := lt.Entry(a)
	eb := lt.Entry(b)
	if ea.ParamEntry == eb.ParamEntry {
		// Already unioned (or the same slot): idempotent per §8 "Matcher monotonicity".
		return matched()
	}

	pa, pb := ea.ParamEntry, eb.ParamEntry

	// Trait sets: union, then verify each newly-shared trait's positional
	// argument type values unify term by term.
	merged := NewTypeParamEntry()
	for _, t := range pa.TraitNames {
		merged.AddTrait(t)
	}
	for _, t := range pb.TraitNames {
		merged.AddTrait(t)
	}

	// Trait-argument type values: recursively match where both sides have
	// positions, otherwise keep whichever side has them.
	if len(pa.TypeValues) > 0 && len(pb.TypeValues) > 0 {
		if len(pa.TypeValues) != len(pb.TypeValues) {
			return mismatch("trait-argument arity mismatch on parameter union")
		}
		newVals := make([]TypeValue, len(pa.TypeValues))
		for i := range pa.TypeValues {
			res, v := m.matchTypeValues(pa.TypeValues[i], pb.TypeValues[i], lt)
			if res.Status == Mismatched {
				return res
			}
			newVals[i] = v
		}
		merged.TypeValues = newVals
	} else if len(pa.TypeValues) > 0 {
		merged.TypeValues = pa.TypeValues
	} else {
		merged.TypeValues = pb.TypeValues
	}

	// Closure local-type sets: union (spec.md §4.1).
	for k := range pa.ClosureLocalTypes {
		merged.AddClosureLocalType(k)
	}
	for k := range pb.ClosureLocalTypes {
		merged.AddClosureLocalType(k)
	}

	if pa.Ident != "" {
		merged.Ident = pa.Ident
		merged.Number = pa.Number
		merged.Pos = pa.Pos
	} else {
		merged.Ident = pb.Ident
		merged.Number = pb.Number
		merged.Pos = pb.Pos
	}

	// in_non_uniq_lambda / defined_type_param_eq are OR-ed between slots
	// (spec.md §4.1); they live on the LocalTypeEntry, not the shared
	// TypeParamEntry, so both entries are updated to carry the OR result.
	orNonUniq := ea.InNonUniqLambda || eb.InNonUniqLambda
	orDefEq := ea.DefinedTypeParamEq || eb.DefinedTypeParamEq
	uniq := ea.UniqOverride
	if eb.UniqOverride == Uniq {
		uniq = Uniq
	}

	ea.ParamEntry = merged
	eb.ParamEntry = merged
	ea.InNonUniqLambda, eb.InNonUniqLambda = orNonUniq, orNonUniq
	ea.DefinedTypeParamEq, eb.DefinedTypeParamEq = orDefEq, orDefEq
	ea.UniqOverride, eb.UniqOverride = uniq, uniq

	return matched()
}

// matchParamConcrete requires the concrete side to satisfy every constraint
// of the parameter, then replaces the parameter slot with the concrete value
// (spec.md §4.1 Parameter x Concrete).
func (m *Matcher) matchParamConcrete(param, concrete LocalType, lt *LocalTypes) MatchResult {
	pe := lt.Entry(param)
	ce := lt.Entry(concrete)
	entry := pe.ParamEntry

	typeName, hasName := ce.Value.TypeName()

	for _, trait := range entry.TraitNames {
		switch trait.Kind {
		case TraitShared:
			if !m.isShared(ce.Value, lt) {
				return mismatch(fmt.Sprintf("type %s does not satisfy shared", ce.Value))
			}
		case TraitFun:
			cv, ok := ce.Value.(ConcreteValue)
			if !ok || cv.Name.Kind != NameFun {
				return mismatch("type is not a function, required by Fun constraint")
			}
		case TraitUser:
			if !hasName {
				return mismatch("type has no fixed name to check trait implementation against")
			}
			implArgs, ok := m.Lookup.FindImpl(trait.Ident, typeName)
			if !ok {
				return mismatch(fmt.Sprintf("no implementation of %s for %s", trait.Ident, ce.Value))
			}
			if len(entry.TypeValues) > 0 {
				if len(implArgs) != len(entry.TypeValues) {
					return mismatch(fmt.Sprintf("trait %s argument arity mismatch", trait.Ident))
				}
				for i := range entry.TypeValues {
					implLT := lt.AddTypeValue(implArgs[i])
					paramLT := lt.AddTypeValue(entry.TypeValues[i])
					res := m.Matches(paramLT, implLT, lt)
					if res.Status == Mismatched {
						return res
					}
				}
			}
		}
	}

	// A unique-tagged parameter slot forces the concrete replacement unique
	// too (§3.3 invariant: a Uniq slot is never re-tagged non-unique silently).
	finalValue := ce.Value
	if pe.UniqOverride == Uniq {
		if cv, ok := finalValue.(ConcreteValue); ok {
			cv.Uniq = Uniq
			finalValue = cv
		} else if pv, ok := finalValue.(ParamValue); ok {
			pv.Uniq = Uniq
			finalValue = pv
		}
	}

	lt.SetType(param, finalValue)
	return matched()
}

// matchConcreteConcrete requires agreeing head constructors (spec.md §4.1
// Concrete x Concrete).
func (m *Matcher) matchConcreteConcrete(a, b TypeValue, lt *LocalTypes) MatchResult {
	res, _ := m.matchTypeValues(a, b, lt)
	return res
}

// matchTypeValues is the shared recursive worker behind both the arena-slot
// matcher and the trait-argument unification path; it returns the refined
// value alongside the status.
func (m *Matcher) matchTypeValues(a, b TypeValue, lt *LocalTypes) (MatchResult, TypeValue) {
	pa, aIsParam := a.(ParamValue)
	pb, bIsParam := b.(ParamValue)

	switch {
	case aIsParam && bIsParam:
		res := m.Matches(pa.Local, pb.Local, lt)
		if res.Status == Mismatched {
			return res, nil
		}
		return res, ParamValue{Local: pa.Local}
	case aIsParam && !bIsParam:
		la := lt.AddTypeValue(a)
		lt.SetType(la, a)
		lb := lt.AddTypeValue(b)
		res := m.matchParamConcrete(la, lb, lt)
		if res.Status == Mismatched {
			return res, nil
		}
		return res, lt.Entry(la).Value
	case !aIsParam && bIsParam:
		res, v := m.matchTypeValues(b, a, lt)
		return res, v
	}

	ca, okA := a.(ConcreteValue)
	cb, okB := b.(ConcreteValue)
	if !okA || !okB {
		return mismatch("unrecognized type value kind"), nil
	}
	if ca.Name.Kind != cb.Name.Kind {
		return mismatch(fmt.Sprintf("head constructor mismatch: %s vs %s", ca.Name, cb.Name)), nil
	}
	uniq := ca.Uniq
	if cb.Uniq == Uniq {
		uniq = Uniq
	}

	switch ca.Name.Kind {
	case NameTuple:
		if len(ca.Args) != len(cb.Args) {
			return mismatch("tuple arity mismatch"), nil
		}
	case NameArray:
		if ca.Name.ArrLen != nil && cb.Name.ArrLen != nil && *ca.Name.ArrLen != *cb.Name.ArrLen {
			return mismatch("array length mismatch"), nil
		}
	case NameFun:
		if len(ca.Args) != len(cb.Args) {
			return mismatch("function arity mismatch"), nil
		}
	case NameIdent:
		if ca.Name.Ident != cb.Name.Ident {
			return mismatch(fmt.Sprintf("named type mismatch: %s vs %s", ca.Name.Ident, cb.Name.Ident)), nil
		}
		if len(ca.Args) != len(cb.Args) {
			return mismatch("named type argument arity mismatch"), nil
		}
	}

	name := ca.Name
	if name.Kind == NameArray && name.ArrLen == nil {
		name.ArrLen = cb.Name.ArrLen
	}

	newArgs := make([]TypeValue, len(ca.Args))
	for i := range ca.Args {
		res, v := m.matchTypeValues(ca.Args[i], cb.Args[i], lt)
		if res.Status == Mismatched {
			return res, nil
		}
		newArgs[i] = v
	}
	return matched(), ConcreteValue{Uniq: uniq, Name: name, Args: newArgs}
}

// isShared is the Shared-trait satisfaction check used by matchParamConcrete.
func (m *Matcher) isShared(v TypeValue, lt *LocalTypes) bool {
	_, shared := m.UniqFlagAndSharedFlagOfValue(v, lt)
	return shared == Shared
}

// UniqFlagAndSharedFlag walks the entry once and returns (UniqFlag,
// SharedFlag) following spec.md §3.2's derivation rules.
func (m *Matcher) UniqFlagAndSharedFlag(local LocalType, lt *LocalTypes) (UniqFlag, SharedFlag) {
	e := lt.Entry(local)
	if e == nil {
		return UniqNone, SharedNone
	}
	if e.Kind == EntryParam {
		entry := e.ParamEntry
		uniq := e.UniqOverride
		if entry.HasTrait(TraitName{Kind: TraitShared}) && uniq != Uniq {
			return uniq, Shared
		}
		return uniq, SharedNone
	}
	return m.UniqFlagAndSharedFlagOfValue(e.Value, lt)
}

// UniqFlagAndSharedFlagOfValue computes the same pair directly from a
// concrete (or embedded-param) TypeValue.
func (m *Matcher) UniqFlagAndSharedFlagOfValue(v TypeValue, lt *LocalTypes) (UniqFlag, SharedFlag) {
	switch t := v.(type) {
	case ParamValue:
		return m.UniqFlagAndSharedFlag(t.Local, lt)
	case ConcreteValue:
		if t.Uniq == Uniq {
			return Uniq, SharedNone
		}
		if t.Name.Kind == NameFun {
			return UniqNone, Shared
		}
		shared := Shared
		if t.Name.Kind == NameIdent {
			bf, ok := m.Lookup.BuiltinSharedFlag(t.Name.Ident)
			if !ok {
				shared = SharedNone
			} else {
				shared = bf
			}
		}
		if shared == Shared {
			for _, a := range t.Args {
				_, s := m.UniqFlagAndSharedFlagOfValue(a, lt)
				if s != Shared {
					shared = SharedNone
					break
				}
			}
		}
		return UniqNone, shared
	}
	return UniqNone, SharedNone
}

// SetShared attempts to add Shared to a parameter's constraint set, or
// confirms sharedness of a concrete type. Returns true iff the slot is now
// provably shared (spec.md §4.1).
func (m *Matcher) SetShared(local LocalType, lt *LocalTypes) bool {
	e := lt.Entry(local)
	if e == nil {
		return false
	}
	if e.Kind == EntryParam {
		if e.UniqOverride == Uniq {
			return false
		}
		entry := e.ParamEntry
		for _, closureLT := range entry.SortedClosureLocalTypes() {
			if entry.HasTrait(TraitName{Kind: TraitFun}) {
				if cUniq, _ := m.UniqFlagAndSharedFlag(closureLT, lt); cUniq == Uniq {
					return false
				}
			}
		}
		entry.AddTrait(TraitName{Kind: TraitShared})
		return true
	}
	_, shared := m.UniqFlagAndSharedFlagOfValue(e.Value, lt)
	return shared == Shared
}
