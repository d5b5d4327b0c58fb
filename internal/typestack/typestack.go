// Package typestack implements the substitution frame stack of spec.md §4.2:
// a way to unroll a generic definition's local-types table against a
// concrete call site while preserving the parameterization for nested
// recursion.
//
// Ported from the original Rust implementation's
// frontend/type_stack.rs (see _examples/original_source), which the
// distilled spec.md condenses to a one-paragraph contract; the control flow
// here (the two-pass "copy subgraph, then alias or freshly copy each
// reference" algorithm, and the postorder "children before self" pass in
// ChangeTypeParamsToTypes) follows that source directly, translated from
// Rc<RefCell<..>> + BTreeMap bookkeeping into plain Go slices/maps since the
// stack is single-owner and never shared across goroutines (spec.md §5).
package typestack

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/typesystem"
)

type entryKind int

const (
	entryParam entryKind = iota
	entryType
)

type stackEntry struct {
	kind  entryKind
	param *typesystem.TypeParamEntry
	value typesystem.TypeValue
}

type frame struct {
	values   []typesystem.TypeValue
	entryLen int
}

// TypeStack is the substitution frame stack described in spec.md §4.2.
type TypeStack struct {
	frames          []frame
	entries         []stackEntry
	emptyParamEntry *typesystem.TypeParamEntry
}

// New builds an empty type stack.
func New() *TypeStack {
	return &TypeStack{emptyParamEntry: typesystem.NewTypeParamEntry()}
}

// TypeValueStackLen reports how many frames are currently pushed.
func (ts *TypeStack) TypeValueStackLen() int { return len(ts.frames) }

// TypeValues returns the top frame's bindings, or nil if the stack is empty.
func (ts *TypeStack) TypeValues() []typesystem.TypeValue {
	if len(ts.frames) == 0 {
		return nil
	}
	return ts.frames[len(ts.frames)-1].values
}

// TypeValue returns the top frame's binding at local, or nil if out of range.
func (ts *TypeStack) TypeValue(local typesystem.LocalType) typesystem.TypeValue {
	vs := ts.TypeValues()
	if vs == nil || int(local) < 0 || int(local) >= len(vs) {
		return nil
	}
	return vs[local]
}

// TypeEntries exposes the flat arena of pushed entries (for diagnostics/tests).
func (ts *TypeStack) TypeEntries() int { return len(ts.entries) }

// SetFirstTypeValuesForType initializes the stack from a definition's
// declared parameter sequence: one frame containing one local type per
// parameter, with fresh Param entries carrying the declared constraints
// (spec.md §4.2).
func (ts *TypeStack) SetFirstTypeValuesForType(typ typesystem.Type) {
	ts.frames = ts.frames[:0]
	ts.entries = ts.entries[:0]
	values := make([]typesystem.TypeValue, len(typ.ParamEntries))
	for i, pe := range typ.ParamEntries {
		values[i] = typesystem.ParamValue{Local: typesystem.LocalType(i)}
		ts.entries = append(ts.entries, stackEntry{kind: entryParam, param: pe})
	}
	ts.frames = append(ts.frames, frame{values: values, entryLen: len(ts.entries)})
}

func (ts *TypeStack) addTypeEntry(local typesystem.LocalType, newLocalTypes map[typesystem.LocalType]typesystem.LocalType, added *[]typesystem.LocalType, ancestors map[typesystem.LocalType]bool) (typesystem.LocalType, error) {
	if v, ok := newLocalTypes[local]; ok {
		return v, nil
	}
	if ancestors[local] {
		return 0, fmt.Errorf("cycle of local types")
	}
	newLocal := typesystem.LocalType(len(ts.entries))
	ts.entries = append(ts.entries, stackEntry{kind: entryParam, param: ts.emptyParamEntry})
	newLocalTypes[local] = newLocal
	*added = append(*added, local)
	return newLocal, nil
}

func (ts *TypeStack) realTypeValue(tv typesystem.TypeValue, localTypes *typesystem.LocalTypes, newLocalTypes map[typesystem.LocalType]typesystem.LocalType, added *[]typesystem.LocalType, ancestors map[typesystem.LocalType]bool) (typesystem.TypeValue, error) {
	switch t := tv.(type) {
	case typesystem.ParamValue:
		entry := localTypes.Entry(t.Local)
		if entry == nil || entry.Kind != typesystem.EntryParam {
			return nil, fmt.Errorf("realTypeValue: no local type entry or entry is concrete")
		}
		if cur := ts.TypeValues(); cur != nil {
			for i := range cur {
				e2 := localTypes.Entry(typesystem.LocalType(i))
				if e2 != nil && e2.Kind == typesystem.EntryParam && e2.ParamEntry == entry.ParamEntry {
					return cur[i], nil
				}
			}
		}
		newLocal, err := ts.addTypeEntry(t.Local, newLocalTypes, added, ancestors)
		if err != nil {
			return nil, err
		}
		return typesystem.ParamValue{Uniq: t.Uniq, Local: newLocal}, nil
	case typesystem.ConcreteValue:
		newArgs := make([]typesystem.TypeValue, len(t.Args))
		for i, a := range t.Args {
			v, err := ts.realTypeValue(a, localTypes, newLocalTypes, added, ancestors)
			if err != nil {
				return nil, err
			}
			newArgs[i] = v
		}
		return typesystem.ConcreteValue{Uniq: t.Uniq, Name: t.Name, Args: newArgs}, nil
	}
	return nil, fmt.Errorf("realTypeValue: unrecognized type value")
}

func (ts *TypeStack) expandLocalType(local typesystem.LocalType, localTypes *typesystem.LocalTypes, newLocalTypes map[typesystem.LocalType]typesystem.LocalType, ancestors map[typesystem.LocalType]bool) ([]typesystem.LocalType, error) {
	entry := localTypes.Entry(local)
	if entry == nil {
		return nil, fmt.Errorf("expandLocalType: no local type entry")
	}
	var added []typesystem.LocalType
	newLocal, ok := newLocalTypes[local]
	if !ok {
		return nil, fmt.Errorf("expandLocalType: no new local type")
	}
	if entry.Kind == typesystem.EntryParam {
		pe := entry.ParamEntry
		newEntry := typesystem.NewTypeParamEntry()
		for _, tv := range pe.TypeValues {
			nv, err := ts.realTypeValue(tv, localTypes, newLocalTypes, &added, ancestors)
			if err != nil {
				return nil, err
			}
			newEntry.TypeValues = append(newEntry.TypeValues, nv)
		}
		newEntry.TraitNames = append([]typesystem.TraitName{}, pe.TraitNames...)
		for _, clt := range pe.SortedClosureLocalTypes() {
			newClosureLocal, err := ts.addTypeEntry(clt, newLocalTypes, &added, ancestors)
			if err != nil {
				return nil, err
			}
			newEntry.AddClosureLocalType(newClosureLocal)
		}
		newEntry.Number, newEntry.Ident, newEntry.Pos = pe.Number, pe.Ident, pe.Pos
		ts.entries[newLocal] = stackEntry{kind: entryParam, param: newEntry}
	} else {
		nv, err := ts.realTypeValue(entry.Value, localTypes, newLocalTypes, &added, ancestors)
		if err != nil {
			return nil, err
		}
		ts.entries[newLocal] = stackEntry{kind: entryType, value: nv}
	}
	return added, nil
}

func (ts *TypeStack) pushSubgraph(local typesystem.LocalType, localTypes *typesystem.LocalTypes, newLocalTypes map[typesystem.LocalType]typesystem.LocalType, ancestors map[typesystem.LocalType]bool) error {
	self := make(map[typesystem.LocalType]bool, len(ancestors)+1)
	for k := range ancestors {
		self[k] = true
	}
	self[local] = true
	children, err := ts.expandLocalType(local, localTypes, newLocalTypes, self)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := ts.pushSubgraph(c, localTypes, newLocalTypes, self); err != nil {
			return err
		}
	}
	return nil
}

// PushTypeEntriesForLocalType copies the subgraph reachable from local out of
// a child LocalTypes into the stack, a depth-first walk guarded by a visited
// set; a back-edge during descent fails with "cycle of local types"
// (spec.md §4.2).
func (ts *TypeStack) PushTypeEntriesForLocalType(local typesystem.LocalType, localTypes *typesystem.LocalTypes) (typesystem.LocalType, error) {
	newLocalTypes := map[typesystem.LocalType]typesystem.LocalType{}
	newLocal := typesystem.LocalType(len(ts.entries))
	ts.entries = append(ts.entries, stackEntry{kind: entryParam, param: ts.emptyParamEntry})
	newLocalTypes[local] = newLocal
	if err := ts.pushSubgraph(local, localTypes, newLocalTypes, map[typesystem.LocalType]bool{}); err != nil {
		return 0, err
	}
	return newLocal, nil
}

// PopTypeEntries pops entries back to the length recorded by the current
// top frame (or zero if no frame remains).
func (ts *TypeStack) PopTypeEntries() {
	newLen := 0
	if len(ts.frames) > 0 {
		newLen = ts.frames[len(ts.frames)-1].entryLen
	}
	if newLen < len(ts.entries) {
		ts.entries = ts.entries[:newLen]
	}
}

// PushTypeValues pushes a fresh frame with explicit bindings.
func (ts *TypeStack) PushTypeValues(values []typesystem.TypeValue) {
	ts.frames = append(ts.frames, frame{values: values, entryLen: len(ts.entries)})
}

// PopTypeValues pops the top frame, truncating entries back to the frame
// below (spec.md §4.2 "Ordering: frames may be pushed and popped in LIFO
// order").
func (ts *TypeStack) PopTypeValues() []typesystem.TypeValue {
	if len(ts.frames) == 0 {
		return nil
	}
	top := ts.frames[len(ts.frames)-1]
	ts.frames = ts.frames[:len(ts.frames)-1]
	ts.PopTypeEntries()
	return top.values
}

func (ts *TypeStack) typeNameForTypeValues(a, b typesystem.TypeValue, traitIdent string, typ typesystem.Type) (typesystem.TypeName, bool, error) {
	pa, aIsParam := a.(typesystem.ParamValue)
	pb, bIsParam := b.(typesystem.ParamValue)

	switch {
	case aIsParam && bIsParam:
		if int(pa.Local) >= len(ts.entries) {
			return typesystem.TypeName{}, false, fmt.Errorf("typeNameForTypeValues: no type stack entry")
		}
		e1 := ts.entries[pa.Local]
		e2 := typ.TypeParamEntry(pb.Local)
		if e2 == nil {
			return typesystem.TypeName{}, false, fmt.Errorf("typeNameForTypeValues: no type parameter entry")
		}
		if e1.kind == entryType {
			return ts.typeNameForTypeValues(e1.value, b, traitIdent, typ)
		}
		if len(e2.TypeValues) == 0 {
			return typesystem.TypeName{}, false, nil
		}
		for i := range e1.param.TypeValues {
			if i >= len(e2.TypeValues) {
				break
			}
			if tn, ok, err := ts.typeNameForTypeValues(e1.param.TypeValues[i], e2.TypeValues[i], traitIdent, typ); err != nil {
				return typesystem.TypeName{}, false, err
			} else if ok {
				return tn, true, nil
			}
		}
		return typesystem.TypeName{}, false, nil

	case aIsParam && !bIsParam:
		if int(pa.Local) >= len(ts.entries) {
			return typesystem.TypeName{}, false, fmt.Errorf("typeNameForTypeValues: no type stack entry")
		}
		e1 := ts.entries[pa.Local]
		if e1.kind != entryType {
			return typesystem.TypeName{}, false, fmt.Errorf("typeNameForTypeValues: can't match type parameter with type")
		}
		return ts.typeNameForTypeValues(e1.value, b, traitIdent, typ)

	case !aIsParam && bIsParam:
		e2 := typ.TypeParamEntry(pb.Local)
		if e2 == nil {
			return typesystem.TypeName{}, false, fmt.Errorf("typeNameForTypeValues: no type parameter entry")
		}
		for _, tn := range e2.TraitNames {
			if tn.Kind == typesystem.TraitUser && tn.Ident == traitIdent {
				name, ok := a.TypeName()
				return name, ok, nil
			}
		}
		ca := a.(typesystem.ConcreteValue)
		if len(e2.TypeValues) == 0 {
			return typesystem.TypeName{}, false, nil
		}
		for i := range ca.Args {
			if i >= len(e2.TypeValues) {
				break
			}
			if tn, ok, err := ts.typeNameForTypeValues(ca.Args[i], e2.TypeValues[i], traitIdent, typ); err != nil {
				return typesystem.TypeName{}, false, err
			} else if ok {
				return tn, true, nil
			}
		}
		return typesystem.TypeName{}, false, nil

	default:
		ca := a.(typesystem.ConcreteValue)
		cb := b.(typesystem.ConcreteValue)
		for i := range ca.Args {
			if i >= len(cb.Args) {
				break
			}
			if tn, ok, err := ts.typeNameForTypeValues(ca.Args[i], cb.Args[i], traitIdent, typ); err != nil {
				return typesystem.TypeName{}, false, err
			} else if ok {
				return tn, true, nil
			}
		}
		return typesystem.TypeName{}, false, nil
	}
}

// TypeNameForLocalTypeAndType returns the concrete implementing type name at
// a trait-method call site, used by the instancer to dispatch to an impl
// (spec.md §4.2, §4.4).
func (ts *TypeStack) TypeNameForLocalTypeAndType(local typesystem.LocalType, typ typesystem.Type, traitIdent string) (typesystem.TypeName, bool, error) {
	return ts.typeNameForTypeValues(typesystem.ParamValue{Local: local}, typ.TypeValue(), traitIdent, typ)
}

func (ts *TypeStack) setTypeValuesForTypeValue(a, b typesystem.TypeValue, typ typesystem.Type, out []typesystem.TypeValue) (typesystem.TypeValue, error) {
	pa, aIsParam := a.(typesystem.ParamValue)
	pb, bIsParam := b.(typesystem.ParamValue)

	switch {
	case aIsParam && bIsParam:
		if int(pa.Local) >= len(ts.entries) {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type stack entry")
		}
		e1 := &ts.entries[pa.Local]
		e2 := typ.TypeParamEntry(pb.Local)
		if e2 == nil {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type parameter entry")
		}
		if e1.kind == entryType {
			return ts.setTypeValuesForTypeValue(e1.value, b, typ, out)
		}
		var newValues []typesystem.TypeValue
		if len(e2.TypeValues) > 0 {
			for i := range e1.param.TypeValues {
				if i >= len(e2.TypeValues) {
					break
				}
				v, err := ts.setTypeValuesForTypeValue(e1.param.TypeValues[i], e2.TypeValues[i], typ, out)
				if err != nil {
					return nil, err
				}
				newValues = append(newValues, v)
			}
		} else {
			newValues = append(newValues, e1.param.TypeValues...)
		}
		e1.param.TypeValues = newValues
		newValue := typesystem.ParamValue{Uniq: pb.Uniq, Local: pa.Local}
		if int(pb.Local) >= len(out) {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type value")
		}
		out[pb.Local] = newValue
		return newValue, nil

	case aIsParam && !bIsParam:
		if int(pa.Local) >= len(ts.entries) {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type stack entry")
		}
		e1 := ts.entries[pa.Local]
		if e1.kind != entryType {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: can't match type parameter with type")
		}
		return ts.setTypeValuesForTypeValue(e1.value, b, typ, out)

	case !aIsParam && bIsParam:
		e2 := typ.TypeParamEntry(pb.Local)
		if e2 == nil {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type parameter entry")
		}
		ca := a.(typesystem.ConcreteValue)
		var newValues []typesystem.TypeValue
		if len(e2.TypeValues) > 0 {
			for i := range ca.Args {
				if i >= len(e2.TypeValues) {
					break
				}
				v, err := ts.setTypeValuesForTypeValue(ca.Args[i], e2.TypeValues[i], typ, out)
				if err != nil {
					return nil, err
				}
				newValues = append(newValues, v)
			}
		} else {
			newValues = append(newValues, ca.Args...)
		}
		newValue := typesystem.ConcreteValue{Uniq: pb.Uniq, Name: ca.Name, Args: newValues}
		if int(pb.Local) >= len(out) {
			return nil, fmt.Errorf("setTypeValuesForTypeValue: no type value")
		}
		out[pb.Local] = newValue
		return newValue, nil

	default:
		ca := a.(typesystem.ConcreteValue)
		cb := b.(typesystem.ConcreteValue)
		var newValues []typesystem.TypeValue
		for i := range ca.Args {
			if i >= len(cb.Args) {
				break
			}
			v, err := ts.setTypeValuesForTypeValue(ca.Args[i], cb.Args[i], typ, out)
			if err != nil {
				return nil, err
			}
			newValues = append(newValues, v)
		}
		return typesystem.ConcreteValue{Uniq: cb.Uniq, Name: ca.Name, Args: newValues}, nil
	}
}

// PushTypeValuesForLocalTypeAndType pushes a fresh frame binding the
// definition's formal parameters to concrete values extracted by matching
// local's current entry against typ's parameter shape (spec.md §4.2).
func (ts *TypeStack) PushTypeValuesForLocalTypeAndType(local typesystem.LocalType, typ typesystem.Type) error {
	out := make([]typesystem.TypeValue, len(typ.ParamEntries))
	for i := range out {
		out[i] = typesystem.UnitType()
	}
	_, err := ts.setTypeValuesForTypeValue(typesystem.ParamValue{Local: local}, typ.TypeValue(), typ, out)
	if err != nil {
		return err
	}
	ts.frames = append(ts.frames, frame{values: out, entryLen: len(ts.entries)})
	return nil
}

// sharedLookup is the subset of typesystem.TraitImplLookup the type stack
// needs to resolve a named type's built-in sharedness.
type sharedLookup interface {
	BuiltinSharedFlag(ident string) (typesystem.SharedFlag, bool)
}

func (ts *TypeStack) sharedFlagForTypeValue(tv typesystem.TypeValue, lookup sharedLookup) (typesystem.SharedFlag, error) {
	switch t := tv.(type) {
	case typesystem.ParamValue:
		if t.Uniq == typesystem.Uniq {
			return typesystem.SharedNone, nil
		}
		if int(t.Local) >= len(ts.entries) {
			return typesystem.SharedNone, fmt.Errorf("sharedFlagForTypeValue: no type stack entry")
		}
		e := ts.entries[t.Local]
		if e.kind == entryType {
			return ts.sharedFlagForTypeValue(e.value, lookup)
		}
		if e.param.HasTrait(typesystem.TraitName{Kind: typesystem.TraitShared}) {
			return typesystem.Shared, nil
		}
		return typesystem.SharedNone, nil
	case typesystem.ConcreteValue:
		if t.Uniq == typesystem.Uniq {
			return typesystem.SharedNone, nil
		}
		if t.Name.Kind == typesystem.NameFun {
			return typesystem.Shared, nil
		}
		shared := typesystem.Shared
		if t.Name.Kind == typesystem.NameIdent {
			bf, ok := lookup.BuiltinSharedFlag(t.Name.Ident)
			if !ok {
				return typesystem.SharedNone, nil
			}
			shared = bf
		}
		if shared == typesystem.Shared {
			for _, a := range t.Args {
				s, err := ts.sharedFlagForTypeValue(a, lookup)
				if err != nil {
					return typesystem.SharedNone, err
				}
				if s != typesystem.Shared {
					shared = typesystem.SharedNone
					break
				}
			}
		}
		return shared, nil
	}
	return typesystem.SharedNone, fmt.Errorf("sharedFlagForTypeValue: unrecognized type value")
}

// SharedFlagForLocalType reports sharedness under the current frame (spec.md §4.2).
func (ts *TypeStack) SharedFlagForLocalType(local typesystem.LocalType, lookup sharedLookup) (typesystem.SharedFlag, error) {
	return ts.sharedFlagForTypeValue(typesystem.ParamValue{Local: local}, lookup)
}

// ClosureLocalsForLocalType exposes the closure-capture set attached to
// local's parameter entry, re-expressed in the stack's own local-type space
// (valid once local's subgraph has been copied in by
// PushTypeEntriesForLocalType). Returns nil if local isn't a parameter slot.
// Used by the instancer to evaluate each captured binding's sharedness
// (spec.md §4.4 step 4 "mark lambdas whose capture set includes a
// non-unique binding as in_non_uniq_lambda").
func (ts *TypeStack) ClosureLocalsForLocalType(local typesystem.LocalType) []typesystem.LocalType {
	if int(local) < 0 || int(local) >= len(ts.entries) {
		return nil
	}
	e := ts.entries[local]
	if e.kind != entryParam || e.param == nil {
		return nil
	}
	return e.param.SortedClosureLocalTypes()
}

func (ts *TypeStack) addLocalTypesForTypeValue(tv typesystem.TypeValue, ancestors map[typesystem.LocalType]bool) ([]typesystem.LocalType, error) {
	switch t := tv.(type) {
	case typesystem.ParamValue:
		if ancestors[t.Local] {
			return nil, fmt.Errorf("cycle of local types")
		}
		return []typesystem.LocalType{t.Local}, nil
	case typesystem.ConcreteValue:
		var out []typesystem.LocalType
		for _, a := range t.Args {
			ls, err := ts.addLocalTypesForTypeValue(a, ancestors)
			if err != nil {
				return nil, err
			}
			out = append(out, ls...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("addLocalTypesForTypeValue: unrecognized type value")
}

func (ts *TypeStack) localTypesForChange(local typesystem.LocalType, ancestors map[typesystem.LocalType]bool) ([]typesystem.LocalType, error) {
	if int(local) >= len(ts.entries) {
		return nil, fmt.Errorf("localTypesForChange: no local type entry")
	}
	e := ts.entries[local]
	var out []typesystem.LocalType
	if e.kind == entryParam {
		for _, tv := range e.param.TypeValues {
			ls, err := ts.addLocalTypesForTypeValue(tv, ancestors)
			if err != nil {
				return nil, err
			}
			out = append(out, ls...)
		}
		for _, clt := range e.param.SortedClosureLocalTypes() {
			if ancestors[clt] {
				return nil, fmt.Errorf("cycle of local types")
			}
			out = append(out, clt)
		}
	} else {
		ls, err := ts.addLocalTypesForTypeValue(e.value, ancestors)
		if err != nil {
			return nil, err
		}
		out = append(out, ls...)
	}
	return out, nil
}

func (ts *TypeStack) setTypeValueForLocalType(local typesystem.LocalType, lookup sharedLookup, out []typesystem.TypeValue) error {
	if int(local) >= len(ts.entries) {
		return fmt.Errorf("setTypeValueForLocalType: no local type entry")
	}
	e := ts.entries[local]
	if e.kind == entryParam {
		if e.param.HasTrait(typesystem.TraitName{Kind: typesystem.TraitFun}) {
			newValues := make([]typesystem.TypeValue, len(e.param.TypeValues))
			for i, tv := range e.param.TypeValues {
				if nv, ok := tv.Substitute(out); ok {
					newValues[i] = nv
				} else {
					newValues[i] = tv
				}
			}
			shared := typesystem.Shared
			for _, clt := range e.param.SortedClosureLocalTypes() {
				s, err := ts.SharedFlagForLocalType(clt, lookup)
				if err != nil {
					return err
				}
				if s != typesystem.Shared {
					shared = typesystem.SharedNone
				}
			}
			uniq := typesystem.UniqNone
			if shared == typesystem.SharedNone {
				uniq = typesystem.Uniq
			}
			out[local] = typesystem.ConcreteValue{Uniq: uniq, Name: typesystem.TypeValueName{Kind: typesystem.NameFun}, Args: newValues}
		} else {
			out[local] = typesystem.UnitType()
		}
	} else {
		if nv, ok := e.value.Substitute(out); ok {
			out[local] = nv
		} else {
			out[local] = e.value
		}
	}
	return nil
}

func (ts *TypeStack) dfsChange(local typesystem.LocalType, lookup sharedLookup, done map[typesystem.LocalType]bool, ancestors map[typesystem.LocalType]bool, out []typesystem.TypeValue) error {
	if done[local] {
		return nil
	}
	if ancestors[local] {
		return fmt.Errorf("cycle of local types")
	}
	self := make(map[typesystem.LocalType]bool, len(ancestors)+1)
	for k := range ancestors {
		self[k] = true
	}
	self[local] = true
	children, err := ts.localTypesForChange(local, self)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := ts.dfsChange(c, lookup, done, self, out); err != nil {
			return err
		}
	}
	if err := ts.setTypeValueForLocalType(local, lookup, out); err != nil {
		return err
	}
	done[local] = true
	return nil
}

// ChangeTypeParamsToTypes finalizes the table by substituting any remaining
// un-refined type parameters with the unit tuple () and, for Fun-constrained
// parameters, with a function type derived from the trait arguments and the
// captured closure's sharedness (spec.md §4.2, §9 Open Questions).
func (ts *TypeStack) ChangeTypeParamsToTypes(lookup sharedLookup) (*typesystem.LocalType, error) {
	out := make([]typesystem.TypeValue, len(ts.entries))
	for i := range out {
		out[i] = typesystem.UnitType()
	}
	done := map[typesystem.LocalType]bool{}
	for i := 0; i < len(ts.entries); i++ {
		if err := ts.dfsChange(typesystem.LocalType(i), lookup, done, map[typesystem.LocalType]bool{}, out); err != nil {
			return nil, err
		}
	}
	lastIdx := 0
	if len(ts.frames) > 0 {
		lastIdx = ts.frames[len(ts.frames)-1].entryLen
	}
	var lastValue typesystem.TypeValue
	if lastIdx < len(out) {
		lastValue = out[lastIdx]
	}
	for fi := len(ts.frames) - 1; fi >= 0; fi-- {
		if ts.frames[fi].entryLen == 0 {
			break
		}
		for i, v := range ts.frames[fi].values {
			if nv, ok := v.Substitute(out); ok {
				ts.frames[fi].values[i] = nv
			}
		}
		ts.frames[fi].entryLen = 0
	}
	ts.entries = ts.entries[:0]
	if lastValue == nil {
		return nil, nil
	}
	ts.entries = append(ts.entries, stackEntry{kind: entryType, value: lastValue})
	zero := typesystem.LocalType(0)
	return &zero, nil
}
