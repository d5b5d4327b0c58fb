package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup grounds the original test fixture
// (type_matcher/tests.rs::test_type_matcher_uniq_flag_and_shared_flag_returns_unique_flag_and_shared_flag_for_defined_type_parameters):
// `Int`/`Float` builtin types, a trait `T<t1>` implemented for both.
type fakeLookup struct {
	impls map[string]map[string][]TypeValue // trait -> type ident -> args
	prims map[string]SharedFlag
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		impls: map[string]map[string][]TypeValue{
			"T": {
				"Int":   nil,
				"Float": nil,
			},
		},
		prims: map[string]SharedFlag{"Int": Shared, "Float": Shared},
	}
}

func (f *fakeLookup) FindImpl(trait string, name TypeName) ([]TypeValue, bool) {
	byType, ok := f.impls[trait]
	if !ok {
		return nil, false
	}
	args, ok := byType[name.Ident]
	return args, ok
}

func (f *fakeLookup) BuiltinSharedFlag(ident string) (SharedFlag, bool) {
	sf, ok := f.prims[ident]
	return sf, ok
}

func intType() TypeValue  { return ConcreteValue{Name: TypeValueName{Kind: NameIdent, Ident: "Int"}} }
func floatType() TypeValue { return ConcreteValue{Name: TypeValueName{Kind: NameIdent, Ident: "Float"}} }

func TestMatcher_UniqFlagAndSharedFlag_DefinedTypeParameters(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	// t0: shared + T<Int> -- a parameter satisfied by a shared concrete type.
	shared0 := lt.AddParam(Defined)
	lt.Entry(shared0).ParamEntry.AddTrait(TraitName{Kind: TraitShared})

	// t1: a bare, unconstrained parameter.
	bare1 := lt.AddParam(Defined)

	// t2: an unconstrained parameter (placeholder to mirror original index layout).
	lt.AddParam(Defined)

	// t3: an explicitly unique parameter slot.
	uniq3 := lt.AddParam(Inferred)
	lt.Entry(uniq3).UniqOverride = Uniq

	uniq, shared := m.UniqFlagAndSharedFlag(shared0, lt)
	assert.Equal(t, UniqNone, uniq)
	assert.Equal(t, Shared, shared)

	uniq, shared = m.UniqFlagAndSharedFlag(uniq3, lt)
	assert.Equal(t, Uniq, uniq)
	assert.Equal(t, SharedNone, shared)

	uniq, shared = m.UniqFlagAndSharedFlag(bare1, lt)
	assert.Equal(t, UniqNone, uniq)
	assert.Equal(t, SharedNone, shared)
}

func TestMatcher_ParamParam_UnionsEntries(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	a := lt.AddParam(Inferred)
	b := lt.AddParam(Inferred)
	lt.Entry(a).ParamEntry.AddTrait(TraitName{Kind: TraitUser, Ident: "T"})
	lt.Entry(b).ParamEntry.AddTrait(TraitName{Kind: TraitShared})

	res := m.Matches(a, b, lt)
	require.Equal(t, Matched, res.Status)

	// §8 "Union propagation": later queries through either index return the
	// same TypeParamEntry object.
	require.Same(t, lt.Entry(a).ParamEntry, lt.Entry(b).ParamEntry)
	assert.True(t, lt.Entry(a).ParamEntry.HasTrait(TraitName{Kind: TraitUser, Ident: "T"}))
	assert.True(t, lt.Entry(a).ParamEntry.HasTrait(TraitName{Kind: TraitShared}))
}

func TestMatcher_ParamConcrete_RequiresTraitImpl(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	p := lt.AddParam(Inferred)
	lt.Entry(p).ParamEntry.AddTrait(TraitName{Kind: TraitUser, Ident: "T"})
	c := lt.AddTypeValue(intType())

	res := m.Matches(p, c, lt)
	require.Equal(t, Matched, res.Status)
	assert.Equal(t, EntryType, lt.Entry(p).Kind)
}

func TestMatcher_ParamConcrete_MissingImplMismatches(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	p := lt.AddParam(Inferred)
	lt.Entry(p).ParamEntry.AddTrait(TraitName{Kind: TraitUser, Ident: "Missing"})
	c := lt.AddTypeValue(intType())

	res := m.Matches(p, c, lt)
	assert.Equal(t, Mismatched, res.Status)
}

func TestMatcher_ConcreteConcrete_NamedTypeMismatch(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	a := lt.AddTypeValue(intType())
	b := lt.AddTypeValue(floatType())

	res := m.Matches(a, b, lt)
	assert.Equal(t, Mismatched, res.Status)
}

func TestMatcher_UniqOnEitherSideForcesUniq(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	uniqInt := ConcreteValue{Uniq: Uniq, Name: TypeValueName{Kind: NameIdent, Ident: "Int"}}
	a := lt.AddTypeValue(uniqInt)
	b := lt.AddTypeValue(intType())

	res := m.Matches(a, b, lt)
	require.Equal(t, Matched, res.Status)
	cv := lt.Entry(a).Value.(ConcreteValue)
	assert.Equal(t, Uniq, cv.Uniq)
}

func TestMatcher_SetShared_FailsForUniqueSlot(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	p := lt.AddParam(Inferred)
	lt.Entry(p).UniqOverride = Uniq

	assert.False(t, m.SetShared(p, lt))
}

func TestMatcher_SetShared_SucceedsForPlainParam(t *testing.T) {
	lt := NewLocalTypes()
	m := NewMatcher(newFakeLookup())

	p := lt.AddParam(Inferred)
	assert.True(t, m.SetShared(p, lt))
	assert.True(t, lt.Entry(p).ParamEntry.HasTrait(TraitName{Kind: TraitShared}))
}
