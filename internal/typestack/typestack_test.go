package typestack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/typesystem"
)

// fakeLookup is the minimal sharedLookup a test needs: no built-in types
// pre-registered, since the cases below only exercise Param-kind entries
// (whose sharedness turns on trait constraints, not this lookup).
type fakeLookup struct {
	prims map[string]typesystem.SharedFlag
}

func (f *fakeLookup) BuiltinSharedFlag(ident string) (typesystem.SharedFlag, bool) {
	sf, ok := f.prims[ident]
	return sf, ok
}

func intValue() typesystem.TypeValue {
	return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: "Int"}}
}

func TestTypeStack_PushPopTypeValues_FrameRestoration(t *testing.T) {
	pe0 := typesystem.NewTypeParamEntry()
	pe1 := typesystem.NewTypeParamEntry()
	declType := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{pe0, pe1}}

	ts := New()
	ts.SetFirstTypeValuesForType(declType)
	require.Equal(t, 1, ts.TypeValueStackLen())
	require.Equal(t, 2, ts.TypeEntries())

	values := []typesystem.TypeValue{intValue(), intValue()}
	ts.PushTypeValues(values)
	assert.Equal(t, 2, ts.TypeValueStackLen())
	assert.Equal(t, values, ts.TypeValues())

	got := ts.PopTypeValues()
	assert.Equal(t, values, got)
	assert.Equal(t, 1, ts.TypeValueStackLen(), "popping the pushed frame must restore the one beneath it")
	assert.Equal(t, 2, ts.TypeEntries(), "entries must be trimmed back to the restored frame's baseline")
}

func TestTypeStack_PushTypeEntriesForLocalType_PopIsLengthInvariant(t *testing.T) {
	// A small arena: a tuple of two fresh parameters, grounded on the
	// closure-capture subgraphs the instancer copies in (spec.md §4.4 step 4).
	lt := typesystem.NewLocalTypes()
	p0 := lt.AddParam(typesystem.Inferred)
	p1 := lt.AddParam(typesystem.Inferred)
	tuple := lt.AddTypeValue(typesystem.ConcreteValue{
		Name: typesystem.TypeValueName{Kind: typesystem.NameTuple},
		Args: []typesystem.TypeValue{typesystem.ParamValue{Local: p0}, typesystem.ParamValue{Local: p1}},
	})

	ts := New()
	ts.PushTypeValues(nil) // a frame to restore into, entryLen recorded at 0
	baseline := ts.TypeEntries()

	newLocal, err := ts.PushTypeEntriesForLocalType(tuple, lt)
	require.NoError(t, err)
	assert.Greater(t, ts.TypeEntries(), baseline, "copying the subgraph must grow the entry arena")
	assert.GreaterOrEqual(t, int(newLocal), baseline)

	ts.PopTypeEntries()
	assert.Equal(t, baseline, ts.TypeEntries(), "PopTypeEntries must restore the exact pre-push length")
}

func TestTypeStack_PushTypeEntriesForLocalType_SelfReferenceDoesNotCycle(t *testing.T) {
	// A recursively-typed parameter (its own trait argument refers back to
	// itself) is the common case a naive cycle check would wrongly reject;
	// the subgraph copier pre-registers the root before descending so this
	// succeeds.
	lt := typesystem.NewLocalTypes()
	p := lt.AddParam(typesystem.Inferred)
	lt.Entry(p).ParamEntry.TypeValues = append(lt.Entry(p).ParamEntry.TypeValues, typesystem.ParamValue{Local: p})

	ts := New()
	_, err := ts.PushTypeEntriesForLocalType(p, lt)
	assert.NoError(t, err)
}

func TestTypeStack_ChangeTypeParamsToTypes_DetectsCycleOfLocalTypes(t *testing.T) {
	// Two distinct parameters whose trait arguments reference each other,
	// neither resolved before the other is revisited — an actual cycle, as
	// opposed to the harmless self-reference above (spec.md §4.2).
	pe0 := typesystem.NewTypeParamEntry()
	pe1 := typesystem.NewTypeParamEntry()
	pe0.TypeValues = []typesystem.TypeValue{typesystem.ParamValue{Local: 1}}
	pe1.TypeValues = []typesystem.TypeValue{typesystem.ParamValue{Local: 0}}
	declType := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{pe0, pe1}}

	ts := New()
	ts.SetFirstTypeValuesForType(declType)
	_, err := ts.ChangeTypeParamsToTypes(&fakeLookup{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestTypeStack_ChangeTypeParamsToTypes_DefaultsUnrefinedParamsToUnit(t *testing.T) {
	pe0 := typesystem.NewTypeParamEntry()
	pe1 := typesystem.NewTypeParamEntry()
	declType := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{pe0, pe1}}

	ts := New()
	ts.SetFirstTypeValuesForType(declType)
	_, err := ts.ChangeTypeParamsToTypes(&fakeLookup{})
	require.NoError(t, err)

	for _, v := range ts.TypeValues() {
		assert.Equal(t, typesystem.UnitType(), v, "an un-refined parameter must default to the unit tuple")
	}
}

func TestTypeStack_ChangeTypeParamsToTypes_FunParamWithSharedCaptureIsNonUnique(t *testing.T) {
	captured := typesystem.NewTypeParamEntry()
	captured.AddTrait(typesystem.TraitName{Kind: typesystem.TraitShared})

	lambda := typesystem.NewTypeParamEntry()
	lambda.AddTrait(typesystem.TraitName{Kind: typesystem.TraitFun})
	lambda.TypeValues = []typesystem.TypeValue{intValue(), intValue()}
	lambda.AddClosureLocalType(0) // index 0 below is `captured`

	declType := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{captured, lambda}}

	ts := New()
	ts.SetFirstTypeValuesForType(declType)
	_, err := ts.ChangeTypeParamsToTypes(&fakeLookup{})
	require.NoError(t, err)

	vals := ts.TypeValues()
	assert.Equal(t, typesystem.UnitType(), vals[0])

	fun, ok := vals[1].(typesystem.ConcreteValue)
	require.True(t, ok)
	assert.Equal(t, typesystem.NameFun, fun.Name.Kind)
	assert.Equal(t, typesystem.UniqNone, fun.Uniq, "a capture that's provably shared keeps the derived Fun type non-unique")
	assert.Len(t, fun.Args, 2)
}

func TestTypeStack_ChangeTypeParamsToTypes_FunParamWithNonSharedCaptureIsUniq(t *testing.T) {
	captured := typesystem.NewTypeParamEntry() // bare, no Shared trait

	lambda := typesystem.NewTypeParamEntry()
	lambda.AddTrait(typesystem.TraitName{Kind: typesystem.TraitFun})
	lambda.TypeValues = []typesystem.TypeValue{intValue(), intValue()}
	lambda.AddClosureLocalType(0)

	declType := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{captured, lambda}}

	ts := New()
	ts.SetFirstTypeValuesForType(declType)
	_, err := ts.ChangeTypeParamsToTypes(&fakeLookup{})
	require.NoError(t, err)

	fun, ok := ts.TypeValues()[1].(typesystem.ConcreteValue)
	require.True(t, ok)
	assert.Equal(t, typesystem.Uniq, fun.Uniq, "a capture that isn't provably shared forces the derived Fun type unique")
}
