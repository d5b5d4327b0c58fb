package mangler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/typesystem"
)

func intValue() typesystem.TypeValue {
	return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: "Int"}}
}

// §8 "Mangling is deterministic": repeated calls on structurally identical
// inputs produce the same string.
func TestFunName_Deterministic(t *testing.T) {
	typ := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{typesystem.NewTypeParamEntry()}}
	values := []typesystem.TypeValue{intValue()}

	a, err := FunName("f", values, typ)
	require.NoError(t, err)
	b, err := FunName("f", values, typ)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "_VF1fN3IntNPP", a)
}

func TestStructName_NamedTypeWithArg(t *testing.T) {
	tv := typesystem.ConcreteValue{
		Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: "T"},
		Args: []typesystem.TypeValue{intValue()},
	}
	s, err := StructName(tv)
	require.NoError(t, err)
	assert.Equal(t, "_VS1TN3IntNPP", s)
}

func TestAddTypeValue_UniqueWrapsWithX(t *testing.T) {
	tv := typesystem.ConcreteValue{Uniq: typesystem.Uniq, Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: "T"}}
	s, err := StructName(tv)
	require.NoError(t, err)
	assert.Equal(t, "_VSX1TNP", s)
}

func TestAddTypeValue_TupleAndArray(t *testing.T) {
	tuple := typesystem.ConcreteValue{
		Name: typesystem.TypeValueName{Kind: typesystem.NameTuple},
		Args: []typesystem.TypeValue{intValue(), intValue()},
	}
	s, err := StructName(tuple)
	require.NoError(t, err)
	assert.Equal(t, "_VSL3IntNPE3IntNPR", s)

	n := 4
	arr := typesystem.ConcreteValue{
		Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: &n},
		Args: []typesystem.TypeValue{intValue()},
	}
	s, err = StructName(arr)
	require.NoError(t, err)
	assert.Equal(t, "_VSM3IntNPTI4IQ", s)
}

func TestAddTypeParams_TraitConstrainedUsesBareTypeName(t *testing.T) {
	entry := typesystem.NewTypeParamEntry()
	entry.AddTrait(typesystem.TraitName{Kind: typesystem.TraitUser, Ident: "T"})
	typ := typesystem.Type{ParamEntries: []*typesystem.TypeParamEntry{entry}}

	s, err := FunName("f", []typesystem.TypeValue{intValue()}, typ)
	require.NoError(t, err)
	assert.Equal(t, "_VF1fN3IntP", s)
}

func TestMangleInternal_ParamTypeValueErrors(t *testing.T) {
	_, err := StructName(typesystem.ParamValue{Local: 0})
	assert.Error(t, err)
}

func TestAllocFunName_Scopes(t *testing.T) {
	assert.Equal(t, "_VHO", AllocFunName(AllocPrivate))
	assert.Equal(t, "_VHK", AllocFunName(AllocLocal))
	assert.Equal(t, "_VHG", AllocFunName(AllocGlobal))
}
