// Package evaluator implements the compile-time reduction of global/impl/
// trait-default initializers to Values (spec.md §3.4-§3.5, §4.5), replacing
// the teacher's dynamic tree-walking runtime (internal/evaluator/object.go
// et al., a VM-backed interpreter for an entirely different, dynamically
// typed language) with VSCFL's compile-time-only value model. The Object
// tag-constant idiom and the Type()/Inspect() method pair are kept from the
// teacher; the object kinds themselves come from spec.md §3.4.
package evaluator

import (
	"fmt"
	"math"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// Value is a compile-time reduced representation of an expression
// (spec.md §3.4). It also satisfies ast.EvaluatedValue so VariableDef.Value
// can hold one without an ast -> evaluator import cycle.
type Value interface {
	IsEvaluatedValue()
	Inspect() string
	Equal(Value) bool
}

// --- scalar values -----------------------------------------------------

type BoolValue bool

func (BoolValue) IsEvaluatedValue() {}
func (v BoolValue) Inspect() string { return fmt.Sprintf("%t", bool(v)) }
func (v BoolValue) Equal(o Value) bool {
	ov, ok := o.(BoolValue)
	return ok && ov == v
}

type CharValue int8

func (CharValue) IsEvaluatedValue() {}
func (v CharValue) Inspect() string { return fmt.Sprintf("%c", byte(v)) }
func (v CharValue) Equal(o Value) bool {
	ov, ok := o.(CharValue)
	return ok && ov == v
}

type ShortValue int16

func (ShortValue) IsEvaluatedValue() {}
func (v ShortValue) Inspect() string { return fmt.Sprintf("%d", int16(v)) }
func (v ShortValue) Equal(o Value) bool { ov, ok := o.(ShortValue); return ok && ov == v }

type IntValue int32

func (IntValue) IsEvaluatedValue()   {}
func (v IntValue) Inspect() string   { return fmt.Sprintf("%d", int32(v)) }
func (v IntValue) Equal(o Value) bool { ov, ok := o.(IntValue); return ok && ov == v }

type LongValue int64

func (LongValue) IsEvaluatedValue()  {}
func (v LongValue) Inspect() string  { return fmt.Sprintf("%d", int64(v)) }
func (v LongValue) Equal(o Value) bool { ov, ok := o.(LongValue); return ok && ov == v }

type UShortValue uint16

func (UShortValue) IsEvaluatedValue() {}
func (v UShortValue) Inspect() string { return fmt.Sprintf("%d", uint16(v)) }
func (v UShortValue) Equal(o Value) bool { ov, ok := o.(UShortValue); return ok && ov == v }

type UIntValue uint32

func (UIntValue) IsEvaluatedValue()  {}
func (v UIntValue) Inspect() string  { return fmt.Sprintf("%d", uint32(v)) }
func (v UIntValue) Equal(o Value) bool { ov, ok := o.(UIntValue); return ok && ov == v }

type ULongValue uint64

func (ULongValue) IsEvaluatedValue() {}
func (v ULongValue) Inspect() string { return fmt.Sprintf("%d", uint64(v)) }
func (v ULongValue) Equal(o Value) bool { ov, ok := o.(ULongValue); return ok && ov == v }

// HalfValue is carried but never produced by the evaluator directly: per
// spec.md §9 Open Questions, casts to Half are explicitly rejected during
// evaluation even though the type system admits them.
type HalfValue float32

func (HalfValue) IsEvaluatedValue() {}
func (v HalfValue) Inspect() string { return fmt.Sprintf("%g", float32(v)) }
func (v HalfValue) Equal(o Value) bool { ov, ok := o.(HalfValue); return ok && ov == v }

type FloatValue float32

func (FloatValue) IsEvaluatedValue() {}
func (v FloatValue) Inspect() string { return fmt.Sprintf("%g", float32(v)) }
func (v FloatValue) Equal(o Value) bool { ov, ok := o.(FloatValue); return ok && ov == v }

type DoubleValue float64

func (DoubleValue) IsEvaluatedValue() {}
func (v DoubleValue) Inspect() string { return fmt.Sprintf("%g", float64(v)) }
func (v DoubleValue) Equal(o Value) bool { ov, ok := o.(DoubleValue); return ok && ov == v }

// --- object values -------------------------------------------------------

// Object is every Value kind that carries a SharedFlag tag (spec.md §3.4
// "Every Object carries a SharedFlag"); equality is structural and
// oblivious to the tag (spec.md §4.5 "Scope rules for values").
type Object interface {
	Value
	Type() string
	SharedFlagOf() typesystem.SharedFlag
}

type StringObj struct {
	Bytes  []byte
	Shared typesystem.SharedFlag
}

func (StringObj) IsEvaluatedValue()              {}
func (o StringObj) Type() string                 { return "String" }
func (o StringObj) Inspect() string              { return fmt.Sprintf("%q", string(o.Bytes)) }
func (o StringObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o StringObj) Equal(v Value) bool {
	ov, ok := v.(StringObj)
	return ok && string(ov.Bytes) == string(o.Bytes)
}

type TupleObj struct {
	Fields []Value
	Shared typesystem.SharedFlag
}

func (TupleObj) IsEvaluatedValue() {}
func (o TupleObj) Type() string    { return "Tuple" }
func (o TupleObj) Inspect() string {
	s := "("
	for i, f := range o.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Inspect()
	}
	return s + ")"
}
func (o TupleObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o TupleObj) Equal(v Value) bool {
	ov, ok := v.(TupleObj)
	if !ok || len(ov.Fields) != len(o.Fields) {
		return false
	}
	for i := range o.Fields {
		if !o.Fields[i].Equal(ov.Fields[i]) {
			return false
		}
	}
	return true
}

type ArrayObj struct {
	Elems  []Value
	Shared typesystem.SharedFlag
}

func (ArrayObj) IsEvaluatedValue() {}
func (o ArrayObj) Type() string    { return "Array" }
func (o ArrayObj) Inspect() string {
	s := "["
	for i, f := range o.Elems {
		if i > 0 {
			s += ", "
		}
		s += f.Inspect()
	}
	return s + "]"
}
func (o ArrayObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o ArrayObj) Equal(v Value) bool {
	ov, ok := v.(ArrayObj)
	if !ok || len(ov.Elems) != len(o.Elems) {
		return false
	}
	for i := range o.Elems {
		if !o.Elems[i].Equal(ov.Elems[i]) {
			return false
		}
	}
	return true
}

// FloatNObj is a float vector value (`float4`, etc., spec.md §4.5).
type FloatNObj struct {
	Components []float64
	Shared     typesystem.SharedFlag
}

func (FloatNObj) IsEvaluatedValue() {}
func (o FloatNObj) Type() string    { return fmt.Sprintf("float%d", len(o.Components)) }
func (o FloatNObj) Inspect() string { return fmt.Sprintf("%v", o.Components) }
func (o FloatNObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o FloatNObj) Equal(v Value) bool {
	ov, ok := v.(FloatNObj)
	if !ok || len(ov.Components) != len(o.Components) {
		return false
	}
	for i := range o.Components {
		if o.Components[i] != ov.Components[i] && !(math.IsNaN(o.Components[i]) && math.IsNaN(ov.Components[i])) {
			return false
		}
	}
	return true
}

// IntNObj is an int vector value (`int4`, etc.).
type IntNObj struct {
	Components []int64
	Shared     typesystem.SharedFlag
}

func (IntNObj) IsEvaluatedValue() {}
func (o IntNObj) Type() string    { return fmt.Sprintf("int%d", len(o.Components)) }
func (o IntNObj) Inspect() string { return fmt.Sprintf("%v", o.Components) }
func (o IntNObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o IntNObj) Equal(v Value) bool {
	ov, ok := v.(IntNObj)
	if !ok || len(ov.Components) != len(o.Components) {
		return false
	}
	for i := range o.Components {
		if o.Components[i] != ov.Components[i] {
			return false
		}
	}
	return true
}

// DataObj is a data-constructor application, `Data(constructor_name, [V])`
// (spec.md §3.4), produced by E2's struct-initializer scenario.
type DataObj struct {
	Constructor string
	Args        []Value
	Shared      typesystem.SharedFlag
}

func (DataObj) IsEvaluatedValue() {}
func (o DataObj) Type() string    { return o.Constructor }
func (o DataObj) Inspect() string {
	s := o.Constructor + "("
	for i, a := range o.Args {
		if i > 0 {
			s += ", "
		}
		s += a.Inspect()
	}
	return s + ")"
}
func (o DataObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o DataObj) Equal(v Value) bool {
	ov, ok := v.(DataObj)
	if !ok || ov.Constructor != o.Constructor || len(ov.Args) != len(o.Args) {
		return false
	}
	for i := range o.Args {
		if !o.Args[i].Equal(ov.Args[i]) {
			return false
		}
	}
	return true
}

// LambdaObj is `Lambda(owner_ident, impl_type?, local_fun_idx)` — an
// anonymous function whose captured environment is snapshotted as a
// Closure (spec.md §3.4-§3.5, scenario E3).
type LambdaObj struct {
	Owner       string
	ImplType    *typesystem.TypeName
	LocalFunIdx int
	Captured    *Closure
	Shared      typesystem.SharedFlag
	// Node is the originating lambda literal, kept so the evaluator can
	// apply this value to arguments on demand (not part of spec.md §3.4's
	// value shape, which only needs identity for equality/inspection).
	Node *ast.LambdaExpr
}

func (LambdaObj) IsEvaluatedValue() {}
func (o LambdaObj) Type() string    { return "Lambda" }
func (o LambdaObj) Inspect() string {
	return fmt.Sprintf("Lambda(%q, %v, %d)", o.Owner, o.ImplType, o.LocalFunIdx)
}
func (o LambdaObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o LambdaObj) Equal(v Value) bool {
	ov, ok := v.(LambdaObj)
	return ok && ov.Owner == o.Owner && ov.LocalFunIdx == o.LocalFunIdx && samplImplType(o.ImplType, ov.ImplType)
}

func samplImplType(a, b *typesystem.TypeName) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FunObj is `Fun(ident, impl_type?)` — a named top-level function treated
// as a first-class value.
type FunObj struct {
	Ident    string
	ImplType *typesystem.TypeName
	Shared   typesystem.SharedFlag
}

func (FunObj) IsEvaluatedValue() {}
func (o FunObj) Type() string    { return "Fun" }
func (o FunObj) Inspect() string { return fmt.Sprintf("Fun(%q, %v)", o.Ident, o.ImplType) }
func (o FunObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o FunObj) Equal(v Value) bool {
	ov, ok := v.(FunObj)
	return ok && ov.Ident == o.Ident && samplImplType(o.ImplType, ov.ImplType)
}

// EvalFunObj is `EvalFun(ident, impl_type?, fn_ref)` — a function that also
// carries a compile-time-callable Go closure, used for built-ins with a
// known evaluator-side reduction (spec.md §9 Open Questions: the
// EvalFun/Fun/Builtin split is intensional, not extensional — preserve it).
type EvalFunObj struct {
	Ident    string
	ImplType *typesystem.TypeName
	Fn       func(args []Value) (Value, error)
	Shared   typesystem.SharedFlag
}

func (EvalFunObj) IsEvaluatedValue() {}
func (o EvalFunObj) Type() string    { return "EvalFun" }
func (o EvalFunObj) Inspect() string { return fmt.Sprintf("EvalFun(%q, %v)", o.Ident, o.ImplType) }
func (o EvalFunObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o EvalFunObj) Equal(v Value) bool {
	ov, ok := v.(EvalFunObj)
	return ok && ov.Ident == o.Ident && samplImplType(o.ImplType, ov.ImplType)
}

// BuiltinObj is `Builtin(ident, impl_type?)` — a built-in with no
// compile-time reduction available (e.g. a runtime-only vector component).
type BuiltinObj struct {
	Ident    string
	ImplType *typesystem.TypeName
	Shared   typesystem.SharedFlag
}

func (BuiltinObj) IsEvaluatedValue() {}
func (o BuiltinObj) Type() string    { return "Builtin" }
func (o BuiltinObj) Inspect() string { return fmt.Sprintf("Builtin(%q, %v)", o.Ident, o.ImplType) }
func (o BuiltinObj) SharedFlagOf() typesystem.SharedFlag { return o.Shared }
func (o BuiltinObj) Equal(v Value) bool {
	ov, ok := v.(BuiltinObj)
	return ok && ov.Ident == o.Ident && samplImplType(o.ImplType, ov.ImplType)
}
