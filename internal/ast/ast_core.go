// Package ast is the shared Tree data model of spec.md §2.1/§3.1: an
// ordered sequence of top-level definitions plus the three identifier maps
// (type variable, value variable, trait), mutated in place by each pipeline
// stage.
//
// Kept the teacher's (internal/ast) per-node-struct layout and its
// TokenProvider/GetToken idiom for diagnostics, but replaced the funxy
// grammar (class-based OOP surface, async/await, imports-as-values) with
// VSCFL's definitions (Type/Variable/Function/Trait/Implementation) per
// spec.md §3.1.
package ast

import (
	"github.com/vscfl/vscfl/internal/token"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// Node is the base interface for every tree node; every node can report its
// primary token for error reporting.
type Node interface {
	GetToken() token.Token
	Pos() token.Pos
}

// VarModifier is the modifier prefix on a variable/pattern binding, checked
// by the limiter (spec.md §2.7/§7).
type VarModifier int

const (
	VarModifierNone VarModifier = iota
	VarModifierPrivate
	VarModifierLocal
	VarModifierConstant
	VarModifierUniq
)

// FunModifier distinguishes an ordinary function from a GPU-style kernel
// entry point, checked by the limiter (spec.md §2.7).
type FunModifier int

const (
	FunModifierNone FunModifier = iota
	FunModifierKernel
	FunModifierInline
)

// Definition is one top-level item of the Tree (spec.md §3.1): Type,
// Variable, Function, Trait, or Implementation.
type Definition interface {
	Node
	definitionNode()
	Ident() string
}

// LocalFun is the ordinal naming a lambda within its enclosing variable
// definition (spec.md §3.5), used by the mangler and the evaluator's
// Closure/Lambda values.
type LocalFun int

// TypeDef is a Type definition: built-in primitive, data type with
// constructors, or type synonym (spec.md §3.1).
type TypeDef struct {
	Token        token.Token
	Name         string
	TypeParams   []string // declared generic parameter names, e.g. T<a, b>
	IsBuiltin    bool
	Constructors []*DataConstructor // nil for a synonym or opaque builtin
	Synonym      TypeExpr           // non-nil only for a type synonym
}

func (d *TypeDef) definitionNode()      {}
func (d *TypeDef) Ident() string        { return d.Name }
func (d *TypeDef) GetToken() token.Token { return d.Token }
func (d *TypeDef) Pos() token.Pos       { return d.Token.Pos }

// DataConstructor is one variant of a data type: either unnamed
// (tuple-style, `C(Int,Float)`) or named-field (`C { x: Int, y: Float }`).
type DataConstructor struct {
	Token        token.Token
	Name         string
	Fields       []TypeExpr // unnamed-field form
	NamedFields  []NamedField
	FieldIndex   map[string]int // populated by the namer (spec.md §2.2)
}

// NamedField is one `ident: Type` pair inside a constructor or pattern.
type NamedField struct {
	Name string
	Type TypeExpr
}

// VariableDef is a Variable definition: a value binding with an optional
// compile-time initializer (spec.md §3.1).
type VariableDef struct {
	Token          token.Token
	Name           string
	Modifier       VarModifier
	TypeAnnotation TypeExpr
	Initializer    Expr // nil for an externally-supplied/builtin variable
	IsBuiltin      bool

	// Filled in by the typer/instancer (spec.md §4.3/§4.4).
	LocalType typesystem.LocalType
	Type      typesystem.Type

	// Filled in by the evaluator (spec.md §4.5, §3.4); nil until evaluated.
	Value EvaluatedValue
}

func (d *VariableDef) definitionNode()      {}
func (d *VariableDef) Ident() string        { return d.Name }
func (d *VariableDef) GetToken() token.Token { return d.Token }
func (d *VariableDef) Pos() token.Pos       { return d.Token.Pos }

// FunctionDef is a Function definition: named, possibly parameterized,
// possibly a data-constructor variant (spec.md §3.1).
type FunctionDef struct {
	Token      token.Token
	Name       string
	Modifier   FunModifier
	TraitIdent string // non-empty when this is a trait method's default body
	Params     []*Param
	ResultType TypeExpr
	Body       Expr // nil for an externally-supplied/builtin or abstract trait method

	LocalType typesystem.LocalType
	Type      typesystem.Type

	Lambdas []*LambdaExpr // every lambda literal reachable from Body, assigned a LocalFun ordinal by the typer
}

func (d *FunctionDef) definitionNode()      {}
func (d *FunctionDef) Ident() string        { return d.Name }
func (d *FunctionDef) GetToken() token.Token { return d.Token }
func (d *FunctionDef) Pos() token.Pos       { return d.Token.Pos }

// Param is one formal parameter of a function or lambda.
type Param struct {
	Name      string
	Modifier  VarModifier
	Type      TypeExpr // optional; nil if inferred
	LocalType typesystem.LocalType
}

// TraitDef declares a trait: abstract method signatures plus optional
// default bodies (spec.md §3.1).
type TraitDef struct {
	Token      token.Token
	Name       string
	SelfParam  string // the type-parameter name the trait abstracts over
	Methods    []*FunctionDef
}

func (d *TraitDef) definitionNode()      {}
func (d *TraitDef) Ident() string        { return d.Name }
func (d *TraitDef) GetToken() token.Token { return d.Token }
func (d *TraitDef) Pos() token.Pos       { return d.Token.Pos }

// ImplementationDef is a built-in or user-provided instance of a trait for a
// named type (spec.md §3.1).
type ImplementationDef struct {
	Token      token.Token
	TraitIdent string
	TypeExpr   TypeExpr
	IsBuiltin  bool
	Methods    []*FunctionDef // synthesized per-impl copies of inherited defaults live here too (spec.md §4.4 step 3)
	Variables  []*VariableDef

	ImplType  typesystem.TypeName  // resolved concrete implementing type (namer/typer)
	TraitArgs []typesystem.TypeValue // positional trait-argument type values this impl satisfies (spec.md §4.1 Param x Concrete)
}

func (d *ImplementationDef) definitionNode()      {}
func (d *ImplementationDef) Ident() string        { return d.TraitIdent }
func (d *ImplementationDef) GetToken() token.Token { return d.Token }
func (d *ImplementationDef) Pos() token.Pos       { return d.Token.Pos }

// Tree is the program's shared intermediate representation (spec.md §2.1,
// §3.1): an ordered sequence of definitions plus three identifier maps. Each
// pipeline stage mutates it in place.
type Tree struct {
	File string
	Defs []Definition

	// Populated by the namer (spec.md §2.2); keys are unique across all three maps.
	TypeVars  map[string]*TypeDef
	ValueVars map[string]Definition // *VariableDef or *FunctionDef
	Traits    map[string]*TraitDef

	// Populated incrementally by the typer/instancer: trait -> implementing
	// type ident -> impl definition.
	Impls map[string]map[string]*ImplementationDef

	// BuiltinShared records the built-in sharedness of every primitive/vector
	// type name (spec.md §3.2, §4.1 "uniq_flag_and_shared_flag"); consulted
	// by the matcher and type stack via the TraitImplLookup interface.
	BuiltinShared map[string]typesystem.SharedFlag
}

// NewTree builds an empty Tree for the given source file.
func NewTree(file string) *Tree {
	return &Tree{
		File:          file,
		TypeVars:      map[string]*TypeDef{},
		ValueVars:     map[string]Definition{},
		Traits:        map[string]*TraitDef{},
		Impls:         map[string]map[string]*ImplementationDef{},
		BuiltinShared: map[string]typesystem.SharedFlag{},
	}
}

// AddDef appends a definition and indexes it into the appropriate map,
// mirroring the namer's bookkeeping (spec.md §2.2).
func (t *Tree) AddDef(def Definition) {
	t.Defs = append(t.Defs, def)
	switch d := def.(type) {
	case *TypeDef:
		t.TypeVars[d.Name] = d
	case *VariableDef:
		t.ValueVars[d.Name] = d
	case *FunctionDef:
		t.ValueVars[d.Name] = d
	case *TraitDef:
		t.Traits[d.Name] = d
		// Each abstract method is also a callable identifier in its own
		// right (spec.md §4.4 step 3 dispatches call sites by name), so it
		// needs the same ValueVars entry a free function would get.
		for _, m := range d.Methods {
			t.ValueVars[m.Name] = m
		}
	case *ImplementationDef:
		tn, _ := typeExprHeadIdent(d.TypeExpr)
		byType, ok := t.Impls[d.TraitIdent]
		if !ok {
			byType = map[string]*ImplementationDef{}
			t.Impls[d.TraitIdent] = byType
		}
		byType[tn] = d
	}
}

func typeExprHeadIdent(te TypeExpr) (string, bool) {
	n, ok := te.(*NamedTypeExpr)
	if !ok {
		return "", false
	}
	return n.Name, true
}
