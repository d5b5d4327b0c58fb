package ast

import (
	"github.com/vscfl/vscfl/internal/token"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// Pattern is a pattern node (spec.md §3.1, §4.5 "Pattern matching semantics").
type Pattern interface {
	Node
	patternNode()
	TypeOf() typesystem.LocalType
	SetTypeOf(typesystem.LocalType)
}

// PatternBase is the common header embedded by every Pattern node.
// Exported so the parser package can construct nodes directly via
// NewPatternBase.
type PatternBase struct {
	Token token.Token
	Local typesystem.LocalType
}

// NewPatternBase builds the Pattern header for a node whose primary token is t.
func NewPatternBase(t token.Token) PatternBase { return PatternBase{Token: t} }

func (p *PatternBase) patternNode()                   {}
func (p *PatternBase) GetToken() token.Token            { return p.Token }
func (p *PatternBase) Pos() token.Pos                   { return p.Token.Pos }
func (p *PatternBase) TypeOf() typesystem.LocalType     { return p.Local }
func (p *PatternBase) SetTypeOf(lt typesystem.LocalType) { p.Local = lt }

// LiteralPattern matches a literal value (spec.md §4.5 "Literal patterns").
type LiteralPattern struct {
	PatternBase
	Kind   LiteralKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Fields []Pattern // Tuple
	Elems  []Pattern // Array
	Filled Pattern   // FilledArray element
	Len    int
}

// AsPattern casts the scrutinee to a primitive type at compile time
// (spec.md §4.5 "`as` patterns").
type AsPattern struct {
	PatternBase
	Modifier VarModifier
	Name     string
	Type     TypeExpr
}

// ConstPattern matches a nullary constructor or built-in constant by identity.
type ConstPattern struct {
	PatternBase
	Ident string
}

// UnnamedFieldConPattern matches a tuple-style constructor `C(p1, ..., pn)`.
type UnnamedFieldConPattern struct {
	PatternBase
	Ident    string
	Elems    []Pattern
}

// NamedFieldConPattern matches a named-field constructor `C { x: p1, ... }`.
type NamedFieldConPattern struct {
	PatternBase
	Ident  string
	Fields []NamedFieldPatternPair
}

// NamedFieldPatternPair is one `ident: pattern` pair in a named-field pattern.
type NamedFieldPatternPair struct {
	Name    string
	Pattern Pattern
}

// VarPattern binds the matched value to a fresh identifier (spec.md §4.5
// "Wildcards and variable patterns always match").
type VarPattern struct {
	PatternBase
	Modifier VarModifier
	Name     string
}

// AtPattern is `name @ pattern`: binds name to the whole value while also
// matching pattern against it (spec.md §GLOSSARY "`@` binds the bound name
// to the whole value").
type AtPattern struct {
	PatternBase
	Modifier VarModifier
	Name     string
	Elem     Pattern
}

// WildcardPattern is `_`: always matches, binds nothing.
type WildcardPattern struct {
	PatternBase
}

// AltPattern is `p | q`: matches if either side matches; no variable
// bindings are permitted in either side (spec.md §4.5).
type AltPattern struct {
	PatternBase
	Left  Pattern
	Right Pattern
}
