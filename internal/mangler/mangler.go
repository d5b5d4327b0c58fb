// Package mangler implements the deterministic symbol-naming scheme of
// spec.md §4.6: a prefix-dispatch textual encoding of typed identities,
// ported from _examples/original_source/src/backend/mangling.rs.
//
// Deviation from the retrieved Rust source (recorded in DESIGN.md): that
// source's add_mangled_type_value_to_string only emits the structural
// encoding inside the `uniq_flag == Uniq` branch, which would mangle every
// non-unique type to the empty string. Taken as a retrieval/formatting
// artifact; this port instead always emits the structural encoding and
// prefixes 'X' only when the value is unique, matching spec.md's prose and
// its worked example.
package mangler

import (
	"fmt"
	"strings"

	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/typesystem"
)

func addIdent(s *strings.Builder, ident string) {
	fmt.Fprintf(s, "%d%s", len(ident), ident)
}

func addUsize(s *strings.Builder, n int) {
	fmt.Fprintf(s, "I%dI", n)
}

func addTypeValue(s *strings.Builder, tv typesystem.TypeValue) error {
	switch t := tv.(type) {
	case typesystem.ParamValue:
		return diagnostics.NewInternalError("mangler", "add mangled type value: type value is type parameter")
	case typesystem.ConcreteValue:
		if t.Uniq == typesystem.Uniq {
			s.WriteByte('X')
		}
		switch t.Name.Kind {
		case typesystem.NameTuple:
			s.WriteByte('L')
			for i, a := range t.Args {
				if i > 0 {
					s.WriteByte('E')
				}
				if err := addTypeValue(s, a); err != nil {
					return err
				}
			}
			s.WriteByte('R')
		case typesystem.NameArray:
			s.WriteByte('M')
			if len(t.Args) > 0 {
				if err := addTypeValue(s, t.Args[0]); err != nil {
					return err
				}
			}
			s.WriteByte('T')
			if t.Name.ArrLen != nil {
				addUsize(s, *t.Name.ArrLen)
			} else {
				s.WriteByte('_')
			}
			s.WriteByte('Q')
		case typesystem.NameFun:
			s.WriteByte('L')
			for i := 0; i < len(t.Args)-1; i++ {
				if i > 0 {
					s.WriteByte('E')
				}
				if err := addTypeValue(s, t.Args[i]); err != nil {
					return err
				}
			}
			s.WriteByte('R')
			s.WriteByte('A')
			if len(t.Args) > 0 {
				if err := addTypeValue(s, t.Args[len(t.Args)-1]); err != nil {
					return err
				}
			}
		default:
			addIdent(s, t.Name.Ident)
			s.WriteByte('N')
			for i, a := range t.Args {
				if i > 0 {
					s.WriteByte('E')
				}
				if err := addTypeValue(s, a); err != nil {
					return err
				}
			}
			s.WriteByte('P')
		}
	}
	return nil
}

func addTypeName(s *strings.Builder, tn typesystem.TypeName) {
	switch tn.Kind {
	case typesystem.NameTuple:
		s.WriteByte('L')
		for i := 0; i < tn.FieldCount; i++ {
			if i > 0 {
				s.WriteByte('E')
			}
			s.WriteByte('_')
		}
		s.WriteByte('R')
	case typesystem.NameFun:
		s.WriteByte('L')
		for i := 0; i < tn.ArgCount; i++ {
			if i > 0 {
				s.WriteByte('E')
			}
			s.WriteByte('_')
		}
		s.WriteByte('R')
		s.WriteByte('A')
		s.WriteByte('_')
	case typesystem.NameArray:
		s.WriteByte('M')
		s.WriteByte('_')
		s.WriteByte('T')
		if tn.ArrLen != nil {
			addUsize(s, *tn.ArrLen)
		} else {
			s.WriteByte('_')
		}
		s.WriteByte('Q')
	default:
		addIdent(s, tn.Ident)
	}
}

func addTypeParams(s *strings.Builder, typeValues []typesystem.TypeValue, typ typesystem.Type) error {
	if len(typeValues) == 0 || len(typ.ParamEntries) == 0 {
		return nil
	}
	s.WriteByte('N')
	for i, tv := range typeValues {
		if i > 0 {
			s.WriteByte('E')
		}
		var entry *typesystem.TypeParamEntry
		if i < len(typ.ParamEntries) {
			entry = typ.ParamEntries[i]
		}
		if entry != nil && entry.IsOnlyShared() {
			if err := addTypeValue(s, tv); err != nil {
				return err
			}
		} else {
			tn, ok := tv.TypeName()
			if !ok {
				return diagnostics.NewInternalError("mangler", "add mangled type params: type value hasn't type name")
			}
			addTypeName(s, tn)
		}
	}
	s.WriteByte('P')
	return nil
}

// StructName mangles a data-type value into its struct symbol (§4.6 `_VS`).
func StructName(tv typesystem.TypeValue) (string, error) {
	var s strings.Builder
	s.WriteString("_VS")
	if err := addTypeValue(&s, tv); err != nil {
		return "", err
	}
	return s.String(), nil
}

// UnionName mangles a data-type value into its union symbol (§4.6 `_VU`).
func UnionName(tv typesystem.TypeValue) (string, error) {
	var s strings.Builder
	s.WriteString("_VU")
	if err := addTypeValue(&s, tv); err != nil {
		return "", err
	}
	return s.String(), nil
}

// VarName mangles a global variable's ident + monomorphization (§4.6 `_VV`).
func VarName(ident string, typeValues []typesystem.TypeValue, typ typesystem.Type) (string, error) {
	var s strings.Builder
	s.WriteString("_VV")
	addIdent(&s, ident)
	if err := addTypeParams(&s, typeValues, typ); err != nil {
		return "", err
	}
	return s.String(), nil
}

// FunName mangles a function's ident + monomorphization (§4.6 `_VF`).
func FunName(ident string, typeValues []typesystem.TypeValue, typ typesystem.Type) (string, error) {
	var s strings.Builder
	s.WriteString("_VF")
	addIdent(&s, ident)
	if err := addTypeParams(&s, typeValues, typ); err != nil {
		return "", err
	}
	return s.String(), nil
}

// LambdaName mangles a lambda scoped to its owning variable (§4.6 `_VB`).
func LambdaName(ident string, typeValues []typesystem.TypeValue, typ typesystem.Type, localFun int) (string, error) {
	var s strings.Builder
	s.WriteString("_VB")
	addIdent(&s, ident)
	if err := addTypeParams(&s, typeValues, typ); err != nil {
		return "", err
	}
	addUsize(&s, localFun)
	return s.String(), nil
}

// CallerName mangles a trait-caller dispatch shim (§4.6 `_VC`).
func CallerName(tv typesystem.TypeValue) (string, error) {
	var s strings.Builder
	s.WriteString("_VC")
	if err := addTypeValue(&s, tv); err != nil {
		return "", err
	}
	return s.String(), nil
}

// ClosureScope discriminates the three closure-naming scopes (§4.6 `_VDO/_VDK/_VDG`).
type ClosureScope int

const (
	ClosurePrivate ClosureScope = iota
	ClosureLocal
	ClosureGlobal
)

// ClosureName mangles a lambda's captured-environment closure struct.
func ClosureName(scope ClosureScope, tv typesystem.TypeValue, idx int) (string, error) {
	var s strings.Builder
	switch scope {
	case ClosureLocal:
		s.WriteString("_VDK")
	case ClosureGlobal:
		s.WriteString("_VDG")
	default:
		s.WriteString("_VDO")
	}
	if err := addTypeValue(&s, tv); err != nil {
		return "", err
	}
	addUsize(&s, idx)
	return s.String(), nil
}

// RefValueName mangles a reference-value slot (§4.6 `_VW`).
func RefValueName(idx int) string {
	var s strings.Builder
	s.WriteString("_VW")
	addUsize(&s, idx)
	return s.String()
}

// AllocScope discriminates the three allocator-function naming scopes (§4.6 `_VHO/_VHK/_VHG`).
type AllocScope int

const (
	AllocPrivate AllocScope = iota
	AllocLocal
	AllocGlobal
)

// AllocFunName mangles an allocator function name; these carry no type
// payload, so unlike the other mangle* functions they cannot fail.
func AllocFunName(scope AllocScope) string {
	switch scope {
	case AllocLocal:
		return "_VHK"
	case AllocGlobal:
		return "_VHG"
	default:
		return "_VHO"
	}
}
