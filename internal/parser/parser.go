// Package parser builds a *ast.Tree from a VSCFL token stream. Grounded on
// the teacher's internal/parser (recursive-descent, Parser holding a token
// buffer plus an error-accumulating ctx) for the overall shape, rewritten
// against VSCFL's much smaller grammar of five definition kinds, since
// spec.md §1 treats the parser as an external collaborator whose only
// specified contract is the Tree it produces.
package parser

import (
	"fmt"
	"strconv"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/lexer"
	"github.com/vscfl/vscfl/internal/token"
)

// Parser consumes a pre-scanned token slice and builds an *ast.Tree,
// accumulating P000 parse-error diagnostics rather than panicking so a
// single malformed definition doesn't abort the whole file.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
	errors diagnostics.Errors
}

// New builds a Parser over src, attributed to file for diagnostics.
func New(file, src string) *Parser {
	return &Parser{file: file, toks: lexer.Tokenize(file, src)}
}

// ParseTree parses the whole token stream into a Tree, returning any
// accumulated P000 diagnostics.
func (p *Parser) ParseTree() (*ast.Tree, diagnostics.Errors) {
	tree := ast.NewTree(p.file)
	for !p.atEnd() {
		def := p.parseDefinition()
		if def != nil {
			tree.AddDef(def)
		} else if !p.atEnd() {
			p.advance() // skip the offending token to make forward progress
		}
	}
	return tree, p.errors
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Type: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool {
	return p.cur().Type == token.EOF
}

func (p *Parser) isKeyword(lex string) bool {
	t := p.cur()
	return t.Type == token.KEYWORD && t.Lexeme == lex
}

func (p *Parser) expect(typ token.Type, what string) token.Token {
	t := p.cur()
	if t.Type != typ {
		p.errorf(t, "expected %s, got %q", what, t.Lexeme)
		return t
	}
	return p.advance()
}

func (p *Parser) expectKeyword(lex string) token.Token {
	t := p.cur()
	if !p.isKeyword(lex) {
		p.errorf(t, "expected keyword %q, got %q", lex, t.Lexeme)
		return t
	}
	return p.advance()
}

func (p *Parser) errorf(t token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrP000, t.Pos, fmt.Sprintf(format, args...)))
}

// --- Top-level definitions -------------------------------------------------

func (p *Parser) parseDefinition() ast.Definition {
	builtin := false
	if p.isKeyword("builtin") {
		builtin = true
		p.advance()
	}

	switch {
	case p.isKeyword("data"):
		return p.parseDataDef(builtin)
	case p.isKeyword("type"):
		return p.parseTypeSynonym(builtin)
	case p.isKeyword("trait"):
		return p.parseTraitDef()
	case p.isKeyword("impl"):
		return p.parseImplDef(builtin)
	case p.isKeyword("kernel"), p.isKeyword("inline"):
		mod := ast.FunModifierInline
		if p.isKeyword("kernel") {
			mod = ast.FunModifierKernel
		}
		p.advance()
		return p.parseFunctionDef(mod, builtin)
	case p.isKeyword("private"), p.isKeyword("local"), p.isKeyword("constant"), p.isKeyword("uniq"):
		return p.parseVariableDef(builtin)
	case p.cur().Type == token.IDENT:
		if p.peekAt(1).Type == token.LPAREN {
			return p.parseFunctionDef(ast.FunModifierNone, builtin)
		}
		return p.parseVariableDef(builtin)
	default:
		p.errorf(p.cur(), "unexpected token %q at top level", p.cur().Lexeme)
		return nil
	}
}

func (p *Parser) parseVarModifier() ast.VarModifier {
	switch {
	case p.isKeyword("private"):
		p.advance()
		return ast.VarModifierPrivate
	case p.isKeyword("local"):
		p.advance()
		return ast.VarModifierLocal
	case p.isKeyword("constant"):
		p.advance()
		return ast.VarModifierConstant
	case p.isKeyword("uniq"):
		p.advance()
		return ast.VarModifierUniq
	default:
		return ast.VarModifierNone
	}
}

func (p *Parser) parseDataDef(builtin bool) *ast.TypeDef {
	tok := p.expectKeyword("data")
	name := p.expect(token.IDENT, "type name")
	td := &ast.TypeDef{Token: tok, Name: name.Lexeme, IsBuiltin: builtin}
	if p.cur().Type == token.LANGLE {
		td.TypeParams = p.parseTypeParamList()
	}
	if p.cur().Type == token.ASSIGN {
		p.advance()
		for {
			td.Constructors = append(td.Constructors, p.parseConstructor())
			if p.cur().Type == token.PIPE {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.SEMICOLON, "';'")
	return td
}

func (p *Parser) parseTypeParamList() []string {
	p.expect(token.LANGLE, "'<'")
	var names []string
	for p.cur().Type != token.RANGLE && !p.atEnd() {
		names = append(names, p.expect(token.IDENT, "type parameter").Lexeme)
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.RANGLE, "'>'")
	return names
}

func (p *Parser) parseConstructor() *ast.DataConstructor {
	tok := p.expect(token.IDENT, "constructor name")
	c := &ast.DataConstructor{Token: tok, Name: tok.Lexeme}
	switch p.cur().Type {
	case token.LPAREN:
		p.advance()
		for p.cur().Type != token.RPAREN && !p.atEnd() {
			c.Fields = append(c.Fields, p.parseTypeExpr())
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RPAREN, "')'")
	case token.LBRACE:
		p.advance()
		for p.cur().Type != token.RBRACE && !p.atEnd() {
			fname := p.expect(token.IDENT, "field name").Lexeme
			p.expect(token.COLON, "':'")
			ftype := p.parseTypeExpr()
			c.NamedFields = append(c.NamedFields, ast.NamedField{Name: fname, Type: ftype})
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RBRACE, "'}'")
	}
	return c
}

func (p *Parser) parseTypeSynonym(builtin bool) *ast.TypeDef {
	tok := p.expectKeyword("type")
	name := p.expect(token.IDENT, "type name")
	td := &ast.TypeDef{Token: tok, Name: name.Lexeme, IsBuiltin: builtin}
	if p.cur().Type == token.LANGLE {
		td.TypeParams = p.parseTypeParamList()
	}
	if p.cur().Type == token.ASSIGN {
		p.advance()
		td.Synonym = p.parseTypeExpr()
	}
	p.expect(token.SEMICOLON, "';'")
	return td
}

func (p *Parser) parseTraitDef() *ast.TraitDef {
	tok := p.expectKeyword("trait")
	name := p.expect(token.IDENT, "trait name")
	td := &ast.TraitDef{Token: tok, Name: name.Lexeme}
	p.expect(token.LPAREN, "'('")
	td.SelfParam = p.expect(token.IDENT, "self parameter").Lexeme
	p.expect(token.RPAREN, "')'")
	p.expect(token.LBRACE, "'{'")
	for p.cur().Type != token.RBRACE && !p.atEnd() {
		mod := ast.FunModifierNone
		if p.isKeyword("kernel") {
			mod = ast.FunModifierKernel
			p.advance()
		} else if p.isKeyword("inline") {
			mod = ast.FunModifierInline
			p.advance()
		}
		m := p.parseFunctionDef(mod, false)
		m.TraitIdent = td.Name
		td.Methods = append(td.Methods, m)
	}
	p.expect(token.RBRACE, "'}'")
	return td
}

func (p *Parser) parseImplDef(builtin bool) *ast.ImplementationDef {
	tok := p.expectKeyword("impl")
	traitIdent := p.expect(token.IDENT, "trait name").Lexeme
	p.expectKeyword("for")
	typeExpr := p.parseTypeExpr()
	id := &ast.ImplementationDef{Token: tok, TraitIdent: traitIdent, TypeExpr: typeExpr, IsBuiltin: builtin}
	if builtin {
		p.expect(token.SEMICOLON, "';'")
		return id
	}
	p.expect(token.LBRACE, "'{'")
	for p.cur().Type != token.RBRACE && !p.atEnd() {
		if p.cur().Type == token.IDENT && p.peekAt(1).Type == token.LPAREN {
			m := p.parseFunctionDef(ast.FunModifierNone, false)
			m.TraitIdent = traitIdent
			id.Methods = append(id.Methods, m)
			continue
		}
		id.Variables = append(id.Variables, p.parseVariableDef(false))
	}
	p.expect(token.RBRACE, "'}'")
	return id
}

func (p *Parser) parseVariableDef(builtin bool) *ast.VariableDef {
	mod := p.parseVarModifier()
	name := p.expect(token.IDENT, "variable name")
	v := &ast.VariableDef{Token: name, Name: name.Lexeme, Modifier: mod, IsBuiltin: builtin}
	if p.cur().Type == token.COLON {
		p.advance()
		v.TypeAnnotation = p.parseTypeExpr()
	}
	if builtin {
		p.expect(token.SEMICOLON, "';'")
		return v
	}
	p.expect(token.ASSIGN, "'='")
	v.Initializer = p.parseExpr()
	p.expect(token.SEMICOLON, "';'")
	return v
}

func (p *Parser) parseFunctionDef(mod ast.FunModifier, builtin bool) *ast.FunctionDef {
	name := p.expect(token.IDENT, "function name")
	f := &ast.FunctionDef{Token: name, Name: name.Lexeme, Modifier: mod}
	p.expect(token.LPAREN, "'('")
	for p.cur().Type != token.RPAREN && !p.atEnd() {
		pm := ast.VarModifierNone
		if p.isKeyword("uniq") {
			pm = ast.VarModifierUniq
			p.advance()
		}
		pname := p.expect(token.IDENT, "parameter name").Lexeme
		param := &ast.Param{Name: pname, Modifier: pm}
		if p.cur().Type == token.COLON {
			p.advance()
			param.Type = p.parseTypeExpr()
		}
		f.Params = append(f.Params, param)
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.RPAREN, "')'")
	if p.cur().Type == token.ARROW {
		p.advance()
		f.ResultType = p.parseTypeExpr()
	}
	if p.cur().Type == token.SEMICOLON {
		p.advance() // abstract trait method / builtin: no body
		return f
	}
	p.expect(token.ASSIGN, "'='")
	f.Body = p.parseExpr()
	p.expect(token.SEMICOLON, "';'")
	return f
}

// --- Type expressions -------------------------------------------------------

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	if p.isKeyword("uniq") {
		tok := p.advance()
		return &ast.UniqTypeExpr{Token: tok, Elem: p.parseTypeExpr()}
	}

	var base ast.TypeExpr
	switch p.cur().Type {
	case token.LPAREN:
		tok := p.advance()
		var fields []ast.TypeExpr
		for p.cur().Type != token.RPAREN && !p.atEnd() {
			fields = append(fields, p.parseTypeExpr())
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RPAREN, "')'")
		if p.cur().Type == token.ARROW {
			p.advance()
			result := p.parseTypeExpr()
			base = &ast.FunTypeExpr{Token: tok, Params: fields, Result: result}
		} else if len(fields) == 1 {
			base = fields[0]
		} else {
			base = &ast.TupleTypeExpr{Token: tok, Fields: fields}
		}
	case token.LBRACKET:
		tok := p.advance()
		elem := p.parseTypeExpr()
		var ln *int
		if p.cur().Type == token.SEMICOLON {
			p.advance()
			if p.cur().Type == token.USCORE {
				p.advance()
			} else {
				n := p.expect(token.INT_LITERAL, "array length")
				v, _ := strconv.Atoi(n.Lexeme)
				ln = &v
			}
		}
		p.expect(token.RBRACKET, "']'")
		base = &ast.ArrayTypeExpr{Token: tok, Elem: elem, Len: ln}
	case token.IDENT:
		tok := p.advance()
		if tok.Lexeme[0] >= 'a' && tok.Lexeme[0] <= 'z' && p.cur().Type != token.LANGLE {
			base = &ast.ParamTypeExpr{Token: tok, Name: tok.Lexeme}
		} else {
			n := &ast.NamedTypeExpr{Token: tok, Name: tok.Lexeme}
			if p.cur().Type == token.LANGLE {
				p.advance()
				for p.cur().Type != token.RANGLE && !p.atEnd() {
					n.Args = append(n.Args, p.parseTypeExpr())
					if p.cur().Type == token.COMMA {
						p.advance()
					}
				}
				p.expect(token.RANGLE, "'>'")
			}
			base = n
		}
	default:
		tok := p.cur()
		p.errorf(tok, "unexpected token %q in type expression", tok.Lexeme)
		p.advance()
		base = &ast.NamedTypeExpr{Token: tok, Name: "_error_"}
	}
	return base
}

// --- Expressions -------------------------------------------------------------

// binPrec returns the binary-operator precedence of a token, or 0 if it
// isn't an infix operator. The arithmetic/comparison operators desugar to
// AppExpr(VarExpr{op}, [lhs, rhs]) matching the evaluator's arithOps table.
func binPrec(t token.Token) (int, string) {
	switch t.Type {
	case token.EQEQ:
		return 1, "=="
	case token.NOTEQ:
		return 1, "!="
	case token.LANGLE:
		return 2, "<"
	case token.RANGLE:
		return 2, ">"
	case token.LE:
		return 2, "<="
	case token.GE:
		return 2, ">="
	case token.PLUS:
		return 3, "+"
	case token.MINUS:
		return 3, "-"
	case token.STAR:
		return 4, "*"
	case token.SLASH:
		return 4, "/"
	case token.PERCENT:
		return 4, "%"
	}
	return 0, ""
}

func (p *Parser) parseExpr() ast.Expr {
	e := p.parseBinary(1)
	for p.isKeyword("match") {
		tok := p.advance()
		e = p.parseMatchSuffix(e, tok)
	}
	return e
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, op := binPrec(p.cur())
		if prec == 0 || prec < minPrec {
			return left
		}
		tok := p.advance()
		right := p.parseBinary(prec + 1)
		left = &ast.AppExpr{
			ExprBase: ast.NewExprBase(tok),
			Callee:   &ast.VarExpr{ExprBase: ast.NewExprBase(tok), Ident: op},
			Args:     []ast.Expr{left, right},
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch {
	case p.isKeyword("uniq"):
		tok := p.advance()
		return &ast.UniqExpr{ExprBase: ast.NewExprBase(tok), Elem: p.parsePostfix()}
	case p.isKeyword("shared"):
		tok := p.advance()
		return &ast.SharedExpr{ExprBase: ast.NewExprBase(tok), Elem: p.parsePostfix()}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.cur().Type == token.DOT:
			tok := p.advance()
			e = p.parseFieldOp(tok, e)
		case p.isKeyword("as"):
			tok := p.advance()
			te := p.parseTypeExpr()
			e = &ast.AsExpr{ExprBase: ast.NewExprBase(tok), Elem: e, Type: te}
		case p.cur().Type == token.COLON:
			tok := p.advance()
			te := p.parseTypeExpr()
			e = &ast.TypedExpr{ExprBase: ast.NewExprBase(tok), Elem: e, Type: te}
		case p.cur().Type == token.LPAREN:
			tok := p.advance()
			var args []ast.Expr
			for p.cur().Type != token.RPAREN && !p.atEnd() {
				args = append(args, p.parseExpr())
				if p.cur().Type == token.COMMA {
					p.advance()
				}
			}
			p.expect(token.RPAREN, "')'")
			e = &ast.AppExpr{ExprBase: ast.NewExprBase(tok), Callee: e, Args: args}
		default:
			return e
		}
	}
}

func (p *Parser) parseFieldOp(dotTok token.Token, recv ast.Expr) ast.Expr {
	field := p.parseFieldRef()
	switch {
	case p.cur().Type == token.ARROW:
		p.advance()
		return &ast.Get2FieldExpr{ExprBase: ast.NewExprBase(dotTok), Recv: recv, Field: field}
	case p.cur().Type == token.LARROW:
		p.advance()
		val := p.parseExpr()
		return &ast.SetFieldExpr{ExprBase: ast.NewExprBase(dotTok), Recv: recv, Field: field, Value: val}
	case p.cur().Type == token.LRARROW:
		p.advance()
		if p.cur().Type == token.ARROW {
			p.advance()
			fn := p.parseExpr()
			return &ast.UpdateGet2FieldExpr{ExprBase: ast.NewExprBase(dotTok), Recv: recv, Field: field, Fn: fn}
		}
		fn := p.parseExpr()
		return &ast.UpdateFieldExpr{ExprBase: ast.NewExprBase(dotTok), Recv: recv, Field: field, Fn: fn}
	default:
		return &ast.GetFieldExpr{ExprBase: ast.NewExprBase(dotTok), Recv: recv, Field: field}
	}
}

func (p *Parser) parseFieldRef() ast.FieldRef {
	if p.cur().Type == token.INT_LITERAL {
		n, _ := strconv.Atoi(p.cur().Lexeme)
		p.advance()
		return ast.FieldRef{Index: &n}
	}
	name := p.expect(token.IDENT, "field name").Lexeme
	return ast.FieldRef{Name: name}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch {
	case p.isKeyword("true"):
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitBool, Bool: true}
	case p.isKeyword("false"):
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitBool, Bool: false}
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("let"):
		return p.parseLet()
	case p.isKeyword("printf"):
		return p.parsePrintf()
	case t.Type == token.INT_LITERAL:
		p.advance()
		v, _ := lexer.ParseIntLiteral(t.Lexeme)
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitInt, Int: v}
	case t.Type == token.FLOAT_LITERAL:
		p.advance()
		v, _ := lexer.ParseFloatLiteral(t.Lexeme)
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitFloat, Float: v}
	case t.Type == token.CHAR_LITERAL:
		p.advance()
		r := []rune(t.Lexeme)
		var code int64
		if len(r) > 0 {
			code = int64(r[0])
		}
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitChar, Int: code}
	case t.Type == token.STRING_LITERAL:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitString, Str: t.Lexeme}
	case t.Type == token.PIPE:
		return p.parseLambda()
	case t.Type == token.LBRACKET:
		return p.parseArrayLiteral()
	case t.Type == token.LPAREN:
		return p.parseParenOrTuple()
	case t.Type == token.IDENT:
		return p.parseIdentOrConApp()
	default:
		p.errorf(t, "unexpected token %q in expression", t.Lexeme)
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(t), Kind: ast.LitInt}
	}
}

func (p *Parser) parseIdentOrConApp() ast.Expr {
	t := p.advance()
	isUpper := t.Lexeme[0] >= 'A' && t.Lexeme[0] <= 'Z'
	if isUpper && p.cur().Type == token.LBRACE {
		p.advance()
		con := &ast.NamedFieldConAppExpr{ExprBase: ast.NewExprBase(t), ConstructorIdent: t.Lexeme}
		for p.cur().Type != token.RBRACE && !p.atEnd() {
			fname := p.expect(token.IDENT, "field name").Lexeme
			p.expect(token.COLON, "':'")
			fe := p.parseExpr()
			con.Fields = append(con.Fields, ast.NamedFieldExprPair{Name: fname, Expr: fe})
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RBRACE, "'}'")
		return con
	}
	v := &ast.VarExpr{ExprBase: ast.NewExprBase(t), Ident: t.Lexeme}
	if p.cur().Type == token.LANGLE && isTypeArgStart(p) {
		p.advance()
		for p.cur().Type != token.RANGLE && !p.atEnd() {
			v.TypeArgs = append(v.TypeArgs, p.parseTypeExpr())
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RANGLE, "'>'")
	}
	return v
}

// isTypeArgStart is a conservative heuristic: `f<Int>` only when what
// follows `<` looks like a type (an identifier), never a comparison.
func isTypeArgStart(p *Parser) bool {
	return p.peekAt(1).Type == token.IDENT
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	tok := p.advance()
	if p.cur().Type == token.RPAREN {
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(tok), Kind: ast.LitTuple}
	}
	first := p.parseExpr()
	if p.cur().Type != token.COMMA {
		p.expect(token.RPAREN, "')'")
		return first
	}
	fields := []ast.Expr{first}
	for p.cur().Type == token.COMMA {
		p.advance()
		if p.cur().Type == token.RPAREN {
			break
		}
		fields = append(fields, p.parseExpr())
	}
	p.expect(token.RPAREN, "')'")
	return &ast.LiteralExpr{ExprBase: ast.NewExprBase(tok), Kind: ast.LitTuple, Fields: fields}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	tok := p.advance()
	if p.cur().Type == token.RBRACKET {
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(tok), Kind: ast.LitArray}
	}
	first := p.parseExpr()
	if p.cur().Type == token.SEMICOLON {
		p.advance()
		n := p.expect(token.INT_LITERAL, "array length")
		ln, _ := strconv.Atoi(n.Lexeme)
		p.expect(token.RBRACKET, "']'")
		return &ast.LiteralExpr{ExprBase: ast.NewExprBase(tok), Kind: ast.LitFilledArray, Filled: first, Len: ln}
	}
	elems := []ast.Expr{first}
	for p.cur().Type == token.COMMA {
		p.advance()
		if p.cur().Type == token.RBRACKET {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBRACKET, "']'")
	return &ast.LiteralExpr{ExprBase: ast.NewExprBase(tok), Kind: ast.LitArray, Elems: elems}
}

func (p *Parser) parseLambda() ast.Expr {
	tok := p.advance() // first '|'
	var params []*ast.Param
	for p.cur().Type != token.PIPE && !p.atEnd() {
		pm := ast.VarModifierNone
		if p.isKeyword("uniq") {
			pm = ast.VarModifierUniq
			p.advance()
		}
		name := p.expect(token.IDENT, "parameter name").Lexeme
		param := &ast.Param{Name: name, Modifier: pm}
		if p.cur().Type == token.COLON {
			p.advance()
			param.Type = p.parseTypeExpr()
		}
		params = append(params, param)
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.PIPE, "'|'")
	body := p.parseExpr()
	return &ast.LambdaExpr{ExprBase: ast.NewExprBase(tok), Params: params, Body: body}
}

func (p *Parser) parseIf() ast.Expr {
	tok := p.expectKeyword("if")
	cond := p.parseExpr()
	p.expect(token.LBRACE, "'{'")
	then := p.parseExpr()
	p.expect(token.RBRACE, "'}'")
	p.expectKeyword("else")
	p.expect(token.LBRACE, "'{'")
	els := p.parseExpr()
	p.expect(token.RBRACE, "'}'")
	return &ast.IfExpr{ExprBase: ast.NewExprBase(tok), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseLet() ast.Expr {
	tok := p.expectKeyword("let")
	var binds []ast.Bind
	for {
		pat := p.parsePattern()
		p.expect(token.ASSIGN, "'='")
		val := p.parseExpr()
		binds = append(binds, ast.Bind{Pattern: pat, Value: val})
		p.expect(token.SEMICOLON, "';'")
		if p.isKeyword("in") {
			break
		}
	}
	p.expectKeyword("in")
	body := p.parseExpr()
	return &ast.LetExpr{ExprBase: ast.NewExprBase(tok), Binds: binds, Body: body}
}

func (p *Parser) parsePrintf() ast.Expr {
	tok := p.expectKeyword("printf")
	p.expect(token.LPAREN, "'('")
	var args []ast.Expr
	for p.cur().Type != token.RPAREN && !p.atEnd() {
		args = append(args, p.parseExpr())
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.RPAREN, "')'")
	return &ast.PrintfAppExpr{ExprBase: ast.NewExprBase(tok), Args: args}
}

// parseMatchSuffix parses ` { case1; case2; ... }` once the scrutinee and
// the `match` keyword have already been consumed, since `match` is a
// postfix keyword in VSCFL's surface grammar (`scrutinee match { ... }`).
func (p *Parser) parseMatchSuffix(scrutinee ast.Expr, tok token.Token) ast.Expr {
	p.expect(token.LBRACE, "'{'")
	var cases []ast.Case
	for p.cur().Type != token.RBRACE && !p.atEnd() {
		pat := p.parsePattern()
		p.expect(token.FAT_ARROW, "'=>'")
		val := p.parseExpr()
		cases = append(cases, ast.Case{Pattern: pat, Value: val})
		if p.cur().Type == token.SEMICOLON {
			p.advance()
		}
	}
	p.expect(token.RBRACE, "'}'")
	return &ast.MatchExpr{ExprBase: ast.NewExprBase(tok), Scrutinee: scrutinee, Cases: cases}
}

// --- Patterns ----------------------------------------------------------------

func (p *Parser) parsePattern() ast.Pattern {
	left := p.parsePatternOperand()
	for p.cur().Type == token.PIPE {
		tok := p.advance()
		right := p.parsePatternOperand()
		left = &ast.AltPattern{PatternBase: ast.NewPatternBase(tok), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parsePatternOperand() ast.Pattern {
	t := p.cur()
	switch {
	case t.Type == token.USCORE:
		p.advance()
		return &ast.WildcardPattern{PatternBase: ast.NewPatternBase(t)}
	case p.isKeyword("true"):
		p.advance()
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitBool, Bool: true}
	case p.isKeyword("false"):
		p.advance()
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitBool, Bool: false}
	case t.Type == token.INT_LITERAL:
		p.advance()
		v, _ := lexer.ParseIntLiteral(t.Lexeme)
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitInt, Int: v}
	case t.Type == token.FLOAT_LITERAL:
		p.advance()
		v, _ := lexer.ParseFloatLiteral(t.Lexeme)
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitFloat, Float: v}
	case t.Type == token.CHAR_LITERAL:
		p.advance()
		r := []rune(t.Lexeme)
		var code int64
		if len(r) > 0 {
			code = int64(r[0])
		}
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitChar, Int: code}
	case t.Type == token.STRING_LITERAL:
		p.advance()
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(t), Kind: ast.LitString, Str: t.Lexeme}
	case t.Type == token.LPAREN:
		return p.parseTuplePattern()
	case t.Type == token.LBRACKET:
		return p.parseArrayPattern()
	case p.isKeyword("private"), p.isKeyword("local"), p.isKeyword("constant"), p.isKeyword("uniq"):
		mod := p.parseVarModifier()
		name := p.expect(token.IDENT, "pattern variable")
		return p.parseVarPatternTail(mod, name)
	case t.Type == token.IDENT:
		p.advance()
		if t.Lexeme[0] >= 'A' && t.Lexeme[0] <= 'Z' {
			return p.parseConstructorPattern(t)
		}
		return p.parseVarPatternTail(ast.VarModifierNone, t)
	default:
		p.errorf(t, "unexpected token %q in pattern", t.Lexeme)
		p.advance()
		return &ast.WildcardPattern{PatternBase: ast.NewPatternBase(t)}
	}
}

func (p *Parser) parseVarPatternTail(mod ast.VarModifier, name token.Token) ast.Pattern {
	switch {
	case p.cur().Type == token.AT:
		p.advance()
		elem := p.parsePatternOperand()
		return &ast.AtPattern{PatternBase: ast.NewPatternBase(name), Modifier: mod, Name: name.Lexeme, Elem: elem}
	case p.isKeyword("as"):
		p.advance()
		te := p.parseTypeExpr()
		return &ast.AsPattern{PatternBase: ast.NewPatternBase(name), Modifier: mod, Name: name.Lexeme, Type: te}
	default:
		return &ast.VarPattern{PatternBase: ast.NewPatternBase(name), Modifier: mod, Name: name.Lexeme}
	}
}

func (p *Parser) parseConstructorPattern(name token.Token) ast.Pattern {
	switch p.cur().Type {
	case token.LPAREN:
		p.advance()
		var elems []ast.Pattern
		for p.cur().Type != token.RPAREN && !p.atEnd() {
			elems = append(elems, p.parsePattern())
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RPAREN, "')'")
		return &ast.UnnamedFieldConPattern{PatternBase: ast.NewPatternBase(name), Ident: name.Lexeme, Elems: elems}
	case token.LBRACE:
		p.advance()
		var fields []ast.NamedFieldPatternPair
		for p.cur().Type != token.RBRACE && !p.atEnd() {
			fname := p.expect(token.IDENT, "field name").Lexeme
			p.expect(token.COLON, "':'")
			fp := p.parsePattern()
			fields = append(fields, ast.NamedFieldPatternPair{Name: fname, Pattern: fp})
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.RBRACE, "'}'")
		return &ast.NamedFieldConPattern{PatternBase: ast.NewPatternBase(name), Ident: name.Lexeme, Fields: fields}
	default:
		return &ast.ConstPattern{PatternBase: ast.NewPatternBase(name), Ident: name.Lexeme}
	}
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	tok := p.advance()
	if p.cur().Type == token.RPAREN {
		p.advance()
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(tok), Kind: ast.LitTuple}
	}
	first := p.parsePattern()
	if p.cur().Type != token.COMMA {
		p.expect(token.RPAREN, "')'")
		return first
	}
	fields := []ast.Pattern{first}
	for p.cur().Type == token.COMMA {
		p.advance()
		if p.cur().Type == token.RPAREN {
			break
		}
		fields = append(fields, p.parsePattern())
	}
	p.expect(token.RPAREN, "')'")
	return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(tok), Kind: ast.LitTuple, Fields: fields}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	tok := p.advance()
	if p.cur().Type == token.RBRACKET {
		p.advance()
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(tok), Kind: ast.LitArray}
	}
	first := p.parsePattern()
	if p.cur().Type == token.SEMICOLON {
		p.advance()
		n := p.expect(token.INT_LITERAL, "array length")
		ln, _ := strconv.Atoi(n.Lexeme)
		p.expect(token.RBRACKET, "']'")
		return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(tok), Kind: ast.LitFilledArray, Filled: first, Len: ln}
	}
	elems := []ast.Pattern{first}
	for p.cur().Type == token.COMMA {
		p.advance()
		if p.cur().Type == token.RBRACKET {
			break
		}
		elems = append(elems, p.parsePattern())
	}
	p.expect(token.RBRACKET, "']'")
	return &ast.LiteralPattern{PatternBase: ast.NewPatternBase(tok), Kind: ast.LitArray, Elems: elems}
}
