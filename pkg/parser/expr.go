package parser

import (
	"strconv"

	"github.com/dlclark/regexp2"

	"cbc/pkg/bytecode"
	"cbc/pkg/errors"
	"cbc/pkg/lexer"
)

// unary parses a prefix-operator expression or falls through to a
// postfix/primary expression, leaving one value on the stack.
func (p *Parser) unary() {
	switch p.cur.Type {
	case lexer.BANG:
		p.advance()
		p.unary()
		p.em.Simple(bytecode.OpLogicalNot)
	case lexer.MINUS:
		p.advance()
		p.unary()
		p.em.Simple(bytecode.OpNegate)
	case lexer.PLUS:
		p.advance()
		p.unary()
		p.em.Simple(bytecode.OpToNumber)
	case lexer.TILDE:
		p.advance()
		p.unary()
		p.em.Simple(bytecode.OpBitwiseNot)
	case lexer.TYPEOF:
		p.advance()
		p.unary()
		p.em.Simple(bytecode.OpTypeof)
	default:
		p.postfix()
	}
}

// postfix parses a primary expression followed by any chain of call,
// member, and index suffixes.
func (p *Parser) postfix() {
	p.primary()

	for {
		switch p.cur.Type {
		case lexer.LPAREN:
			p.callArgs()
		case lexer.DOT:
			p.advance()
			if !p.curIs(lexer.IDENT) {
				p.ctx.Abort(errors.IdentifierExpected, "expected property name after '.'")
			}
			name := p.cur.Literal
			p.advance()
			p.em.Literal(bytecode.OpPushLiteral, p.ctx.Pool.AddString(name))
			p.ctx.PushStack(maxStackDepth)
			p.em.Simple(bytecode.OpGetElement)
			p.ctx.PopStack(1)
			p.lastIdentName = ""
		case lexer.LBRACKET:
			p.advance()
			p.expression(precAssignment)
			p.expect(lexer.RBRACKET, errors.RightParenExpected, "']'")
			p.em.Simple(bytecode.OpGetElement)
			p.ctx.PopStack(1)
			p.lastIdentName = ""
		default:
			return
		}
	}
}

func (p *Parser) callArgs() {
	p.advance() // '('
	argc := 0
	for !p.curIs(lexer.RPAREN) {
		p.expression(precAssignment)
		argc++
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, errors.RightParenExpected, "')'")
	p.em.Byte(bytecode.OpCall, byte(argc))
	p.ctx.PopStack(argc) // argc args + callee in, result out: net -(argc+1)+1
	p.lastIdentName = ""
}

// primary parses the smallest grammar unit and pushes its value.
func (p *Parser) primary() {
	p.lastIdentName = ""

	switch p.cur.Type {
	case lexer.NUMBER:
		n, _ := strconv.ParseFloat(p.cur.Literal, 64)
		idx := p.ctx.Pool.AddNumber(n)
		p.em.Literal(bytecode.OpPushLiteral, idx)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.STRING:
		idx := p.ctx.Pool.AddString(p.cur.Literal)
		p.em.Literal(bytecode.OpPushLiteral, idx)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.TRUE:
		p.em.Simple(bytecode.OpPushTrue)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.FALSE:
		p.em.Simple(bytecode.OpPushFalse)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.NULL:
		p.em.Simple(bytecode.OpPushNull)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.UNDEFINED:
		p.em.Simple(bytecode.OpPushUndefined)
		p.ctx.PushStack(maxStackDepth)
		p.advance()

	case lexer.IDENT:
		name := p.cur.Literal
		p.advance()
		rec := p.resolveIdent(name)
		p.em.Literal(opGetIdent(), p.indexOf(rec))
		p.ctx.PushStack(maxStackDepth)
		p.lastIdentName = name

	case lexer.LPAREN:
		p.advance()
		p.expression(precAssignment)
		p.expect(lexer.RPAREN, errors.RightParenExpected, "')'")

	case lexer.LBRACKET:
		p.arrayLiteral()

	case lexer.LBRACE:
		p.objectLiteral()

	case lexer.FUNCTION:
		p.functionExpression()

	case lexer.NEW:
		p.newExpression()

	case lexer.REGEX:
		pattern, flags := p.cur.Literal, p.cur.Flags
		p.advance()
		idx := p.ctx.Pool.AddRegexp(p.compileRegexLiteral(pattern, flags))
		p.em.Literal(bytecode.OpPushRegexp, idx)
		p.ctx.PushStack(maxStackDepth)

	default:
		p.ctx.Abort(errors.UnexpectedToken, "unexpected token %q in expression", p.cur.Literal)
	}
}

// compileRegexLiteral validates pattern/flags against regexp2's
// ECMAScript grammar at parse time and caches the compiled engine on
// the literal record, the way a Regexp literal's compiled form is
// computed once and shared by every evaluation of the literal.
func (p *Parser) compileRegexLiteral(pattern, flags string) *bytecode.CompiledRegexp {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	seen := make(map[rune]bool)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 'g', 'y', 'u', 's':
			// Recognized but have no bearing on regexp2's compile-time
			// options; the runtime that owns matching semantics applies
			// them.
		default:
			p.ctx.Abort(errors.InvalidRegexp, "invalid regular expression flag %q in /%s/%s", string(f), pattern, flags)
		}
		if seen[f] {
			p.ctx.Abort(errors.InvalidRegexp, "duplicate regular expression flag %q in /%s/%s", string(f), pattern, flags)
		}
		seen[f] = true
	}

	compiled, err := regexp2.Compile(pattern, opts)
	if err != nil {
		p.ctx.Abort(errors.InvalidRegexp, "invalid regular expression /%s/%s: %v", pattern, flags, err)
	}
	return &bytecode.CompiledRegexp{Source: pattern, Flags: flags, Compiled: compiled}
}

func (p *Parser) arrayLiteral() {
	p.advance() // '['
	count := 0
	for !p.curIs(lexer.RBRACKET) {
		p.expression(precAssignment)
		count++
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET, errors.RightParenExpected, "']'")
	p.em.Byte(bytecode.OpMakeArray, byte(count))
	p.ctx.PopStack(count)
	p.ctx.PushStack(maxStackDepth)
}

func (p *Parser) objectLiteral() {
	p.advance() // '{'
	count := 0
	for !p.curIs(lexer.RBRACE) {
		var keyName string
		switch p.cur.Type {
		case lexer.IDENT:
			keyName = p.cur.Literal
		case lexer.STRING:
			keyName = p.cur.Literal
		default:
			p.ctx.Abort(errors.IdentifierExpected, "expected property key")
		}
		p.advance()
		p.em.Literal(bytecode.OpPushLiteral, p.ctx.Pool.AddString(keyName))
		p.ctx.PushStack(maxStackDepth)
		p.expect(lexer.COLON, errors.UnexpectedToken, "':'")
		p.expression(precAssignment)
		count++
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE, errors.LeftBraceExpected, "'}'")
	p.em.Byte(bytecode.OpMakeObject, byte(count))
	p.ctx.PopStack(count * 2)
	p.ctx.PushStack(maxStackDepth)
}

func (p *Parser) newExpression() {
	p.advance() // 'new'
	p.newCallee()
	argc := 0
	if p.curIs(lexer.LPAREN) {
		p.advance()
		for !p.curIs(lexer.RPAREN) {
			p.expression(precAssignment)
			argc++
			if p.curIs(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN, errors.RightParenExpected, "')'")
	}
	p.em.Byte(bytecode.OpNew, byte(argc))
	p.ctx.PopStack(argc)
	p.lastIdentName = ""
}

// newCallee parses a MemberExpression for `new`'s target: a primary
// expression followed by any chain of `.`/`[...]` member access, but
// — unlike postfix() — never a `(...)` call suffix, so `new Foo(1)`
// parses Foo as the constructor and (1) as the argument list rather
// than postfix() swallowing the parens as an ordinary call first.
func (p *Parser) newCallee() {
	p.primary()
	for {
		switch p.cur.Type {
		case lexer.DOT:
			p.advance()
			if !p.curIs(lexer.IDENT) {
				p.ctx.Abort(errors.IdentifierExpected, "expected property name after '.'")
			}
			name := p.cur.Literal
			p.advance()
			p.em.Literal(bytecode.OpPushLiteral, p.ctx.Pool.AddString(name))
			p.ctx.PushStack(maxStackDepth)
			p.em.Simple(bytecode.OpGetElement)
			p.ctx.PopStack(1)
			p.lastIdentName = ""
		case lexer.LBRACKET:
			p.advance()
			p.expression(precAssignment)
			p.expect(lexer.RBRACKET, errors.RightParenExpected, "']'")
			p.em.Simple(bytecode.OpGetElement)
			p.ctx.PopStack(1)
			p.lastIdentName = ""
		default:
			return
		}
	}
}

// functionExpression parses an anonymous or named function expression
// and leaves the created closure on the stack. A function expression's
// own name, if any, is consumed here for readability/debugging only:
// unlike a function declaration's name, it is not bound as a
// self-reference inside the body (that would need a runtime binding
// resolved at call time, not at compile time — see DESIGN.md).
func (p *Parser) functionExpression() {
	p.advance() // 'function'
	if p.curIs(lexer.IDENT) {
		p.advance()
	}
	childCode := p.compileFunctionBody()
	idx := p.ctx.Pool.AddFunction(childCode)
	p.em.Literal(bytecode.OpPushClosure, idx)
	p.ctx.PushStack(maxStackDepth)
}
