package parser

import (
	"cbc/pkg/bytecode"
	"cbc/pkg/context"
	"cbc/pkg/emit"
	"cbc/pkg/errors"
	"cbc/pkg/lexer"
	"cbc/pkg/literal"
	"cbc/pkg/postprocess"
)

// functionDeclaration parses `function name(params){body}` as a
// statement: the name is bound in the enclosing function's own scope
// (an Ident record added before the body is compiled and a Function
// literal added after it, with any free names the body hoists into
// this pool in between), initialized by a closure-creation
// instruction emitted inline.
func (p *Parser) functionDeclaration() {
	p.advance() // 'function'
	if !p.curIs(lexer.IDENT) {
		p.ctx.Abort(errors.IdentifierExpected, "expected function name after 'function'")
	}
	name := p.cur.Literal
	p.advance()

	// Bind the name in this function's own scope *before* compiling the
	// body, so a recursive call inside the body resolves as an ordinary
	// free-variable reference that hoists into this already-present
	// record, rather than needing special self-reference handling.
	identIdx := p.ctx.Pool.AddIdent(name, literal.FlagVar)
	rec := p.ctx.Pool.At(identIdx)
	p.scope[name] = rec

	childCode := p.compileFunctionBody()
	funcIdx := p.ctx.Pool.AddFunction(childCode)

	p.em.Literal(bytecode.OpPushClosure, funcIdx)
	p.ctx.PushStack(maxStackDepth)
	p.em.Literal(opSetIdent(), identIdx)
	p.ctx.PopStack(1)
	rec.Status |= literal.FlagInitialized
}

// compileFunctionBody parses a parameter list and `{ ... }` body
// starting at the current token (right after the function's optional
// name), entirely in a fresh child context linked to p's as its
// enclosing (suspended) context in the saved-context stack, and
// returns the finished compiled code.
func (p *Parser) compileFunctionBody() *bytecode.CompiledCode {
	p.expect(lexer.LPAREN, errors.ArgumentListExpected, "'(' to start parameter list")

	var params []string
	for !p.curIs(lexer.RPAREN) {
		if !p.curIs(lexer.IDENT) {
			p.ctx.Abort(errors.IdentifierExpected, "expected parameter name")
		}
		params = append(params, p.cur.Literal)
		p.advance()
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN, errors.RightParenExpected, "')' to close parameter list")

	if len(params) >= bytecode.MaxRegisters {
		p.ctx.Abort(errors.RegisterLimitReached, "parameter list exceeds %d registers", bytecode.MaxRegisters)
	}

	childCtx := context.NewContext(p.ctx, len(params))
	child := &Parser{
		lex:   p.lex, // shares the one token stream with its enclosing parser
		ctx:   childCtx,
		em:    emit.New(childCtx),
		scope: map[string]*literal.Record{},
	}
	child.cur, child.peek = p.cur, p.peek

	seen := map[string]bool{}
	for _, name := range params {
		if seen[name] {
			childCtx.Abort(errors.DuplicatedArgumentNames, "duplicate parameter name %q", name)
		}
		seen[name] = true
		idx := childCtx.Pool.AddIdent(name, literal.FlagVar|literal.FlagInitialized|literal.FlagFunctionArgument)
		child.scope[name] = childCtx.Pool.At(idx)
	}

	child.block()

	// The shared lexer has advanced past the body; resync this parser's
	// lookahead to match before continuing the enclosing statement list.
	p.cur, p.peek = child.cur, child.peek

	ranges := childCtx.Pool.Classify(len(params), bytecode.MaxRegisters, childCtx.Status&context.StatusArgumentsNeeded != 0)
	child.hoistFreeVars()
	code := postprocess.Run(childCtx, ranges)
	childCtx.Destroy()
	return code
}

// hoistFreeVars reconciles every free (non-Var) identifier reference
// this function made against its enclosing function's pool. A
// captured variable always forces the parent's matching binding out
// of a register (a register's lifetime ends with the activation it
// belongs to and it is not reachable from a closure — see the
// GLOSSARY's definition of Register), so childNoRegStore is
// unconditionally true here rather than threaded from some separate
// per-function marker.
func (p *Parser) hoistFreeVars() {
	parent := p.ctx.Outer
	if parent == nil {
		return // the top-level script has no enclosing pool to hoist into
	}
	pos := p.ctx.Position()
	var hoistErr error
	p.ctx.Pool.Iter(func(_ int, rec *literal.Record) bool {
		if rec.Type != literal.KindIdent || rec.Status.Has(literal.FlagVar) {
			return true
		}
		if err := literal.HoistFree(parent.Pool, rec.Value, true, pos); err != nil {
			hoistErr = err
			return false
		}
		return true
	})
	if hoistErr != nil {
		if ce, ok := hoistErr.(*errors.CompileError); ok {
			parent.AbortAt(ce.Kind(), ce.Position(), "%s", ce.Error())
		}
	}
}
