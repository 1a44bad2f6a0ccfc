// Package parser is the minimal single-pass statement/expression
// driver the compiler core sits behind: it calls back into the
// emitter and the literal-pool builder as it goes, and encodes control
// flow by emitting branch-carrying opcodes at placeholder widths and
// later resolving forward branches via a set_branch_to_current_position
// helper. It is a real, if deliberately small, implementation of that
// shape for an ES5-era expression/statement subset, grounded on a
// precedence-climbing, one-token-of-lookahead parser shape and
// pkg/compiler/compiler.go's recursive per-function compilation with
// nested closures.
package parser

import (
	"cbc/pkg/context"
	"cbc/pkg/emit"
	"cbc/pkg/errors"
	"cbc/pkg/lexer"
	"cbc/pkg/literal"
)

const debugParser = false

func debugPrintf(format string) {
	if debugParser {
		println("[parser] " + format)
	}
}

// precedence levels for the expression Pratt/precedence-climbing loop.
const (
	precNone       = iota
	precAssignment // =
	precLogicalOr  // ||
	precLogicalAnd // &&
	precBitwiseOr  // |
	precBitwiseXor // ^
	precBitwiseAnd // &
	precEquality   // == != === !==
	precRelational // < > <= >=
	precShift      // << >> >>>
	precAdditive   // + -
	precMultiplicative
	precExponent
	precUnary
	precPostfix
)

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.OROR:    precLogicalOr,
	lexer.ANDAND:  precLogicalAnd,
	lexer.PIPE:    precBitwiseOr,
	lexer.CARET:   precBitwiseXor,
	lexer.AMP:     precBitwiseAnd,
	lexer.EQ:      precEquality,
	lexer.NOTEQ:   precEquality,
	lexer.SEQ:     precEquality,
	lexer.SNOTEQ:  precEquality,
	lexer.LT:      precRelational,
	lexer.GT:      precRelational,
	lexer.LE:      precRelational,
	lexer.GE:      precRelational,
	lexer.SHL:     precShift,
	lexer.SHR:     precShift,
	lexer.USHR:    precShift,
	lexer.PLUS:    precAdditive,
	lexer.MINUS:   precAdditive,
	lexer.ASTERISK: precMultiplicative,
	lexer.SLASH:   precMultiplicative,
	lexer.PERCENT: precMultiplicative,
	lexer.POW:     precExponent,
}

// loopLabels tracks the pending break/continue patch points for the
// innermost enclosing loop, so break/continue can resolve their
// forward/backward jumps once the loop's bounds are known.
type loopLabels struct {
	breaks      []emit.BranchPlaceholder
	continueTarget int
}

// Parser compiles one function body (or the top-level script) in a
// single pass directly into ctx's stream; nested function expressions
// and declarations recurse into a fresh Parser over a child context.
type Parser struct {
	lex *lexer.Lexer
	cur, peek lexer.Token

	ctx *context.Context
	em  *emit.Emitter

	// scope holds this function's own `var` bindings by name. ES5 vars
	// are function-scoped, not block-scoped, so one flat map per
	// function body suffices for this subset.
	scope map[string]*literal.Record

	loops []*loopLabels

	// lastIdentName remembers the most recently parsed bare-identifier
	// primary expression, so a following `=` can re-resolve it as an
	// assignment target without building an AST node for it.
	lastIdentName string
}

const maxStackDepth = 1024

// NewScript creates a parser over src compiling directly into ctx as a
// top-level program (no predeclared argument bindings).
func NewScript(ctx *context.Context, src string) *Parser {
	return newParser(ctx, src, nil)
}

// NewFunctionBody creates a parser over src (a function's body text,
// already separated from its argument list by the compile entry point)
// compiling into ctx, whose Pool is pre-seeded with one Ident
// record per name in argNames, in order, each flagged
// Var|Initialized|FunctionArgument.
func NewFunctionBody(ctx *context.Context, src string, argNames []string) *Parser {
	p := newParser(ctx, src, nil)
	seen := map[string]bool{}
	for _, name := range argNames {
		if seen[name] {
			ctx.Abort(errors.DuplicatedArgumentNames, "duplicate parameter name %q", name)
		}
		seen[name] = true
		idx := ctx.Pool.AddIdent(name, literal.FlagVar|literal.FlagInitialized|literal.FlagFunctionArgument)
		p.scope[name] = ctx.Pool.At(idx)
	}
	return p
}

func newParser(ctx *context.Context, src string, scope map[string]*literal.Record) *Parser {
	if scope == nil {
		scope = map[string]*literal.Record{}
	}
	p := &Parser{
		lex:   lexer.New(src),
		ctx:   ctx,
		em:    emit.New(ctx),
		scope: scope,
	}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType, kind errors.Kind, what string) {
	if !p.curIs(t) {
		p.ctx.SetSpan(p.cur.Line, p.cur.Column, p.cur.StartPos, p.cur.EndPos)
		p.ctx.Abort(kind, "expected %s, got %q", what, p.cur.Literal)
	}
	p.advance()
}

// ParseProgram compiles every top-level statement until EOF. Used both
// for the script entry point and, identically, for a function body
// (the only difference is how the caller set up ctx's argument
// records before calling this).
func (p *Parser) ParseProgram() {
	for !p.curIs(lexer.EOF) {
		p.statement()
	}
}

func (p *Parser) statement() {
	p.ctx.SetSpan(p.cur.Line, p.cur.Column, p.cur.StartPos, p.cur.EndPos)
	switch p.cur.Type {
	case lexer.VAR:
		p.varStatement()
	case lexer.FUNCTION:
		p.functionDeclaration()
	case lexer.LBRACE:
		p.block()
	case lexer.IF:
		p.ifStatement()
	case lexer.WHILE:
		p.whileStatement()
	case lexer.RETURN:
		p.returnStatement()
	case lexer.BREAK:
		p.breakStatement()
	case lexer.CONTINUE:
		p.continueStatement()
	case lexer.SEMI:
		p.advance()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	p.expect(lexer.LBRACE, errors.LeftBraceExpected, "'{'")
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		p.statement()
	}
	p.expect(lexer.RBRACE, errors.LeftBraceExpected, "'}'")
}

func (p *Parser) expressionStatement() {
	p.expression(precAssignment)
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	p.em.Simple(opPop())
	p.ctx.PopStack(1)
}

func (p *Parser) varStatement() {
	p.advance() // 'var'
	for {
		if !p.curIs(lexer.IDENT) {
			p.ctx.Abort(errors.IdentifierExpected, "expected identifier after 'var'")
		}
		name := p.cur.Literal
		p.advance()

		rec := p.declareLocal(name)

		if p.curIs(lexer.ASSIGN) {
			p.advance()
			p.expression(precAssignment)
			p.em.Literal(opSetIdent(), p.indexOf(rec))
			p.ctx.PopStack(1)
			rec.Status |= literal.FlagInitialized
		}

		if !p.curIs(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
}

// declareLocal returns the record for name in this function's own
// scope, creating an uninitialized Var binding if this is the first
// `var` declaration of that name.
func (p *Parser) declareLocal(name string) *literal.Record {
	if rec, ok := p.scope[name]; ok {
		return rec
	}
	idx := p.ctx.Pool.AddIdent(name, literal.FlagVar)
	rec := p.ctx.Pool.At(idx)
	p.scope[name] = rec
	return rec
}

// resolveIdent returns the pool record for a referenced identifier:
// this function's own binding if declared, the pool's existing entry
// if already referenced once before, or a brand new free-variable
// reference otherwise (reconciled against the enclosing function when
// this function finishes — see hoistFreeVars).
func (p *Parser) resolveIdent(name string) *literal.Record {
	if rec, ok := p.scope[name]; ok {
		return rec
	}
	if idx := p.ctx.Pool.InternIdent(name); idx >= 0 {
		return p.ctx.Pool.At(idx)
	}
	idx := p.ctx.Pool.AddIdent(name, 0)
	return p.ctx.Pool.At(idx)
}

// indexOf returns rec's own insertion-order pool index (the
// placeholder operand OpGetIdent/OpSetIdent/OpTeeIdent carry; resolved
// to a final dense index only by the post-processor).
func (p *Parser) indexOf(rec *literal.Record) int {
	for i := 0; i < p.ctx.Pool.Len(); i++ {
		if p.ctx.Pool.At(i) == rec {
			return i
		}
	}
	panic("parser: record not found in its own pool")
}

func (p *Parser) ifStatement() {
	p.advance() // 'if'
	p.expect(lexer.LPAREN, errors.RightParenExpected, "'('")
	p.expression(precAssignment)
	p.expect(lexer.RPAREN, errors.RightParenExpected, "')'")
	p.ctx.PopStack(1)

	elseJump := p.em.ForwardBranch(opBranchFalseForward())
	p.statement()

	if p.curIs(lexer.ELSE) {
		endJump := p.em.ForwardBranch(opJumpForward())
		p.em.ResolveForward(elseJump)
		p.advance()
		p.statement()
		p.em.ResolveForward(endJump)
	} else {
		p.em.ResolveForward(elseJump)
	}
}

func (p *Parser) whileStatement() {
	p.advance() // 'while'
	loopStart := p.em.Pos()

	p.expect(lexer.LPAREN, errors.RightParenExpected, "'('")
	p.expression(precAssignment)
	p.expect(lexer.RPAREN, errors.RightParenExpected, "')'")
	p.ctx.PopStack(1)

	exitJump := p.em.ForwardBranch(opBranchFalseForward())

	lbl := &loopLabels{continueTarget: loopStart}
	p.loops = append(p.loops, lbl)

	p.statement()

	p.em.BackwardBranch(opJumpBackward(), loopStart)
	p.em.ResolveForward(exitJump)

	for _, brk := range lbl.breaks {
		p.em.ResolveForward(brk)
	}
	p.loops = p.loops[:len(p.loops)-1]
}

func (p *Parser) breakStatement() {
	p.advance()
	if len(p.loops) == 0 {
		p.ctx.Abort(errors.UnexpectedToken, "'break' outside a loop")
	}
	lbl := p.loops[len(p.loops)-1]
	bp := p.em.ForwardBranch(opJumpForward())
	lbl.breaks = append(lbl.breaks, bp)
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
}

func (p *Parser) continueStatement() {
	p.advance()
	if len(p.loops) == 0 {
		p.ctx.Abort(errors.UnexpectedToken, "'continue' outside a loop")
	}
	lbl := p.loops[len(p.loops)-1]
	p.em.BackwardBranch(opJumpBackward(), lbl.continueTarget)
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
}

func (p *Parser) returnStatement() {
	p.advance()
	if p.curIs(lexer.SEMI) || p.curIs(lexer.RBRACE) || p.curIs(lexer.EOF) {
		p.em.Simple(opReturnUndefined())
		if p.curIs(lexer.SEMI) {
			p.advance()
		}
		return
	}
	p.expression(precAssignment)
	p.em.Simple(opReturn())
	p.ctx.PopStack(1)
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
}

// expression parses and emits an expression with binding power at
// least minPrec, leaving exactly one value on the stack.
func (p *Parser) expression(minPrec int) {
	p.unary()

	for {
		if p.curIs(lexer.ASSIGN) && minPrec <= precAssignment {
			p.assignment()
			continue
		}
		prec, ok := binaryPrecedence[p.cur.Type]
		if !ok || prec < minPrec {
			return
		}
		op := p.cur.Type
		p.advance()

		if op == lexer.OROR || op == lexer.ANDAND {
			p.shortCircuit(op, prec)
			continue
		}

		nextMin := prec + 1
		if op == lexer.POW {
			nextMin = prec // right-associative
		}
		p.expression(nextMin)
		p.emitBinary(op)
	}
}

// shortCircuit compiles the right-hand side of && / || so the left
// operand's value is reused (not re-evaluated) when it alone decides
// the result: `dup; branch-on-left; pop; rhs`.
func (p *Parser) shortCircuit(op lexer.TokenType, prec int) {
	p.em.Simple(opDup())
	p.ctx.PushStack(maxStackDepth)

	branchOp := opBranchFalseForward()
	if op == lexer.OROR {
		branchOp = opBranchTrueForward()
	}
	exit := p.em.ForwardBranch(branchOp)

	p.em.Simple(opPop())
	p.ctx.PopStack(1)
	p.expression(prec + 1)

	p.em.ResolveForward(exit)
}

func (p *Parser) emitBinary(op lexer.TokenType) {
	bc, ok := binaryOpcode(string(op))
	if !ok {
		p.ctx.Abort(errors.UnexpectedToken, "unsupported binary operator %q", op)
	}
	p.em.Simple(bc)
	p.ctx.PopStack(1) // two operands in, one result out
}

// assignment handles `lhs = rhs` where lhs was already parsed (and its
// value pushed) by the caller's unary()/postfix() walk; since this
// subset only assigns to bare identifiers, it discards that pushed
// value and re-resolves the identifier being assigned from the
// preceding token instead of threading an AST node through.
func (p *Parser) assignment() {
	p.advance() // '='
	if p.lastIdentName == "" {
		p.ctx.Abort(errors.UnexpectedToken, "invalid assignment target")
	}
	name := p.lastIdentName
	p.em.Simple(opPop()) // discard the plain read the LHS walk already pushed
	p.ctx.PopStack(1)

	p.expression(precAssignment)
	rec := p.resolveIdent(name)
	p.em.Literal(opTeeIdent(), p.indexOf(rec))
}
