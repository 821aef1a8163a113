// internal/parser/parser.go
package parser

import (
	"fmt"

	"orion/internal/errors"
	"orion/internal/lexer"
)

// Parser consumes the scanner's token stream and produces a statement list.
// Each declaration is parsed inside a recover block: a syntax error panics
// with the diagnostic, the parser synchronizes to the next statement
// boundary, and parsing continues.
type Parser struct {
	tokens  []lexer.Token
	current int

	Errors []*errors.OrionError
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) Parse() []Stmt {
	var statements []Stmt
	for !p.isAtEnd() {
		if decl := p.declaration(); decl != nil {
			statements = append(statements, decl)
		}
	}
	return statements
}

func (p *Parser) declaration() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*errors.OrionError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(lexer.TokenFunction):
		return p.function("function")
	case p.match(lexer.TokenVar), p.match(lexer.TokenLet):
		return p.varDeclaration(false)
	case p.match(lexer.TokenConst):
		return p.varDeclaration(true)
	case p.match(lexer.TokenClass):
		return p.classDeclaration()
	case p.match(lexer.TokenComponent):
		return p.componentDeclaration()
	case p.match(lexer.TokenModule):
		return p.moduleDeclaration()
	case p.match(lexer.TokenUse):
		return p.useDeclaration()
	}
	return p.statement()
}

func (p *Parser) varDeclaration(isConst bool) Stmt {
	name := p.consume(lexer.TokenIdent, "Expect variable name.")

	var typeAnn Expr
	if p.match(lexer.TokenColon) {
		typeAnn = p.typeAnnotation()
	}

	var init Expr
	if p.match(lexer.TokenEqual) {
		init = p.expression()
	}

	p.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	return &Var{Name: name, TypeAnn: typeAnn, Init: init, IsConst: isConst}
}

func (p *Parser) function(kind string) *Function {
	name := p.consume(lexer.TokenIdent, fmt.Sprintf("Expect %s name.", kind))
	p.consume(lexer.TokenLParen, fmt.Sprintf("Expect '(' after %s name.", kind))

	var params []Param
	if !p.check(lexer.TokenRParen) {
		for {
			if len(params) >= 255 {
				p.error(p.peek(), "Can't have more than 255 parameters.")
			}
			pname := p.consume(lexer.TokenIdent, "Expect parameter name.")
			var ptype Expr
			if p.match(lexer.TokenColon) {
				ptype = p.typeAnnotation()
			}
			params = append(params, Param{Name: pname, TypeAnn: ptype})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "Expect ')' after parameters.")

	var returnType Expr
	if p.match(lexer.TokenColon) {
		returnType = p.typeAnnotation()
	}

	p.consume(lexer.TokenLBrace, fmt.Sprintf("Expect '{' before %s body.", kind))
	body := p.block()
	return &Function{Name: name, Params: params, Body: body, ReturnType: returnType}
}

func (p *Parser) classDeclaration() Stmt {
	name := p.consume(lexer.TokenIdent, "Expect class name.")
	p.consume(lexer.TokenLBrace, "Expect '{' before class body.")

	var methods []*Function
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		p.consume(lexer.TokenFunction, "Expect method declaration in class body.")
		methods = append(methods, p.function("method"))
	}
	p.consume(lexer.TokenRBrace, "Expect '}' after class body.")
	return &Class{Name: name, Methods: methods}
}

func (p *Parser) componentDeclaration() Stmt {
	name := p.consume(lexer.TokenIdent, "Expect component name.")
	p.consume(lexer.TokenLBrace, "Expect '{' before component body.")
	body := p.componentBody()
	p.consume(lexer.TokenRBrace, "Expect '}' after component body.")
	return &Component{Name: name, Body: body}
}

// componentBody disambiguates the three member kinds with one token of
// lookahead: `function` starts a method, `name {` a state block, `name :`
// a style property.
func (p *Parser) componentBody() []Stmt {
	var body []Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		switch {
		case p.match(lexer.TokenFunction):
			body = append(body, p.function("method"))
		case p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenLBrace):
			body = append(body, p.stateBlock())
		case p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenColon):
			body = append(body, p.styleProp())
		default:
			panic(p.error(p.peek(), "Expect style property, state block, or method in component body."))
		}
	}
	return body
}

func (p *Parser) stateBlock() Stmt {
	name := p.advance()
	p.consume(lexer.TokenLBrace, "Expect '{' after state block name.")
	var body []Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if !p.check(lexer.TokenIdent) || !p.checkNext(lexer.TokenColon) {
			panic(p.error(p.peek(), "Expect style property in state block."))
		}
		body = append(body, p.styleProp())
	}
	p.consume(lexer.TokenRBrace, "Expect '}' after state block.")
	return &StateBlock{Name: name, Body: body}
}

// styleProp keeps the value as a raw token run up to the ';'. Later phases
// reinterpret it; single-literal values become field defaults.
func (p *Parser) styleProp() Stmt {
	name := p.advance()
	p.consume(lexer.TokenColon, "Expect ':' after style property name.")
	var values []lexer.Token
	for !p.check(lexer.TokenSemicolon) && !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		values = append(values, p.advance())
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after style property value.")
	return &StyleProp{Name: name, Values: values}
}

func (p *Parser) moduleDeclaration() Stmt {
	name := p.consume(lexer.TokenIdent, "Expect module name.")
	p.consume(lexer.TokenSemicolon, "Expect ';' after module name.")
	return &Module{Name: name}
}

func (p *Parser) useDeclaration() Stmt {
	name := p.consume(lexer.TokenIdent, "Expect module name after 'use'.")
	use := &Use{Name: name}
	if p.match(lexer.TokenAs) {
		use.Alias = p.consume(lexer.TokenIdent, "Expect alias name after 'as'.")
		use.HasAlias = true
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after use statement.")
	return use
}

func (p *Parser) statement() Stmt {
	switch {
	case p.match(lexer.TokenIf):
		return p.ifStatement()
	case p.match(lexer.TokenWhile):
		return p.whileStatement()
	case p.match(lexer.TokenFor):
		return p.forStatement()
	case p.match(lexer.TokenReturn):
		return p.returnStatement()
	case p.match(lexer.TokenLBrace):
		return &Block{Statements: p.block()}
	}
	return p.expressionStatement()
}

func (p *Parser) ifStatement() Stmt {
	p.consume(lexer.TokenLParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(lexer.TokenRParen, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch Stmt
	if p.match(lexer.TokenElse) {
		elseBranch = p.statement()
	}
	return &If{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}
}

func (p *Parser) whileStatement() Stmt {
	p.consume(lexer.TokenLParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(lexer.TokenRParen, "Expect ')' after while condition.")
	body := p.statement()
	return &While{Condition: condition, Body: body}
}

// forStatement desugars the C-style loop into a block holding the
// initializer and an equivalent while loop.
func (p *Parser) forStatement() Stmt {
	p.consume(lexer.TokenLParen, "Expect '(' after 'for'.")

	var init Stmt
	switch {
	case p.match(lexer.TokenSemicolon):
		init = nil
	case p.match(lexer.TokenVar), p.match(lexer.TokenLet):
		init = p.varDeclaration(false)
	default:
		init = p.expressionStatement()
	}

	var condition Expr
	if !p.check(lexer.TokenSemicolon) {
		condition = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")

	var increment Expr
	if !p.check(lexer.TokenRParen) {
		increment = p.expression()
	}
	p.consume(lexer.TokenRParen, "Expect ')' after for clauses.")

	body := p.statement()
	if increment != nil {
		body = &Block{Statements: []Stmt{body, &Expression{Expr: increment}}}
	}
	if condition == nil {
		condition = &Literal{Value: true, Line: p.previous().Line}
	}
	var loop Stmt = &While{Condition: condition, Body: body}
	if init != nil {
		loop = &Block{Statements: []Stmt{init, loop}}
	}
	return loop
}

func (p *Parser) returnStatement() Stmt {
	keyword := p.previous()
	var value Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.expression()
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	return &Return{Keyword: keyword, Value: value}
}

func (p *Parser) block() []Stmt {
	var statements []Stmt
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if decl := p.declaration(); decl != nil {
			statements = append(statements, decl)
		}
	}
	p.consume(lexer.TokenRBrace, "Expect '}' after block.")
	return statements
}

func (p *Parser) expressionStatement() Stmt {
	expr := p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	return &Expression{Expr: expr}
}

// typeAnnotation parses a type name with an optional bracketed parameter
// list, so list[number] and dict[string, any] need no separate type grammar.
func (p *Parser) typeAnnotation() Expr {
	name := p.typeName()
	generic := &GenericType{Name: name}
	if p.match(lexer.TokenLBracket) {
		for {
			generic.Params = append(generic.Params, p.typeAnnotation())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRBracket, "Expect ']' after type parameters.")
	}
	return generic
}

// typeName accepts identifiers plus the reserved primitive type keywords.
func (p *Parser) typeName() lexer.Token {
	switch p.peek().Type {
	case lexer.TokenIdent, lexer.TokenInt, lexer.TokenFloat, lexer.TokenBool,
		lexer.TokenStringT, lexer.TokenVoid:
		return p.advance()
	}
	panic(p.error(p.peek(), "Expect type name."))
}

// --- Expressions ---

func (p *Parser) expression() Expr {
	return p.assignment()
}

func (p *Parser) assignment() Expr {
	expr := p.or()

	if p.match(lexer.TokenEqual) {
		equals := p.previous()
		value := p.assignment() // right-associative

		switch target := expr.(type) {
		case *Variable:
			return &Assign{Name: target.Name, Value: value}
		case *Get:
			return &Set{Object: target.Object, Name: target.Name, Value: value}
		case *GetSubscript:
			return &SetSubscript{Object: target.Object, Index: target.Index, Value: value, Bracket: target.Bracket}
		}
		p.error(equals, "Invalid assignment target.")
	}
	return expr
}

func (p *Parser) or() Expr {
	expr := p.and()
	for p.match(lexer.TokenOr) {
		operator := p.previous()
		right := p.and()
		expr = &Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) and() Expr {
	expr := p.equality()
	for p.match(lexer.TokenAnd) {
		operator := p.previous()
		right := p.equality()
		expr = &Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() Expr {
	expr := p.comparison()
	for p.match(lexer.TokenDoubleEqual) || p.match(lexer.TokenNotEqual) {
		operator := p.previous()
		right := p.comparison()
		expr = &Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) comparison() Expr {
	expr := p.term()
	for p.match(lexer.TokenGT) || p.match(lexer.TokenGE) || p.match(lexer.TokenLT) || p.match(lexer.TokenLE) {
		operator := p.previous()
		right := p.term()
		expr = &Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) term() Expr {
	expr := p.factor()
	for p.match(lexer.TokenMinus) || p.match(lexer.TokenPlus) {
		operator := p.previous()
		right := p.factor()
		expr = &Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) factor() Expr {
	expr := p.unary()
	for p.match(lexer.TokenSlash) || p.match(lexer.TokenStar) {
		operator := p.previous()
		right := p.unary()
		expr = &Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.match(lexer.TokenMinus) || p.match(lexer.TokenNot) {
		operator := p.previous()
		right := p.unary()
		return &Unary{Operator: operator, Right: right}
	}
	return p.call()
}

func (p *Parser) call() Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(lexer.TokenLParen):
			expr = p.finishCall(expr)
		case p.match(lexer.TokenDot):
			name := p.consume(lexer.TokenIdent, "Expect property name after '.'.")
			expr = &Get{Object: expr, Name: name}
		case p.match(lexer.TokenLBracket):
			bracket := p.previous()
			index := p.expression()
			p.consume(lexer.TokenRBracket, "Expect ']' after subscript index.")
			expr = &GetSubscript{Object: expr, Index: index, Bracket: bracket}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	var arguments []Expr
	if !p.check(lexer.TokenRParen) {
		for {
			if len(arguments) >= 255 {
				p.error(p.peek(), "Can't have more than 255 arguments.")
			}
			arguments = append(arguments, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	paren := p.consume(lexer.TokenRParen, "Expect ')' after arguments.")
	return &Call{Callee: callee, Paren: paren, Arguments: arguments}
}

func (p *Parser) primary() Expr {
	switch {
	case p.match(lexer.TokenFalse):
		return &Literal{Value: false, Line: p.previous().Line}
	case p.match(lexer.TokenTrue):
		return &Literal{Value: true, Line: p.previous().Line}
	case p.match(lexer.TokenNumber), p.match(lexer.TokenString):
		return &Literal{Value: p.previous().Literal, Line: p.previous().Line}
	case p.match(lexer.TokenThis):
		return &This{Keyword: p.previous()}
	case p.match(lexer.TokenIdent):
		return &Variable{Name: p.previous()}
	case p.match(lexer.TokenLParen):
		expr := p.expression()
		p.consume(lexer.TokenRParen, "Expect ')' after expression.")
		return &Grouping{Expression: expr}
	case p.match(lexer.TokenLBracket):
		return p.listLiteral()
	case p.match(lexer.TokenLBrace):
		return p.dictLiteral()
	}
	panic(p.error(p.peek(), "Expect expression."))
}

func (p *Parser) listLiteral() Expr {
	bracket := p.previous()
	var elements []Expr
	if !p.check(lexer.TokenRBracket) {
		for {
			elements = append(elements, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRBracket, "Expect ']' after list elements.")
	return &ListLiteral{Elements: elements, Bracket: bracket}
}

func (p *Parser) dictLiteral() Expr {
	brace := p.previous()
	dict := &DictLiteral{Brace: brace}
	if !p.check(lexer.TokenRBrace) {
		for {
			dict.Keys = append(dict.Keys, p.expression())
			p.consume(lexer.TokenColon, "Expect ':' after dictionary key.")
			dict.Values = append(dict.Values, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRBrace, "Expect '}' after dictionary entries.")
	return dict
}

// --- Token plumbing ---

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) checkNext(t lexer.TokenType) bool {
	if p.isAtEnd() || p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	panic(p.error(p.peek(), message))
}

func (p *Parser) error(token lexer.Token, message string) *errors.OrionError {
	var err *errors.OrionError
	if token.Type == lexer.TokenEOF {
		err = errors.NewParseError(fmt.Sprintf("Error at end: %s", message), token.Line)
	} else {
		err = errors.NewParseError(fmt.Sprintf("Error at '%s': %s", token.Lexeme, message), token.Line)
	}
	p.Errors = append(p.Errors, err)
	return err
}

// synchronize discards tokens until a statement boundary so one bad
// statement does not abort the rest of the file.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == lexer.TokenSemicolon {
			return
		}
		switch p.peek().Type {
		case lexer.TokenFunction, lexer.TokenVar, lexer.TokenConst, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenClass, lexer.TokenComponent,
			lexer.TokenReturn:
			return
		}
		p.advance()
	}
}
