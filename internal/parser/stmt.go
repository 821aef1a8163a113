// internal/parser/stmt.go
package parser

import "orion/internal/lexer"

// Stmt is the closed set of statement nodes.
type Stmt interface {
	stmtNode()
}

// Expression wraps a raw expression as a statement.
type Expression struct {
	Expr Expr
}

// Var represents a variable declaration: var x: number = expr;
// TypeAnn is nil when no annotation was written.
type Var struct {
	Name    lexer.Token
	TypeAnn Expr
	Init    Expr
	IsConst bool
}

// Block represents { stmts... }
type Block struct {
	Statements []Stmt
}

// If represents an if/else statement.
type If struct {
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt
}

// While represents a while loop. C-style for loops desugar into this at
// parse time.
type While struct {
	Condition Expr
	Body      Stmt
}

// Param is one typed function parameter.
type Param struct {
	Name    lexer.Token
	TypeAnn Expr
}

// Function represents a function declaration.
type Function struct {
	Name       lexer.Token
	Params     []Param
	Body       []Stmt
	ReturnType Expr
}

// Return represents a return statement.
type Return struct {
	Keyword lexer.Token
	Value   Expr
}

// Class represents a class declaration with its methods.
type Class struct {
	Name    lexer.Token
	Methods []*Function
}

// Component represents a component declaration. Body mixes StyleProp,
// StateBlock, and Function nodes in source order.
type Component struct {
	Name lexer.Token
	Body []Stmt
}

// StyleProp is one `name: tokens...;` line inside a component. The value is
// kept as the raw token run and reinterpreted by later phases.
type StyleProp struct {
	Name   lexer.Token
	Values []lexer.Token
}

// StateBlock is a nested `name { props... }` block inside a component.
type StateBlock struct {
	Name lexer.Token
	Body []Stmt
}

// Module represents a module declaration: module name;
type Module struct {
	Name lexer.Token
}

// Use represents a native module import: use io; / use io as files;
type Use struct {
	Name     lexer.Token
	Alias    lexer.Token
	HasAlias bool
}

func (*Expression) stmtNode() {}
func (*Var) stmtNode()        {}
func (*Block) stmtNode()      {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*Function) stmtNode()   {}
func (*Return) stmtNode()     {}
func (*Class) stmtNode()      {}
func (*Component) stmtNode()  {}
func (*StyleProp) stmtNode()  {}
func (*StateBlock) stmtNode() {}
func (*Module) stmtNode()     {}
func (*Use) stmtNode()        {}
