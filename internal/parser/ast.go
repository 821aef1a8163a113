package parser

import "orion/internal/lexer"

// Expr is the closed set of expression nodes. Consumers dispatch with a type
// switch instead of a visitor, so adding a node breaks every switch that
// forgot to handle it.
type Expr interface {
	exprNode()
}

// Binary expression: a + b
type Binary struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

// Grouping expression: (a)
type Grouping struct {
	Expression Expr
}

// Literal expression: number, string, true, false, nil
type Literal struct {
	Value interface{}
	Line  int
}

// Unary expression: -a, !a
type Unary struct {
	Operator lexer.Token
	Right    Expr
}

// Variable expression: x
type Variable struct {
	Name lexer.Token
}

// Assignment expression: x = 42
type Assign struct {
	Name  lexer.Token
	Value Expr
}

// Logical expression: a and b, a or b
type Logical struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

// Call expression: callee(args...)
type Call struct {
	Callee    Expr
	Paren     lexer.Token // closing ')', for error lines
	Arguments []Expr
}

// Get expression: object.name
type Get struct {
	Object Expr
	Name   lexer.Token
}

// Set expression: object.name = value
type Set struct {
	Object Expr
	Name   lexer.Token
	Value  Expr
}

// This expression inside component and class methods.
type This struct {
	Keyword lexer.Token
}

// ListLiteral expression: [1, 2, 3]
type ListLiteral struct {
	Elements []Expr
	Bracket  lexer.Token
}

// DictLiteral expression: {"a": 1}. Keys and Values run parallel in source
// order.
type DictLiteral struct {
	Keys   []Expr
	Values []Expr
	Brace  lexer.Token
}

// GetSubscript expression: collection[index]
type GetSubscript struct {
	Object  Expr
	Index   Expr
	Bracket lexer.Token
}

// SetSubscript expression: collection[index] = value
type SetSubscript struct {
	Object  Expr
	Index   Expr
	Value   Expr
	Bracket lexer.Token
}

// GenericType is a type annotation used where the grammar expects a type:
// number, list[number], dict[string, any]. Params is empty for plain names.
type GenericType struct {
	Name   lexer.Token
	Params []Expr
}

func (*Binary) exprNode()       {}
func (*Grouping) exprNode()     {}
func (*Literal) exprNode()      {}
func (*Unary) exprNode()        {}
func (*Variable) exprNode()     {}
func (*Assign) exprNode()       {}
func (*Logical) exprNode()      {}
func (*Call) exprNode()         {}
func (*Get) exprNode()          {}
func (*Set) exprNode()          {}
func (*This) exprNode()         {}
func (*ListLiteral) exprNode()  {}
func (*DictLiteral) exprNode()  {}
func (*GetSubscript) exprNode() {}
func (*SetSubscript) exprNode() {}
func (*GenericType) exprNode()  {}
