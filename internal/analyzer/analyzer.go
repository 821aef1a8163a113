// internal/analyzer/analyzer.go
package analyzer

import (
	"fmt"

	"orion/internal/errors"
	"orion/internal/lexer"
	"orion/internal/parser"
	"orion/internal/types"
)

// symbol is one declared name in a scope.
type symbol struct {
	typ     *types.Type
	isConst bool
	defined bool // false while the initializer is being analyzed
}

// Analyzer is the static type pass. It walks the AST once, accumulates every
// diagnostic it finds, and never stops early; the driver checks Failed()
// before generating code. Because Any-typed values bypass these checks, the
// VM still validates every unsafe operation at runtime.
type Analyzer struct {
	globals map[string]*symbol
	scopes  []map[string]*symbol

	// componentProps maps component name -> field name -> inferred type,
	// built in pass 1 over each component body so that method bodies can
	// type this.<field> reads.
	componentProps map[string]map[string]*types.Type

	// currentThis is the receiver type inside a component or class method.
	currentThis *types.Type

	Errors []*errors.OrionError
}

func New() *Analyzer {
	return &Analyzer{
		globals:        make(map[string]*symbol),
		componentProps: make(map[string]map[string]*types.Type),
	}
}

func (a *Analyzer) Failed() bool {
	return len(a.Errors) > 0
}

func (a *Analyzer) Analyze(statements []parser.Stmt) {
	for _, stmt := range statements {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeStmt(stmt parser.Stmt) {
	switch s := stmt.(type) {
	case *parser.Expression:
		a.analyzeExpr(s.Expr)
	case *parser.Var:
		a.varStmt(s)
	case *parser.Block:
		a.beginScope()
		a.Analyze(s.Statements)
		a.endScope()
	case *parser.If:
		a.checkCondition(s.Condition, "if")
		a.analyzeStmt(s.ThenBranch)
		if s.ElseBranch != nil {
			a.analyzeStmt(s.ElseBranch)
		}
	case *parser.While:
		a.checkCondition(s.Condition, "while")
		a.analyzeStmt(s.Body)
	case *parser.Function:
		// Register the name first so the body can recurse.
		a.declare(s.Name, types.Function, false)
		a.analyzeFunction(s, nil)
	case *parser.Return:
		// Return expressions are analyzed for side effects only; no
		// return-type unification is performed.
		if s.Value != nil {
			a.analyzeExpr(s.Value)
		}
	case *parser.Class:
		a.classStmt(s)
	case *parser.Component:
		a.componentStmt(s)
	case *parser.StyleProp, *parser.StateBlock, *parser.Module:
		// Nothing to check outside their enclosing constructs.
	case *parser.Use:
		name := s.Name
		if s.HasAlias {
			name = s.Alias
		}
		a.declare(name, types.Module, false)
	}
}

func (a *Analyzer) varStmt(s *parser.Var) {
	var declared *types.Type
	if s.TypeAnn != nil {
		declared = a.resolveAnnotation(s.TypeAnn)
	}

	a.declareOnly(s.Name)

	inferred := types.Any
	if s.Init != nil {
		inferred = a.analyzeExpr(s.Init)
		if declared != nil && !types.IsAssignable(declared, inferred) {
			a.errorAt(s.Name,
				fmt.Sprintf("Type mismatch: cannot assign value of type '%s' to variable of type '%s'.",
					inferred, declared))
		}
	}
	if declared == nil {
		declared = inferred
	}
	a.define(s.Name, declared, s.IsConst)
}

func (a *Analyzer) analyzeFunction(fn *parser.Function, receiver *types.Type) {
	prevThis := a.currentThis
	if receiver != nil {
		a.currentThis = receiver
	}
	a.beginScope()
	for _, param := range fn.Params {
		// Parameter annotations are surface documentation for now; inside
		// the body parameters are Any.
		a.declare(param.Name, types.Any, false)
	}
	a.Analyze(fn.Body)
	a.endScope()
	a.currentThis = prevThis
}

func (a *Analyzer) classStmt(s *parser.Class) {
	a.declare(s.Name, types.TypeType, false)
	receiver := types.NewClass(s.Name.Lexeme)
	for _, method := range s.Methods {
		a.analyzeFunction(method, receiver)
	}
}

// componentStmt runs the two component passes: first infer each property's
// field type from a single literal token, then analyze methods with `this`
// bound to the component type so this.<field> reads resolve.
func (a *Analyzer) componentStmt(s *parser.Component) {
	a.declare(s.Name, types.TypeType, false)

	props := make(map[string]*types.Type)
	for _, member := range s.Body {
		switch m := member.(type) {
		case *parser.StyleProp:
			props[m.Name.Lexeme] = propertyType(m)
		case *parser.StateBlock:
			props[m.Name.Lexeme] = types.NewDict(types.String, types.Any)
		}
	}
	a.componentProps[s.Name.Lexeme] = props

	receiver := types.NewComponent(s.Name.Lexeme)
	for _, member := range s.Body {
		if method, ok := member.(*parser.Function); ok {
			props[method.Name.Lexeme] = types.Function
			a.analyzeFunction(method, receiver)
		}
	}
}

// propertyType infers a field type from a style property whose value is a
// single literal token; anything longer stays Any.
func propertyType(prop *parser.StyleProp) *types.Type {
	if len(prop.Values) != 1 {
		return types.Any
	}
	switch prop.Values[0].Type {
	case lexer.TokenNumber:
		return types.Number
	case lexer.TokenString:
		return types.String
	case lexer.TokenTrue, lexer.TokenFalse:
		return types.Bool
	}
	return types.Any
}

func (a *Analyzer) analyzeExpr(expr parser.Expr) *types.Type {
	switch e := expr.(type) {
	case *parser.Literal:
		return literalType(e.Value)
	case *parser.Grouping:
		return a.analyzeExpr(e.Expression)
	case *parser.Unary:
		operand := a.analyzeExpr(e.Right)
		if e.Operator.Type == lexer.TokenMinus {
			if !isNumeric(operand) {
				a.errorAt(e.Operator, "Operand must be a number.")
			}
			return types.Number
		}
		return types.Bool
	case *parser.Binary:
		return a.binaryExpr(e)
	case *parser.Logical:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)
		return types.Bool
	case *parser.Variable:
		return a.lookup(e.Name)
	case *parser.Assign:
		return a.assignExpr(e)
	case *parser.Call:
		a.analyzeExpr(e.Callee)
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg)
		}
		return types.Any
	case *parser.Get:
		return a.getExpr(e)
	case *parser.Set:
		a.analyzeExpr(e.Object)
		return a.analyzeExpr(e.Value)
	case *parser.This:
		if a.currentThis == nil {
			a.errorAt(e.Keyword, "Can't use 'this' outside of a method.")
			return types.Any
		}
		return a.currentThis
	case *parser.ListLiteral:
		return a.listLiteral(e)
	case *parser.DictLiteral:
		return a.dictLiteral(e)
	case *parser.GetSubscript:
		return a.subscript(e.Object, e.Index, e.Bracket)
	case *parser.SetSubscript:
		a.subscript(e.Object, e.Index, e.Bracket)
		return a.analyzeExpr(e.Value)
	case *parser.GenericType:
		return types.TypeType
	}
	return types.Any
}

func (a *Analyzer) binaryExpr(e *parser.Binary) *types.Type {
	left := a.analyzeExpr(e.Left)
	right := a.analyzeExpr(e.Right)

	switch e.Operator.Type {
	case lexer.TokenDoubleEqual, lexer.TokenNotEqual:
		return types.Bool
	case lexer.TokenPlus:
		numbers := isNumeric(left) && isNumeric(right)
		strings := isString(left) && isString(right)
		if !numbers && !strings {
			a.errorAt(e.Operator, "Operands must be two numbers or two strings.")
			return types.Any
		}
		if left.Kind == types.KindString || right.Kind == types.KindString {
			return types.String
		}
		return types.Number
	case lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash:
		if !isNumeric(left) || !isNumeric(right) {
			a.errorAt(e.Operator, "Operands must be numbers.")
		}
		return types.Number
	case lexer.TokenGT, lexer.TokenGE, lexer.TokenLT, lexer.TokenLE:
		if !isNumeric(left) || !isNumeric(right) {
			a.errorAt(e.Operator, "Operands must be numbers.")
		}
		return types.Bool
	}
	return types.Any
}

func (a *Analyzer) assignExpr(e *parser.Assign) *types.Type {
	value := a.analyzeExpr(e.Value)
	sym := a.lookupSymbol(e.Name.Lexeme)
	if sym == nil {
		a.errorAt(e.Name, fmt.Sprintf("Undefined variable '%s'.", e.Name.Lexeme))
		return types.Any
	}
	if sym.isConst {
		a.errorAt(e.Name, "Cannot assign to a constant variable.")
	}
	if !types.IsAssignable(sym.typ, value) {
		a.errorAt(e.Name,
			fmt.Sprintf("Type mismatch: cannot assign value of type '%s' to variable of type '%s'.",
				value, sym.typ))
	}
	return value
}

func (a *Analyzer) getExpr(e *parser.Get) *types.Type {
	object := a.analyzeExpr(e.Object)
	if object.Kind == types.KindComponent {
		if props, ok := a.componentProps[object.Name]; ok {
			if fieldType, ok := props[e.Name.Lexeme]; ok {
				return fieldType
			}
		}
	}
	if object.Kind == types.KindList && e.Name.Lexeme == "length" {
		return types.Number
	}
	// Module namespaces and Any-typed objects resolve at runtime.
	return types.Any
}

func (a *Analyzer) listLiteral(e *parser.ListLiteral) *types.Type {
	if len(e.Elements) == 0 {
		return types.NewList(nil)
	}
	first := a.analyzeExpr(e.Elements[0])
	elem := first
	for _, element := range e.Elements[1:] {
		t := a.analyzeExpr(element)
		if !types.IsAssignable(first, t) || !types.IsAssignable(t, first) {
			elem = types.Any
		}
	}
	return types.NewList(elem)
}

func (a *Analyzer) dictLiteral(e *parser.DictLiteral) *types.Type {
	if len(e.Keys) == 0 {
		return types.NewDict(nil, nil)
	}
	keyType := a.analyzeExpr(e.Keys[0])
	valueType := a.analyzeExpr(e.Values[0])
	for i := 1; i < len(e.Keys); i++ {
		k := a.analyzeExpr(e.Keys[i])
		v := a.analyzeExpr(e.Values[i])
		if !types.IsAssignable(keyType, k) || !types.IsAssignable(k, keyType) {
			keyType = types.Any
		}
		if !types.IsAssignable(valueType, v) || !types.IsAssignable(v, valueType) {
			valueType = types.Any
		}
	}
	return types.NewDict(keyType, valueType)
}

func (a *Analyzer) subscript(object, index parser.Expr, bracket lexer.Token) *types.Type {
	objType := a.analyzeExpr(object)
	idxType := a.analyzeExpr(index)
	switch objType.Kind {
	case types.KindList:
		if !isNumeric(idxType) {
			a.errorAt(bracket, "List index must be a number.")
		}
		if objType.Elem == nil {
			return types.Any
		}
		return objType.Elem
	case types.KindDict:
		if !isString(idxType) {
			a.errorAt(bracket, "Dictionary key must be a string.")
		}
		if objType.Value == nil {
			return types.Any
		}
		return objType.Value
	case types.KindAny:
		return types.Any
	}
	a.errorAt(bracket, fmt.Sprintf("Type '%s' is not subscriptable.", objType))
	return types.Any
}

func (a *Analyzer) checkCondition(cond parser.Expr, keyword string) {
	t := a.analyzeExpr(cond)
	if t.Kind != types.KindBool && t.Kind != types.KindAny {
		line := exprLine(cond)
		a.Errors = append(a.Errors, errors.NewTypeError(
			fmt.Sprintf("Condition of '%s' must be a bool, got '%s'.", keyword, t), line))
	}
}

// resolveAnnotation turns a parsed type annotation into a Type, reporting
// unknown names and wrong parameter counts.
func (a *Analyzer) resolveAnnotation(ann parser.Expr) *types.Type {
	generic, ok := ann.(*parser.GenericType)
	if !ok {
		return types.Any
	}
	name := generic.Name.Lexeme
	switch name {
	case "any":
		return types.Any
	case "nil", "void":
		return types.Nil
	case "bool":
		return types.Bool
	case "number", "int", "float":
		return types.Number
	case "string":
		return types.String
	case "function":
		return types.Function
	case "module":
		return types.Module
	case "list":
		if len(generic.Params) != 1 {
			a.errorAt(generic.Name, "list takes exactly one type parameter.")
			return types.NewList(types.Any)
		}
		return types.NewList(a.resolveAnnotation(generic.Params[0]))
	case "dict":
		if len(generic.Params) != 2 {
			a.errorAt(generic.Name, "dict takes exactly two type parameters.")
			return types.NewDict(types.Any, types.Any)
		}
		return types.NewDict(a.resolveAnnotation(generic.Params[0]), a.resolveAnnotation(generic.Params[1]))
	}
	if _, ok := a.componentProps[name]; ok {
		return types.NewComponent(name)
	}
	a.errorAt(generic.Name, fmt.Sprintf("Unknown type '%s'.", name))
	return types.Any
}

// --- Scope helpers ---

func (a *Analyzer) beginScope() {
	a.scopes = append(a.scopes, make(map[string]*symbol))
}

func (a *Analyzer) endScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *Analyzer) currentScope() map[string]*symbol {
	if len(a.scopes) > 0 {
		return a.scopes[len(a.scopes)-1]
	}
	return a.globals
}

// declareOnly records the name without marking it defined, so a read of the
// variable inside its own initializer is caught.
func (a *Analyzer) declareOnly(name lexer.Token) {
	scope := a.currentScope()
	if _, exists := scope[name.Lexeme]; exists && len(a.scopes) > 0 {
		a.errorAt(name, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = &symbol{typ: types.Any}
}

func (a *Analyzer) define(name lexer.Token, typ *types.Type, isConst bool) {
	a.currentScope()[name.Lexeme] = &symbol{typ: typ, isConst: isConst, defined: true}
}

func (a *Analyzer) declare(name lexer.Token, typ *types.Type, isConst bool) {
	a.define(name, typ, isConst)
}

func (a *Analyzer) lookup(name lexer.Token) *types.Type {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if sym, ok := a.scopes[i][name.Lexeme]; ok {
			if !sym.defined {
				a.errorAt(name, "Can't read local variable in its own initializer.")
				return types.Any
			}
			return sym.typ
		}
	}
	if sym, ok := a.globals[name.Lexeme]; ok {
		if !sym.defined {
			a.errorAt(name, "Can't read variable in its own initializer.")
			return types.Any
		}
		return sym.typ
	}
	if builtin, ok := builtinGlobals[name.Lexeme]; ok {
		return builtin
	}
	a.errorAt(name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme))
	return types.Any
}

func (a *Analyzer) lookupSymbol(name string) *symbol {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if sym, ok := a.scopes[i][name]; ok {
			return sym
		}
	}
	if sym, ok := a.globals[name]; ok {
		return sym
	}
	if typ, ok := builtinGlobals[name]; ok {
		return &symbol{typ: typ, defined: true}
	}
	return nil
}

// builtinGlobals are the names the VM installs before any script runs.
var builtinGlobals = map[string]*types.Type{
	"clock": types.Function,
	"print": types.Function,
	"slice": types.Function,
	"lexer": types.Module,
}

func (a *Analyzer) errorAt(token lexer.Token, message string) {
	a.Errors = append(a.Errors, errors.NewTypeError(message, token.Line))
}

func literalType(value interface{}) *types.Type {
	switch value.(type) {
	case nil:
		return types.Nil
	case bool:
		return types.Bool
	case float64:
		return types.Number
	case string:
		return types.String
	}
	return types.Any
}

func isNumeric(t *types.Type) bool {
	return t.Kind == types.KindNumber || t.Kind == types.KindAny
}

func isString(t *types.Type) bool {
	return t.Kind == types.KindString || t.Kind == types.KindAny
}

func exprLine(expr parser.Expr) int {
	switch e := expr.(type) {
	case *parser.Literal:
		return e.Line
	case *parser.Variable:
		return e.Name.Line
	case *parser.Binary:
		return e.Operator.Line
	case *parser.Logical:
		return e.Operator.Line
	case *parser.Unary:
		return e.Operator.Line
	case *parser.Call:
		return e.Paren.Line
	case *parser.Get:
		return e.Name.Line
	case *parser.Grouping:
		return exprLine(e.Expression)
	}
	return 0
}
