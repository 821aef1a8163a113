package compiler

import (
	"orion/internal/bytecode"
	"orion/internal/errors"
	"orion/internal/lexer"
	"orion/internal/parser"
	"orion/internal/vm"
)

type functionKind int

const (
	kindScript functionKind = iota
	kindFunction
	kindMethod
)

// local is one compile-time stack slot. depth -1 marks a declared but not
// yet initialized variable so reads inside the initializer are rejected.
type local struct {
	name  string
	depth int
}

// Compiler emits bytecode for one function. Nested function declarations
// get their own Compiler linked through enclosing; the link is structural
// only, locals never resolve across it.
type Compiler struct {
	enclosing  *Compiler
	function   *vm.CompiledFunction
	kind       functionKind
	locals     []local
	scopeDepth int

	errs *[]*errors.OrionError
	line int
}

// Compile turns a parsed program into the entry function. On any compile
// error the chunk is discarded and the accumulated errors are returned.
func Compile(statements []parser.Stmt) (*vm.CompiledFunction, []*errors.OrionError) {
	var errs []*errors.OrionError
	c := newCompiler(nil, "<script>", kindScript, &errs)
	for _, stmt := range statements {
		c.compileStmt(stmt)
	}
	c.emitReturn()
	if len(errs) > 0 {
		return nil, errs
	}
	return c.function, nil
}

func newCompiler(enclosing *Compiler, name string, kind functionKind, errs *[]*errors.OrionError) *Compiler {
	c := &Compiler{
		enclosing: enclosing,
		function:  &vm.CompiledFunction{Name: name, Chunk: bytecode.NewChunk()},
		kind:      kind,
		errs:      errs,
	}
	// Slot 0 belongs to the function value itself, or to the receiver in
	// a method.
	slotZero := ""
	if kind == kindMethod {
		slotZero = "this"
	}
	c.locals = append(c.locals, local{name: slotZero, depth: 0})
	return c
}

func (c *Compiler) chunk() *bytecode.Chunk {
	return c.function.Chunk
}

// ---- statements ----

func (c *Compiler) compileStmt(stmt parser.Stmt) {
	switch s := stmt.(type) {
	case *parser.Expression:
		c.compileExpr(s.Expr)
		c.emitOp(bytecode.OpPop)
	case *parser.Var:
		c.varStmt(s)
	case *parser.Block:
		c.beginScope()
		for _, inner := range s.Statements {
			c.compileStmt(inner)
		}
		c.endScope()
	case *parser.If:
		c.ifStmt(s)
	case *parser.While:
		c.whileStmt(s)
	case *parser.Function:
		c.functionStmt(s)
	case *parser.Return:
		c.line = s.Keyword.Line
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.emitOp(bytecode.OpNil)
		}
		c.emitOp(bytecode.OpReturn)
	case *parser.Class:
		c.classStmt(s)
	case *parser.Component:
		c.componentStmt(s)
	case *parser.Use:
		c.useStmt(s)
	case *parser.Module:
		// Declares the file's module name; no code is emitted.
	case *parser.StyleProp, *parser.StateBlock:
		// Only meaningful inside a component body.
	}
}

func (c *Compiler) varStmt(s *parser.Var) {
	c.line = s.Name.Line
	if c.scopeDepth > 0 {
		c.declareLocal(s.Name)
		if s.Init != nil {
			c.compileExpr(s.Init)
		} else {
			c.emitOp(bytecode.OpNil)
		}
		c.markInitialized()
		return
	}
	if s.Init != nil {
		c.compileExpr(s.Init)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOpWithConstant(bytecode.OpDefineGlobal, s.Name.Lexeme)
}

func (c *Compiler) ifStmt(s *parser.If) {
	c.compileExpr(s.Condition)
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.compileStmt(s.ThenBranch)
	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)
	if s.ElseBranch != nil {
		c.compileStmt(s.ElseBranch)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStmt(s *parser.While) {
	loopStart := len(c.chunk().Code)
	c.compileExpr(s.Condition)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.compileStmt(s.Body)
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) functionStmt(s *parser.Function) {
	c.line = s.Name.Line
	if c.scopeDepth > 0 {
		// Declared and initialized up front so the body can recurse on a
		// local name.
		c.declareLocal(s.Name)
		c.markInitialized()
		fn := c.compileFunction(s, kindFunction)
		c.emitConstant(fn)
		return
	}
	fn := c.compileFunction(s, kindFunction)
	c.emitConstant(fn)
	c.emitOpWithConstant(bytecode.OpDefineGlobal, s.Name.Lexeme)
}

// compileFunction runs a child compiler over a function body and returns
// the finished function object.
func (c *Compiler) compileFunction(s *parser.Function, kind functionKind) *vm.CompiledFunction {
	child := newCompiler(c, s.Name.Lexeme, kind, c.errs)
	child.line = s.Name.Line
	child.function.Arity = len(s.Params)
	child.scopeDepth = 1
	for _, param := range s.Params {
		child.declareLocal(param.Name)
		child.markInitialized()
	}
	for _, stmt := range s.Body {
		child.compileStmt(stmt)
	}
	child.emitReturn()
	return child.function
}

func (c *Compiler) classStmt(s *parser.Class) {
	c.line = s.Name.Line
	if c.scopeDepth > 0 {
		c.declareLocal(s.Name)
	}
	c.emitOpWithConstant(bytecode.OpClass, s.Name.Lexeme)
	for _, method := range s.Methods {
		fn := c.compileFunction(method, kindMethod)
		c.emitConstant(fn)
		c.emitOpWithConstant(bytecode.OpMethod, method.Name.Lexeme)
	}
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpWithConstant(bytecode.OpDefineGlobal, s.Name.Lexeme)
}

// componentStmt builds the definition at compile time: methods become
// compiled functions keyed by name, property and state declarations are
// kept raw for instantiation to interpret. The name always binds globally.
func (c *Compiler) componentStmt(s *parser.Component) {
	c.line = s.Name.Line
	def := &vm.ComponentDef{
		Name:    s.Name.Lexeme,
		Methods: make(map[string]*vm.CompiledFunction),
	}
	for _, member := range s.Body {
		switch m := member.(type) {
		case *parser.StyleProp:
			def.Properties = append(def.Properties, m)
		case *parser.StateBlock:
			def.StateBlocks = append(def.StateBlocks, m)
		case *parser.Function:
			def.Methods[m.Name.Lexeme] = c.compileFunction(m, kindMethod)
		}
	}
	c.emitConstant(def)
	c.emitOpWithConstant(bytecode.OpDefineGlobal, s.Name.Lexeme)
}

func (c *Compiler) useStmt(s *parser.Use) {
	c.line = s.Name.Line
	name := s.Name
	if s.HasAlias {
		name = s.Alias
	}
	if c.scopeDepth > 0 {
		c.declareLocal(name)
		c.emitOpWithConstant(bytecode.OpImportNative, s.Name.Lexeme)
		c.markInitialized()
		return
	}
	c.emitOpWithConstant(bytecode.OpImportNative, s.Name.Lexeme)
	c.emitOpWithConstant(bytecode.OpDefineGlobal, name.Lexeme)
}

// ---- expressions ----

func (c *Compiler) compileExpr(expr parser.Expr) {
	switch e := expr.(type) {
	case *parser.Literal:
		c.line = e.Line
		switch v := e.Value.(type) {
		case nil:
			c.emitOp(bytecode.OpNil)
		case bool:
			if v {
				c.emitOp(bytecode.OpTrue)
			} else {
				c.emitOp(bytecode.OpFalse)
			}
		default:
			c.emitConstant(v)
		}
	case *parser.Grouping:
		c.compileExpr(e.Expression)
	case *parser.Unary:
		c.compileExpr(e.Right)
		c.line = e.Operator.Line
		switch e.Operator.Type {
		case lexer.TokenMinus:
			c.emitOp(bytecode.OpNegate)
		case lexer.TokenNot:
			c.emitOp(bytecode.OpNot)
		}
	case *parser.Binary:
		c.binaryExpr(e)
	case *parser.Logical:
		c.logicalExpr(e)
	case *parser.Variable:
		c.line = e.Name.Line
		if slot := c.resolveLocal(e.Name); slot >= 0 {
			c.emitOpWithByte(bytecode.OpGetLocal, byte(slot))
		} else {
			c.emitOpWithConstant(bytecode.OpGetGlobal, e.Name.Lexeme)
		}
	case *parser.Assign:
		c.compileExpr(e.Value)
		c.line = e.Name.Line
		if slot := c.resolveLocal(e.Name); slot >= 0 {
			c.emitOpWithByte(bytecode.OpSetLocal, byte(slot))
		} else {
			c.emitOpWithConstant(bytecode.OpSetGlobal, e.Name.Lexeme)
		}
	case *parser.Call:
		c.compileExpr(e.Callee)
		if len(e.Arguments) > 255 {
			c.errorAt(e.Paren.Line, "Can't have more than 255 arguments.")
		}
		for _, arg := range e.Arguments {
			c.compileExpr(arg)
		}
		c.line = e.Paren.Line
		c.emitOpWithByte(bytecode.OpCall, byte(len(e.Arguments)))
	case *parser.Get:
		c.compileExpr(e.Object)
		c.line = e.Name.Line
		c.emitOpWithConstant(bytecode.OpGetProperty, e.Name.Lexeme)
	case *parser.Set:
		c.compileExpr(e.Object)
		c.compileExpr(e.Value)
		c.line = e.Name.Line
		c.emitOpWithConstant(bytecode.OpSetProperty, e.Name.Lexeme)
	case *parser.This:
		c.line = e.Keyword.Line
		if slot := c.resolveLocal(e.Keyword); slot >= 0 {
			c.emitOpWithByte(bytecode.OpGetLocal, byte(slot))
		} else {
			c.errorAt(e.Keyword.Line, "Can't use 'this' outside of a method.")
		}
	case *parser.ListLiteral:
		if len(e.Elements) > 255 {
			c.errorAt(e.Bracket.Line, "Can't have more than 255 elements in a list literal.")
		}
		for _, elem := range e.Elements {
			c.compileExpr(elem)
		}
		c.line = e.Bracket.Line
		c.emitOpWithByte(bytecode.OpBuildList, byte(len(e.Elements)))
	case *parser.DictLiteral:
		if len(e.Keys) > 255 {
			c.errorAt(e.Brace.Line, "Can't have more than 255 entries in a dict literal.")
		}
		for i := range e.Keys {
			c.compileExpr(e.Keys[i])
			c.compileExpr(e.Values[i])
		}
		c.line = e.Brace.Line
		c.emitOpWithByte(bytecode.OpBuildDict, byte(len(e.Keys)))
	case *parser.GetSubscript:
		c.compileExpr(e.Object)
		c.compileExpr(e.Index)
		c.line = e.Bracket.Line
		c.emitOp(bytecode.OpGetSubscript)
	case *parser.SetSubscript:
		c.compileExpr(e.Object)
		c.compileExpr(e.Index)
		c.compileExpr(e.Value)
		c.line = e.Bracket.Line
		c.emitOp(bytecode.OpSetSubscript)
	case *parser.GenericType:
		c.errorAt(e.Name.Line, "Type annotations are not values.")
	}
}

func (c *Compiler) binaryExpr(e *parser.Binary) {
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	c.line = e.Operator.Line
	switch e.Operator.Type {
	case lexer.TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(bytecode.OpDivide)
	case lexer.TokenDoubleEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.TokenNotEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenGT:
		c.emitOp(bytecode.OpGreater)
	case lexer.TokenGE:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case lexer.TokenLT:
		c.emitOp(bytecode.OpLess)
	case lexer.TokenLE:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) logicalExpr(e *parser.Logical) {
	c.compileExpr(e.Left)
	c.line = e.Operator.Line
	if e.Operator.Type == lexer.TokenAnd {
		endJump := c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
		c.compileExpr(e.Right)
		c.patchJump(endJump)
		return
	}
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.compileExpr(e.Right)
	c.patchJump(endJump)
}

// ---- scopes and locals ----

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) declareLocal(name lexer.Token) {
	if len(c.locals) > 255 {
		c.errorAt(name.Line, "Too many local variables in function.")
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		existing := c.locals[i]
		if existing.depth != -1 && existing.depth < c.scopeDepth {
			break
		}
		if existing.name == name.Lexeme {
			c.errorAt(name.Line, "Already a variable with this name in this scope.")
		}
	}
	c.locals = append(c.locals, local{name: name.Lexeme, depth: -1})
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *Compiler) resolveLocal(name lexer.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name.Lexeme {
			if c.locals[i].depth == -1 {
				c.errorAt(name.Line, "Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// ---- emission ----

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.chunk().WriteOp(op, c.line)
}

func (c *Compiler) emitByte(b byte) {
	c.chunk().WriteByte(b, c.line)
}

func (c *Compiler) emitOpWithByte(op bytecode.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) makeConstant(value interface{}) byte {
	index := c.chunk().AddConstant(value)
	if index > 255 {
		c.errorAt(c.line, "Too many constants in one chunk.")
		return 0
	}
	return byte(index)
}

func (c *Compiler) emitConstant(value interface{}) {
	c.emitOpWithByte(bytecode.OpConstant, c.makeConstant(value))
}

func (c *Compiler) emitOpWithConstant(op bytecode.OpCode, name string) {
	c.emitOpWithByte(op, c.makeConstant(name))
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

// emitJump writes a placeholder 16-bit offset and returns its position for
// patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.errorAt(c.line, "Too much code to jump over.")
		jump = 0
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorAt(c.line, "Loop body too large.")
		offset = 0
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) errorAt(line int, message string) {
	*c.errs = append(*c.errs, errors.NewCompileError(message, line))
}
