package parser

import (
	"strings"
	"testing"

	"orion/internal/lexer"
)

func parseSource(t *testing.T, input string) (*Parser, []Stmt) {
	t.Helper()
	tokens := lexer.NewScanner(input).ScanTokens()
	p := NewParser(tokens)
	return p, p.Parse()
}

func parseOK(t *testing.T, input string) []Stmt {
	t.Helper()
	p, stmts := parseSource(t, input)
	if len(p.Errors) > 0 {
		t.Fatalf("input %q: unexpected parse errors: %v", input, p.Errors)
	}
	return stmts
}

func TestPrintVarDeclaration(t *testing.T) {
	stmts := parseOK(t, "var x = 10 * (2 + 3);")
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	got := PrintStmt(stmts[0])
	want := "(var x (* 10 (group (+ 2 3))))"
	if got != want {
		t.Errorf("printed AST = %q, want %q", got, want)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	p, stmts := parseSource(t, "var = 1;\nvar y = 2;\nvar z = 3;")
	if len(p.Errors) == 0 {
		t.Fatal("expected a parse error for the first statement")
	}
	// The bad statement is dropped; the independent ones still parse.
	if len(stmts) != 2 {
		t.Fatalf("got %d statements after recovery, want 2", len(stmts))
	}
	if PrintStmt(stmts[0]) != "(var y 2)" || PrintStmt(stmts[1]) != "(var z 3)" {
		t.Errorf("recovered statements = %q, %q", PrintStmt(stmts[0]), PrintStmt(stmts[1]))
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	p, _ := parseSource(t, "1 + 2 = 3;")
	if len(p.Errors) == 0 {
		t.Fatal("expected an invalid assignment target error")
	}
	if !strings.Contains(p.Errors[0].Message, "Invalid assignment target") {
		t.Errorf("error = %q, want invalid assignment target", p.Errors[0].Message)
	}
}

func TestAssignmentTargets(t *testing.T) {
	stmts := parseOK(t, "x = 1; a.b = 2; l[0] = 3;")
	if _, ok := stmts[0].(*Expression).Expr.(*Assign); !ok {
		t.Errorf("x = 1 parsed as %T, want *Assign", stmts[0].(*Expression).Expr)
	}
	if _, ok := stmts[1].(*Expression).Expr.(*Set); !ok {
		t.Errorf("a.b = 2 parsed as %T, want *Set", stmts[1].(*Expression).Expr)
	}
	if _, ok := stmts[2].(*Expression).Expr.(*SetSubscript); !ok {
		t.Errorf("l[0] = 3 parsed as %T, want *SetSubscript", stmts[2].(*Expression).Expr)
	}
}

func TestForLoopDesugarsToWhile(t *testing.T) {
	stmts := parseOK(t, "for (var i = 0; i < 5; i = i + 1) x = x + i;")
	block, ok := stmts[0].(*Block)
	if !ok {
		t.Fatalf("for loop parsed as %T, want *Block", stmts[0])
	}
	if len(block.Statements) != 2 {
		t.Fatalf("desugared block has %d statements, want init + while", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*Var); !ok {
		t.Errorf("first statement is %T, want *Var initializer", block.Statements[0])
	}
	loop, ok := block.Statements[1].(*While)
	if !ok {
		t.Fatalf("second statement is %T, want *While", block.Statements[1])
	}
	inner, ok := loop.Body.(*Block)
	if !ok || len(inner.Statements) != 2 {
		t.Fatalf("loop body should be a block of body + increment, got %T", loop.Body)
	}
}

func TestTypeAnnotations(t *testing.T) {
	stmts := parseOK(t, "var l: list[number] = [1]; var d: dict[string, any] = {}; var s: string = \"x\";")
	l := stmts[0].(*Var)
	gt, ok := l.TypeAnn.(*GenericType)
	if !ok || gt.Name.Lexeme != "list" || len(gt.Params) != 1 {
		t.Fatalf("list annotation parsed wrong: %s", PrintExpr(l.TypeAnn))
	}
	d := stmts[1].(*Var)
	if PrintExpr(d.TypeAnn) != "dict[string, any]" {
		t.Errorf("dict annotation = %q", PrintExpr(d.TypeAnn))
	}
	s := stmts[2].(*Var)
	if PrintExpr(s.TypeAnn) != "string" {
		t.Errorf("string annotation = %q", PrintExpr(s.TypeAnn))
	}
}

func TestComponentBodyDisambiguation(t *testing.T) {
	src := `component App {
		width: 100;
		state {
			count: 0;
		}
		function render() {
			return 1;
		}
	}`
	stmts := parseOK(t, src)
	comp, ok := stmts[0].(*Component)
	if !ok {
		t.Fatalf("parsed as %T, want *Component", stmts[0])
	}
	if len(comp.Body) != 3 {
		t.Fatalf("component body has %d members, want 3", len(comp.Body))
	}
	if _, ok := comp.Body[0].(*StyleProp); !ok {
		t.Errorf("member 0 is %T, want *StyleProp", comp.Body[0])
	}
	if _, ok := comp.Body[1].(*StateBlock); !ok {
		t.Errorf("member 1 is %T, want *StateBlock", comp.Body[1])
	}
	if _, ok := comp.Body[2].(*Function); !ok {
		t.Errorf("member 2 is %T, want *Function", comp.Body[2])
	}
}

func TestStylePropKeepsRawTokens(t *testing.T) {
	stmts := parseOK(t, "component Box { color: #FF0000; }")
	comp := stmts[0].(*Component)
	prop := comp.Body[0].(*StyleProp)
	if prop.Name.Lexeme != "color" {
		t.Errorf("prop name = %q", prop.Name.Lexeme)
	}
	if len(prop.Values) != 2 {
		t.Fatalf("raw value run has %d tokens, want 2 (# and FF0000)", len(prop.Values))
	}
}

func TestUseStatement(t *testing.T) {
	stmts := parseOK(t, "use io; use str as text;")
	if PrintStmt(stmts[0]) != "(use io)" {
		t.Errorf("got %q", PrintStmt(stmts[0]))
	}
	if PrintStmt(stmts[1]) != "(use str as text)" {
		t.Errorf("got %q", PrintStmt(stmts[1]))
	}
}

func TestListAndDictLiterals(t *testing.T) {
	stmts := parseOK(t, `var l = [1, 2, 3]; var d = {"a": 1, "b": 2};`)
	if PrintStmt(stmts[0]) != "(var l (list 1 2 3))" {
		t.Errorf("list literal = %q", PrintStmt(stmts[0]))
	}
	if PrintStmt(stmts[1]) != `(var d (dict "a" 1 "b" 2))` {
		t.Errorf("dict literal = %q", PrintStmt(stmts[1]))
	}
}

func TestClassDeclaration(t *testing.T) {
	src := `class Point {
		function init(x, y) {
			this.x = x;
			this.y = y;
		}
		function sum() {
			return this.x + this.y;
		}
	}`
	stmts := parseOK(t, src)
	class, ok := stmts[0].(*Class)
	if !ok {
		t.Fatalf("parsed as %T, want *Class", stmts[0])
	}
	if len(class.Methods) != 2 {
		t.Errorf("class has %d methods, want 2", len(class.Methods))
	}
	if class.Methods[0].Name.Lexeme != "init" {
		t.Errorf("first method = %q, want init", class.Methods[0].Name.Lexeme)
	}
}

func TestLogicalPrecedence(t *testing.T) {
	stmts := parseOK(t, "var b = true or false and true;")
	got := PrintStmt(stmts[0])
	want := "(var b (or true (and false true)))"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
