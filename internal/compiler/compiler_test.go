package compiler

import (
	"fmt"
	"strings"
	"testing"

	"orion/internal/bytecode"
	"orion/internal/errors"
	"orion/internal/vm"
)

func compile(t *testing.T, source string) *vm.CompiledFunction {
	t.Helper()
	fn, errs := CompileSource(source)
	if len(errs) > 0 {
		t.Fatalf("source %q: unexpected errors: %v", source, errs)
	}
	return fn
}

func TestCompileArithmetic(t *testing.T) {
	fn := compile(t, "1 + 2;")
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpAdd),
		byte(bytecode.OpPop),
		byte(bytecode.OpNil),
		byte(bytecode.OpReturn),
	}
	if got := fn.Chunk.Code; string(got) != string(want) {
		t.Errorf("code = %v, want %v", got, want)
	}
	if fn.Chunk.Constants[0] != 1.0 || fn.Chunk.Constants[1] != 2.0 {
		t.Errorf("constants = %v", fn.Chunk.Constants)
	}
}

func TestDesugaredComparisons(t *testing.T) {
	tests := []struct {
		source string
		ops    []bytecode.OpCode
	}{
		{"var a = 1 != 2;", []bytecode.OpCode{bytecode.OpEqual, bytecode.OpNot}},
		{"var a = 1 <= 2;", []bytecode.OpCode{bytecode.OpGreater, bytecode.OpNot}},
		{"var a = 1 >= 2;", []bytecode.OpCode{bytecode.OpLess, bytecode.OpNot}},
	}
	for _, tt := range tests {
		fn := compile(t, tt.source)
		code := fn.Chunk.Code
		found := false
		for i := 0; i+1 < len(code); i++ {
			if code[i] == byte(tt.ops[0]) && code[i+1] == byte(tt.ops[1]) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("source %q: ops %v not emitted in %v", tt.source, tt.ops, code)
		}
	}
}

func TestGlobalVarDefinition(t *testing.T) {
	fn := compile(t, "var x = 1;")
	code := fn.Chunk.Code
	if bytecode.OpCode(code[2]) != bytecode.OpDefineGlobal {
		t.Fatalf("expected OpDefineGlobal, got %v", code)
	}
	if name := fn.Chunk.Constants[code[3]]; name != "x" {
		t.Errorf("global name constant = %v, want \"x\"", name)
	}
}

func TestLocalSlotsAndScopeExit(t *testing.T) {
	fn := compile(t, "{ var a = 1; var b = 2; print(b); }")
	code := fn.Chunk.Code
	// b occupies slot 2; slot 0 is reserved, a is slot 1.
	found := false
	for i := 0; i+1 < len(code); i++ {
		if bytecode.OpCode(code[i]) == bytecode.OpGetLocal && code[i+1] == 2 {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected OpGetLocal slot 2 in %v", code)
	}
	pops := 0
	for i := len(code) - 3; i >= 0 && bytecode.OpCode(code[i]) == bytecode.OpPop; i-- {
		pops++
	}
	if pops < 2 {
		t.Errorf("expected two scope-exit pops before the implicit return, got %d", pops)
	}
}

func TestJumpsArePatched(t *testing.T) {
	sources := []string{
		"if (1 < 2) print(1); else print(2);",
		"while (1 < 2) { print(1); }",
		"var a = true and false;",
		"var b = false or true;",
	}
	for _, source := range sources {
		fn := compile(t, source)
		code := fn.Chunk.Code
		for i := 0; i < len(code); i++ {
			op := bytecode.OpCode(code[i])
			switch op {
			case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
				offset := int(code[i+1])<<8 | int(code[i+2])
				if offset == 0xffff {
					t.Errorf("source %q: unpatched jump at %d", source, i)
				}
				i += 2
			case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal,
				bytecode.OpSetGlobal, bytecode.OpGetLocal, bytecode.OpSetLocal,
				bytecode.OpCall, bytecode.OpBuildList, bytecode.OpBuildDict,
				bytecode.OpImportNative, bytecode.OpGetProperty, bytecode.OpSetProperty,
				bytecode.OpClass, bytecode.OpMethod:
				i++
			}
		}
	}
}

func TestWhileEmitsLoop(t *testing.T) {
	fn := compile(t, "while (1 < 2) { print(1); }")
	if !strings.Contains(string(fn.Chunk.Code), string([]byte{byte(bytecode.OpLoop)})) {
		t.Error("expected an OpLoop instruction")
	}
}

func TestFunctionCompilesToConstant(t *testing.T) {
	fn := compile(t, `
		function add(a, b) {
			return a + b;
		}
		var r = add(1, 2);`)
	var inner *vm.CompiledFunction
	for _, constant := range fn.Chunk.Constants {
		if f, ok := constant.(*vm.CompiledFunction); ok {
			inner = f
			break
		}
	}
	if inner == nil {
		t.Fatal("function object missing from constant pool")
	}
	if inner.Name != "add" || inner.Arity != 2 {
		t.Errorf("inner = {%s %d}, want {add 2}", inner.Name, inner.Arity)
	}
	last := inner.Chunk.Code[len(inner.Chunk.Code)-1]
	if bytecode.OpCode(last) != bytecode.OpReturn {
		t.Error("function body must end with OpReturn")
	}
}

func TestClassEmitsMethods(t *testing.T) {
	fn := compile(t, `
		class Point {
			function init(x, y) {
				this.x = x;
				this.y = y;
			}
			function sum() {
				return this.x + this.y;
			}
		}`)
	code := fn.Chunk.Code
	methods := 0
	for i := 0; i < len(code); i++ {
		if bytecode.OpCode(code[i]) == bytecode.OpMethod {
			methods++
		}
	}
	if methods != 2 {
		t.Errorf("expected 2 OpMethod instructions, got %d", methods)
	}
}

func TestComponentDefConstant(t *testing.T) {
	fn := compile(t, `
		component Counter {
			width: 100;
			state {
				count: 0;
			}
			function increment() {
				this.state.count = this.state.count + 1;
			}
		}`)
	var def *vm.ComponentDef
	for _, constant := range fn.Chunk.Constants {
		if d, ok := constant.(*vm.ComponentDef); ok {
			def = d
			break
		}
	}
	if def == nil {
		t.Fatal("component definition missing from constant pool")
	}
	if def.Name != "Counter" {
		t.Errorf("Name = %q, want Counter", def.Name)
	}
	if len(def.Properties) != 1 || def.Properties[0].Name.Lexeme != "width" {
		t.Errorf("Properties = %v", def.Properties)
	}
	if len(def.StateBlocks) != 1 || def.StateBlocks[0].Name.Lexeme != "state" {
		t.Errorf("StateBlocks = %v", def.StateBlocks)
	}
	if _, ok := def.Methods["increment"]; !ok {
		t.Error("method increment missing from definition")
	}
}

func TestUseBindsModuleName(t *testing.T) {
	fn := compile(t, "use io;")
	code := fn.Chunk.Code
	if bytecode.OpCode(code[0]) != bytecode.OpImportNative {
		t.Fatalf("expected OpImportNative first, got %v", code)
	}
	if bytecode.OpCode(code[2]) != bytecode.OpDefineGlobal {
		t.Fatalf("expected OpDefineGlobal after import, got %v", code)
	}

	fn = compile(t, "use str as s;")
	code = fn.Chunk.Code
	if name := fn.Chunk.Constants[code[3]]; name != "s" {
		t.Errorf("alias binding = %v, want \"s\"", name)
	}
}

func TestTooManyConstants(t *testing.T) {
	var b strings.Builder
	b.WriteString("var total = 0;\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "total = total + %d.5;\n", i)
	}
	_, errs := CompileSource(b.String())
	if len(errs) == 0 {
		t.Fatal("expected a constant pool overflow error")
	}
	found := false
	for _, err := range errs {
		if strings.Contains(err.Message, "Too many constants") {
			found = true
		}
		if err.Type != errors.CompileError {
			t.Errorf("error type = %s, want %s", err.Type, errors.CompileError)
		}
	}
	if !found {
		t.Errorf("no overflow error in %v", errs)
	}
}

func TestPipelineGatesPhases(t *testing.T) {
	_, errs := CompileSource("var x = ;")
	if len(errs) == 0 {
		t.Fatal("expected parse errors")
	}
	for _, err := range errs {
		if err.Type != errors.ParseError {
			t.Errorf("error type = %s, want %s", err.Type, errors.ParseError)
		}
	}

	_, errs = CompileSource("var x: number = \"oops\";")
	if len(errs) == 0 {
		t.Fatal("expected type errors")
	}
	for _, err := range errs {
		if err.Type != errors.TypeError {
			t.Errorf("error type = %s, want %s", err.Type, errors.TypeError)
		}
	}
}
