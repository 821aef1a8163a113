package vm_test

import (
	"strings"
	"testing"

	"orion/internal/compiler"
	"orion/internal/vm"
)

func run(t *testing.T, source string) (*vm.VM, vm.InterpretResult, vm.Value) {
	t.Helper()
	fn, errs := compiler.CompileSource(source)
	if len(errs) > 0 {
		t.Fatalf("source %q: compile errors: %v", source, errs)
	}
	machine := vm.NewVM()
	t.Cleanup(machine.Close)
	status, value := machine.Interpret(fn)
	return machine, status, value
}

func runGlobal(t *testing.T, source, global string) vm.Value {
	t.Helper()
	machine, status, _ := run(t, source)
	if status != vm.InterpretOK {
		t.Fatalf("source %q: status = %v, err = %v", source, status, machine.Err)
	}
	return machine.Globals()[global]
}

func expectRuntimeError(t *testing.T, source, fragment string) {
	t.Helper()
	machine, status, _ := run(t, source)
	if status != vm.InterpretRuntimeError {
		t.Fatalf("source %q: expected a runtime error", source)
	}
	if machine.Err == nil || !strings.Contains(machine.Err.Message, fragment) {
		t.Errorf("source %q: error %v does not mention %q", source, machine.Err, fragment)
	}
}

func TestArithmeticEvaluation(t *testing.T) {
	got := runGlobal(t, "var r = (5 - 2) * (3 + 1);", "r")
	if got != 12.0 {
		t.Errorf("r = %v, want 12", got)
	}
}

func TestStringConcatenation(t *testing.T) {
	got := runGlobal(t, `var s = "foo" + "bar";`, "s")
	if got != "foobar" {
		t.Errorf("s = %v, want foobar", got)
	}
}

func TestNumberFormatting(t *testing.T) {
	if s := vm.ToString(21.0); s != "21" {
		t.Errorf("ToString(21.0) = %q, want 21", s)
	}
	if s := vm.ToString(2.5); s != "2.5" {
		t.Errorf("ToString(2.5) = %q, want 2.5", s)
	}
}

func TestRecursiveFunction(t *testing.T) {
	got := runGlobal(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		var r = fib(8);`, "r")
	if got != 21.0 {
		t.Errorf("fib(8) = %v, want 21", got)
	}
}

func TestForLoopDesugaring(t *testing.T) {
	got := runGlobal(t, `
		var sum = 0;
		for (var i = 0; i < 5; i = i + 1) {
			sum = sum + i;
		}`, "sum")
	if got != 10.0 {
		t.Errorf("sum = %v, want 10", got)
	}
}

func TestWhileLoop(t *testing.T) {
	got := runGlobal(t, `
		var n = 1;
		while (n < 100) {
			n = n * 2;
		}`, "n")
	if got != 128.0 {
		t.Errorf("n = %v, want 128", got)
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	got := runGlobal(t, `
		var called = false;
		function touch() {
			called = true;
			return true;
		}
		var r = false and touch();`, "called")
	if got != false {
		t.Error("and must not evaluate its right side when the left is false")
	}
	got = runGlobal(t, `
		var called = false;
		function touch() {
			called = true;
			return false;
		}
		var r = true or touch();`, "called")
	if got != false {
		t.Error("or must not evaluate its right side when the left is true")
	}
}

func TestLocalShadowing(t *testing.T) {
	got := runGlobal(t, `
		var a = "outer";
		var seen = "";
		{
			var a = "inner";
			seen = a;
		}
		var after = a;`, "seen")
	if got != "inner" {
		t.Errorf("seen = %v, want inner", got)
	}
}

func TestListOperations(t *testing.T) {
	got := runGlobal(t, `
		var l = [1, 2, 3];
		l[1] = 20;
		var r = l[0] + l[1] + l.length;`, "r")
	if got != 24.0 {
		t.Errorf("r = %v, want 24", got)
	}
}

func TestListIndexOutOfRangeNamesIndex(t *testing.T) {
	expectRuntimeError(t, "var l = [1]; var x = l[10];", "10")
}

func TestDictMissingKeyReadsNil(t *testing.T) {
	got := runGlobal(t, `
		var d = {"a": 1};
		var missing = d["b"];`, "missing")
	if got != nil {
		t.Errorf("missing dict key should read nil, got %v", got)
	}
}

func TestDictReadWrite(t *testing.T) {
	got := runGlobal(t, `
		var d = {"a": 1, "b": 2};
		d["c"] = d["a"] + d["b"];
		var r = d["c"];`, "r")
	if got != 3.0 {
		t.Errorf("r = %v, want 3", got)
	}
}

func TestFunctionArityError(t *testing.T) {
	expectRuntimeError(t, `
		function f(a, b) { return a; }
		f(1);`, "Expected 2 arguments but got 1.")
}

func TestCallingNonCallable(t *testing.T) {
	expectRuntimeError(t, "var x = 1; x();", "Can only call functions and components, not number.")
}

func TestCallingNilModuleExport(t *testing.T) {
	// Module lookups are lenient, so an unknown export surfaces as a call
	// on nil rather than a property error.
	expectRuntimeError(t, `
		use str;
		str.nope();`, "Can only call functions and components, not nil.")
}

func TestClassInitReturnsInstance(t *testing.T) {
	got := runGlobal(t, `
		class Point {
			function init(x, y) {
				this.x = x;
				this.y = y;
			}
			function sum() {
				return this.x + this.y;
			}
		}
		var p = Point(3, 4);
		var r = p.sum();`, "r")
	if got != 7.0 {
		t.Errorf("r = %v, want 7", got)
	}
}

func TestClassWithoutInitRejectsArgs(t *testing.T) {
	expectRuntimeError(t, `
		class Empty {}
		var e = Empty(1);`, "Expected 0 arguments but got 1.")
}

func TestFieldShadowsMethod(t *testing.T) {
	got := runGlobal(t, `
		class Box {
			function label() { return "method"; }
		}
		var b = Box();
		b.label = "field";
		var r = b.label;`, "r")
	if got != "field" {
		t.Errorf("r = %v, want field", got)
	}
}

func TestBoundMethodArityError(t *testing.T) {
	expectRuntimeError(t, `
		class Box {
			function set(v) { this.v = v; }
		}
		var b = Box();
		var m = b.set;
		m();`, "Method 'set' expected 1 arguments but got 0.")
}

func TestComponentDefaultsAndOverrides(t *testing.T) {
	machine, status, _ := run(t, `
		component Button {
			width: 100;
			label: "ok";
			height: 2 + 3;
		}
		var b = Button({"label": "go"});`)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	instance, ok := machine.Globals()["b"].(*vm.ComponentInstance)
	if !ok {
		t.Fatalf("b = %T, want *vm.ComponentInstance", machine.Globals()["b"])
	}
	if instance.Fields["width"] != 100.0 {
		t.Errorf("width = %v, want 100", instance.Fields["width"])
	}
	if instance.Fields["label"] != "go" {
		t.Errorf("label = %v, want go (override)", instance.Fields["label"])
	}
	// Multi-token property values have no literal default.
	if instance.Fields["height"] != nil {
		t.Errorf("height = %v, want nil", instance.Fields["height"])
	}
	if !instance.Dirty {
		t.Error("new instances must start dirty")
	}
}

func TestComponentConstructorArgCount(t *testing.T) {
	expectRuntimeError(t, `
		component App { width: 1; }
		var a = App({"a": 1}, {"b": 2});`,
		"Component 'App' constructor takes 0 or 1 arguments, but got 2.")
}

func TestStateProxyDirtyFlag(t *testing.T) {
	machine, status, _ := run(t, `
		component Counter {
			state {
				count: 0;
			}
			function increment() {
				this.state.count = this.state.count + 1;
			}
		}
		var c = Counter();`)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	instance := machine.Globals()["c"].(*vm.ComponentInstance)
	proxy, ok := instance.Fields["state"].(*vm.StateProxy)
	if !ok {
		t.Fatalf("state = %T, want *vm.StateProxy", instance.Fields["state"])
	}
	if proxy.Fields["count"] != 0.0 {
		t.Errorf("count = %v, want 0", proxy.Fields["count"])
	}

	instance.Dirty = false
	machine.CallMethodOnInstance(instance, "increment", nil)
	if proxy.Fields["count"] != 1.0 {
		t.Errorf("count after increment = %v, want 1", proxy.Fields["count"])
	}
	if !instance.Dirty {
		t.Error("state write must set the dirty flag")
	}
}

func TestCallMethodOnInstanceWithArgs(t *testing.T) {
	machine, status, _ := run(t, `
		component Input {
			state {
				text: "";
			}
			function onKey(event) {
				this.state.text = event["key"];
			}
		}
		var i = Input();`)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	instance := machine.Globals()["i"].(*vm.ComponentInstance)
	machine.CallMethodOnInstance(instance, "onKey", map[string]vm.Value{"key": "x"})
	proxy := instance.Fields["state"].(*vm.StateProxy)
	if proxy.Fields["text"] != "x" {
		t.Errorf("text = %v, want x", proxy.Fields["text"])
	}
}

func TestModuleImportIsolation(t *testing.T) {
	got := runGlobal(t, `
		use str;
		use str as other;
		str.extra = "mine";
		var r = other.extra;`, "r")
	if got != nil {
		t.Error("each import site must own an independent namespace copy")
	}
}

func TestUnknownModule(t *testing.T) {
	expectRuntimeError(t, "use nosuch;", "Native module 'nosuch' not found.")
}

func TestStrModule(t *testing.T) {
	got := runGlobal(t, `
		use str;
		var r = str.toUpperCase("abc") + str.join(["x", "y"], "-");`, "r")
	if got != "ABCx-y" {
		t.Errorf("r = %v, want ABCx-y", got)
	}
}

func TestMathModule(t *testing.T) {
	got := runGlobal(t, `
		use math;
		var r = math.sqrt(9) + math.pow(2, 3);`, "r")
	if got != 11.0 {
		t.Errorf("r = %v, want 11", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	got := runGlobal(t, `
		use json;
		var d = json.parse("{\"a\": [1, 2], \"b\": true}");
		var r = d["a"][1];`, "r")
	if got != 2.0 {
		t.Errorf("r = %v, want 2", got)
	}
	got = runGlobal(t, `
		use json;
		var r = json.stringify([1, "x", true]);`, "r")
	if got != `[1,"x",true]` {
		t.Errorf("r = %v", got)
	}
}

func TestSliceBuiltin(t *testing.T) {
	got := runGlobal(t, `var r = slice([1, 2, 3, 4], 1, 3);`, "r")
	list, ok := got.(*vm.List)
	if !ok || len(list.Elements) != 2 || list.Elements[0] != 2.0 || list.Elements[1] != 3.0 {
		t.Errorf("r = %v, want [2, 3]", vm.ToString(got))
	}
	got = runGlobal(t, `var r = slice("hello", 1, 3);`, "r")
	if got != "el" {
		t.Errorf("r = %v, want el", got)
	}
}

func TestLexerIntrospection(t *testing.T) {
	got := runGlobal(t, `var r = lexer.tokenize("var x = 1;");`, "r")
	list, ok := got.(*vm.List)
	if !ok {
		t.Fatalf("r = %T, want *vm.List", got)
	}
	if len(list.Elements) != 5 {
		t.Fatalf("token count = %d, want 5 (EOF omitted)", len(list.Elements))
	}
	first := list.Elements[0].(*vm.Dict)
	if first.Pairs["type"] != "VAR" || first.Pairs["lexeme"] != "var" || first.Pairs["line"] != 1.0 {
		t.Errorf("first token = %v", vm.ToString(first))
	}
}

func TestDrawCommands(t *testing.T) {
	machine, status, _ := run(t, `
		use draw;
		draw.box({"x": 0, "y": 0, "width": 10, "height": 20, "color": "#FF0000"});
		draw.text({"text": "hi", "x": 1, "y": 2, "fontSize": 12, "color": "#000000"});
		var w = draw.measure_text("hi", 10);`)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	if len(machine.DrawCommands) != 2 {
		t.Fatalf("draw commands = %d, want 2", len(machine.DrawCommands))
	}
	if machine.DrawCommands[0].Command != "box" || machine.DrawCommands[0].Width != 10 {
		t.Errorf("box command = %+v", machine.DrawCommands[0])
	}
	if machine.DrawCommands[1].Command != "text" || machine.DrawCommands[1].Text != "hi" {
		t.Errorf("text command = %+v", machine.DrawCommands[1])
	}
	machine.ClearDrawCommands()
	if len(machine.DrawCommands) != 0 {
		t.Error("ClearDrawCommands must empty the list")
	}
}

func TestDrawOptionDefaults(t *testing.T) {
	machine, status, _ := run(t, `
		use draw;
		draw.box({"color": "#00FF00"});
		draw.text({"text": "go"});
		draw.box(42);`)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	// Non-dictionary options are ignored.
	if len(machine.DrawCommands) != 2 {
		t.Fatalf("draw commands = %d, want 2", len(machine.DrawCommands))
	}
	box := machine.DrawCommands[0]
	if box.X != 0 || box.Y != 0 || box.Width != 10 || box.Height != 5 || box.Color != "#00FF00" {
		t.Errorf("box defaults = %+v", box)
	}
	text := machine.DrawCommands[1]
	if text.FontSize != 12 || text.Color != "#FFFFFF" {
		t.Errorf("text defaults = %+v", text)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	got := runGlobal(t, `
		use db;
		var conn = db.open("sqlite", ":memory:");
		db.exec(conn, "CREATE TABLE t (id INTEGER, name TEXT)");
		db.exec(conn, "INSERT INTO t VALUES (1, 'a'), (2, 'b')");
		var rows = db.query(conn, "SELECT name FROM t ORDER BY id");
		var one = db.query_one(conn, "SELECT id FROM t WHERE name = 'b'");
		db.close(conn);
		var r = rows.length;`, "r")
	if got != 2.0 {
		t.Errorf("row count = %v, want 2", got)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	path := t.TempDir() + "/orion.db"

	expectRuntimeError(t, `
		use db;
		var conn = db.open("sqlite", "`+path+`");
		db.exec(conn, "CREATE TABLE items (name TEXT)");
		db.exec(conn, "INSERT INTO items VALUES ('a')");
		db.transaction(conn, [
			"INSERT INTO items VALUES ('b')",
			"INSERT INTO missing VALUES (1)"
		]);`, "no such table")

	got := runGlobal(t, `
		use db;
		var conn = db.open("sqlite", "`+path+`");
		var rows = db.query(conn, "SELECT name FROM items");
		var affected = db.transaction(conn, [
			["INSERT INTO items VALUES (?)", "b"],
			["INSERT INTO items VALUES (?)", "c"]
		]);
		var after = db.query(conn, "SELECT name FROM items");
		db.close(conn);
		var r = rows.length * 10 + after.length;`, "r")
	// The failed transaction rolled back, so one row before and three after.
	if got != 13.0 {
		t.Errorf("row counts = %v, want 13", got)
	}
}

func TestIOModule(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.txt"
	source := `
		use io;
		io.write("` + path + `", "one");
		io.append("` + path + `", "-two");
		var exists = io.exists("` + path + `");
		var content = io.read("` + path + `");`
	machine, status, _ := run(t, source)
	if status != vm.InterpretOK {
		t.Fatalf("status = %v, err = %v", status, machine.Err)
	}
	if machine.Globals()["exists"] != true {
		t.Error("io.exists should report true")
	}
	if machine.Globals()["content"] != "one-two" {
		t.Errorf("content = %v, want one-two", machine.Globals()["content"])
	}
}
