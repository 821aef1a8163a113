package vm

import (
	"testing"

	"orion/internal/bytecode"
)

func hostMethod(name string, arity int) *CompiledFunction {
	chunk := bytecode.NewChunk()
	chunk.WriteOp(bytecode.OpNil, 1)
	chunk.WriteOp(bytecode.OpReturn, 1)
	return &CompiledFunction{Name: name, Arity: arity, Chunk: chunk}
}

func TestFailedHostDispatchLeavesStackBalanced(t *testing.T) {
	tick := hostMethod("tick", 0)
	def := &ComponentDef{
		Name:    "Widget",
		Methods: map[string]*CompiledFunction{"tick": tick},
	}
	instance := NewComponentInstance(def)

	machine := NewVM()
	defer machine.Close()

	// tick takes no event dict, so each dispatch below fails in callValue.
	for i := 0; i < 3; i++ {
		if got := machine.CallMethodOnInstance(instance, "tick", map[string]Value{"key": "x"}); got != nil {
			t.Fatalf("failed dispatch returned %v, want nil", got)
		}
		if len(machine.stack) != 0 {
			t.Fatalf("stack depth = %d after failed dispatch, want 0", len(machine.stack))
		}
	}

	if got := machine.CallMethodOnInstance(instance, "tick", nil); got != nil {
		t.Errorf("tick returned %v, want nil", got)
	}
	if len(machine.stack) != 0 {
		t.Errorf("stack depth = %d after successful dispatch, want 0", len(machine.stack))
	}
}
