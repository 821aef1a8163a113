package bytecode

import "testing"

func TestWriteKeepsLineTableParallel(t *testing.T) {
	chunk := NewChunk()
	chunk.WriteOp(OpConstant, 1)
	chunk.WriteByte(0, 1)
	chunk.WriteOp(OpReturn, 2)

	if len(chunk.Code) != len(chunk.Lines) {
		t.Fatalf("code and line table lengths differ: %d vs %d", len(chunk.Code), len(chunk.Lines))
	}
	if chunk.Line(0) != 1 || chunk.Line(2) != 2 {
		t.Errorf("lines = %v", chunk.Lines)
	}
	if chunk.Line(99) != 0 {
		t.Error("out-of-range ip should report line 0")
	}
}

func TestAddConstantReturnsOrderedIndices(t *testing.T) {
	chunk := NewChunk()
	if idx := chunk.AddConstant(1.0); idx != 0 {
		t.Errorf("first constant index = %d, want 0", idx)
	}
	if idx := chunk.AddConstant("name"); idx != 1 {
		t.Errorf("second constant index = %d, want 1", idx)
	}
	if chunk.Constants[1] != "name" {
		t.Errorf("constants = %v", chunk.Constants)
	}
}
