package bytecode

type OpCode byte

const (
	OpConstant OpCode = iota // operand: 1-byte constant index

	// Literals
	OpNil
	OpTrue
	OpFalse

	// Stack
	OpPop

	// Unary
	OpNegate
	OpNot

	// Binary
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide

	// Comparison
	OpEqual
	OpGreater
	OpLess

	// Variables
	OpDefineGlobal // operand: 1-byte name constant index
	OpGetGlobal
	OpSetGlobal
	OpGetLocal // operand: 1-byte stack slot
	OpSetLocal

	// Jumps, 2-byte big-endian offsets
	OpJumpIfFalse
	OpJump
	OpLoop

	// Calls
	OpCall // operand: 1-byte argument count
	OpReturn

	// Modules
	OpImportNative // operand: 1-byte name constant index

	// Properties
	OpGetProperty
	OpSetProperty

	// Data structures
	OpBuildList // operand: 1-byte element count
	OpGetSubscript
	OpSetSubscript
	OpBuildDict // operand: 1-byte pair count

	// Classes
	OpClass
	OpMethod
)
