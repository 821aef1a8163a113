package bytecode

// Chunk holds a function's compiled code, its constant pool, and a line table
// kept parallel to Code byte for byte.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Lines     []int
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []interface{}{},
		Lines:     []int{},
	}
}

func (c *Chunk) WriteOp(op OpCode, line int) {
	c.WriteByte(byte(op), line)
}

func (c *Chunk) WriteByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// Line reports the source line for the instruction byte at ip.
func (c *Chunk) Line(ip int) int {
	if ip >= 0 && ip < len(c.Lines) {
		return c.Lines[ip]
	}
	return 0
}
