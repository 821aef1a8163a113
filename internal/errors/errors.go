// internal/errors/errors.go
package errors

import "fmt"

// ErrorType represents the type of error
type ErrorType string

const (
	LexError     ErrorType = "LexError"
	ParseError   ErrorType = "ParseError"
	TypeError    ErrorType = "TypeError"
	CompileError ErrorType = "CompileError"
	RuntimeError ErrorType = "RuntimeError"
)

// OrionError represents an error with source line information
type OrionError struct {
	Type    ErrorType
	Message string
	Line    int
}

// Error implements the error interface
func (e *OrionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[Line %d] %s: %s", e.Line, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewLexError creates a new lexical error
func NewLexError(message string, line int) *OrionError {
	return &OrionError{Type: LexError, Message: message, Line: line}
}

// NewParseError creates a new syntax error
func NewParseError(message string, line int) *OrionError {
	return &OrionError{Type: ParseError, Message: message, Line: line}
}

// NewTypeError creates a new static type error
func NewTypeError(message string, line int) *OrionError {
	return &OrionError{Type: TypeError, Message: message, Line: line}
}

// NewCompileError creates a new code generation error
func NewCompileError(message string, line int) *OrionError {
	return &OrionError{Type: CompileError, Message: message, Line: line}
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(message string, line int) *OrionError {
	return &OrionError{Type: RuntimeError, Message: message, Line: line}
}
