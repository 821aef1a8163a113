package vm

import (
	"fmt"
	"math"
	"strings"

	"orion/internal/bytecode"
	"orion/internal/parser"
)

type Value interface{}

// CompiledFunction is a function compiled to a bytecode chunk. Definitions
// are created once at declaration time and shared; they are immutable after
// compilation.
type CompiledFunction struct {
	Name  string
	Arity int
	Chunk *bytecode.Chunk
}

// NativeFunction is a built-in exposed to scripts. Arity -1 means variadic.
type NativeFunction struct {
	Name     string
	Arity    int
	Function func(args []Value) (Value, error)
}

const Variadic = -1

// Class is a runtime class definition.
type Class struct {
	Name    string
	Methods map[string]*CompiledFunction
}

// ClassInstance is one instance of a user-defined class.
type ClassInstance struct {
	Class  *Class
	Fields map[string]Value
}

// ComponentDef is a component's definition: its raw property declarations,
// state blocks, and compiled methods. Property defaults are evaluated per
// instantiation from the single-token literals in the declarations.
type ComponentDef struct {
	Name        string
	Properties  []*parser.StyleProp
	StateBlocks []*parser.StateBlock
	Methods     map[string]*CompiledFunction
}

// ComponentInstance is one instance of a component. Dirty starts true so the
// first render pass always paints it.
type ComponentInstance struct {
	Definition *ComponentDef
	Fields     map[string]Value
	Dirty      bool
}

// BoundMethod pairs a receiver with one of its methods.
type BoundMethod struct {
	Receiver Value
	Method   *CompiledFunction
}

// Instance is a bare field bag. Module namespaces use it, and its lookups
// are lenient: unknown fields read as nil.
type Instance struct {
	Fields map[string]Value
}

// StateProxy wraps a component's state dictionary and marks the owner dirty
// on every write.
type StateProxy struct {
	Owner  *ComponentInstance
	Fields map[string]Value
}

// List is an ordered element sequence.
type List struct {
	Elements []Value
}

// Dict is a hash map keyed by string, number, bool, or nil.
type Dict struct {
	Pairs map[Value]Value
}

func NewInstance() *Instance {
	return &Instance{Fields: make(map[string]Value)}
}

func NewClass(name string) *Class {
	return &Class{Name: name, Methods: make(map[string]*CompiledFunction)}
}

func NewClassInstance(class *Class) *ClassInstance {
	return &ClassInstance{Class: class, Fields: make(map[string]Value)}
}

func NewComponentInstance(def *ComponentDef) *ComponentInstance {
	return &ComponentInstance{Definition: def, Fields: make(map[string]Value), Dirty: true}
}

func NewList(elements []Value) *List {
	return &List{Elements: elements}
}

func NewDict(pairs map[Value]Value) *Dict {
	if pairs == nil {
		pairs = make(map[Value]Value)
	}
	return &Dict{Pairs: pairs}
}

// IsFalsey reports whether a value is false in a condition: only nil and
// false are.
func IsFalsey(val Value) bool {
	return val == nil || val == false
}

// ValidKey reports whether a value may be used as a dictionary key.
func ValidKey(val Value) bool {
	switch val.(type) {
	case nil, string, float64, bool:
		return true
	}
	return false
}

// IsInteger reports whether a number has no fractional part. All Orion
// numbers are float64; list indexing narrows with this check.
func IsInteger(f float64) bool {
	return f == math.Trunc(f)
}

// TypeName returns the runtime type of a value as scripts see it.
func TypeName(val Value) string {
	switch val.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case *List:
		return "list"
	case *Dict:
		return "dict"
	case *CompiledFunction, *NativeFunction, *BoundMethod:
		return "function"
	case *Class:
		return "class"
	case *ClassInstance, *ComponentInstance, *Instance, *StateProxy:
		return "instance"
	case *ComponentDef:
		return "component"
	}
	return "unknown"
}

// ToString renders a value the way print shows it. Whole numbers print
// without a fractional part.
func ToString(val Value) string {
	switch v := val.(type) {
	case nil:
		return "nil"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", v)
	case string:
		return v
	case *List:
		elems := make([]string, len(v.Elements))
		for i, elem := range v.Elements {
			elems[i] = ToString(elem)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *Dict:
		pairs := make([]string, 0, len(v.Pairs))
		for key, value := range v.Pairs {
			pairs = append(pairs, fmt.Sprintf("\"%s\": %s", ToString(key), ToString(value)))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	case *CompiledFunction:
		return fmt.Sprintf("<fn %s>", v.Name)
	case *NativeFunction:
		return "<native fn>"
	case *BoundMethod:
		return ToString(v.Method)
	case *Class:
		return fmt.Sprintf("<class %s>", v.Name)
	case *ComponentDef:
		return fmt.Sprintf("<component %s>", v.Name)
	case *ComponentInstance:
		return fmt.Sprintf("<%s instance>", v.Definition.Name)
	case *ClassInstance:
		return fmt.Sprintf("<%s instance>", v.Class.Name)
	case *StateProxy:
		return "<state>"
	case *Instance:
		return "<instance>"
	}
	return fmt.Sprintf("%v", val)
}

// ValuesEqual implements ==. Primitives compare by value, objects by
// identity.
func ValuesEqual(a, b Value) bool {
	return a == b
}
