// internal/types/types.go
package types

import "fmt"

// Kind enumerates the closed set of Orion types.
type Kind int

const (
	KindAny Kind = iota
	KindNil
	KindBool
	KindNumber
	KindString
	KindFunction
	KindModule
	KindType
	KindComponent
	KindClass
	KindList
	KindDict
)

// Type is one node in the closed type system. List uses Elem; Dict uses Key
// and Value; Component and Class carry the declared name. A nil parameter
// inside a List or Dict acts as a wildcard, which is how empty literals
// unify with any annotation.
type Type struct {
	Kind  Kind
	Name  string
	Elem  *Type
	Key   *Type
	Value *Type
}

var (
	Any      = &Type{Kind: KindAny}
	Nil      = &Type{Kind: KindNil}
	Bool     = &Type{Kind: KindBool}
	Number   = &Type{Kind: KindNumber}
	String   = &Type{Kind: KindString}
	Function = &Type{Kind: KindFunction}
	Module   = &Type{Kind: KindModule}
	TypeType = &Type{Kind: KindType}
)

func NewList(elem *Type) *Type {
	return &Type{Kind: KindList, Elem: elem}
}

func NewDict(key, value *Type) *Type {
	return &Type{Kind: KindDict, Key: key, Value: value}
}

func NewComponent(name string) *Type {
	return &Type{Kind: KindComponent, Name: name}
}

func NewClass(name string) *Type {
	return &Type{Kind: KindClass, Name: name}
}

func (t *Type) String() string {
	switch t.Kind {
	case KindAny:
		return "any"
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindModule:
		return "module"
	case KindType:
		return "type"
	case KindComponent, KindClass:
		return t.Name
	case KindList:
		return fmt.Sprintf("list[%s]", paramString(t.Elem))
	case KindDict:
		return fmt.Sprintf("dict[%s, %s]", paramString(t.Key), paramString(t.Value))
	}
	return "unknown"
}

func paramString(t *Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// IsAssignable reports whether a value of type `value` may be stored in a
// slot of type `target`. Any is bidirectional here at the top level only:
// inside List and Dict parameters an Any target parameter accepts anything,
// but an Any value parameter does not satisfy a concrete target parameter.
// That keeps `var n: list[number] = l;` an error when l is list[any].
func IsAssignable(target, value *Type) bool {
	if target.Kind == KindAny || value.Kind == KindAny {
		return true
	}
	return assignable(target, value)
}

func assignable(target, value *Type) bool {
	if target == nil || value == nil {
		// Wildcard parameter from an empty or untyped literal.
		return true
	}
	switch target.Kind {
	case KindAny:
		return true
	case KindList:
		return value.Kind == KindList && assignable(target.Elem, value.Elem)
	case KindDict:
		return value.Kind == KindDict &&
			assignable(target.Key, value.Key) &&
			assignable(target.Value, value.Value)
	case KindComponent, KindClass:
		return target.Kind == value.Kind && target.Name == value.Name
	}
	return target.Kind == value.Kind
}
