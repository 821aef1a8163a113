package types

import "testing"

func TestAnyBidirectionalAtTopLevel(t *testing.T) {
	all := []*Type{Nil, Bool, Number, String, Function, Module,
		NewList(Number), NewDict(String, Any), NewComponent("App"), NewClass("Point")}
	for _, typ := range all {
		if !IsAssignable(Any, typ) {
			t.Errorf("any should accept %s", typ)
		}
		if !IsAssignable(typ, Any) {
			t.Errorf("%s should accept any", typ)
		}
	}
}

func TestPrimitiveAssignability(t *testing.T) {
	if IsAssignable(Number, String) {
		t.Error("number must not accept string")
	}
	if !IsAssignable(Number, Number) {
		t.Error("number must accept number")
	}
}

func TestListAssignability(t *testing.T) {
	if !IsAssignable(NewList(Number), NewList(Number)) {
		t.Error("list[number] must accept list[number]")
	}
	if IsAssignable(NewList(Number), NewList(String)) {
		t.Error("list[number] must not accept list[string]")
	}
	// Any as a target parameter accepts anything...
	if !IsAssignable(NewList(Any), NewList(Number)) {
		t.Error("list[any] must accept list[number]")
	}
	// ...but an Any value parameter does not satisfy a concrete target.
	if IsAssignable(NewList(Number), NewList(Any)) {
		t.Error("list[number] must not accept list[any]")
	}
}

func TestEmptyLiteralWildcard(t *testing.T) {
	empty := NewList(nil)
	if !IsAssignable(NewList(Number), empty) {
		t.Error("list[number] must accept an empty list literal")
	}
	emptyDict := NewDict(nil, nil)
	if !IsAssignable(NewDict(String, Number), emptyDict) {
		t.Error("dict[string, number] must accept an empty dict literal")
	}
}

func TestDictAssignability(t *testing.T) {
	if !IsAssignable(NewDict(String, Number), NewDict(String, Number)) {
		t.Error("identical dict types must be assignable")
	}
	if IsAssignable(NewDict(String, Number), NewDict(String, String)) {
		t.Error("dict value parameters must match")
	}
	if !IsAssignable(NewDict(String, NewList(Number)), NewDict(String, NewList(Number))) {
		t.Error("nested generics must recurse")
	}
}

func TestNamedTypes(t *testing.T) {
	if IsAssignable(NewComponent("App"), NewComponent("Header")) {
		t.Error("different component types must not be assignable")
	}
	if IsAssignable(NewComponent("App"), NewClass("App")) {
		t.Error("component and class with the same name are distinct")
	}
	if !IsAssignable(NewClass("Point"), NewClass("Point")) {
		t.Error("same class type must be assignable")
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{Number, "number"},
		{NewList(Number), "list[number]"},
		{NewDict(String, Any), "dict[string, any]"},
		{NewComponent("App"), "App"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
