package vm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"orion/internal/lexer"
)

func native(name string, arity int, fn func(args []Value) (Value, error)) *NativeFunction {
	return &NativeFunction{Name: name, Arity: arity, Function: fn}
}

// defineGlobalNatives installs the functions available without an import:
// clock, print, slice, and the lexer introspection namespace.
func (vm *VM) defineGlobalNatives() {
	vm.globals["clock"] = native("clock", 0, func(args []Value) (Value, error) {
		return float64(time.Now().UnixNano()) / 1e9, nil
	})

	vm.globals["print"] = native("print", Variadic, func(args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = ToString(arg)
		}
		fmt.Println(strings.Join(parts, " "))
		return nil, nil
	})

	vm.globals["slice"] = native("slice", Variadic, func(args []Value) (Value, error) {
		return sliceValue(args)
	})

	lexerNS := NewInstance()
	lexerNS.Fields["tokenize"] = native("tokenize", 1, nativeTokenize)
	vm.globals["lexer"] = lexerNS
}

// sliceValue implements slice(collection, start[, end]) over lists and
// strings. Bounds are clamped rather than raised.
func sliceValue(args []Value) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("slice expects 2 or 3 arguments but got %d", len(args))
	}
	start, ok := args[1].(float64)
	if !ok || !IsInteger(start) {
		return nil, fmt.Errorf("slice start must be an integer")
	}

	switch coll := args[0].(type) {
	case *List:
		length := len(coll.Elements)
		lo, hi, err := sliceBounds(args, int(start), length)
		if err != nil {
			return nil, err
		}
		elements := make([]Value, hi-lo)
		copy(elements, coll.Elements[lo:hi])
		return NewList(elements), nil
	case string:
		lo, hi, err := sliceBounds(args, int(start), len(coll))
		if err != nil {
			return nil, err
		}
		return coll[lo:hi], nil
	}
	return nil, fmt.Errorf("slice expects a list or string, got %s", TypeName(args[0]))
}

func sliceBounds(args []Value, start, length int) (int, int, error) {
	end := length
	if len(args) == 3 {
		e, ok := args[2].(float64)
		if !ok || !IsInteger(e) {
			return 0, 0, fmt.Errorf("slice end must be an integer")
		}
		end = int(e)
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end, nil
}

// nativeTokenize runs the scanner over a source string and returns the token
// stream as a list of {type, lexeme, line} dictionaries. The EOF marker is
// omitted.
func nativeTokenize(args []Value) (Value, error) {
	source, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("tokenize expects a string, got %s", TypeName(args[0]))
	}
	scanner := lexer.NewScanner(source)
	tokens := scanner.ScanTokens()
	elements := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == lexer.TokenEOF {
			continue
		}
		elements = append(elements, NewDict(map[Value]Value{
			"type":   string(tok.Type),
			"lexeme": tok.Lexeme,
			"line":   float64(tok.Line),
		}))
	}
	return NewList(elements), nil
}

func (vm *VM) registerIOModule() {
	vm.nativeModules["io"] = map[string]Value{
		"read": native("read", 1, func(args []Value) (Value, error) {
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("io.read expects a string path")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("could not read file '%s': %v", path, err)
			}
			return string(data), nil
		}),
		"write": native("write", 2, func(args []Value) (Value, error) {
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("io.write expects a string path")
			}
			if err := os.WriteFile(path, []byte(ToString(args[1])), 0o644); err != nil {
				return nil, fmt.Errorf("could not write file '%s': %v", path, err)
			}
			return true, nil
		}),
		"append": native("append", 2, func(args []Value) (Value, error) {
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("io.append expects a string path")
			}
			f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("could not open file '%s': %v", path, err)
			}
			defer f.Close()
			if _, err := f.WriteString(ToString(args[1])); err != nil {
				return nil, fmt.Errorf("could not append to file '%s': %v", path, err)
			}
			return true, nil
		}),
		"exists": native("exists", 1, func(args []Value) (Value, error) {
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("io.exists expects a string path")
			}
			_, err := os.Stat(path)
			return err == nil, nil
		}),
	}
}

func (vm *VM) registerStrModule() {
	vm.nativeModules["str"] = map[string]Value{
		"length": native("length", 1, func(args []Value) (Value, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("str.length expects a string")
			}
			return float64(len(s)), nil
		}),
		"toUpperCase": native("toUpperCase", 1, func(args []Value) (Value, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("str.toUpperCase expects a string")
			}
			return strings.ToUpper(s), nil
		}),
		"toLowerCase": native("toLowerCase", 1, func(args []Value) (Value, error) {
			s, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("str.toLowerCase expects a string")
			}
			return strings.ToLower(s), nil
		}),
		"contains": native("contains", 2, func(args []Value) (Value, error) {
			s, ok1 := args[0].(string)
			sub, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("str.contains expects two strings")
			}
			return strings.Contains(s, sub), nil
		}),
		"split": native("split", 2, func(args []Value) (Value, error) {
			s, ok1 := args[0].(string)
			sep, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("str.split expects two strings")
			}
			parts := strings.Split(s, sep)
			elements := make([]Value, len(parts))
			for i, part := range parts {
				elements[i] = part
			}
			return NewList(elements), nil
		}),
		"join": native("join", 2, func(args []Value) (Value, error) {
			list, ok1 := args[0].(*List)
			sep, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("str.join expects a list and a string")
			}
			parts := make([]string, len(list.Elements))
			for i, elem := range list.Elements {
				parts[i] = ToString(elem)
			}
			return strings.Join(parts, sep), nil
		}),
	}
}
