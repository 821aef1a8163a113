package vm

import (
	"fmt"
	"math"
)

func mathFn(name string, fn func(float64) float64) *NativeFunction {
	return native(name, 1, func(args []Value) (Value, error) {
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("math.%s expects a number, got %s", name, TypeName(args[0]))
		}
		return fn(x), nil
	})
}

func (vm *VM) registerMathModule() {
	vm.nativeModules["math"] = map[string]Value{
		"PI":   math.Pi,
		"sqrt": mathFn("sqrt", math.Sqrt),
		"sin":  mathFn("sin", math.Sin),
		"cos":  mathFn("cos", math.Cos),
		"tan":  mathFn("tan", math.Tan),
		"pow": native("pow", 2, func(args []Value) (Value, error) {
			base, ok1 := args[0].(float64)
			exp, ok2 := args[1].(float64)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("math.pow expects two numbers")
			}
			return math.Pow(base, exp), nil
		}),
	}
}
