package vm

import (
	"fmt"
	"os"

	"orion/internal/bytecode"
	"orion/internal/database"
	"orion/internal/errors"
	"orion/internal/parser"
)

type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one activation record: the running function, its instruction
// pointer, and the stack slot where its callee-or-receiver sits (slot 0).
type CallFrame struct {
	function *CompiledFunction
	ip       int
	slotBase int
	isInit   bool
}

// VM executes compiled chunks. Each VM owns its operand stack, call frames,
// global table, native-module registry, draw-command list, and database
// manager; nothing is process-wide, so independent VMs can run on separate
// goroutines.
type VM struct {
	stack   []Value
	frames  []*CallFrame
	globals map[string]Value

	nativeModules map[string]map[string]Value

	// DrawCommands accumulates draw module output for the external renderer.
	DrawCommands []DrawCommand

	db      *database.Manager
	sockets *socketTable

	// Err holds the diagnostic for the last runtime error.
	Err *errors.OrionError
}

func NewVM() *VM {
	vm := &VM{
		globals:       make(map[string]Value),
		nativeModules: make(map[string]map[string]Value),
		db:            database.NewManager(),
		sockets:       newSocketTable(),
	}
	vm.defineGlobalNatives()
	vm.registerIOModule()
	vm.registerStrModule()
	vm.registerMathModule()
	vm.registerJSONModule()
	vm.registerHTTPModule()
	vm.registerDrawModule()
	vm.registerDBModule()
	return vm
}

// Close releases external resources held by native modules.
func (vm *VM) Close() {
	vm.db.CloseAll()
	vm.sockets.closeAll()
}

// Globals exposes the global table for embedders that look up well-known
// names after Interpret, such as an application root instance.
func (vm *VM) Globals() map[string]Value {
	return vm.globals
}

// Interpret runs a compiled entry function to completion and returns the
// final value the script produced.
func (vm *VM) Interpret(fn *CompiledFunction) (InterpretResult, Value) {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.Err = nil
	vm.push(fn)
	vm.frames = append(vm.frames, &CallFrame{function: fn})
	return vm.run(0)
}

// CallMethodOnInstance re-enters the interpreter to run one method on an
// already-constructed component instance, returning once the call unwinds
// back to the current frame depth. The UI layer drives lifecycle and event
// handlers through this.
func (vm *VM) CallMethodOnInstance(instance *ComponentInstance, methodName string, args map[string]Value) Value {
	method, ok := instance.Definition.Methods[methodName]
	if !ok {
		return nil
	}
	bound := &BoundMethod{Receiver: instance, Method: method}
	depth := len(vm.frames)
	vm.push(bound)
	argCount := 0
	if args != nil {
		pairs := make(map[Value]Value, len(args))
		for key, value := range args {
			pairs[key] = value
		}
		vm.push(NewDict(pairs))
		argCount = 1
	}
	if !vm.callValue(bound, argCount) {
		// Discard the callee and arguments so failed dispatches leave the
		// operand stack balanced.
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		return nil
	}
	_, result := vm.run(depth)
	return result
}

func (vm *VM) currentFrame() *CallFrame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) int {
	frame.ip += 2
	code := frame.function.Chunk.Code
	return int(code[frame.ip-2])<<8 | int(code[frame.ip-1])
}

func (vm *VM) readConstant(frame *CallFrame) Value {
	return frame.function.Chunk.Constants[vm.readByte(frame)]
}

func (vm *VM) readName(frame *CallFrame) string {
	name, _ := vm.readConstant(frame).(string)
	return name
}

// run is the fetch-decode-execute loop. It returns when the frame stack
// unwinds to stopDepth: 0 for Interpret, the caller's depth for re-entrant
// method calls.
func (vm *VM) run(stopDepth int) (InterpretResult, Value) {
	for {
		frame := vm.currentFrame()
		instruction := bytecode.OpCode(vm.readByte(frame))

		switch instruction {
		case bytecode.OpConstant:
			vm.push(vm.readConstant(frame))
		case bytecode.OpNil:
			vm.push(nil)
		case bytecode.OpTrue:
			vm.push(true)
		case bytecode.OpFalse:
			vm.push(false)
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpNegate:
			operand, ok := vm.pop().(float64)
			if !ok {
				return vm.runtimeError(frame, "Operand must be a number.")
			}
			vm.push(-operand)
		case bytecode.OpNot:
			vm.push(IsFalsey(vm.pop()))
		case bytecode.OpAdd:
			b := vm.pop()
			a := vm.pop()
			if x, ok := a.(float64); ok {
				if y, ok := b.(float64); ok {
					vm.push(x + y)
					break
				}
			}
			if x, ok := a.(string); ok {
				if y, ok := b.(string); ok {
					vm.push(x + y)
					break
				}
			}
			return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
		case bytecode.OpSubtract:
			a, b, ok := vm.popNumbers()
			if !ok {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			vm.push(a - b)
		case bytecode.OpMultiply:
			a, b, ok := vm.popNumbers()
			if !ok {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			vm.push(a * b)
		case bytecode.OpDivide:
			a, b, ok := vm.popNumbers()
			if !ok {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			vm.push(a / b)
		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(ValuesEqual(a, b))
		case bytecode.OpGreater:
			a, b, ok := vm.popNumbers()
			if !ok {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			vm.push(a > b)
		case bytecode.OpLess:
			a, b, ok := vm.popNumbers()
			if !ok {
				return vm.runtimeError(frame, "Operands must be numbers.")
			}
			vm.push(a < b)
		case bytecode.OpDefineGlobal:
			name := vm.readName(frame)
			vm.globals[name] = vm.peek(0)
			vm.pop()
		case bytecode.OpGetGlobal:
			name := vm.readName(frame)
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name)
			}
			vm.push(value)
		case bytecode.OpSetGlobal:
			name := vm.readName(frame)
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)
		case bytecode.OpGetLocal:
			slot := int(vm.readByte(frame))
			vm.push(vm.stack[frame.slotBase+slot])
		case bytecode.OpSetLocal:
			slot := int(vm.readByte(frame))
			vm.stack[frame.slotBase+slot] = vm.peek(0)
		case bytecode.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if IsFalsey(vm.peek(0)) {
				frame.ip += offset
			}
		case bytecode.OpJump:
			offset := vm.readShort(frame)
			frame.ip += offset
		case bytecode.OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= offset
		case bytecode.OpCall:
			argCount := int(vm.readByte(frame))
			callee := vm.peek(argCount)
			if !vm.callValue(callee, argCount) {
				return InterpretRuntimeError, nil
			}
		case bytecode.OpReturn:
			result := vm.pop()
			dead := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if dead.isInit {
				// Initializers return the receiver regardless of the
				// expression on the return statement.
				result = vm.stack[dead.slotBase]
			}
			vm.stack = vm.stack[:dead.slotBase]
			if len(vm.frames) == stopDepth {
				return InterpretOK, result
			}
			vm.push(result)
		case bytecode.OpImportNative:
			name := vm.readName(frame)
			module, ok := vm.nativeModules[name]
			if !ok {
				return vm.runtimeError(frame, "Native module '%s' not found.", name)
			}
			// Shallow copy: each import site owns its namespace and may
			// overwrite entries without affecting other importers.
			namespace := NewInstance()
			for export, value := range module {
				namespace.Fields[export] = value
			}
			vm.push(namespace)
		case bytecode.OpGetProperty:
			if result, value := vm.getProperty(frame); result != InterpretOK {
				return result, value
			}
		case bytecode.OpSetProperty:
			if result, value := vm.setProperty(frame); result != InterpretOK {
				return result, value
			}
		case bytecode.OpBuildList:
			count := int(vm.readByte(frame))
			elements := make([]Value, count)
			copy(elements, vm.stack[len(vm.stack)-count:])
			vm.stack = vm.stack[:len(vm.stack)-count]
			vm.push(NewList(elements))
		case bytecode.OpBuildDict:
			count := int(vm.readByte(frame))
			pairs := make(map[Value]Value, count)
			for i := 0; i < count; i++ {
				value := vm.pop()
				key := vm.pop()
				pairs[key] = value
			}
			vm.push(&Dict{Pairs: pairs})
		case bytecode.OpGetSubscript:
			if result, value := vm.getSubscript(frame); result != InterpretOK {
				return result, value
			}
		case bytecode.OpSetSubscript:
			if result, value := vm.setSubscript(frame); result != InterpretOK {
				return result, value
			}
		case bytecode.OpClass:
			name := vm.readName(frame)
			vm.push(NewClass(name))
		case bytecode.OpMethod:
			name := vm.readName(frame)
			method, _ := vm.peek(0).(*CompiledFunction)
			class, ok := vm.peek(1).(*Class)
			if !ok || method == nil {
				return vm.runtimeError(frame, "Invalid method declaration.")
			}
			class.Methods[name] = method
			vm.pop() // the class stays on the stack for the next method
		default:
			return vm.runtimeError(frame, "Unknown opcode %d.", instruction)
		}
	}
}

func (vm *VM) getProperty(frame *CallFrame) (InterpretResult, Value) {
	name := vm.readName(frame)
	switch instance := vm.peek(0).(type) {
	case *ClassInstance:
		// Fields shadow same-named methods.
		if value, ok := instance.Fields[name]; ok {
			vm.pop()
			vm.push(value)
			return InterpretOK, nil
		}
		if method, ok := instance.Class.Methods[name]; ok {
			vm.pop()
			vm.push(&BoundMethod{Receiver: instance, Method: method})
			return InterpretOK, nil
		}
		return vm.runtimeError(frame, "Undefined property '%s' on '%s'.", name, instance.Class.Name)
	case *ComponentInstance:
		if value, ok := instance.Fields[name]; ok {
			vm.pop()
			vm.push(value)
			return InterpretOK, nil
		}
		if method, ok := instance.Definition.Methods[name]; ok {
			vm.pop()
			vm.push(&BoundMethod{Receiver: instance, Method: method})
			return InterpretOK, nil
		}
		return vm.runtimeError(frame, "Undefined property '%s' on component '%s'.", name, instance.Definition.Name)
	case *List:
		if name == "length" {
			vm.pop()
			vm.push(float64(len(instance.Elements)))
			return InterpretOK, nil
		}
		return vm.runtimeError(frame, "Type 'list' has no property '%s'.", name)
	case *StateProxy:
		vm.pop()
		vm.push(instance.Fields[name])
		return InterpretOK, nil
	case *Instance:
		// Lenient: module namespaces read missing entries as nil.
		vm.pop()
		vm.push(instance.Fields[name])
		return InterpretOK, nil
	}
	return vm.runtimeError(frame, "Only instances and lists have properties.")
}

func (vm *VM) setProperty(frame *CallFrame) (InterpretResult, Value) {
	name := vm.readName(frame)
	value := vm.peek(0)
	switch instance := vm.peek(1).(type) {
	case *ClassInstance:
		instance.Fields[name] = value
	case *ComponentInstance:
		instance.Fields[name] = value
	case *StateProxy:
		instance.Fields[name] = value
		instance.Owner.Dirty = true
	case *Instance:
		instance.Fields[name] = value
	case *List:
		return vm.runtimeError(frame, "Cannot set properties on a list.")
	default:
		return vm.runtimeError(frame, "Only instances have properties.")
	}
	vm.pop()
	vm.pop()
	vm.push(value)
	return InterpretOK, nil
}

func (vm *VM) getSubscript(frame *CallFrame) (InterpretResult, Value) {
	index := vm.pop()
	collection := vm.pop()
	switch coll := collection.(type) {
	case *List:
		idx, ok := index.(float64)
		if !ok {
			return vm.runtimeError(frame, "List index must be an integer, not %s.", TypeName(index))
		}
		if !IsInteger(idx) {
			return vm.runtimeError(frame, "List index must be an integer.")
		}
		i := int(idx)
		if i < 0 || i >= len(coll.Elements) {
			return vm.runtimeError(frame, "List index %d out of range for list of length %d.", i, len(coll.Elements))
		}
		vm.push(coll.Elements[i])
	case *Dict:
		if !ValidKey(index) {
			return vm.runtimeError(frame, "Dictionary key must be a valid hashable type.")
		}
		// Missing keys read as nil; lists are strict, dictionaries are not.
		vm.push(coll.Pairs[index])
	default:
		return vm.runtimeError(frame, "Object is not subscriptable.")
	}
	return InterpretOK, nil
}

func (vm *VM) setSubscript(frame *CallFrame) (InterpretResult, Value) {
	value := vm.pop()
	index := vm.pop()
	collection := vm.pop()
	switch coll := collection.(type) {
	case *List:
		idx, ok := index.(float64)
		if !ok || !IsInteger(idx) {
			return vm.runtimeError(frame, "List index must be an integer.")
		}
		i := int(idx)
		if i < 0 || i >= len(coll.Elements) {
			return vm.runtimeError(frame, "List index %d out of range for list of length %d.", i, len(coll.Elements))
		}
		coll.Elements[i] = value
		vm.push(value)
	case *Dict:
		if !ValidKey(index) {
			return vm.runtimeError(frame, "Dictionary key must be a valid hashable type.")
		}
		coll.Pairs[index] = value
		vm.push(value)
	default:
		return vm.runtimeError(frame, "Object is not subscriptable.")
	}
	return InterpretOK, nil
}

// callValue dispatches a call on the value sitting argCount slots below the
// stack top.
func (vm *VM) callValue(callee Value, argCount int) bool {
	switch fn := callee.(type) {
	case *NativeFunction:
		if fn.Arity != Variadic && argCount != fn.Arity {
			vm.reportError("Expected %d arguments but got %d.", fn.Arity, argCount)
			return false
		}
		args := make([]Value, argCount)
		copy(args, vm.stack[len(vm.stack)-argCount:])
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		result, err := fn.Function(args)
		if err != nil {
			vm.reportError("%s", err.Error())
			return false
		}
		vm.push(result)
		return true
	case *CompiledFunction:
		if argCount != fn.Arity {
			vm.reportError("Expected %d arguments but got %d.", fn.Arity, argCount)
			return false
		}
		vm.pushFrame(fn, argCount, false)
		return true
	case *Class:
		// The instance replaces the class value in place on the stack, so it
		// occupies slot 0 of the initializer frame.
		instance := NewClassInstance(fn)
		vm.stack[len(vm.stack)-1-argCount] = instance
		if init, ok := fn.Methods["init"]; ok {
			if argCount != init.Arity {
				vm.reportError("Expected %d arguments for init but got %d.", init.Arity, argCount)
				return false
			}
			vm.pushFrame(init, argCount, true)
		} else if argCount != 0 {
			vm.reportError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true
	case *ComponentDef:
		return vm.instantiateComponent(fn, argCount)
	case *BoundMethod:
		if argCount != fn.Method.Arity {
			vm.reportError("Method '%s' expected %d arguments but got %d.", fn.Method.Name, fn.Method.Arity, argCount)
			return false
		}
		vm.stack[len(vm.stack)-1-argCount] = fn.Receiver
		vm.pushFrame(fn.Method, argCount, false)
		return true
	}
	vm.reportError("Can only call functions and components, not %s.", TypeName(callee))
	return false
}

// instantiateComponent builds an instance from a definition: defaults come
// from single-token property literals, an optional dictionary argument
// overlays them, and a dict-valued `state` field is wrapped in a proxy that
// marks the instance dirty on every write.
func (vm *VM) instantiateComponent(def *ComponentDef, argCount int) bool {
	if argCount > 1 {
		vm.reportError("Component '%s' constructor takes 0 or 1 arguments, but got %d.", def.Name, argCount)
		return false
	}
	var overrides map[Value]Value
	if argCount == 1 {
		dict, ok := vm.peek(0).(*Dict)
		if !ok {
			vm.reportError("Component constructor argument must be a dictionary.")
			return false
		}
		overrides = dict.Pairs
		vm.pop()
	}
	vm.pop() // the definition

	instance := NewComponentInstance(def)
	for _, prop := range def.Properties {
		var defaultValue Value
		if len(prop.Values) == 1 {
			defaultValue = prop.Values[0].Literal
		}
		instance.Fields[prop.Name.Lexeme] = defaultValue
	}
	// A state block materializes as a dictionary field named after it.
	for _, block := range def.StateBlocks {
		pairs := make(map[Value]Value, len(block.Body))
		for _, stmt := range block.Body {
			prop, ok := stmt.(*parser.StyleProp)
			if !ok {
				continue
			}
			var defaultValue Value
			if len(prop.Values) == 1 {
				defaultValue = prop.Values[0].Literal
			}
			pairs[prop.Name.Lexeme] = defaultValue
		}
		instance.Fields[block.Name.Lexeme] = NewDict(pairs)
	}
	for key, value := range overrides {
		instance.Fields[keyString(key)] = value
	}
	if state, ok := instance.Fields["state"].(*Dict); ok {
		proxy := &StateProxy{Owner: instance, Fields: make(map[string]Value, len(state.Pairs))}
		for key, value := range state.Pairs {
			proxy.Fields[keyString(key)] = value
		}
		instance.Fields["state"] = proxy
	}
	vm.push(instance)
	return true
}

func keyString(key Value) string {
	if s, ok := key.(string); ok {
		return s
	}
	return ToString(key)
}

func (vm *VM) pushFrame(fn *CompiledFunction, argCount int, isInit bool) {
	vm.frames = append(vm.frames, &CallFrame{
		function: fn,
		slotBase: len(vm.stack) - argCount - 1,
		isInit:   isInit,
	})
}

func (vm *VM) popNumbers() (float64, float64, bool) {
	b, okB := vm.pop().(float64)
	a, okA := vm.pop().(float64)
	return a, b, okA && okB
}

func (vm *VM) push(value Value) {
	vm.stack = append(vm.stack, value)
}

func (vm *VM) pop() Value {
	value := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return value
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) runtimeError(frame *CallFrame, format string, args ...interface{}) (InterpretResult, Value) {
	line := frame.function.Chunk.Line(frame.ip - 1)
	message := fmt.Sprintf(format, args...)
	vm.Err = errors.NewRuntimeError(message, line)
	fmt.Fprintln(os.Stderr, vm.Err.Error())
	return InterpretRuntimeError, nil
}

// reportError records a runtime error raised during call dispatch, where no
// instruction pointer is at hand.
func (vm *VM) reportError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	vm.Err = errors.NewRuntimeError(message, 0)
	fmt.Fprintf(os.Stderr, "RuntimeError: %s\n", message)
}
