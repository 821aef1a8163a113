package vm

import (
	"encoding/json"
	"fmt"
)

func (vm *VM) registerJSONModule() {
	vm.nativeModules["json"] = map[string]Value{
		"parse": native("parse", 1, func(args []Value) (Value, error) {
			text, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("json.parse expects a string, got %s", TypeName(args[0]))
			}
			var decoded interface{}
			if err := json.Unmarshal([]byte(text), &decoded); err != nil {
				return nil, fmt.Errorf("invalid JSON: %v", err)
			}
			return jsonToValue(decoded), nil
		}),
		"stringify": native("stringify", 1, func(args []Value) (Value, error) {
			converted, err := valueToJSON(args[0])
			if err != nil {
				return nil, err
			}
			encoded, err := json.Marshal(converted)
			if err != nil {
				return nil, fmt.Errorf("could not encode value: %v", err)
			}
			return string(encoded), nil
		}),
	}
}

// jsonToValue maps decoded JSON onto runtime values. Objects become dicts,
// arrays become lists; encoding/json already delivers numbers as float64.
func jsonToValue(decoded interface{}) Value {
	switch v := decoded.(type) {
	case map[string]interface{}:
		pairs := make(map[Value]Value, len(v))
		for key, value := range v {
			pairs[key] = jsonToValue(value)
		}
		return NewDict(pairs)
	case []interface{}:
		elements := make([]Value, len(v))
		for i, value := range v {
			elements[i] = jsonToValue(value)
		}
		return NewList(elements)
	}
	return decoded
}

// valueToJSON maps runtime values onto encoding/json's shape. Dict keys are
// rendered as strings since JSON objects allow nothing else.
func valueToJSON(value Value) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool, float64, string:
		return v, nil
	case *List:
		elements := make([]interface{}, len(v.Elements))
		for i, elem := range v.Elements {
			converted, err := valueToJSON(elem)
			if err != nil {
				return nil, err
			}
			elements[i] = converted
		}
		return elements, nil
	case *Dict:
		object := make(map[string]interface{}, len(v.Pairs))
		for key, val := range v.Pairs {
			converted, err := valueToJSON(val)
			if err != nil {
				return nil, err
			}
			object[keyString(key)] = converted
		}
		return object, nil
	}
	return nil, fmt.Errorf("cannot encode %s as JSON", TypeName(value))
}
