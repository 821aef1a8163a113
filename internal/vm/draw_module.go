package vm

import "fmt"

// DrawCommand is one record in the VM's draw list. The VM does no rendering;
// an embedding front end drains DrawCommands after each frame.
type DrawCommand struct {
	Command  string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Text     string
	Color    string
	FontSize float64
}

// box and text take a single options dictionary and fill in defaults for
// missing keys. Anything that is not a dictionary is ignored.
func (vm *VM) registerDrawModule() {
	vm.nativeModules["draw"] = map[string]Value{
		"box": native("box", 1, func(args []Value) (Value, error) {
			options, ok := args[0].(*Dict)
			if !ok {
				return nil, nil
			}
			vm.DrawCommands = append(vm.DrawCommands, DrawCommand{
				Command: "box",
				X:       optionNumber(options, "x", 0),
				Y:       optionNumber(options, "y", 0),
				Width:   optionNumber(options, "width", 10),
				Height:  optionNumber(options, "height", 5),
				Color:   optionString(options, "color", "#FFFFFF"),
			})
			return nil, nil
		}),
		"text": native("text", 1, func(args []Value) (Value, error) {
			options, ok := args[0].(*Dict)
			if !ok {
				return nil, nil
			}
			vm.DrawCommands = append(vm.DrawCommands, DrawCommand{
				Command:  "text",
				Text:     optionString(options, "text", ""),
				X:        optionNumber(options, "x", 0),
				Y:        optionNumber(options, "y", 0),
				FontSize: optionNumber(options, "fontSize", 12),
				Color:    optionString(options, "color", "#FFFFFF"),
			})
			return nil, nil
		}),
		"measure_text": native("measure_text", 2, func(args []Value) (Value, error) {
			text, ok1 := args[0].(string)
			size, ok2 := args[1].(float64)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("draw.measure_text expects (text, size)")
			}
			// Fixed-advance estimate; the front end owns real font metrics.
			return float64(len(text)) * size * 0.6, nil
		}),
	}
}

func optionNumber(options *Dict, key string, def float64) float64 {
	if n, ok := options.Pairs[key].(float64); ok {
		return n
	}
	return def
}

func optionString(options *Dict, key string, def string) string {
	if s, ok := options.Pairs[key].(string); ok {
		return s
	}
	return def
}

// ClearDrawCommands resets the draw list between frames.
func (vm *VM) ClearDrawCommands() {
	vm.DrawCommands = vm.DrawCommands[:0]
}
