package input

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Binding maps one action to its physical inputs
type Binding struct {
	Action Action
	Codes  []Code
}

// LoadBindings reads a YAML binding file
//
//	bindings:
//	  left: [ArrowLeft, KeyA, PointerLeft]
//	  pause: [Space, Escape]
func LoadBindings(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings %s: %w", path, err)
	}
	bs, err := ParseBindings(data)
	if err != nil {
		return nil, fmt.Errorf("parse bindings %s: %w", path, err)
	}
	return bs, nil
}

// ParseBindings decodes YAML binding data, preserving document order
func ParseBindings(data []byte) ([]Binding, error) {
	var doc struct {
		Bindings yaml.Node `yaml:"bindings"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	node := doc.Bindings
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: bindings must be a mapping", node.Line)
	}

	out := make([]Binding, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value == "" {
			return nil, fmt.Errorf("line %d: empty action name", key.Line)
		}

		var codes []string
		if err := val.Decode(&codes); err != nil {
			return nil, fmt.Errorf("action %q: %w", key.Value, err)
		}

		b := Binding{Action: Action(key.Value), Codes: make([]Code, 0, len(codes))}
		for _, c := range codes {
			if c == "" {
				return nil, fmt.Errorf("action %q: empty input code", key.Value)
			}
			b.Codes = append(b.Codes, Code(c))
		}
		out = append(out, b)
	}
	return out, nil
}

// ApplyBindings binds each entry, replacing existing sets per action
func (d *Dispatcher) ApplyBindings(bs []Binding) {
	for _, b := range bs {
		d.Bind(b.Action, b.Codes...)
	}
}
