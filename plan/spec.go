package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"coleval/vectorized"
)

// Arg is one argument of a plan node: a reference to an earlier node, or a
// literal. Literal types are inferred from the Go value unless Type is set;
// a null literal always needs Type.
type Arg struct {
	Ref     *int        `yaml:"ref,omitempty"`
	Literal interface{} `yaml:"literal,omitempty"`
	Type    string      `yaml:"type,omitempty"`
}

// Ref returns an argument reading the node at index.
func Ref(index int) Arg { return Arg{Ref: &index} }

// Lit returns a literal argument with an inferred type.
func Lit(value interface{}) Arg { return Arg{Literal: value} }

// TypedLit returns a literal argument of an explicit type.
func TypedLit(t vectorized.DataType, value interface{}) Arg {
	return Arg{Literal: value, Type: t.String()}
}

// Node is one operation in evaluation order.
type Node struct {
	Op   string `yaml:"op"`
	Type string `yaml:"type"`
	Args []Arg  `yaml:"args,omitempty"`
}

// Output names a node whose result is returned from each pass.
type Output struct {
	Name string `yaml:"name"`
	Node int    `yaml:"node"`
}

// Spec is a logical plan: nodes in topological order plus named outputs.
type Spec struct {
	Nodes   []Node   `yaml:"nodes"`
	Outputs []Output `yaml:"outputs"`
}

// Parse decodes a YAML plan.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &spec, nil
}

// LoadFile reads a YAML plan from path.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}
	return Parse(data)
}

// literalType returns the declared or inferred type of a literal argument.
func (a Arg) literalType() (vectorized.DataType, error) {
	if a.Type != "" {
		return vectorized.ParseDataType(a.Type)
	}
	switch a.Literal.(type) {
	case string:
		return vectorized.STRING, nil
	case int, int64:
		return vectorized.INT64, nil
	case int32:
		return vectorized.INT32, nil
	case float64, float32:
		return vectorized.FLOAT64, nil
	case bool:
		return vectorized.BOOLEAN, nil
	case nil:
		return 0, fmt.Errorf("null literal needs an explicit type")
	default:
		return 0, fmt.Errorf("cannot infer type of literal %v (%T)", a.Literal, a.Literal)
	}
}
