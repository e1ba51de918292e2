package plan

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"coleval/expr"
	"coleval/trace"
	"coleval/vectorized"
)

// Builder turns plan specs into programs using the operations of a registry.
type Builder struct {
	registry *expr.Registry
}

// NewBuilder creates a builder backed by registry
func NewBuilder(registry *expr.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build validates spec against the input schema and constructs an evaluator
// for every node. All construction errors are reported here, before any
// batch is evaluated. Nodes that no output depends on are built but not run.
func (b *Builder) Build(schema *vectorized.Schema, spec *Spec) (*Program, error) {
	tracer := trace.Get()

	if spec == nil || len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidPlan)
	}
	if len(spec.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrInvalidPlan)
	}
	seen := make(map[string]int, len(spec.Outputs))
	for i, out := range spec.Outputs {
		if out.Name == "" {
			return nil, fmt.Errorf("%w: output %d has no name", ErrInvalidPlan, i)
		}
		if prev, ok := seen[out.Name]; ok {
			return nil, fmt.Errorf("%w: outputs %d and %d are both named %q", ErrInvalidPlan, prev, i, out.Name)
		}
		seen[out.Name] = i
	}

	types := make([]vectorized.DataType, len(spec.Nodes))
	evaluators := make([]expr.Evaluator, len(spec.Nodes))
	bindings := make([][]expr.ValueRef, len(spec.Nodes))
	deps := make([][]int, len(spec.Nodes))

	for i, node := range spec.Nodes {
		resultType, err := vectorized.ParseDataType(node.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidPlan, i, err)
		}
		if !resultType.IsMaterialized() {
			return nil, fmt.Errorf("%w: node %d: type %s cannot be evaluated", ErrInvalidPlan, i, resultType)
		}
		types[i] = resultType

		args := make([]expr.Argument, len(node.Args))
		for j, arg := range node.Args {
			if arg.Ref != nil {
				ref := *arg.Ref
				if ref < 0 || ref >= i {
					return nil, &ForwardReferenceError{Node: i, Ref: ref}
				}
				args[j] = expr.RefArgument(ref, types[ref])
				deps[i] = append(deps[i], ref)
				continue
			}
			lt, err := arg.literalType()
			if err != nil {
				return nil, fmt.Errorf("%w: node %d argument %d: %v", ErrInvalidPlan, i, j, err)
			}
			args[j] = expr.LiteralArgument(lt, arg.Literal)
		}

		info := expr.NewStaticInfo(node.Op, i, args, resultType, schema)
		ev, err := b.registry.Create(info)
		if err != nil {
			tracer.Debug(trace.ComponentPlanning, "Evaluator construction failed",
				trace.Context("node", i, "op", node.Op, "error", err.Error()))
			return nil, err
		}
		evaluators[i] = ev
		bindings[i] = info.Bound()

		tracer.Debug(trace.ComponentPlanning, "Built evaluator",
			trace.Context("node", i, "op", node.Op, "type", resultType.String(), "args", len(args)))
	}

	outputFields := make([]*vectorized.Field, len(spec.Outputs))
	for i, out := range spec.Outputs {
		if out.Node < 0 || out.Node >= len(spec.Nodes) {
			return nil, fmt.Errorf("%w: output %q references node %d of %d", ErrInvalidPlan, out.Name, out.Node, len(spec.Nodes))
		}
		outputFields[i] = &vectorized.Field{Name: out.Name, DataType: types[out.Node], Nullable: true}
	}

	live := liveNodes(spec.Outputs, deps)
	if pruned := len(spec.Nodes) - int(live.GetCardinality()); pruned > 0 {
		tracer.Info(trace.ComponentPlanning, "Pruned unreachable nodes",
			trace.Context("nodes", len(spec.Nodes), "pruned", pruned))
	}

	return &Program{
		inputSchema:  schema,
		outputSchema: vectorized.NewSchema(outputFields...),
		evaluators:   evaluators,
		bindings:     bindings,
		outputs:      append([]Output(nil), spec.Outputs...),
		live:         live,
		order:        live.ToArray(),
		pool:         expr.NewWorkAreaPool(len(evaluators), idleWorkAreas),
	}, nil
}

// liveNodes marks every node an output transitively depends on. Walking
// positions downward visits each node after all of its readers.
func liveNodes(outputs []Output, deps [][]int) *roaring.Bitmap {
	live := roaring.New()
	for _, out := range outputs {
		live.Add(uint32(out.Node))
	}
	for i := len(deps) - 1; i >= 0; i-- {
		if !live.Contains(uint32(i)) {
			continue
		}
		for _, dep := range deps[i] {
			live.Add(uint32(dep))
		}
	}
	return live
}
