package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"coleval/expr"
	"coleval/trace"
	"coleval/vectorized"
)

// Program is a built plan: one evaluator per node, run in node order. A
// Program is immutable and may evaluate any number of batches concurrently;
// every pass gets its own WorkArea.
type Program struct {
	inputSchema  *vectorized.Schema
	outputSchema *vectorized.Schema
	evaluators   []expr.Evaluator
	bindings     [][]expr.ValueRef
	outputs      []Output
	live         *roaring.Bitmap
	order        []uint32
	pool         *expr.WorkAreaPool
}

// idleWorkAreas bounds how many work areas a Program keeps between passes.
const idleWorkAreas = 16

// InputSchema returns the schema batches must have
func (p *Program) InputSchema() *vectorized.Schema { return p.inputSchema }

// OutputSchema returns the schema of evaluated batches
func (p *Program) OutputSchema() *vectorized.Schema { return p.outputSchema }

// NumNodes returns the number of nodes, including unreachable ones
func (p *Program) NumNodes() int { return len(p.evaluators) }

// Bindings returns, per node, the handles its evaluator bound in order
func (p *Program) Bindings() [][]expr.ValueRef {
	out := make([][]expr.ValueRef, len(p.bindings))
	for i, b := range p.bindings {
		out[i] = append([]expr.ValueRef(nil), b...)
	}
	return out
}

// PoolStatistics reports work area reuse across passes
func (p *Program) PoolStatistics() (hits, misses int64, hitRate float64) {
	return p.pool.Statistics()
}

// LiveNodes returns the positions run on each pass, in evaluation order
func (p *Program) LiveNodes() []int {
	nodes := make([]int, len(p.order))
	for i, n := range p.order {
		nodes[i] = int(n)
	}
	return nodes
}

// Evaluate runs one pass over batch and returns the named outputs.
func (p *Program) Evaluate(batch *vectorized.VectorBatch) (*vectorized.VectorBatch, error) {
	if batch == nil {
		return nil, fmt.Errorf("%w: nil batch", ErrSchemaMismatch)
	}
	if err := checkSchema(p.inputSchema, batch.Schema); err != nil {
		return nil, err
	}
	tracer := trace.Get()

	wa := p.pool.Get(batch)
	defer p.pool.Put(wa)
	for _, pos := range p.order {
		node := int(pos)
		out, err := p.evaluators[node].Evaluate(wa)
		if err == nil {
			err = wa.Store(node, out)
		}
		if err != nil {
			if errors.Is(err, expr.ErrOrderingViolation) {
				tracer.Error(trace.ComponentExecution, "Ordering violation, aborting pass",
					trace.Context("node", node, "error", err.Error()))
			}
			return nil, err
		}
	}

	columns := make([]*vectorized.Vector, len(p.outputs))
	for i, out := range p.outputs {
		v, err := wa.Get(out.Node)
		if err != nil {
			return nil, err
		}
		columns[i] = v
	}

	tracer.Verbose(trace.ComponentExecution, "Evaluated batch",
		trace.Context("rows", batch.RowCount, "nodes", len(p.order)))
	return vectorized.NewVectorBatchFromColumns(p.outputSchema, columns)
}

// EvaluateBatches evaluates independent batches with up to parallelism
// concurrent passes. Results keep the order of batches. The first failure
// cancels passes that have not started.
func (p *Program) EvaluateBatches(ctx context.Context, batches []*vectorized.VectorBatch, parallelism int) ([]*vectorized.VectorBatch, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]*vectorized.VectorBatch, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, batch := range batches {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out, err := p.Evaluate(batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EvaluateRecord evaluates an arrow record and returns the outputs as a new
// record allocated from mem. The caller releases the result.
func (p *Program) EvaluateRecord(mem memory.Allocator, rec arrow.Record) (arrow.Record, error) {
	batch, err := vectorized.FromArrowRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("importing record: %w", err)
	}
	out, err := p.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	return vectorized.ToArrowRecord(mem, out)
}

func checkSchema(want, got *vectorized.Schema) error {
	if want == nil {
		return nil
	}
	if got == nil || len(got.Fields) != len(want.Fields) {
		return fmt.Errorf("%w: expected %d columns", ErrSchemaMismatch, len(want.Fields))
	}
	for i, f := range want.Fields {
		g := got.Fields[i]
		if g.Name != f.Name || g.DataType != f.DataType {
			return fmt.Errorf("%w: column %d is %s %s, expected %s %s", ErrSchemaMismatch, i, g.Name, g.DataType, f.Name, f.DataType)
		}
	}
	return nil
}
