package expr

import (
	"sync"

	"coleval/vectorized"
)

// WorkAreaPool recycles work areas of one plan size across passes. A work
// area handed out by Get belongs to the caller until it is returned with Put.
type WorkAreaPool struct {
	mu       sync.Mutex
	free     []*WorkArea
	numNodes int
	maxSize  int
	hits     int64
	misses   int64
}

// NewWorkAreaPool creates a pool for plans of numNodes nodes that keeps at
// most maxSize idle work areas.
func NewWorkAreaPool(numNodes, maxSize int) *WorkAreaPool {
	return &WorkAreaPool{
		free:     make([]*WorkArea, 0, maxSize),
		numNodes: numNodes,
		maxSize:  maxSize,
	}
}

// Get returns an empty work area bound to input.
func (p *WorkAreaPool) Get(input *vectorized.VectorBatch) *WorkArea {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		wa := p.free[n-1]
		p.free = p.free[:n-1]
		p.hits++
		p.mu.Unlock()
		wa.Reset(input)
		return wa
	}
	p.misses++
	p.mu.Unlock()
	return NewWorkArea(input, p.numNodes)
}

// Put returns wa to the pool. Its slots are cleared so the vectors it held
// are not retained.
func (p *WorkAreaPool) Put(wa *WorkArea) {
	if wa == nil || wa.Len() != p.numNodes {
		return
	}
	wa.Reset(nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) < p.maxSize {
		p.free = append(p.free, wa)
	}
}

// Statistics returns pool hits, misses and the hit rate.
func (p *WorkAreaPool) Statistics() (hits, misses int64, hitRate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.hits + p.misses
	if total > 0 {
		hitRate = float64(p.hits) / float64(total)
	}
	return p.hits, p.misses, hitRate
}
