// Package rowpool bounds the scratch memory of a windowed stencil step.
//
// Each worker owns Depth row slots. A slot holds the new generation of one
// row until every row that reads that row's previous value has finished;
// the last such read copies the slot into the main grid and frees it. Live
// scratch storage is Workers*Depth*Width cells no matter how many rows the
// grid has.
package rowpool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"meshstep/internal/core"
)

var (
	// ErrAllocation reports that the scratch pool could not be sized.
	ErrAllocation = errors.New("row slot pool allocation failed")
	// ErrProtocol reports a read or flush that breaks the slot lifecycle.
	ErrProtocol = errors.New("row slot protocol violation")
)

const free = -1

// Config sizes a Pool.
type Config struct {
	Workers int
	Depth   int
	// Width is the number of cells in one row.
	Width int
	// Rows is the number of rows in the main grid.
	Rows int
	// Reach is the largest row offset a stencil reads.
	Reach int
	// MaxCells caps the scratch allocation; zero means no cap.
	MaxCells int
}

// FlushFunc receives a finished row. It must copy cells before returning.
type FlushFunc func(row int, cells []core.Cell)

type slot struct {
	row   int
	owner int
	cells []core.Cell
}

// Pool is the set of row slots shared by the workers of one engine.
type Pool struct {
	cfg   Config
	flush FlushFunc

	slots []slot
	arena []core.Cell

	mu        sync.Mutex
	sems      []*semaphore.Weighted
	freeIDs   [][]int
	occupied  []int
	highWater []int

	rowSlot []int32
	pending []atomic.Int32
	flushes []atomic.Int32
	flushed atomic.Int64
}

// Stats reports per-step bookkeeping of a Pool.
type Stats struct {
	// Flushes counts, per row, how often it was written back this step.
	Flushes []int
	// HighWater is the most slots each worker held at once.
	HighWater []int
	// FlushedRows is the number of rows written back this step.
	FlushedRows int
	// ScratchCells is the fixed scratch allocation.
	ScratchCells int
}

// New allocates every slot up front. It fails without allocating anything
// when the configuration is unusable or the arena would exceed MaxCells.
func New(cfg Config, flush FlushFunc) (*Pool, error) {
	if cfg.Workers <= 0 || cfg.Depth <= 0 || cfg.Width <= 0 || cfg.Rows <= 0 || cfg.Reach < 0 {
		return nil, fmt.Errorf("%w: workers=%d depth=%d width=%d rows=%d reach=%d",
			ErrAllocation, cfg.Workers, cfg.Depth, cfg.Width, cfg.Rows, cfg.Reach)
	}
	if flush == nil {
		return nil, fmt.Errorf("%w: nil flush function", ErrAllocation)
	}
	count := cfg.Workers * cfg.Depth
	if count/cfg.Workers != cfg.Depth || cfg.Width > math.MaxInt/count {
		return nil, fmt.Errorf("%w: %d slots of %d cells overflows", ErrAllocation, count, cfg.Width)
	}
	total := count * cfg.Width
	if cfg.MaxCells > 0 && total > cfg.MaxCells {
		return nil, fmt.Errorf("%w: %d scratch cells exceeds limit %d", ErrAllocation, total, cfg.MaxCells)
	}

	p := &Pool{
		cfg:       cfg,
		flush:     flush,
		slots:     make([]slot, count),
		arena:     make([]core.Cell, total),
		sems:      make([]*semaphore.Weighted, cfg.Workers),
		freeIDs:   make([][]int, cfg.Workers),
		occupied:  make([]int, cfg.Workers),
		highWater: make([]int, cfg.Workers),
		rowSlot:   make([]int32, cfg.Rows),
		pending:   make([]atomic.Int32, cfg.Rows),
		flushes:   make([]atomic.Int32, cfg.Rows),
	}
	for id := range p.slots {
		base := id * cfg.Width
		p.slots[id] = slot{
			row:   free,
			owner: id / cfg.Depth,
			cells: p.arena[base : base+cfg.Width : base+cfg.Width],
		}
	}
	p.Reset()
	return p, nil
}

// Depth returns the number of slots per worker.
func (p *Pool) Depth() int { return p.cfg.Depth }

// ScratchCells returns the size of the slot arena in cells.
func (p *Pool) ScratchCells() int { return len(p.arena) }

// Reset frees every slot and arms the read counters for a new step. A row's
// counter is the number of rows within the stencil's reach of it, not a
// function of the window depth. It must not run while workers hold slots.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for w := 0; w < p.cfg.Workers; w++ {
		p.sems[w] = semaphore.NewWeighted(int64(p.cfg.Depth))
		ids := p.freeIDs[w][:0]
		for d := p.cfg.Depth - 1; d >= 0; d-- {
			ids = append(ids, w*p.cfg.Depth+d)
		}
		p.freeIDs[w] = ids
		p.occupied[w] = 0
		p.highWater[w] = 0
	}
	for id := range p.slots {
		p.slots[id].row = free
	}
	for r := 0; r < p.cfg.Rows; r++ {
		p.rowSlot[r] = free
		p.pending[r].Store(int32(p.readers(r)))
		p.flushes[r].Store(0)
	}
	p.flushed.Store(0)
}

// readers is the number of rows whose stencil touches row r, r included.
func (p *Pool) readers(r int) int {
	lo := max(0, r-p.cfg.Reach)
	hi := min(p.cfg.Rows-1, r+p.cfg.Reach)
	return hi - lo + 1
}

// Acquire hands worker a free slot for row, blocking until one of the
// worker's slots is flushed or ctx is done. The returned cells belong to
// the caller until the row is flushed.
func (p *Pool) Acquire(ctx context.Context, worker, row int) ([]core.Cell, error) {
	if worker < 0 || worker >= p.cfg.Workers || row < 0 || row >= p.cfg.Rows {
		return nil, fmt.Errorf("%w: acquire worker=%d row=%d", ErrProtocol, worker, row)
	}
	p.mu.Lock()
	sem := p.sems[worker]
	p.mu.Unlock()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rowSlot[row] != free || p.flushes[row].Load() != 0 {
		sem.Release(1)
		return nil, fmt.Errorf("%w: row %d already in flight", ErrProtocol, row)
	}
	ids := p.freeIDs[worker]
	id := ids[len(ids)-1]
	p.freeIDs[worker] = ids[:len(ids)-1]
	p.slots[id].row = row
	p.rowSlot[row] = int32(id)
	p.occupied[worker]++
	if p.occupied[worker] > p.highWater[worker] {
		p.highWater[worker] = p.occupied[worker]
	}
	return p.slots[id].cells, nil
}

// MarkRead records that one reader of row has finished with its previous
// value. The read that drains the counter writes the slot back through the
// flush function and returns the slot to its owner.
func (p *Pool) MarkRead(row int) error {
	if row < 0 || row >= p.cfg.Rows {
		return fmt.Errorf("%w: mark read of row %d", ErrProtocol, row)
	}
	left := p.pending[row].Add(-1)
	switch {
	case left > 0:
		return nil
	case left < 0:
		return fmt.Errorf("%w: row %d read more often than it has readers", ErrProtocol, row)
	}

	p.mu.Lock()
	id := p.rowSlot[row]
	p.mu.Unlock()
	if id == free {
		return fmt.Errorf("%w: row %d drained before it was computed", ErrProtocol, row)
	}
	s := &p.slots[id]
	p.flush(row, s.cells)
	p.flushes[row].Add(1)
	p.flushed.Add(1)

	p.mu.Lock()
	s.row = free
	p.rowSlot[row] = free
	p.freeIDs[s.owner] = append(p.freeIDs[s.owner], int(id))
	p.occupied[s.owner]--
	sem := p.sems[s.owner]
	p.mu.Unlock()
	sem.Release(1)
	return nil
}

// Occupied returns how many slots worker currently holds.
func (p *Pool) Occupied(worker int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.occupied[worker]
}

// Stats snapshots the bookkeeping of the current step.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	hw := append([]int(nil), p.highWater...)
	p.mu.Unlock()
	fl := make([]int, p.cfg.Rows)
	for r := range fl {
		fl[r] = int(p.flushes[r].Load())
	}
	return Stats{
		Flushes:      fl,
		HighWater:    hw,
		FlushedRows:  int(p.flushed.Load()),
		ScratchCells: len(p.arena),
	}
}
