// Package engine advances a grid one generation at a time using a fixed pool
// of workers and a bounded window of scratch rows.
//
// Rows are statically assigned to workers. A worker computes each of its rows
// in increasing order into a slot from its own sub-pool, reading previous
// values from the main grid only, then marks every row it read. A row is
// written back once all rows within the stencil's reach have read it, so the
// main grid never shows a new value to a reader that still needs the old one.
// The lowest unfinished row can always get a slot when the window depth is at
// least reach+1, which keeps every step live for either assignment.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"meshstep/internal/core"
	"meshstep/internal/rowpool"
	"meshstep/internal/rules"
	"meshstep/internal/topology"
)

// ErrConfig reports an engine configuration rejected at setup.
var ErrConfig = errors.New("invalid engine configuration")

// Assignment selects how rows are partitioned across workers.
type Assignment int

const (
	// Block gives each worker one contiguous band of rows.
	Block Assignment = iota
	// RoundRobin deals rows to workers in turn.
	RoundRobin
)

func (a Assignment) String() string {
	switch a {
	case Block:
		return "block"
	case RoundRobin:
		return "roundrobin"
	}
	return fmt.Sprintf("assignment(%d)", int(a))
}

// ParseAssignment resolves an assignment label.
func ParseAssignment(name string) (Assignment, error) {
	switch name {
	case "block", "":
		return Block, nil
	case "roundrobin", "round-robin", "rr":
		return RoundRobin, nil
	}
	return 0, fmt.Errorf("%w: unknown assignment %q", ErrConfig, name)
}

// Config controls an Engine.
type Config struct {
	Topology topology.Topology
	Rules    rules.RuleSet

	Workers int
	// WindowDepth is the number of slots per worker; zero selects the
	// topology's default.
	WindowDepth int
	Assignment  Assignment

	// MaxScratchCells caps the slot arena; zero means no cap.
	MaxScratchCells int

	Logger *slog.Logger
}

// Engine owns a grid for the duration of a run.
type Engine struct {
	grid  *core.Grid
	cfg   Config
	reach int
	pool  *rowpool.Pool
	plan  [][]int
	evals []*rules.Evaluator
	steps int
	log   *slog.Logger
}

// New validates cfg against grid and allocates the scratch pool. Nothing is
// started; the first Step runs the first generation.
func New(grid *core.Grid, cfg Config) (*Engine, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrConfig)
	}
	if cfg.Topology == nil {
		return nil, fmt.Errorf("%w: no topology", ErrConfig)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrConfig, cfg.Workers)
	}
	if err := cfg.Rules.Validate(cfg.Topology); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if cfg.Assignment != Block && cfg.Assignment != RoundRobin {
		return nil, fmt.Errorf("%w: unknown assignment %d", ErrConfig, int(cfg.Assignment))
	}
	if cfg.WindowDepth == 0 {
		cfg.WindowDepth = cfg.Topology.WindowDepth()
	}
	reach, _ := cfg.Topology.Reach()
	if cfg.WindowDepth < reach+1 {
		return nil, fmt.Errorf("%w: window depth %d below %d required by %s",
			ErrConfig, cfg.WindowDepth, reach+1, cfg.Topology.Name())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{grid: grid, cfg: cfg, reach: reach, log: logger}
	pool, err := rowpool.New(rowpool.Config{
		Workers:  cfg.Workers,
		Depth:    cfg.WindowDepth,
		Width:    grid.YSize,
		Rows:     grid.XSize,
		Reach:    reach,
		MaxCells: cfg.MaxScratchCells,
	}, grid.SetRow)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	e.plan = Partition(grid.XSize, cfg.Workers, cfg.Assignment)
	e.evals = make([]*rules.Evaluator, cfg.Workers)
	for w := range e.evals {
		e.evals[w] = rules.NewEvaluator(cfg.Rules, cfg.Topology, grid)
	}

	logger.Debug("engine ready",
		"topology", cfg.Topology.Name(),
		"neighbors", cfg.Topology.Size(),
		"window_depth", cfg.WindowDepth,
		"workers", cfg.Workers,
		"assignment", cfg.Assignment.String(),
		"rows", grid.XSize,
		"cols", grid.YSize,
		"scratch_cells", pool.ScratchCells(),
	)
	return e, nil
}

// Partition assigns rows 0..rows-1 to workers. Each worker's rows are in
// increasing order.
func Partition(rows, workers int, a Assignment) [][]int {
	plan := make([][]int, workers)
	switch a {
	case RoundRobin:
		for r := 0; r < rows; r++ {
			plan[r%workers] = append(plan[r%workers], r)
		}
	default:
		per := rows / workers
		extra := rows % workers
		r := 0
		for w := 0; w < workers; w++ {
			n := per
			if w < extra {
				n++
			}
			for i := 0; i < n; i++ {
				plan[w] = append(plan[w], r)
				r++
			}
		}
	}
	return plan
}

// Grid returns the grid being advanced.
func (e *Engine) Grid() *core.Grid { return e.grid }

// Steps returns the number of completed generations.
func (e *Engine) Steps() int { return e.steps }

// WindowDepth returns the effective slots per worker.
func (e *Engine) WindowDepth() int { return e.cfg.WindowDepth }

// Stats reports the slot bookkeeping of the most recent step.
func (e *Engine) Stats() rowpool.Stats { return e.pool.Stats() }

// Step advances the grid by one generation. If it returns an error the grid
// may hold a mix of generations.
func (e *Engine) Step(ctx context.Context) error {
	e.pool.Reset()
	g, ctx := errgroup.WithContext(ctx)
	for w := range e.plan {
		if len(e.plan[w]) == 0 {
			continue
		}
		g.Go(func() error { return e.work(ctx, w) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("step %d: %w", e.steps+1, err)
	}
	e.steps++
	return nil
}

// Run performs n steps, stopping at the first error.
func (e *Engine) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := e.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) work(ctx context.Context, w int) error {
	ev := e.evals[w]
	last := e.grid.XSize - 1
	for _, x := range e.plan[w] {
		buf, err := e.pool.Acquire(ctx, w, x)
		if err != nil {
			return fmt.Errorf("worker %d row %d: %w", w, x, err)
		}
		ev.Row(x, buf)
		for q := max(0, x-e.reach); q <= min(last, x+e.reach); q++ {
			if err := e.pool.MarkRead(q); err != nil {
				return fmt.Errorf("worker %d row %d: %w", w, x, err)
			}
		}
	}
	return nil
}
