package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"meshstep/internal/core"
	"meshstep/internal/engine"
	"meshstep/internal/initial"
	"meshstep/internal/rules"
	"meshstep/internal/topology"
)

type scenario struct {
	topology   string
	workers    int
	assignment engine.Assignment
	window     int
}

func (s scenario) String() string {
	return fmt.Sprintf("topology=%s workers=%d assign=%s window=%d", s.topology, s.workers, s.assignment, s.window)
}

type scenarioResult struct {
	scenario scenario
	mean     time.Duration
	min      time.Duration
	max      time.Duration
	matches  bool
	scratch  int
}

func main() {
	xSize := flag.Int("x", 512, "grid rows")
	ySize := flag.Int("y", 512, "grid columns")
	steps := flag.Int("steps", 20, "steps per scenario")
	workerList := flag.String("workers", "1,2,4,8", "comma separated worker counts")
	topoList := flag.String("topologies", strings.Join(topology.Names(), ","), "comma separated topologies")
	assignList := flag.String("assign", "block,roundrobin", "comma separated assignments")
	window := flag.Int("window", 0, "window depth override (0 = topology default)")
	jobs := flag.Int("jobs", 1, "scenarios run concurrently")
	verify := flag.Bool("verify", true, "compare each scenario against the sequential reference")
	chartPath := flag.String("chart", "", "write a PNG of mean step time per worker count")
	seed := flag.Int64("seed", 7, "random initializer seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("run_id", uuid.NewString())

	workers, err := parseInts(*workerList)
	if err != nil {
		logger.Error("bad -workers", "err", err)
		os.Exit(2)
	}
	var sets []scenario
	for _, name := range splitList(*topoList) {
		if _, err := topology.Parse(name); err != nil {
			logger.Error("bad -topologies", "err", err)
			os.Exit(2)
		}
		for _, an := range splitList(*assignList) {
			a, err := engine.ParseAssignment(an)
			if err != nil {
				logger.Error("bad -assign", "err", err)
				os.Exit(2)
			}
			for _, w := range workers {
				sets = append(sets, scenario{topology: name, workers: w, assignment: a, window: *window})
			}
		}
	}

	base, err := core.NewGrid(*xSize, *ySize)
	if err != nil {
		logger.Error("allocate base grid", "err", err)
		os.Exit(1)
	}
	if err := (initial.Random{Seed: *seed, Lo: 1, Hi: 1000}).Fill(base); err != nil {
		logger.Error("initialize base grid", "err", err)
		os.Exit(1)
	}
	rs := rules.Default()
	rs.DT = 0.01

	references := map[string]*core.Grid{}
	if *verify {
		for _, name := range splitList(*topoList) {
			topo, _ := topology.Parse(name)
			ref := base.Clone()
			for i := 0; i < *steps; i++ {
				ref = engine.Reference(ref, topo, rs)
			}
			references[name] = ref
		}
	}

	logger.Info("sweeping", "scenarios", len(sets), "jobs", *jobs, "steps", *steps, "x", *xSize, "y", *ySize)

	queue := make(chan scenario)
	results := make(chan scenarioResult)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < max(1, *jobs); i++ {
		g.Go(func() error {
			for sc := range queue {
				res, err := runScenario(ctx, base, rs, sc, *steps, references[sc.topology])
				if err != nil {
					return fmt.Errorf("%s: %w", sc, err)
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		defer close(queue)
		for _, sc := range sets {
			select {
			case queue <- sc:
			case <-ctx.Done():
				return
			}
		}
	}()
	var runErr error
	go func() {
		runErr = g.Wait()
		close(results)
	}()

	start := time.Now()
	var all []scenarioResult
	for res := range results {
		all = append(all, res)
		if *verify && !res.matches {
			logger.Warn("scenario diverged from reference", "scenario", res.scenario.String())
		}
	}
	if runErr != nil {
		logger.Error("sweep failed", "err", runErr)
		os.Exit(1)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].mean < all[j].mean })
	fmt.Printf("Results (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	for i, res := range all {
		fmt.Printf("%2d) mean=%s min=%s max=%s scratch=%d match=%v %s\n",
			i+1, res.mean, res.min, res.max, res.scratch, res.matches, res.scenario)
	}

	if *chartPath != "" {
		if err := writeChart(*chartPath, all); err != nil {
			logger.Error("write chart", "err", err)
			os.Exit(1)
		}
		logger.Info("chart written", "path", *chartPath)
	}
}

func runScenario(ctx context.Context, base *core.Grid, rs rules.RuleSet, sc scenario, steps int, ref *core.Grid) (scenarioResult, error) {
	topo, err := topology.Parse(sc.topology)
	if err != nil {
		return scenarioResult{}, err
	}
	grid := base.Clone()
	eng, err := engine.New(grid, engine.Config{
		Topology:    topo,
		Rules:       rs,
		Workers:     sc.workers,
		WindowDepth: sc.window,
		Assignment:  sc.assignment,
		Logger:      slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
	if err != nil {
		return scenarioResult{}, err
	}
	sw := core.NewStopwatch()
	for i := 0; i < steps; i++ {
		sw.Start()
		err := eng.Step(ctx)
		sw.Stop()
		if err != nil {
			return scenarioResult{}, err
		}
	}
	res := scenarioResult{
		scenario: sc,
		mean:     sw.Mean(),
		min:      sw.Min(),
		max:      sw.Max(),
		scratch:  eng.Stats().ScratchCells,
	}
	if ref != nil {
		res.matches = slices.Equal(ref.Cells(), grid.Cells())
	}
	return res, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("worker count %d must be positive", n)
		}
		out = append(out, n)
	}
	return out, nil
}
