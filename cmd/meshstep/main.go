package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"meshstep/internal/config"
	"meshstep/internal/core"
	"meshstep/internal/diag"
	"meshstep/internal/engine"
	"meshstep/internal/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "meshstep:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("meshstep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})).
		With("run_id", runID)

	logger.Info("init_mesh...", "x_size", cfg.XSize, "y_size", cfg.YSize, "init", cfg.Init.Name)
	grid, err := core.NewGridLimit(cfg.XSize, cfg.YSize, cfg.MaxCells)
	if err != nil {
		return err
	}
	ini, err := cfg.Initializer()
	if err != nil {
		return err
	}
	if err := ini.Fill(grid); err != nil {
		return fmt.Errorf("initialize grid: %w", err)
	}

	ecfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	ecfg.Logger = logger
	eng, err := engine.New(grid, ecfg)
	if err != nil {
		return err
	}

	fields := cfg.RuleSet().Active()
	opts := snapshot.Options{Width: 10, Precision: cfg.Output.Precision}
	dump := func(step int) error {
		if cfg.Output.Dir == "-" {
			return snapshot.Write(stdout, grid, fields, opts)
		}
		path, err := snapshot.WriteFile(cfg.Output.Dir, runID, step, grid, fields, opts)
		if err != nil {
			return err
		}
		logger.Debug("snapshot written", "step", step, "path", path)
		return nil
	}

	if cfg.Output.PrintBefore {
		logger.Info("print_mesh...", "step", 0)
		if err := dump(0); err != nil {
			return err
		}
	}

	total := cfg.Steps()
	logger.Info("do_timestep...",
		"steps", total,
		"dt", cfg.Rules.DT,
		"stop", cfg.StopTime,
		"topology", cfg.Topology,
		"workers", cfg.Workers,
		"window_depth", eng.WindowDepth(),
	)
	sw := core.NewStopwatch()
	step := 0
	for t := 0.0; t < cfg.StopTime; t += cfg.Rules.DT {
		sw.Start()
		err := eng.Step(ctx)
		sw.Stop()
		if err != nil {
			return err
		}
		step++
		if cfg.CheckFinite {
			if err := diag.CheckFinite(grid, fields); err != nil {
				return fmt.Errorf("after step %d (t=%g): %w", step, t+cfg.Rules.DT, err)
			}
		}
		if n := cfg.Output.StatsEvery; n > 0 && step%n == 0 {
			logStats(logger, step, grid, fields)
		}
		if n := cfg.Output.DumpEvery; n > 0 && step%n == 0 && step != total {
			if err := dump(step); err != nil {
				return err
			}
		}
	}
	logger.Info("timing",
		"steps", sw.Laps(),
		"total", sw.Total(),
		"mean", sw.Mean(),
		"min", sw.Min(),
		"max", sw.Max(),
	)

	if cfg.Output.PrintAfter {
		logger.Info("print_mesh...", "step", step)
		if err := dump(step); err != nil {
			return err
		}
	}
	return nil
}

func logStats(logger *slog.Logger, step int, grid *core.Grid, fields []core.Field) {
	for _, st := range diag.Summarize(grid, fields) {
		logger.Info("field stats",
			"step", step,
			"field", st.Field.String(),
			"sum", st.Sum,
			"min", st.Min,
			"max", st.Max,
			"mean", st.Mean,
		)
	}
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
