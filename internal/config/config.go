// Package config assembles a run configuration from defaults, an optional
// YAML file, command-line flags and key=value overrides, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"meshstep/internal/core"
	"meshstep/internal/engine"
	"meshstep/internal/initial"
	"meshstep/internal/rules"
	"meshstep/internal/topology"
)

// ErrInvalid reports a configuration value that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full description of one run.
type Config struct {
	XSize       int    `yaml:"x_size"`
	YSize       int    `yaml:"y_size"`
	Topology    string `yaml:"topology"`
	WindowDepth int    `yaml:"window_depth"`
	Workers     int    `yaml:"workers"`
	Assignment  string `yaml:"assignment"`
	MaxCells    int    `yaml:"max_cells"`

	Rules RulesConfig `yaml:"rules"`
	Init  InitConfig  `yaml:"init"`

	StopTime float64 `yaml:"stop_time"`

	Output OutputConfig `yaml:"output"`

	CheckFinite bool   `yaml:"check_finite"`
	LogLevel    string `yaml:"log_level"`
}

// RulesConfig selects the active rules and their constants.
type RulesConfig struct {
	Gather    bool    `yaml:"gather"`
	Scatter   bool    `yaml:"scatter"`
	Diffusion bool    `yaml:"diffusion"`
	Coupled   bool    `yaml:"coupled"`
	Total     bool    `yaml:"total"`
	DT        float64 `yaml:"dt"`
	C         float64 `yaml:"c"`
	Neighbors int     `yaml:"neighbors"`
}

// InitConfig picks the starting values.
type InitConfig struct {
	Name     string  `yaml:"name"`
	Value    float64 `yaml:"value"`
	Peak     float64 `yaml:"peak"`
	SpikeX   int     `yaml:"spike_x"`
	SpikeY   int     `yaml:"spike_y"`
	Seed     int64   `yaml:"seed"`
	Lo       float64 `yaml:"lo"`
	Hi       float64 `yaml:"hi"`
	RampBase float64 `yaml:"ramp_base"`
	RampStep float64 `yaml:"ramp_step"`
}

// OutputConfig controls snapshot dumps.
type OutputConfig struct {
	// Dir receives one file per dump; empty or "-" writes to stdout.
	Dir         string `yaml:"dir"`
	PrintBefore bool   `yaml:"print_before"`
	PrintAfter  bool   `yaml:"print_after"`
	DumpEvery   int    `yaml:"dump_every"`
	StatsEvery  int    `yaml:"stats_every"`
	Precision   int    `yaml:"precision"`
}

// DefaultConfig returns the standard configuration: a 5×10 mesh, Moore
// neighborhood, one worker, one step of dt=1.
func DefaultConfig() Config {
	rs := rules.Default()
	opts := initial.DefaultOptions()
	return Config{
		XSize:      5,
		YSize:      10,
		Topology:   "moore9",
		Workers:    1,
		Assignment: "block",
		MaxCells:   core.DefaultMaxCells,
		Rules: RulesConfig{
			Gather:    rs.Gather,
			Scatter:   rs.Scatter,
			Diffusion: rs.Diffusion,
			Coupled:   rs.Coupled,
			Total:     rs.Total,
			DT:        rs.DT,
			C:         rs.C,
		},
		Init: InitConfig{
			Name:     "ramp",
			Value:    opts.Value,
			Peak:     opts.Peak,
			Seed:     opts.Seed,
			Lo:       opts.Lo,
			Hi:       opts.Hi,
			RampBase: opts.RampBase,
			RampStep: opts.RampStep,
		},
		StopTime: 1,
		Output: OutputConfig{
			Dir:         "-",
			PrintBefore: true,
			PrintAfter:  true,
			Precision:   2,
		},
		LogLevel: "info",
	}
}

// LoadFile decodes the YAML file at path over c. Keys absent from the file
// keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.XSize, "x", c.XSize, "grid rows (x size)")
	fs.IntVar(&c.YSize, "y", c.YSize, "grid columns (y size)")
	fs.StringVar(&c.Topology, "topology", c.Topology, "neighborhood: "+strings.Join(topology.Names(), ", "))
	fs.IntVar(&c.WindowDepth, "window", c.WindowDepth, "scratch rows per worker (0 = topology default)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "number of worker goroutines")
	fs.StringVar(&c.Assignment, "assign", c.Assignment, "row assignment: block or roundrobin")
	fs.IntVar(&c.MaxCells, "max-cells", c.MaxCells, "largest grid the run may allocate")

	fs.BoolVar(&c.Rules.Gather, "gather", c.Rules.Gather, "enable the gather-average rule")
	fs.BoolVar(&c.Rules.Scatter, "scatter", c.Rules.Scatter, "enable the scatter-redistribute rule")
	fs.BoolVar(&c.Rules.Diffusion, "diffusion", c.Rules.Diffusion, "enable the explicit-diffusion rule")
	fs.BoolVar(&c.Rules.Coupled, "coupled", c.Rules.Coupled, "enable the coupled rule")
	fs.BoolVar(&c.Rules.Total, "total", c.Rules.Total, "store avg+sum in the total field")
	fs.Float64Var(&c.Rules.DT, "dt", c.Rules.DT, "time step")
	fs.Float64Var(&c.Rules.C, "c", c.Rules.C, "damping constant")
	fs.IntVar(&c.Rules.Neighbors, "neighbors", c.Rules.Neighbors, "neighbor count the rules expect (0 = any)")

	fs.StringVar(&c.Init.Name, "init", c.Init.Name, "initializer: "+strings.Join(initial.Names(), ", "))
	fs.Float64Var(&c.Init.Value, "init-value", c.Init.Value, "uniform/spike background value")
	fs.Float64Var(&c.Init.Peak, "spike-peak", c.Init.Peak, "spike cell value")
	fs.IntVar(&c.Init.SpikeX, "spike-x", c.Init.SpikeX, "spike row")
	fs.IntVar(&c.Init.SpikeY, "spike-y", c.Init.SpikeY, "spike column")
	fs.Int64Var(&c.Init.Seed, "seed", c.Init.Seed, "random initializer seed")

	fs.Float64Var(&c.StopTime, "stop", c.StopTime, "simulated stop time")

	fs.StringVar(&c.Output.Dir, "out", c.Output.Dir, "snapshot directory (- for stdout)")
	fs.BoolVar(&c.Output.PrintBefore, "print-before", c.Output.PrintBefore, "dump the grid before stepping")
	fs.BoolVar(&c.Output.PrintAfter, "print-after", c.Output.PrintAfter, "dump the grid after the last step")
	fs.IntVar(&c.Output.DumpEvery, "dump-every", c.Output.DumpEvery, "dump every N steps (0 = off)")
	fs.IntVar(&c.Output.StatsEvery, "stats-every", c.Output.StatsEvery, "log field statistics every N steps (0 = off)")
	fs.IntVar(&c.Output.Precision, "precision", c.Output.Precision, "decimals in dumps")

	fs.BoolVar(&c.CheckFinite, "check-finite", c.CheckFinite, "fail when a field turns NaN or infinite")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Parse builds a Config from args: defaults, then the file named by -config,
// then the flags given on the command line, then each -set key=value.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	c := DefaultConfig()
	var path string
	var overrides KVList
	fs.StringVar(&path, "config", "", "YAML configuration file")
	fs.Var(&overrides, "set", "override in key=value form (repeatable)")
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return c, err
		}
		// Flags win over the file.
		overrides = overrides[:0]
		if err := fs.Parse(args); err != nil {
			return c, err
		}
	}
	if err := c.Apply(overrides.Map()); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate rejects unusable values.
func (c *Config) Validate() error {
	if c.XSize <= 0 || c.YSize <= 0 {
		return fmt.Errorf("%w: grid size %dx%d must be positive", ErrInvalid, c.XSize, c.YSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0", ErrInvalid)
	}
	if c.WindowDepth < 0 {
		return fmt.Errorf("%w: window depth must be >= 0", ErrInvalid)
	}
	if _, err := topology.Parse(c.Topology); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := engine.ParseAssignment(c.Assignment); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := initial.Lookup(c.Init.Name, c.initOptions()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Rules.DT <= 0 {
		return fmt.Errorf("%w: dt must be > 0", ErrInvalid)
	}
	if c.Rules.C == 0 {
		return fmt.Errorf("%w: c must be non-zero", ErrInvalid)
	}
	if c.StopTime < 0 {
		return fmt.Errorf("%w: stop time must be >= 0", ErrInvalid)
	}
	if c.Output.DumpEvery < 0 || c.Output.StatsEvery < 0 {
		return fmt.Errorf("%w: dump/stats intervals must be >= 0", ErrInvalid)
	}
	if c.Output.Precision < 0 {
		return fmt.Errorf("%w: precision must be >= 0, got %d", ErrInvalid, c.Output.Precision)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "-"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

// Steps returns how many steps the driver loop takes to reach StopTime,
// advancing a float clock by dt exactly as the loop does.
func (c *Config) Steps() int {
	n := 0
	for t := 0.0; t < c.StopTime; t += c.Rules.DT {
		n++
	}
	return n
}

// RuleSet converts the rule settings.
func (c *Config) RuleSet() rules.RuleSet {
	return rules.RuleSet{
		Gather:    c.Rules.Gather,
		Scatter:   c.Rules.Scatter,
		Diffusion: c.Rules.Diffusion,
		Coupled:   c.Rules.Coupled,
		Total:     c.Rules.Total,
		DT:        c.Rules.DT,
		C:         c.Rules.C,
		Neighbors: c.Rules.Neighbors,
	}
}

func (c *Config) initOptions() initial.Options {
	return initial.Options{
		Value:    c.Init.Value,
		Peak:     c.Init.Peak,
		SpikeX:   c.Init.SpikeX,
		SpikeY:   c.Init.SpikeY,
		Seed:     c.Init.Seed,
		Lo:       c.Init.Lo,
		Hi:       c.Init.Hi,
		RampBase: c.Init.RampBase,
		RampStep: c.Init.RampStep,
	}
}

// Initializer builds the configured initializer.
func (c *Config) Initializer() (initial.Initializer, error) {
	return initial.Lookup(c.Init.Name, c.initOptions())
}

// Engine converts the topology, rule and scheduling settings.
func (c *Config) Engine() (engine.Config, error) {
	topo, err := topology.Parse(c.Topology)
	if err != nil {
		return engine.Config{}, err
	}
	assign, err := engine.ParseAssignment(c.Assignment)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Topology:        topo,
		Rules:           c.RuleSet(),
		Workers:         c.Workers,
		WindowDepth:     c.WindowDepth,
		Assignment:      assign,
		MaxScratchCells: c.MaxCells,
	}, nil
}
