package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"meshstep/internal/engine"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Steps() != 1 {
		t.Fatalf("default run takes %d steps, want 1", c.Steps())
	}
	ecfg, err := c.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if ecfg.Topology.Name() != "moore9" || ecfg.Workers != 1 || ecfg.Assignment != engine.Block {
		t.Fatalf("engine config = %+v", ecfg)
	}
	ini, err := c.Initializer()
	if err != nil || ini.Name() != "ramp" {
		t.Fatalf("initializer = %v, %v", ini, err)
	}
}

func TestParseFlags(t *testing.T) {
	c, err := Parse(newFlagSet(), []string{"-x", "8", "-y", "3", "-workers", "4", "-assign", "rr", "-scatter=false", "-dt", "0.5"})
	if err != nil {
		t.Fatal(err)
	}
	if c.XSize != 8 || c.YSize != 3 || c.Workers != 4 || c.Assignment != "rr" {
		t.Fatalf("config = %+v", c)
	}
	if c.Rules.Scatter || !c.Rules.Gather || c.Rules.DT != 0.5 {
		t.Fatalf("rules = %+v", c.Rules)
	}
	if c.Steps() != 2 {
		t.Fatalf("Steps() = %d, want 2", c.Steps())
	}
}

func TestParsePrecedence(t *testing.T) {
	path := writeYAML(t, `
x_size: 20
y_size: 30
workers: 3
rules:
  dt: 0.25
  coupled: false
init:
  name: uniform
  value: 7
output:
  dir: snaps
`)
	c, err := Parse(newFlagSet(), []string{"-config", path, "-workers", "6", "-set", "y_size=40", "-set", "init.value=9"})
	if err != nil {
		t.Fatal(err)
	}
	if c.XSize != 20 {
		t.Fatalf("file value lost: x_size = %d", c.XSize)
	}
	if c.Workers != 6 {
		t.Fatalf("flag did not win over file: workers = %d", c.Workers)
	}
	if c.YSize != 40 || c.Init.Value != 9 {
		t.Fatalf("overrides not applied: y=%d value=%v", c.YSize, c.Init.Value)
	}
	if c.Rules.Coupled || !c.Rules.Gather || c.Rules.DT != 0.25 {
		t.Fatalf("rules = %+v", c.Rules)
	}
	if c.Init.Name != "uniform" || c.Output.Dir != "snaps" {
		t.Fatalf("init=%q dir=%q", c.Init.Name, c.Output.Dir)
	}
	if c.Topology != "moore9" {
		t.Fatalf("default topology lost: %q", c.Topology)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string][]string{
		"missing file":   {"-config", filepath.Join(t.TempDir(), "nope.yaml")},
		"bad override":   {"-set", "workers"},
		"unknown key":    {"-set", "colour=red"},
		"bad value":      {"-set", "workers=many"},
		"bad topology":   {"-topology", "hex7"},
		"bad assignment": {"-assign", "random"},
		"bad init":       {"-init", "noise"},
		"zero workers":   {"-workers", "0"},
		"negative dt":    {"-dt", "-1"},
		"negative prec":  {"-precision", "-1"},
	}
	for name, args := range cases {
		if _, err := Parse(newFlagSet(), args); err == nil {
			t.Fatalf("%s: Parse(%v) succeeded", name, args)
		}
	}
	_, err := Parse(newFlagSet(), []string{"-set", "colour=red"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown key err = %v, want ErrInvalid", err)
	}
}

func TestValidateRejectsNegativePrecision(t *testing.T) {
	c := DefaultConfig()
	c.Output.Precision = -3
	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if c.Output.Precision != -3 {
		t.Fatalf("precision rewritten to %d", c.Output.Precision)
	}
}

func TestFromMap(t *testing.T) {
	c, err := FromMap(map[string]string{
		"x":                   "12",
		"topology":            "cross5",
		"rules.total":         "true",
		"init":                "spike",
		"init.spike_x":        "3",
		"seed":                "99",
		"output.stats_every":  "5",
		"output.print_before": "false",
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.XSize != 12 || c.Topology != "cross5" || !c.Rules.Total {
		t.Fatalf("config = %+v", c)
	}
	if c.Init.Name != "spike" || c.Init.SpikeX != 3 || c.Init.Seed != 99 {
		t.Fatalf("init = %+v", c.Init)
	}
	if c.Output.StatsEvery != 5 || c.Output.PrintBefore {
		t.Fatalf("output = %+v", c.Output)
	}
	if _, err := FromMap(map[string]string{"rules.dt": "fast"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestKVList(t *testing.T) {
	var l KVList
	for _, kv := range []string{"a=1", "b = 2", "a=3"} {
		if err := l.Set(kv); err != nil {
			t.Fatal(err)
		}
	}
	m := l.Map()
	if m["a"] != "3" || m["b"] != "2" || len(m) != 2 {
		t.Fatalf("Map() = %v", m)
	}
	if err := l.Set("novalue"); err == nil {
		t.Fatal("Set accepted a value without '='")
	}
}

func TestStepsFollowsFloatClock(t *testing.T) {
	cases := []struct {
		stop, dt float64
		want     int
	}{
		{0, 1, 0},
		{1, 1, 1},
		{1, 0.25, 4},
		{2.5, 1, 3},
	}
	for _, tc := range cases {
		c := DefaultConfig()
		c.StopTime, c.Rules.DT = tc.stop, tc.dt
		if got := c.Steps(); got != tc.want {
			t.Fatalf("stop=%v dt=%v: Steps() = %d, want %d", tc.stop, tc.dt, got, tc.want)
		}
	}
}
