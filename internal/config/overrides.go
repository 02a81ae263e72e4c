package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KVList collects repeatable key=value flags.
type KVList []string

func (l *KVList) String() string {
	return strings.Join(*l, ",")
}

func (l *KVList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("override %q is not key=value", value)
	}
	*l = append(*l, value)
	return nil
}

// Map splits the list into a key/value map. Later entries win.
func (l KVList) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, kv := range l {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

// FromMap populates a config from defaults plus a string map keyed by the
// YAML field names, nested keys joined with dots (rules.dt, init.name).
func FromMap(kv map[string]string) (Config, error) {
	c := DefaultConfig()
	if err := c.Apply(kv); err != nil {
		return c, err
	}
	return c, nil
}

// Apply sets each key of kv on c. Unknown keys and unparsable values are errors.
func (c *Config) Apply(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.set(k, kv[k]); err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, k, kv[k], err)
		}
	}
	return nil
}

func (c *Config) set(key, v string) error {
	switch key {
	case "x_size", "x":
		return setInt(&c.XSize, v)
	case "y_size", "y":
		return setInt(&c.YSize, v)
	case "topology":
		c.Topology = v
	case "window_depth", "window":
		return setInt(&c.WindowDepth, v)
	case "workers":
		return setInt(&c.Workers, v)
	case "assignment":
		c.Assignment = v
	case "max_cells":
		return setInt(&c.MaxCells, v)
	case "stop_time", "stop":
		return setFloat(&c.StopTime, v)
	case "check_finite":
		return setBool(&c.CheckFinite, v)
	case "log_level":
		c.LogLevel = v

	case "rules.gather":
		return setBool(&c.Rules.Gather, v)
	case "rules.scatter":
		return setBool(&c.Rules.Scatter, v)
	case "rules.diffusion":
		return setBool(&c.Rules.Diffusion, v)
	case "rules.coupled":
		return setBool(&c.Rules.Coupled, v)
	case "rules.total":
		return setBool(&c.Rules.Total, v)
	case "rules.dt", "dt":
		return setFloat(&c.Rules.DT, v)
	case "rules.c", "c":
		return setFloat(&c.Rules.C, v)
	case "rules.neighbors":
		return setInt(&c.Rules.Neighbors, v)

	case "init.name", "init":
		c.Init.Name = v
	case "init.value":
		return setFloat(&c.Init.Value, v)
	case "init.peak":
		return setFloat(&c.Init.Peak, v)
	case "init.spike_x":
		return setInt(&c.Init.SpikeX, v)
	case "init.spike_y":
		return setInt(&c.Init.SpikeY, v)
	case "init.seed", "seed":
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Init.Seed = n
	case "init.lo":
		return setFloat(&c.Init.Lo, v)
	case "init.hi":
		return setFloat(&c.Init.Hi, v)
	case "init.ramp_base":
		return setFloat(&c.Init.RampBase, v)
	case "init.ramp_step":
		return setFloat(&c.Init.RampStep, v)

	case "output.dir":
		c.Output.Dir = v
	case "output.print_before":
		return setBool(&c.Output.PrintBefore, v)
	case "output.print_after":
		return setBool(&c.Output.PrintAfter, v)
	case "output.dump_every":
		return setInt(&c.Output.DumpEvery, v)
	case "output.stats_every":
		return setInt(&c.Output.StatsEvery, v)
	case "output.precision":
		return setInt(&c.Output.Precision, v)
	default:
		return errors.New("unknown key")
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
