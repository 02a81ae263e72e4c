package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
)

// writeChart plots mean step time against worker count, one line per
// topology and assignment.
func writeChart(path string, results []scenarioResult) error {
	type key struct {
		topology string
		assign   string
	}
	lines := map[key][]scenarioResult{}
	for _, res := range results {
		k := key{res.scenario.topology, res.scenario.assignment.String()}
		lines[k] = append(lines[k], res)
	}
	keys := make([]key, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].topology != keys[j].topology {
			return keys[i].topology < keys[j].topology
		}
		return keys[i].assign < keys[j].assign
	})

	var series []chart.Series
	for _, k := range keys {
		pts := lines[k]
		sort.Slice(pts, func(i, j int) bool { return pts[i].scenario.workers < pts[j].scenario.workers })
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = float64(p.scenario.workers)
			ys[i] = float64(p.mean.Microseconds()) / 1000
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s/%s", k.topology, k.assign),
			XValues: xs,
			YValues: ys,
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("no results to plot")
	}

	graph := chart.Chart{
		Width:  800,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "workers",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "mean step (ms)",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}
