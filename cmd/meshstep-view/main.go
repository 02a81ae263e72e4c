//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"meshstep/internal/app"
	"meshstep/internal/config"
	"meshstep/internal/sims/stencil"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	view := app.NewConfig()
	view.Bind(flag.CommandLine)
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sim, err := stencil.New(cfg)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	game := app.New(sim, view.Scale, cfg.Init.Seed, view.HUDWidth)
	size := sim.Size()

	ebiten.SetWindowTitle("meshstep: " + cfg.Topology)
	ebiten.SetTPS(view.TPS)
	ebiten.SetWindowSize(size.W*view.Scale+view.HUDWidth, size.H*view.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
