//go:build !ebiten

package ui

import "meshstep/internal/core"

// Overlay is a no-op placeholder used when the ebiten build tag is absent.
type Overlay struct{}

// NewOverlay returns nil in the headless build.
func NewOverlay(core.Sim, int) *Overlay { return nil }

// Err is always nil in the headless build.
func (o *Overlay) Err() error { return nil }

// Update is a no-op in headless builds.
func (o *Overlay) Update() {}

// Draw is a no-op placeholder.
func (o *Overlay) Draw(any) {}
