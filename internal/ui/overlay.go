//go:build ebiten

package ui

import (
	"image/color"

	"meshstep/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
)

type brushTarget interface {
	Paint(x, y int) error
}

// Overlay outlines the cell under the cursor and, while the left button is
// held, paints the spike value into the field being shown.
type Overlay struct {
	sim   core.Sim
	scale int
	pixel *ebiten.Image

	hover  bool
	hoverX int
	hoverY int
	err    error
}

// NewOverlay constructs an overlay for sim drawn at the given pixel scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	if scale <= 0 {
		scale = 1
	}
	o := &Overlay{sim: sim, scale: scale}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Err returns the last paint failure, if any.
func (o *Overlay) Err() error {
	if o == nil {
		return nil
	}
	return o.err
}

// Update tracks the cursor and applies the brush.
func (o *Overlay) Update() {
	if o == nil {
		return
	}
	px, py := ebiten.CursorPosition()
	o.hoverX, o.hoverY, o.hover = CellAt(px, py, o.scale, o.sim.Size())
	if !o.hover || !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		return
	}
	if target, ok := o.sim.(brushTarget); ok {
		o.err = target.Paint(o.hoverX, o.hoverY)
	}
}

// Draw outlines the hovered cell.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o == nil || !o.hover {
		return
	}
	const thickness = 1.0
	col := color.RGBA{R: 220, G: 220, B: 0, A: 220}
	s := float64(o.scale)
	left := float64(o.hoverY) * s
	top := float64(o.hoverX) * s
	o.drawRect(screen, left, top, s, thickness, col)
	o.drawRect(screen, left, top+s-thickness, s, thickness, col)
	o.drawRect(screen, left, top, thickness, s, col)
	o.drawRect(screen, left+s-thickness, top, thickness, s, col)
}

func (o *Overlay) drawRect(screen *ebiten.Image, x, y, w, h float64, col color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
