package render

import "image/color"

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf)
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// HeatPalette maps shade 0 to deep blue, 128 to near white and 255 to red.
func HeatPalette() []color.RGBA {
	palette := make([]color.RGBA, 256)
	cold := color.RGBA{R: 20, G: 40, B: 140, A: 255}
	mid := color.RGBA{R: 235, G: 235, B: 225, A: 255}
	hot := color.RGBA{R: 190, G: 30, B: 20, A: 255}
	for i := range palette {
		if i < 128 {
			palette[i] = lerp(cold, mid, float64(i)/127)
			continue
		}
		palette[i] = lerp(mid, hot, float64(i-128)/127)
	}
	return palette
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
