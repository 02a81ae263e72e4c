package core

// Size describes the dimensions of a rendered simulation view.
type Size struct {
	W int
	H int
}

// Sim defines the contract the viewer drives. Cells returns one shade byte
// per pixel in row-major W×H order.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}
