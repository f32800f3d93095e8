package surface

import "github.com/solport/solport/wire"

// Frame is the on-screen box of the embedded surface. Unset axes carry no
// constraint; the embedder decides what that means for its rendering.
type Frame struct {
	Top    wire.Length
	Left   wire.Length
	Right  wire.Length
	Bottom wire.Length
	Width  wire.Length
	Height wire.Length
}

// Collapsed is the near-invisible box used while the surface is active but
// not asking for the user's attention: a 2×2 px square pinned to the
// bottom-right corner.
func Collapsed() Frame {
	return Frame{
		Bottom: wire.Px(0),
		Right:  wire.Px(0),
		Width:  wire.Px(2),
		Height: wire.Px(2),
	}
}

// Expanded is the full-viewport overlay used while the surface needs the
// user's full attention, such as during an approval prompt.
func Expanded() Frame {
	return Frame{
		Top:    wire.Px(0),
		Left:   wire.Px(0),
		Right:  wire.Px(0),
		Bottom: wire.Px(0),
		Width:  wire.Literal("100%"),
		Height: wire.Literal("100%"),
	}
}

// Apply overlays the provided coordinates on f, axis by axis. Axes absent
// from c keep their current value.
func (f Frame) Apply(c wire.Coordinates) Frame {
	if c.Top != nil {
		f.Top = *c.Top
	}
	if c.Left != nil {
		f.Left = *c.Left
	}
	if c.Right != nil {
		f.Right = *c.Right
	}
	if c.Bottom != nil {
		f.Bottom = *c.Bottom
	}
	if c.Width != nil {
		f.Width = *c.Width
	}
	if c.Height != nil {
		f.Height = *c.Height
	}
	return f
}
