package deform

import "fmt"

// Channels is the number of float channels per texel (RGBA float format).
const Channels = 4

// Target is a 2D displacement surface owned by a Backend.
type Target interface {
	Size() (width, height int)
}

// Texture is the CPU-resident dense grid used by the CPU backend.
// Pix holds RGBA float32 texels row by row; all channels carry the same value.
type Texture struct {
	Width  int
	Height int
	Pix    []float32
}

// NewTexture allocates a zeroed texture.
func NewTexture(width, height int) (*Texture, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("texture size %dx%d: %w", width, height, ErrMissingResource)
	}
	return &Texture{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*Channels),
	}, nil
}

// Size returns the texture dimensions.
func (t *Texture) Size() (int, int) {
	return t.Width, t.Height
}

// At returns the value of the first channel at (x, y).
func (t *Texture) At(x, y int) float32 {
	return t.Pix[(y*t.Width+x)*Channels]
}

// Texel returns all channels at (x, y).
func (t *Texture) Texel(x, y int) [Channels]float32 {
	i := (y*t.Width + x) * Channels
	return [Channels]float32{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

// Set writes v into every channel at (x, y).
func (t *Texture) Set(x, y int, v float32) {
	i := (y*t.Width + x) * Channels
	t.Pix[i] = v
	t.Pix[i+1] = v
	t.Pix[i+2] = v
	t.Pix[i+3] = v
}

// Fill writes v into every channel of every texel.
func (t *Texture) Fill(v float32) {
	for i := range t.Pix {
		t.Pix[i] = v
	}
}

// CopyFrom copies src into t. Both must have the same size.
func (t *Texture) CopyFrom(src *Texture) error {
	if src.Width != t.Width || src.Height != t.Height {
		return fmt.Errorf("copy %dx%d into %dx%d: %w", src.Width, src.Height, t.Width, t.Height, ErrFormatMismatch)
	}
	copy(t.Pix, src.Pix)
	return nil
}

// Clone returns a deep copy.
func (t *Texture) Clone() *Texture {
	c := &Texture{Width: t.Width, Height: t.Height, Pix: make([]float32, len(t.Pix))}
	copy(c.Pix, t.Pix)
	return c
}

// Equal reports whether two textures have identical size and contents.
func (t *Texture) Equal(o *Texture) bool {
	if t.Width != o.Width || t.Height != o.Height {
		return false
	}
	for i := range t.Pix {
		if t.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
