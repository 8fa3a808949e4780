package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/snowfield/internal/deform"
)

// Texture is an RGBA32F texture living on the GPU.
type Texture struct {
	id            uint32
	width, height int
}

// Size returns the texture dimensions.
func (t *Texture) Size() (int, int) {
	return t.width, t.height
}

// ID returns the GL texture name.
func (t *Texture) ID() uint32 {
	return t.id
}

func newTexture(width, height int) (*Texture, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("texture size %dx%d: %w", width, height, deform.ErrMissingResource)
	}
	t := &Texture{width: width, height: height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexStorage2D(gl.TEXTURE_2D, 1, gl.RGBA32F, int32(width), int32(height))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("allocating texture"); err != nil {
		t.delete()
		return nil, err
	}
	return t, nil
}

func (t *Texture) delete() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func asTexture(t deform.Target) (*Texture, error) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("gl backend got %T: %w", t, deform.ErrFormatMismatch)
	}
	if tex.id == 0 {
		return nil, fmt.Errorf("texture already deleted: %w", deform.ErrMissingResource)
	}
	return tex, nil
}

func copyTexture(dst, src *Texture) {
	gl.CopyImageSubData(
		src.id, gl.TEXTURE_2D, 0, 0, 0, 0,
		dst.id, gl.TEXTURE_2D, 0, 0, 0, 0,
		int32(src.width), int32(src.height), 1,
	)
}
