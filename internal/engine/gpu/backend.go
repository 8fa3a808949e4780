// Package gpu runs the stamp kernel as an OpenGL 4.3 compute shader and
// uploads the trail buffer to a shader storage buffer. A current GL
// context is required; see the window package.
package gpu

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/logger"
)

//go:embed shaders/stamp.comp
var stampSource string

const imageUnit = 0

type stampUniforms struct {
	size, center                      int32
	radius, strength                  int32
	rimWidth, rimStrength             int32
	standardValue, minValue, maxValue int32
	uvToWorld                         int32
}

// Backend implements deform.Backend on the GPU. All calls must come from
// the goroutine that owns the GL context.
type Backend struct {
	program  uint32
	fillFBO  uint32
	uniforms stampUniforms
	log      *zap.Logger

	scratch map[*Texture]struct{}
}

// NewBackend loads GL entry points and compiles the stamp kernel.
func NewBackend(log *zap.Logger) (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	program, err := CompileCompute(stampSource)
	if err != nil {
		return nil, fmt.Errorf("compiling stamp kernel: %w", err)
	}

	b := &Backend{
		program: program,
		log:     logger.OrNop(log).Named("gpu"),
		scratch: make(map[*Texture]struct{}),
	}
	b.uniforms = stampUniforms{
		size:          uniform(program, "uSize"),
		center:        uniform(program, "uCenter"),
		radius:        uniform(program, "uRadius"),
		strength:      uniform(program, "uStrength"),
		rimWidth:      uniform(program, "uRimWidth"),
		rimStrength:   uniform(program, "uRimStrength"),
		standardValue: uniform(program, "uStandardValue"),
		minValue:      uniform(program, "uMinValue"),
		maxValue:      uniform(program, "uMaxValue"),
		uvToWorld:     uniform(program, "uUVToWorld"),
	}
	gl.GenFramebuffers(1, &b.fillFBO)

	b.log.Info("compute backend ready",
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))
	return b, nil
}

// NewTexture allocates a persistent RGBA32F displacement texture.
func (b *Backend) NewTexture(width, height int) (*Texture, error) {
	return newTexture(width, height)
}

// DeleteTexture frees a texture made by NewTexture.
func (b *Backend) DeleteTexture(t *Texture) {
	t.delete()
}

// AcquireScratch allocates a texture matching src and copies src into it.
func (b *Backend) AcquireScratch(src deform.Target) (deform.Target, error) {
	tex, err := asTexture(src)
	if err != nil {
		return nil, err
	}
	scratch, err := newTexture(tex.width, tex.height)
	if err != nil {
		return nil, fmt.Errorf("scratch texture: %w", err)
	}
	copyTexture(scratch, tex)
	if err := glError("copying to scratch"); err != nil {
		scratch.delete()
		return nil, err
	}
	b.scratch[scratch] = struct{}{}
	return scratch, nil
}

// Dispatch runs the stamp kernel over scratch.
func (b *Backend) Dispatch(scratch deform.Target, u deform.Uniforms, groupsX, groupsY int) error {
	tex, err := asTexture(scratch)
	if err != nil {
		return err
	}

	gl.UseProgram(b.program)
	gl.BindImageTexture(imageUnit, tex.id, 0, false, 0, gl.READ_WRITE, gl.RGBA32F)

	un := b.uniforms
	gl.Uniform2i(un.size, int32(u.Width), int32(u.Height))
	gl.Uniform2f(un.center, u.Center.X, u.Center.Y)
	gl.Uniform1f(un.radius, u.Radius)
	gl.Uniform1f(un.strength, u.Strength)
	gl.Uniform1f(un.rimWidth, u.RimWidth)
	gl.Uniform1f(un.rimStrength, u.RimStrength)
	gl.Uniform1f(un.standardValue, u.StandardValue)
	gl.Uniform1f(un.minValue, u.MinValue)
	gl.Uniform1f(un.maxValue, u.MaxValue)
	gl.UniformMatrix4fv(un.uvToWorld, 1, false, u.UVToWorld.Ptr())

	gl.DispatchCompute(uint32(groupsX), uint32(groupsY), 1)
	// The next dispatch reads what this one wrote.
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	return glError("dispatching stamp")
}

// Commit copies scratch into dst.
func (b *Backend) Commit(dst, scratch deform.Target) error {
	d, err := asTexture(dst)
	if err != nil {
		return err
	}
	s, err := asTexture(scratch)
	if err != nil {
		return err
	}
	if d.width != s.width || d.height != s.height {
		return fmt.Errorf("commit %dx%d into %dx%d: %w", s.width, s.height, d.width, d.height, deform.ErrFormatMismatch)
	}
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT)
	copyTexture(d, s)
	return glError("committing scratch")
}

// Release deletes a scratch texture.
func (b *Backend) Release(scratch deform.Target) {
	tex, ok := scratch.(*Texture)
	if !ok || tex == nil {
		return
	}
	delete(b.scratch, tex)
	tex.delete()
}

// Fill clears every texel of dst to v through a framebuffer attachment.
func (b *Backend) Fill(dst deform.Target, v float32) error {
	tex, err := asTexture(dst)
	if err != nil {
		return err
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, b.fillFBO)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("fill framebuffer incomplete: 0x%x: %w", status, deform.ErrFormatMismatch)
	}

	value := [4]float32{v, v, v, v}
	gl.ClearBufferfv(gl.COLOR, 0, &value[0])
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, 0, 0)
	// Later compute reads must see the clear.
	gl.MemoryBarrier(gl.FRAMEBUFFER_BARRIER_BIT | gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	return glError("filling texture")
}

// Upload replaces dst's contents with RGBA float data.
func (b *Backend) Upload(dst deform.Target, rgba []float32) error {
	tex, err := asTexture(dst)
	if err != nil {
		return err
	}
	if len(rgba) != tex.width*tex.height*deform.Channels {
		return fmt.Errorf("upload %d floats into %dx%d: %w", len(rgba), tex.width, tex.height, deform.ErrFormatMismatch)
	}

	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(tex.width), int32(tex.height), gl.RGBA, gl.FLOAT, gl.Ptr(rgba))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT | gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)

	return glError("uploading texture")
}

// Download reads src back as RGBA float data.
func (b *Backend) Download(src deform.Target) ([]float32, error) {
	tex, err := asTexture(src)
	if err != nil {
		return nil, err
	}

	out := make([]float32, tex.width*tex.height*deform.Channels)
	gl.MemoryBarrier(gl.TEXTURE_UPDATE_BARRIER_BIT)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.FLOAT, gl.Ptr(out))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("downloading texture"); err != nil {
		return nil, err
	}
	return out, nil
}

// Close frees the kernel and any scratch textures still held. Leaked
// scratch textures are reported alongside GL errors.
func (b *Backend) Close() error {
	var err error
	if n := len(b.scratch); n > 0 {
		err = multierr.Append(err, fmt.Errorf("%d scratch textures were not released", n))
		for tex := range b.scratch {
			tex.delete()
		}
		b.scratch = nil
	}
	if b.fillFBO != 0 {
		gl.DeleteFramebuffers(1, &b.fillFBO)
		b.fillFBO = 0
		err = multierr.Append(err, glError("deleting fill framebuffer"))
	}
	if b.program != 0 {
		gl.DeleteProgram(b.program)
		b.program = 0
		err = multierr.Append(err, glError("deleting stamp kernel"))
	}
	return err
}
