package deform

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// CPUBackend runs the stamp kernel on the CPU over *Texture targets.
// Work group rows of one dispatch run in parallel; every texel only reads
// and writes itself, so the result does not depend on scheduling.
type CPUBackend struct {
	workers int

	mu          sync.Mutex
	temporaries map[[2]int][]*Texture
	outstanding int

	dispatches atomic.Int64
}

// NewCPUBackend creates a CPU backend. workers <= 0 uses GOMAXPROCS.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUBackend{
		workers:     workers,
		temporaries: make(map[[2]int][]*Texture),
	}
}

func asTexture(t Target) (*Texture, error) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("cpu backend got %T: %w", t, ErrFormatMismatch)
	}
	return tex, nil
}

// AcquireScratch hands out a pooled texture of the same size holding a copy of src.
func (b *CPUBackend) AcquireScratch(src Target) (Target, error) {
	tex, err := asTexture(src)
	if err != nil {
		return nil, err
	}

	key := [2]int{tex.Width, tex.Height}
	b.mu.Lock()
	var scratch *Texture
	if free := b.temporaries[key]; len(free) > 0 {
		scratch = free[len(free)-1]
		b.temporaries[key] = free[:len(free)-1]
	}
	b.outstanding++
	b.mu.Unlock()

	if scratch == nil {
		scratch = &Texture{Width: tex.Width, Height: tex.Height, Pix: make([]float32, len(tex.Pix))}
	}
	copy(scratch.Pix, tex.Pix)
	return scratch, nil
}

// Dispatch applies one stamp over the whole scratch texture.
func (b *CPUBackend) Dispatch(scratch Target, u Uniforms, groupsX, groupsY int) error {
	tex, err := asTexture(scratch)
	if err != nil {
		return err
	}
	if u.Width != tex.Width || u.Height != tex.Height {
		return fmt.Errorf("uniforms %dx%d for texture %dx%d: %w", u.Width, u.Height, tex.Width, tex.Height, ErrFormatMismatch)
	}
	b.dispatches.Add(1)

	k := newStampKernel(u)

	var g errgroup.Group
	g.SetLimit(b.workers)
	for gy := 0; gy < groupsY; gy++ {
		gy := gy
		g.Go(func() error {
			for gx := 0; gx < groupsX; gx++ {
				runGroup(tex, &k, gx, gy)
			}
			return nil
		})
	}
	return g.Wait()
}

// runGroup executes one 8x8 work group; invocations outside the texture exit early.
func runGroup(tex *Texture, k *stampKernel, gx, gy int) {
	for ty := 0; ty < WorkGroupSize; ty++ {
		y := gy*WorkGroupSize + ty
		if y >= tex.Height {
			return
		}
		for tx := 0; tx < WorkGroupSize; tx++ {
			x := gx*WorkGroupSize + tx
			if x >= tex.Width {
				break
			}
			tex.Set(x, y, k.apply(x, y, tex.At(x, y)))
		}
	}
}

// Commit copies scratch into dst.
func (b *CPUBackend) Commit(dst, scratch Target) error {
	d, err := asTexture(dst)
	if err != nil {
		return err
	}
	s, err := asTexture(scratch)
	if err != nil {
		return err
	}
	return d.CopyFrom(s)
}

// Release returns scratch to the pool.
func (b *CPUBackend) Release(scratch Target) {
	tex, err := asTexture(scratch)
	if err != nil {
		return
	}
	key := [2]int{tex.Width, tex.Height}
	b.mu.Lock()
	b.temporaries[key] = append(b.temporaries[key], tex)
	b.outstanding--
	b.mu.Unlock()
}

// Fill writes v into every channel of dst.
func (b *CPUBackend) Fill(dst Target, v float32) error {
	tex, err := asTexture(dst)
	if err != nil {
		return err
	}
	tex.Fill(v)
	return nil
}

// Upload copies RGBA float data into dst.
func (b *CPUBackend) Upload(dst Target, rgba []float32) error {
	tex, err := asTexture(dst)
	if err != nil {
		return err
	}
	if len(rgba) != len(tex.Pix) {
		return fmt.Errorf("upload %d floats into %d: %w", len(rgba), len(tex.Pix), ErrFormatMismatch)
	}
	copy(tex.Pix, rgba)
	return nil
}

// Download returns a copy of src's RGBA data.
func (b *CPUBackend) Download(src Target) ([]float32, error) {
	tex, err := asTexture(src)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(tex.Pix))
	copy(out, tex.Pix)
	return out, nil
}

// Dispatches returns the number of kernel dispatches issued so far.
func (b *CPUBackend) Dispatches() int64 {
	return b.dispatches.Load()
}

// Outstanding returns the number of scratch textures not yet released.
func (b *CPUBackend) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outstanding
}
