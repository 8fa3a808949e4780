package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/snowfield/internal/heatmap"
)

// TrailBindingPoint is the SSBO binding the overlay shader reads
// DeformPoints from.
const TrailBindingPoint = 1

const floatsPerPoint = 4

// TrailBuffer mirrors the trail ring buffer into a shader storage buffer of
// float4 entries (x, z, radius, tag). It implements heatmap.Sink.
type TrailBuffer struct {
	ssbo     uint32
	capacity int
}

// NewTrailBuffer allocates room for capacity points, all zero.
func NewTrailBuffer(capacity int) (*TrailBuffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("trail buffer capacity %d must be positive", capacity)
	}
	t := &TrailBuffer{capacity: capacity}
	gl.GenBuffers(1, &t.ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, t.ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, capacity*floatsPerPoint*4, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, TrailBindingPoint, t.ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	if err := glError("allocating trail buffer"); err != nil {
		gl.DeleteBuffers(1, &t.ssbo)
		return nil, err
	}
	return t, nil
}

// Count is the value of the overlay's point count uniform.
func (t *TrailBuffer) Count() int {
	return t.capacity
}

// Upload replaces the whole buffer.
func (t *TrailBuffer) Upload(points []heatmap.TrailPoint) error {
	if len(points) != t.capacity {
		return fmt.Errorf("uploading %d trail points into a buffer of %d", len(points), t.capacity)
	}
	data := heatmap.Pack(points)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, t.ssbo)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return glError("uploading trail buffer")
}

// Close deletes the buffer.
func (t *TrailBuffer) Close() error {
	if t.ssbo == 0 {
		return nil
	}
	gl.DeleteBuffers(1, &t.ssbo)
	t.ssbo = 0
	return glError("deleting trail buffer")
}
