package heatmap

// Sink receives the full trail buffer after every write. Implementations
// bind it to the shader as the DeformPoints buffer plus its count.
type Sink interface {
	Upload(points []TrailPoint) error
}

// MemorySink keeps the most recent upload in memory. It backs the CPU
// pipeline and tests.
type MemorySink struct {
	Last    []TrailPoint
	Uploads int
}

// Upload stores a copy of points.
func (s *MemorySink) Upload(points []TrailPoint) error {
	if cap(s.Last) < len(points) {
		s.Last = make([]TrailPoint, len(points))
	}
	s.Last = s.Last[:len(points)]
	copy(s.Last, points)
	s.Uploads++
	return nil
}
