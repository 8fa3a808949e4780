package deform

import (
	"errors"
	"testing"
)

func TestReset_FillsAllChannels(t *testing.T) {
	backend := NewCPUBackend(0)
	tex, err := NewTexture(13, 7)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	for i := range tex.Pix {
		tex.Pix[i] = float32(i) * 0.01
	}

	for round := 0; round < 2; round++ {
		if err := Reset(backend, tex, 0.65); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		for i, v := range tex.Pix {
			if v != 0.65 {
				t.Fatalf("round %d: Pix[%d] = %v, want 0.65", round, i, v)
			}
		}
	}
}

func TestReset_MissingTarget(t *testing.T) {
	if err := Reset(NewCPUBackend(0), nil, 0.5); !errors.Is(err, ErrMissingResource) {
		t.Errorf("Reset(nil) = %v, want ErrMissingResource", err)
	}
}

func TestSeed(t *testing.T) {
	backend := NewCPUBackend(0)
	tex, _ := NewTexture(2, 1)

	if err := Seed(backend, tex, []float32{1, 1, 1, 1, 0.5, 0.5, 0.5, 0.5}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if tex.At(0, 0) != 1 || tex.At(1, 0) != 0.5 {
		t.Errorf("seeded values = (%v, %v), want (1, 0.5)", tex.At(0, 0), tex.At(1, 0))
	}

	err := Seed(backend, tex, []float32{1})
	if !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Seed with short data = %v, want ErrFormatMismatch", err)
	}
}

func TestCPUBackend_RejectsForeignTarget(t *testing.T) {
	type other struct{ Target }
	_, err := NewCPUBackend(0).AcquireScratch(other{})
	if !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("AcquireScratch(foreign) = %v, want ErrFormatMismatch", err)
	}
}
