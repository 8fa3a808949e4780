package deform

import "fmt"

// Reset fills every texel of target with the standard value in all channels.
// It is idempotent and must run before the first Tick reads the texture;
// backends complete the fill before returning or order it ahead of later
// dispatches.
func Reset(b Backend, target Target, standardValue float32) error {
	if b == nil || target == nil {
		return fmt.Errorf("reset: %w", ErrMissingResource)
	}
	if err := b.Fill(target, standardValue); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Seed replaces target's contents with authored RGBA data, such as a
// gradient produced by the fill tool.
func Seed(b Backend, target Target, rgba []float32) error {
	if b == nil || target == nil {
		return fmt.Errorf("seed: %w", ErrMissingResource)
	}
	w, h := target.Size()
	if len(rgba) != w*h*Channels {
		return fmt.Errorf("seed %d floats into %dx%d: %w", len(rgba), w, h, ErrFormatMismatch)
	}
	if err := b.Upload(target, rgba); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
