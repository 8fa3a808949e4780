package deform

import "errors"

var (
	// ErrMissingResource means a required texture, backend or frame is absent.
	// The component that hits it disables itself; the process keeps running.
	ErrMissingResource = errors.New("deform: missing resource")

	// ErrInvalidStamp is returned for stamps with a non-positive radius,
	// a negative rim width or non-finite values.
	ErrInvalidStamp = errors.New("deform: invalid stamp")

	// ErrFormatMismatch is returned when a backend is handed a target it did not create.
	ErrFormatMismatch = errors.New("deform: target format mismatch")
)
