// Package debug renders diagnostic images of the snow surface and its
// trail buffer and saves them as PNG files.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
)

const timestampLayout = "2006-01-02_15-04-05"

// Capture writes images to a directory with timestamped names.
type Capture struct {
	outputDir string
	prefix    string
	clock     clock.Clock
}

// NewCapture creates a capture handler. A nil clock uses the wall clock.
func NewCapture(outputDir, prefix string, clk clock.Clock) *Capture {
	if clk == nil {
		clk = clock.New()
	}
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		clock:     clk,
	}
}

// Filename returns the path an image with the given name would be saved to.
func (c *Capture) Filename(name string) string {
	filename := fmt.Sprintf("%s_%s_%s.png", c.prefix, name, c.clock.Now().Format(timestampLayout))
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}

// Save encodes img as PNG and returns the written path.
func (c *Capture) Save(name string, img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename(name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}
