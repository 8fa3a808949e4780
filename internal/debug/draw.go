package debug

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/Faultbox/snowfield/internal/deform"
	"github.com/Faultbox/snowfield/internal/heatmap"
	"github.com/Faultbox/snowfield/pkg/math"
)

const strokeWidth = 1.5

var (
	background = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	pointColor = color.RGBA{R: 255, A: 255}
	linkColor  = color.RGBA{R: 255, G: 255, A: 255}
)

// TextureImage maps the first channel of tex onto grey levels, lo black and
// hi white. Row 0 of the texture is the top row of the image.
func TextureImage(tex *deform.Texture, lo, hi float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, tex.Width, tex.Height))
	span := hi - lo
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			v := float32(0)
			if span > 0 {
				v = math.Clamp((tex.At(x, y)-lo)/span, 0, 1)
			}
			img.Pix[y*img.Stride+x] = uint8(v*255 + 0.5)
		}
	}
	return img
}

// DrawTrails draws the trail buffer on a size x size canvas laid out in the
// surface's UV space: red circles for written points, yellow links from each
// point to its successor.
func DrawTrails(points []heatmap.TrailPoint, frame *deform.CoordinateFrame, size int, window float64) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetColor(background)
	dc.Clear()
	drawTrails(dc, points, frame, window)
	return dc.Image()
}

// OverlayTrails draws the trail buffer over base, usually a TextureImage.
func OverlayTrails(base image.Image, points []heatmap.TrailPoint, frame *deform.CoordinateFrame, window float64) image.Image {
	dc := gg.NewContextForImage(base)
	drawTrails(dc, points, frame, window)
	return dc.Image()
}

func drawTrails(dc *gg.Context, points []heatmap.TrailPoint, frame *deform.CoordinateFrame, window float64) {
	w, h := float64(dc.Width()), float64(dc.Height())
	lo, hi := frame.Bounds()
	pxPerUnit := w / float64(max(hi.X-lo.X, lo.X-hi.X))

	toPixel := func(p heatmap.TrailPoint) (float64, float64) {
		uv := frame.WorldToUV(math.Vec3{X: p.X, Z: p.Z})
		return float64(uv.X) * w, float64(uv.Y) * h
	}

	dc.SetLineWidth(strokeWidth)
	dc.SetColor(pointColor)
	for _, p := range points {
		if !p.Written() {
			continue
		}
		x, y := toPixel(p)
		dc.DrawCircle(x, y, float64(p.Radius)*pxPerUnit)
		dc.Stroke()
	}

	dc.SetColor(linkColor)
	for _, s := range heatmap.Segments(points, window) {
		x0, y0 := toPixel(points[s.From])
		x1, y1 := toPixel(points[s.To])
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}
}
