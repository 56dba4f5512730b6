package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownChannel is returned for a channel name FromImage does not support.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel selects which plane of an image becomes a raster.
type Channel string

const (
	// Gray is ITU-R BT.601 luma.
	Gray Channel = "gray"
	// Red, Green, Blue and Alpha are the 8-bit planes of the alpha-premultiplied
	// RGBA form of the image.
	Red   Channel = "red"
	Green Channel = "green"
	Blue  Channel = "blue"
	Alpha Channel = "alpha"
	// Lightness is CIE L* computed from non-premultiplied sRGB.
	Lightness Channel = "lightness"
)

// Channels lists every supported channel.
var Channels = []Channel{Gray, Red, Green, Blue, Alpha, Lightness}

// ParseChannel converts a channel name to a Channel. An empty name selects Gray.
func ParseChannel(name string) (Channel, error) {
	if name == "" {
		return Gray, nil
	}
	for _, c := range Channels {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// FromImage converts one plane of img into a raster with samples in [0, 1].
// Raster position (row, col) corresponds to image pixel
// (Bounds().Min.X+col, Bounds().Min.Y+row).
func FromImage(img image.Image, ch Channel) (*Raster, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d image", ErrEmpty, width, height)
	}

	samples := make([]float64, width*height)

	switch ch {
	case Gray:
		// imaging results always start at the origin.
		g := imaging.Grayscale(img)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				samples[y*width+x] = float64(g.Pix[g.PixOffset(x, y)]) / 255.0
			}
		}

	case Red, Green, Blue, Alpha:
		offset := map[Channel]int{Red: 0, Green: 1, Blue: 2, Alpha: 3}[ch]
		rgba := clone.AsRGBA(img)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				samples[y*width+x] = float64(rgba.Pix[i+offset]) / 255.0
			}
		}

	case Lightness:
		n := imaging.Clone(img)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := n.PixOffset(x, y)
				c := colorful.Color{
					R: float64(n.Pix[i]) / 255.0,
					G: float64(n.Pix[i+1]) / 255.0,
					B: float64(n.Pix[i+2]) / 255.0,
				}
				l, _, _ := c.Lab()
				samples[y*width+x] = clampUnit(l)
			}
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}

	return New(height, width, samples)
}

// clampUnit guards against float rounding pushing L* just past 1.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
