package window

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// MaxPreviewScale bounds the upscale factor accepted by Preview.
const MaxPreviewScale = 64

// PreviewResult contains a window rendered as a grayscale PNG.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Scale       int    `json:"scale"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview renders w as an 8-bit grayscale PNG, upscaled by scale with
// nearest-neighbour sampling so each sample stays a crisp block. Samples are
// clamped to [0, 1] before quantisation. A scale of 0 means 1.
func Preview(w *Window, scale int) (*PreviewResult, error) {
	if scale == 0 {
		scale = 1
	}
	if scale < 1 || scale > MaxPreviewScale {
		return nil, fmt.Errorf("invalid preview scale %d: must be between 1 and %d", scale, MaxPreviewScale)
	}

	gray := image.NewGray(image.Rect(0, 0, w.size, w.size))
	for di := 0; di < w.size; di++ {
		for dj := 0; dj < w.size; dj++ {
			gray.SetGray(dj, di, color.Gray{Y: quantize(w.At(di, dj))})
		}
	}

	var img image.Image = gray
	if scale > 1 {
		img = imaging.Resize(gray, w.size*scale, w.size*scale, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Scale:       scale,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func quantize(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(v * 255))
}
