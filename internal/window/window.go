package window

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/patch-tools-mcp/internal/mirror"
	"github.com/ironsheep/patch-tools-mcp/internal/raster"
)

var (
	// ErrInvalidWindowSize is returned when a window size is not a positive
	// odd integer.
	ErrInvalidWindowSize = errors.New("window size must be a positive odd integer")

	// ErrOutOfBounds is returned when a window centre lies outside the raster.
	// It is the same value as raster.ErrOutOfBounds.
	ErrOutOfBounds = raster.ErrOutOfBounds
)

// Window is a square, odd-sized neighbourhood of samples taken around a
// centre position. Samples are stored row-major: At(di, dj) is the sample
// di rows below and dj columns right of the window's top-left corner.
type Window struct {
	center raster.Coordinate
	size   int
	data   *mat.Dense
}

func newWindow(size int, center raster.Coordinate) *Window {
	return &Window{
		center: center,
		size:   size,
		data:   mat.NewDense(size, size, nil),
	}
}

// Center returns the raster position the window was taken around.
func (w *Window) Center() raster.Coordinate { return w.center }

// Size returns the side length of the window.
func (w *Window) Size() int { return w.size }

// Radius returns (Size()-1)/2, the distance from the centre to an edge.
func (w *Window) Radius() int { return (w.size - 1) / 2 }

// At returns the sample at row di, column dj of the window.
func (w *Window) At(di, dj int) float64 { return w.data.At(di, dj) }

// Rows returns a copy of the window as a slice of rows.
func (w *Window) Rows() [][]float64 {
	rows := make([][]float64, w.size)
	for i := range rows {
		rows[i] = mat.Row(nil, i, w.data)
	}
	return rows
}

// Samples returns a row-major copy of all samples.
func (w *Window) Samples() []float64 {
	out := make([]float64, 0, w.size*w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.data.RawRowView(i)...)
	}
	return out
}

// Clone returns an independent copy of w.
func (w *Window) Clone() *Window {
	c := newWindow(w.size, w.center)
	c.data.Copy(w.data)
	return c
}

// Extract returns the size x size window of r centred on center. Samples that
// fall outside r are filled by mirror boundary conditions along each axis.
//
// Returns ErrInvalidWindowSize when size is not a positive odd integer and
// ErrOutOfBounds when center lies outside r. Both are checked before any
// sample is read. The raster is never modified.
func Extract(r *raster.Raster, size int, center raster.Coordinate) (*Window, error) {
	if err := validate(r, size, center); err != nil {
		return nil, err
	}
	w := newWindow(size, center)
	fill(w, r)
	return w, nil
}

// ExtractChannels extracts the same window from every plane. All planes must
// share one shape; windows are returned in plane order.
func ExtractChannels(planes []*raster.Raster, size int, center raster.Coordinate) ([]*Window, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("%w: no planes", raster.ErrEmpty)
	}
	for i, p := range planes[1:] {
		if !p.SameShape(planes[0]) {
			return nil, fmt.Errorf("%w: plane %d is %dx%d, plane 0 is %dx%d",
				raster.ErrShape, i+1, p.Width(), p.Height(), planes[0].Width(), planes[0].Height())
		}
	}

	windows := make([]*Window, len(planes))
	for i, p := range planes {
		w, err := Extract(p, size, center)
		if err != nil {
			return nil, fmt.Errorf("plane %d: %w", i, err)
		}
		windows[i] = w
	}
	return windows, nil
}

func validateSize(size int) error {
	if size <= 0 || size%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindowSize, size)
	}
	// size*size samples must be addressable.
	if size > math.MaxInt/size {
		return fmt.Errorf("%w: %d is too large", ErrInvalidWindowSize, size)
	}
	return nil
}

func validate(r *raster.Raster, size int, center raster.Coordinate) error {
	if err := validateSize(size); err != nil {
		return err
	}
	if !r.Contains(center) {
		return fmt.Errorf("%w: centre (%d,%d) in %dx%d raster",
			ErrOutOfBounds, center.Row, center.Col, r.Width(), r.Height())
	}
	return nil
}

// fill samples every window position from r. r's dimensions are >= 1, so
// MustMap cannot panic.
func fill(w *Window, r *raster.Raster) {
	radius := w.Radius()
	height, width := r.Height(), r.Width()
	for di := 0; di < w.size; di++ {
		row := mirror.MustMap(w.center.Row+di-radius, height)
		dst := w.data.RawRowView(di)
		for dj := range dst {
			dst[dj] = r.At(row, mirror.MustMap(w.center.Col+dj-radius, width))
		}
	}
}
