package raster

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when a raster would have no rows or no columns.
	ErrEmpty = errors.New("raster has no samples")

	// ErrShape is returned when sample data does not match the declared
	// dimensions, or when rasters that must agree in size do not.
	ErrShape = errors.New("raster shape mismatch")

	// ErrOutOfBounds is returned when a coordinate or region lies outside
	// the raster.
	ErrOutOfBounds = errors.New("coordinate outside raster bounds")
)

// Coordinate is a (row, column) position. Row grows downward, Col rightward.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Region is a half-open rectangle of positions: rows [Row1, Row2) and
// columns [Col1, Col2).
type Region struct {
	Row1 int `json:"row1"`
	Col1 int `json:"col1"`
	Row2 int `json:"row2"`
	Col2 int `json:"col2"`
}

// Len returns the number of positions in the region.
func (g Region) Len() int {
	if g.Row2 <= g.Row1 || g.Col2 <= g.Col1 {
		return 0
	}
	return (g.Row2 - g.Row1) * (g.Col2 - g.Col1)
}

// Raster is an immutable height x width grid of samples.
//
// The zero value is not usable; build rasters with New, FromRows or
// FromImage. A Raster is safe for concurrent reads.
type Raster struct {
	data *mat.Dense
}

// New builds a raster from row-major samples. The slice is copied.
func New(height, width int, samples []float64) (*Raster, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmpty, width, height)
	}
	if len(samples) != height*width {
		return nil, fmt.Errorf("%w: %d samples for %dx%d raster", ErrShape, len(samples), width, height)
	}
	backing := make([]float64, len(samples))
	copy(backing, samples)
	return &Raster{data: mat.NewDense(height, width, backing)}, nil
}

// FromRows builds a raster from a slice of equally long rows.
func FromRows(rows [][]float64) (*Raster, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}
	width := len(rows[0])
	samples := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrShape, i, len(row), width)
		}
		samples = append(samples, row...)
	}
	return &Raster{data: mat.NewDense(len(rows), width, samples)}, nil
}

// Height returns the number of rows.
func (r *Raster) Height() int {
	h, _ := r.data.Dims()
	return h
}

// Width returns the number of columns.
func (r *Raster) Width() int {
	_, w := r.data.Dims()
	return w
}

// At returns the sample at (row, col). It panics if the position is outside
// the raster, as mat.Dense does.
func (r *Raster) At(row, col int) float64 {
	return r.data.At(row, col)
}

// Contains reports whether c lies inside the raster.
func (r *Raster) Contains(c Coordinate) bool {
	h, w := r.data.Dims()
	return c.Row >= 0 && c.Row < h && c.Col >= 0 && c.Col < w
}

// CheckRegion validates that g is a non-empty region inside the raster.
func (r *Raster) CheckRegion(g Region) error {
	h, w := r.data.Dims()
	if g.Row1 < 0 || g.Col1 < 0 || g.Row2 > h || g.Col2 > w || g.Row1 >= g.Row2 || g.Col1 >= g.Col2 {
		return fmt.Errorf("%w: region (%d,%d)-(%d,%d) in %dx%d raster",
			ErrOutOfBounds, g.Row1, g.Col1, g.Row2, g.Col2, w, h)
	}
	return nil
}

// Bounds returns the region covering the whole raster.
func (r *Raster) Bounds() Region {
	h, w := r.data.Dims()
	return Region{Row2: h, Col2: w}
}

// SameShape reports whether r and o have identical dimensions.
func (r *Raster) SameShape(o *Raster) bool {
	h1, w1 := r.data.Dims()
	h2, w2 := o.data.Dims()
	return h1 == h2 && w1 == w2
}
