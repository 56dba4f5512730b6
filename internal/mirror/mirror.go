// Package mirror maps out-of-range 1-D coordinates back into range using
// reflective (mirror) boundary conditions.
//
// A raster axis of length dim is treated as if it were flanked on both sides
// by mirrored copies of itself, without repeating the edge sample:
//
//	coord: ... -3 -2 -1 | 0 1 2 3 | 4 5 6 ...
//	dim=4: ...  3  2  1 | 0 1 2 3 | 2 1 0 ...
//
// The mapping is periodic with period 2*(dim-1) and symmetric around 0.
package mirror

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension is returned when an axis length is zero or negative.
var ErrInvalidDimension = errors.New("invalid dimension")

// Map returns the in-range coordinate for coord on an axis of length dim.
//
// Coordinates already inside [0, dim) are returned unchanged. An axis of
// length 1 maps every coordinate to 0.
//
// Returns ErrInvalidDimension (wrapped) when dim <= 0.
func Map(coord, dim int) (int, error) {
	if dim <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return reflect(coord, dim), nil
}

// MustMap is like Map but panics on an invalid dimension. It is meant for
// callers that have already validated dim, such as inner extraction loops.
func MustMap(coord, dim int) int {
	if dim <= 0 {
		panic(fmt.Sprintf("mirror: %v: %d", ErrInvalidDimension, dim))
	}
	return reflect(coord, dim)
}

func reflect(coord, dim int) int {
	if coord >= 0 && coord < dim {
		return coord
	}
	if dim == 1 {
		return 0
	}

	period := 2 * (dim - 1)
	// Reduce before negating so math.MinInt cannot overflow.
	coord %= period
	if coord < 0 {
		coord = -coord
	}
	if coord >= dim {
		coord = period - coord
	}
	return coord
}
