// Package raster provides the 2-D sample grids that windows are extracted from.
//
// A Raster is a single plane: an immutable height x width grid of float64
// samples with no channel dimension. Multi-channel images are handled as one
// Raster per channel (see FromImage and Channel), and callers repeat the same
// 2-D operation per plane.
//
// # Coordinate System
//
// Positions are (row, column), both 0-based:
//   - Row: vertical position (0 = top row), in [0, Height())
//   - Col: horizontal position (0 = leftmost column), in [0, Width())
//
// For regions, (Row1, Col1) is inclusive and (Row2, Col2) is exclusive.
//
// # Sample Scale
//
// Rasters built from images hold samples normalised to [0, 1]. Rasters built
// with New or FromRows hold whatever the caller supplies.
//
// # Thread Safety
//
// Rasters are never mutated after construction and may be read from many
// goroutines. Cache is safe for concurrent use.
package raster
