// Package window extracts square, odd-sized patches from rasters using mirror
// boundary conditions.
//
// Extract is the core operation. Slider, Walk and ExtractRegion build on it
// to visit many neighbouring centres cheaply, and Features and Preview turn a
// window into numbers or a picture.
//
// For a window of size s centred at (row, col), sample (di, dj) is read from
// raster position
//
//	(mirror.Map(row+di-(s-1)/2, height), mirror.Map(col+dj-(s-1)/2, width))
//
// so every read is in bounds however close the centre is to an edge. The
// centre itself must lie inside the raster.
//
// Extract, ExtractChannels, Features and Preview are pure and may run
// concurrently on a shared raster.
package window
