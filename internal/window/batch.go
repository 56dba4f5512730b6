package window

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/patch-tools-mcp/internal/raster"
)

// Walk visits the window around every centre in region, row-major: left to
// right, then top to bottom. It uses a Slider so each step reads only the
// samples that enter the window.
//
// fn receives a window that is reused between calls; Clone it to keep it.
// Walk stops at the first error from fn or when ctx is done, and returns
// that error.
func Walk(ctx context.Context, r *raster.Raster, size int, region raster.Region, fn func(*Window) error) error {
	if err := validateSize(size); err != nil {
		return err
	}
	if err := r.CheckRegion(region); err != nil {
		return err
	}
	return walk(ctx, r, size, region, fn)
}

// walk assumes size and region were validated.
func walk(ctx context.Context, r *raster.Raster, size int, region raster.Region, fn func(*Window) error) error {
	rowStart, err := NewSlider(r, size, raster.Coordinate{Row: region.Row1, Col: region.Col1})
	if err != nil {
		return err
	}

	for row := region.Row1; row < region.Row2; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row > region.Row1 {
			if err := rowStart.ShiftDown(); err != nil {
				return err
			}
		}

		cursor := rowStart.clone()
		for col := region.Col1; col < region.Col2; col++ {
			if col > region.Col1 {
				if err := cursor.ShiftRight(); err != nil {
					return err
				}
			}
			if err := fn(cursor.Window()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtractRegion returns an independent window for every centre in region, in
// the same row-major order as Walk.
//
// Every window is kept, so memory grows with region.Len()*size*size. Use
// MapRegion when only a summary of each window is needed.
func ExtractRegion(ctx context.Context, r *raster.Raster, size int, region raster.Region, workers int) ([]*Window, error) {
	return MapRegion(ctx, r, size, region, workers, (*Window).Clone)
}

// MapRegion applies fn to the window around every centre in region and
// returns the results in the same row-major order as Walk. Each worker holds
// a single sliding window, so only fn's results are retained.
//
// fn receives a window that is reused between calls and may run on several
// goroutines at once. Rows are processed by at most workers goroutines;
// workers <= 0 means runtime.GOMAXPROCS(0). The first failure cancels the
// remaining rows.
func MapRegion[T any](ctx context.Context, r *raster.Raster, size int, region raster.Region, workers int, fn func(*Window) T) ([]T, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if err := r.CheckRegion(region); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]T, region.Len())
	cols := region.Col2 - region.Col1

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for row := region.Row1; row < region.Row2; row++ {
		band := raster.Region{Row1: row, Col1: region.Col1, Row2: row + 1, Col2: region.Col2}
		next := (row - region.Row1) * cols
		g.Go(func() error {
			return walk(ctx, r, size, band, func(w *Window) error {
				out[next] = fn(w)
				next++
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
