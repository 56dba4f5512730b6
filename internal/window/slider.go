package window

import (
	"fmt"

	"github.com/ironsheep/patch-tools-mcp/internal/mirror"
	"github.com/ironsheep/patch-tools-mcp/internal/raster"
)

// Slider is a window that moves one pixel at a time. Each shift keeps the
// size-1 overlapping columns (or rows) and samples only the one that enters.
//
// After any sequence of shifts, Window() holds exactly what Extract would
// return for the current centre. A Slider is not safe for concurrent use.
type Slider struct {
	r *raster.Raster
	w *Window
}

// NewSlider extracts the window at center and returns a slider positioned there.
func NewSlider(r *raster.Raster, size int, center raster.Coordinate) (*Slider, error) {
	w, err := Extract(r, size, center)
	if err != nil {
		return nil, err
	}
	return &Slider{r: r, w: w}, nil
}

// Window returns the current window. It is updated in place by later shifts;
// Clone it to keep a snapshot.
func (s *Slider) Window() *Window { return s.w }

// Center returns the current centre.
func (s *Slider) Center() raster.Coordinate { return s.w.center }

// ShiftRight moves the centre one column to the right.
func (s *Slider) ShiftRight() error {
	next := s.w.center
	next.Col++
	if err := s.check(next); err != nil {
		return err
	}

	size, radius := s.w.size, s.w.Radius()
	col := mirror.MustMap(next.Col+radius, s.r.Width())
	for di := 0; di < size; di++ {
		row := s.w.data.RawRowView(di)
		copy(row, row[1:])
		row[size-1] = s.r.At(mirror.MustMap(next.Row+di-radius, s.r.Height()), col)
	}
	s.w.center = next
	return nil
}

// ShiftDown moves the centre one row down.
func (s *Slider) ShiftDown() error {
	next := s.w.center
	next.Row++
	if err := s.check(next); err != nil {
		return err
	}

	size, radius := s.w.size, s.w.Radius()
	for di := 0; di < size-1; di++ {
		copy(s.w.data.RawRowView(di), s.w.data.RawRowView(di+1))
	}
	row := mirror.MustMap(next.Row+radius, s.r.Height())
	last := s.w.data.RawRowView(size - 1)
	for dj := range last {
		last[dj] = s.r.At(row, mirror.MustMap(next.Col+dj-radius, s.r.Width()))
	}
	s.w.center = next
	return nil
}

func (s *Slider) check(next raster.Coordinate) error {
	if !s.r.Contains(next) {
		return fmt.Errorf("%w: cannot shift to (%d,%d) in %dx%d raster",
			ErrOutOfBounds, next.Row, next.Col, s.r.Width(), s.r.Height())
	}
	return nil
}

func (s *Slider) clone() *Slider {
	return &Slider{r: s.r, w: s.w.Clone()}
}
