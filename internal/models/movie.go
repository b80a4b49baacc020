// Package models holds the array types shared by the transform, masking and
// IO packages.
package models

import (
	"fmt"

	"spyboat/internal/fault"
)

// Movie is a real valued (time, row, column) array.
type Movie struct {
	// Data holds the samples in (t, y, x) order, x varying fastest
	Data []float64

	// Frames is the number of time points F
	Frames int

	// Height is the number of rows H
	Height int

	// Width is the number of columns W
	Width int
}

// NewMovie allocates a zero filled movie of the given shape.
func NewMovie(frames, height, width int) *Movie {
	if frames < 0 || height < 0 || width < 0 {
		panic(fmt.Sprintf("models: negative movie shape (%d, %d, %d)", frames, height, width))
	}
	return &Movie{
		Data:   make([]float64, frames*height*width),
		Frames: frames,
		Height: height,
		Width:  width,
	}
}

// Shape returns (F, H, W).
func (m *Movie) Shape() []int {
	return []int{m.Frames, m.Height, m.Width}
}

// FrameSize is the number of pixels of a single frame.
func (m *Movie) FrameSize() int {
	return m.Height * m.Width
}

// Index returns the offset of (t, y, x) in Data.
func (m *Movie) Index(t, y, x int) int {
	return t*m.Height*m.Width + y*m.Width + x
}

func (m *Movie) At(t, y, x int) float64 {
	return m.Data[m.Index(t, y, x)]
}

func (m *Movie) Set(t, y, x int, v float64) {
	m.Data[m.Index(t, y, x)] = v
}

// Frame returns frame t as a view into Data, row-major.
func (m *Movie) Frame(t int) []float64 {
	size := m.FrameSize()
	return m.Data[t*size : (t+1)*size]
}

// Pixel copies the time series at (y, x) into dst, allocating when dst is
// too short.
func (m *Movie) Pixel(dst []float64, y, x int) []float64 {
	if cap(dst) < m.Frames {
		dst = make([]float64, m.Frames)
	}
	dst = dst[:m.Frames]
	size := m.FrameSize()
	idx := y*m.Width + x
	for t := range dst {
		dst[t] = m.Data[t*size+idx]
	}
	return dst
}

// SetPixel writes series into the (·, y, x) column.
func (m *Movie) SetPixel(y, x int, series []float64) {
	size := m.FrameSize()
	idx := y*m.Width + x
	for t, v := range series {
		m.Data[t*size+idx] = v
	}
}

// Rows copies rows [y0, y1) of every frame into a new movie.
func (m *Movie) Rows(y0, y1 int) *Movie {
	sub := NewMovie(m.Frames, y1-y0, m.Width)
	rowLen := (y1 - y0) * m.Width
	for t := 0; t < m.Frames; t++ {
		src := m.Data[m.Index(t, y0, 0) : m.Index(t, y0, 0)+rowLen]
		copy(sub.Data[t*rowLen:(t+1)*rowLen], src)
	}
	return sub
}

// PutRows writes sub back at row offset y0. sub must have the same frame
// count and width.
func (m *Movie) PutRows(y0 int, sub *Movie) {
	rowLen := sub.Height * m.Width
	for t := 0; t < m.Frames; t++ {
		dst := m.Data[m.Index(t, y0, 0) : m.Index(t, y0, 0)+rowLen]
		copy(dst, sub.Data[t*rowLen:(t+1)*rowLen])
	}
}

// Clone returns a deep copy.
func (m *Movie) Clone() *Movie {
	c := NewMovie(m.Frames, m.Height, m.Width)
	copy(c.Data, m.Data)
	return c
}

// SameShape reports whether both movies have identical (F, H, W).
func (m *Movie) SameShape(o *Movie) bool {
	return m.Frames == o.Frames && m.Height == o.Height && m.Width == o.Width
}

// MovieFromArray converts a nested [t][y][x] array. Ragged input is an error.
func MovieFromArray(arr [][][]float64) (*Movie, error) {
	if len(arr) == 0 || len(arr[0]) == 0 || len(arr[0][0]) == 0 {
		return nil, fmt.Errorf("%w: movie must be 3-dimensional and non-empty", fault.ErrInvalidInput)
	}
	m := NewMovie(len(arr), len(arr[0]), len(arr[0][0]))
	for t, frame := range arr {
		if len(frame) != m.Height {
			return nil, fmt.Errorf("%w: frame %d has %d rows, expected %d", fault.ErrInvalidInput, t, len(frame), m.Height)
		}
		for y, row := range frame {
			if len(row) != m.Width {
				return nil, fmt.Errorf("%w: frame %d row %d has %d columns, expected %d", fault.ErrInvalidInput, t, y, len(row), m.Width)
			}
			copy(m.Data[m.Index(t, y, 0):], row)
		}
	}
	return m, nil
}

// Array converts the movie to a nested [t][y][x] array.
func (m *Movie) Array() [][][]float64 {
	arr := make([][][]float64, m.Frames)
	for t := range arr {
		arr[t] = make([][]float64, m.Height)
		for y := range arr[t] {
			row := make([]float64, m.Width)
			copy(row, m.Data[m.Index(t, y, 0):m.Index(t, y, 0)+m.Width])
			arr[t][y] = row
		}
	}
	return arr
}
