package models

import "fmt"

// Mask is a boolean array with either two dimensions (H, W), shared by every
// frame, or three dimensions (F, H, W), one plane per frame. True marks a
// background pixel.
type Mask struct {
	Shape []int
	Data  []bool
}

// NewFixedMask allocates an all-false (H, W) mask.
func NewFixedMask(height, width int) *Mask {
	return &Mask{Shape: []int{height, width}, Data: make([]bool, height*width)}
}

// NewDynamicMask allocates an all-false (F, H, W) mask.
func NewDynamicMask(frames, height, width int) *Mask {
	return &Mask{Shape: []int{frames, height, width}, Data: make([]bool, frames*height*width)}
}

// Fixed reports whether the mask is a single (H, W) plane.
func (m *Mask) Fixed() bool {
	return len(m.Shape) == 2
}

// Count returns the number of true entries.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

func (m *Mask) String() string {
	return fmt.Sprintf("mask%v", m.Shape)
}
