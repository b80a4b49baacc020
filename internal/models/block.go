package models

import "fmt"

// Block is a contiguous range of rows [Y0, Y1) handed to one worker.
// Index is the block's position in the partition and decides where its
// result is written back.
type Block struct {
	Index int
	Y0    int
	Y1    int
}

// Rows returns the number of rows in the block.
func (b Block) Rows() int {
	return b.Y1 - b.Y0
}

func (b Block) String() string {
	return fmt.Sprintf("block %d [rows %d:%d]", b.Index, b.Y0, b.Y1)
}
