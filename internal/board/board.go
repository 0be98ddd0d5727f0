// Package board implements the connect-four rules: gravity drops and win
// detection. It is pure - no I/O, no state - so both the game service and its
// tests share one authority on the rules.
package board

import "errors"

var ErrColumnFull = errors.New("column full")
var ErrBadColumn = errors.New("column out of range")

const (
	Rows = 6
	Cols = 7
)

// Seat is a player's fixed position within a room, 0 or 1. It determines
// the piece value on the board and the turn order.
type Seat int

const (
	Seat0 Seat = 0
	Seat1 Seat = 1
)

// Cell is the board value for this seat's pieces: seat index + 1.
// Zero marks an empty cell.
func (s Seat) Cell() int { return int(s) + 1 }

// Other returns the opposing seat.
func (s Seat) Other() Seat { return 1 - s }

// Board is the 6x7 grid, row 0 at the top. Cells hold 0 (empty) or a
// Seat.Cell() value. Value semantics keep callers from aliasing grids.
type Board [Rows][Cols]int

// Drop places seat's piece in the lowest empty cell of col and returns the
// row it landed in together with the new board.
func Drop(b Board, col int, seat Seat) (int, Board, error) {
	if col < 0 || col >= Cols {
		return 0, b, ErrBadColumn
	}
	for row := Rows - 1; row >= 0; row-- {
		if b[row][col] == 0 {
			b[row][col] = seat.Cell()
			return row, b, nil
		}
	}
	return 0, b, ErrColumnFull
}

// Wins reports whether the piece just placed at (row, col) completes a run of
// four or more. Only the four axes through that cell are examined; the rest
// of the board is never rescanned.
func Wins(b Board, row, col int, seat Seat) bool {
	axes := [4][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{-1, 1}, // diagonal up-right
		{1, 1},  // diagonal down-right
	}
	for _, a := range axes {
		total := 1 + run(b, row, col, a[0], a[1], seat) + run(b, row, col, -a[0], -a[1], seat)
		if total >= 4 {
			return true
		}
	}
	return false
}

// run counts contiguous same-seat cells walking from (row, col) in direction
// (dr, dc), excluding the origin. It stops at the first boundary or
// mismatched cell.
func run(b Board, row, col, dr, dc int, seat Seat) int {
	n := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < Rows && c >= 0 && c < Cols && b[r][c] == seat.Cell() {
		n++
		r += dr
		c += dc
	}
	return n
}
