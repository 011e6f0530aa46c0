package mines

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

var Log logrus.FieldLogger = logrus.StandardLogger()

// MaxSize caps the side length the game ever asks for.
const MaxSize = 16

type Limits struct {
	MinSize  int
	MinMines int
}

// Board is a square minesweeper grid. Mines are placed on the first reveal,
// never under the revealed square.
//
// A Board is not safe for concurrent use.
type Board struct {
	limits         Limits
	rnd            *rand.Rand
	size           int
	mineCount      int
	flagsRemaining int
	squares        []Square
	started        bool
	gameOver       bool
	victory        bool
	lastMine       int
}

// NewBoard returns a blank board of the minimum size and mine count.
func NewBoard(limits Limits, r *rand.Rand) *Board {
	b := &Board{limits: limits, rnd: r, lastMine: -1}
	if err := b.Restart(limits.MinSize, limits.MinMines); err != nil {
		Log.WithError(err).Warn("minimum board limits are not playable")
	}
	return b
}

// Restart replaces every square with a blank one. On error the board is left
// as it was.
func (b *Board) Restart(size, mineCount int) error {
	switch {
	case size <= 0 || size < b.limits.MinSize:
		return &ConfigurationError{size, mineCount, "board is below the minimum size"}
	case mineCount < b.limits.MinMines:
		return &ConfigurationError{size, mineCount, "mine count is below the minimum"}
	case mineCount >= size*size:
		return &ConfigurationError{size, mineCount, "mines must leave at least one free square"}
	}

	b.size = size
	b.mineCount = mineCount
	b.flagsRemaining = mineCount
	b.squares = make([]Square, size*size)
	b.started = false
	b.gameOver = false
	b.victory = false
	b.lastMine = -1
	return nil
}

func (b *Board) Size() int           { return b.size }
func (b *Board) MineCount() int      { return b.mineCount }
func (b *Board) FlagsRemaining() int { return b.flagsRemaining }
func (b *Board) Started() bool       { return b.started }
func (b *Board) GameOver() bool      { return b.gameOver }
func (b *Board) Victory() bool       { return b.victory }

// Squares returns a copy of the grid in row-major order.
func (b *Board) Squares() []Square {
	squares := make([]Square, len(b.squares))
	copy(squares, b.squares)
	return squares
}

// Square returns the square at i; ok is false when i is off the board.
func (b *Board) Square(i int) (sq Square, ok bool) {
	if !b.valid(i) {
		return Square{}, false
	}
	return b.squares[i], true
}

func (b *Board) State() State {
	switch {
	case b.gameOver:
		return GameOver
	case b.victory:
		return Victory
	case b.started:
		return Active
	default:
		return NotStarted
	}
}

// LastRevealedMine returns the mine whose reveal ended the game, if any.
func (b *Board) LastRevealedMine() (int, bool) {
	return b.lastMine, b.lastMine >= 0
}

func (b *Board) valid(i int) bool {
	return 0 <= i && i < len(b.squares)
}

// neighbors returns the indices of the up to eight squares around i.
func (b *Board) neighbors(i int) []int {
	row, col := i/b.size, i%b.size
	ns := make([]int, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r >= 0 && r < b.size && c >= 0 && c < b.size {
				ns = append(ns, r*b.size+c)
			}
		}
	}
	return ns
}
