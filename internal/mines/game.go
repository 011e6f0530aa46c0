package mines

import "github.com/gammazero/deque"

// Outcome reports what a single board operation changed. The flags are
// transitions: GameOver is set only by the call that ended the game.
type Outcome struct {
	Started  bool  `json:"started,omitempty"`
	GameOver bool  `json:"game_over,omitempty"`
	Victory  bool  `json:"victory,omitempty"`
	Revealed []int `json:"revealed,omitempty"`
}

func (o *Outcome) merge(other Outcome) {
	o.Started = o.Started || other.Started
	o.GameOver = o.GameOver || other.GameOver
	o.Victory = o.Victory || other.Victory
	o.Revealed = append(o.Revealed, other.Revealed...)
}

// Reveal opens the square at i. The first reveal of a board places the mines
// around it. Revealing a flagged or already open square does nothing, as
// does any reveal once the game is decided.
func (b *Board) Reveal(i int) (out Outcome) {
	if b.gameOver || b.victory || !b.valid(i) {
		return
	}
	sq := &b.squares[i]
	if sq.Revealed || sq.Flagged {
		return
	}
	if !b.started {
		b.placeMines(i)
		b.started = true
		out.Started = true
	}

	if sq.Mine {
		/*
		 * Expose the mine that killed the player but not the rest, so
		 * the step can be undone.
		 */
		sq.Revealed = true
		b.gameOver = true
		b.lastMine = i
		out.GameOver = true
		out.Revealed = []int{i}
		return
	}

	if sq.Adjacent > 0 {
		sq.Revealed = true
		out.Revealed = []int{i}
	} else {
		out.Revealed = b.floodReveal(i)
	}
	out.Victory = b.updateVictory()
	return
}

// floodReveal opens the zero region connected to origin together with its
// numbered border, returning the squares it opened.
func (b *Board) floodReveal(origin int) (opened []int) {
	var queue deque.Deque[int]
	queue.PushBack(origin)

	for queue.Len() > 0 {
		i := queue.PopFront()
		sq := &b.squares[i]
		if sq.Revealed {
			continue
		}
		sq.Revealed = true
		opened = append(opened, i)
		if sq.Flagged {
			sq.Flagged = false
			b.flagsRemaining++
		}
		if sq.Adjacent == 0 {
			for _, j := range b.neighbors(i) {
				if !b.squares[j].Revealed {
					queue.PushBack(j)
				}
			}
		}
	}
	return
}

// ToggleFlag plants or lifts a flag on a covered square. A new flag needs a
// free flag slot; lifting one is always allowed.
func (b *Board) ToggleFlag(i int) (out Outcome) {
	if b.gameOver || b.victory || !b.valid(i) {
		return
	}
	sq := &b.squares[i]
	if sq.Revealed {
		return
	}
	if !sq.Flagged && b.flagsRemaining == 0 {
		return
	}
	sq.Flagged = !sq.Flagged
	if sq.Flagged {
		b.flagsRemaining--
	} else {
		b.flagsRemaining++
	}
	out.Victory = b.updateVictory()
	return
}

// Chord reveals every covered, unflagged neighbour of an open numbered square
// once the number of flags around it matches its number. A misplaced flag
// makes this fatal.
func (b *Board) Chord(i int) (out Outcome) {
	if b.gameOver || b.victory || !b.valid(i) {
		return
	}
	sq := b.squares[i]
	if !sq.Revealed || sq.Adjacent == 0 {
		return
	}

	neighbors := b.neighbors(i)
	flagged := 0
	for _, j := range neighbors {
		if b.squares[j].Flagged {
			flagged++
		}
	}
	if flagged != sq.Adjacent {
		return
	}

	for _, j := range neighbors {
		if n := b.squares[j]; !n.Revealed && !n.Flagged {
			out.merge(b.Reveal(j))
		}
	}
	return
}

// CheckVictory reports whether every safe square is open.
func (b *Board) CheckVictory() bool {
	for _, sq := range b.squares {
		if !sq.Mine && !sq.Revealed {
			return false
		}
	}
	return true
}

// updateVictory records the victory state and reports whether it was just
// reached.
func (b *Board) updateVictory() bool {
	was := b.victory
	b.victory = b.started && b.CheckVictory()
	return b.victory && !was
}

// ShowAllMines opens every mine, leaving flags and counters alone.
func (b *Board) ShowAllMines() {
	for i := range b.squares {
		if b.squares[i].Mine {
			b.squares[i].Revealed = true
		}
	}
}

// FlagAllMines flags every mine and uses up all flags.
func (b *Board) FlagAllMines() {
	for i := range b.squares {
		if b.squares[i].Mine {
			b.squares[i].Flagged = true
		}
	}
	b.flagsRemaining = 0
}

// RestorePreviousStep undoes the reveal that ended the game: the fatal mine
// is covered again and play resumes. Flags and other squares are not
// restored. It reports whether there was a game over to undo.
func (b *Board) RestorePreviousStep() bool {
	if !b.gameOver {
		return false
	}
	b.gameOver = false
	if b.lastMine >= 0 {
		b.squares[b.lastMine].Revealed = false
		b.lastMine = -1
	}
	return true
}

// ForceGameOver ends the game from outside the board.
func (b *Board) ForceGameOver() (out Outcome) {
	if b.gameOver || b.victory {
		return
	}
	b.gameOver = true
	out.GameOver = true
	return
}
