package mines

import "github.com/sirupsen/logrus"

// placeMines mines exactly mineCount squares, never the one at exclude.
func (b *Board) placeMines(exclude int) {
	candidates := make([]int, 0, len(b.squares)-1)
	for i := range b.squares {
		if i != exclude {
			candidates = append(candidates, i)
		}
	}

	/*
	 * Pick mineCount off the list at random, moving the tail into each
	 * picked slot so nothing is drawn twice.
	 */
	k := len(candidates)
	for range b.mineCount {
		i := b.rnd.IntN(k)
		b.squares[candidates[i]].Mine = true
		k--
		candidates[i] = candidates[k]
	}

	b.computeAdjacency()

	Log.WithFields(logrus.Fields{
		"size":  b.size,
		"mines": b.mineCount,
		"start": exclude,
	}).Debug("mines placed")
}

func (b *Board) computeAdjacency() {
	for i := range b.squares {
		if b.squares[i].Mine {
			continue
		}
		n := 0
		for _, j := range b.neighbors(i) {
			if b.squares[j].Mine {
				n++
			}
		}
		b.squares[i].Adjacent = n
	}
}
