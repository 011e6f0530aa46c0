package game

import (
	"math/rand/v2"
	"time"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
	"github.com/vancomm/dungeon-sweeper/internal/randutil"
)

type Rules struct {
	Limits       mines.Limits
	Character    character.Config
	XRayDuration time.Duration
}

func DefaultRules() Rules {
	return Rules{
		Limits:       mines.Limits{MinSize: 8, MinMines: 10},
		Character:    character.DefaultConfig(),
		XRayDuration: 3 * time.Second,
	}
}

// floorSize picks the board for a floor. The side grows by one per rank up
// to [mines.MaxSize]; the mine count is drawn from a range that widens every
// five ranks and, from rank 10 on, with the HP left.
func floorSize(r *rand.Rand, limits mines.Limits, rank, hp int) (size, mineCount int) {
	size = min(limits.MinSize+rank-1, mines.MaxSize)

	limit := rank / 5
	bonus := 0
	if limit > 1 {
		bonus = hp
	}
	ratio := randutil.Int(r, limit, limit+bonus)
	maxMines := size*size/6 + ratio

	mineCount = min(randutil.Int(r, limits.MinMines, maxMines), size*size-1)
	return size, mineCount
}
