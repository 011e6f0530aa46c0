package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
)

func TestRulesFromConfig(t *testing.T) {
	c := config.Default().Game
	c.MinSize = 9
	c.XRayDuration = config.Duration{Duration: 2 * time.Second}

	rules := Rules(c)

	assert.Equal(t, mines.Limits{MinSize: 9, MinMines: 10}, rules.Limits)
	assert.Equal(t, character.Config{MaxHP: 5, TicksPerHP: 10, SuperStarLimit: 3}, rules.Character)
	assert.Equal(t, 2*time.Second, rules.XRayDuration)
}
