// Package character keeps the player's HP, rank and consumables, and bleeds
// HP over time.
package character

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/countdown"
)

var Log logrus.FieldLogger = logrus.StandardLogger()

type Config struct {
	MaxHP          int
	TicksPerHP     int // seconds of bleeding per lost HP
	SuperStarLimit int
}

func DefaultConfig() Config {
	return Config{MaxHP: 5, TicksPerHP: 10, SuperStarLimit: 3}
}

type Items struct {
	TimeMachine int `json:"time_machine"`
	SuperStar   int `json:"super_star"`
}

// Character is safe for concurrent use: bleed ticks arrive on the
// countdown's goroutine.
type Character struct {
	mu         sync.Mutex
	cfg        Config
	hp         int
	rank       int
	items      Items
	bleed      *countdown.Countdown
	onDepleted func()
}

func New(cfg Config, clock countdown.Clock) *Character {
	if cfg.TicksPerHP <= 0 {
		cfg.TicksPerHP = 1
	}
	c := &Character{cfg: cfg}
	c.bleed = countdown.New(cfg.MaxHP*cfg.TicksPerHP, clock, countdown.Options{
		OnTick:   c.bleedTick,
		OnExpire: c.bleedOut,
	})
	c.reset()
	return c
}

// OnDepleted registers f to run when bleeding takes HP to zero. f runs on
// the bleed goroutine with no character lock held.
func (c *Character) OnDepleted(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDepleted = f
}

func (c *Character) HP() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hp
}

func (c *Character) Rank() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rank
}

func (c *Character) SetRank(rank int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rank = max(1, rank)
}

func (c *Character) Items() Items {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// UpdateHp adds delta to HP, clamped to [0, MaxHP], and returns the new HP.
// Reaching zero stops the bleed without calling the OnDepleted hook; only
// the bleed reports depletion.
func (c *Character) UpdateHp(delta int) int {
	c.mu.Lock()
	c.hp = min(c.cfg.MaxHP, max(0, c.hp+delta))
	hp := c.hp
	c.mu.Unlock()

	if hp == 0 {
		c.bleed.Stop(true)
	}
	return hp
}

// Heal restores full HP.
func (c *Character) Heal() int {
	return c.UpdateHp(c.cfg.MaxHP)
}

// UpdateItems replaces the items with transform's result. transform gets a
// copy, so observers never see a half-applied change.
func (c *Character) UpdateItems(transform func(Items) Items) Items {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = transform(c.items)
	return c.items
}

func (c *Character) StartBleed() {
	if err := c.bleed.Start(); err != nil {
		Log.WithError(err).Debug("bleed already running")
	}
}

func (c *Character) StopBleed() {
	c.bleed.Stop(true)
}

func (c *Character) Bleeding() bool {
	return c.bleed.Running()
}

// BleedRemaining reports the seconds left before the bleed drains all HP.
func (c *Character) BleedRemaining() int {
	return c.bleed.Counter()
}

// Reset stops the bleed and restores rank 1, full HP and the starting items.
func (c *Character) Reset() {
	c.bleed.Stop(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Character) reset() {
	c.rank = 1
	c.hp = c.cfg.MaxHP
	c.items = Items{TimeMachine: 1, SuperStar: c.cfg.SuperStarLimit}
}

func (c *Character) bleedTick(counter int) {
	if counter%c.cfg.TicksPerHP != 0 {
		return
	}
	c.mu.Lock()
	if c.hp == 0 {
		c.mu.Unlock()
		return
	}
	c.hp--
	hp := c.hp
	hook := c.onDepleted
	c.mu.Unlock()

	Log.WithField("hp", hp).Debug("bleed")
	if hp > 0 {
		return
	}
	c.bleed.Stop(true)
	if hook != nil {
		hook()
	}
}

func (c *Character) bleedOut() {
	c.mu.Lock()
	wasAlive := c.hp > 0
	c.hp = 0
	hook := c.onDepleted
	c.mu.Unlock()

	if wasAlive && hook != nil {
		hook()
	}
}
