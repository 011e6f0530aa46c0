// Package game couples a board, a character and a skill set into one
// playable session.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/countdown"
	"github.com/vancomm/dungeon-sweeper/internal/dungeon"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
)

var Log logrus.FieldLogger = logrus.StandardLogger()

var (
	ErrNoRevivalItem   = errors.New("no revival item left")
	ErrNotGameOver     = errors.New("game is not over")
	ErrNotStarted      = errors.New("board has not started")
	ErrGameDecided     = errors.New("game is already decided")
	ErrInvalidIndex    = errors.New("square index out of range")
	ErrFloorNotCleared = errors.New("floor is not cleared yet")
)

// Listeners are called synchronously after the operation that triggered
// them has released the session, so they may call back into it. Any of them
// may be nil.
type Listeners struct {
	OnGameStarted       func()
	OnGameOver          func(items character.Items)
	OnGameRankCompleted func()
	OnGameRestart       func()
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	rules     Rules
	rnd       *rand.Rand
	board     *mines.Board
	char      *character.Character
	skills    *dungeon.Skills
	xray      *dungeon.RevealWindow
	listeners Listeners
}

func NewSession(rules Rules, r *rand.Rand, clock countdown.Clock, listeners Listeners) (*Session, error) {
	s := &Session{
		rules:     rules,
		rnd:       r,
		board:     mines.NewBoard(rules.Limits, r),
		char:      character.New(rules.Character, clock),
		skills:    dungeon.NewSkills(),
		xray:      dungeon.NewRevealWindow(clock),
		listeners: listeners,
	}
	if err := s.newFloor(); err != nil {
		return nil, err
	}
	s.char.OnDepleted(s.bleedOut)
	return s, nil
}

// events collects listener calls made while the session is locked.
type events []func()

func (ev events) fire() {
	for _, f := range ev {
		f()
	}
}

func (s *Session) newFloor() error {
	size, mineCount := floorSize(s.rnd, s.rules.Limits, s.char.Rank(), s.char.HP())
	if err := s.board.Restart(size, mineCount); err != nil {
		return fmt.Errorf("new floor: %w", err)
	}
	Log.WithFields(logrus.Fields{
		"rank":  s.char.Rank(),
		"size":  size,
		"mines": mineCount,
	}).Debug("new floor")
	return nil
}

// settle applies the couplings between the board and the character for the
// transitions in out.
func (s *Session) settle(out mines.Outcome) (ev events) {
	if out.Started && s.listeners.OnGameStarted != nil {
		ev = append(ev, s.listeners.OnGameStarted)
	}
	if len(out.Revealed) > 0 {
		s.skills.Tick()
	}
	if out.GameOver {
		s.char.StopBleed()
		items := s.char.Items()
		if items.SuperStar == 0 {
			s.char.UpdateHp(-s.rules.Character.MaxHP)
			s.board.ShowAllMines()
		}
		if f := s.listeners.OnGameOver; f != nil {
			ev = append(ev, func() { f(items) })
		}
	}
	if out.Victory {
		s.board.FlagAllMines()
		s.char.StopBleed()
		if f := s.listeners.OnGameRankCompleted; f != nil {
			ev = append(ev, f)
		}
	}
	return ev
}

func (s *Session) bleedOut() {
	s.mu.Lock()
	var ev events
	// a restart may have healed the character while this call waited
	if s.char.HP() == 0 {
		ev = s.settle(s.board.ForceGameOver())
	}
	s.mu.Unlock()
	ev.fire()
}

func (s *Session) act(op func() mines.Outcome) mines.Outcome {
	s.mu.Lock()
	out := op()
	ev := s.settle(out)
	s.mu.Unlock()
	ev.fire()
	return out
}

func (s *Session) Reveal(i int) mines.Outcome {
	return s.act(func() mines.Outcome { return s.board.Reveal(i) })
}

func (s *Session) ToggleFlag(i int) mines.Outcome {
	return s.act(func() mines.Outcome { return s.board.ToggleFlag(i) })
}

func (s *Session) Chord(i int) mines.Outcome {
	return s.act(func() mines.Outcome { return s.board.Chord(i) })
}

// RestartGame resets the character and skills and deals a first-floor board.
func (s *Session) RestartGame() error {
	s.mu.Lock()
	s.char.Reset()
	s.skills.Reset()
	s.xray.Close()
	err := s.newFloor()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if f := s.listeners.OnGameRestart; f != nil {
		f()
	}
	return nil
}

// AdvanceFloor deals the next rank's board once the current floor is won. It
// heals one HP and ticks the skill cooldowns once.
func (s *Session) AdvanceFloor() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board.State() != mines.Victory {
		return ErrFloorNotCleared
	}
	s.char.StopBleed()
	s.xray.Close()
	s.char.SetRank(s.char.Rank() + 1)
	if err := s.newFloor(); err != nil {
		return err
	}
	s.char.UpdateHp(1)
	s.skills.Tick()
	return nil
}

// ConsumeRevivalItem spends a super star to undo the fatal step, heals fully
// and resumes the bleed.
func (s *Session) ConsumeRevivalItem() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.board.GameOver() {
		return ErrNotGameOver
	}
	if s.char.Items().SuperStar == 0 {
		return ErrNoRevivalItem
	}
	if !s.board.RestorePreviousStep() {
		return ErrNotGameOver
	}
	s.char.UpdateItems(func(it character.Items) character.Items {
		it.SuperStar--
		return it
	})
	s.char.Heal()
	if s.board.Started() {
		s.char.StartBleed()
	}
	return nil
}

func (s *Session) ShowAllMines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.ShowAllMines()
}

// StartBleed starts the HP bleed while the board is in play.
func (s *Session) StartBleed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board.State() != mines.Active {
		return ErrNotStarted
	}
	s.char.StartBleed()
	return nil
}

// XRay spends an X-Ray charge to show every mine for a while.
func (s *Session) XRay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board.GameOver() || s.board.Victory() {
		return ErrGameDecided
	}
	if err := s.useSkill(dungeon.SkillXRay); err != nil {
		return err
	}
	s.xray.Open(s.rules.XRayDuration)
	return nil
}

// Scan spends a Scan charge and reports whether square i is free of mines.
func (s *Session) Scan(i int) (safe bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.board.State() {
	case mines.NotStarted:
		return false, ErrNotStarted
	case mines.GameOver, mines.Victory:
		return false, ErrGameDecided
	}
	sq, ok := s.board.Square(i)
	if !ok {
		return false, ErrInvalidIndex
	}
	if err := s.useSkill(dungeon.SkillScan); err != nil {
		return false, err
	}
	return !sq.Mine, nil
}

func (s *Session) useSkill(id string) error {
	if err := s.skills.Use(id); err != nil {
		return err
	}
	if sk, ok := s.skills.Get(id); ok {
		Log.WithFields(logrus.Fields{
			"skill":   sk.ID,
			"charges": sk.Charges.String(),
		}).Debug("skill used")
	}
	return nil
}

// Close stops the bleed and the X-Ray window of a session that is no longer
// played.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.char.StopBleed()
	s.xray.Close()
}
