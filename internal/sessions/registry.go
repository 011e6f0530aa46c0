// Package sessions keeps the live game sessions of the server and records
// their runs.
package sessions

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/countdown"
	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/randutil"
	"github.com/vancomm/dungeon-sweeper/internal/repository"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrFull     = errors.New("too many live sessions")
)

// RunSaver persists run progress.
type RunSaver interface {
	SaveRun(ctx context.Context, params repository.SaveRunParams) (*repository.Run, error)
}

// Entry is a live session and the run it is currently playing.
type Entry struct {
	ID       uuid.UUID
	PlayerId *int64
	Session  *game.Session

	mu        sync.Mutex
	runId     uuid.UUID
	startedAt time.Time
}

func (e *Entry) Run() (id uuid.UUID, startedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runId, e.startedAt
}

func (e *Entry) newRun(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runId = uuid.New()
	e.startedAt = now
}

type Options struct {
	Rules   game.Rules
	Clock   countdown.Clock
	Saver   RunSaver
	Log     logrus.FieldLogger
	MaxSize int
	// NewRand seeds each session; nil uses a random seed.
	NewRand func() *rand.Rand
}

type Registry struct {
	mu       sync.RWMutex
	opts     Options
	sessions map[uuid.UUID]*Entry
}

func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = countdown.SystemClock{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Registry{opts: opts, sessions: make(map[uuid.UUID]*Entry)}
}

// Create starts a session for the player, or an anonymous one when playerId
// is nil. The bleed starts with the first reveal, and every decided floor is
// saved as run progress.
func (r *Registry) Create(playerId *int64) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.MaxSize > 0 && len(r.sessions) >= r.opts.MaxSize {
		return nil, ErrFull
	}

	e := &Entry{ID: uuid.New(), PlayerId: playerId}
	e.newRun(r.opts.Clock.Now())
	log := r.opts.Log.WithField("session_id", e.ID)

	rnd := r.newRand()
	s, err := game.NewSession(r.opts.Rules, rnd, r.opts.Clock, game.Listeners{
		OnGameStarted: func() {
			if err := e.Session.StartBleed(); err != nil {
				log.WithError(err).Warn("unable to start bleed")
			}
		},
		OnGameOver: func(items character.Items) {
			log.WithField("super_stars", items.SuperStar).Info("game over")
			status := repository.RunActive
			if items.SuperStar == 0 {
				status = repository.RunGameOver
			}
			r.save(e, status, log)
		},
		OnGameRankCompleted: func() {
			log.Info("floor cleared")
			r.save(e, repository.RunCleared, log)
		},
		OnGameRestart: func() {
			e.newRun(r.opts.Clock.Now())
		},
	})
	if err != nil {
		return nil, err
	}
	e.Session = s
	r.sessions[e.ID] = e
	log.Debug("session created")
	return e, nil
}

func (r *Registry) newRand() *rand.Rand {
	if r.opts.NewRand != nil {
		return r.opts.NewRand()
	}
	return randutil.New()
}

func (r *Registry) Get(id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete drops the session and stops its bleed.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.Session.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) save(e *Entry, status string, log logrus.FieldLogger) {
	if r.opts.Saver == nil {
		return
	}
	snap := e.Session.Snapshot()
	state, err := snap.Encode()
	if err != nil {
		log.WithError(err).Error("unable to encode run state")
		return
	}

	runId, startedAt := e.Run()
	var endedAt *time.Time
	if status == repository.RunGameOver {
		now := r.opts.Clock.Now()
		endedAt = &now
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.opts.Saver.SaveRun(ctx, repository.SaveRunParams{
		RunId:     runId,
		PlayerId:  e.PlayerId,
		Rank:      snap.Rank,
		Hp:        snap.HP,
		BoardSize: snap.Size,
		MineCount: snap.MineCount,
		Status:    status,
		State:     state,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}); err != nil {
		log.WithError(err).Error("unable to save run")
	}
}
