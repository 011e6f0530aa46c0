package sessions

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/dungeon-sweeper/internal/countdown"
	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/repository"
)

type fakeSaver struct {
	mu   sync.Mutex
	runs []repository.SaveRunParams
}

func (f *fakeSaver) SaveRun(_ context.Context, params repository.SaveRunParams) (*repository.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, params)
	return &repository.Run{RunId: params.RunId}, nil
}

func (f *fakeSaver) saved() []repository.SaveRunParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.SaveRunParams(nil), f.runs...)
}

func newRegistry(saver RunSaver, maxSize int) *Registry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewRegistry(Options{
		Rules:   game.DefaultRules(),
		Clock:   countdown.NewManualClock(time.Unix(0, 0)),
		Saver:   saver,
		Log:     logger,
		MaxSize: maxSize,
		NewRand: func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
	})
}

func TestRegistryLifecycle(t *testing.T) {
	reg := newRegistry(nil, 2)

	a, err := reg.Create(nil)
	require.NoError(t, err)
	playerId := int64(7)
	b, err := reg.Create(&playerId)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Create(nil)
	assert.ErrorIs(t, err, ErrFull)

	got, err := reg.Get(b.ID)
	require.NoError(t, err)
	assert.Same(t, b, got)

	require.NoError(t, reg.Delete(a.ID))
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, reg.Delete(a.ID), ErrNotFound)
	_, err = reg.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFirstRevealStartsBleed(t *testing.T) {
	reg := newRegistry(nil, 0)
	e, err := reg.Create(nil)
	require.NoError(t, err)

	e.Session.Reveal(0)

	assert.True(t, e.Session.Snapshot().Bleeding)
}

func TestGameOverSavesRun(t *testing.T) {
	saver := &fakeSaver{}
	reg := newRegistry(saver, 0)
	playerId := int64(3)
	e, err := reg.Create(&playerId)
	require.NoError(t, err)

	e.Session.Reveal(0)
	require.NoError(t, e.Session.XRay())
	mine := -1
	for i, sq := range e.Session.Snapshot().Squares {
		if sq.Mine {
			mine = i
			break
		}
	}
	require.NotEqual(t, -1, mine)
	e.Session.Reveal(mine)

	runs := saver.saved()
	require.Len(t, runs, 1)
	runId, _ := e.Run()
	assert.Equal(t, runId, runs[0].RunId)
	assert.Equal(t, &playerId, runs[0].PlayerId)
	assert.Equal(t, 1, runs[0].Rank)
	assert.Equal(t, 8, runs[0].BoardSize)
	// a super star is still held, so the run goes on
	assert.Equal(t, repository.RunActive, runs[0].Status)
	assert.Nil(t, runs[0].EndedAt)

	snap, err := game.DecodeSnapshot(runs[0].State)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.HP)
}

func TestRestartStartsNewRun(t *testing.T) {
	reg := newRegistry(nil, 0)
	e, err := reg.Create(nil)
	require.NoError(t, err)
	before, _ := e.Run()

	require.NoError(t, e.Session.RestartGame())

	after, _ := e.Run()
	assert.NotEqual(t, before, after)
}
