// Package app wires configuration, storage and handlers into the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/countdown"
	"github.com/vancomm/dungeon-sweeper/internal/database"
	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
	"github.com/vancomm/dungeon-sweeper/internal/repository"
	"github.com/vancomm/dungeon-sweeper/internal/sessions"
)

type App struct {
	log      *logrus.Logger
	config   *config.Config
	router   *http.ServeMux
	db       *pgxpool.Pool
	repo     *repository.Queries
	cookies  *config.Cookies
	registry *sessions.Registry
}

func New(c *config.Config, log *logrus.Logger) *App {
	mines.Log = log
	character.Log = log
	game.Log = log
	return &App{
		log:    log,
		config: c,
		router: http.NewServeMux(),
	}
}

// Rules turns the game section of the configuration into session rules.
func Rules(c config.GameConfig) game.Rules {
	return game.Rules{
		Limits: mines.Limits{MinSize: c.MinSize, MinMines: c.MinMines},
		Character: character.Config{
			MaxHP:          c.MaxHP,
			TicksPerHP:     c.TicksPerHP,
			SuperStarLimit: c.SuperStarLimit,
		},
		XRayDuration: c.XRayDuration.Duration,
	}
}

func (a *App) Start(ctx context.Context) error {
	var traceLog logrus.FieldLogger
	if a.config.Development() {
		traceLog = a.log.WithField("component", "pgx")
	}
	db, _, err := database.ConnectAndMigrate(ctx, a.config.Postgres, traceLog)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer db.Close()
	a.db = db
	a.repo = repository.New(db)

	jwt, err := config.NewJWT(a.config.Jwt)
	if err != nil {
		return err
	}
	a.cookies = config.NewCookies(a.config, jwt)

	a.registry = sessions.NewRegistry(sessions.Options{
		Rules:   Rules(a.config.Game),
		Clock:   countdown.SystemClock{},
		Saver:   a.repo,
		Log:     a.log,
		MaxSize: a.config.Game.MaxSessions,
	})

	server := &http.Server{
		Addr:    a.config.Addr,
		Handler: a.loadRoutes(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", a.config.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
