package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/dungeon-sweeper/internal/config"
	"github.com/vancomm/dungeon-sweeper/internal/middleware"
	"github.com/vancomm/dungeon-sweeper/internal/repository"
)

type PlayerStore interface {
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
}

type Auth struct {
	log     logrus.FieldLogger
	players PlayerStore
	cookies *config.Cookies
}

func NewAuth(log logrus.FieldLogger, players PlayerStore, cookies *config.Cookies) *Auth {
	return &Auth{log: log, players: players, cookies: cookies}
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

var (
	ErrBadAuthBody        = errors.New("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = errors.New("password must not exceed 72 bytes")
	ErrUsernameTaken      = errors.New("username taken")
	ErrUsernameUnknown    = errors.New("username unknown")
	ErrWrongPassword      = errors.New("wrong password")
)

// Status may be called only to have stale cookies cleared.
func (a *Auth) Status(w http.ResponseWriter, r *http.Request) {
	status := &Status{}
	if claims, ok := middleware.PlayerClaims(r); ok {
		status.LoggedIn = true
		status.Player = &PlayerInfo{claims.PlayerId, claims.Username}
		a.log.Debug("refresh cookies")
		if err := a.cookies.SignIn(w, claims.PlayerId, claims.Username); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			a.log.WithError(err).Error("unable to refresh cookies")
			return
		}
	} else {
		a.log.Debug("could not parse cookies - clear cookies")
		a.cookies.Clear(w)
	}
	sendJSONOrLog(w, a.log, status)
}

func (a *Auth) credentials(w http.ResponseWriter, r *http.Request) (username, password string, ok bool) {
	if err := r.ParseForm(); err != nil {
		sendError(w, a.log, http.StatusBadRequest, ErrBadAuthBody)
		return "", "", false
	}
	username = r.FormValue("username")
	password = r.FormValue("password")
	if username == "" || password == "" {
		sendError(w, a.log, http.StatusBadRequest, ErrBadAuthBody)
		return "", "", false
	}
	if len(password) > 72 {
		sendError(w, a.log, http.StatusBadRequest, ErrBadPasswordTooLong)
		return "", "", false
	}
	return username, password, true
}

func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to hash password")
		return
	}

	player, err := a.players.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		sendError(w, a.log, http.StatusConflict, ErrUsernameTaken)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to insert player")
		return
	}

	a.log.WithField("username", player.Username).Info("player registered")
	a.signIn(w, player)
}

func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	player, err := a.players.FetchPlayer(r.Context(), username)
	if errors.Is(err, repository.ErrNotFound) {
		sendError(w, a.log, http.StatusNotFound, ErrUsernameUnknown)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to fetch player")
		return
	}
	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password)); err != nil {
		sendError(w, a.log, http.StatusUnauthorized, ErrWrongPassword)
		return
	}

	a.signIn(w, player)
}

func (a *Auth) signIn(w http.ResponseWriter, player *repository.Player) {
	if err := a.cookies.SignIn(w, player.PlayerId, player.Username); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.log.WithError(err).Error("unable to set player cookies")
		return
	}
	sendJSONOrLog(w, a.log, &Status{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerId, player.Username},
	})
}

func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
