package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/dungeon"
	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/middleware"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
	"github.com/vancomm/dungeon-sweeper/internal/sessions"
)

type Sessions struct {
	log      logrus.FieldLogger
	registry *sessions.Registry
	upgrader websocket.Upgrader
}

func NewSessions(log logrus.FieldLogger, registry *sessions.Registry) *Sessions {
	return &Sessions{
		log:      log,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				log.Debug("ws origin: ", r.Header.Get("Origin"))
				return true
			},
		},
	}
}

// statusFor maps a session error to the HTTP status it is answered with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrNoRevivalItem),
		errors.Is(err, game.ErrNotGameOver),
		errors.Is(err, game.ErrNotStarted),
		errors.Is(err, game.ErrGameDecided),
		errors.Is(err, dungeon.ErrNoCharges),
		errors.Is(err, dungeon.ErrCooldown),
		errors.Is(err, game.ErrFloorNotCleared):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Sessions) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("session request failed")
	}
	sendError(w, h.log, status, err)
}

func (h *Sessions) entry(w http.ResponseWriter, r *http.Request) (*sessions.Entry, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, fmt.Errorf("invalid session id: %w", err))
		return nil, false
	}
	e, err := h.registry.Get(id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return e, true
}

func (h *Sessions) index(w http.ResponseWriter, r *http.Request, e *sessions.Entry) (int, bool) {
	var q IndexQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return 0, false
	}
	if size := e.Session.Snapshot().Size; q.Index < 0 || q.Index >= size*size {
		h.fail(w, game.ErrInvalidIndex)
		return 0, false
	}
	return q.Index, true
}

func (h *Sessions) Create(w http.ResponseWriter, r *http.Request) {
	var playerId *int64
	if claims, ok := middleware.PlayerClaims(r); ok {
		playerId = &claims.PlayerId
	}
	e, err := h.registry.Create(playerId)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	sendJSONOrLog(w, h.log, NewSessionDTO(e))
}

func (h *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, h.log, NewSessionDTO(e))
}

func (h *Sessions) Delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	if err := h.registry.Delete(e.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move returns a handler applying a board move at the ?index= square.
func (h *Sessions) Move(move func(*game.Session, int) mines.Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := h.entry(w, r)
		if !ok {
			return
		}
		i, ok := h.index(w, r, e)
		if !ok {
			return
		}
		out := move(e.Session, i)
		dto := NewSessionDTO(e)
		dto.Outcome = &out
		sendJSONOrLog(w, h.log, dto)
	}
}

// Action returns a handler running a session action without arguments.
func (h *Sessions) Action(action func(*game.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := h.entry(w, r)
		if !ok {
			return
		}
		if err := action(e.Session); err != nil {
			h.fail(w, err)
			return
		}
		sendJSONOrLog(w, h.log, NewSessionDTO(e))
	}
}

func (h *Sessions) Scan(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	i, ok := h.index(w, r, e)
	if !ok {
		return
	}
	safe, err := e.Session.Scan(i)
	if err != nil {
		h.fail(w, err)
		return
	}
	dto := NewSessionDTO(e)
	dto.Safe = &safe
	sendJSONOrLog(w, h.log, dto)
}

func reveal(s *game.Session, i int) mines.Outcome { return s.Reveal(i) }
func flag(s *game.Session, i int) mines.Outcome   { return s.ToggleFlag(i) }
func chord(s *game.Session, i int) mines.Outcome  { return s.Chord(i) }

func restart(s *game.Session) error { return s.RestartGame() }
func revive(s *game.Session) error  { return s.ConsumeRevivalItem() }
func xray(s *game.Session) error    { return s.XRay() }
func bleed(s *game.Session) error   { return s.StartBleed() }
func advance(s *game.Session) error { return s.AdvanceFloor() }

func (h *Sessions) Reveal() http.HandlerFunc  { return h.Move(reveal) }
func (h *Sessions) Flag() http.HandlerFunc    { return h.Move(flag) }
func (h *Sessions) Chord() http.HandlerFunc   { return h.Move(chord) }
func (h *Sessions) Restart() http.HandlerFunc { return h.Action(restart) }
func (h *Sessions) Advance() http.HandlerFunc { return h.Action(advance) }
func (h *Sessions) Revive() http.HandlerFunc  { return h.Action(revive) }
func (h *Sessions) XRay() http.HandlerFunc    { return h.Action(xray) }
func (h *Sessions) Bleed() http.HandlerFunc   { return h.Action(bleed) }
