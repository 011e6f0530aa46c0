package handlers

import (
	"github.com/gorilla/schema"

	"github.com/vancomm/dungeon-sweeper/internal/game"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
	"github.com/vancomm/dungeon-sweeper/internal/sessions"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type IndexQuery struct {
	Index int `schema:"index,required"`
}

type RecordsQuery struct {
	Username string `schema:"username"`
	Limit    int    `schema:"limit"`
}

type SessionDTO struct {
	SessionId string         `json:"session_id"`
	RunId     string         `json:"run_id"`
	StartedAt int64          `json:"started_at"`
	State     game.Snapshot  `json:"state"`
	Outcome   *mines.Outcome `json:"outcome,omitempty"`
	Safe      *bool          `json:"safe,omitempty"`
}

func NewSessionDTO(e *sessions.Entry) *SessionDTO {
	runId, startedAt := e.Run()
	return &SessionDTO{
		SessionId: e.ID.String(),
		RunId:     runId.String(),
		StartedAt: startedAt.UnixMilli(),
		State:     e.Session.Snapshot(),
	}
}
