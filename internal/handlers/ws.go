package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

type wsReply struct {
	*SessionDTO
	Errors []string `json:"errors,omitempty"`
}

// Connect upgrades to a websocket that takes newline-separated commands
// and answers every message with the session state.
func (h *Sessions) Connect(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("upgrade")
		return
	}
	defer c.Close()

	log := h.log.WithField("session_id", e.ID)
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("read")
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}
		text := strings.TrimSpace(string(message))
		log.Debug("\t> ", text)

		var reply wsReply
		for _, cmd := range byPiece(text, "\n") {
			if err := executeCommand(e.Session, cmd); err != nil {
				reply.Errors = append(reply.Errors, err.Error())
			}
		}
		reply.SessionDTO = NewSessionDTO(e)
		if err := c.WriteJSON(reply); err != nil {
			log.WithError(err).Error("write")
			return
		}
		log.Debug("\t< <session data>")
	}
}
