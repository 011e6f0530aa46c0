package game

import (
	"bytes"
	"encoding/gob"

	"github.com/vancomm/dungeon-sweeper/internal/character"
	"github.com/vancomm/dungeon-sweeper/internal/dungeon"
	"github.com/vancomm/dungeon-sweeper/internal/mines"
)

type Snapshot struct {
	HP             int             `json:"hp"`
	MaxHP          int             `json:"max_hp"`
	Rank           int             `json:"rank"`
	Items          character.Items `json:"items"`
	Bleeding       bool            `json:"bleeding"`
	BleedRemaining int             `json:"bleed_remaining"`
	State          mines.State     `json:"state"`
	Size           int             `json:"size"`
	MineCount      int             `json:"mine_count"`
	FlagsRemaining int             `json:"flags_remaining"`
	Squares        []mines.Square  `json:"squares"`
	Skills         []dungeon.Skill `json:"skills"`
	MinesVisible   bool            `json:"mines_visible"`
}

// Snapshot returns a copy of the session state. Mines and counts of
// unopened squares are hidden while the game is in play, unless an X-Ray is
// active.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.board.State()
	visible := s.xray.Visible()
	squares := s.board.Squares()
	if state != mines.GameOver && state != mines.Victory {
		for i, sq := range squares {
			if sq.Revealed {
				continue
			}
			squares[i] = mines.Square{Flagged: sq.Flagged, Mine: visible && sq.Mine}
		}
	}

	return Snapshot{
		HP:             s.char.HP(),
		MaxHP:          s.rules.Character.MaxHP,
		Rank:           s.char.Rank(),
		Items:          s.char.Items(),
		Bleeding:       s.char.Bleeding(),
		BleedRemaining: s.char.BleedRemaining(),
		State:          state,
		Size:           s.board.Size(),
		MineCount:      s.board.MineCount(),
		FlagsRemaining: s.board.FlagsRemaining(),
		Squares:        squares,
		Skills:         s.skills.List(),
		MinesVisible:   visible,
	}
}

// Encode serializes the snapshot for storage.
func (s Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&s)
	return s, err
}
