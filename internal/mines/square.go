package mines

import "fmt"

type Square struct {
	Mine     bool `json:"mine"`
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
	// Adjacent is the number of mined neighbours; meaningless on a mine.
	Adjacent int `json:"adjacent"`
}

type State int8

const (
	NotStarted State = iota
	Active
	GameOver
	Victory
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Active:
		return "active"
	case GameOver:
		return "game_over"
	case Victory:
		return "victory"
	default:
		return "unknown"
	}
}

// MarshalText lets State travel as a string in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for v := NotStarted; v <= Victory; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown board state %q", text)
}
