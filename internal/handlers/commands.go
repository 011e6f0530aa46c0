package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vancomm/dungeon-sweeper/internal/game"
)

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0, // get
	"o": 1, // open
	"f": 1, // flag
	"c": 1, // chord
	"r": 0, // revive
	"n": 0, // next floor
	"x": 0, // x-ray
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrCommandNargs   = errors.New("invalid number of arguments")
)

func parseIndex(s string, size int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("argument must be an int")
	}
	if i < 0 || i >= size*size {
		return 0, game.ErrInvalidIndex
	}
	return i, nil
}

// executeCommand runs one text command against the session. Refused actions
// come back as errors; the connection stays usable.
func executeCommand(s *game.Session, c string) error {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return ErrUnknownCommand
	}
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return ErrUnknownCommand
	}
	if nargs != len(parts)-1 {
		return ErrCommandNargs
	}
	switch parts[0] {
	case "g":
		return nil
	case "o", "f", "c":
		i, err := parseIndex(parts[1], s.Snapshot().Size)
		if err != nil {
			return err
		}
		switch parts[0] {
		case "o":
			s.Reveal(i)
		case "f":
			s.ToggleFlag(i)
		case "c":
			s.Chord(i)
		}
		return nil
	case "r":
		return s.ConsumeRevivalItem()
	case "n":
		return advance(s)
	case "x":
		return s.XRay()
	}
	return ErrUnknownCommand
}
