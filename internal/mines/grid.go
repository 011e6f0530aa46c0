package mines

import (
	"strconv"
	"strings"
)

// String draws the board for debugging: '*' mine, 'F' flag, a digit for an
// open square and '-' for a covered one.
func (b *Board) String() string {
	var sb strings.Builder
	for y := range b.size {
		for x := range b.size {
			sq := b.squares[y*b.size+x]
			switch {
			case sq.Flagged:
				sb.WriteString("F")
			case sq.Revealed && sq.Mine:
				sb.WriteString("*")
			case sq.Revealed:
				sb.WriteString(strconv.Itoa(sq.Adjacent))
			default:
				sb.WriteString("-")
			}
			if x < b.size-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
