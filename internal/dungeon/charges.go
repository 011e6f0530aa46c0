// Package dungeon holds the skill loadout and the temporary mine-visibility
// window layered over the board.
package dungeon

import (
	"encoding/json"
	"errors"
	"strconv"
)

var (
	ErrNoCharges    = errors.New("no charges left")
	ErrCooldown     = errors.New("skill is cooling down")
	ErrUnknownSkill = errors.New("unknown skill")
)

// Charges is either unlimited or a finite count of remaining uses.
type Charges struct {
	limited bool
	n       int
}

func Unlimited() Charges { return Charges{} }

func Limited(n int) Charges { return Charges{limited: true, n: max(0, n)} }

func (c Charges) IsUnlimited() bool { return !c.limited }

// Remaining returns the uses left; ok is false for unlimited charges.
func (c Charges) Remaining() (n int, ok bool) {
	return c.n, c.limited
}

// Use spends one charge and reports whether one was available.
func (c Charges) Use() (Charges, bool) {
	if !c.limited {
		return c, true
	}
	if c.n == 0 {
		return c, false
	}
	return Limited(c.n - 1), true
}

func (c Charges) String() string {
	if !c.limited {
		return "unlimited"
	}
	return strconv.Itoa(c.n)
}

// MarshalJSON encodes unlimited charges as null.
func (c Charges) MarshalJSON() ([]byte, error) {
	if !c.limited {
		return []byte("null"), nil
	}
	return json.Marshal(c.n)
}

func (c *Charges) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Unlimited()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Limited(n)
	return nil
}

func (c Charges) GobEncode() ([]byte, error) { return c.MarshalJSON() }

func (c *Charges) GobDecode(data []byte) error { return c.UnmarshalJSON(data) }
