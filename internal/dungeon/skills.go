package dungeon

import (
	"encoding/json"
	"fmt"
)

const (
	SkillScan = "scan"
	SkillXRay = "xray"
)

type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Cooldown is counted in board actions, not seconds.
	Cooldown        int     `json:"cooldown"`
	CurrentCooldown int     `json:"current_cooldown"`
	Charges         Charges `json:"charges"`
}

func (s Skill) Ready() bool {
	if s.CurrentCooldown > 0 {
		return false
	}
	_, ok := s.Charges.Use()
	return ok
}

type skillJSON Skill

// MarshalJSON adds the skill's readiness to its fields.
func (s Skill) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		skillJSON
		Ready bool `json:"ready"`
	}{skillJSON(s), s.Ready()})
}

// Loadout returns the skills a fresh character starts with.
func Loadout() []Skill {
	return []Skill{
		{ID: SkillScan, Name: "Scan", Cooldown: 3, Charges: Limited(3)},
		{ID: SkillXRay, Name: "X-Ray", Cooldown: 10, Charges: Limited(1)},
	}
}

// Skills is the character's skill set. It is not safe for concurrent use.
type Skills struct {
	list []Skill
}

func NewSkills() *Skills {
	return &Skills{list: Loadout()}
}

func (s *Skills) find(id string) (*Skill, error) {
	for i := range s.list {
		if s.list[i].ID == id {
			return &s.list[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, id)
}

func (s *Skills) Get(id string) (Skill, bool) {
	sk, err := s.find(id)
	if err != nil {
		return Skill{}, false
	}
	return *sk, true
}

// List returns a copy of the skill set.
func (s *Skills) List() []Skill {
	return append([]Skill(nil), s.list...)
}

// Use spends a charge of the skill and starts its cooldown.
func (s *Skills) Use(id string) error {
	sk, err := s.find(id)
	if err != nil {
		return err
	}
	if sk.CurrentCooldown > 0 {
		return fmt.Errorf("%w: %d actions left", ErrCooldown, sk.CurrentCooldown)
	}
	charges, ok := sk.Charges.Use()
	if !ok {
		return ErrNoCharges
	}
	sk.Charges = charges
	sk.CurrentCooldown = sk.Cooldown
	return nil
}

// Tick counts one board action against every cooldown.
func (s *Skills) Tick() {
	for i := range s.list {
		if s.list[i].CurrentCooldown > 0 {
			s.list[i].CurrentCooldown--
		}
	}
}

func (s *Skills) Reset() {
	s.list = Loadout()
}
