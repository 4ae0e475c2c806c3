package combat

import (
	"fmt"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

// DefenseMode selects how a combatant defends.
type DefenseMode string

const (
	Dodge DefenseMode = "dodge"
	Block DefenseMode = "block"
	Parry DefenseMode = "parry"
)

const (
	DefenseDC      = 15
	BlockReduction = 2
)

// ParseDefenseMode accepts "dodge", "block" or "parry" in any case.
func ParseDefenseMode(s string) (DefenseMode, error) {
	m := DefenseMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Dodge, Block, Parry:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDefense, s)
}

// DefenseOutcome is the result of taking a defensive stance. A successful
// stance is held until the next attack against the defender.
type DefenseOutcome struct {
	DefenderID          string       `json:"defenderId"`
	Mode                DefenseMode  `json:"mode"`
	Success             bool         `json:"success"`
	Roll                *dice.Result `json:"roll,omitempty"`
	DC                  int          `json:"dc,omitempty"`
	DamageReduction     int          `json:"damageReduction,omitempty"`
	ImposesDisadvantage bool         `json:"imposesDisadvantage,omitempty"`
	Description         string       `json:"description"`
}

// Defend resolves a defensive action:
//
//	dodge  DC 15 DEX check
//	block  always succeeds, 2 damage reduction, no roll
//	parry  DC 15 STR check, fails outright without a weapon
func (e *Engine) Defend(defender *data.Combatant, mode DefenseMode) (*DefenseOutcome, error) {
	out := &DefenseOutcome{DefenderID: defender.ID, Mode: mode}

	switch mode {
	case Dodge:
		chk := e.Check(defender, data.Dex, DefenseDC, CheckOptions{})
		out.Roll, out.DC, out.Success = &chk.Roll, DefenseDC, chk.Success
		out.ImposesDisadvantage = chk.Success
	case Block:
		out.Success = true
		out.DamageReduction = BlockReduction
	case Parry:
		out.DC = DefenseDC
		if defender.Weapon != nil {
			chk := e.Check(defender, data.Str, DefenseDC, CheckOptions{})
			out.Roll, out.Success = &chk.Roll, chk.Success
			out.ImposesDisadvantage = chk.Success
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefense, mode)
	}

	out.Description = describeDefense(defender, out)
	if out.Success {
		e.stances[defender.ID] = *out
	} else {
		delete(e.stances, defender.ID)
	}

	e.append(LogEntry{Kind: EntryDefense, ActorID: defender.ID, Defense: out})
	return out, nil
}

// Stance returns the defensive stance a combatant currently holds.
func (e *Engine) Stance(id string) (DefenseOutcome, bool) {
	s, ok := e.stances[id]
	return s, ok
}

func describeDefense(defender *data.Combatant, out *DefenseOutcome) string {
	switch {
	case out.Mode == Block:
		return fmt.Sprintf("%s raises a guard, soaking %d damage from the next blow", defender.Name, out.DamageReduction)
	case out.Mode == Parry && out.Roll == nil:
		return fmt.Sprintf("%s tries to parry with no weapon in hand and fails", defender.Name)
	case out.Success:
		return fmt.Sprintf("%s %ss (%d vs DC %d): the next attack has disadvantage", defender.Name, out.Mode, out.Roll.Total, out.DC)
	}
	return fmt.Sprintf("%s fails to %s (%d vs DC %d)", defender.Name, out.Mode, out.Roll.Total, out.DC)
}
