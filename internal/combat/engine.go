// Package combat resolves attacks, defenses, spells and initiative on top of
// the dice engine, and keeps an append-only log of every resolution.
//
// An Engine is not safe for concurrent use.
package combat

import (
	"errors"
	"time"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

var (
	ErrNoTarget       = errors.New("no target")
	ErrTargetDown     = errors.New("target is already down")
	ErrAttackerDown   = errors.New("attacker is down")
	ErrUnknownDefense = errors.New("unknown defense mode")
	ErrSlotTooLow     = errors.New("spell slot is below the spell's level")
)

// Engine resolves combat actions.
type Engine struct {
	roller  *dice.Roller
	log     []LogEntry
	stances map[string]DefenseOutcome
	now     func() time.Time
}

// NewEngine returns an engine drawing from roller.
func NewEngine(roller *dice.Roller) *Engine {
	if roller == nil {
		roller = dice.NewRoller(nil)
	}
	return &Engine{
		roller:  roller,
		stances: make(map[string]DefenseOutcome),
		now:     time.Now,
	}
}

// Roller exposes the engine's dice roller to handlers that roll outside of
// combat resolution.
func (e *Engine) Roller() *dice.Roller {
	return e.roller
}

// CheckOutcome is a d20 ability check against a DC.
type CheckOutcome struct {
	ActorID    string      `json:"actorId"`
	Ability    string      `json:"ability"`
	Skill      string      `json:"skill,omitempty"`
	DC         int         `json:"dc"`
	Roll       dice.Result `json:"roll"`
	Success    bool        `json:"success"`
	Proficient bool        `json:"proficient"`
}

// CheckOptions tunes an ability check.
type CheckOptions struct {
	Skill        string
	Advantage    bool
	Disadvantage bool
}

// Check rolls d20 + ability modifier, plus proficiency when the combatant is
// proficient in opts.Skill, against dc.
func (e *Engine) Check(c *data.Combatant, ability string, dc int, opts CheckOptions) CheckOutcome {
	ability = data.NormalizeAbility(ability)
	bonus := c.Modifier(ability)
	proficient := opts.Skill != "" && c.Proficient(opts.Skill)
	if proficient {
		bonus += c.ProficiencyBonus
	}
	roll := e.roller.Pair(dice.Expression{Count: 1, Sides: 20, Modifier: bonus}, opts.Advantage, opts.Disadvantage)
	return CheckOutcome{
		ActorID:    c.ID,
		Ability:    ability,
		Skill:      opts.Skill,
		DC:         dc,
		Roll:       roll.Result,
		Success:    roll.Total >= dc,
		Proficient: proficient,
	}
}

func (e *Engine) append(entry LogEntry) {
	entry.Seq = len(e.log) + 1
	entry.Timestamp = e.now()
	e.log = append(e.log, entry)
}

// ClearLog drops the combat log and any pending defensive stances.
func (e *Engine) ClearLog() {
	e.log = nil
	e.stances = make(map[string]DefenseOutcome)
}
