package command

import (
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/rules"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// base carries what every handler shares: its catalog entry, the table it
// acts on and the formula registry for prerequisites. Concrete handlers
// embed it and add Execute.
type base struct {
	def   dispatch.FunctionDef
	table *game.Table
	rules *rules.Registry
}

// Validate checks the catalog parameter rules and then the prerequisite
// formula. The formula only runs once the parameters are well formed.
func (b *base) Validate(params dispatch.Params) []error {
	errs := dispatch.ValidateParams(b.def, params)
	if len(errs) > 0 || b.def.Prereq == "" || b.rules == nil {
		return errs
	}
	ok, err := b.rules.Check(b.def.Prereq, map[string]any{"params": map[string]any(params)})
	if err != nil {
		return []error{fmt.Errorf("prerequisite: %w", err)}
	}
	if !ok {
		return []error{fmt.Errorf("prerequisite not met: %s", b.def.Prereq)}
	}
	return nil
}

func (b *base) RequiredContext() []string { return nil }

func (b *base) Describe() dispatch.FunctionDef { return b.def }

// restricted marks a handler as gated behind allowUnsafeFunctions.
type restricted struct{}

func (restricted) Restricted() bool { return true }

// actor resolves the acting combatant from the request context and checks
// that it may act now.
func actor(s *game.State, actx dispatch.ActionContext) (*data.Combatant, error) {
	c, err := s.Combatant(actx.ParticipantID())
	if err != nil {
		return nil, err
	}
	if err := s.CheckTurn(c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func record(s *game.State, id string, kind turn.Kind, desc string) turn.ActionRecord {
	return s.Scheduler.RecordAction(turn.ActionRecord{ParticipantID: id, Kind: kind, Description: desc})
}

// flags reads the advantage/disadvantage pair.
func flags(p dispatch.Params) (adv, dis bool) {
	return p.BoolOr("advantage", false), p.BoolOr("disadvantage", false)
}
