package command

import (
	"context"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// Attack resolves a weapon attack against one target.
type Attack struct{ base }

func (h *Attack) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	var out *combat.AttackOutcome
	err := h.table.Do(func(s *game.State) error {
		attacker, err := actor(s, actx)
		if err != nil {
			return err
		}
		target, err := s.Combatant(params.StringOr("to", ""))
		if err != nil {
			return err
		}
		adv, dis := flags(params)
		out, err = s.Engine.Attack(attacker, target, combat.AttackOptions{Advantage: adv, Disadvantage: dis})
		if err != nil {
			return err
		}
		s.MarkDown(target)
		record(s, attacker.ID, turn.KindAction, out.Description)
		return nil
	})
	return out, err
}

// Defend takes a dodge, block or parry stance. It may be used out of turn,
// and is recorded as a reaction when it is.
type Defend struct{ base }

func (h *Defend) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	mode, err := combat.ParseDefenseMode(params.StringOr("mode", ""))
	if err != nil {
		return nil, err
	}

	var out *combat.DefenseOutcome
	err = h.table.Do(func(s *game.State) error {
		defender, err := s.Combatant(actx.ParticipantID())
		if err != nil {
			return err
		}
		out, err = s.Engine.Defend(defender, mode)
		if err != nil {
			return err
		}
		kind := turn.KindAction
		if s.CheckTurn(defender.ID) != nil {
			kind = turn.KindReaction
		}
		record(s, defender.ID, kind, out.Description)
		return nil
	})
	return out, err
}
