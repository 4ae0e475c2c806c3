package command

import (
	"context"
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

type RollResult struct {
	dice.Result
	Draws       []dice.Result `json:"draws,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Description string        `json:"description"`
}

// RollDice rolls notation. Anyone, including the GM, may roll.
type RollDice struct{ base }

func (h *RollDice) Validate(params dispatch.Params) []error {
	errs := h.base.Validate(params)
	if notation, ok := params.String("dice"); ok {
		if _, err := dice.Parse(notation); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (h *RollDice) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	expr, err := dice.Parse(params.StringOr("dice", ""))
	if err != nil {
		return nil, err
	}
	adv, dis := flags(params)

	var out *RollResult
	err = h.table.Do(func(s *game.State) error {
		pair := s.Engine.Roller().Pair(expr, adv, dis)
		out = &RollResult{Result: pair.Result, Reason: params.StringOr("reason", "")}
		if adv != dis {
			out.Draws = pair.Draws[:]
		}

		who := actx.ParticipantID()
		if c, err := s.Combatant(who); err == nil {
			who = c.Name
		}
		out.Description = fmt.Sprintf("%s rolls %s: %d", who, expr, out.Total)
		if out.Reason != "" {
			out.Description += " for " + out.Reason
		}
		record(s, actx.ParticipantID(), turn.KindFree, out.Description)
		return nil
	})
	return out, err
}
