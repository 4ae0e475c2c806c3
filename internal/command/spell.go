package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

var ErrUnknownSpell = errors.New("spell not known")

// CastSpell casts a spell the caster knows. Bonus-action spells are recorded
// as bonus actions.
type CastSpell struct{ base }

func (h *CastSpell) Validate(params dispatch.Params) []error {
	errs := h.base.Validate(params)
	if targets, ok := params.Strings("targets"); ok && len(targets) == 0 {
		errs = append(errs, errors.New("targets must not be empty"))
	}
	if _, isNum := params.Number("slotLevel"); isNum {
		if _, whole := params.Int("slotLevel"); !whole {
			errs = append(errs, errors.New("slotLevel must be a whole number"))
		}
	}
	return errs
}

func (h *CastSpell) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	names, _ := params.Strings("targets")
	spellRef := params.StringOr("spell", "")

	var out *combat.SpellOutcome
	err := h.table.Do(func(s *game.State) error {
		caster, err := actor(s, actx)
		if err != nil {
			return err
		}
		spell, err := s.Loader.LoadSpell(spellRef)
		if err != nil {
			return err
		}
		if len(caster.Spells) > 0 && !caster.KnowsSpell(spell.Index) {
			return fmt.Errorf("%w: %s does not know %s", ErrUnknownSpell, caster.Name, spell.Name)
		}

		targets := make([]*data.Combatant, 0, len(names))
		for _, n := range names {
			t, err := s.Combatant(n)
			if err != nil {
				return err
			}
			targets = append(targets, t)
		}

		out, err = s.Engine.CastSpell(caster, spell, targets, combat.SpellOptions{SlotLevel: params.IntOr("slotLevel", 0)})
		if err != nil {
			return err
		}
		for _, t := range targets {
			s.MarkDown(t)
		}

		kind := turn.KindAction
		if spell.BonusAction() {
			kind = turn.KindBonusAction
		}
		record(s, caster.ID, kind, out.Description)
		return nil
	})
	return out, err
}
