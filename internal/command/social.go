package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// interactionSkills maps an interaction kind to the skill that adds
// proficiency. All of them are Charisma checks.
var interactionSkills = map[string]string{
	"persuade":   "persuasion",
	"intimidate": "intimidation",
	"deceive":    "deception",
	"perform":    "performance",
}

const defaultDC = 10

type CheckResult struct {
	combat.CheckOutcome
	With        string `json:"with,omitempty"`
	Description string `json:"description"`
}

// Interact is a social interaction resolved as a Charisma check.
type Interact struct{ base }

func (h *Interact) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	kind := strings.ToLower(params.StringOr("kind", ""))
	dc := params.IntOr("dc", defaultDC)
	with := params.StringOr("with", "")

	var out *CheckResult
	err := h.table.Do(func(s *game.State) error {
		c, err := actor(s, actx)
		if err != nil {
			return err
		}
		chk := s.Engine.Check(c, data.Cha, dc, combat.CheckOptions{Skill: interactionSkills[kind]})
		out = &CheckResult{CheckOutcome: chk, With: with}

		verb := "fails to " + kind
		if chk.Success {
			verb = "manages to " + kind
		}
		out.Description = fmt.Sprintf("%s %s", c.Name, verb)
		if with != "" {
			out.Description += " " + with
		}
		out.Description += fmt.Sprintf(" (%d vs DC %d)", chk.Roll.Total, dc)
		record(s, c.ID, turn.KindAction, out.Description)
		return nil
	})
	return out, err
}

// AbilityCheck is a plain d20 + modifier check. It does not use up an
// action.
type AbilityCheck struct{ base }

func (h *AbilityCheck) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	ability := data.NormalizeAbility(params.StringOr("ability", ""))
	dc := params.IntOr("dc", defaultDC)
	adv, dis := flags(params)

	var out *CheckResult
	err := h.table.Do(func(s *game.State) error {
		c, err := s.Combatant(actx.ParticipantID())
		if err != nil {
			return err
		}
		chk := s.Engine.Check(c, ability, dc, combat.CheckOptions{
			Skill:        params.StringOr("skill", ""),
			Advantage:    adv,
			Disadvantage: dis,
		})
		result := "fails"
		if chk.Success {
			result = "succeeds"
		}
		out = &CheckResult{
			CheckOutcome: chk,
			Description:  fmt.Sprintf("%s %s a %s check (%d vs DC %d)", c.Name, result, strings.ToUpper(ability), chk.Roll.Total, dc),
		}
		record(s, c.ID, turn.KindFree, out.Description)
		return nil
	})
	return out, err
}
