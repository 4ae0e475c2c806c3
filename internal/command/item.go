package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

var ErrNoItem = errors.New("item not in inventory")

// ItemResult reports an item use. Healed is zero for items without a
// healing effect.
type ItemResult struct {
	ActorID     string       `json:"actorId"`
	TargetID    string       `json:"targetId"`
	Item        string       `json:"item"`
	Roll        *dice.Result `json:"roll,omitempty"`
	Healed      int          `json:"healed"`
	HP          int          `json:"hp"`
	Remaining   int          `json:"remaining"`
	Description string       `json:"description"`
}

// UseItem spends one unit of an inventory item.
type UseItem struct{ base }

func (h *UseItem) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	itemRef := params.StringOr("item", "")

	var out *ItemResult
	err := h.table.Do(func(s *game.State) error {
		user, err := actor(s, actx)
		if err != nil {
			return err
		}
		item, err := s.Loader.LoadItem(itemRef)
		if err != nil {
			return err
		}
		if user.Inventory[item.Index] <= 0 {
			return fmt.Errorf("%w: %s has no %s", ErrNoItem, user.Name, item.Name)
		}

		target := user
		if on := params.StringOr("on", ""); on != "" {
			if target, err = s.Combatant(on); err != nil {
				return err
			}
		}

		out = &ItemResult{ActorID: user.ID, TargetID: target.ID, Item: item.Name}
		if item.Heals && item.Effect != "" {
			r, err := s.Engine.Roller().Roll(item.Effect)
			if err != nil {
				return fmt.Errorf("item %s: %w", item.Name, err)
			}
			out.Roll = &r
			out.Healed = target.Heal(r.Total)
			s.MarkDown(target)
		}
		if item.Consumable() {
			user.Inventory[item.Index]--
		}
		out.Remaining = user.Inventory[item.Index]
		out.HP = target.HitPoints

		if out.Roll != nil {
			out.Description = fmt.Sprintf("%s uses %s on %s, restoring %d HP", user.Name, item.Name, target.Name, out.Healed)
		} else {
			out.Description = fmt.Sprintf("%s uses %s", user.Name, item.Name)
		}
		record(s, user.ID, turn.KindBonusAction, out.Description)
		return nil
	})
	return out, err
}
