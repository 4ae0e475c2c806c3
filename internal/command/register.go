package command

import (
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/rules"
)

// Register adds every handler to reg, bound to table. r evaluates catalog
// prerequisites and may be nil to skip them.
func Register(reg *dispatch.Registry, table *game.Table, r *rules.Registry) error {
	catalog, err := LoadCatalog(r)
	if err != nil {
		return err
	}
	b := func(method string) base {
		return base{def: catalog[method], table: table, rules: r}
	}

	handlers := []struct {
		method string
		h      dispatch.Handler
	}{
		{"join", &Join{b("join")}},
		{"attack", &Attack{b("attack")}},
		{"defend", &Defend{b("defend")}},
		{"move", &Move{b("move")}},
		{"cast_spell", &CastSpell{b("cast_spell")}},
		{"use_item", &UseItem{b("use_item")}},
		{"interact", &Interact{b("interact")}},
		{"roll_dice", &RollDice{b("roll_dice")}},
		{"ability_check", &AbilityCheck{b("ability_check")}},
		{"end_turn", &EndTurn{b("end_turn")}},
		{"roll_initiative", &RollInitiative{b("roll_initiative")}},
		{"get_state", &GetState{b("get_state")}},
		{"force_turn", &ForceTurn{base: b("force_turn")}},
		{"reset_encounter", &ResetEncounter{base: b("reset_encounter")}},
	}
	for _, e := range handlers {
		if _, ok := catalog[e.method]; !ok {
			return fmt.Errorf("no catalog entry for %q", e.method)
		}
		if err := reg.Register(e.method, e.h); err != nil {
			return err
		}
	}
	return nil
}

// Usage returns the console usage line of a method.
func Usage(reg *dispatch.Registry) func(string) (string, bool) {
	return func(method string) (string, bool) {
		h, ok := reg.Lookup(method)
		if !ok {
			return "", false
		}
		d, ok := h.(dispatch.Describer)
		if !ok || d.Describe().Usage == "" {
			return "", false
		}
		return d.Describe().Usage, true
	}
}
