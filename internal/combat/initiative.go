package combat

import (
	"sort"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

// InitiativeRoll is one participant's initiative.
type InitiativeRoll struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	IsAgent    bool        `json:"isAgent"`
	Roll       dice.Result `json:"roll"`
	Initiative int         `json:"initiative"`
}

// RollInitiative rolls 1d20 + DEX modifier for each combatant and returns the
// results sorted descending. Ties keep the input order.
func (e *Engine) RollInitiative(party []*data.Combatant) []InitiativeRoll {
	out := make([]InitiativeRoll, 0, len(party))
	for _, c := range party {
		r := e.roller.D20(c.Modifier(data.Dex))
		out = append(out, InitiativeRoll{
			ID:         c.ID,
			Name:       c.Name,
			IsAgent:    c.IsAgent,
			Roll:       r,
			Initiative: r.Total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Initiative > out[j].Initiative })
	return out
}
