package command

import (
	"context"
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// MoveResult reports a movement. Distance and line of sight are not
// modelled, so every move in bounds succeeds.
type MoveResult struct {
	ActorID     string  `json:"actorId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Description string  `json:"description"`
}

type Move struct{ base }

func (h *Move) Execute(_ context.Context, params dispatch.Params, actx dispatch.ActionContext) (any, error) {
	x, _ := params.Number("x")
	y, _ := params.Number("y")

	var out *MoveResult
	err := h.table.Do(func(s *game.State) error {
		c, err := actor(s, actx)
		if err != nil {
			return err
		}
		out = &MoveResult{
			ActorID:     c.ID,
			X:           x,
			Y:           y,
			Description: fmt.Sprintf("%s moves to (%g, %g)", c.Name, x, y),
		}
		record(s, c.ID, turn.KindMovement, out.Description)
		return nil
	})
	return out, err
}
