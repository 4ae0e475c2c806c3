package command

import (
	"context"
	"fmt"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// TurnState is what the turn controls return.
type TurnState struct {
	Round       int                `json:"round"`
	TurnIndex   int                `json:"turnIndex"`
	Current     *turn.Participant  `json:"current,omitempty"`
	Order       []turn.Participant `json:"order"`
	Paused      bool               `json:"paused"`
	AllActed    bool               `json:"allActed"`
	Description string             `json:"description,omitempty"`
}

func turnState(s *game.State) *TurnState {
	out := &TurnState{
		Round:     s.Scheduler.Round(),
		TurnIndex: s.Scheduler.TurnIndex(),
		Order:     s.Scheduler.Order(),
		Paused:    s.Scheduler.Paused(),
		AllActed:  s.Scheduler.AllActed(),
	}
	if cur, ok := s.Scheduler.Current(); ok {
		out.Current = &cur
	}
	return out
}

func describeTurn(st *TurnState) string {
	if st.Current == nil {
		return "no encounter in progress"
	}
	return fmt.Sprintf("round %d: %s's turn", st.Round, st.Current.Name)
}

// Join adds a sheet to the roster. Once an encounter is running the new
// combatant also joins the turn order with a fresh initiative roll.
type Join struct{ base }

func (h *Join) Execute(_ context.Context, params dispatch.Params, _ dispatch.ActionContext) (any, error) {
	var out *data.Combatant
	err := h.table.Do(func(s *game.State) error {
		c, err := s.Join(params.StringOr("sheet", ""), params.StringOr("as", ""), params.BoolOr("agent", false))
		if err != nil {
			return err
		}
		if !s.Scheduler.Empty() {
			for _, r := range s.Engine.RollInitiative([]*data.Combatant{c}) {
				s.Scheduler.AddParticipant(turn.Participant{ID: r.ID, Name: r.Name, IsAgent: r.IsAgent, Initiative: r.Initiative})
			}
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

// EndTurn hands the turn to the next participant.
type EndTurn struct{ base }

func (h *EndTurn) Execute(_ context.Context, _ dispatch.Params, actx dispatch.ActionContext) (any, error) {
	var out *TurnState
	err := h.table.Do(func(s *game.State) error {
		if id := actx.ParticipantID(); id != game.ActorGM {
			if err := s.CheckTurn(id); err != nil {
				return err
			}
		}
		s.Scheduler.AdvanceTurn()
		out = turnState(s)
		out.Description = describeTurn(out)
		return nil
	})
	return out, err
}

type InitiativeResult struct {
	Rolls []combat.InitiativeRoll `json:"rolls"`
	*TurnState
}

// RollInitiative rolls for every living roster member and loads the
// scheduler with the results.
type RollInitiative struct{ base }

func (h *RollInitiative) Execute(_ context.Context, _ dispatch.Params, _ dispatch.ActionContext) (any, error) {
	var out *InitiativeResult
	err := h.table.Do(func(s *game.State) error {
		var party []*data.Combatant
		for _, c := range s.Roster() {
			if c.Alive() {
				party = append(party, c)
			}
		}
		if len(party) == 0 {
			return fmt.Errorf("%w: nobody has joined the table", game.ErrUnknownCombatant)
		}

		rolls := s.Engine.RollInitiative(party)
		for _, r := range rolls {
			s.Scheduler.AddParticipant(turn.Participant{ID: r.ID, Name: r.Name, IsAgent: r.IsAgent, Initiative: r.Initiative})
		}
		out = &InitiativeResult{Rolls: rolls, TurnState: turnState(s)}
		out.Description = describeTurn(out.TurnState)
		return nil
	})
	return out, err
}

type StateResult struct {
	*TurnState
	HP       map[string]string `json:"hp"`
	Snapshot turn.Snapshot     `json:"snapshot"`
	Combat   combat.Stats      `json:"combat"`
}

// GetState reports the scheduler snapshot and hit points.
type GetState struct{ base }

func (h *GetState) Execute(_ context.Context, _ dispatch.Params, _ dispatch.ActionContext) (any, error) {
	var out *StateResult
	err := h.table.Do(func(s *game.State) error {
		ts := turnState(s)
		ts.Description = describeTurn(ts)
		out = &StateResult{
			TurnState: ts,
			HP:        s.HPSummary(),
			Snapshot:  s.Scheduler.Export(),
			Combat:    s.Engine.Stats(),
		}
		return nil
	})
	return out, err
}

// ForceTurn is a GM override of the current participant.
type ForceTurn struct {
	base
	restricted
}

func (h *ForceTurn) Execute(_ context.Context, params dispatch.Params, _ dispatch.ActionContext) (any, error) {
	var out *TurnState
	err := h.table.Do(func(s *game.State) error {
		c, err := s.Combatant(params.StringOr("to", ""))
		if err != nil {
			return err
		}
		if !s.Scheduler.ForceTurn(c.ID) {
			return fmt.Errorf("%s is not in the turn order", c.Name)
		}
		out = turnState(s)
		out.Description = describeTurn(out)
		return nil
	})
	return out, err
}

// ResetEncounter rewinds to round one and clears the combat log.
type ResetEncounter struct {
	base
	restricted
}

func (h *ResetEncounter) Execute(_ context.Context, _ dispatch.Params, _ dispatch.ActionContext) (any, error) {
	var out *TurnState
	err := h.table.Do(func(s *game.State) error {
		s.Scheduler.Reset()
		s.Engine.ClearLog()
		out = turnState(s)
		out.Description = "encounter reset; " + describeTurn(out)
		return nil
	})
	return out, err
}
