// Package game holds one logical session's mutable state: the roster of
// combatants, the turn scheduler and the combat engine. Neither the
// scheduler nor the engine locks internally, so every access goes through
// Table.Do.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

// ActorGM is the game master. It is never in the roster and is allowed to
// act out of turn.
const ActorGM = "gm"

var (
	ErrUnknownCombatant = errors.New("combatant not found")
	ErrNotYourTurn      = errors.New("not your turn")
)

// Table is a single encounter table.
type Table struct {
	mu    sync.Mutex
	id    string
	state *State
	store persistence.Store
}

// State is the table content handed to Do callbacks. It must not be
// retained after the callback returns.
type State struct {
	Scheduler *turn.Scheduler
	Engine    *combat.Engine
	Loader    *data.Loader

	roster map[string]*data.Combatant
	ids    []string
}

type Option func(*Table)

// WithStore makes Save and Restore use s. Without it the table keeps a
// private in-memory store.
func WithStore(s persistence.Store) Option {
	return func(t *Table) { t.store = s }
}

// WithScheduler replaces the default scheduler, e.g. one with a fixed clock.
func WithScheduler(s *turn.Scheduler) Option {
	return func(t *Table) { t.state.Scheduler = s }
}

func NewTable(id string, loader *data.Loader, roller *dice.Roller, opts ...Option) *Table {
	t := &Table{
		id: id,
		state: &State{
			Scheduler: turn.NewScheduler(),
			Engine:    combat.NewEngine(roller),
			Loader:    loader,
			roster:    make(map[string]*data.Combatant),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store == nil {
		t.store = persistence.NewMemoryStore()
	}
	return t
}

func (t *Table) ID() string { return t.id }

// Do runs fn with exclusive access to the table.
func (t *Table) Do(fn func(s *State) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.state)
}

// Add puts c in the roster, replacing any combatant with the same id.
func (s *State) Add(c *data.Combatant) {
	if _, ok := s.roster[c.ID]; !ok {
		s.ids = append(s.ids, c.ID)
	}
	s.roster[c.ID] = c
}

// Join loads a character or monster sheet and adds it. id overrides the
// sheet's id so that several goblins can share one sheet.
func (s *State) Join(ref, id string, agent bool) (*data.Combatant, error) {
	c, err := s.Loader.LoadCombatant(ref)
	if err != nil {
		return nil, err
	}
	if id != "" {
		c.ID = data.Slug(id)
		c.Name = id
	}
	if agent {
		c.IsAgent = true
	}
	s.Add(c)
	return c, nil
}

// Remove drops a combatant from the roster and the turn order.
func (s *State) Remove(id string) {
	if _, ok := s.roster[id]; !ok {
		return
	}
	delete(s.roster, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.Scheduler.RemoveParticipant(id)
}

// Combatant finds a roster member by id or by name.
func (s *State) Combatant(ref string) (*data.Combatant, error) {
	if c, ok := s.roster[data.Slug(ref)]; ok {
		return c, nil
	}
	for _, id := range s.ids {
		if strings.EqualFold(s.roster[id].Name, ref) {
			return s.roster[id], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCombatant, ref)
}

// Roster returns the combatants in join order.
func (s *State) Roster() []*data.Combatant {
	out := make([]*data.Combatant, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.roster[id])
	}
	return out
}

// CheckTurn fails when an encounter is running and actorID is in the order
// but is not the current participant. The GM may always act.
func (s *State) CheckTurn(actorID string) error {
	if actorID == ActorGM || s.Scheduler.Empty() {
		return nil
	}
	p, ok := s.Scheduler.Participant(actorID)
	if !ok || !p.Active {
		return nil
	}
	if cur, ok := s.Scheduler.Current(); ok && cur.ID != actorID {
		return fmt.Errorf("%w: it is %s's turn", ErrNotYourTurn, cur.Name)
	}
	return nil
}

// MarkDown takes a combatant with no hit points out of the turn order, and
// puts a healed one back.
func (s *State) MarkDown(c *data.Combatant) {
	if _, ok := s.Scheduler.Participant(c.ID); ok {
		s.Scheduler.SetActive(c.ID, c.Alive())
	}
}

// HPSummary maps combatant ids to "hp/max".
func (s *State) HPSummary() map[string]string {
	out := make(map[string]string, len(s.ids))
	for _, id := range s.ids {
		c := s.roster[id]
		out[id] = fmt.Sprintf("%d/%d", c.HitPoints, c.MaxHitPoints)
	}
	return out
}

func (t *Table) key(part string) string {
	return "tables/" + t.id + "/" + part
}

// Save writes the roster and scheduler to the store.
func (t *Table) Save(ctx context.Context) error {
	return t.Do(func(s *State) error {
		if err := persistence.SetJSON(ctx, t.store, t.key("roster"), s.Roster()); err != nil {
			return err
		}
		return persistence.SetJSON(ctx, t.store, t.key("scheduler"), s.Scheduler)
	})
}

// Restore replaces the table content with the last Save. It returns
// persistence.ErrNotFound when nothing was saved.
func (t *Table) Restore(ctx context.Context) error {
	var roster []*data.Combatant
	if err := persistence.GetJSON(ctx, t.store, t.key("roster"), &roster); err != nil {
		return err
	}
	sched := turn.NewScheduler()
	if err := persistence.GetJSON(ctx, t.store, t.key("scheduler"), sched); err != nil {
		return err
	}

	return t.Do(func(s *State) error {
		s.roster = make(map[string]*data.Combatant, len(roster))
		s.ids = nil
		for _, c := range roster {
			s.Add(c)
		}
		if err := s.Scheduler.Import(sched.Export()); err != nil {
			return err
		}
		s.Engine.ClearLog()
		return nil
	})
}
