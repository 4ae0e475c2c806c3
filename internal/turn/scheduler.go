// Package turn tracks initiative order, the round/turn pointer and the
// per-encounter action log.
//
// A Scheduler is not safe for concurrent use. Callers serialize access per
// logical session (see game.Table).
package turn

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind is the action-economy slot an ActionRecord consumed.
type Kind string

const (
	KindMovement    Kind = "movement"
	KindAction      Kind = "action"
	KindBonusAction Kind = "bonus_action"
	KindReaction    Kind = "reaction"
	KindFree        Kind = "free"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMovement, KindAction, KindBonusAction, KindReaction, KindFree:
		return true
	}
	return false
}

// Participant is one entry of the roster.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsAgent    bool   `json:"isAgent"`
	Initiative int    `json:"initiative"`
	HasActed   bool   `json:"hasActed"`
	Active     bool   `json:"active"`
}

// ActionRecord is an append-only log entry.
type ActionRecord struct {
	ParticipantID string    `json:"participantId"`
	Kind          Kind      `json:"kind"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
	Turn          int       `json:"turn"`
	Round         int       `json:"round"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to stamp action records.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler is the turn state machine: empty, active or paused.
type Scheduler struct {
	ids          []string
	participants map[string]*Participant

	order   []string
	index   int
	round   int
	current string
	paused  bool
	log     []ActionRecord

	now func() time.Time
}

// NewScheduler returns an empty scheduler at round 1.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		participants: make(map[string]*Participant),
		round:        1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddParticipant inserts p, or replaces the participant with the same ID
// keeping its roster position. The participant is marked active and not yet
// acted.
func (s *Scheduler) AddParticipant(p Participant) {
	p.Active = true
	p.HasActed = false
	if _, ok := s.participants[p.ID]; !ok {
		s.ids = append(s.ids, p.ID)
	}
	s.participants[p.ID] = &p
	s.reorder()

	if s.current == "" && len(s.order) > 0 {
		s.current = s.order[0]
		s.index = 0
	}
}

// RemoveParticipant deletes id from the roster. Removing the current
// participant advances the turn immediately.
func (s *Scheduler) RemoveParticipant(id string) {
	if _, ok := s.participants[id]; !ok {
		return
	}
	delete(s.participants, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.leaveOrder(id)
}

// SetActive takes a participant in or out of the initiative order without
// deleting it. Deactivating the current participant advances the turn.
func (s *Scheduler) SetActive(id string, active bool) {
	p, ok := s.participants[id]
	if !ok || p.Active == active {
		return
	}
	p.Active = active
	if !active {
		s.leaveOrder(id)
		return
	}
	s.reorder()
	if s.current == "" && len(s.order) > 0 {
		s.current = s.order[0]
		s.index = 0
	}
}

// leaveOrder re-derives the order after id stopped being part of it. When id
// was current, the pointer is parked just before its old slot so that the
// advance lands on whoever followed it.
func (s *Scheduler) leaveOrder(id string) {
	pos := indexOf(s.order, id)
	wasCurrent := s.current == id
	s.reorder()
	if !wasCurrent {
		return
	}

	s.current = ""
	if len(s.order) == 0 {
		s.index = 0
		return
	}
	s.index = pos - 1
	s.step()
}

// AdvanceTurn marks the current participant as acted and moves to the next
// one, starting a new round after the last. It is a no-op when the order is
// empty. Pausing does not block it.
func (s *Scheduler) AdvanceTurn() {
	if len(s.order) == 0 {
		return
	}
	if p, ok := s.participants[s.current]; ok {
		p.HasActed = true
	}
	s.step()
}

func (s *Scheduler) step() {
	s.index++
	if s.index >= len(s.order) {
		s.round++
		s.index = 0
		for _, p := range s.participants {
			p.HasActed = false
		}
	}
	s.current = s.order[s.index]
}

// ForceTurn points the turn at id directly. Nobody is marked as acted. It
// reports false when id is not in the order.
func (s *Scheduler) ForceTurn(id string) bool {
	pos := indexOf(s.order, id)
	if pos < 0 {
		return false
	}
	s.current = id
	s.index = pos
	return true
}

// TogglePause flips the advisory pause flag and returns the new value.
func (s *Scheduler) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

// RecordAction appends rec stamped with the current turn and round. A zero
// timestamp is filled from the clock.
func (s *Scheduler) RecordAction(rec ActionRecord) ActionRecord {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	rec.Turn = s.index
	rec.Round = s.round
	s.log = append(s.log, rec)
	return rec
}

// Reset rewinds to round 1, clears the log and acted flags, and re-derives the
// order. Participants are kept.
func (s *Scheduler) Reset() {
	s.round = 1
	s.index = 0
	s.current = ""
	s.paused = false
	s.log = nil
	for _, p := range s.participants {
		p.HasActed = false
	}
	s.reorder()
	if len(s.order) > 0 {
		s.current = s.order[0]
	}
}

// reorder stable-sorts the active participants by initiative, descending,
// ties kept in roster order, and re-points the index at the current
// participant.
func (s *Scheduler) reorder() {
	order := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if s.participants[id].Active {
			order = append(order, id)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.participants[order[i]].Initiative > s.participants[order[j]].Initiative
	})
	s.order = order

	if pos := indexOf(order, s.current); pos >= 0 {
		s.index = pos
	}
}

// Current returns the participant whose turn it is.
func (s *Scheduler) Current() (Participant, bool) {
	p, ok := s.participants[s.current]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participant looks up a participant by ID.
func (s *Scheduler) Participant(id string) (Participant, bool) {
	p, ok := s.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participants returns the roster in insertion order, active or not.
func (s *Scheduler) Participants() []Participant {
	out := make([]Participant, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, *s.participants[id])
	}
	return out
}

// Order returns the active participants in initiative order.
func (s *Scheduler) Order() []Participant {
	out := make([]Participant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.participants[id])
	}
	return out
}

func (s *Scheduler) Round() int     { return s.round }
func (s *Scheduler) TurnIndex() int { return s.index }
func (s *Scheduler) Paused() bool   { return s.paused }
func (s *Scheduler) Empty() bool    { return len(s.order) == 0 }

// Log returns a copy of the action log.
func (s *Scheduler) Log() []ActionRecord {
	return append([]ActionRecord(nil), s.log...)
}

// AllActed reports whether every active participant has acted this round. It
// is true when nobody is active.
func (s *Scheduler) AllActed() bool {
	for _, p := range s.participants {
		if p.Active && !p.HasActed {
			return false
		}
	}
	return true
}

func indexOf(list []string, id string) int {
	if id == "" {
		return -1
	}
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// Snapshot is the full, lossless scheduler state.
type Snapshot struct {
	Participants []Participant  `json:"participants"`
	Order        []string       `json:"order"`
	TurnIndex    int            `json:"turnIndex"`
	Round        int            `json:"round"`
	CurrentID    string         `json:"currentId,omitempty"`
	Paused       bool           `json:"paused"`
	Log          []ActionRecord `json:"log"`
}

// Export captures the scheduler state.
func (s *Scheduler) Export() Snapshot {
	return Snapshot{
		Participants: s.Participants(),
		Order:        append([]string{}, s.order...),
		TurnIndex:    s.index,
		Round:        s.round,
		CurrentID:    s.current,
		Paused:       s.paused,
		Log:          append([]ActionRecord{}, s.log...),
	}
}

// Import replaces the scheduler state with snap verbatim. The order is not
// re-derived so that an export/import pair is lossless.
func (s *Scheduler) Import(snap Snapshot) error {
	participants := make(map[string]*Participant, len(snap.Participants))
	ids := make([]string, 0, len(snap.Participants))
	for _, p := range snap.Participants {
		if _, dup := participants[p.ID]; dup {
			return fmt.Errorf("snapshot lists participant %q twice", p.ID)
		}
		participants[p.ID] = &p
		ids = append(ids, p.ID)
	}
	for _, id := range snap.Order {
		if _, ok := participants[id]; !ok {
			return fmt.Errorf("snapshot order references unknown participant %q", id)
		}
	}
	if len(snap.Order) == 0 {
		if snap.CurrentID != "" {
			return fmt.Errorf("snapshot has current participant %q but an empty order", snap.CurrentID)
		}
	} else if snap.TurnIndex < 0 || snap.TurnIndex >= len(snap.Order) || snap.Order[snap.TurnIndex] != snap.CurrentID {
		return fmt.Errorf("snapshot turn index %d does not point at %q", snap.TurnIndex, snap.CurrentID)
	}

	round := snap.Round
	if round < 1 {
		round = 1
	}

	s.participants = participants
	s.ids = ids
	s.order = append([]string{}, snap.Order...)
	s.index = snap.TurnIndex
	s.round = round
	s.current = snap.CurrentID
	s.paused = snap.Paused
	s.log = append([]ActionRecord(nil), snap.Log...)
	return nil
}

func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

func (s *Scheduler) UnmarshalJSON(b []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	if s.participants == nil {
		*s = *NewScheduler()
	}
	return s.Import(snap)
}
