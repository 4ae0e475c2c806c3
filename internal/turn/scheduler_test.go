package turn_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendellvieira/rpg-ai-sub001/internal/turn"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newParty(t *testing.T) *turn.Scheduler {
	t.Helper()
	s := turn.NewScheduler(turn.WithClock(fixedClock()))
	s.AddParticipant(turn.Participant{ID: "a", Name: "Aria", Initiative: 10})
	s.AddParticipant(turn.Participant{ID: "b", Name: "Brom", Initiative: 20})
	s.AddParticipant(turn.Participant{ID: "c", Name: "Cix", Initiative: 5, IsAgent: true})
	return s
}

func orderIDs(s *turn.Scheduler) []string {
	var ids []string
	for _, p := range s.Order() {
		ids = append(ids, p.ID)
	}
	return ids
}

func currentID(s *turn.Scheduler) string {
	p, ok := s.Current()
	if !ok {
		return ""
	}
	return p.ID
}

func TestEmptyScheduler(t *testing.T) {
	s := turn.NewScheduler()

	assert.True(t, s.Empty())
	assert.Equal(t, 1, s.Round())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.True(t, s.AllActed())

	s.AdvanceTurn()
	s.RemoveParticipant("ghost")
	assert.False(t, s.ForceTurn("ghost"))
	assert.Equal(t, 1, s.Round())
	assert.Equal(t, 0, s.TurnIndex())
}

func TestInitiativeOrder(t *testing.T) {
	s := newParty(t)

	assert.Equal(t, []string{"b", "a", "c"}, orderIDs(s))
	// The first participant added stays current until the turn moves.
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, 1, s.TurnIndex())
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	s := turn.NewScheduler()
	s.AddParticipant(turn.Participant{ID: "x", Initiative: 12})
	s.AddParticipant(turn.Participant{ID: "y", Initiative: 15})
	s.AddParticipant(turn.Participant{ID: "z", Initiative: 12})

	assert.Equal(t, []string{"y", "x", "z"}, orderIDs(s))
}

func TestReplaceKeepsRosterSlot(t *testing.T) {
	s := newParty(t)
	s.AddParticipant(turn.Participant{ID: "c", Name: "Cix", Initiative: 25})

	assert.Equal(t, []string{"c", "b", "a"}, orderIDs(s))
	assert.Len(t, s.Participants(), 3)
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, 2, s.TurnIndex())
}

func TestFullRoundIncrementsOnce(t *testing.T) {
	s := newParty(t)
	s.Reset()
	require.Equal(t, "b", currentID(s))

	for i := 0; i < len(s.Order()); i++ {
		assert.Equal(t, 1, s.Round())
		s.AdvanceTurn()
	}

	assert.Equal(t, 2, s.Round())
	assert.Equal(t, 0, s.TurnIndex())
	assert.Equal(t, "b", currentID(s))
	for _, p := range s.Participants() {
		assert.False(t, p.HasActed, p.ID)
	}
}

func TestAdvanceMarksActed(t *testing.T) {
	s := newParty(t)
	s.Reset()

	s.AdvanceTurn()
	b, _ := s.Participant("b")
	assert.True(t, b.HasActed)
	assert.Equal(t, "a", currentID(s))
	assert.False(t, s.AllActed())

	s.AdvanceTurn()
	assert.Equal(t, "c", currentID(s))
}

func TestRemoveCurrentAdvances(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.AdvanceTurn()
	require.Equal(t, "a", currentID(s))

	s.RemoveParticipant("a")
	assert.Equal(t, "c", currentID(s))
	assert.Equal(t, []string{"b", "c"}, orderIDs(s))
	assert.Equal(t, 1, s.TurnIndex())
	assert.Equal(t, 1, s.Round())
}

func TestRemoveLastCurrentStartsNewRound(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.AdvanceTurn()
	s.AdvanceTurn()
	require.Equal(t, "c", currentID(s))

	s.RemoveParticipant("c")
	assert.Equal(t, "b", currentID(s))
	assert.Equal(t, 2, s.Round())
}

func TestRemoveFirstCurrent(t *testing.T) {
	s := newParty(t)
	s.Reset()

	s.RemoveParticipant("b")
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, 0, s.TurnIndex())
}

func TestRemoveUntilEmpty(t *testing.T) {
	s := newParty(t)

	for _, id := range []string{"a", "b", "c"} {
		assert.NotPanics(t, func() { s.RemoveParticipant(id) })
	}
	assert.True(t, s.Empty())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, s.TurnIndex())
}

func TestRemoveOtherKeepsCurrent(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.AdvanceTurn()
	require.Equal(t, "a", currentID(s))

	s.RemoveParticipant("b")
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, 0, s.TurnIndex())
}

func TestSetActive(t *testing.T) {
	s := newParty(t)
	s.Reset()

	s.SetActive("b", false)
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, []string{"a", "c"}, orderIDs(s))
	assert.Len(t, s.Participants(), 3)

	s.SetActive("b", true)
	assert.Equal(t, []string{"b", "a", "c"}, orderIDs(s))
	assert.Equal(t, "a", currentID(s))
	assert.Equal(t, 1, s.TurnIndex())
}

func TestForceTurn(t *testing.T) {
	s := newParty(t)
	s.Reset()

	assert.True(t, s.ForceTurn("c"))
	assert.Equal(t, "c", currentID(s))
	assert.Equal(t, 2, s.TurnIndex())
	for _, p := range s.Participants() {
		assert.False(t, p.HasActed)
	}

	s.SetActive("a", false)
	assert.False(t, s.ForceTurn("a"))
}

func TestPauseIsAdvisory(t *testing.T) {
	s := newParty(t)
	s.Reset()

	assert.True(t, s.TogglePause())
	s.AdvanceTurn()
	assert.Equal(t, "a", currentID(s))
	assert.False(t, s.TogglePause())
}

func TestRecordActionStamps(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.AdvanceTurn()

	rec := s.RecordAction(turn.ActionRecord{ParticipantID: "a", Kind: turn.KindAction, Description: "swings"})
	assert.Equal(t, 1, rec.Turn)
	assert.Equal(t, 1, rec.Round)
	assert.False(t, rec.Timestamp.IsZero())
	assert.Len(t, s.Log(), 1)
}

func TestResetKeepsParticipants(t *testing.T) {
	s := newParty(t)
	s.AdvanceTurn()
	s.AdvanceTurn()
	s.RecordAction(turn.ActionRecord{ParticipantID: "c", Kind: turn.KindFree})
	s.TogglePause()

	s.Reset()
	assert.Equal(t, 1, s.Round())
	assert.Equal(t, 0, s.TurnIndex())
	assert.Equal(t, "b", currentID(s))
	assert.Empty(t, s.Log())
	assert.False(t, s.Paused())
	assert.Len(t, s.Participants(), 3)
}

func TestStats(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.RecordAction(turn.ActionRecord{ParticipantID: "b", Kind: turn.KindAction})
	s.RecordAction(turn.ActionRecord{ParticipantID: "b", Kind: turn.KindMovement})
	s.AdvanceTurn()
	s.RecordAction(turn.ActionRecord{ParticipantID: "a", Kind: turn.KindAction})
	s.AdvanceTurn()
	s.AdvanceTurn()
	s.RecordAction(turn.ActionRecord{ParticipantID: "b", Kind: turn.KindAction})

	b := s.StatsFor("b")
	assert.Equal(t, 3, b.Actions)
	assert.Equal(t, 2, b.ByKind[turn.KindAction])
	assert.Equal(t, 2, b.RoundsActive)

	r1 := s.RoundStats(1)
	assert.Equal(t, 3, r1.Actions)
	assert.Equal(t, []string{"b", "a"}, r1.Participants)

	all := s.Stats()
	assert.Equal(t, 3, all.Participants)
	assert.Equal(t, 4, all.TotalActions)
	assert.Equal(t, 1, all.RoundActions)
	assert.Equal(t, 2, all.Round)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newParty(t)
	s.Reset()
	s.AdvanceTurn()
	s.RecordAction(turn.ActionRecord{ParticipantID: "a", Kind: turn.KindReaction, Description: "opportunity attack"})
	s.SetActive("c", false)
	s.TogglePause()

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	restored := turn.NewScheduler()
	require.NoError(t, json.Unmarshal(raw, restored))

	assert.Equal(t, s.Export(), restored.Export())
	assert.Equal(t, orderIDs(s), orderIDs(restored))
	assert.Equal(t, currentID(s), currentID(restored))
	assert.Equal(t, s.Round(), restored.Round())
	assert.Equal(t, s.TurnIndex(), restored.TurnIndex())
	assert.Equal(t, s.Log(), restored.Log())

	s.AdvanceTurn()
	restored.AdvanceTurn()
	assert.Equal(t, s.Export(), restored.Export())
}

func TestImportRejectsInconsistentSnapshot(t *testing.T) {
	s := turn.NewScheduler()

	err := s.Import(turn.Snapshot{Order: []string{"ghost"}, CurrentID: "ghost"})
	assert.Error(t, err)

	err = s.Import(turn.Snapshot{
		Participants: []turn.Participant{{ID: "a", Active: true}},
		Order:        []string{"a"},
		TurnIndex:    3,
		CurrentID:    "a",
	})
	assert.Error(t, err)
	assert.True(t, s.Empty())
}
