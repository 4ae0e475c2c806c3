package turn

// ParticipantStats summarizes one participant's logged actions.
type ParticipantStats struct {
	ParticipantID string       `json:"participantId"`
	Actions       int          `json:"actions"`
	ByKind        map[Kind]int `json:"byKind"`
	RoundsActive  int          `json:"roundsActive"`
}

// RoundStats summarizes one round of the log.
type RoundStats struct {
	Round        int          `json:"round"`
	Actions      int          `json:"actions"`
	ByKind       map[Kind]int `json:"byKind"`
	Participants []string     `json:"participants"`
}

// Stats is the encounter-wide summary.
type Stats struct {
	Participants int `json:"participants"`
	Active       int `json:"active"`
	Round        int `json:"round"`
	TurnIndex    int `json:"turnIndex"`
	TotalActions int `json:"totalActions"`
	RoundActions int `json:"roundActions"`
}

// StatsFor aggregates the log entries of one participant.
func (s *Scheduler) StatsFor(id string) ParticipantStats {
	st := ParticipantStats{ParticipantID: id, ByKind: make(map[Kind]int)}
	rounds := make(map[int]struct{})
	for _, rec := range s.log {
		if rec.ParticipantID != id {
			continue
		}
		st.Actions++
		st.ByKind[rec.Kind]++
		rounds[rec.Round] = struct{}{}
	}
	st.RoundsActive = len(rounds)
	return st
}

// RoundStats aggregates the log entries of one round. Participants are listed
// in the order they first acted.
func (s *Scheduler) RoundStats(round int) RoundStats {
	st := RoundStats{Round: round, ByKind: make(map[Kind]int)}
	seen := make(map[string]struct{})
	for _, rec := range s.log {
		if rec.Round != round {
			continue
		}
		st.Actions++
		st.ByKind[rec.Kind]++
		if _, ok := seen[rec.ParticipantID]; !ok {
			seen[rec.ParticipantID] = struct{}{}
			st.Participants = append(st.Participants, rec.ParticipantID)
		}
	}
	return st
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		Participants: len(s.ids),
		Active:       len(s.order),
		Round:        s.round,
		TurnIndex:    s.index,
		TotalActions: len(s.log),
	}
	for _, rec := range s.log {
		if rec.Round == s.round {
			st.RoundActions++
		}
	}
	return st
}
