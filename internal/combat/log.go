package combat

import "time"

// Log entry kinds.
const (
	EntryAttack  = "attack"
	EntryDefense = "defense"
	EntrySpell   = "spell"
)

// LogEntry records one resolved action with its full detail.
type LogEntry struct {
	Seq       int             `json:"seq"`
	Kind      string          `json:"kind"`
	ActorID   string          `json:"actorId"`
	Timestamp time.Time       `json:"timestamp"`
	Attack    *AttackOutcome  `json:"attack,omitempty"`
	Defense   *DefenseOutcome `json:"defense,omitempty"`
	Spell     *SpellOutcome   `json:"spell,omitempty"`
}

// Stats aggregates the log.
type Stats struct {
	Attacks     int     `json:"attacks"`
	Hits        int     `json:"hits"`
	Criticals   int     `json:"criticals"`
	Fumbles     int     `json:"fumbles"`
	HitRate     float64 `json:"hitRate"`
	TotalDamage int     `json:"totalDamage"`
	Defenses    int     `json:"defenses"`
	SpellsCast  int     `json:"spellsCast"`
	HealingDone int     `json:"healingDone"`
}

// Log returns a copy of the combat log.
func (e *Engine) Log() []LogEntry {
	return append([]LogEntry(nil), e.log...)
}

// Stats aggregates the whole log.
func (e *Engine) Stats() Stats {
	return aggregate(e.log, func(LogEntry) bool { return true })
}

// StatsFor aggregates the entries made by one actor.
func (e *Engine) StatsFor(actorID string) Stats {
	return aggregate(e.log, func(le LogEntry) bool { return le.ActorID == actorID })
}

func aggregate(log []LogEntry, keep func(LogEntry) bool) Stats {
	var st Stats
	for _, le := range log {
		if !keep(le) {
			continue
		}
		switch le.Kind {
		case EntryAttack:
			a := le.Attack
			st.Attacks++
			if a.Hit {
				st.Hits++
			}
			if a.Critical {
				st.Criticals++
			}
			if a.Fumble {
				st.Fumbles++
			}
			st.TotalDamage += a.Damage
		case EntryDefense:
			st.Defenses++
		case EntrySpell:
			st.SpellsCast++
			for _, t := range le.Spell.Targets {
				if t.Amount > 0 {
					st.TotalDamage += t.Amount
				} else {
					st.HealingDone -= t.Amount
				}
			}
		}
	}
	if st.Attacks > 0 {
		st.HitRate = float64(st.Hits) / float64(st.Attacks)
	}
	return st
}
