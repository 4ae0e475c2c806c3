package combat

import (
	"fmt"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

// Flat per-level bonuses applied when a spell is cast above its base level.
const (
	UpcastDamagePerLevel  = 6
	UpcastHealingPerLevel = 4
	MaxSpellLevel         = 9
)

var castingAbilities = map[string]string{
	"wizard":    data.Int,
	"artificer": data.Int,
	"cleric":    data.Wis,
	"druid":     data.Wis,
	"ranger":    data.Wis,
	"monk":      data.Wis,
	"bard":      data.Cha,
	"sorcerer":  data.Cha,
	"warlock":   data.Cha,
	"paladin":   data.Cha,
}

// CastingAbility returns the spellcasting ability for the caster's class.
// Classes outside the table use their best mental ability.
func CastingAbility(c *data.Combatant) string {
	if a, ok := castingAbilities[strings.ToLower(c.Class)]; ok {
		return a
	}
	best := data.Int
	for _, a := range []string{data.Wis, data.Cha} {
		if c.Abilities.Score(a) > c.Abilities.Score(best) {
			best = a
		}
	}
	return best
}

// SaveDC is 8 + proficiency + casting modifier, unless the spell fixes it.
func SaveDC(caster *data.Combatant, spell *data.Spell) int {
	if spell.DC > 0 {
		return spell.DC
	}
	return 8 + caster.ProficiencyBonus + caster.Modifier(CastingAbility(caster))
}

// SaveResult is one target's saving throw.
type SaveResult struct {
	TargetID string      `json:"targetId"`
	Ability  string      `json:"ability"`
	DC       int         `json:"dc"`
	Roll     dice.Result `json:"roll"`
	Passed   bool        `json:"passed"`
}

// SpellTarget is what a spell did to one target. Amount is damage, or
// healing when negative.
type SpellTarget struct {
	TargetID string      `json:"targetId"`
	Save     *SaveResult `json:"save,omitempty"`
	Amount   int         `json:"amount"`
	HP       int         `json:"hp"`
}

// SpellOutcome is the result of one cast.
type SpellOutcome struct {
	CasterID    string        `json:"casterId"`
	Spell       string        `json:"spell"`
	SlotLevel   int           `json:"slotLevel"`
	DC          int           `json:"dc,omitempty"`
	Rolls       []dice.Result `json:"rolls"`
	Damage      int           `json:"damage"`
	Targets     []SpellTarget `json:"targets"`
	Description string        `json:"description"`
}

// SpellOptions tunes a cast. A zero SlotLevel casts at the spell's level.
type SpellOptions struct {
	SlotLevel int
}

// CastSpell resolves spell against targets. Damage effects gain +6 and
// healing effects +4 per slot level above the spell's level. When the spell
// names a save, each target rolls once and halves the damage on a success.
// Healing is reported as negative damage.
func (e *Engine) CastSpell(caster *data.Combatant, spell *data.Spell, targets []*data.Combatant, opts SpellOptions) (*SpellOutcome, error) {
	if !caster.Alive() {
		return nil, fmt.Errorf("%w: %s", ErrAttackerDown, caster.Name)
	}
	if len(targets) == 0 {
		return nil, ErrNoTarget
	}

	slot := opts.SlotLevel
	if slot == 0 {
		slot = spell.Level
	}
	if slot > MaxSpellLevel || (spell.Level > 0 && slot < spell.Level) {
		return nil, fmt.Errorf("%w: %s is level %d, slot %d", ErrSlotTooLow, spell.Name, spell.Level, slot)
	}
	upcast := 0
	if spell.Level > 0 {
		upcast = slot - spell.Level
	}

	exprs := make([]dice.Expression, len(spell.Effects))
	for i, eff := range spell.Effects {
		expr, err := dice.Parse(eff.Dice)
		if err != nil {
			return nil, fmt.Errorf("spell %s: %w", spell.Name, err)
		}
		exprs[i] = expr
	}

	out := &SpellOutcome{
		CasterID:  caster.ID,
		Spell:     spell.Name,
		SlotLevel: slot,
	}
	castMod := caster.Modifier(CastingAbility(caster))

	type rolled struct {
		amount     int
		damageType string
	}
	var damage []rolled
	healing := 0
	for i, eff := range spell.Effects {
		r := e.roller.RollExpr(exprs[i])
		out.Rolls = append(out.Rolls, r)
		if eff.Healing() {
			amount := r.Total + upcast*UpcastHealingPerLevel
			if eff.AddModifier {
				amount += castMod
			}
			healing += max(amount, 0)
			continue
		}
		amount := r.Total + upcast*UpcastDamagePerLevel
		if eff.AddModifier {
			amount += castMod
		}
		damage = append(damage, rolled{amount: max(amount, 0), damageType: eff.DamageType})
	}

	rawDamage := 0
	for _, d := range damage {
		rawDamage += d.amount
	}
	out.Damage = rawDamage - healing

	save := data.NormalizeAbility(spell.Save)
	if save != "" {
		out.DC = SaveDC(caster, spell)
	}

	for _, t := range targets {
		st := SpellTarget{TargetID: t.ID}
		halve := false
		if save != "" && len(damage) > 0 {
			roll := e.roller.D20(t.SaveBonus(save))
			st.Save = &SaveResult{
				TargetID: t.ID,
				Ability:  save,
				DC:       out.DC,
				Roll:     roll,
				Passed:   roll.Total >= out.DC,
			}
			halve = st.Save.Passed
		}

		dealt := 0
		for _, d := range damage {
			amount := d.amount
			if halve {
				amount /= 2
			}
			dealt += t.Defense.Adjust(amount, d.damageType)
		}
		t.TakeDamage(dealt)
		healed := t.Heal(healing)
		st.Amount = dealt - healed
		st.HP = t.HitPoints
		out.Targets = append(out.Targets, st)
	}

	out.Description = describeSpell(caster, spell, targets, out)
	e.append(LogEntry{Kind: EntrySpell, ActorID: caster.ID, Spell: out})
	return out, nil
}

func describeSpell(caster *data.Combatant, spell *data.Spell, targets []*data.Combatant, out *SpellOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s casts %s", caster.Name, spell.Name)
	if spell.Level > 0 && out.SlotLevel > spell.Level {
		fmt.Fprintf(&b, " at level %d", out.SlotLevel)
	}
	for i, st := range out.Targets {
		name := targets[i].Name
		switch {
		case st.Amount < 0:
			fmt.Fprintf(&b, "; %s regains %d HP", name, -st.Amount)
		case st.Save != nil && st.Save.Passed:
			fmt.Fprintf(&b, "; %s saves (%d vs DC %d) and takes %d", name, st.Save.Roll.Total, st.Save.DC, st.Amount)
		case st.Save != nil:
			fmt.Fprintf(&b, "; %s fails the save (%d vs DC %d) and takes %d", name, st.Save.Roll.Total, st.Save.DC, st.Amount)
		default:
			fmt.Fprintf(&b, "; %s takes %d", name, st.Amount)
		}
	}
	return b.String()
}
