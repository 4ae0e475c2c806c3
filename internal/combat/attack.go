package combat

import (
	"fmt"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

var unarmed = &data.Weapon{
	Index:      "unarmed",
	Name:       "Unarmed Strike",
	Category:   "melee",
	DamageDice: "1d4",
	DamageType: "bludgeoning",
}

// AttackOptions tunes an attack roll.
type AttackOptions struct {
	Advantage    bool
	Disadvantage bool
}

// AttackOutcome is the result of one attack. It is created fresh per attack.
type AttackOutcome struct {
	AttackerID  string        `json:"attackerId"`
	TargetID    string        `json:"targetId"`
	Weapon      string        `json:"weapon"`
	Ability     string        `json:"ability"`
	AttackBonus int           `json:"attackBonus"`
	Hit         bool          `json:"hit"`
	Critical    bool          `json:"critical"`
	Fumble      bool          `json:"fumble"`
	Damage      int           `json:"damage"`
	DamageType  string        `json:"damageType"`
	Reduction   int           `json:"reduction,omitempty"`
	AttackRoll  dice.Result   `json:"attackRoll"`
	Draws       []dice.Result `json:"draws,omitempty"`
	DamageRoll  *dice.Result  `json:"damageRoll,omitempty"`
	TargetAC    int           `json:"targetAc"`
	TargetHP    int           `json:"targetHp"`
	Description string        `json:"description"`
}

// AttackAbility picks the ability a weapon attacks with: DEX for ranged, STR
// for melee, and the better of the two for finesse weapons.
func AttackAbility(c *data.Combatant, w *data.Weapon) string {
	if w == nil {
		return data.Str
	}
	if w.Ranged() {
		return data.Dex
	}
	if w.Finesse() && c.Modifier(data.Dex) > c.Modifier(data.Str) {
		return data.Dex
	}
	return data.Str
}

// Attack resolves attacker hitting target with the attacker's equipped
// weapon, or an unarmed strike. Damage is applied to target.
func (e *Engine) Attack(attacker, target *data.Combatant, opts AttackOptions) (*AttackOutcome, error) {
	if target == nil {
		return nil, ErrNoTarget
	}
	if !attacker.Alive() {
		return nil, fmt.Errorf("%w: %s", ErrAttackerDown, attacker.Name)
	}
	if !target.Alive() {
		return nil, fmt.Errorf("%w: %s", ErrTargetDown, target.Name)
	}

	weapon := attacker.Weapon
	if weapon == nil {
		weapon = unarmed
	}
	damageDice := weapon.DamageDice
	if damageDice == "" {
		damageDice = unarmed.DamageDice
	}
	damageExpr, err := dice.Parse(damageDice)
	if err != nil {
		return nil, fmt.Errorf("weapon %s: %w", weapon.Name, err)
	}

	// A pending dodge or parry turns this attack into a disadvantaged one; a
	// block soaks damage. Either way the stance is spent.
	stance, hasStance := e.stances[target.ID]
	if hasStance {
		delete(e.stances, target.ID)
		if stance.ImposesDisadvantage {
			opts.Disadvantage = true
		}
	}

	ability := AttackAbility(attacker, weapon)
	bonus := attacker.Modifier(ability) + attacker.ProficiencyBonus + weapon.AttackBonus
	roll := e.roller.Pair(dice.Expression{Count: 1, Sides: 20, Modifier: bonus}, opts.Advantage, opts.Disadvantage)

	out := &AttackOutcome{
		AttackerID:  attacker.ID,
		TargetID:    target.ID,
		Weapon:      weapon.Name,
		Ability:     ability,
		AttackBonus: bonus,
		AttackRoll:  roll.Result,
		DamageType:  weapon.DamageType,
		TargetAC:    target.ArmorClass,
	}
	if opts.Advantage != opts.Disadvantage {
		out.Draws = roll.Draws[:]
	}

	out.Critical = roll.Critical
	out.Fumble = roll.Natural() == 1
	out.Hit = !out.Fumble && (out.Critical || roll.Total >= target.ArmorClass)

	if out.Hit {
		if out.Critical {
			damageExpr.Count *= 2
		}
		damageExpr.Modifier += attacker.Modifier(ability) + weapon.DamageBonus
		dmg := e.roller.RollExpr(damageExpr)
		out.DamageRoll = &dmg

		amount := max(dmg.Total, 0)
		if hasStance {
			out.Reduction = min(stance.DamageReduction, amount)
			amount -= out.Reduction
		}
		out.Damage = target.Defense.Adjust(amount, weapon.DamageType)
		target.TakeDamage(out.Damage)
	}
	out.TargetHP = target.HitPoints
	out.Description = describeAttack(attacker, target, out)

	e.append(LogEntry{Kind: EntryAttack, ActorID: attacker.ID, Attack: out})
	return out, nil
}

func describeAttack(attacker, target *data.Combatant, out *AttackOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s attacks %s with %s (%d vs AC %d)", attacker.Name, target.Name, out.Weapon, out.AttackRoll.Total, out.TargetAC)
	switch {
	case out.Fumble:
		b.WriteString(": a fumble, the attack goes wide")
	case out.Critical:
		fmt.Fprintf(&b, ": CRITICAL HIT for %d %s damage", out.Damage, out.DamageType)
	case out.Hit:
		fmt.Fprintf(&b, ": hit for %d %s damage", out.Damage, out.DamageType)
	default:
		b.WriteString(": miss")
	}
	if out.Hit && !target.Alive() {
		fmt.Fprintf(&b, ". %s falls", target.Name)
	}
	return b.String()
}
