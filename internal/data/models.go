package data

import (
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

// Ability score keys, as used in YAML, CEL and request params.
const (
	Str = "str"
	Dex = "dex"
	Con = "con"
	Int = "int"
	Wis = "wis"
	Cha = "cha"
)

// AbilityNames lists the six abilities in sheet order.
var AbilityNames = []string{Str, Dex, Con, Int, Wis, Cha}

var abilityAliases = map[string]string{
	"strength":     Str,
	"dexterity":    Dex,
	"constitution": Con,
	"intelligence": Int,
	"wisdom":       Wis,
	"charisma":     Cha,
}

// NormalizeAbility maps "Dexterity", "DEX" or "dex" to "dex". Unknown names
// return "".
func NormalizeAbility(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := abilityAliases[name]; ok {
		return full
	}
	for _, a := range AbilityNames {
		if a == name {
			return a
		}
	}
	return ""
}

// Abilities holds the six raw scores.
type Abilities struct {
	Strength     int `json:"str" yaml:"str"`
	Dexterity    int `json:"dex" yaml:"dex"`
	Constitution int `json:"con" yaml:"con"`
	Intelligence int `json:"int" yaml:"int"`
	Wisdom       int `json:"wis" yaml:"wis"`
	Charisma     int `json:"cha" yaml:"cha"`
}

// Score returns the raw score for an ability key, or 10 when unknown.
func (a Abilities) Score(ability string) int {
	switch NormalizeAbility(ability) {
	case Str:
		return a.Strength
	case Dex:
		return a.Dexterity
	case Con:
		return a.Constitution
	case Int:
		return a.Intelligence
	case Wis:
		return a.Wisdom
	case Cha:
		return a.Charisma
	}
	return 10
}

// Modifier is the derived ability modifier.
func (a Abilities) Modifier(ability string) int {
	return dice.AbilityModifier(a.Score(ability))
}

// Defense defines a creature's damage modifiers by damage type.
type Defense struct {
	Resistances     []string `json:"resistances,omitempty" yaml:"resistances"`
	Immunities      []string `json:"immunities,omitempty" yaml:"immunities"`
	Vulnerabilities []string `json:"vulnerabilities,omitempty" yaml:"vulnerabilities"`
}

// Adjust applies immunity, resistance (half, rounded down) and vulnerability
// (double) for damageType.
func (d Defense) Adjust(amount int, damageType string) int {
	switch {
	case damageType == "":
		return amount
	case containsFold(d.Immunities, damageType):
		return 0
	case containsFold(d.Resistances, damageType):
		return amount / 2
	case containsFold(d.Vulnerabilities, damageType):
		return amount * 2
	}
	return amount
}

// Weapon is an equippable weapon.
type Weapon struct {
	Index       string   `json:"index" yaml:"index"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"` // melee or ranged
	DamageDice  string   `json:"damageDice" yaml:"damage_dice"`
	DamageType  string   `json:"damageType" yaml:"damage_type"`
	AttackBonus int      `json:"attackBonus,omitempty" yaml:"attack_bonus"`
	DamageBonus int      `json:"damageBonus,omitempty" yaml:"damage_bonus"`
	Properties  []string `json:"properties,omitempty" yaml:"properties"`
}

func (w *Weapon) Ranged() bool {
	return strings.EqualFold(w.Category, "ranged")
}

func (w *Weapon) Finesse() bool {
	return containsFold(w.Properties, "finesse")
}

// SpellEffect is one damage or healing component of a spell.
type SpellEffect struct {
	Kind       string `json:"kind" yaml:"kind"` // damage or healing
	Dice       string `json:"dice" yaml:"dice"`
	DamageType string `json:"damageType,omitempty" yaml:"damage_type"`
	// AddModifier adds the caster's casting-ability modifier (cure wounds).
	AddModifier bool `json:"addModifier,omitempty" yaml:"add_modifier"`
}

func (e SpellEffect) Healing() bool {
	return strings.EqualFold(e.Kind, "healing")
}

// Spell describes a castable spell.
type Spell struct {
	Index         string        `json:"index" yaml:"index"`
	Name          string        `json:"name" yaml:"name"`
	Level         int           `json:"level" yaml:"level"`
	School        string        `json:"school,omitempty" yaml:"school"`
	CastingTime   string        `json:"castingTime,omitempty" yaml:"casting_time"`
	Range         string        `json:"range,omitempty" yaml:"range"`
	Concentration bool          `json:"concentration,omitempty" yaml:"concentration"`
	Save          string        `json:"save,omitempty" yaml:"save"`
	DC            int           `json:"dc,omitempty" yaml:"dc"`
	Effects       []SpellEffect `json:"effects" yaml:"effects"`
	Desc          string        `json:"desc,omitempty" yaml:"desc"`
}

// BonusAction reports whether the spell is cast as a bonus action.
func (s *Spell) BonusAction() bool {
	return strings.Contains(strings.ToLower(s.CastingTime), "bonus")
}

// Item is a consumable or piece of gear.
type Item struct {
	Index  string `json:"index" yaml:"index"`
	Name   string `json:"name" yaml:"name"`
	Kind   string `json:"kind" yaml:"kind"` // potion, consumable, gear
	Effect string `json:"effect,omitempty" yaml:"effect"`
	Heals  bool   `json:"heals,omitempty" yaml:"heals"`
	Desc   string `json:"desc,omitempty" yaml:"desc"`
}

// Consumable reports whether using the item spends it.
func (i *Item) Consumable() bool {
	return !strings.EqualFold(i.Kind, "gear")
}

// Combatant is a character or monster sheet as consumed by the combat engine.
type Combatant struct {
	ID               string         `json:"id" yaml:"id"`
	Name             string         `json:"name" yaml:"name"`
	Class            string         `json:"class,omitempty" yaml:"class"`
	Level            int            `json:"level,omitempty" yaml:"level"`
	IsAgent          bool           `json:"isAgent,omitempty" yaml:"is_agent"`
	Abilities        Abilities      `json:"abilities" yaml:"abilities"`
	ProficiencyBonus int            `json:"proficiencyBonus" yaml:"proficiency_bonus"`
	ArmorClass       int            `json:"armorClass" yaml:"armor_class"`
	HitPoints        int            `json:"hitPoints" yaml:"hit_points"`
	MaxHitPoints     int            `json:"maxHitPoints" yaml:"max_hit_points"`
	WeaponRef        string         `json:"weaponRef,omitempty" yaml:"weapon"`
	Weapon           *Weapon        `json:"weapon,omitempty" yaml:"-"`
	Spells           []string       `json:"spells,omitempty" yaml:"spells"`
	Inventory        map[string]int `json:"inventory,omitempty" yaml:"inventory"`
	SavingThrows     []string       `json:"savingThrows,omitempty" yaml:"saving_throws"`
	Skills           []string       `json:"skills,omitempty" yaml:"skills"`
	Defense          Defense        `json:"defense" yaml:"defense"`
}

// Modifier returns the ability modifier for ability.
func (c *Combatant) Modifier(ability string) int {
	return c.Abilities.Modifier(ability)
}

// SaveBonus is the ability modifier plus proficiency when proficient.
func (c *Combatant) SaveBonus(ability string) int {
	bonus := c.Modifier(ability)
	if containsFold(c.SavingThrows, NormalizeAbility(ability)) {
		bonus += c.ProficiencyBonus
	}
	return bonus
}

// Proficient reports skill proficiency.
func (c *Combatant) Proficient(skill string) bool {
	return containsFold(c.Skills, skill)
}

// KnowsSpell reports whether index is in the spell list.
func (c *Combatant) KnowsSpell(index string) bool {
	return containsFold(c.Spells, index)
}

func (c *Combatant) Alive() bool {
	return c.HitPoints > 0
}

// TakeDamage lowers HP, never below zero, and returns the amount lost.
func (c *Combatant) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > c.HitPoints {
		amount = c.HitPoints
	}
	c.HitPoints -= amount
	return amount
}

// Heal raises HP up to the maximum and returns the amount gained.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	if room := c.MaxHitPoints - c.HitPoints; amount > room {
		amount = room
	}
	if amount < 0 {
		return 0
	}
	c.HitPoints += amount
	return amount
}

// Stats exposes the raw scores keyed by ability, for rule formulas.
func (c *Combatant) Stats() map[string]int {
	stats := make(map[string]int, len(AbilityNames))
	for _, a := range AbilityNames {
		stats[a] = c.Abilities.Score(a)
	}
	return stats
}

// Normalize fills defaults after decoding: max HP from HP, level 1, and a
// proficiency bonus derived from level.
func (c *Combatant) Normalize() {
	if c.ID == "" {
		c.ID = Slug(c.Name)
	}
	if c.Level < 1 {
		c.Level = 1
	}
	if c.ProficiencyBonus == 0 {
		c.ProficiencyBonus = 2 + (c.Level-1)/4
	}
	if c.MaxHitPoints == 0 {
		c.MaxHitPoints = c.HitPoints
	}
	if c.HitPoints > c.MaxHitPoints {
		c.HitPoints = c.MaxHitPoints
	}
}

// Clone returns a deep copy.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	if c.Weapon != nil {
		w := *c.Weapon
		w.Properties = append([]string(nil), c.Weapon.Properties...)
		cp.Weapon = &w
	}
	cp.Spells = append([]string(nil), c.Spells...)
	cp.SavingThrows = append([]string(nil), c.SavingThrows...)
	cp.Skills = append([]string(nil), c.Skills...)
	if c.Inventory != nil {
		cp.Inventory = make(map[string]int, len(c.Inventory))
		for k, v := range c.Inventory {
			cp.Inventory[k] = v
		}
	}
	return &cp
}

// Slug turns "Potion of Healing" into "potion-of-healing".
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
