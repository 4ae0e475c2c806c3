package dnd5eapi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
)

type named struct {
	Index string `json:"index"`
	Name  string `json:"name"`
}

// APISpell is the subset of /api/2014/spells/<index> the engine uses.
type APISpell struct {
	Index         string   `json:"index"`
	Name          string   `json:"name"`
	Level         int      `json:"level"`
	School        named    `json:"school"`
	CastingTime   string   `json:"casting_time"`
	Range         string   `json:"range"`
	Concentration bool     `json:"concentration"`
	Desc          []string `json:"desc"`
	DC            *struct {
		Type named `json:"dc_type"`
	} `json:"dc"`
	Damage *struct {
		Type        named             `json:"damage_type"`
		AtSlotLevel map[string]string `json:"damage_at_slot_level"`
		AtCharLevel map[string]string `json:"damage_at_character_level"`
	} `json:"damage"`
	HealAtSlotLevel map[string]string `json:"heal_at_slot_level"`
}

// APIWeapon is the subset of /api/2014/equipment/<index> for weapons.
type APIWeapon struct {
	Index       string `json:"index"`
	Name        string `json:"name"`
	WeaponRange string `json:"weapon_range"`
	Damage      *struct {
		Dice string `json:"damage_dice"`
		Type named  `json:"damage_type"`
	} `json:"damage"`
	Properties []named `json:"properties"`
}

// Spell converts to the data layout. Damage and healing use the base slot
// (or first character level for cantrips); a "+ MOD" suffix becomes
// AddModifier.
func (s *APISpell) Spell() data.Spell {
	out := data.Spell{
		Index:         s.Index,
		Name:          s.Name,
		Level:         s.Level,
		School:        strings.ToLower(s.School.Index),
		CastingTime:   s.CastingTime,
		Range:         s.Range,
		Concentration: s.Concentration,
		Desc:          strings.Join(s.Desc, "\n"),
	}
	if s.DC != nil {
		out.Save = data.NormalizeAbility(s.DC.Type.Index)
	}
	if s.Damage != nil {
		table := s.Damage.AtSlotLevel
		if len(table) == 0 {
			table = s.Damage.AtCharLevel
		}
		if d, ok := lowest(table); ok {
			dice, _ := splitMod(d)
			out.Effects = append(out.Effects, data.SpellEffect{
				Kind:       "damage",
				Dice:       dice,
				DamageType: strings.ToLower(s.Damage.Type.Index),
			})
		}
	}
	if d, ok := lowest(s.HealAtSlotLevel); ok {
		dice, mod := splitMod(d)
		out.Effects = append(out.Effects, data.SpellEffect{Kind: "healing", Dice: dice, AddModifier: mod})
	}
	return out
}

// Weapon converts to the data layout. ok is false for equipment without
// damage (nets, for instance).
func (w *APIWeapon) Weapon() (data.Weapon, bool) {
	if w.Damage == nil || w.Damage.Dice == "" {
		return data.Weapon{}, false
	}
	out := data.Weapon{
		Index:      w.Index,
		Name:       w.Name,
		Category:   strings.ToLower(w.WeaponRange),
		DamageDice: strings.ReplaceAll(w.Damage.Dice, " ", ""),
		DamageType: strings.ToLower(w.Damage.Type.Index),
	}
	for _, p := range w.Properties {
		out.Properties = append(out.Properties, p.Index)
	}
	return out, true
}

// lowest picks the entry with the smallest numeric key.
func lowest(table map[string]string) (string, bool) {
	keys := make([]int, 0, len(table))
	for k := range table {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Ints(keys)
	return table[strconv.Itoa(keys[0])], true
}

// splitMod turns "1d4 + MOD" into ("1d4", true).
func splitMod(expr string) (string, bool) {
	expr = strings.ReplaceAll(expr, " ", "")
	if i := strings.Index(strings.ToUpper(expr), "+MOD"); i >= 0 {
		return expr[:i], true
	}
	return expr, false
}
