package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
)

func wizard() *data.Combatant {
	return &data.Combatant{
		ID: "wizard", Name: "Wizard", Class: "Wizard", Level: 5,
		Abilities:        data.Abilities{Intelligence: 16, Wisdom: 12},
		ProficiencyBonus: 3, HitPoints: 20, MaxHitPoints: 20,
	}
}

func fireball() *data.Spell {
	return &data.Spell{
		Name: "Fireball", Level: 3, Save: "dex",
		Effects: []data.SpellEffect{{Kind: "damage", Dice: "2d6", DamageType: "fire"}},
	}
}

func TestCastingAbilityByClass(t *testing.T) {
	tests := map[string]string{
		"wizard": data.Int, "Artificer": data.Int,
		"cleric": data.Wis, "druid": data.Wis, "ranger": data.Wis, "monk": data.Wis,
		"bard": data.Cha, "sorcerer": data.Cha, "warlock": data.Cha, "paladin": data.Cha,
	}
	for class, want := range tests {
		assert.Equal(t, want, combat.CastingAbility(&data.Combatant{Class: class}), class)
	}

	monster := &data.Combatant{Abilities: data.Abilities{Intelligence: 6, Wisdom: 10, Charisma: 18}}
	assert.Equal(t, data.Cha, combat.CastingAbility(monster))
}

func TestSaveDC(t *testing.T) {
	assert.Equal(t, 14, combat.SaveDC(wizard(), fireball()))

	fixed := fireball()
	fixed.DC = 19
	assert.Equal(t, 19, combat.SaveDC(wizard(), fixed))
}

func TestSpellSaveHalvesDamage(t *testing.T) {
	// Damage 5+5. The goblin saves with 12+2 and the orc fails with 3-5.
	e := engine(5, 5, 12, 3)
	g := goblin()
	orc := &data.Combatant{ID: "orc", Name: "Orc", HitPoints: 15, MaxHitPoints: 15}

	out, err := e.CastSpell(wizard(), fireball(), []*data.Combatant{g, orc}, combat.SpellOptions{})
	require.NoError(t, err)

	assert.Equal(t, 14, out.DC)
	assert.Equal(t, 10, out.Damage)
	assert.Equal(t, 3, out.SlotLevel)
	require.Len(t, out.Targets, 2)

	require.NotNil(t, out.Targets[0].Save)
	assert.True(t, out.Targets[0].Save.Passed)
	assert.Equal(t, 14, out.Targets[0].Save.Roll.Total)
	assert.Equal(t, 5, out.Targets[0].Amount)
	assert.Equal(t, 25, g.HitPoints)

	assert.False(t, out.Targets[1].Save.Passed)
	assert.Equal(t, 10, out.Targets[1].Amount)
	assert.Equal(t, 5, orc.HitPoints)
}

func TestSpellSavePassed(t *testing.T) {
	e := engine(5, 6, 15)
	g := goblin()

	out, err := e.CastSpell(wizard(), fireball(), []*data.Combatant{g}, combat.SpellOptions{})
	require.NoError(t, err)
	assert.True(t, out.Targets[0].Save.Passed)
	assert.Equal(t, 5, out.Targets[0].Amount)
	assert.Equal(t, 25, g.HitPoints)
}

func TestSpellUpcastDamage(t *testing.T) {
	e := engine(1, 1, 1)
	orc := &data.Combatant{ID: "orc", Name: "Orc", HitPoints: 50, MaxHitPoints: 50}

	out, err := e.CastSpell(wizard(), fireball(), []*data.Combatant{orc}, combat.SpellOptions{SlotLevel: 5})
	require.NoError(t, err)
	assert.Equal(t, 2+2*combat.UpcastDamagePerLevel, out.Damage)
	assert.Equal(t, 14, out.Targets[0].Amount)
	assert.Contains(t, out.Description, "at level 5")
}

func TestSpellHealingIsNegative(t *testing.T) {
	cleric := &data.Combatant{ID: "cleric", Name: "Cleric", Class: "cleric", Abilities: data.Abilities{Wisdom: 16}, ProficiencyBonus: 2, HitPoints: 20, MaxHitPoints: 20}
	ally := fighter()
	ally.HitPoints = 1
	cure := &data.Spell{Name: "Cure Wounds", Level: 1, Effects: []data.SpellEffect{{Kind: "healing", Dice: "1d8", AddModifier: true}}}

	out, err := engine(4).CastSpell(cleric, cure, []*data.Combatant{ally}, combat.SpellOptions{SlotLevel: 2})
	require.NoError(t, err)

	// 4 rolled + 3 WIS + 4 for the extra level.
	assert.Equal(t, -11, out.Damage)
	assert.Equal(t, -11, out.Targets[0].Amount)
	assert.Equal(t, 12, ally.HitPoints)
	assert.Nil(t, out.Targets[0].Save)
}

func TestHealingCapsAtMax(t *testing.T) {
	e := engine(8)
	ally := fighter()
	ally.HitPoints = 10
	word := &data.Spell{Name: "Healing Word", Level: 1, Effects: []data.SpellEffect{{Kind: "healing", Dice: "1d8"}}}

	out, err := e.CastSpell(wizard(), word, []*data.Combatant{ally}, combat.SpellOptions{})
	require.NoError(t, err)
	assert.Equal(t, -8, out.Damage)
	assert.Equal(t, -2, out.Targets[0].Amount)
	assert.Equal(t, 12, ally.HitPoints)
	assert.Equal(t, 2, e.Stats().HealingDone)
	assert.Equal(t, 1, e.Stats().SpellsCast)
}

func TestCantripIgnoresSlot(t *testing.T) {
	bolt := &data.Spell{Name: "Fire Bolt", Level: 0, Effects: []data.SpellEffect{{Kind: "damage", Dice: "1d10", DamageType: "fire"}}}

	out, err := engine(7).CastSpell(wizard(), bolt, []*data.Combatant{goblin()}, combat.SpellOptions{SlotLevel: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, out.Damage)
	assert.Nil(t, out.Targets[0].Save)
}

func TestSpellSlotValidation(t *testing.T) {
	_, err := engine(1).CastSpell(wizard(), fireball(), []*data.Combatant{goblin()}, combat.SpellOptions{SlotLevel: 2})
	assert.True(t, errors.Is(err, combat.ErrSlotTooLow))

	_, err = engine(1).CastSpell(wizard(), fireball(), []*data.Combatant{goblin()}, combat.SpellOptions{SlotLevel: 10})
	assert.True(t, errors.Is(err, combat.ErrSlotTooLow))

	_, err = engine(1).CastSpell(wizard(), fireball(), nil, combat.SpellOptions{})
	assert.True(t, errors.Is(err, combat.ErrNoTarget))
}

func TestSpellResistance(t *testing.T) {
	g := goblin()
	g.Defense.Resistances = []string{"fire"}

	out, err := engine(5, 6, 1).CastSpell(wizard(), fireball(), []*data.Combatant{g}, combat.SpellOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Targets[0].Amount)
}
