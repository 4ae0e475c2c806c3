package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wendellvieira/rpg-ai-sub001/internal/combat"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

func club() *data.Weapon {
	return &data.Weapon{Name: "Club", Category: "melee", DamageDice: "1d6", DamageType: "bludgeoning"}
}

// fighter attacks at +5 (STR 16, proficiency 2) and deals 1d6+3.
func fighter() *data.Combatant {
	return &data.Combatant{
		ID: "fighter", Name: "Fighter", Class: "fighter",
		Abilities:        data.Abilities{Strength: 16, Dexterity: 10},
		ProficiencyBonus: 2, ArmorClass: 16, HitPoints: 12, MaxHitPoints: 12,
		Weapon: club(),
	}
}

func goblin() *data.Combatant {
	return &data.Combatant{
		ID: "goblin", Name: "Goblin",
		Abilities:        data.Abilities{Strength: 8, Dexterity: 14},
		ProficiencyBonus: 2, ArmorClass: 15, HitPoints: 30, MaxHitPoints: 30,
	}
}

func engine(faces ...int) *combat.Engine {
	return combat.NewEngine(dice.NewRoller(dice.Sequence(faces...)))
}

func TestAttackConcreteScenario(t *testing.T) {
	e := engine(12, 4)
	target := goblin()

	out, err := e.Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, out.AttackBonus)
	assert.Equal(t, 17, out.AttackRoll.Total)
	assert.True(t, out.Hit)
	assert.False(t, out.Critical)
	assert.False(t, out.Fumble)
	require.NotNil(t, out.DamageRoll)
	assert.Equal(t, []int{4}, out.DamageRoll.Rolls)
	assert.Equal(t, 7, out.Damage)
	assert.Equal(t, 23, target.HitPoints)
	assert.Equal(t, 15, out.TargetAC)
}

func TestAttackTieWithACHits(t *testing.T) {
	e := engine(10, 1)
	target := goblin()

	out, err := e.Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 15, out.AttackRoll.Total)
	assert.True(t, out.Hit)
	assert.Equal(t, 4, out.Damage)
}

func TestAttackMiss(t *testing.T) {
	e := engine(9)
	target := goblin()

	out, err := e.Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.False(t, out.Hit)
	assert.Nil(t, out.DamageRoll)
	assert.Equal(t, 0, out.Damage)
	assert.Equal(t, 30, target.HitPoints)
}

func TestNaturalOneNeverDamages(t *testing.T) {
	attacker := fighter()
	attacker.Weapon.AttackBonus = 20
	target := goblin()

	out, err := engine(1, 6).Attack(attacker, target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.AttackRoll.Total, target.ArmorClass)
	assert.True(t, out.Fumble)
	assert.False(t, out.Hit)
	assert.Equal(t, 0, out.Damage)
	assert.Equal(t, 30, target.HitPoints)
}

func TestNaturalTwentyAlwaysCrits(t *testing.T) {
	attacker := fighter()
	attacker.Abilities.Strength = 1
	target := goblin()
	target.ArmorClass = 40

	out, err := engine(20, 3, 5).Attack(attacker, target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.True(t, out.Critical)
	assert.True(t, out.Hit)
	require.NotNil(t, out.DamageRoll)
	assert.Equal(t, []int{3, 5}, out.DamageRoll.Rolls)
	// Two dice, the -5 modifier applied once.
	assert.Equal(t, 3, out.Damage)
}

func TestCriticalDoublesDiceNotModifier(t *testing.T) {
	target := goblin()

	out, err := engine(20, 6, 6).Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 15, out.Damage)
	assert.Equal(t, 15, 30-target.HitPoints)
}

func TestAttackAdvantage(t *testing.T) {
	out, err := engine(3, 14, 2).Attack(fighter(), goblin(), combat.AttackOptions{Advantage: true})
	require.NoError(t, err)
	assert.Len(t, out.Draws, 2)
	assert.Equal(t, 19, out.AttackRoll.Total)
	assert.True(t, out.Hit)
	assert.Equal(t, 5, out.Damage)
}

func TestDisadvantageFumbleOnEitherOne(t *testing.T) {
	out, err := engine(18, 1).Attack(fighter(), goblin(), combat.AttackOptions{Disadvantage: true})
	require.NoError(t, err)
	assert.True(t, out.Fumble)
	assert.False(t, out.Hit)
}

func TestDisadvantageNeverCrits(t *testing.T) {
	out, err := engine(20, 20, 2).Attack(fighter(), goblin(), combat.AttackOptions{Disadvantage: true})
	require.NoError(t, err)
	assert.False(t, out.Critical)
	assert.True(t, out.Hit)
	require.NotNil(t, out.DamageRoll)
	assert.Len(t, out.DamageRoll.Rolls, 1)
}

func TestUnarmedAttack(t *testing.T) {
	attacker := fighter()
	attacker.Weapon = nil

	out, err := engine(15, 4).Attack(attacker, goblin(), combat.AttackOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Unarmed Strike", out.Weapon)
	assert.Equal(t, "1d4+3", out.DamageRoll.Expression)
	assert.Equal(t, 7, out.Damage)
}

func TestAttackAbilitySelection(t *testing.T) {
	c := &data.Combatant{Abilities: data.Abilities{Strength: 10, Dexterity: 16}}

	assert.Equal(t, data.Str, combat.AttackAbility(c, club()))
	assert.Equal(t, data.Dex, combat.AttackAbility(c, &data.Weapon{Category: "ranged"}))
	assert.Equal(t, data.Dex, combat.AttackAbility(c, &data.Weapon{Category: "melee", Properties: []string{"finesse"}}))
	assert.Equal(t, data.Str, combat.AttackAbility(c, nil))
}

func TestDamageNeverDropsHPBelowZero(t *testing.T) {
	target := goblin()
	target.HitPoints = 3

	out, err := engine(12, 6).Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 9, out.Damage)
	assert.Equal(t, 0, target.HitPoints)
	assert.Contains(t, out.Description, "falls")

	_, err = engine(12).Attack(fighter(), target, combat.AttackOptions{})
	assert.True(t, errors.Is(err, combat.ErrTargetDown))
}

func TestDefendBlock(t *testing.T) {
	src := dice.Sequence(12, 4)
	e := combat.NewEngine(dice.NewRoller(src))
	target := goblin()

	def, err := e.Defend(target, combat.Block)
	require.NoError(t, err)
	assert.True(t, def.Success)
	assert.Nil(t, def.Roll)
	assert.Equal(t, 2, def.DamageReduction)
	assert.Equal(t, 0, src.Drawn())

	out, err := e.Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Reduction)
	assert.Equal(t, 5, out.Damage)

	_, held := e.Stance(target.ID)
	assert.False(t, held)
}

func TestDefendDodge(t *testing.T) {
	// DEX 14 gives +2: 13 + 2 = 15 meets DC 15.
	e := engine(13, 19, 4)
	target := goblin()

	def, err := e.Defend(target, combat.Dodge)
	require.NoError(t, err)
	assert.True(t, def.Success)
	assert.True(t, def.ImposesDisadvantage)
	assert.Equal(t, 15, def.DC)

	out, err := e.Attack(fighter(), target, combat.AttackOptions{})
	require.NoError(t, err)
	require.Len(t, out.Draws, 2)
	assert.Equal(t, 9, out.AttackRoll.Total)
	assert.False(t, out.Hit)
}

func TestDefendDodgeFails(t *testing.T) {
	e := engine(5)

	def, err := e.Defend(goblin(), combat.Dodge)
	require.NoError(t, err)
	assert.False(t, def.Success)
	_, held := e.Stance("goblin")
	assert.False(t, held)
}

func TestParryNeedsWeapon(t *testing.T) {
	src := dice.Sequence(20)
	e := combat.NewEngine(dice.NewRoller(src))

	def, err := e.Defend(goblin(), combat.Parry)
	require.NoError(t, err)
	assert.False(t, def.Success)
	assert.Equal(t, 0, src.Drawn())

	def, err = e.Defend(fighter(), combat.Parry)
	require.NoError(t, err)
	assert.True(t, def.Success)
	assert.Equal(t, 1, src.Drawn())
}

func TestUnknownDefenseMode(t *testing.T) {
	_, err := engine().Defend(goblin(), "cower")
	assert.True(t, errors.Is(err, combat.ErrUnknownDefense))

	_, err = combat.ParseDefenseMode("Cower")
	assert.True(t, errors.Is(err, combat.ErrUnknownDefense))

	m, err := combat.ParseDefenseMode(" BLOCK ")
	require.NoError(t, err)
	assert.Equal(t, combat.Block, m)
}

func TestInitiativeSortedDescending(t *testing.T) {
	e := engine(5, 18, 5)
	a := goblin()
	a.ID = "a"
	b := fighter()
	c := goblin()
	c.ID = "c"

	rolls := e.RollInitiative([]*data.Combatant{a, b, c})
	require.Len(t, rolls, 3)
	assert.Equal(t, "fighter", rolls[0].ID)
	assert.Equal(t, 18, rolls[0].Initiative)
	assert.Equal(t, "a", rolls[1].ID)
	assert.Equal(t, 7, rolls[1].Initiative)
	assert.Equal(t, "c", rolls[2].ID)
}

func TestCombatLogStats(t *testing.T) {
	e := engine(12, 4, 1, 20, 6, 6, 9)
	f, g := fighter(), goblin()

	for i := 0; i < 4; i++ {
		_, err := e.Attack(f, g, combat.AttackOptions{})
		require.NoError(t, err)
	}

	st := e.Stats()
	assert.Equal(t, 4, st.Attacks)
	assert.Equal(t, 2, st.Hits)
	assert.Equal(t, 1, st.Criticals)
	assert.Equal(t, 1, st.Fumbles)
	assert.InDelta(t, 0.5, st.HitRate, 1e-9)
	assert.Equal(t, 22, st.TotalDamage)

	assert.Equal(t, 4, e.StatsFor("fighter").Attacks)
	assert.Equal(t, 0, e.StatsFor("goblin").Attacks)

	log := e.Log()
	require.Len(t, log, 4)
	assert.Equal(t, 1, log[0].Seq)
	assert.Equal(t, combat.EntryAttack, log[0].Kind)

	e.ClearLog()
	assert.Empty(t, e.Log())
}

func TestCheck(t *testing.T) {
	e := engine(10)
	c := &data.Combatant{ID: "bard", Abilities: data.Abilities{Charisma: 16}, ProficiencyBonus: 2, Skills: []string{"persuasion"}}

	chk := e.Check(c, "Charisma", 15, combat.CheckOptions{Skill: "persuasion"})
	assert.Equal(t, 15, chk.Roll.Total)
	assert.True(t, chk.Proficient)
	assert.True(t, chk.Success)
}
