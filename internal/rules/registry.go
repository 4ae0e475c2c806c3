// Package rules evaluates catalog formulas written in CEL.
package rules

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

// RollFunc evaluates a dice expression (e.g. "1d20") and returns the total.
// It is injected to allow deterministic testing.
type RollFunc func(notation string) (int, error)

// declared lists the variables every formula may reference. Missing ones
// are bound to empty maps before evaluation.
var declared = []string{"params", "actor", "target", "turn"}

// Registry manages the CEL environment and caches compiled programs. It is
// safe for concurrent use.
type Registry struct {
	env *cel.Env

	mu    sync.Mutex
	progs map[string]cel.Program
}

// NewRegistry initializes the CEL environment with the RPG variables and the
// roll() and mod() functions.
func NewRegistry(roll RollFunc) (*Registry, error) {
	if roll == nil {
		r := dice.NewRoller(nil)
		roll = func(notation string) (int, error) {
			res, err := r.Roll(notation)
			return res.Total, err
		}
	}

	opts := []cel.EnvOption{ext.Strings(), cel.CrossTypeNumericComparisons(true)}
	for _, name := range declared {
		opts = append(opts, cel.Variable(name, cel.MapType(cel.StringType, cel.DynType)))
	}
	opts = append(opts,
		cel.Function("roll",
			cel.Overload("roll_string",
				[]*cel.Type{cel.StringType},
				cel.IntType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					total, err := roll(arg.Value().(string))
					if err != nil {
						return types.NewErr("roll: %v", err)
					}
					return types.Int(total)
				}),
			),
		),
		cel.Function("mod",
			cel.Overload("mod_int",
				[]*cel.Type{cel.IntType},
				cel.IntType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					return types.Int(dice.AbilityModifier(int(arg.Value().(int64))))
				}),
			),
		),
	)

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Registry{env: env, progs: make(map[string]cel.Program)}, nil
}

// Compile checks a formula without evaluating it.
func (r *Registry) Compile(expression string) error {
	_, err := r.program(expression)
	return err
}

func (r *Registry) program(expression string) (cel.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prg, ok := r.progs[expression]; ok {
		return prg, nil
	}
	ast, iss := r.env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", iss.Err())
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}
	r.progs[expression] = prg
	return prg, nil
}

// Eval executes a CEL expression against vars and returns a native value.
func (r *Registry) Eval(expression string, vars map[string]any) (any, error) {
	prg, err := r.program(expression)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(declared))
	for _, name := range declared {
		activation[name] = map[string]any{}
	}
	for k, v := range vars {
		activation[k] = normalize(v)
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("CEL eval error: %w", err)
	}
	return out.Value(), nil
}

// Check evaluates a formula that must produce a boolean.
func (r *Registry) Check(expression string, vars map[string]any) (bool, error) {
	out, err := r.Eval(expression, vars)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("formula %q returned %T, not bool", expression, out)
	}
	return b, nil
}

// ActorVars exposes a combatant to formulas as actor or target.
func ActorVars(c *data.Combatant) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	stats := make(map[string]any, len(data.AbilityNames))
	for k, v := range c.Stats() {
		stats[k] = int64(v)
	}
	inventory := make(map[string]any, len(c.Inventory))
	for k, v := range c.Inventory {
		inventory[k] = int64(v)
	}
	spells := make([]any, 0, len(c.Spells))
	for _, s := range c.Spells {
		spells = append(spells, s)
	}
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"class":       c.Class,
		"level":       int64(c.Level),
		"hp":          int64(c.HitPoints),
		"max_hp":      int64(c.MaxHitPoints),
		"ac":          int64(c.ArmorClass),
		"proficiency": int64(c.ProficiencyBonus),
		"stats":       stats,
		"inventory":   inventory,
		"spells":      spells,
		"armed":       c.Weapon != nil,
	}
}

// normalize turns integral floats (as JSON decoding produces) into int64 so
// that formulas can compare them against int literals.
func normalize(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case int:
		return int64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = normalize(v)
		}
		return out
	}
	return v
}
