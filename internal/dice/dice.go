// Package dice evaluates "[count]d[sides][+/-modifier]" notation against an
// injectable random source.
package dice

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wendellvieira/rpg-ai-sub001/internal/parser"
)

// ErrInvalidExpression is returned for notation that does not parse or that
// violates the count/sides bounds.
var ErrInvalidExpression = errors.New("invalid dice expression")

const (
	MinSides = 2
	MaxCount = 1000
)

// Result contains the finalized answer alongside the raw rolls used.
type Result struct {
	Expression string `json:"expression"`
	Sides      int    `json:"sides"`
	Rolls      []int  `json:"rolls"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
	Critical   bool   `json:"critical"`
}

// Natural returns the first die face, which is what "natural 20" and
// "natural 1" refer to on a single d20.
func (r Result) Natural() int {
	if len(r.Rolls) == 0 {
		return 0
	}
	return r.Rolls[0]
}

// PairResult is an advantage or disadvantage roll: the kept Result plus both
// draws in the order they were rolled.
type PairResult struct {
	Result
	Draws [2]Result `json:"draws"`
}

// Roller rolls dice using Source.
type Roller struct {
	src Source
}

// NewRoller returns a roller drawing from src. A nil src uses crypto/rand.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = NewCryptoSource()
	}
	return &Roller{src: src}
}

// Expression is a parsed and bounds-checked notation.
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

func (e Expression) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	}
	return fmt.Sprintf("%dd%d", e.Count, e.Sides)
}

// Max is the highest total the expression can produce.
func (e Expression) Max() int {
	return e.Count*e.Sides + e.Modifier
}

// Parse validates notation without rolling it.
func Parse(notation string) (Expression, error) {
	notation = strings.TrimSpace(notation)
	n, err := parser.ParseDice(notation)
	if err != nil {
		return Expression{}, fmt.Errorf("%w %q: %v", ErrInvalidExpression, notation, err)
	}
	expr := Expression{Count: n.DiceCount(), Sides: n.Sides, Modifier: n.Flat()}
	if expr.Count < 1 || expr.Count > MaxCount {
		return Expression{}, fmt.Errorf("%w %q: count must be between 1 and %d", ErrInvalidExpression, notation, MaxCount)
	}
	if expr.Sides < MinSides {
		return Expression{}, fmt.Errorf("%w %q: a die needs at least %d sides", ErrInvalidExpression, notation, MinSides)
	}
	return expr, nil
}

// Roll evaluates notation.
func (r *Roller) Roll(notation string) (Result, error) {
	expr, err := Parse(notation)
	if err != nil {
		return Result{}, err
	}
	return r.RollExpr(expr), nil
}

// RollExpr rolls an already validated expression.
func (r *Roller) RollExpr(expr Expression) Result {
	res := Result{
		Expression: expr.String(),
		Sides:      expr.Sides,
		Rolls:      make([]int, expr.Count),
		Modifier:   expr.Modifier,
	}
	for i := range res.Rolls {
		face := r.src.Intn(expr.Sides) + 1
		res.Rolls[i] = face
		res.Total += face
		if face == expr.Sides {
			res.Critical = true
		}
	}
	res.Total += expr.Modifier
	return res
}

// D20 rolls 1d20 with a flat modifier.
func (r *Roller) D20(modifier int) Result {
	return r.RollExpr(Expression{Count: 1, Sides: 20, Modifier: modifier})
}

// RollWithAdvantage rolls twice and keeps the higher total. It is critical
// when either draw holds a maximum face.
func (r *Roller) RollWithAdvantage(notation string) (PairResult, error) {
	expr, err := Parse(notation)
	if err != nil {
		return PairResult{}, err
	}
	return r.advantage(expr), nil
}

// RollWithDisadvantage rolls twice and keeps the lower total. It is never
// critical.
func (r *Roller) RollWithDisadvantage(notation string) (PairResult, error) {
	expr, err := Parse(notation)
	if err != nil {
		return PairResult{}, err
	}
	return r.disadvantage(expr), nil
}

// Pair rolls expr once, or twice keeping the better/worse result. When both
// flags are set they cancel out.
func (r *Roller) Pair(expr Expression, advantage, disadvantage bool) PairResult {
	switch {
	case advantage && !disadvantage:
		return r.advantage(expr)
	case disadvantage && !advantage:
		return r.disadvantage(expr)
	}
	res := r.RollExpr(expr)
	return PairResult{Result: res, Draws: [2]Result{res, res}}
}

func (r *Roller) advantage(expr Expression) PairResult {
	a, b := r.RollExpr(expr), r.RollExpr(expr)
	kept := a
	if b.Total > a.Total {
		kept = b
	}
	kept.Critical = a.Critical || b.Critical
	return PairResult{Result: kept, Draws: [2]Result{a, b}}
}

func (r *Roller) disadvantage(expr Expression) PairResult {
	a, b := r.RollExpr(expr), r.RollExpr(expr)
	kept := a
	if b.Total < a.Total {
		kept = b
	}
	kept.Critical = false
	return PairResult{Result: kept, Draws: [2]Result{a, b}}
}

// RollAbilityScore rolls 4d6 and sums the highest three.
func (r *Roller) RollAbilityScore() Result {
	res := r.RollExpr(Expression{Count: 4, Sides: 6})
	sorted := append([]int(nil), res.Rolls...)
	sort.Ints(sorted)
	res.Total -= sorted[0]
	res.Expression = "4d6kh3"
	return res
}

// RollAbilityScores rolls a full array of six scores.
func (r *Roller) RollAbilityScores() [6]int {
	var scores [6]int
	for i := range scores {
		scores[i] = r.RollAbilityScore().Total
	}
	return scores
}

// AbilityModifier is floor((score - 10) / 2).
func AbilityModifier(score int) int {
	return int(math.Floor(float64(score-10) / 2))
}
