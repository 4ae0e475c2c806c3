package parser

import (
	"math"
	"strings"
)

// Line is a console command: a verb, an optional acting participant and a
// list of key/value arguments.
type Line struct {
	Verb  string     `parser:"@Ident"`
	Actor *ActorExpr `parser:"@@?"`
	Args  []*ArgExpr `parser:"@@*"`
}

// ActorExpr maps the optional "by: Someone" block.
type ActorExpr struct {
	Keyword string `parser:"\"by\" \":\""`
	Name    string `parser:"@Ident"`
}

// ArgExpr handles key/value tuples, e.g. "to: goblin and: orc".
type ArgExpr struct {
	Key    string   `parser:"@Ident \":\""`
	Values []*Value `parser:"@@ ( \"and\" \":\" @@ )*"`
}

// Value is one argument value.
type Value struct {
	Dice   *string  `parser:"  @DiceMacro"`
	Number *float64 `parser:"| @Number"`
	Str    *string  `parser:"| @String"`
	Word   *string  `parser:"| @Ident"`
}

// Native converts the value into the type a JSON decoder would produce,
// except that integral numbers become int.
func (v *Value) Native() any {
	switch {
	case v.Dice != nil:
		return *v.Dice
	case v.Number != nil:
		if n := *v.Number; n == math.Trunc(n) {
			return int(n)
		}
		return *v.Number
	case v.Str != nil:
		return *v.Str
	case v.Word != nil:
		switch strings.ToLower(*v.Word) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
		return *v.Word
	}
	return nil
}

// Method returns the lower-cased verb.
func (l *Line) Method() string {
	return strings.ToLower(l.Verb)
}

// ActorName returns the "by:" participant or "".
func (l *Line) ActorName() string {
	if l.Actor == nil {
		return ""
	}
	return l.Actor.Name
}

// Params flattens the arguments. A key given one value maps to that value;
// a key given several ("to: a and: b") maps to a []any.
func (l *Line) Params() map[string]any {
	params := make(map[string]any, len(l.Args))
	for _, arg := range l.Args {
		if len(arg.Values) == 1 {
			params[arg.Key] = arg.Values[0].Native()
			continue
		}
		list := make([]any, 0, len(arg.Values))
		for _, v := range arg.Values {
			list = append(list, v.Native())
		}
		params[arg.Key] = list
	}
	return params
}

// DiceNotation is "[count]d[sides][+/-modifier]".
type DiceNotation struct {
	Count    *int      `parser:"@Int?"`
	Die      string    `parser:"@Die"`
	Sides    int       `parser:"@Int"`
	Modifier *Modifier `parser:"@@?"`
}

// Modifier is the signed flat bonus of a dice expression.
type Modifier struct {
	Sign  string `parser:"@Sign"`
	Value int    `parser:"@Int"`
}

// DiceCount returns the count, defaulting to 1.
func (d *DiceNotation) DiceCount() int {
	if d.Count == nil {
		return 1
	}
	return *d.Count
}

// Flat returns the signed modifier, defaulting to 0.
func (d *DiceNotation) Flat() int {
	if d.Modifier == nil {
		return 0
	}
	if d.Modifier.Sign == "-" {
		return -d.Modifier.Value
	}
	return d.Modifier.Value
}
