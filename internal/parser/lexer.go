package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// LineLexer tokenizes console lines such as
// "attack by: fighter to: goblin with: longsword advantage: true".
// "by" and "and" are reserved; every other word is an Ident.
var LineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(?:by|and)\b`},
	{Name: "DiceMacro", Pattern: `\d*[dD]\d+(?:[+-]\d+)?\b`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w-]*`},
	{Name: "Punct", Pattern: `[:]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// DiceLexer tokenizes "[count]d[sides][+/-modifier]".
var DiceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `\d+`},
	{Name: "Die", Pattern: `[dD]`},
	{Name: "Sign", Pattern: `[+-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	lineParser = participle.MustBuild[Line](
		participle.Lexer(LineLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
	)

	diceParser = participle.MustBuild[DiceNotation](
		participle.Lexer(DiceLexer),
		participle.Elide("Whitespace"),
	)
)

// ParseLine parses one console line.
func ParseLine(input string) (*Line, error) {
	return lineParser.ParseString("", input)
}

// ParseDice parses dice notation. It checks syntax only; bounds are the
// roller's job.
func ParseDice(input string) (*DiceNotation, error) {
	return diceParser.ParseString("", input)
}
