package parser

import (
	"fmt"
	"strings"
)

// UsageFunc returns the usage line for a verb, if the verb is known.
type UsageFunc func(verb string) (string, bool)

// MapError turns a raw participle error into a human-friendly guidance
// message, using the usage line of the verb when one is known.
func MapError(input string, err error, usage UsageFunc) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand your command")
	}

	verb := strings.ToLower(strings.Fields(input)[0])
	if usage != nil {
		if u, ok := usage(verb); ok {
			return fmt.Errorf("the command %s must be: %s", verb, u)
		}
	}

	if err != nil {
		return fmt.Errorf("I wasn't able to understand your command: %w", err)
	}
	return fmt.Errorf("I wasn't able to understand your command")
}
