// Package command implements the action handlers reachable through the
// dispatcher: combat, movement, magic, items, social checks and the turn
// controls.
package command

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/rules"
)

//go:embed catalog.yaml
var catalogYAML []byte

// LoadCatalog decodes the embedded function catalog keyed by method name.
// Every prerequisite formula is compiled so that a typo fails at startup.
func LoadCatalog(r *rules.Registry) (map[string]dispatch.FunctionDef, error) {
	var defs []dispatch.FunctionDef
	if err := yaml.Unmarshal(catalogYAML, &defs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	out := make(map[string]dispatch.FunctionDef, len(defs))
	for _, def := range defs {
		if _, dup := out[def.Name]; dup {
			return nil, fmt.Errorf("catalog lists %q twice", def.Name)
		}
		if def.Prereq != "" && r != nil {
			if err := r.Compile(def.Prereq); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", def.Name, err)
			}
		}
		out[def.Name] = def
	}
	return out, nil
}
