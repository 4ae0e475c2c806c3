package dispatch

import (
	"fmt"
	"strings"
)

// ValidateParams checks params against a catalog entry: required presence,
// declared type, and enum membership. Every violation is returned.
func ValidateParams(def FunctionDef, params Params) []error {
	var errs []error
	for _, pd := range def.Parameters {
		v, ok := params[pd.Name]
		if !ok || v == nil {
			if pd.Required {
				errs = append(errs, fmt.Errorf("%s is required", pd.Name))
			}
			continue
		}
		if !typeMatches(pd.Type, v) {
			errs = append(errs, fmt.Errorf("%s must be a %s", pd.Name, pd.Type))
			continue
		}
		if len(pd.Enum) > 0 {
			s, _ := params.String(pd.Name)
			if !containsFold(pd.Enum, s) {
				errs = append(errs, fmt.Errorf("%s must be one of %s", pd.Name, strings.Join(pd.Enum, ", ")))
			}
		}
	}
	return errs
}

func typeMatches(t ParamType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		_, ok := toFloat(v)
		return ok
	case TypeBoolean:
		_, ok := Params{"v": v}.Bool("v")
		return ok
	case TypeArray:
		switch v.(type) {
		case []any, []string, string:
			return true
		}
		return false
	case TypeObject:
		switch v.(type) {
		case map[string]any, Params:
			return true
		}
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
