package plugin

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Validate checks a config against the schema. Validation is strict:
// required keys must be present, unknown keys are rejected, and values
// must already have the declared type. No coercion happens here; a
// string "7" never satisfies an integer property.
func (s Schema) Validate(cfg map[string]any) error {
	for _, key := range s.Required {
		if _, ok := cfg[key]; !ok {
			return fmt.Errorf("%w: missing required key %q", ErrInvalidConfig, key)
		}
	}

	// Deterministic error for multiple unknown keys.
	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop, ok := s.Properties[key]
		if !ok {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, key)
		}
		if err := prop.check(key, cfg[key]); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults returns a copy of cfg with schema defaults filled in for
// absent optional keys. The input map is not modified.
func (s Schema) ApplyDefaults(cfg Config) Config {
	merged := make(Config, len(s.Properties))
	for key, prop := range s.Properties {
		if prop.Default != nil {
			merged[key] = prop.Default
		}
	}
	for key, value := range cfg {
		merged[key] = value
	}
	return merged
}

func (p Property) check(key string, value any) error {
	switch p.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return typeError(key, p.Type, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeError(key, p.Type, value)
		}
	case TypeInteger:
		// JSON decoding delivers numbers as float64, so an integral
		// float64 counts as an integer. A fractional one does not.
		switch v := value.(type) {
		case int, int64:
		case float64:
			if v != math.Trunc(v) {
				return typeError(key, p.Type, value)
			}
		default:
			return typeError(key, p.Type, value)
		}
	case TypeNumber:
		switch value.(type) {
		case int, int64, float64:
		default:
			return typeError(key, p.Type, value)
		}
	default:
		return fmt.Errorf("%w: property %q declares unknown type %q", ErrInvalidConfig, key, p.Type)
	}

	if len(p.Enum) > 0 {
		for _, allowed := range p.Enum {
			if equalValue(value, allowed) {
				return nil
			}
		}
		return fmt.Errorf("%w: key %q value %v not in %v", ErrInvalidConfig, key, value, p.Enum)
	}
	return nil
}

func typeError(key string, want PropertyType, got any) error {
	return fmt.Errorf("%w: key %q expects %s, got %T", ErrInvalidConfig, key, want, got)
}

// equalValue compares an enum candidate against a config value, treating
// numerically equal int and float64 forms as the same value.
func equalValue(a, b any) bool {
	if na, aok := toFloat(a); aok {
		if nb, bok := toFloat(b); bok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
