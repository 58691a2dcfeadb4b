package service

import "time"

// InitOptions carries initialization options into a service's
// initialize hook. Keys are service-defined; values typically come
// straight from the decoded application config.
type InitOptions map[string]any

// Merge returns a copy of opts with overrides applied on top.
// Either side may be nil.
func (o InitOptions) Merge(overrides InitOptions) InitOptions {
	if len(overrides) == 0 {
		return o
	}
	merged := make(InitOptions, len(o)+len(overrides))
	for k, v := range o {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// OptionString safely extracts a string option with a default fallback
func OptionString(opts InitOptions, key, defaultValue string) string {
	if value, exists := opts[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

// OptionInt safely extracts an integer option with a default fallback.
// JSON and YAML decoders produce float64 or int64 for numbers, so all
// three widths are accepted.
func OptionInt(opts InitOptions, key string, defaultValue int) int {
	if value, exists := opts[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			result := int(v)
			if float64(result) == v {
				return result
			}
		}
	}
	return defaultValue
}

// OptionBool safely extracts a boolean option with a default fallback
func OptionBool(opts InitOptions, key string, defaultValue bool) bool {
	if value, exists := opts[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return defaultValue
}

// OptionDuration safely extracts a duration option with a default
// fallback. Accepts duration strings ("5s") or raw nanosecond values.
func OptionDuration(opts InitOptions, key string, defaultValue time.Duration) time.Duration {
	if value, exists := opts[key]; exists {
		switch v := value.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		case time.Duration:
			return v
		case int64:
			return time.Duration(v)
		case float64:
			return time.Duration(v)
		}
	}
	return defaultValue
}
