package vectorstore

// Matches reports whether a payload satisfies every filter condition.
//
// Equality conditions compare scalars loosely across numeric kinds so that a
// filter built from JSON (float64) matches payloads written with int values.
// Set-membership conditions match when the payload field equals any listed
// value, or, for string-array payloads, contains any listed value.
func (f *Filter) Matches(payload map[string]any) bool {
	if f.IsZero() {
		return true
	}
	for key, want := range f.Match {
		got, ok := payload[key]
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	for key, wants := range f.MatchAny {
		got, ok := payload[key]
		if !ok || !anyMatch(got, wants) {
			return false
		}
	}
	return true
}

func anyMatch(got any, wants []string) bool {
	switch v := got.(type) {
	case []string:
		for _, elem := range v {
			for _, w := range wants {
				if elem == w {
					return true
				}
			}
		}
	case []any:
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			for _, w := range wants {
				if s == w {
					return true
				}
			}
		}
	default:
		for _, w := range wants {
			if scalarEqual(got, w) {
				return true
			}
		}
	}
	return false
}

func scalarEqual(got, want any) bool {
	if got == want {
		return true
	}
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	if gok && wok {
		return gf == wf
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// MergeFilters combines two filter maps, with override taking precedence.
func MergeFilters(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		result[k] = v
	}
	return result
}
