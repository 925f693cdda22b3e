package scene

import "fmt"

// Float reads a numeric attribute regardless of its stored integer or float kind.
func Float(acc Accessor, ref Ref, name string) (float64, error) {
	v, err := acc.Attr(ref, name)
	if err != nil {
		return 0, err
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("%s.%s: expected number, got %T", ref, name, v)
	}
	return f, nil
}

// Floats reads a numeric array attribute such as animation key times.
func Floats(acc Accessor, ref Ref, name string) ([]float64, error) {
	v, err := acc.Attr(ref, name)
	if err != nil {
		return nil, err
	}
	switch vals := v.(type) {
	case []float64:
		return append([]float64(nil), vals...), nil
	case []any:
		out := make([]float64, 0, len(vals))
		for i, item := range vals {
			f, ok := ToFloat(item)
			if !ok {
				return nil, fmt.Errorf("%s.%s[%d]: expected number, got %T", ref, name, i, item)
			}
			out = append(out, f)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s.%s: expected number list, got %T", ref, name, v)
	}
}

// ToFloat converts the numeric kinds produced by the scene decoders.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
