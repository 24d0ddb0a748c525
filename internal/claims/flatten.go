package claims

import (
	"maps"
	"slices"
	"strconv"
)

// Flatten walks arbitrary decoded JSON and collects its leaves by their
// nearest key. Objects shaped like {"field": k, "value": v} contribute k=v so
// a payload echoed back from a read can be submitted as an edit. Later
// occurrences of a key win, with object keys visited in sorted order. A JSON null yields an empty value.
func Flatten(v any) map[string]string {
	out := make(map[string]string)
	flatten("", v, out)
	return out
}

func flatten(key string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		if name, ok := t["field"].(string); ok {
			if val, has := t["value"]; has {
				if s, ok := leaf(val); ok {
					out[name] = s
				}
				return
			}
		}
		for _, k := range slices.Sorted(maps.Keys(t)) {
			flatten(k, t[k], out)
		}
	case []any:
		for _, child := range t {
			flatten(key, child, out)
		}
	default:
		if key == "" {
			return
		}
		if s, ok := leaf(t); ok {
			out[key] = s
		}
	}
}

func leaf(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
