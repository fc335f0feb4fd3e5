package config

import (
	"fmt"
	"sort"
)

// normalizeTree converts a decoded document into the generic shape the schema works on:
// map[string]interface{} for mappings and []interface{} for sequences.
func normalizeTree(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeTree(e)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeTree(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeTree(e)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeTree(e)
		}
		return out
	default:
		return v
	}
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// deepMerge merges right into left, recursing into mappings; right wins everywhere else.
func deepMerge(left, right map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		lm, lok := out[k].(map[string]interface{})
		rm, rok := v.(map[string]interface{})
		if lok && rok {
			out[k] = deepMerge(lm, rm)
		} else {
			out[k] = v
		}
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
