package config

import (
	"errors"
	"fmt"
)

// RootKey is the fixed root of the configuration tree. A fragment consisting only of this key
// is unwrapped before validation.
const RootKey = "tests"

// Normalized is a validated configuration: one Section per prefix.
type Normalized map[string]Section

// Validate merges fragments left to right and validates the result for each prefix, using the
// schema ids composed by ComposeSchemaIDs. Every key declared by the schema is present in the
// returned sections, holding its configured value, its default, or nil.
func (r *Registry) Validate(fragments []map[string]interface{}, prefixes []string, schemaIDs []string) (Normalized, error) {
	nodes := make(map[string]*Node, len(prefixes))
	for _, prefix := range prefixes {
		node, err := r.PrefixNode(prefix, ComposeSchemaIDs(prefix, schemaIDs))
		if err != nil {
			return nil, err
		}
		nodes[prefix] = node
	}

	merged := make(map[string]interface{}, len(prefixes))
	for _, fragment := range fragments {
		fragment = unwrapRoot(fragment)
		for _, key := range sortedKeys(fragment) {
			node := nodes[key]
			if node == nil {
				return nil, &ConfigValidationError{
					Prefix: key,
					Path:   joinPath(RootKey, key),
					Reason: "unrecognized option",
				}
			}
			v, err := node.normalize(joinPath(RootKey, key), fragment[key])
			if err != nil {
				return nil, wrapFieldError(key, err)
			}
			if prev, ok := merged[key]; ok {
				v = node.merge(prev, v)
			}
			merged[key] = v
		}
	}

	out := make(Normalized, len(prefixes))
	for _, prefix := range prefixes {
		v, present := merged[prefix]
		fv, err := nodes[prefix].finalize(joinPath(RootKey, prefix), v, present)
		if err != nil {
			return nil, wrapFieldError(prefix, err)
		}
		m, _ := fv.(map[string]interface{})
		out[prefix] = Section(m)
	}
	return out, nil
}

func unwrapRoot(fragment map[string]interface{}) map[string]interface{} {
	if len(fragment) != 1 {
		return fragment
	}
	if inner, ok := fragment[RootKey].(map[string]interface{}); ok {
		return inner
	}
	return fragment
}

func wrapFieldError(prefix string, err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return &ConfigValidationError{Prefix: prefix, Path: fe.path, Reason: fe.reason}
	}
	return fmt.Errorf("validating %q: %w", prefix, err)
}
