// Package config defines the configuration schema for declarative controller tests, and
// loads, merges and validates configuration fragments against it.
//
// A configuration tree is keyed by prefix (the namespace of one test suite), and below that by
// the fields contributed by each schema id composed for the prefix. Fragments come from files
// found under the suite's search paths and from command-line overrides; they are merged in
// order, validated, and completed with defaults.
package config

import (
	"fmt"
	"strconv"
)

// NodeKind is the shape of a schema node.
type NodeKind int

const (
	// ScalarKind accepts a string, number, boolean or null.
	ScalarKind NodeKind = iota
	// VariableKind accepts any value, unvalidated.
	VariableKind
	// MappingKind accepts a mapping whose keys are the node's declared children.
	MappingKind
	// ListKind accepts a sequence of records, each validated by the node's prototype.
	ListKind
)

func (k NodeKind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case VariableKind:
		return "variable"
	case MappingKind:
		return "mapping"
	case ListKind:
		return "list"
	default:
		return "unknown"
	}
}

// Node is one field of a configuration schema.
type Node struct {
	name          string
	kind          NodeKind
	defaultValue  interface{}
	hasDefault    bool
	required      bool
	cannotBeEmpty bool
	addDefaults   bool
	minElements   int
	children      []*Node
	index         map[string]*Node
	prototype     *Node
}

// Scalar declares a scalar field.
func Scalar(name string) *Node {
	return &Node{name: name, kind: ScalarKind}
}

// Variable declares a field that accepts any value.
func Variable(name string) *Node {
	return &Node{name: name, kind: VariableKind}
}

// Mapping declares a field holding a mapping of declared children.
func Mapping(name string) *Node {
	return &Node{name: name, kind: MappingKind, index: make(map[string]*Node)}
}

// List declares a field holding a sequence of records described by prototype.
func List(name string, prototype *Node) *Node {
	return &Node{name: name, kind: ListKind, prototype: prototype}
}

// Name returns the field name.
func (n *Node) Name() string { return n.name }

// Kind returns the field shape.
func (n *Node) Kind() NodeKind { return n.kind }

// Children returns the declared children of a mapping node in declaration order.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Child returns the declared child with the given name, or nil.
func (n *Node) Child(name string) *Node { return n.index[name] }

// Default sets the value used when the field is not configured.
func (n *Node) Default(value interface{}) *Node {
	n.defaultValue = value
	n.hasDefault = true
	return n
}

// Required makes it an error for the field to be absent after merging.
func (n *Node) Required() *Node {
	n.required = true
	return n
}

// CannotBeEmpty makes it an error for the field to be configured as null or "".
func (n *Node) CannotBeEmpty() *Node {
	n.cannotBeEmpty = true
	return n
}

// AddDefaultsIfNotSet makes an absent mapping behave like an empty one, so that its children's
// defaults still apply.
func (n *Node) AddDefaultsIfNotSet() *Node {
	n.addDefaults = true
	return n
}

// RequiresAtLeastOneElement makes it an error to configure an empty list.
func (n *Node) RequiresAtLeastOneElement() *Node {
	n.minElements = 1
	return n
}

// Add declares children of a mapping node. Declaring the same name twice on one node is a
// programming error and panics.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if err := n.addChild(c); err != nil {
			panic(err)
		}
	}
	return n
}

func (n *Node) addChild(c *Node) error {
	if n.kind != MappingKind {
		return fmt.Errorf("cannot add field %q to %s field %q", c.name, n.kind, n.name)
	}
	if _, exists := n.index[c.name]; exists {
		return fmt.Errorf("field %q is declared more than once in %q", c.name, n.name)
	}
	n.index[c.name] = c
	n.children = append(n.children, c)
	return nil
}

// normalize checks the shape of one fragment's value for this node, rejecting unrecognized
// keys, and returns a private copy of it.
func (n *Node) normalize(path string, v interface{}) (interface{}, error) {
	switch n.kind {
	case ScalarKind:
		if !isScalar(v) {
			return nil, fieldErrorf(path, "expected a scalar value, got %T", v)
		}
		return v, nil
	case VariableKind:
		return deepCopy(v), nil
	case MappingKind:
		if v == nil {
			return map[string]interface{}{}, nil
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fieldErrorf(path, "expected a mapping, got %T", v)
		}
		out := make(map[string]interface{}, len(m))
		for _, k := range sortedKeys(m) {
			child := n.index[k]
			if child == nil {
				return nil, fieldErrorf(joinPath(path, k), "unrecognized option")
			}
			cv, err := child.normalize(joinPath(path, k), m[k])
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	case ListKind:
		if v == nil {
			return []interface{}{}, nil
		}
		items, ok := v.([]interface{})
		if !ok {
			return nil, fieldErrorf(path, "expected a sequence, got %T", v)
		}
		out := make([]interface{}, 0, len(items))
		for i, item := range items {
			nv, err := n.prototype.normalize(joinPath(path, strconv.Itoa(i)), item)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	}
	return nil, fieldErrorf(path, "unsupported field kind %s", n.kind)
}

// merge combines two normalized values. Mappings merge key by key; every other kind, lists
// included, is replaced by the right-hand value.
func (n *Node) merge(left, right interface{}) interface{} {
	if n.kind != MappingKind {
		return right
	}
	lm, lok := left.(map[string]interface{})
	rm, rok := right.(map[string]interface{})
	if !lok || !rok {
		return right
	}
	out := make(map[string]interface{}, len(lm)+len(rm))
	for k, v := range lm {
		out[k] = v
	}
	for k, v := range rm {
		if prev, ok := out[k]; ok {
			out[k] = n.index[k].merge(prev, v)
		} else {
			out[k] = v
		}
	}
	return out
}

// finalize applies defaults and the required / non-empty / minimum-size constraints to a
// merged value. present reports whether any fragment configured the field.
func (n *Node) finalize(path string, v interface{}, present bool) (interface{}, error) {
	if present && n.cannotBeEmpty && isEmptyValue(v) {
		return nil, fieldErrorf(path, "value cannot be empty")
	}

	switch n.kind {
	case ScalarKind, VariableKind:
		if !present {
			if n.hasDefault {
				return deepCopy(n.defaultValue), nil
			}
			return nil, nil
		}
		return v, nil

	case MappingKind:
		if !present && !n.addDefaults {
			if n.hasDefault {
				return deepCopy(n.defaultValue), nil
			}
			return nil, nil
		}
		m, _ := v.(map[string]interface{})
		out := make(map[string]interface{}, len(n.children))
		for _, child := range n.children {
			cv, ok := m[child.name]
			if !ok && child.required {
				return nil, fieldErrorf(joinPath(path, child.name), "required field is missing")
			}
			fv, err := child.finalize(joinPath(path, child.name), cv, ok)
			if err != nil {
				return nil, err
			}
			out[child.name] = fv
		}
		return out, nil

	case ListKind:
		if !present {
			return nil, nil
		}
		items, _ := v.([]interface{})
		if len(items) < n.minElements {
			return nil, fieldErrorf(path, "must contain at least %d element(s)", n.minElements)
		}
		out := make([]interface{}, 0, len(items))
		for i, item := range items {
			fv, err := n.prototype.finalize(joinPath(path, strconv.Itoa(i)), item, true)
			if err != nil {
				return nil, err
			}
			out = append(out, fv)
		}
		return out, nil
	}
	return nil, fieldErrorf(path, "unsupported field kind %s", n.kind)
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
