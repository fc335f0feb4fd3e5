// Package flatten rewrites nested JSON-like structures as flat maps keyed by separator-joined
// paths, so that "user.id" addresses {"user": {"id": 42}}.
package flatten

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Map is a flattened structure: path to leaf value.
type Map map[string]ldvalue.Value

// Keys returns the paths of the map in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten descends into every non-empty object and array of tree and records each leaf at the
// path formed by joining its ancestors' keys with sep. Array elements are keyed by their
// decimal position. Empty objects, empty arrays and scalars are leaves. If lowercaseKeys is
// true, every path segment is lowercased.
//
// A tree that is itself a leaf has no paths, so the result is empty.
func Flatten(tree ldvalue.Value, sep string, lowercaseKeys bool) Map {
	out := make(Map)
	if isBranch(tree) {
		flattenInto(out, "", tree, sep, lowercaseKeys)
	}
	return out
}

func flattenInto(out Map, prefix string, v ldvalue.Value, sep string, lowercaseKeys bool) {
	visit := func(key string, child ldvalue.Value) {
		if lowercaseKeys {
			key = strings.ToLower(key)
		}
		path := key
		if prefix != "" {
			path = prefix + sep + key
		}
		if isBranch(child) {
			flattenInto(out, path, child, sep, lowercaseKeys)
			return
		}
		out[path] = child
	}

	switch v.Type() {
	case ldvalue.ObjectType:
		keys := v.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			visit(k, v.GetByKey(k))
		}
	case ldvalue.ArrayType:
		for i := 0; i < v.Count(); i++ {
			visit(strconv.Itoa(i), v.GetByIndex(i))
		}
	}
}

func isBranch(v ldvalue.Value) bool {
	t := v.Type()
	return (t == ldvalue.ObjectType || t == ldvalue.ArrayType) && v.Count() > 0
}

// Unflatten is the inverse of Flatten for trees made only of objects: each path is split on
// sep and nested back into objects. Paths are applied in sorted order, so a leaf at "a" is
// replaced by an object if "a.b" is also present.
func Unflatten(m Map, sep string) ldvalue.Value {
	root := newNode()
	for _, path := range m.Keys() {
		segments := strings.Split(path, sep)
		n := root
		for _, seg := range segments[:len(segments)-1] {
			n = n.child(seg)
		}
		last := segments[len(segments)-1]
		n.children[last] = &node{leaf: m[path], isLeaf: true}
	}
	return root.build()
}

type node struct {
	children map[string]*node
	leaf     ldvalue.Value
	isLeaf   bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) child(key string) *node {
	c, ok := n.children[key]
	if !ok || c.isLeaf {
		c = newNode()
		n.children[key] = c
	}
	return c
}

func (n *node) build() ldvalue.Value {
	if n.isLeaf {
		return n.leaf
	}
	b := ldvalue.ObjectBuild()
	for k, c := range n.children {
		b.Set(k, c.build())
	}
	return b.Build()
}

// Text renders a leaf value the way it is compared against configured expectations: strings
// as-is, everything else as its JSON representation.
func Text(v ldvalue.Value) string {
	if v.Type() == ldvalue.StringType {
		return v.StringValue()
	}
	return v.JSONString()
}

// FlattenInterface is Flatten for values decoded into Go types, such as configuration maps.
func FlattenInterface(tree interface{}, sep string, lowercaseKeys bool) Map {
	return Flatten(ldvalue.CopyArbitraryValue(tree), sep, lowercaseKeys)
}
