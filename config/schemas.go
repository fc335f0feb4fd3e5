package config

import (
	"fmt"
	"sort"
)

// Built-in schema ids.
const (
	SystemSettingsSchema    = "system_settings"
	LoggingSchema           = "logging"
	ControllerActionsSchema = "controller_actions"
	ControllerTestSetSchema = "controller_test_set"
)

// MetaField is accepted in every prefix without validation. It is reserved for aliasing.
const MetaField = "___meta"

// DefaultSchemaIDs are composed for a prefix when a suite does not choose its own.
var DefaultSchemaIDs = []string{SystemSettingsSchema, LoggingSchema}

// SchemaFunc declares the fields one schema id contributes to a prefix's mapping node.
type SchemaFunc func(n *Node)

// Registry maps schema ids to the functions that declare their fields.
type Registry struct {
	schemas map[string]SchemaFunc
	aliases map[string]string
}

// NewRegistry returns a registry holding the built-in schemas.
func NewRegistry() *Registry {
	r := &Registry{
		schemas: make(map[string]SchemaFunc),
		aliases: make(map[string]string),
	}
	r.Register(SystemSettingsSchema, systemSettingsSchema)
	r.Register(LoggingSchema, loggingSchema)
	r.Register(ControllerActionsSchema, controllerTestSetSchema)
	r.Register(ControllerTestSetSchema, controllerTestSetSchema)
	return r
}

// Register adds or replaces a schema id.
func (r *Registry) Register(id string, fn SchemaFunc) {
	r.schemas[id] = fn
}

// Alias makes id resolve to the schema registered as target. This is how a suite whose prefix
// is not itself a schema id reuses a built-in one, e.g. Alias("orders_api", "controller_actions").
func (r *Registry) Alias(id, target string) {
	r.aliases[id] = target
}

// IDs returns every resolvable schema id, sorted.
func (r *Registry) IDs() []string {
	var ids []string
	for id := range r.schemas {
		ids = append(ids, id)
	}
	for id := range r.aliases {
		if _, ok := r.schemas[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Known returns true if id resolves to a schema, directly or through aliases.
func (r *Registry) Known(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

func (r *Registry) lookup(id string) (SchemaFunc, bool) {
	seen := map[string]bool{}
	for {
		if fn, ok := r.schemas[id]; ok {
			return fn, true
		}
		target, ok := r.aliases[id]
		if !ok || seen[id] {
			return nil, false
		}
		seen[id] = true
		id = target
	}
}

// ComposeSchemaIDs returns the schema ids used for prefix: the suite's own ids if it has any,
// otherwise DefaultSchemaIDs, with the prefix itself spliced in at position 1.
func ComposeSchemaIDs(prefix string, custom []string) []string {
	base := custom
	if len(base) == 0 {
		base = DefaultSchemaIDs
	}
	ids := make([]string, 0, len(base)+1)
	if len(base) > 0 {
		ids = append(ids, base[0])
	}
	ids = append(ids, prefix)
	if len(base) > 1 {
		ids = append(ids, base[1:]...)
	}
	return ids
}

// PrefixNode builds the mapping node for one prefix from the given schema ids. An unknown id
// or two ids declaring the same field produce a ConfigValidationError.
func (r *Registry) PrefixNode(prefix string, schemaIDs []string) (*Node, error) {
	node := Mapping(prefix).AddDefaultsIfNotSet()
	node.Add(Variable(MetaField))
	for _, id := range schemaIDs {
		fn, ok := r.lookup(id)
		if !ok {
			return nil, &ConfigValidationError{
				Prefix: prefix,
				Reason: fmt.Sprintf("unknown schema id %q (known: %v)", id, r.IDs()),
			}
		}
		part := Mapping(id)
		fn(part)
		for _, field := range part.children {
			if err := node.addChild(field); err != nil {
				return nil, &ConfigValidationError{
					Prefix: prefix,
					Reason: fmt.Sprintf("schema %q: %s", id, err),
				}
			}
		}
	}
	return node, nil
}

func systemSettingsSchema(n *Node) {
	n.Add(
		Scalar("base_url"),
		Scalar("test_filter"),
		Scalar("test_regex"),
	)
}

func loggingSchema(n *Node) {
	n.Add(
		Mapping("logging").AddDefaultsIfNotSet().Add(
			Scalar("file").Default("stderr"),
			Scalar("verbosity").Default(0),
		),
	)
}

func controllerTestSetSchema(n *Node) {
	action := Mapping("").Add(
		Scalar("method").Default("POST"),
		Scalar("uri").Required().CannotBeEmpty(),
		Variable("parameters").Default(map[string]interface{}{}),
		Variable("files").Default(map[string]interface{}{}),
		Variable("server").Default(map[string]interface{}{"Content-Type": "application/json"}),
		Variable("content").Default(map[string]interface{}{}),
		Mapping("checks").AddDefaultsIfNotSet().Add(
			Scalar("status_code").Default("200"),
			Scalar("header_regexp"),
			Scalar("content_type").Default("json"),
			Scalar("content_regexp"),
			Variable("content_decoded"),
		),
		Scalar("test_id").Required().CannotBeEmpty(),
	)
	n.Add(List("actions", action).RequiresAtLeastOneElement())
}
