// Package controllertest runs declarative controller contract tests, either as subtests of a
// Go test function or through the standalone harness in the framework package.
//
// A suite names where its configuration lives:
//
//	type usersSuite struct{ controllertest.BaseSuite }
//
//	func (usersSuite) ConfigPrefix() string  { return "controller_actions" }
//	func (usersSuite) ConfigPaths() []string { return []string{"testdata/users"} }
//
//	func TestUsers(t *testing.T) {
//		controllertest.NewRunner(usersSuite{}, controllertest.Options{
//			Client: executor.InProcessClient(app.Router()),
//		}).Run(t)
//	}
package controllertest

// Suite tells the runner which configuration to load.
type Suite interface {
	// ConfigPrefix is the top-level key of the suite's section in the configuration files.
	ConfigPrefix() string
	// ConfigPaths are the files or directories searched for configuration.
	ConfigPaths() []string
	// ConfigSchemas replaces the default schema ids, if non-empty.
	ConfigSchemas() []string
}

// BaseSuite can be embedded to get empty defaults. A suite that leaves ConfigPrefix or
// ConfigPaths unimplemented fails with a config.UnimplementedExtensionError when run.
type BaseSuite struct{}

func (BaseSuite) ConfigPrefix() string    { return "" }
func (BaseSuite) ConfigPaths() []string   { return nil }
func (BaseSuite) ConfigSchemas() []string { return nil }

// Definition is a Suite built from plain values.
type Definition struct {
	Prefix  string
	Paths   []string
	Schemas []string
}

func (d Definition) ConfigPrefix() string    { return d.Prefix }
func (d Definition) ConfigPaths() []string   { return d.Paths }
func (d Definition) ConfigSchemas() []string { return d.Schemas }
