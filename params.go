package main

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/controllertests/http-contract-tests/config"
	"github.com/controllertests/http-contract-tests/framework"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"
)

const defaultAwaitTimeout = time.Second * 10

type commandParams struct {
	prefix   string
	paths    []string
	schemas  []string
	url      string
	await    time.Duration
	filters  framework.RegexFilters
	debug    bool
	debugAll bool
}

func (c *commandParams) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&c.prefix, "prefix", config.ControllerActionsSchema, "configuration prefix of the suite")
	fs.StringArrayVar(&c.paths, "path", nil, "configuration file or directory (repeatable)")
	fs.StringArrayVar(&c.schemas, "schema", nil, "schema id replacing the defaults (repeatable)")
	fs.StringVar(&c.url, "url", "", "base URL of the application, overriding base_url")
	fs.DurationVar(&c.await, "await", defaultAwaitTimeout, "how long to wait for the application to respond (0 to skip)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
}

func (c *commandParams) validate() error {
	if len(c.paths) == 0 {
		return errors.New("at least one --path is required")
	}
	if c.prefix == "" {
		return errors.New("--prefix must not be empty")
	}
	return nil
}

// rerunCommand returns a shell command that runs only the given test case again. The test id
// is query-escaped because overrides are read as a query string.
func (c *commandParams) rerunCommand(program, testID string) string {
	var b commandBuilder
	b.add(program, "--prefix", c.prefix)
	for _, p := range c.paths {
		b.add("--path", p)
	}
	for _, s := range c.schemas {
		b.add("--schema", s)
	}
	if c.url != "" {
		b.add("--url", c.url)
	}
	b.add("--debug", "test_filter="+url.QueryEscape(testID))
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
