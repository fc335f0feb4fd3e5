package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/controllertests/http-contract-tests/config"
	"github.com/controllertests/http-contract-tests/controllertest"
	"github.com/controllertests/http-contract-tests/framework"

	"github.com/spf13/cobra"
)

var errTestsFailed = errors.New("some tests failed")

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var params commandParams
	cmd := &cobra.Command{
		Use:   "http-contract-tests --path DIR [flags] [key=value ...]",
		Short: "Run declarative HTTP controller tests against a running application",
		Long: `Loads test suites from YAML, TOML or JSON configuration and runs every configured
request against the application, checking each response.

Arguments of the form key=value override configuration settings, for example
test_filter=get_user or logging[verbosity]=6.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, &params, args)
		},
	}
	params.addFlags(cmd)
	return cmd
}

func run(out io.Writer, params *commandParams, args []string) error {
	if err := params.validate(); err != nil {
		return err
	}
	overrides, err := config.ParseOverrides(args)
	if err != nil {
		return err
	}
	if overrides == nil {
		overrides = map[string]interface{}{}
	}

	runner := controllertest.NewRunner(
		controllertest.Definition{Prefix: params.prefix, Paths: params.paths, Schemas: params.schemas},
		controllertest.Options{BaseURL: params.url, Overrides: overrides},
	)
	section, err := runner.Section()
	if err != nil {
		return err
	}

	baseURL := params.url
	if baseURL == "" {
		baseURL = section.String("base_url")
	}
	if baseURL == "" {
		return errors.New("no base URL: set base_url in the configuration or use --url")
	}
	if params.await > 0 {
		if err := framework.AwaitTarget(baseURL, params.await, out); err != nil {
			return fmt.Errorf("application error: %w", err)
		}
	}

	fmt.Fprintln(out)
	var additional []string
	if d := runner.Describe(); d != "" {
		additional = append(additional, d)
	}
	framework.PrintFilterDescription(out, params.filters, additional...)

	fmt.Fprintln(out, "Running test suite")
	testLogger := &ConsoleTestLogger{
		Out:                  out,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	results := runner.RunSuite(params.filters.AsFilter, testLogger)

	fmt.Fprintln(out)
	results.Print(out)
	if results.OK() {
		return nil
	}
	fmt.Fprintln(out, "\nTo run a failed test again:")
	for _, f := range results.Failures {
		if len(f.TestID.Path) < 2 {
			continue
		}
		fmt.Fprintf(out, "  %s\n", params.rerunCommand(os.Args[0], f.TestID.Last()))
	}
	return errTestsFailed
}
