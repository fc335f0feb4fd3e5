package controllertest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/controllertests/http-contract-tests/actions"
	"github.com/controllertests/http-contract-tests/checks"
	"github.com/controllertests/http-contract-tests/config"
	"github.com/controllertests/http-contract-tests/executor"
	"github.com/controllertests/http-contract-tests/framework"
	"github.com/controllertests/http-contract-tests/logging"

	"github.com/stretchr/testify/require"
)

// Options configures how a Runner reaches the application under test.
type Options struct {
	// Client sends the requests; see executor.InProcessClient. Defaults to a plain http.Client.
	Client *http.Client
	// BaseURL takes precedence over the configured base_url.
	BaseURL string
	// Tx isolates each test case. Defaults to executor.NoopTxManager.
	Tx executor.TxManager
	// Loader reads the configuration files. Defaults to the OS filesystem.
	Loader *config.Loader
	// Overrides are applied on top of the configuration files. If nil, they are parsed from
	// the process arguments with config.ParseOverrides.
	Overrides map[string]interface{}
	// Logger replaces the sink configured by the section's logging settings.
	Logger *logging.Sink
}

// Runner loads a suite's configuration and runs its test cases.
type Runner struct {
	suite   Suite
	opts    Options
	service *config.Service

	// overridesErr is set when the process arguments could not be read as overrides, and
	// fails every test case.
	overridesErr error

	once     sync.Once
	exec     *executor.Executor
	cases    []actions.TestCase
	setupErr error
}

// NewRunner creates a Runner. If the suite's prefix is not a known schema id, it is treated
// as a controller test set.
func NewRunner(suite Suite, opts Options) *Runner {
	loader := opts.Loader
	if loader == nil {
		loader = config.NewLoader(nil, nil)
	}
	if prefix := suite.ConfigPrefix(); prefix != "" && !loader.Registry().Known(prefix) {
		loader.Registry().Alias(prefix, config.ControllerTestSetSchema)
	}
	r := &Runner{suite: suite, opts: opts}
	overrides := opts.Overrides
	if overrides == nil {
		parsed, err := config.ParseOverrides(os.Args)
		if err != nil {
			r.overridesErr = err
		}
		overrides = parsed
	}
	r.service = config.NewService(loader, overrides)
	return r
}

// Section returns the suite's validated configuration.
func (r *Runner) Section() (config.Section, error) {
	if r.overridesErr != nil {
		return nil, r.overridesErr
	}
	return r.service.Section(r.suite.ConfigPrefix(), r.suite.ConfigPaths(), r.suite.ConfigSchemas())
}

func (r *Runner) setup() error {
	r.once.Do(func() {
		section, err := r.Section()
		if err != nil {
			r.setupErr = err
			return
		}
		cases, err := actions.FromSection(section)
		if err != nil {
			r.setupErr = err
			return
		}
		sink := r.opts.Logger
		if sink == nil {
			if sink, err = logging.FromSettings(section.Map("logging")); err != nil {
				r.setupErr = err
				return
			}
		}
		baseURL := r.opts.BaseURL
		if baseURL == "" {
			baseURL = section.String("base_url")
		}
		r.cases = cases
		r.exec = executor.New(r.opts.Client, baseURL, r.opts.Tx, sink)
		sink.Log(logging.LevelInfo, "%s: %d test case(s) against %s", r.suite.ConfigPrefix(), len(cases), baseURL)
	})
	return r.setupErr
}

// TestCases returns the suite's test cases after filtering.
func (r *Runner) TestCases() ([]actions.TestCase, error) {
	if err := r.setup(); err != nil {
		return nil, err
	}
	return r.cases, nil
}

type debugger interface {
	Debug(message string, args ...interface{})
}

// RunTestCase executes one test case and reports each failed check on t. It stops the test
// with FailNow if the request could not be made at all.
func (r *Runner) RunTestCase(t require.TestingT, tc actions.TestCase) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.NoError(t, r.setup())
	outcomes, err := r.exec.Execute(context.Background(), tc)
	require.NoError(t, err, "test case %s", tc.TestID)
	if d, ok := t.(debugger); ok {
		d.Debug("%s %s", tc.Method, tc.URI)
		for _, o := range outcomes {
			d.Debug("%s", o)
		}
	}
	checks.Report(t, outcomes)
}

// Run runs every test case as a subtest of t, named by its test_id.
func (r *Runner) Run(t *testing.T) {
	t.Helper()
	cases, err := r.TestCases()
	require.NoError(t, err)
	for _, tc := range cases {
		tc := tc
		t.Run(tc.TestID, func(t *testing.T) {
			r.RunTestCase(t, tc)
		})
	}
}

// RunSuite runs every test case in the framework harness, under a parent test named by the
// suite's prefix. filter may be nil.
func (r *Runner) RunSuite(filter framework.Filter, testLogger framework.TestLogger) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		c.Run(r.suite.ConfigPrefix(), func(c *framework.Context) {
			cases, err := r.TestCases()
			require.NoError(c, err)
			for _, tc := range cases {
				tc := tc
				c.Run(tc.TestID, func(c *framework.Context) {
					r.RunTestCase(c, tc)
				})
			}
		})
	})
}

// Describe returns a line describing the configured test selection, or "" if every test case
// is selected.
func (r *Runner) Describe() string {
	section, err := r.Section()
	if err != nil {
		return ""
	}
	f, err := actions.NewFilter(section.String("test_filter"), section.String("test_regex"))
	if err != nil || !f.IsDefined() {
		return ""
	}
	return fmt.Sprintf("skip any %s test case not matching %s", r.suite.ConfigPrefix(), f)
}
