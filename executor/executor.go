// Package executor runs one test case: it sends the configured request inside a transaction
// that is always rolled back, captures the response and evaluates the test case's checks.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/controllertests/http-contract-tests/actions"
	"github.com/controllertests/http-contract-tests/checks"
	"github.com/controllertests/http-contract-tests/logging"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/spf13/afero"
)

// State is a step in the execution of one test case. Every execution passes through the
// states in order.
type State int

const (
	Idle State = iota
	RequestBuilt
	TransactionOpen
	RequestSent
	ResponseCaptured
	TransactionRolledBack
	Checked
	Done
)

var stateNames = []string{
	"Idle", "RequestBuilt", "TransactionOpen", "RequestSent",
	"ResponseCaptured", "TransactionRolledBack", "Checked", "Done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Executor sends test case requests to one target.
type Executor struct {
	client  *http.Client
	baseURL string
	tx      TxManager
	logger  *logging.Sink
	fs      afero.Fs
}

// New creates an Executor. Redirects are never followed, so that checks see the redirect
// response itself. A nil TxManager means NoopTxManager, and a nil logger discards output.
func New(client *http.Client, baseURL string, tx TxManager, logger *logging.Sink) *Executor {
	c := http.Client{}
	if client != nil {
		c = *client
	}
	if c.CheckRedirect == nil {
		c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	if tx == nil {
		tx = NoopTxManager{}
	}
	return &Executor{client: &c, baseURL: baseURL, tx: tx, logger: logger, fs: afero.NewOsFs()}
}

// WithFs returns a copy of the Executor that reads file uploads from fs.
func (e *Executor) WithFs(fs afero.Fs) *Executor {
	c := *e
	c.fs = fs
	return &c
}

// InProcessClient returns a client that delivers requests directly to handler, without
// network activity. The request context, and so TxFromContext, reaches the handler.
func InProcessClient(handler http.Handler) *http.Client {
	return httphelpers.ClientFromHandler(handler)
}

// Execute runs a test case and returns the outcomes of its checks. An error means the test
// case could not be run at all; the transaction is rolled back in every case once it has been
// opened.
func (e *Executor) Execute(ctx context.Context, tc actions.TestCase) ([]checks.Outcome, error) {
	e.enter(tc, Idle)
	built, err := buildRequest(ctx, e.fs, e.baseURL, tc)
	if err != nil {
		return nil, fmt.Errorf("test %s: %w", tc.TestID, err)
	}
	e.enter(tc, RequestBuilt)
	e.logger.Log(logging.LevelRequest, "[%s] %s %s", tc.TestID, built.req.Method, built.req.URL)
	if built.body != "" {
		e.logger.Log(logging.LevelRequest, "[%s] request body: %s", tc.TestID, built.body)
	}

	tx, err := e.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("test %s: cannot begin transaction: %w", tc.TestID, err)
	}
	e.enter(tc, TransactionOpen)

	resp, sendErr := e.send(built.req.WithContext(WithTx(built.req.Context(), tx)), tc)
	rollbackErr := tx.Rollback()
	e.enter(tc, TransactionRolledBack)
	if rollbackErr != nil {
		rollbackErr = fmt.Errorf("test %s: cannot roll back transaction: %w", tc.TestID, rollbackErr)
	}
	if sendErr != nil || rollbackErr != nil {
		return nil, errors.Join(sendErr, rollbackErr)
	}
	e.logger.Log(logging.LevelResponse, "[%s] response %d: %s", tc.TestID, resp.StatusCode, resp.Body)

	outcomes := checks.Run(resp, tc.Checks)
	e.enter(tc, Checked)
	e.enter(tc, Done)
	return outcomes, nil
}

func (e *Executor) send(req *http.Request, tc actions.TestCase) (checks.Response, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return checks.Response{}, err
	}
	e.enter(tc, RequestSent)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return checks.Response{}, fmt.Errorf("test %s: cannot read response: %w", tc.TestID, err)
	}
	e.enter(tc, ResponseCaptured)
	return checks.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (e *Executor) enter(tc actions.TestCase, s State) {
	e.logger.Log(logging.MaxVerbosity, "[%s] state %s", tc.TestID, s)
}
