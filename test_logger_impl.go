package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/controllertests/http-contract-tests/framework"

	"github.com/fatih/color"
)

// ConsoleTestLogger prints test progress, coloring the status of each test.
type ConsoleTestLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

var (
	failedLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	passedLabel  = color.New(color.FgGreen).SprintFunc()
	skippedLabel = color.New(color.FgYellow).SprintFunc()
	errorText    = color.New(color.FgRed).SprintFunc()
)

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Fprintf(c.Out, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Out, "  %s\n", errorText(line))
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		fmt.Fprintf(c.Out, "  %s: %s\n", failedLabel("FAILED"), id)
	} else {
		fmt.Fprintf(c.Out, "  %s\n", passedLabel("ok"))
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.Out, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		fmt.Fprintf(c.Out, "  %s: %s\n", skippedLabel("SKIPPED"), id)
	} else {
		fmt.Fprintf(c.Out, "  %s: %s (%s)\n", skippedLabel("SKIPPED"), id, reason)
	}
}
