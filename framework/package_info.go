// Package framework contains the low-level test harness infrastructure used when contract
// tests run outside of "go test".
//
// The general model is:
//
// 1. The harness waits for the target application to respond at its base URL.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results. A Context can be passed to testify's assert and require functions.
//
// 3. A TestLogger reports progress as tests start, fail, finish or are skipped, and each test
// keeps its own captured debug output for the logger to print.
//
// The domain-specific code that knows what is being tested runs inside a Context and reports
// its assertions there.
package framework
