package framework

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const targetPollInterval = time.Millisecond * 100

// AwaitTarget polls the application at url until it answers with any status below 500, or
// until timeout has elapsed. Progress is written to output.
func AwaitTarget(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to application at %s", url)

	client := &http.Client{
		Timeout:       timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		fmt.Fprintf(output, ".")
		resp, err := client.Get(url)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode < 500 {
				fmt.Fprintf(output, " status %d\n", resp.StatusCode)
				return nil
			}
			lastErr = fmt.Errorf("application returned status code %d", resp.StatusCode)
		} else {
			lastErr = err
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out, result of last query was: %w", lastErr)
		}
		time.Sleep(targetPollInterval)
	}
}
