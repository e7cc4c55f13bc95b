package executor

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/localstack/localstack-go/pkg/log"
)

const (
	NoOutput = ""
)

// RetryPolicy is a constant backoff with a bounded number of retries.
type RetryPolicy struct {
	MaxRetries uint64
	Wait       time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 5,
	Wait:       3 * time.Second,
}

func (p RetryPolicy) backoff() retry.Backoff {
	wait := p.Wait
	if wait <= 0 {
		wait = time.Millisecond
	}
	return retry.WithMaxRetries(p.MaxRetries, retry.NewConstant(wait))
}

type retryable = func() (string, error)
type errorchecker = func(string, error) error

// Retry runs f until it succeeds, the policy is exhausted or ctx is done.
func Retry(ctx context.Context, policy RetryPolicy, f retryable) (string, error) {
	return RetryWithErrorCheck(ctx, policy, func(s string, e error) error { return e }, f)
}

// RetryWithErrorCheck is Retry with a custom success check, for commands
// that exit cleanly but have not produced the expected output yet.
func RetryWithErrorCheck(ctx context.Context, policy RetryPolicy, ec errorchecker, f retryable) (output string, err error) {
	attempt := uint64(0)
	err = retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		out, ferr := f()
		output = out
		if checkErr := ec(out, ferr); checkErr != nil {
			if attempt <= policy.MaxRetries {
				log.Warn("Retrying (%d of %d) Error: %v", attempt, policy.MaxRetries, checkErr)
			}
			return retry.RetryableError(checkErr)
		}
		return nil
	})
	return output, err
}
