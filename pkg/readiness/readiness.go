// Package readiness waits for a container to log that it is ready.
package readiness

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/localstack/localstack-go/pkg/log"
)

// maxLineSize bounds a single log line.
const maxLineSize = 1024 * 1024

var (
	ErrStreamClosed = errors.New("log stream ended before the ready token")
	ErrTimeout      = errors.New("timed out waiting for the ready token")
)

// NotReadyError reports why the ready token was never seen. Err is
// ErrStreamClosed, ErrTimeout, a read error or the caller's context error.
type NotReadyError struct {
	Token string
	Err   error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("container not ready (waiting for %q): %v", e.Token, e.Err)
}

func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// WaitForToken blocks until a line read from r matches token. A timeout of
// zero only bounds the wait by ctx. When the wait fails and r is an
// io.Closer it is closed, which releases the scanning goroutine.
func WaitForToken(ctx context.Context, r io.Reader, token *regexp.Regexp, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := make(chan error, 1)
	go func() {
		result <- scanForToken(r, token)
	}()

	select {
	case err := <-result:
		if err != nil {
			return &NotReadyError{Token: token.String(), Err: err}
		}
		return nil
	case <-waitCtx.Done():
		if closer, ok := r.(io.Closer); ok {
			closer.Close()
		}
		// the parent context ending is the caller's decision, not a timeout
		if ctx.Err() != nil {
			return &NotReadyError{Token: token.String(), Err: ctx.Err()}
		}
		return &NotReadyError{Token: token.String(), Err: ErrTimeout}
	}
}

func scanForToken(r io.Reader, token *regexp.Regexp) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := 0
	for scanner.Scan() {
		lines++
		line := scanner.Text()
		log.Trace("container: %s", line)
		if token.MatchString(line) {
			log.Debug("ready token %q found after %d lines", token.String(), lines)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read log stream")
	}
	return ErrStreamClosed
}
