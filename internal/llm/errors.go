package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// SummarizationError reports a failed or timed-out backend call
type SummarizationError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *SummarizationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s summarization timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s summarization failed: %v", e.Provider, e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

// MalformedResultError reports parsed output that lacks required fields
type MalformedResultError struct {
	Missing []string
	Raw     string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed summarizer result: missing or invalid %s", strings.Join(e.Missing, ", "))
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
