package reasoning

import (
	"context"
	"time"

	"Augur_1.0/backend/go/internal/llm"
	"Augur_1.0/backend/go/pkg/retry"
)

// Client runs prompts against an LLM with a hard per-call deadline and
// retry on transient failures. A deadline hit counts as transient: the
// model may simply have been slow, so the call is retried rather than
// the article dropped.
type Client struct {
	llm     llm.LLM
	exec    *retry.Executor
	timeout time.Duration
}

// NewClient wraps the given LLM.
func NewClient(model llm.LLM, exec *retry.Executor, timeout time.Duration) *Client {
	return &Client{llm: model, exec: exec, timeout: timeout}
}

// Complete sends one prompt and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	res, err := c.exec.Do(ctx, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.llm.Complete(callCtx, prompt)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
