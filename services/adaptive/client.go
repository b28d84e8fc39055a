// Package adaptivesvc talks to the adaptive difficulty engine, a separate
// HTTP service that scores a learner's recent attempts and recommends what
// to serve next.
package adaptivesvc

import (
	"context"
	"fmt"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

type Client struct {
	http     *resty.Client
	attempts uint
}

var _ quiz.AdaptiveEngine = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	client := resty.New().
		SetBaseURL(conf.Adaptive.URL).
		SetTimeout(conf.Adaptive.Timeout).
		SetHeader("Content-Type", "application/json")
	attempts := conf.Adaptive.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &Client{http: client, attempts: attempts}
}

// Next posts the learner's recent attempts and returns the engine's decision.
// The per-request timeout bounds each try; callers treat any error as a
// signal to fall back to the easy difficulty.
func (c *Client) Next(ctx context.Context, in quiz.AdaptiveInput) (quiz.AdaptiveDecision, error) {
	var decision quiz.AdaptiveDecision
	err := retry.Do(
		func() error {
			res, err := c.http.R().
				SetContext(ctx).
				SetBody(in).
				SetResult(&decision).
				Post("/adaptive/next")
			if err != nil {
				return err
			}
			if res.IsError() {
				return fmt.Errorf("adaptive engine status %d", res.StatusCode())
			}
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return quiz.AdaptiveDecision{}, err
	}
	return decision, nil
}

func (c *Client) Close() error { return c.http.Close() }
