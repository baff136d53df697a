// Package transport sends drive updates to the vehicle over HTTP.
//
// Any JSON value in a 2xx reply is accepted and returned as Result.Body.
// An empty 2xx body also counts as success, with a nil Body.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/rcdrive/domain/teleop"
)

var (
	// ErrUnexpectedStatus wraps any non-2xx reply.
	ErrUnexpectedStatus = errors.New("network response was not ok")
	// ErrInvalidBody means a 2xx reply was not JSON.
	ErrInvalidBody = errors.New("response body is not valid JSON")
)

// HTTPSender issues GET <endpoint>/?<params> with fiber's fasthttp client.
type HTTPSender struct {
	// Timeout bounds a request. Zero waits forever.
	Timeout time.Duration
}

// Ensure HTTPSender implements teleop.Sender
var _ teleop.Sender = (*HTTPSender)(nil)

// NewHTTPSender creates a sender. A zero timeout never gives up on a request.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	return &HTTPSender{Timeout: timeout}
}

// Send implements teleop.Sender. The request cannot be cancelled once issued;
// ctx is only checked before starting.
func (s *HTTPSender) Send(ctx context.Context, u teleop.Update) (teleop.Result, error) {
	if err := ctx.Err(); err != nil {
		return teleop.Result{}, err
	}

	start := time.Now()
	agent := fiber.Get(u.URL())
	if s.Timeout > 0 {
		agent.Timeout(s.Timeout)
	}
	code, body, errs := agent.Bytes()
	result := teleop.Result{StatusCode: code, Latency: time.Since(start)}
	if len(errs) > 0 {
		return result, fmt.Errorf("GET %s: %w", u.URL(), errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return result, fmt.Errorf("GET %s: %w (status %d)", u.URL(), ErrUnexpectedStatus, code)
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &result.Body); err != nil {
			return result, fmt.Errorf("GET %s: %w: %v", u.URL(), ErrInvalidBody, err)
		}
	}
	return result, nil
}
