// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the gateway and API clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of a failed response body is kept for diagnosis.
const maxErrorBody = 4096

// StatusError reports a non-2xx response. Body holds the first few KiB of the
// response for logging; it is never shown to end users.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// NewLimiter returns a limiter admitting rps requests per second with a
// burst of one. A non-positive rps yields nil, which Do treats as unpaced.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Do waits for limiter (when non-nil) and executes req exactly once. There
// is no retry: a failed call is reported to the caller, who decides whether
// the user re-triggers it. If the context is cancelled while waiting the
// function returns the context error.
//
// A non-2xx response is drained, closed, and returned as *StatusError.
func Do(ctx context.Context, client *http.Client, limiter *rate.Limiter, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := client.Do(req.Clone(ctx))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}
