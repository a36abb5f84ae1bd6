// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the upstream clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 2

var errTooManyRequests = errors.New("too many requests")

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff starting at RetryBaseDelay. Any other
// status, or a transport error, ends the loop immediately.
//
// When maxRetries is 0 the default (2) is used. On each 429 the response
// body is drained and closed before sleeping. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last 429 response is returned so the caller can inspect it.
// before, when set, runs ahead of every attempt and may block.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, before func(context.Context) error) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var (
		last    *http.Response
		attempt int
	)
	err := retry.Do(
		func() error {
			attempt++
			if before != nil {
				if err := before(ctx); err != nil {
					return retry.Unrecoverable(err)
				}
			}
			resp, err := client.Do(req.Clone(ctx))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if resp.StatusCode == http.StatusTooManyRequests && attempt <= maxRetries {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				slog.Default().Debug("rate limited, retrying",
					"url", req.URL.Redacted(),
					"attempt", attempt,
					"max_retries", maxRetries,
				)
				return errTooManyRequests
			}
			last = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries)+1),
		retry.Delay(RetryBaseDelay),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return last, nil
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
