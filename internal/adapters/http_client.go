package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/shared"
)

const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

// getJSON fetches url and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, url string, cfg httpRetryConfig, out any) error {
	resp, err := doRequest(ctx, url, cfg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unexpected response").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, strings.TrimSpace(string(body))))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode response from " + url).
			WithCause(err)
	}
	return nil
}

func doRequest(ctx context.Context, url string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	attempt := 0
	var resp *http.Response
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		res, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if retryableStatus(res.StatusCode) && attempt < cfg.retries {
			_, _ = io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return fmt.Errorf("status=%d url=%s", res.StatusCode, url)
		}
		resp = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Debug().Err(err).Str("url", url).Dur("wait", wait).Msg("request failed, retrying")
	}
	if err := backoff.RetryNotify(op, httpBackOff(ctx, cfg), notify); err != nil {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("request failed").
			WithCause(err)
	}
	return resp, nil
}

func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// httpBackOff doubles the delay from cfg.baseDelay up to maxHTTPRetryDelay
// and stops after cfg.retries attempts or when ctx is done.
func httpBackOff(ctx context.Context, cfg httpRetryConfig) backoff.BackOffContext {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cfg.baseDelay
	expo.MaxInterval = maxHTTPRetryDelay
	expo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(cfg.retries-1)), ctx)
}
