package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// DefaultHTTPRetries is the number of extra attempts made on 429 and 5xx.
const DefaultHTTPRetries = 3

const defaultHTTPTimeout = 120 * time.Second

var sleepFn = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// transport holds what every HTTP provider shares.
type transport struct {
	provider string
	client   *http.Client
	retries  int
	logger   logrus.FieldLogger
}

func newTransport(provider string, client *http.Client, retries int, logger logrus.FieldLogger) transport {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return transport{provider: provider, client: client, retries: retries, logger: logger.WithField("provider", provider)}
}

// post sends payload as JSON and returns the open response. 429 and 5xx are
// retried with exponential backoff, honoring Retry-After on 429. The caller
// closes the body.
func (t transport) post(ctx context.Context, endpoint string, headers map[string]string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	t.logger.WithField("url", endpoint).Debug("llm request")

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			if v != "" {
				req.Header.Set(k, v)
			}
		}

		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < t.retries {
				if err := sleepFn(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			lastErr = &StatusError{Provider: t.provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if attempt < t.retries {
				wait := backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				t.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "attempt": attempt + 1, "wait": wait}).Warn("llm request retry")
				if err := sleepFn(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, &StatusError{Provider: t.provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("llm request failed")
	}
	return nil, lastErr
}

// postJSON is post followed by decoding the response body into out.
func (t transport) postJSON(ctx context.Context, endpoint string, headers map[string]string, payload, out any) error {
	resp, err := t.post(ctx, endpoint, headers, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Second << attempt
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
