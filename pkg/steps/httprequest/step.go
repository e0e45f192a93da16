// Package httprequest provides the native build step that notifies an HTTP
// endpoint about a finished build. URL, headers and body may reference build
// macros.
package httprequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/template"
)

const defaultTimeout = 30 * time.Second

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

type Step struct {
	method  string
	url     string
	headers map[string]string
	body    string
	timeout time.Duration
	retry   RetryConfig
}

func NewStep(config map[string]any) (*Step, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)
	if headersConfig, exists := config["headers"]; exists {
		headersMap, ok := headersConfig.(map[string]any)
		if !ok {
			return nil, errors.New("field 'headers' must be a mapping of header names to values")
		}

		for k, v := range headersMap {
			strVal, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("header %q must be a string", k)
			}

			headers[k] = strVal
		}
	}

	timeout := defaultTimeout
	if seconds, ok := configInt(config["timeout"]); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	retry := RetryConfig{Attempts: 1}
	if retryConfig, exists := config["retry"]; exists {
		retryMap, ok := retryConfig.(map[string]any)
		if !ok {
			return nil, errors.New("field 'retry' must be a mapping")
		}

		if attempts, ok := configInt(retryMap["attempts"]); ok && attempts > 0 {
			retry.Attempts = attempts
		}

		if delay, ok := configInt(retryMap["delay"]); ok && delay > 0 {
			retry.Delay = time.Duration(delay) * time.Second
		}
	}

	return &Step{
		method:  strings.ToUpper(method),
		url:     url,
		headers: headers,
		body:    body,
		timeout: timeout,
		retry:   retry,
	}, nil
}

// Execute sends the configured request. A response with a status below 400
// succeeds; 4xx and 5xx responses fail the step. A request that cannot be
// delivered at all, after retries, is an infrastructure error.
func (s *Step) Execute(ctx context.Context, build *models.BuildContext, logger *slog.Logger) (bool, error) {
	url, err := template.Expand(s.url, build.Vars())
	if err != nil {
		return false, fmt.Errorf("failed to render request URL: %w", err)
	}

	body, err := template.Expand(s.body, build.Vars())
	if err != nil {
		return false, fmt.Errorf("failed to render request body: %w", err)
	}

	var lastErr error

	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "retrying http request", "attempt", attempt, "attempts", s.retry.Attempts)
			time.Sleep(s.retry.Delay)
		}

		status, err := s.send(ctx, url, body)
		if err != nil {
			lastErr = err
			continue
		}

		if status >= http.StatusBadRequest {
			logger.ErrorContext(ctx, "endpoint rejected build notification", "url", url, "status", status)
			return false, nil
		}

		logger.InfoContext(ctx, "build notification delivered", "url", url, "status", status)

		return true, nil
	}

	return false, fmt.Errorf("http request failed after %d attempts: %w", s.retry.Attempts, lastErr)
}

func (s *Step) send(ctx context.Context, url, body string) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, s.method, url, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func configInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
