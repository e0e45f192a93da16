package httprequest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihooks/postbuild/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func notificationBuild() *models.BuildContext {
	return &models.BuildContext{
		JobName:     "app",
		BuildNumber: 12,
		Result:      models.ResultSuccess,
		Env:         map[string]string{"JOB_NAME": "app", "BUILD_NUMBER": "12"},
	}
}

func TestNewStepRequiresURL(t *testing.T) {
	_, err := NewStep(map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field 'url'")
}

func TestNewStepRejectsNonStringHeader(t *testing.T) {
	_, err := NewStep(map[string]any{
		"url":     "http://example.test",
		"headers": map[string]any{"X-Retries": 3},
	})

	require.Error(t, err)
}

func TestExecuteSendsResolvedRequest(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotHeader string
		gotBody   []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	step, err := NewStep(map[string]any{
		"url":     server.URL + "/hooks/$JOB_NAME",
		"method":  "post",
		"headers": map[string]any{"Content-Type": "application/json"},
		"body":    `{"job":"$JOB_NAME","build":$BUILD_NUMBER,"result":"$BUILD_RESULT"}`,
	})
	require.NoError(t, err)

	ok, err := step.Execute(context.Background(), notificationBuild(), discardLogger())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/hooks/app", gotPath)
	assert.Equal(t, "application/json", gotHeader)
	assert.JSONEq(t, `{"job":"app","build":12,"result":"SUCCESS"}`, string(gotBody))
}

func TestExecuteErrorStatusFailsStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	step, err := NewStep(map[string]any{"url": server.URL})
	require.NoError(t, err)

	ok, err := step.Execute(context.Background(), notificationBuild(), discardLogger())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecuteRetriesUntilDelivered(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	step, err := NewStep(map[string]any{
		"url":   server.URL,
		"retry": map[string]any{"attempts": 3},
	})
	require.NoError(t, err)

	ok, err := step.Execute(context.Background(), notificationBuild(), discardLogger())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecuteUnreachableEndpointIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	step, err := NewStep(map[string]any{"url": server.URL})
	require.NoError(t, err)

	ok, err := step.Execute(context.Background(), notificationBuild(), discardLogger())

	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestExecuteMalformedURLMacro(t *testing.T) {
	step, err := NewStep(map[string]any{"url": "http://example.test/${BROKEN"})
	require.NoError(t, err)

	ok, err := step.Execute(context.Background(), notificationBuild(), discardLogger())

	require.Error(t, err)
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	factory := NewStepFactory()

	assert.Equal(t, "http_request", factory.ID())

	_, err := factory.Create(nil)
	require.Error(t, err)

	step, err := factory.Create(map[string]any{"url": "http://example.test"})
	require.NoError(t, err)
	assert.NotNil(t, step)
}
