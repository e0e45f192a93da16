// Package enqueue provides the native build step that pushes a build
// notification onto a Redis list for downstream consumers.
package enqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/template"
)

const connectTimeout = 5 * time.Second

type Step struct {
	queue      string
	payload    string
	connection map[string]string
}

func NewStep(config map[string]any) (*Step, error) {
	queue, _ := config["queue"].(string)
	if queue == "" {
		return nil, errors.New("missing required field 'queue'")
	}

	payload, _ := config["payload"].(string)

	connectionConfig, _ := config["connection"].(map[string]any)

	connection := make(map[string]string)
	for k, v := range connectionConfig {
		if str, ok := v.(string); ok {
			connection[k] = str
		}
	}

	return &Step{queue: queue, payload: payload, connection: connection}, nil
}

// Execute pushes the rendered payload onto the configured list. Every
// failure here is an infrastructure problem: the broker is part of the
// delivery pipeline, not of the build.
func (s *Step) Execute(ctx context.Context, build *models.BuildContext, logger *slog.Logger) (bool, error) {
	payload, err := s.payloadFor(build)
	if err != nil {
		return false, err
	}

	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	if err := client.RPush(ctx, s.queue, payload).Err(); err != nil {
		return false, fmt.Errorf("failed to enqueue build notification: %w", err)
	}

	logger.InfoContext(ctx, "build notification enqueued", "queue", s.queue)

	return true, nil
}

// payloadFor renders the configured payload template, or a JSON document
// describing the build when no payload is configured.
func (s *Step) payloadFor(build *models.BuildContext) (string, error) {
	if s.payload != "" {
		payload, err := template.Expand(s.payload, build.Vars())
		if err != nil {
			return "", fmt.Errorf("failed to render payload: %w", err)
		}

		return payload, nil
	}

	document, err := json.Marshal(map[string]any{
		"job_name":     build.JobName,
		"build_number": build.BuildNumber,
		"result":       build.Result,
		"built_on":     build.BuiltOn,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	return string(document), nil
}

func (s *Step) connect(ctx context.Context) (redis.UniversalClient, error) {
	addr := s.connection["addr"]
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if dbStr := s.connection["db"]; dbStr != "" {
		if _, err := fmt.Sscanf(dbStr, "%d", &db); err != nil {
			return nil, fmt.Errorf("invalid db value: %w", err)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: s.connection["password"],
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
