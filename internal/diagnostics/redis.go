package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultStream = "offer-resolver:attempts"

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// RedisStreamSink appends every report to a Redis stream so failures can be inspected
// after the fact.
type RedisStreamSink struct {
	redis  RedisClient
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewRedisStreamSink(client RedisClient, stream string, maxLen int64, logger *slog.Logger) *RedisStreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStreamSink{
		redis:  client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With("component", "diagnostics"),
	}
}

func (s *RedisStreamSink) Record(ctx context.Context, report *Report) error {
	attempts, err := json.Marshal(report.Attempts)
	if err != nil {
		return fmt.Errorf("failed to marshal attempts: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"resolution_id": report.ResolutionID,
			"url":           report.URL,
			"retailer":      string(report.Retailer),
			"status":        string(report.Status),
			"attempts":      string(attempts),
			"timestamp":     strconv.FormatInt(report.ResolvedAt.UnixNano(), 10),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	id, err := s.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	s.logger.Debug("report published", "resolution_id", report.ResolutionID, "stream", s.stream, "entry_id", id)
	return nil
}

func (s *RedisStreamSink) Close() error {
	return s.redis.Close()
}
