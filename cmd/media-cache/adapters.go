package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-media-cache/internal/metrics"
)

// RedisLogger adapts zap.Logger to the go-redis internal logger
type RedisLogger struct {
	logger *zap.Logger
}

// NewRedisLogger creates a new RedisLogger adapter
func NewRedisLogger(logger *zap.Logger) *RedisLogger {
	return &RedisLogger{logger: logger.Named("redis")}
}

// Printf logs a go-redis message at warn level
func (z *RedisLogger) Printf(ctx context.Context, format string, v ...interface{}) {
	z.logger.Warn(fmt.Sprintf(format, v...))
}

// PrometheusHook records failed KeyDB commands as L2 cache errors
type PrometheusHook struct{}

var _ redis.Hook = PrometheusHook{}

// NewPrometheusHook creates a new PrometheusHook
func NewPrometheusHook() redis.Hook {
	return PrometheusHook{}
}

// BeforeProcess implements redis.Hook
func (PrometheusHook) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	return ctx, nil
}

// AfterProcess records the command error, if any
func (PrometheusHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	recordCommandError(cmd)
	return nil
}

// BeforeProcessPipeline implements redis.Hook
func (PrometheusHook) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

// AfterProcessPipeline records errors of pipelined commands
func (PrometheusHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	for _, cmd := range cmds {
		recordCommandError(cmd)
	}
	return nil
}

func recordCommandError(cmd redis.Cmder) {
	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordCacheError("l2", cmd.Name())
	}
}
