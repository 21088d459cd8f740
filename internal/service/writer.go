package service

import (
	"context"
	"time"
)

// storeWriter serializes mutations. *jobs.Queue satisfies it.
type storeWriter interface {
	Do(ctx context.Context, jobType string, fn func(context.Context) error) error
}

func runMutation(ctx context.Context, writer storeWriter, metrics *MetricsService, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := writer.Do(ctx, name, fn)
	metrics.ObserveMutation(name, err, time.Since(start))
	return err
}
