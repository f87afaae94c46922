// Command datautils-demo runs a mixed workload through the queued command
// runner: long sequential jobs, two concurrency groups and one job that
// fails. The group "g2" jobs write through a throttled, retrying cache
// distributed over in-memory instances and, when DATAUTILS_REDIS_ADDR is
// set, a Redis instance.
//
// Usage:
//
//	DATAUTILS_LONG_JOB=300ms DATAUTILS_GROUP_JOB=150ms go run ./cmd/datautils-demo
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mitchcodes/datautils/backoff"
	"github.com/mitchcodes/datautils/cache"
	"github.com/mitchcodes/datautils/cache/memory"
	"github.com/mitchcodes/datautils/cache/redis"
	"github.com/mitchcodes/datautils/distribute"
	"github.com/mitchcodes/datautils/event"
	"github.com/mitchcodes/datautils/job"
	"github.com/mitchcodes/datautils/middleware"
	"github.com/mitchcodes/datautils/observability"
	"github.com/mitchcodes/datautils/retry"
	"github.com/mitchcodes/datautils/runner"
	"github.com/mitchcodes/datautils/throttle"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	store, closeStore, err := buildCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	r, err := runner.New(
		runner.WithLogger(logger),
		runner.WithIdleInterval(cfg.IdleInterval),
		runner.WithWorkingInterval(cfg.WorkingInterval),
		runner.WithJobTimeout(cfg.JobTimeout),
		runner.WithAutoStart(false),
		runner.WithMiddleware(
			middleware.Logging(logger),
			middleware.Tracing(),
			middleware.Metrics(),
		),
	)
	if err != nil {
		return err
	}
	observability.NewLifecycleMetrics().Attach(r.Events())

	var finished, failed atomic.Int32
	r.Events().Observe(func(evt event.Event) {
		switch evt.Kind {
		case event.KindFinishJob:
			finished.Add(1)
		case event.KindError:
			failed.Add(1)
		}
	})

	for _, j := range workload(cfg, store) {
		if err := r.AddJob(j); err != nil {
			return err
		}
	}
	logger.Info("workload queued", slog.Int("jobs", r.Len()))
	if err := r.Start(); err != nil {
		return err
	}

	waitErr := r.Wait(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	if err := r.Close(closeCtx); err != nil {
		logger.Warn("runner did not shut down cleanly", slog.String("error", err.Error()))
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}

	logger.Info("workload done",
		slog.Int("finished", int(finished.Load())),
		slog.Int("errors", int(failed.Load())),
	)
	return nil
}

// workload is the reference mix: 21 jobs, one of which fails.
func workload(cfg config, store cache.Cache) []*job.Job {
	long := func(context.Context) error {
		time.Sleep(cfg.LongJob)
		return nil
	}
	short := func(context.Context) error {
		time.Sleep(cfg.GroupJob)
		return nil
	}
	write := func(i int) job.Work {
		return func(ctx context.Context) error {
			time.Sleep(cfg.GroupJob)
			return cache.SetJSON(ctx, store, fmt.Sprintf("g2:%d", i), map[string]any{
				"job":         i,
				"finished_at": time.Now().UTC(),
			}, time.Minute)
		}
	}

	var jobs []*job.Job
	add := func(name string, work job.Work, opts ...job.Option) {
		jobs = append(jobs, job.New(name, work, opts...))
	}
	g1 := func(n int) {
		for range n {
			add(fmt.Sprintf("g1-%d", len(jobs)), short, job.WithGroup("g1", cfg.GroupMax))
		}
	}
	g2 := func(n int) {
		for range n {
			add(fmt.Sprintf("g2-%d", len(jobs)), write(len(jobs)), job.WithGroup("g2", cfg.GroupMax))
		}
	}

	add("warmup", long)
	g1(10)
	add("reindex", long)
	add("flaky-export", func(context.Context) error {
		time.Sleep(cfg.LongJob)
		return errors.New("export target rejected the upload")
	})
	g1(2)
	g2(2)
	g1(2)
	g2(2)
	return jobs
}

// buildCache composes the demo cache: round-robin over the instances,
// throttled, then retried.
func buildCache(ctx context.Context, cfg config, logger *slog.Logger) (cache.Cache, func(), error) {
	primary := memory.New(memory.WithLogger(logger), memory.WithCapacity(1024))
	replica := memory.New(memory.WithLogger(logger), memory.WithCapacity(1024))
	primary.Start()
	replica.Start()
	instances := []cache.Cache{primary, replica}

	registry := redis.NewRegistry(redis.WithRegistryLogger(logger))
	if cfg.RedisAddr != "" {
		client, err := registry.Client(ctx, "demo", &goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		instances = append(instances, redis.New(client, redis.WithPrefix("datautils-demo:"), redis.WithLogger(logger)))
	}

	pool, err := distribute.New(instances, distribute.RoundRobin())
	if err != nil {
		return nil, nil, err
	}
	limiter, err := throttle.New(cfg.CacheRate, cfg.CacheInterval, true)
	if err != nil {
		return nil, nil, err
	}

	store := cache.Retrying(
		cache.Throttled(cache.Distributed(pool), limiter),
		retry.Policy{
			MaxAttempts: cfg.CacheRetries,
			Backoff:     backoff.Jitter(backoff.Exponential{Initial: 50 * time.Millisecond, Max: time.Second}),
			OnEachError: func(err error) {
				logger.Warn("cache call failed", slog.String("error", err.Error()))
			},
		},
	)

	closeAll := func() {
		primary.Close()
		replica.Close()
		if err := registry.CloseAll(context.Background()); err != nil {
			logger.Warn("closing redis clients", slog.String("error", err.Error()))
		}
	}
	return store, closeAll, nil
}
