package main

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type config struct {
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	IdleInterval    time.Duration `env:"IDLE_INTERVAL" envDefault:"250ms"`
	WorkingInterval time.Duration `env:"WORKING_INTERVAL" envDefault:"50ms"`
	JobTimeout      time.Duration `env:"JOB_TIMEOUT" envDefault:"0s"`

	LongJob      time.Duration `env:"LONG_JOB" envDefault:"3s"`
	GroupJob     time.Duration `env:"GROUP_JOB" envDefault:"1500ms"`
	GroupMax     int           `env:"GROUP_MAX" envDefault:"4"`
	ShutdownWait time.Duration `env:"SHUTDOWN_WAIT" envDefault:"10s"`

	// CacheRate limits cache calls per CacheInterval.
	CacheRate     int           `env:"CACHE_RATE" envDefault:"5"`
	CacheInterval time.Duration `env:"CACHE_INTERVAL" envDefault:"1s"`
	CacheRetries  int           `env:"CACHE_RETRIES" envDefault:"3"`

	// RedisAddr adds a Redis instance to the cache pool when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

func loadConfig() (config, error) {
	return env.ParseAsWithOptions[config](env.Options{Prefix: "DATAUTILS_"})
}
