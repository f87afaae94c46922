package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// ErrClientMissing is returned when no client is available.
var ErrClientMissing = errors.New("redis: client missing")

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithConnectTimeout bounds the ping that validates a new client.
func WithConnectTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.connectTimeout = d }
}

// Registry owns named Redis clients. It is safe for concurrent use.
type Registry struct {
	logger         *slog.Logger
	connectTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*redis.Client
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:         slog.Default(),
		connectTimeout: 5 * time.Second,
		clients:        make(map[string]*redis.Client),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the client registered under key, creating and pinging a
// new one from opts if there is none. A client that fails its ping is
// closed and not registered, so the next call tries again.
func (r *Registry) Client(ctx context.Context, key string, opts *redis.Options) (*redis.Client, error) {
	if key == "" {
		return nil, fmt.Errorf("redis: empty client key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		return c, nil
	}
	if opts == nil {
		return nil, fmt.Errorf("%w: %q is not registered and no options were given", ErrClientMissing, key)
	}

	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, r.connectTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		r.logger.Error("redis client connect failed",
			slog.String("client", key),
			slog.String("addr", opts.Addr),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("redis: connect %q: %w", key, err)
	}

	r.clients[key] = c
	r.logger.Info("redis client connected",
		slog.String("client", key),
		slog.String("addr", opts.Addr),
	)
	return c, nil
}

// Register adds an existing client under key, replacing nothing: it
// reports false if key is already taken.
func (r *Registry) Register(key string, c *redis.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[key]; ok {
		return false
	}
	r.clients[key] = c
	return true
}

// Lookup returns the client registered under key.
func (r *Registry) Lookup(key string) (*redis.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[key]
	return c, ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// CloseAll closes every registered client concurrently and empties the
// registry. The returned error joins every close failure.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*redis.Client)
	r.mu.Unlock()

	var (
		mu   sync.Mutex
		errs []error
	)
	g, _ := errgroup.WithContext(ctx)
	for key, c := range clients {
		g.Go(func() error {
			if err := c.Close(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("redis: close %q: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Debug("redis clients closed", slog.Int("count", len(clients)))
	return errors.Join(errs...)
}
