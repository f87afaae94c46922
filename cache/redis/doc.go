// Package redis implements cache.Cache on Redis.
//
// Clients are shared through an explicit [Registry] instead of a global
// map: create one Registry per process, ask it for a client by name, and
// close everything with CloseAll on shutdown.
//
//	reg := redis.NewRegistry(redis.WithRegistryLogger(logger))
//	defer reg.CloseAll(ctx)
//
//	client, err := reg.Client(ctx, "sessions", &goredis.Options{Addr: "localhost:6379"})
//	if err != nil { ... }
//	c := redis.New(client, redis.WithPrefix("sess:"))
package redis
