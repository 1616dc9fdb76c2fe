// Package redisengine provides a Redis implementation of the rehydrator.Store
// interface.
//
// Records are stored one per key as JSON documents, under
// "<prefix><collection>:<id>" with a configurable prefix. A missing key is
// reported as rehydrator.ErrRecordNotFound, which the rehydration engine and
// lazy references rely on.
//
// Key features:
//   - Store construction from an existing client or from a URL (with ping)
//   - Configurable key prefix per store
//   - Plain and context-aware structured logging
//   - Duration metrics and tracing spans per fetch, save, and delete
//
// Usage examples:
//
//	// On an existing client
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store, _ := redisengine.NewStoreFromClient(client)
//
//	// Owning its own client, with a custom prefix
//	store, _ := redisengine.NewStoreFromURL(
//		ctx,
//		"redis://localhost:6379/0",
//		redisengine.WithKeyPrefix("inventory:"),
//		redisengine.WithLogger(logger),
//	)
//	defer store.Close()
//
//	doc, _ := store.Fetch(ctx, "servers", "srv-1")
package redisengine
