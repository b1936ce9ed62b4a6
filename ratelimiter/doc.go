// Package ratelimiter provides token bucket rate limiting with pluggable
// storage backends.
//
// A bucket holds up to Config.Capacity tokens and gains Config.RefillRate
// tokens every Config.RefillInterval. Requests consume tokens; when the
// balance would go negative the request is reported as not allowed, and the
// overdraft still counts against the bucket until refills recover it. This
// shape supports burst traffic while holding the average rate.
//
// Basic setup:
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       100,
//		RefillRate:     10,
//		RefillInterval: time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := limiter.Allow(ctx, "user:123")
//	if err != nil {
//		return err
//	}
//	if !result.Allowed() {
//		log.Printf("rate limited, retry after %v", result.RetryAfter())
//		return nil
//	}
//
// MemoryStore is fast and dependency-free but per-process; RedisStore shares
// bucket state across instances through an atomic Lua script:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store, err := ratelimiter.NewRedisStore(client)
//
// Key selection is up to the caller: client IP, user ID, API key, or any
// other string that identifies the principal being limited.
package ratelimiter
