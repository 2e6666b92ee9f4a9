// Package ratelimiter implements token-bucket throttling over a pluggable
// store: an in-process map for single instances and redis for fleets.
//
// A Bucket holds Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each Allow debits one token; a request the bucket cannot
// cover is denied without a debit and Result.RetryAfter reports when to try
// again. Both stores refill and debit atomically, the redis one through a
// server-side script.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore(time.Minute)
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity:       10,
//	    RefillRate:     5,
//	    RefillInterval: time.Minute,
//	})
//	if err != nil {
//	    return err
//	}
//
//	r.Use(ratelimiter.Middleware(bucket,
//	    ratelimiter.PrefixedKey("auth", clientip.Key),
//	))
//
// Middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every throttled route, plus Retry-After on denials.
package ratelimiter
