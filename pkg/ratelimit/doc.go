// Package ratelimit paces image downloads.
//
// Pinterest's CDN tolerates a steady stream of requests but starts
// answering 429 under bursts, so downloads can be throttled with a token
// bucket. The bucket holds up to a burst of tokens and is refilled in full
// once per period:
//
//	limiter := ratelimit.PerMinute(60, 5) // 5 tokens every 5 seconds
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // run was stopped
//	}
//
// PerMinute returns nil when the rate is zero; callers treat a nil Limiter
// as unlimited.
package ratelimit
