package storage

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles uploads to the wrapped store. Destroy is not limited
// so rollbacks are never delayed.
type RateLimited struct {
	inner   ImageStore
	limiter *rate.Limiter
}

// NewRateLimited allows rps uploads per second with the given burst.
func NewRateLimited(inner ImageStore, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Upload(ctx context.Context, file Upload, folder string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("upload throttled: %w", err)
	}
	return r.inner.Upload(ctx, file, folder)
}

func (r *RateLimited) Destroy(ctx context.Context, publicID string) error {
	return r.inner.Destroy(ctx, publicID)
}
