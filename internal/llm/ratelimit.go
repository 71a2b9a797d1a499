package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped client.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one
// minute's worth. A non-positive perMinute disables throttling.
func NewRateLimited(next Client, perMinute int) *RateLimited {
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
		burst = perMinute
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.GenerateContent(ctx, prompt)
}

func (r *RateLimited) GenerateFromImage(ctx context.Context, prompt, imageURL string) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.GenerateFromImage(ctx, prompt, imageURL)
}

func (r *RateLimited) Close() error {
	return r.next.Close()
}
