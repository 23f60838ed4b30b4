package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RateLimiter keeps one token bucket per peer host. Buckets live in an
// LRU, so the least recently seen peers are forgotten first and memory
// stays bounded however many clients connect.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache
}

// NewRateLimiter allows perSecond requests per peer with the given burst,
// tracking at most peers addresses.
func NewRateLimiter(perSecond float64, burst, peers int) (*RateLimiter, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %v", perSecond)
	}
	if burst < 1 {
		return nil, fmt.Errorf("rate limit burst must be at least 1, got %d", burst)
	}
	buckets, err := lru.New(peers)
	if err != nil {
		return nil, fmt.Errorf("limiter cache: %w", err)
	}
	return &RateLimiter{limit: rate.Limit(perSecond), burst: burst, buckets: buckets}, nil
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	if b, ok := l.buckets.Get(key); ok {
		return b.(*rate.Limiter)
	}
	b := rate.NewLimiter(l.limit, l.burst)
	// A concurrent caller may have added the same key; keep theirs.
	if prev, found, _ := l.buckets.PeekOrAdd(key, b); found {
		return prev.(*rate.Limiter)
	}
	return b
}

// Tracked returns the number of peers currently holding a bucket.
func (l *RateLimiter) Tracked() int {
	return l.buckets.Len()
}

var errNoPeer = errors.New("no peer")

// peerKey identifies a client by host, so reconnecting from a new source
// port does not reset its budget.
func peerKey(ctx context.Context) (string, error) {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "", errNoPeer
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, nil
	}
	return addr, nil
}

// Interceptor rejects calls over the peer's budget with ResourceExhausted.
// Calls without peer information share one bucket.
func (l *RateLimiter) Interceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	key, err := peerKey(ctx)
	if err != nil {
		key = "unknown"
	}
	if !l.Allow(key) {
		return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
	}
	return handler(ctx, req)
}
