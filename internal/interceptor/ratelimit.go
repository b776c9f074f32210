package interceptor

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimiter is a token bucket shared by the unary and stream interceptors
// it hands out. A non-positive rate admits everything.
type RateLimiter struct {
	mu     sync.Mutex
	tokens float64
	max    float64
	rate   float64 // tokens per second
	last   time.Time
	now    func() time.Time
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		tokens: float64(rps),
		max:    float64(rps),
		rate:   float64(rps),
		last:   time.Now(),
		now:    time.Now,
	}
}

func (l *RateLimiter) Allow() bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > l.max {
		l.tokens = l.max
	}

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

func (l *RateLimiter) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !l.Allow() {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

func (l *RateLimiter) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !l.Allow() {
			return status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(srv, ss)
	}
}
