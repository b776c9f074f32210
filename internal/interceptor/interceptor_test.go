package interceptor

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var signInfo = &grpc.UnaryServerInfo{FullMethod: "/sigflow.v1.SignatureService/Sign"}

func okHandler(ctx context.Context, req any) (any, error) {
	return "ok", nil
}

func incoming(auth string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", auth))
}

func TestAuthUnary(t *testing.T) {
	auth := AuthUnary("secret")

	tests := []struct {
		name string
		ctx  context.Context
		want codes.Code
	}{
		{"valid", incoming("Bearer secret"), codes.OK},
		{"wrong token", incoming("Bearer nope"), codes.Unauthenticated},
		{"no scheme", incoming("secret"), codes.Unauthenticated},
		{"no header", metadata.NewIncomingContext(context.Background(), metadata.MD{}), codes.Unauthenticated},
		{"no metadata", context.Background(), codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth(tt.ctx, nil, signInfo, okHandler)
			if got := status.Code(err); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	if _, err := AuthUnary("")(context.Background(), nil, signInfo, okHandler); err != nil {
		t.Fatalf("empty token should disable auth: %v", err)
	}
}

func TestAuthPublicMethod(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"}
	if _, err := AuthUnary("secret")(context.Background(), nil, info, okHandler); err != nil {
		t.Fatalf("reflection should not require a token: %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	md, _ := metadata.FromOutgoingContext(BearerToken(context.Background(), "secret"))
	if got := md.Get("authorization"); len(got) != 1 || got[0] != "Bearer secret" {
		t.Fatalf("got %v", got)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewRateLimiter(2)
	l.last = now
	l.now = func() time.Time { return now }

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should be admitted")
	}
	if l.Allow() {
		t.Fatal("third call should be limited")
	}

	now = now.Add(500 * time.Millisecond)
	if !l.Allow() {
		t.Fatal("one token should refill after half a second")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty again")
	}
}

func TestRateLimiterUnary(t *testing.T) {
	l := NewRateLimiter(1)
	l.now = func() time.Time { return l.last }
	unary := l.Unary()

	if _, err := unary(context.Background(), nil, signInfo, okHandler); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := unary(context.Background(), nil, signInfo, okHandler)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(0)
	for range 100 {
		if !l.Allow() {
			t.Fatal("zero rate should admit everything")
		}
	}
}

func TestRecoveryUnary(t *testing.T) {
	panicky := func(ctx context.Context, req any) (any, error) {
		panic("boom")
	}
	_, err := RecoveryUnary()(context.Background(), nil, signInfo, panicky)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestLoggingUnaryPassesThrough(t *testing.T) {
	resp, err := LoggingUnary()(context.Background(), nil, signInfo, okHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("got %v, %v", resp, err)
	}
}
