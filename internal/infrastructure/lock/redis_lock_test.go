package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func newTestLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := NewRedisClient(srv.Addr())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLock(client, zap.NewNop()), srv
}

func TestRedisLock(t *testing.T) {
	t.Run("single holder", func(t *testing.T) {
		l, _ := newTestLock(t)
		ctx := context.Background()

		release, ok, err := l.Acquire(ctx, "sweep", time.Minute)
		if err != nil || !ok {
			t.Fatalf("expected lease, got ok=%v err=%v", ok, err)
		}
		if _, ok, err := l.Acquire(ctx, "sweep", time.Minute); err != nil || ok {
			t.Fatalf("expected lease to be held, got ok=%v err=%v", ok, err)
		}

		release()
		if _, ok, err := l.Acquire(ctx, "sweep", time.Minute); err != nil || !ok {
			t.Fatalf("expected lease after release, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("expired lease is not released by the old holder", func(t *testing.T) {
		l, srv := newTestLock(t)
		ctx := context.Background()

		staleRelease, ok, _ := l.Acquire(ctx, "sweep", time.Second)
		if !ok {
			t.Fatalf("expected lease")
		}
		srv.FastForward(2 * time.Second)

		if _, ok, _ := l.Acquire(ctx, "sweep", time.Minute); !ok {
			t.Fatalf("expected lease after expiry")
		}
		staleRelease()
		if !srv.Exists(keyPrefix + "sweep") {
			t.Fatalf("stale holder released the new lease")
		}
	})

	t.Run("backend down", func(t *testing.T) {
		l, srv := newTestLock(t)
		srv.Close()
		if _, _, err := l.Acquire(context.Background(), "sweep", time.Minute); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestNewRedisClient(t *testing.T) {
	c, err := NewRedisClient("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts := c.Options(); opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := NewRedisClient("redis://localhost:6379/notadb"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNoopLock(t *testing.T) {
	release, ok, err := NoopLock{}.Acquire(context.Background(), "sweep", time.Minute)
	if err != nil || !ok || release == nil {
		t.Fatalf("noop lock must always grant")
	}
	release()
}
