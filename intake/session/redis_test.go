package session

import (
	"context"
	"os"
	"testing"
	"time"
)

// redisStore connects to REDIS_URL; the test is skipped when it is unset.
func redisStore(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := NewRedisStore(ctx, url, ttl)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	store.prefix = "intake:test:" + t.Name() + ":"
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStoreMissingKeyIsNoSession(t *testing.T) {
	store := redisStore(t, time.Minute)
	s, ok, err := store.Get(context.Background(), 404)
	if err != nil || ok || s != nil {
		t.Fatalf("get = %+v, %v, %v", s, ok, err)
	}
}

func TestRedisStoreRoundTripAndDelete(t *testing.T) {
	store := redisStore(t, time.Minute)
	ctx := context.Background()
	t.Cleanup(func() { _ = store.Delete(ctx, 7) })

	s := New(7)
	s.State = StateAwaitAnswer
	s.Step = 2
	s.Language = "ru"
	s.Answers = []Answer{{Key: "question_1", Value: "да"}}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.Get(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != s.ID || got.Step != 2 || got.Language != "ru" || got.Answers[0].Value != "да" {
		t.Fatalf("round trip = %+v", got)
	}

	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 7); ok {
		t.Fatal("session still present after delete")
	}
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	store := redisStore(t, time.Hour)
	ctx := context.Background()
	t.Cleanup(func() { _ = store.Delete(ctx, 8) })

	if _, err := store.Reset(ctx, 8); err != nil {
		t.Fatalf("reset: %v", err)
	}
	key := store.key(8)
	if ttl := store.client.TTL(ctx, key).Val(); ttl <= 59*time.Minute || ttl > time.Hour {
		t.Fatalf("ttl after reset = %v", ttl)
	}

	if err := store.client.Expire(ctx, key, 5*time.Second).Err(); err != nil {
		t.Fatalf("expire: %v", err)
	}
	s, _, _ := store.Get(ctx, 8)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := store.client.TTL(ctx, key).Val(); ttl <= 59*time.Minute {
		t.Fatalf("save did not refresh ttl: %v", ttl)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "http://not-redis", time.Minute); err == nil {
		t.Fatal("expected error for a non-redis url")
	}
}
