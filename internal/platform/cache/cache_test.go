package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "facility:search:a", payload{Name: "x", Count: 2}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	ok, err := m.Get(ctx, "facility:search:a", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Name != "x" || got.Count != 2 {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestMemory_Miss(t *testing.T) {
	m := NewMemory()
	var got payload
	ok, err := m.Get(context.Background(), "nope", &got)
	if err != nil || ok {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "k", payload{Name: "x"}, time.Minute)
	now = now.Add(2 * time.Minute)

	var got payload
	if ok, _ := m.Get(ctx, "k", &got); ok {
		t.Error("expected expired entry to miss")
	}
	if m.Len() != 0 {
		t.Errorf("expected expired entry to be evicted, len=%d", m.Len())
	}
}

func TestMemory_NoTTLNeverExpires(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "k", payload{Name: "x"}, 0)
	now = now.Add(24 * time.Hour)

	var got payload
	if ok, _ := m.Get(ctx, "k", &got); !ok {
		t.Error("expected entry without ttl to persist")
	}
}

func TestMemory_DeletePrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "facility:search:a", payload{}, time.Minute)
	m.Set(ctx, "facility:search:b", payload{}, time.Minute)
	m.Set(ctx, "other:key", payload{}, time.Minute)

	if err := m.DeletePrefix(ctx, "facility:search:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", m.Len())
	}
	var got payload
	if ok, _ := m.Get(ctx, "other:key", &got); !ok {
		t.Error("expected unrelated key to survive")
	}
}

func TestNewRedisClient_EmptyURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "http://not-redis"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}
