package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestOrderNameCacheDisabledAlwaysMisses(t *testing.T) {
	UseClient(nil, "")
	c := NewOrderNameCache(0)
	if c.TTL() != defaultOrderNameTTL {
		t.Fatalf("expected default ttl, got %s", c.TTL())
	}
	if err := c.Set(context.Background(), "#1003", "9981"); err != nil {
		t.Fatalf("set on disabled cache should be a no-op, got %v", err)
	}
	id, hit, err := c.Get(context.Background(), "#1003")
	if err != nil || hit || id != "" {
		t.Fatalf("expected miss, got id=%q hit=%v err=%v", id, hit, err)
	}
}

func TestOrderNameKeyNormalizesName(t *testing.T) {
	UseClient(nil, "")
	if got := buildKey(orderNameKey("  #AB-1003 ")); got != "cs:order_name:#ab-1003" {
		t.Fatalf("unexpected key: %s", got)
	}
	if NewOrderNameCache(time.Minute).TTL() != time.Minute {
		t.Fatalf("expected configured ttl")
	}
}

func TestOrderNameCacheRoundTripThroughRedis(t *testing.T) {
	store := newMemoryRedis(t, "shop")
	c := NewOrderNameCache(time.Minute)
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "#1003"); err != nil || hit {
		t.Fatalf("expected miss before set, hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, " #1003 ", "9981"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	raw, ok := store.stored("shop:order_name:#1003")
	if !ok || !strings.Contains(raw, `"order_id":"9981"`) {
		t.Fatalf("unexpected stored value: ok=%v raw=%s", ok, raw)
	}

	id, hit, err := c.Get(ctx, "#1003")
	if err != nil || !hit || id != "9981" {
		t.Fatalf("expected hit 9981, got id=%q hit=%v err=%v", id, hit, err)
	}

	if err := Del(ctx, "order_name:#1003"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "#1003"); hit {
		t.Fatalf("expected miss after delete")
	}
}

func TestOrderNameCacheIgnoresEmptyEntry(t *testing.T) {
	store := newMemoryRedis(t, "")
	store.values["cs:order_name:#7"] = `{"order_id":" ","resolved_at":1}`
	if id, hit, err := NewOrderNameCache(0).Get(context.Background(), "#7"); err != nil || hit || id != "" {
		t.Fatalf("empty cached id should miss, got id=%q hit=%v err=%v", id, hit, err)
	}
}
