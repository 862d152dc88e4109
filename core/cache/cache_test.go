package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetInstance(t *testing.T) {
	inst := GetInstance()
	if inst == nil {
		t.Fatal("GetInstance returned nil")
	}
	if GetInstance() != inst {
		t.Error("GetInstance should return same instance")
	}
}

func TestSet_Get(t *testing.T) {
	c := NewCache()
	c.Set("k", "val", 0, nil)
	got, ok := c.Get("k")
	if !ok || got != "val" {
		t.Errorf("Get = %v, %v; want val, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get missing key: want false")
	}
}

func TestSet_Expires(t *testing.T) {
	c := NewCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	c.Set("k", 1, time.Minute, nil)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should be readable")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should be gone")
	}
}

func TestGetOrDefault(t *testing.T) {
	c := NewCache()
	if got := c.GetOrDefault("k", "def"); got != "def" {
		t.Errorf("GetOrDefault missing = %v, want def", got)
	}
	c.Set("k", "stored", 0, nil)
	if got := c.GetOrDefault("k", "def"); got != "stored" {
		t.Errorf("GetOrDefault found = %v, want stored", got)
	}
}

func TestTagKey_DeleteByTag(t *testing.T) {
	c := NewCache()
	c.Set(Key("cat", "sofa"), 1, 0, []string{"categories"})
	c.Set(Key("cat", "chair"), 2, 0, []string{"categories"})
	c.Set("other", 3, 0, nil)

	if keys := c.GetKeysByTag("categories"); len(keys) != 2 {
		t.Errorf("GetKeysByTag = %d keys, want 2", len(keys))
	}
	c.DeleteByTag("categories")
	if _, ok := c.Get("cat|sofa"); ok {
		t.Error("DeleteByTag: cat|sofa should be gone")
	}
	if _, ok := c.Get("other"); !ok {
		t.Error("DeleteByTag must not touch untagged keys")
	}
}

func TestDelete_RemovesFromTagIndex(t *testing.T) {
	c := NewCache()
	c.Set("k", "v", 0, []string{"t"})
	c.Delete("k")
	if keys := c.GetKeysByTag("t"); len(keys) != 0 {
		t.Errorf("GetKeysByTag after Delete = %d keys, want 0", len(keys))
	}
}

func TestLayered_FetchLoadsOnce(t *testing.T) {
	l := NewLayered(nil, nil, "test:")
	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []string{"sofa", "chair"}, nil
	}
	for i := 0; i < 3; i++ {
		var got []string
		if err := l.Fetch(context.Background(), "nav", time.Minute, []string{"nav"}, &got, load); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if len(got) != 2 || got[1] != "chair" {
			t.Errorf("Fetch = %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("load calls = %d, want 1", calls)
	}
	l.Invalidate("nav")
	var got []string
	_ = l.Fetch(context.Background(), "nav", time.Minute, nil, &got, load)
	if calls != 2 {
		t.Errorf("load calls after Invalidate = %d, want 2", calls)
	}
}

func TestLayered_FetchErrorNotCached(t *testing.T) {
	l := NewLayered(nil, nil, "")
	boom := errors.New("boom")
	var dst int
	if err := l.Fetch(context.Background(), "k", 0, nil, &dst, func() (interface{}, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("Fetch err = %v, want boom", err)
	}
	if err := l.Fetch(context.Background(), "k", 0, nil, &dst, func() (interface{}, error) { return 7, nil }); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if dst != 7 {
		t.Errorf("dst = %d, want 7", dst)
	}
}
