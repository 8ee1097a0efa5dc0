package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New memory cache: %v", err)
	}
	defer c.Close()

	// Miss
	val, ok := c.Get("key1")
	if ok {
		t.Fatal("Expected miss for key1")
	}
	if val != nil {
		t.Fatalf("Expected nil value on miss, got %v", val)
	}

	// Set + hit
	c.Set("key1", []byte("value1"))
	val, ok = c.Get("key1")
	if !ok {
		t.Fatal("Expected hit for key1")
	}
	if string(val) != "value1" {
		t.Fatalf("Expected value1, got %s", string(val))
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("present", []byte("data"))
	c.Delete("present")
	if _, ok := c.Get("present"); ok {
		t.Fatal("Expected deleted key to miss")
	}

	// Deleting an absent key is a no-op.
	c.Delete("absent")
	if c.Len() != 0 {
		t.Fatalf("Expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCache_Len(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("a", []byte("3"))
	if c.Len() != 2 {
		t.Fatalf("Expected Len 2, got %d", c.Len())
	}
}

func TestMemoryCache_Eviction_StripsPrefix(t *testing.T) {
	var evicted []string
	c, err := New("memory", ProviderConfig{
		Size:      2,
		TTL:       time.Hour,
		KeyPrefix: "meta:",
		OnEvict:   func(key string, _ []byte) { evicted = append(evicted, key) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	_, _ = c.Get("a") // promote "a"
	c.Set("c", []byte("3"))

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("Expected eviction of unprefixed key 'b', got %v", evicted)
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Expected recently used key 'a' to survive")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("short", []byte("lived"))
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("Expected entry to expire after TTL")
	}
}

func TestMemoryCache_DefaultSize(t *testing.T) {
	c, err := New("memory", ProviderConfig{TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	for i := 0; i < defaultSize+10; i++ {
		c.Set(string(rune('a'+i%26))+time.Duration(i).String(), []byte("x"))
	}
	if c.Len() != defaultSize {
		t.Fatalf("Expected Len capped at %d, got %d", defaultSize, c.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	type payload struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	if err := SetJSON(c, "p", payload{Title: "clip", Count: 3}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	got, ok := GetJSON[payload](c, "p")
	if !ok || got.Title != "clip" || got.Count != 3 {
		t.Fatalf("GetJSON = %+v, %v", got, ok)
	}

	c.Set("broken", []byte("{not json"))
	if _, ok := GetJSON[payload](c, "broken"); ok {
		t.Fatal("Expected undecodable entry to miss")
	}
	if _, ok := c.Get("broken"); ok {
		t.Fatal("Expected undecodable entry to be deleted")
	}
}
