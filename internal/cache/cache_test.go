package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("key1", Entry{Body: []byte(`{"title":"a"}`), ContentType: "application/json"})

	entry, status := c.Get("key1")
	if status != StatusHit {
		t.Errorf("status = %q, want hit", status)
	}
	if string(entry.Body) != `{"title":"a"}` {
		t.Errorf("Body = %q", string(entry.Body))
	}
	if entry.ContentType != "application/json" {
		t.Errorf("ContentType = %q", entry.ContentType)
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	entry, status := c.Get("nonexistent")
	if status != StatusMiss {
		t.Errorf("status = %q, want miss", status)
	}
	if entry != nil {
		t.Error("entry should be nil for miss")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("key1", Entry{Body: []byte("data")})

	c.now = func() time.Time { return now.Add(6 * time.Minute) }

	entry, status := c.Get("key1")
	if status != StatusMiss {
		t.Errorf("status = %q, want miss", status)
	}
	if entry != nil {
		t.Error("expired entry should not be returned")
	}
	if c.Len() != 0 || c.Size() != 0 {
		t.Errorf("expired entry not dropped: len=%d size=%d", c.Len(), c.Size())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(5*time.Minute, 100)

	c.Put("a", Entry{Body: bytes.Repeat([]byte("a"), 40)})
	c.Put("b", Entry{Body: bytes.Repeat([]byte("b"), 40)})
	c.Put("c", Entry{Body: bytes.Repeat([]byte("c"), 40)})

	if _, status := c.Get("a"); status != StatusMiss {
		t.Errorf("'a' should be evicted, got status %q", status)
	}
	if _, status := c.Get("b"); status != StatusHit {
		t.Errorf("'b' should still be cached, got status %q", status)
	}
}

func TestCache_LRUEviction_AccessOrder(t *testing.T) {
	c := New(5*time.Minute, 100)

	c.Put("a", Entry{Body: bytes.Repeat([]byte("a"), 40)})
	c.Put("b", Entry{Body: bytes.Repeat([]byte("b"), 40)})

	c.Get("a")

	c.Put("c", Entry{Body: bytes.Repeat([]byte("c"), 40)})

	if _, status := c.Get("a"); status != StatusHit {
		t.Error("'a' was accessed recently and should not be evicted")
	}
	if _, status := c.Get("b"); status != StatusMiss {
		t.Error("'b' should be evicted as LRU")
	}
}

func TestCache_OversizedEntrySkipped(t *testing.T) {
	c := New(5*time.Minute, 10)

	c.Put("big", Entry{Body: bytes.Repeat([]byte("x"), 11)})
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_UpdateExisting(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("key1", Entry{Body: []byte("old")})
	c.Put("key1", Entry{Body: []byte("new data")})

	entry, status := c.Get("key1")
	if status != StatusHit {
		t.Errorf("status = %q, want hit", status)
	}
	if string(entry.Body) != "new data" {
		t.Errorf("Body = %q, want new data", string(entry.Body))
	}
	if c.Size() != 8 {
		t.Errorf("Size = %d, want 8 (updated entry size)", c.Size())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", i%10)
			c.Put(key, Entry{Body: []byte("data")})
			c.Get(key)
		}(i)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("Len = %d, expected <= 10", c.Len())
	}
}

func TestKey(t *testing.T) {
	if Key([]byte("ab"), []byte("c")) == Key([]byte("a"), []byte("bc")) {
		t.Error("part boundaries must affect the key")
	}
	if Key([]byte("x")) != Key([]byte("x")) {
		t.Error("key not deterministic")
	}
	if len(Key()) != 64 {
		t.Errorf("key length = %d, want 64", len(Key()))
	}
}
