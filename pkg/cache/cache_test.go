package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func writeFileRaw(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "solve:abc")
	if err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	// Round-trip
	if err := c.Set(ctx, "solve:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "solve:abc")
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q, want payload", data)
	}

	// Expired entries read as a miss
	if err := c.Set(ctx, "solve:old", []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "solve:old"); hit {
		t.Error("expired entry should be a miss")
	}

	// Delete
	if err := c.Delete(ctx, "solve:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "solve:abc"); hit {
		t.Error("deleted entry should be a miss")
	}

	// Deleting a missing key is fine
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Clobber the entry on disk; the next Get must treat it as a miss.
	fc := c.(*FileCache)
	if err := writeFileRaw(fc.path("k"), []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// GameKey is the content hash with a stage prefix
	if got := k.GameKey("abc123"); got != "game:abc123" {
		t.Errorf("GameKey unexpected: %s", got)
	}

	// SolveKey must change when the options change
	sk1 := k.SolveKey("layout1", "game1", SolveKeyOpts{RateUnit: "minute"})
	sk2 := k.SolveKey("layout1", "game1", SolveKeyOpts{RateUnit: "second"})
	if sk1 == sk2 {
		t.Error("Different SolveKeyOpts should produce different keys")
	}
	if sk1 != k.SolveKey("layout1", "game1", SolveKeyOpts{RateUnit: "minute"}) {
		t.Error("SolveKey should be deterministic")
	}

	// ArtifactKey distinguishes formats
	ak1 := k.ArtifactKey("solved1", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("solved1", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "user:42:")

	if got := scoped.GameKey("h"); got != "user:42:"+base.GameKey("h") {
		t.Errorf("scoped GameKey = %s", got)
	}
	sk := scoped.SolveKey("l", "g", SolveKeyOpts{})
	if sk == base.SolveKey("l", "g", SolveKeyOpts{}) {
		t.Error("scoped key should differ from unscoped")
	}

	// Nil inner falls back to the default scheme
	fallback := NewScopedKeyer(nil, "p:")
	if got := fallback.GameKey("h"); got != "p:game:h" {
		t.Errorf("fallback GameKey = %s", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("wrapped error should be retryable")
	}
	if IsRetryable(ErrNotFound) {
		t.Error("plain error should not be retryable")
	}
}

func TestRetryWithBackoffStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return ErrNotFound
	})
	if err == nil || calls != 1 {
		t.Errorf("permanent error: calls=%d err=%v, want 1 call", calls, err)
	}
}
