package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewCreatesDirectory(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "nested", ".quarry", "cache")
	if _, err := New(cacheDir, 24, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create the cache directory")
	}
}

func TestSetAndGetWithHash(t *testing.T) {
	c := newTestCache(t)

	key := FactsKey("src/lexer.rs")
	hash := HashBytes([]byte("fn next_token() {}"))
	facts := []byte(`{"file":"src/lexer.rs","definitions":[{"name":"next_token","line":1}]}`)

	if err := c.SetWithHash(key, hash, facts); err != nil {
		t.Fatalf("SetWithHash() error: %v", err)
	}

	got, ok := c.GetWithHash(key, hash)
	if !ok {
		t.Fatal("GetWithHash() returned false for matching hash")
	}
	if string(got) != string(facts) {
		t.Errorf("GetWithHash() = %q, want %q", got, facts)
	}
}

func TestGetWithHashStaleContent(t *testing.T) {
	c := newTestCache(t)

	key := FactsKey("src/lexer.rs")
	if err := c.SetWithHash(key, HashBytes([]byte("old")), []byte("{}")); err != nil {
		t.Fatalf("SetWithHash() error: %v", err)
	}

	// The file changed on disk, so its content hash moved.
	if _, ok := c.GetWithHash(key, HashBytes([]byte("new"))); ok {
		t.Error("GetWithHash() should miss when the content hash changed")
	}
}

func TestGetWithHashMissingKey(t *testing.T) {
	c := newTestCache(t)
	if _, ok := c.GetWithHash(FactsKey("src/never_seen.py"), "abc"); ok {
		t.Error("GetWithHash() should return false for an unknown key")
	}
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := c.SetWithHash("key", "hash", []byte("data")); err != nil {
		t.Errorf("SetWithHash() on disabled cache should not error: %v", err)
	}
	if _, ok := c.GetWithHash("key", "hash"); ok {
		t.Error("GetWithHash() on disabled cache should return false")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache should not error: %v", err)
	}
	if stats, err := c.GetStats(); err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() on disabled cache = %v, %v", stats, err)
	}
}

func TestClear(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	c, err := New(cacheDir, 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for _, path := range []string{"a.go", "b.py", "c.rs"} {
		if err := c.SetWithHash(FactsKey(path), "h", []byte("{}")); err != nil {
			t.Fatalf("SetWithHash() error: %v", err)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexer.py")
	if err := os.WriteFile(path, []byte("def tokenize(s): pass\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	hash1, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	hash2, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if hash1 == "" || hash1 != hash2 {
		t.Errorf("HashFile() should be stable, got %q and %q", hash1, hash2)
	}

	if err := os.WriteFile(path, []byte("def tokenize(s): return []\n"), 0644); err != nil {
		t.Fatalf("Failed to update test file: %v", err)
	}
	hash3, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if hash1 == hash3 {
		t.Error("HashFile() should change with content")
	}
}

func TestHashFileNonExistent(t *testing.T) {
	if _, err := HashFile("/nonexistent/path/file.rs"); err == nil {
		t.Error("HashFile() should return error for non-existent file")
	}
}

func TestTTLExpiration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping TTL test in short mode")
	}

	c := &Cache{
		dir:     filepath.Join(t.TempDir(), "cache"),
		ttl:     1 * time.Second,
		enabled: true,
	}
	os.MkdirAll(c.dir, 0755)

	key := FactsKey("src/app.ts")
	if err := c.SetWithHash(key, "h", []byte("{}")); err != nil {
		t.Fatalf("SetWithHash() error: %v", err)
	}
	if _, ok := c.GetWithHash(key, "h"); !ok {
		t.Error("GetWithHash() should hit before the TTL expires")
	}

	time.Sleep(2 * time.Second)

	if _, ok := c.GetWithHash(key, "h"); ok {
		t.Error("GetWithHash() should miss after the TTL expires")
	}
}

func TestKeyPathDigestsArbitraryKeys(t *testing.T) {
	c := newTestCache(t)

	// Source paths carry separators, colons, spaces, and non-ASCII; none
	// of it may leak into the entry filename.
	keys := []string{
		FactsKey("/abs/path/to/file.go"),
		FactsKey("file:with:colons"),
		FactsKey("file with spaces.py"),
		FactsKey("unicode/文件/test.rs"),
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		path := c.keyPath(key)
		if filepath.Dir(path) != c.dir {
			t.Errorf("keyPath(%q) escapes the cache dir: %s", key, path)
		}
		if filepath.Ext(path) != ".json" {
			t.Errorf("keyPath(%q) = %s, want a .json entry", key, path)
		}
		if seen[path] {
			t.Errorf("keyPath(%q) collides with another key", key)
		}
		seen[path] = true
	}
}

func TestFactsKeyDistinctPerPath(t *testing.T) {
	if FactsKey("src/a.rs") == FactsKey("src/b.rs") {
		t.Error("FactsKey should differ per path")
	}
}

func TestGetStats(t *testing.T) {
	c := newTestCache(t)

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Empty cache should have 0 entries, got %d", stats.Entries)
	}

	for _, path := range []string{"a.go", "b.py", "c.rs"} {
		if err := c.SetWithHash(FactsKey(path), "h", []byte("{}")); err != nil {
			t.Fatalf("SetWithHash() error: %v", err)
		}
	}

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Cache should have 3 entries, got %d", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Error("TotalSize should be positive")
	}
}
