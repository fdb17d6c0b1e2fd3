package translator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache("", "Korean/gpt-4")

	if _, ok := c.Get("hello"); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Set("hello", "안녕하세요")
	if v, ok := c.Get("hello"); !ok || v != "안녕하세요" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Error("Clear() left entries")
	}
}

func TestCacheNamespace(t *testing.T) {
	ko := NewCache("", "Korean/gpt-4")
	ja := NewCache("", "Japanese/gpt-4")
	if ko.Key("text") == ja.Key("text") {
		t.Error("namespaces should produce different keys")
	}
	if len(ko.Key("text")) != 64 {
		t.Errorf("key should be a hex SHA-256, got %q", ko.Key("text"))
	}
}

func TestCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "translations.json")

	c := NewCache(path, "ns")
	if err := c.Load(); err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	c.Set("one", "하나")
	c.Set("two", "둘")
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatal(err)
	}
	if file.Version != "1.0" || len(file.Entries) != 2 {
		t.Errorf("file = %+v", file)
	}

	loaded := NewCache(path, "ns")
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v, ok := loaded.Get("two"); !ok || v != "둘" {
		t.Errorf("loaded Get() = %q, %v", v, ok)
	}
}

func TestCacheLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	if err := NewCache(path, "").Load(); err == nil {
		t.Error("expected error for corrupt cache file")
	}
}
