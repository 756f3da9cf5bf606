package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aris-ai/aris/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	conf, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := config.Default()
	if conf.Pipeline.ChunkSize != def.Pipeline.ChunkSize {
		t.Errorf("expected default chunk size %d, got %d", def.Pipeline.ChunkSize, conf.Pipeline.ChunkSize)
	}
	if conf.Collections.Text != def.Collections.Text {
		t.Errorf("expected default text collection '%s', got '%s'", def.Collections.Text, conf.Collections.Text)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
redis_addr: redis:6380
pipeline:
  chunk_size: 500
  chunk_overlap: 100
  top_k: 5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conf, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.RedisAddr != "redis:6380" {
		t.Errorf("expected overridden redis addr, got '%s'", conf.RedisAddr)
	}
	if conf.Pipeline.ChunkSize != 500 {
		t.Errorf("expected chunk size 500, got %d", conf.Pipeline.ChunkSize)
	}
	if conf.Pipeline.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", conf.Pipeline.TopK)
	}
	// untouched fields keep their defaults
	if conf.QdrantAddr != "localhost:6334" {
		t.Errorf("expected default qdrant addr, got '%s'", conf.QdrantAddr)
	}
}

func TestLoadRejectsInvalidOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
pipeline:
  chunk_size: 100
  chunk_overlap: 100
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := config.Load(path); err == nil {
		t.Errorf("expected validation error for overlap >= chunk size")
	}
}
