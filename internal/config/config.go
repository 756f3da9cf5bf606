// Package config loads the service configuration from YAML. Absent
// fields fall back to defaults, so a minimal file only names what it
// overrides.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

type Config struct {
	RedisAddr    string             `yaml:"redis_addr"`
	QdrantAddr   string             `yaml:"qdrant_addr"`
	ParseService ParseServiceConfig `yaml:"parse_service"`
	Providers    ProviderConfig     `yaml:"providers"`
	Collections  CollectionsConfig  `yaml:"collections"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
}

type ParseServiceConfig struct {
	Endpoint   string `yaml:"endpoint"`
	ApiKey     string `yaml:"api_key"`
	MaxRetries int    `yaml:"max_retries"`
}

type ProviderConfig struct {
	Embedder string `yaml:"embedder"`
	Reranker string `yaml:"reranker"`
	LM       string `yaml:"lm"`
}

type CollectionsConfig struct {
	Text   string `yaml:"text"`
	Images string `yaml:"images"`
}

type PipelineConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	GapTolerance     int     `yaml:"gap_tolerance"`
	DedupThreshold   float64 `yaml:"dedup_threshold"`
	TopK             int     `yaml:"top_k"`
	RerankEnabled    bool    `yaml:"rerank_enabled"`
	DecomposeEnabled bool    `yaml:"decompose_enabled"`
	CacheMaxEntries  int     `yaml:"cache_max_entries"`
}

func Default() Config {
	return Config{
		RedisAddr:  "localhost:6379",
		QdrantAddr: "localhost:6334",
		ParseService: ParseServiceConfig{
			MaxRetries: 3,
		},
		Providers: ProviderConfig{
			Embedder: "openai",
			Reranker: "cohere",
			LM:       "openai",
		},
		Collections: CollectionsConfig{
			Text:   "aris_text",
			Images: "aris_images",
		},
		Pipeline: PipelineConfig{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			GapTolerance:     0,
			DedupThreshold:   0.95,
			TopK:             10,
			RerankEnabled:    true,
			DecomposeEnabled: true,
			CacheMaxEntries:  10000,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error;
// the defaults are returned as-is.
func Load(path string) (Config, error) {
	conf := Default()

	file, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return conf, nil
	}
	if err != nil {
		return conf, fmt.Errorf("failed to read config '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(file, &conf); err != nil {
		return conf, fmt.Errorf("failed to parse config '%s': %w", path, err)
	}

	if err := conf.validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

func (c Config) validate() error {
	if c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Pipeline.ChunkSize)
	}
	if c.Pipeline.ChunkOverlap < 0 || c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.Pipeline.ChunkOverlap)
	}
	if c.Pipeline.DedupThreshold < 0 || c.Pipeline.DedupThreshold > 1 {
		return fmt.Errorf("dedup_threshold must be in [0, 1], got %f", c.Pipeline.DedupThreshold)
	}
	if c.Collections.Text == c.Collections.Images {
		return fmt.Errorf("text and images collections must differ")
	}
	return nil
}
