// Package config loads index build configuration from YAML or TOML files
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wizenheimer/blazeindex"
)

// Config is the top-level build configuration.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer" toml:"analyzer"`
	Indexer  IndexerConfig  `yaml:"indexer" toml:"indexer"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// AnalyzerConfig controls the text analysis pipeline.
type AnalyzerConfig struct {
	StopWords     bool   `yaml:"stopWords" toml:"stopWords"`
	Stemmer       string `yaml:"stemmer" toml:"stemmer"`
	MinStemLength int    `yaml:"minStemLength" toml:"minStemLength"`
	Compose       bool   `yaml:"compose" toml:"compose"`
}

// IndexerConfig controls parallelism and what gets indexed.
type IndexerConfig struct {
	Workers     int  `yaml:"workers" toml:"workers"`
	BatchSize   int  `yaml:"batchSize" toml:"batchSize"`
	IndexTitles bool `yaml:"indexTitles" toml:"indexTitles"`
	Positions   bool `yaml:"positions" toml:"positions"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig names the node_exporter textfile build metrics are written
// to. An empty path disables metrics.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// Load reads a config file (if provided) and applies environment-variable
// overrides. Files ending in .toml are parsed as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	def := blazeindex.DefaultConfig()
	return &Config{
		Analyzer: AnalyzerConfig{
			StopWords:     def.EnableStopwords,
			Stemmer:       string(def.Stemmer),
			MinStemLength: def.MinStemLength,
			Compose:       def.ComposeUnicode,
		},
		Indexer: IndexerConfig{
			Workers:   1,
			BatchSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks values Load cannot repair.
func (c *Config) Validate() error {
	if err := c.AnalyzerConfig().Validate(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if c.Indexer.Workers < 0 {
		return fmt.Errorf("indexer: negative worker count %d", c.Indexer.Workers)
	}
	if c.Indexer.BatchSize < 0 {
		return fmt.Errorf("indexer: negative batch size %d", c.Indexer.BatchSize)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging: unknown format %q", c.Logging.Format)
	}
	return nil
}

// AnalyzerConfig converts the analyzer section for the library.
func (c *Config) AnalyzerConfig() blazeindex.AnalyzerConfig {
	return blazeindex.AnalyzerConfig{
		EnableStopwords: c.Analyzer.StopWords,
		Stemmer:         blazeindex.StemmerKind(c.Analyzer.Stemmer),
		MinStemLength:   c.Analyzer.MinStemLength,
		ComposeUnicode:  c.Analyzer.Compose,
	}
}

// IndexerOptions converts the analyzer and indexer sections for the library.
func (c *Config) IndexerOptions() []blazeindex.IndexerOption {
	return []blazeindex.IndexerOption{
		blazeindex.WithAnalyzerConfig(c.AnalyzerConfig()),
		blazeindex.WithWorkers(c.Indexer.Workers),
		blazeindex.WithBatchSize(c.Indexer.BatchSize),
		blazeindex.WithTitleIndexing(c.Indexer.IndexTitles),
		blazeindex.WithPositions(c.Indexer.Positions),
	}
}

// applyEnvOverrides reads BLAZE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envBool("BLAZE_ANALYZER_STOPWORDS"); ok {
		cfg.Analyzer.StopWords = v
	}
	if v := os.Getenv("BLAZE_ANALYZER_STEMMER"); v != "" {
		cfg.Analyzer.Stemmer = v
	}
	if v, ok := envInt("BLAZE_ANALYZER_MIN_STEM_LENGTH"); ok {
		cfg.Analyzer.MinStemLength = v
	}
	if v, ok := envBool("BLAZE_ANALYZER_COMPOSE"); ok {
		cfg.Analyzer.Compose = v
	}
	if v, ok := envInt("BLAZE_INDEXER_WORKERS"); ok {
		cfg.Indexer.Workers = v
	}
	if v, ok := envInt("BLAZE_INDEXER_BATCH_SIZE"); ok {
		cfg.Indexer.BatchSize = v
	}
	if v, ok := envBool("BLAZE_INDEXER_INDEX_TITLES"); ok {
		cfg.Indexer.IndexTitles = v
	}
	if v, ok := envBool("BLAZE_INDEXER_POSITIONS"); ok {
		cfg.Indexer.Positions = v
	}
	if v := os.Getenv("BLAZE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BLAZE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("BLAZE_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}

func envInt(key string) (int, bool) {
	v, err := strconv.Atoi(os.Getenv(key))
	return v, err == nil
}

func envBool(key string) (bool, bool) {
	v, err := strconv.ParseBool(os.Getenv(key))
	return v, err == nil
}
