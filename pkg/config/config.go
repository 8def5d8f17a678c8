// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the retrieval pipeline's tunables from YAML, with
// optional Consul / etcd / Zookeeper backends and environment-variable
// interpolation.
//
// Example config:
//
//	retrieval:
//	  hybrid_alpha: 0.6
//	  multilingual_query_expansion: "en,es,fr"
//	  num_reranked_results: 20
//	  sim_score_range_low: 0.0
//	  sim_score_range_high: 1.0
//	  cross_encoder_range_min: 0
//	  cross_encoder_range_max: 1
//	  asym_query_prefix: "query: "
//
//	logger:
//	  level: info
//	  format: simple
package config

import "fmt"

// Config is the root configuration structure for the retrieval pipeline.
type Config struct {
	// Retrieval configures ScoreMath, QueryExpander, Reranker, and Pipeline
	// tunables.
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`

	// Logger configures logging behavior.
	Logger *LoggerConfig `yaml:"logger,omitempty"`
}

// RetrievalConfig holds the knobs named in the external interface contract:
// weights and ranges threaded through RetrievalDispatcher, Reranker, and
// ScoreMath.
type RetrievalConfig struct {
	// HybridAlpha weights semantic vs. lexical scoring in hybrid retrieval.
	// Passed through verbatim to DocumentIndex.HybridRetrieval.
	HybridAlpha float64 `yaml:"hybrid_alpha,omitempty"`

	// MultilingualQueryExpansion is a language spec (e.g. "en,es,fr"). A
	// non-empty value enables query expansion; empty disables it entirely.
	// The pipeline only checks whether it is set: the languages it lists are
	// not passed to the LLMRephraser.
	MultilingualQueryExpansion string `yaml:"multilingual_query_expansion,omitempty"`

	// NumRerankedResults is apply_boost's norm_cutoff on the no-rerank path.
	// How many top chunks the reranker scores comes from
	// SearchQuery.NumRerank, not from this field.
	NumRerankedResults int `yaml:"num_reranked_results,omitempty"`

	// SimScoreRangeLow / SimScoreRangeHigh floor and ceiling the
	// normalization window used by apply_boost.
	SimScoreRangeLow  float64 `yaml:"sim_score_range_low"`
	SimScoreRangeHigh float64 `yaml:"sim_score_range_high,omitempty"`

	// CrossEncoderRangeMin / CrossEncoderRangeMax are the default target
	// range for rerank score normalization.
	CrossEncoderRangeMin float64 `yaml:"cross_encoder_range_min"`
	CrossEncoderRangeMax float64 `yaml:"cross_encoder_range_max,omitempty"`

	// AsymQueryPrefix is prepended to queries before embedding for
	// asymmetric embedding models.
	AsymQueryPrefix string `yaml:"asym_query_prefix,omitempty"`

	// MaxMetricsContent bounds the content prefix recorded in ChunkMetric.
	MaxMetricsContent int `yaml:"max_metrics_content,omitempty"`

	// MaxLLMFilterChunks bounds how many chunks are handed to the
	// RelevanceFilter's LLM judge.
	MaxLLMFilterChunks int `yaml:"max_llm_filter_chunks,omitempty"`

	// MultiQueryCount bounds how many distinct queries QueryExpander will
	// fan out retrieval across, the original query included.
	MultiQueryCount int `yaml:"multi_query_count,omitempty"`

	// WorkerPoolSize bounds concurrent fan-out retrieval across rephrased
	// queries. Zero means the pipeline picks a sensible default.
	WorkerPoolSize int `yaml:"worker_pool_size,omitempty"`
}

// SetDefaults applies default values matching the historical tuning of the
// system this pipeline reimplements.
func (c *RetrievalConfig) SetDefaults() {
	if c.HybridAlpha <= 0 {
		c.HybridAlpha = 0.5
	}
	if c.NumRerankedResults <= 0 {
		c.NumRerankedResults = 20
	}
	if c.SimScoreRangeHigh <= 0 {
		c.SimScoreRangeHigh = 1.0
	}
	if c.CrossEncoderRangeMax <= 0 {
		c.CrossEncoderRangeMax = 1.0
	}
	if c.MaxMetricsContent <= 0 {
		c.MaxMetricsContent = 400
	}
	if c.MaxLLMFilterChunks <= 0 {
		c.MaxLLMFilterChunks = 20
	}
	if c.MultiQueryCount <= 0 {
		c.MultiQueryCount = 3
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 8
	}
}

// Validate checks the configuration for errors.
func (c *RetrievalConfig) Validate() error {
	if c.HybridAlpha < 0 || c.HybridAlpha > 1 {
		return fmt.Errorf("hybrid_alpha must be between 0 and 1")
	}
	if c.NumRerankedResults < 0 {
		return fmt.Errorf("num_reranked_results must be non-negative")
	}
	if c.SimScoreRangeHigh < c.SimScoreRangeLow {
		return fmt.Errorf("sim_score_range_high must be >= sim_score_range_low")
	}
	if c.CrossEncoderRangeMax < c.CrossEncoderRangeMin {
		return fmt.Errorf("cross_encoder_range_max must be >= cross_encoder_range_min")
	}
	if c.MaxMetricsContent < 0 {
		return fmt.Errorf("max_metrics_content must be non-negative")
	}
	if c.MaxLLMFilterChunks < 0 {
		return fmt.Errorf("max_llm_filter_chunks must be non-negative")
	}
	if c.MultiQueryCount < 0 {
		return fmt.Errorf("multi_query_count must be non-negative")
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("worker_pool_size must be non-negative")
	}
	return nil
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "simple", "verbose", or any value slog.TextHandler accepts.
	Format string `yaml:"format,omitempty"`

	// File optionally redirects log output to a file path instead of
	// stderr.
	File string `yaml:"file,omitempty"`
}

// SetDefaults applies default values.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Validate checks the configuration for errors.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	return nil
}

// SetDefaults applies default values across the whole config tree.
func (c *Config) SetDefaults() {
	c.Retrieval.SetDefaults()
	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	c.Logger.SetDefaults()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if c.Logger != nil {
		if err := c.Logger.Validate(); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
	}
	return nil
}
