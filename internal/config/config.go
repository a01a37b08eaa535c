// Package config loads and defaults the engine's single configuration
// tree. Configuration is enumerated, not free-form (spec.md §6): every
// option below has a documented effect and a sane default so the engine
// runs unconfigured. Adapted from the teacher's internal/config layout —
// one Config struct of nested sub-configs plus DefaultConfig().
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CacheConfig controls Content Cache eviction (spec.md §4.A).
type CacheConfig struct {
	AnalysisVersion string `yaml:"analysisVersion"`
	MaxEntries      int    `yaml:"maxEntries"`
	MaxSizeBytes    int64  `yaml:"maxSizeBytes"`
	TTLMs           int64  `yaml:"ttlMs"`
}

// StalenessConfig controls durability classification (spec.md §4.C).
type StalenessConfig struct {
	VolatileThresholdMinutes int      `yaml:"volatileThresholdMinutes"`
	StableThresholdHours     int      `yaml:"stableThresholdHours"`
	ImmutablePatterns        []string `yaml:"immutablePatterns"`
}

// PipelineConfig controls the indexing pipeline's worker pool (spec.md §4.D).
type PipelineConfig struct {
	MaxConcurrentWorkers int `yaml:"maxConcurrentWorkers"`
}

// SessionConfig controls the session manager (spec.md §4.H).
type SessionConfig struct {
	SessionTTLMs      int64 `yaml:"sessionTtlMs"`
	MaxSessions       int   `yaml:"maxSessions"`
	MaxPacksPerSession int  `yaml:"maxPacksPerSession"`
}

// WeightsConfig controls the unified importance profile (spec.md §4.F).
type WeightsConfig struct {
	Code        float64 `yaml:"code"`
	Rationale   float64 `yaml:"rationale"`
	Epistemic   float64 `yaml:"epistemic"`
	Org         float64 `yaml:"org"`
	CrossGraph  float64 `yaml:"crossGraph"`
}

// ThresholdsConfig gates the importance flags (spec.md §4.F).
type ThresholdsConfig struct {
	LoadBearing     float64 `yaml:"loadBearing"`
	Foundational    float64 `yaml:"foundational"`
	AtRisk          float64 `yaml:"atRisk"`
	NeedsValidation float64 `yaml:"needsValidation"`
	TruckFactor     float64 `yaml:"truckFactor"`
	Hotspot         float64 `yaml:"hotspot"`
}

// RetrievalConfig controls the hybrid score (spec.md §4.G).
type RetrievalConfig struct {
	SemanticWeight   float64 `yaml:"semanticWeight"`
	KeywordWeight    float64 `yaml:"keywordWeight"`
	StructuralWeight float64 `yaml:"structuralWeight"`
}

// TargetsConfig gates retrieval-quality compliance (spec.md §6).
type TargetsConfig struct {
	RecallAt5 float64 `yaml:"recallAt5"`
	NDCGAt5   float64 `yaml:"ndcgAt5"`
	MRR       float64 `yaml:"mrr"`
}

// LoggingConfig controls the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debugMode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"jsonFormat"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// Config is the engine's single configuration tree.
type Config struct {
	Cache      CacheConfig      `yaml:"cache"`
	Staleness  StalenessConfig  `yaml:"staleness"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Session    SessionConfig    `yaml:"session"`
	Weights    WeightsConfig    `yaml:"weights"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Targets    TargetsConfig    `yaml:"targets"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DefaultConfig returns the engine's defaults, matching the numbers
// enumerated in spec.md §4 and §6.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			AnalysisVersion: "v1",
			MaxEntries:      10000,
			MaxSizeBytes:    100 * 1024 * 1024,
			TTLMs:           0,
		},
		Staleness: StalenessConfig{
			VolatileThresholdMinutes: 30,
			StableThresholdHours:     24,
			ImmutablePatterns: []string{
				"node_modules", ".git", "vendor", "dist", "build",
				"*.lock", "package-lock.json", "yarn.lock", "go.sum",
				"__pycache__", ".mypy_cache", ".pytest_cache",
			},
		},
		Pipeline: PipelineConfig{
			MaxConcurrentWorkers: 8,
		},
		Session: SessionConfig{
			SessionTTLMs:       30 * 60 * 1000,
			MaxSessions:        100,
			MaxPacksPerSession: 50,
		},
		Weights: WeightsConfig{
			Code:       0.30,
			Rationale:  0.20,
			Epistemic:  0.25,
			Org:        0.10,
			CrossGraph: 0.15,
		},
		Thresholds: ThresholdsConfig{
			LoadBearing:     0.70,
			Foundational:    0.75,
			AtRisk:          0.65,
			NeedsValidation: 0.50,
			TruckFactor:     0.80,
			Hotspot:         0.60,
		},
		Retrieval: RetrievalConfig{
			SemanticWeight:   0.60,
			KeywordWeight:    0.30,
			StructuralWeight: 0.10,
		},
		Targets: TargetsConfig{
			RecallAt5: 0.70,
			NDCGAt5:   0.60,
			MRR:       0.50,
		},
		Logging: LoggingConfig{
			DebugMode:  false,
			Level:      "info",
			JSONFormat: false,
		},
	}
}

// Load reads a YAML config file at path and overlays it onto DefaultConfig.
// A missing file is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configuration combinations the engine cannot run with.
// Invalid configuration is fatal at init per spec.md §7.
func (c Config) Validate() error {
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.maxEntries must be positive")
	}
	if c.Pipeline.MaxConcurrentWorkers <= 0 {
		return fmt.Errorf("pipeline.maxConcurrentWorkers must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.maxSessions must be positive")
	}
	sum := c.Weights.Code + c.Weights.Rationale + c.Weights.Epistemic + c.Weights.Org + c.Weights.CrossGraph
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("weights must sum to 1.0, got %f", sum)
	}
	rsum := c.Retrieval.SemanticWeight + c.Retrieval.KeywordWeight + c.Retrieval.StructuralWeight
	if rsum < 0.99 || rsum > 1.01 {
		return fmt.Errorf("retrieval weights must sum to 1.0, got %f", rsum)
	}
	return nil
}
