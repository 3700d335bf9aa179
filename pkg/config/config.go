package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/debtmap-go/debtmap/internal/dataflow"
)

// Config holds the knobs a project can override to retune the debt
// scoring pipeline without recompiling.
type Config struct {
	// File exclusion patterns, layered on top of .gitignore.
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// MaxFileSize skips source files above this size (bytes). 0 means
	// no limit.
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"`

	// Entropy analysis settings (spec §4.5's token-entropy dampening).
	Entropy EntropyConfig `koanf:"entropy" toml:"entropy"`

	// Taint/dataflow unknown-call policy (spec §4.3).
	TaintPolicy TaintPolicyConfig `koanf:"taint_policy" toml:"taint_policy"`

	// God-object thresholds the per-file rollup uses to flag files
	// (spec §4.9).
	GodObject GodObjectConfig `koanf:"god_object" toml:"god_object"`

	// TopNDependents bounds how many dependent functions the coupling
	// classifier reports per file.
	TopNDependents int `koanf:"top_n_dependents" toml:"top_n_dependents"`
}

// EntropyConfig controls the entropy analyzer (spec §4.5).
type EntropyConfig struct {
	Enabled              bool `koanf:"enabled" toml:"enabled"`
	MinTokensForAnalysis int  `koanf:"min_tokens_for_analysis" toml:"min_tokens_for_analysis"`
	NgramN               int  `koanf:"ngram_n" toml:"ngram_n"`
	CacheSize            int  `koanf:"cache_size" toml:"cache_size"`
}

// TaintPolicyConfig controls how the dataflow engine treats calls whose
// purity can't be resolved (spec §4.3).
type TaintPolicyConfig struct {
	// UnknownCallPolicy is "conservative" (unknown calls taint their
	// result) or "optimistic" (unknown calls are treated as pure).
	UnknownCallPolicy string `koanf:"unknown_call_policy" toml:"unknown_call_policy"`
}

// GodObjectConfig tunes the per-file god-object thresholds (spec §4.9).
type GodObjectConfig struct {
	MaxFileLines     int `koanf:"max_file_lines" toml:"max_file_lines"`
	MaxFunctionCount int `koanf:"max_function_count" toml:"max_function_count"`
}

// ExcludeConfig defines file exclusion patterns using gitignore-style syntax.
// All patterns in the Patterns list are parsed as gitignore patterns and combined
// with the repository's .gitignore file (when Gitignore is true).
type ExcludeConfig struct {
	// Patterns uses gitignore syntax for excluding files:
	//   - "*_test.go"     matches any file ending in _test.go
	//   - "vendor/"       matches the vendor directory
	//   - "*.min.js"      matches minified JS files
	//   - "cmd/**/main.go" matches main.go in any subdirectory of cmd
	//   - "!important.go" negates a previous pattern (include the file)
	Patterns []string `koanf:"patterns" toml:"patterns"`

	// Gitignore controls whether to also respect .gitignore files.
	// When true, patterns from .gitignore are combined with Patterns.
	Gitignore bool `koanf:"gitignore" toml:"gitignore"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 10 * 1024 * 1024, // 10 MB default
		Exclude: ExcludeConfig{
			Patterns: []string{
				// Test files
				"*_test.go",
				"*_test.ts",
				"*_test.py",
				"*.spec.ts",
				"*.spec.js",
				"*_spec.rb",
				"**/*_test/**",
				"**/test/**",
				"**/tests/**",
				"**/spec/**",
				// Minified assets
				"*.min.js",
				"*.min.css",
				// Lock files
				"*.lock",
				"go.sum",
				// Vendor directories
				"vendor/",
				"node_modules/",
				"third_party/",
				"external/",
				// Build/output directories
				".git/",
				".debtmap/",
				"dist/",
				"build/",
				"target/",
				"out/",
				"bin/",
				// Python
				"__pycache__/",
				".venv/",
				"venv/",
				"site-packages/",
				// Ruby
				".bundle/",
				"sorbet/",
				// JavaScript/Node
				".yarn/", // Yarn 2+ PnP releases and plugins
				// Coverage/test output
				"coverage/",
				".nyc_output/",
				// Auto-generated code
				"**/mocks/",
				"**/*.gen.go",
				"**/*.generated.go",
				"**/*.pb.go",
				"**/generated/",
				"**/gen/",
				"**/*.auto.ts",
				"**/*.g.dart",
				"*_generated.rb",
				// Schema/migration files (often auto-generated)
				"**/schema.rb",
				"**/structure.sql",
				// IDE/editor directories
				".idea/",
				".vscode/",
				".vs/",
			},
			Gitignore: true,
		},
		Entropy: EntropyConfig{
			Enabled:              true,
			MinTokensForAnalysis: 20,
			NgramN:               3,
			CacheSize:            4096,
		},
		TaintPolicy: TaintPolicyConfig{
			UnknownCallPolicy: "conservative",
		},
		GodObject: GodObjectConfig{
			MaxFileLines:     1000,
			MaxFunctionCount: 50,
		},
		TopNDependents: 5,
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		// Unknown extension: parse as TOML
		parser = toml.Parser()
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path if found, or empty string if not found.
func FindConfigFile() string {
	configNames := []string{
		"debtmap.toml",
		"debtmap.yaml",
		"debtmap.yml",
		"debtmap.json",
	}

	searchDirs := []string{".", ".debtmap"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOption configures how configuration is loaded.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithPath specifies an explicit config file path.
// If the path doesn't exist, an error is returned.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadResult contains the loaded configuration and metadata.
type LoadResult struct {
	Config *Config
	Source string // Path to the config file, empty if using defaults
}

// LoadConfig loads configuration with the provided options.
// If no path is specified, it searches standard locations.
// Returns defaults if no config file is found.
// Always validates the config before returning.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var cfg *Config
	var source string
	var err error

	if o.path != "" {
		if _, statErr := os.Stat(o.path); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config file not found: %s", o.path)
		}
		cfg, err = Load(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", o.path, err)
		}
		source = o.path
	} else {
		source = FindConfigFile()
		if source == "" {
			cfg = DefaultConfig()
		} else {
			cfg, err = Load(source)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", source, err)
			}
		}
	}

	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("config validation failed: %w", validationErr)
	}

	return &LoadResult{Config: cfg, Source: source}, nil
}

// LoadOrDefault loads config from standard locations or returns defaults.
// Returns an error if validation fails.
func LoadOrDefault() (*Config, error) {
	result, err := LoadConfig()
	if err != nil {
		if FindConfigFile() == "" {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return result.Config, nil
}

// ShouldExclude does a basic basename/extension match against the
// configured patterns. It's a cheap pre-filter; the scanner applies
// the full gitignore-style match (directories, globstar, negation).
func (c *Config) ShouldExclude(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		// Skip directory patterns (handled by scanner)
		if strings.HasSuffix(pattern, "/") {
			continue
		}
		// Skip glob patterns with path separators (handled by scanner)
		if strings.Contains(pattern, "/") {
			continue
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// ErrFileTooLarge is returned when a file exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// IsFileTooLarge checks if a file exceeds the configured maximum size.
// Returns true if the file is too large, false otherwise.
// If maxSize is 0, no limit is enforced.
func IsFileTooLarge(size int64, maxSize int64) bool {
	if maxSize <= 0 {
		return false
	}
	return size > maxSize
}

// Validate checks that all config values are within acceptable ranges.
// Returns an error describing any validation failures.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxFileSize < 0 {
		errs = append(errs, errors.New("max_file_size must be non-negative"))
	}

	// Entropy config validation
	if c.Entropy.MinTokensForAnalysis < 1 {
		errs = append(errs, errors.New("entropy.min_tokens_for_analysis must be at least 1"))
	}
	if c.Entropy.NgramN < 1 {
		errs = append(errs, errors.New("entropy.ngram_n must be at least 1"))
	}
	if c.Entropy.CacheSize < 0 {
		errs = append(errs, errors.New("entropy.cache_size must be non-negative"))
	}

	// Taint policy validation
	switch c.TaintPolicy.UnknownCallPolicy {
	case "conservative", "optimistic":
	default:
		errs = append(errs, fmt.Errorf(
			"taint_policy.unknown_call_policy must be \"conservative\" or \"optimistic\", got %q",
			c.TaintPolicy.UnknownCallPolicy,
		))
	}

	// God-object threshold validation
	if c.GodObject.MaxFileLines < 1 {
		errs = append(errs, errors.New("god_object.max_file_lines must be at least 1"))
	}
	if c.GodObject.MaxFunctionCount < 1 {
		errs = append(errs, errors.New("god_object.max_function_count must be at least 1"))
	}

	if c.TopNDependents < 0 {
		errs = append(errs, errors.New("top_n_dependents must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ResolveUnknownCallPolicy maps the string config value to the
// dataflow package's enum type.
func (c *Config) ResolveUnknownCallPolicy() dataflow.UnknownCallPolicy {
	if c.TaintPolicy.UnknownCallPolicy == "optimistic" {
		return dataflow.Optimistic
	}
	return dataflow.Conservative
}
