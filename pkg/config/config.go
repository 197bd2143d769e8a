// Package config loads the basket job configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"

	"github.com/dd0wney/cluso-basket/pkg/facets"
	"github.com/dd0wney/cluso-basket/pkg/logging"
	"github.com/dd0wney/cluso-basket/pkg/mining"
	"github.com/dd0wney/cluso-basket/pkg/parallel"
	"github.com/dd0wney/cluso-basket/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvLogLevel  = "LOG_LEVEL"
	EnvWorkers   = "BASKET_WORKERS"
	EnvOutputDir = "BASKET_OUTPUT_DIR"
)

// Config is a complete job description.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`

	Workers     int    `yaml:"workers"`
	ShardSize   int    `yaml:"shard_size"`
	LogLevel    string `yaml:"log_level"`
	MetricsFile string `yaml:"metrics_file"`

	HighValueThreshold float64                  `yaml:"high_value_threshold"`
	Vocabulary         VocabularyConfig         `yaml:"vocabulary"`
	Facets             map[string]FacetOverride `yaml:"facets"`
}

// InputConfig selects the fact source: a CSV file or a PostgreSQL query.
type InputConfig struct {
	CSV         string `yaml:"csv"`
	PostgresURL string `yaml:"postgres_url"`
	Query       string `yaml:"query"`
}

// OutputConfig selects where result tables go. S3 is used when a bucket is set.
type OutputConfig struct {
	Dir      string   `yaml:"dir"`
	Compress bool     `yaml:"compress"`
	S3       S3Config `yaml:"s3"`
}

// S3Config locates the S3 result prefix. Credentials come from the
// standard AWS environment.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// VocabularyConfig holds the data-set specific labels.
type VocabularyConfig struct {
	Electronics    []string `yaml:"electronics"`
	RefundStatuses []string `yaml:"refund_statuses"`
}

// FacetOverride changes one default facet. Unset fields keep the default.
type FacetOverride struct {
	Enabled      *bool    `yaml:"enabled"`
	MinSupport   *float64 `yaml:"min_support"`
	Metric       string   `yaml:"metric"`
	MinThreshold *float64 `yaml:"min_threshold"`
	MaxLen       *int     `yaml:"max_len"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	vocab := facets.DefaultVocabulary()
	return &Config{
		Output:             OutputConfig{Dir: "result"},
		Workers:            runtime.NumCPU(),
		ShardSize:          4096,
		LogLevel:           "info",
		HighValueThreshold: facets.DefaultHighValueThreshold,
		Vocabulary: VocabularyConfig{
			Electronics:    vocab.Electronics,
			RefundStatuses: vocab.RefundStatuses,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path means defaults plus environment. The result is not validated,
// so callers can apply flags first.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

var logLevels = []string{"debug", "info", "warn", "warning", "error", "DEBUG", "INFO", "WARN", "WARNING", "ERROR"}

var facetNames = []string{
	facets.FacetCategories, facets.FacetElectronics,
	facets.FacetPaymentCategory, facets.FacetRefundPatterns,
}

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config")
	cv.Custom("Input", func() error {
		if c.Input.CSV == "" && c.Input.PostgresURL == "" {
			return fmt.Errorf("one of csv or postgres_url is required")
		}
		return nil
	})
	cv.Required("Output.Dir", c.Output.Dir).
		RangeInt("Workers", c.Workers, 1, parallel.MaxWorkers).
		Positive("ShardSize", c.ShardSize).
		OneOf("LogLevel", c.LogLevel, logLevels).
		NonNegativeFloat("HighValueThreshold", c.HighValueThreshold)

	names := make([]string, 0, len(c.Facets))
	for name := range c.Facets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cv.Custom("Facets."+name, func() error {
			if !slices.Contains(facetNames, name) {
				return fmt.Errorf("%w: %s", facets.ErrUnknownFacet, name)
			}
			return nil
		})
		if maxLen := c.Facets[name].MaxLen; maxLen != nil {
			cv.NonNegative("Facets."+name+".MaxLen", *maxLen)
		}
	}

	cv.Custom("Facets", func() error {
		_, err := c.FacetConfigs()
		return err
	})
	cv.When(c.enabled(facets.FacetRefundPatterns), func(v *validation.ConfigValidator) {
		v.NotEmpty("Vocabulary.RefundStatuses", c.Vocabulary.RefundStatuses)
	})
	cv.When(c.enabled(facets.FacetElectronics), func(v *validation.ConfigValidator) {
		v.NotEmpty("Vocabulary.Electronics", c.Vocabulary.Electronics)
	})
	return cv.Validate()
}

func (c *Config) enabled(name string) bool {
	o, ok := c.Facets[name]
	return !ok || o.Enabled == nil || *o.Enabled
}

// FacetConfigs returns the enabled default facets with overrides applied.
// Each is validated, and a derived facet whose source is disabled is an
// error.
func (c *Config) FacetConfigs() ([]facets.FacetConfig, error) {
	defaults := facets.DefaultFacets(facets.Vocabulary{
		Electronics:    c.Vocabulary.Electronics,
		RefundStatuses: c.Vocabulary.RefundStatuses,
	})

	var out []facets.FacetConfig
	for _, fc := range defaults {
		if !c.enabled(fc.Name) {
			continue
		}
		if o, ok := c.Facets[fc.Name]; ok {
			if o.MinSupport != nil {
				fc.MinSupport = *o.MinSupport
			}
			if o.Metric != "" {
				fc.Metric = mining.Metric(o.Metric)
			}
			if o.MinThreshold != nil {
				fc.MinThreshold = *o.MinThreshold
			}
			if o.MaxLen != nil {
				fc.MaxLen = *o.MaxLen
			}
		}
		if err := fc.Validate(); err != nil {
			return nil, err
		}
		if fc.Derived() && !c.enabled(fc.Source) {
			return nil, fmt.Errorf("%w: %s needs %s", facets.ErrMissingSource, fc.Name, fc.Source)
		}
		out = append(out, fc)
	}
	return out, nil
}

// Job builds the facet job.
func (c *Config) Job() (facets.Job, error) {
	fcs, err := c.FacetConfigs()
	if err != nil {
		return facets.Job{}, err
	}
	return facets.Job{Facets: fcs, HighValueThreshold: c.HighValueThreshold}, nil
}
