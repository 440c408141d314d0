package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/migrate"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Target kinds.
const (
	TargetSanity = "sanity"
	TargetSQLite = "sqlite"
)

// Config is the migration configuration file.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Target    TargetConfig    `yaml:"target"`
	State     string          `yaml:"state"`
	ReviewDir string          `yaml:"review_dir"`
	Links     LinksConfig     `yaml:"links"`
	Embeds    EmbedsConfig    `yaml:"embeds"`
	Migration MigrationConfig `yaml:"migration"`
	Variants  []VariantConfig `yaml:"variants"`
}

// SourceConfig locates the WordPress site.
type SourceConfig struct {
	URL string `yaml:"url"`

	// Hosts are additional host names of the old site. The host of URL is
	// always included.
	Hosts []string `yaml:"hosts"`
}

// TargetConfig locates the content store documents are committed to.
type TargetConfig struct {
	Kind    string `yaml:"kind"`
	URL     string `yaml:"url"`
	Dataset string `yaml:"dataset"`
	Path    string `yaml:"path"`
}

// LinksConfig tunes link remapping.
type LinksConfig struct {
	KnownPrefixes   []string `yaml:"known_prefixes"`
	RemovedPrefixes []string `yaml:"removed_prefixes"`
	MatchThreshold  float64  `yaml:"match_threshold"`
	MinWordLength   int      `yaml:"min_word_length"`
}

// EmbedsConfig adds embed patterns to the built-in ones.
type EmbedsConfig struct {
	Patterns []string `yaml:"patterns"`
}

// MigrationConfig tunes batching, concurrency and pacing.
type MigrationConfig struct {
	BatchSize   int             `yaml:"batch_size"`
	Concurrency int             `yaml:"concurrency"`
	PerPage     int             `yaml:"per_page"`
	WriteDelay  time.Duration   `yaml:"write_delay"`
	RetryDelays []time.Duration `yaml:"retry_delays"`
	Timeout     time.Duration   `yaml:"timeout"`
}

// VariantConfig is one kind of content to migrate.
type VariantConfig struct {
	Name         string `yaml:"name"`
	SourceType   string `yaml:"source_type"`
	DocumentType string `yaml:"document_type"`
	Status       string `yaml:"status"`
	Locale       string `yaml:"locale"`
	PathTemplate string `yaml:"path_template"`
	Placeholder  string `yaml:"placeholder"`
}

// DefaultConfig returns a configuration with every optional value set.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Kind:    TargetSQLite,
			Dataset: "production",
			Path:    "target.db",
		},
		State:     "wpmigrate.db",
		ReviewDir: "review",
		Links: LinksConfig{
			RemovedPrefixes: []string{"/tag", "/author", "/wp-admin", "/wp-login.php", "/feed"},
			MatchThreshold:  wpmigrate.DefaultMatchThreshold,
			MinWordLength:   wpmigrate.DefaultMinWordLength,
		},
		Migration: MigrationConfig{
			BatchSize:   migrate.DefaultBatchSize,
			Concurrency: migrate.DefaultConcurrency,
			PerPage:     migrate.DefaultPerPage,
			WriteDelay:  200 * time.Millisecond,
			RetryDelays: migrate.DefaultRetryDelays(),
			Timeout:     30 * time.Second,
		},
	}
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "failed to parse config: %v", err)
	}

	for i := range cfg.Variants {
		v := &cfg.Variants[i]
		if v.Status == "" {
			v.Status = migrate.StatusPublish
		}
		if v.Name == "" {
			v.Name = v.SourceType
			if v.Status != migrate.StatusPublish {
				v.Name += "-" + v.Status
			}
			if v.Locale != "" {
				v.Name += "-" + v.Locale
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, wpmigrate.Errorf(wpmigrate.EINVALID, "invalid config: %v", err)
	}
	return cfg, nil
}

var pathPrefix = regexp.MustCompile(`^/`)

// Validate returns an error if the configuration cannot drive a run.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source),
		validation.Field(&c.Target),
		validation.Field(&c.State, validation.Required),
		validation.Field(&c.ReviewDir, validation.Required),
		validation.Field(&c.Links),
		validation.Field(&c.Embeds),
		validation.Field(&c.Migration),
		validation.Field(&c.Variants, validation.Required, validation.By(uniqueVariantNames)),
	)
}

// Validate implements validation.Validatable.
func (c SourceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, validation.By(absoluteURL)),
	)
}

// Validate implements validation.Validatable.
func (c TargetConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Kind, validation.Required, validation.In(TargetSanity, TargetSQLite)),
		validation.Field(&c.URL, validation.When(c.Kind == TargetSanity, validation.Required, validation.By(absoluteURL))),
		validation.Field(&c.Dataset, validation.When(c.Kind == TargetSanity, validation.Required)),
		validation.Field(&c.Path, validation.When(c.Kind == TargetSQLite, validation.Required)),
	)
}

// Validate implements validation.Validatable.
func (c LinksConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.KnownPrefixes, validation.Each(validation.Match(pathPrefix).Error("must start with /"))),
		validation.Field(&c.RemovedPrefixes, validation.Each(validation.Match(pathPrefix).Error("must start with /"))),
		validation.Field(&c.MatchThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinWordLength, validation.Min(1)),
	)
}

// Validate implements validation.Validatable.
func (c EmbedsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Patterns, validation.Each(validation.By(compiles))),
	)
}

// Validate implements validation.Validatable.
func (c MigrationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BatchSize, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(64)),
		validation.Field(&c.PerPage, validation.Min(1), validation.Max(100)),
		validation.Field(&c.WriteDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// Validate implements validation.Validatable.
func (c VariantConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.SourceType, validation.Required),
		validation.Field(&c.DocumentType, validation.Required),
		validation.Field(&c.Status, validation.In(migrate.StatusPublish, migrate.StatusDraft)),
		validation.Field(&c.PathTemplate, validation.When(c.PathTemplate != "",
			validation.Match(pathPrefix).Error("must start with /"),
			validation.By(containsSlug),
		)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func compiles(value any) error {
	s, _ := value.(string)
	if _, err := regexp.Compile(caseInsensitive(s)); err != nil {
		return fmt.Errorf("invalid pattern: %v", err)
	}
	return nil
}

func caseInsensitive(pattern string) string {
	if strings.HasPrefix(pattern, "(?i)") {
		return pattern
	}
	return "(?i)" + pattern
}

func containsSlug(value any) error {
	s, _ := value.(string)
	if !strings.Contains(s, "{slug}") {
		return errors.New("must contain {slug}")
	}
	return nil
}

func uniqueVariantNames(value any) error {
	variants, _ := value.([]VariantConfig)
	seen := make(map[string]bool)
	for _, v := range variants {
		if seen[v.Name] {
			return fmt.Errorf("duplicate variant name %q", v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// SourceHosts returns the old site's host names.
func (c *Config) SourceHosts() []string {
	hosts := append([]string(nil), c.Source.Hosts...)
	if u, err := url.Parse(c.Source.URL); err == nil && u.Hostname() != "" {
		hosts = append(hosts, u.Hostname())
	}
	return hosts
}

// MigrateVariants converts the configured variants.
func (c *Config) MigrateVariants() []migrate.Variant {
	out := make([]migrate.Variant, len(c.Variants))
	for i, v := range c.Variants {
		out[i] = migrate.Variant{
			Name:         v.Name,
			SourceType:   v.SourceType,
			DocumentType: v.DocumentType,
			Status:       v.Status,
			Locale:       v.Locale,
			PathTemplate: v.PathTemplate,
			Placeholder:  v.Placeholder,
		}
	}
	return out
}

// EmbedDetector returns a detector for the built-in patterns plus the
// configured ones. Configured patterns match case-insensitively, like the
// built-in ones.
func (c *Config) EmbedDetector() *wpmigrate.EmbedDetector {
	patterns := append([]*regexp.Regexp(nil), wpmigrate.DefaultEmbedPatterns...)
	for _, p := range c.Embeds.Patterns {
		patterns = append(patterns, regexp.MustCompile(caseInsensitive(p)))
	}
	return wpmigrate.NewEmbedDetector(patterns...)
}

// LinkRemapper returns the remapper template shared by every variant.
func (c *Config) LinkRemapper() wpmigrate.LinkRemapper {
	return wpmigrate.LinkRemapper{
		Hosts:           c.SourceHosts(),
		KnownPrefixes:   c.Links.KnownPrefixes,
		RemovedPrefixes: c.Links.RemovedPrefixes,
		Matcher: &wpmigrate.SlugMatcher{
			Threshold:     c.Links.MatchThreshold,
			MinWordLength: c.Links.MinWordLength,
		},
	}
}
