package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/wpmigrate"
	main "github.com/fwojciec/wpmigrate/cmd/wpmigrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
source:
  url: https://old.example.com
variants:
  - source_type: posts
    document_type: post
`

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.ParseConfig([]byte(minimalConfig))
		require.NoError(t, err)

		assert.Equal(t, main.TargetSQLite, cfg.Target.Kind)
		assert.Equal(t, "wpmigrate.db", cfg.State)
		assert.Equal(t, 10, cfg.Migration.BatchSize)
		assert.Equal(t, 4, cfg.Migration.Concurrency)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, cfg.Migration.RetryDelays)
		assert.Equal(t, wpmigrate.DefaultMatchThreshold, cfg.Links.MatchThreshold)

		require.Len(t, cfg.Variants, 1)
		assert.Equal(t, "posts", cfg.Variants[0].Name)
		assert.Equal(t, "publish", cfg.Variants[0].Status)
	})

	t.Run("decodes full configuration", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.ParseConfig([]byte(`
source:
  url: https://old.example.com
  hosts: [blog.example.com]
target:
  kind: sanity
  url: https://abc.api.sanity.io/v2021-06-07
  dataset: staging
links:
  known_prefixes: [/contact]
  match_threshold: 0.6
embeds:
  patterns: ['(?i)<div class="gist"']
migration:
  write_delay: 500ms
  retry_delays: [100ms, 1s]
variants:
  - source_type: posts
    document_type: post
    path_template: /blog/{slug}
  - source_type: posts
    document_type: post
    status: draft
  - source_type: posts
    document_type: post
    locale: de
    path_template: /de/blog/{slug}
`))
		require.NoError(t, err)

		assert.Equal(t, "staging", cfg.Target.Dataset)
		assert.Equal(t, 500*time.Millisecond, cfg.Migration.WriteDelay)
		assert.Equal(t, []time.Duration{100 * time.Millisecond, time.Second}, cfg.Migration.RetryDelays)
		assert.Equal(t, []string{"blog.example.com", "old.example.com"}, cfg.SourceHosts())

		variants := cfg.MigrateVariants()
		require.Len(t, variants, 3)
		assert.Equal(t, "posts", variants[0].Name)
		assert.Equal(t, "posts-draft", variants[1].Name)
		assert.Equal(t, "posts-de", variants[2].Name)
		assert.Equal(t, "/de/blog/hallo", variants[2].Path("hallo"))

		assert.True(t, cfg.EmbedDetector().IsEmbed(`<div class="gist">`))

		links := cfg.LinkRemapper()
		assert.Equal(t, 0.6, links.Matcher.Threshold)
		assert.Equal(t, []string{"/contact"}, links.KnownPrefixes)
	})

	t.Run("matches configured embed patterns regardless of case", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.ParseConfig([]byte(minimalConfig + "embeds:\n  patterns: ['<div class=\"gist\"', '(?i)<amp-ad']\n"))
		require.NoError(t, err)

		detector := cfg.EmbedDetector()
		assert.True(t, detector.IsEmbed(`<DIV class="gist">`))
		assert.True(t, detector.IsEmbed(`<div class="gist">`))
		assert.True(t, detector.IsEmbed(`<AMP-AD type="x">`))
		assert.False(t, detector.IsEmbed(`<div class="note">`))
	})

	t.Run("accepts a local target when the path is set", func(t *testing.T) {
		t.Parallel()

		_, err := main.ParseConfig([]byte(minimalConfig + "target:\n  kind: sqlite\n  path: out.db\n"))
		require.NoError(t, err)
	})

	invalid := []struct {
		name string
		yaml string
	}{
		{"missing source URL", "variants:\n  - source_type: posts\n    document_type: post\n"},
		{"relative source URL", "source:\n  url: old.example.com\nvariants:\n  - source_type: posts\n    document_type: post\n"},
		{"no variants", "source:\n  url: https://old.example.com\n"},
		{"variant without document type", "source:\n  url: https://old.example.com\nvariants:\n  - source_type: posts\n"},
		{"unknown status", minimalConfig + "    status: private\n"},
		{"path template without slug", minimalConfig + "    path_template: /blog\n"},
		{"duplicate variant names", minimalConfig + "  - source_type: posts\n    document_type: post\n"},
		{"sanity target without URL", minimalConfig + "target:\n  kind: sanity\n"},
		{"unknown target kind", minimalConfig + "target:\n  kind: ftp\n"},
		{"threshold above one", minimalConfig + "links:\n  match_threshold: 1.5\n"},
		{"prefix without slash", minimalConfig + "links:\n  removed_prefixes: [tag]\n"},
		{"invalid embed pattern", minimalConfig + "embeds:\n  patterns: ['(']\n"},
		{"unknown key", minimalConfig + "colour: blue\n"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := main.ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, wpmigrate.EINVALID, wpmigrate.ErrorCode(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "wpmigrate.yaml")
		require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0644))

		cfg, err := main.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "https://old.example.com", cfg.Source.URL)
	})

	t.Run("reports missing file", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
