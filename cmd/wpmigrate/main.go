package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/fs"
	"github.com/fwojciec/wpmigrate/goquery"
	"github.com/fwojciec/wpmigrate/htmltomarkdown"
	wphttp "github.com/fwojciec/wpmigrate/http"
	"github.com/fwojciec/wpmigrate/migrate"
	wpslog "github.com/fwojciec/wpmigrate/slog"
	"github.com/fwojciec/wpmigrate/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	// Credentials may live in a .env file next to the configuration.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite databases holding migration state and, for local targets,
	// the migrated documents.
	DB       *sqlite.DB
	TargetDB *sqlite.DB

	// Services for end-to-end testing. When set, they replace the HTTP clients.
	Source wpmigrate.SourceService
	Media  wpmigrate.MediaService
	Target wpmigrate.TargetStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.TargetDB != nil && m.TargetDB != m.DB {
		errs = append(errs, m.TargetDB.Close())
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("wpmigrate"),
		kong.Description("Migrate WordPress content into a block-based content store"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'wpmigrate --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Convert works without a configuration file.
	if cmd == "convert" {
		cfg, err := LoadConfig(cli.Config)
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = DefaultConfig(), nil
		}
		if err != nil {
			return err
		}
		deps.Config = cfg
		links := cfg.LinkRemapper()
		deps.Converter = goquery.NewConverter(goquery.Config{
			Links:  &links,
			Embeds: cfg.EmbedDetector(),
		})
		return kongCtx.Run(deps)
	}

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Use --config to point at a wpmigrate.yaml file\n")
		return err
	}
	deps.Config = cfg

	// Open state database
	m.DB = sqlite.NewDB(cfg.State)
	if err := m.DB.Open(); err != nil {
		return fmt.Errorf("failed to open state database at %q: %w", cfg.State, err)
	}
	defer m.Close()

	state := sqlite.NewStateStore(m.DB)
	deps.Status = state

	if cmd == "run" {
		migrator, err := m.newMigrator(cfg, &cli.Run, state, deps.Logger)
		if err != nil {
			return err
		}
		deps.Migrator = migrator
	}

	return kongCtx.Run(deps)
}

// newMigrator wires the migration pipeline for the run command.
func (m *Main) newMigrator(cfg *Config, c *RunCmd, state wpmigrate.StateStore, logger *slog.Logger) (*migrate.Migrator, error) {
	client := wphttp.NewSourceClient(cfg.Source.URL,
		wphttp.WithTimeout(cfg.Migration.Timeout),
		wphttp.WithBasicAuth(c.SourceUser, c.SourcePassword),
	)

	source, media := m.Source, m.Media
	if source == nil {
		source = client
	}
	if media == nil {
		media = client
	}

	target, err := m.newTarget(cfg, c)
	if err != nil {
		return nil, err
	}

	migrator := &migrate.Migrator{
		Source:      wpslog.NewLoggingSourceService(source, logger),
		Media:       wpslog.NewLoggingMediaService(media, logger),
		Target:      wpslog.NewLoggingTargetStore(target, logger),
		State:       state,
		Review:      fs.NewReviewLog(cfg.ReviewDir),
		Excerpts:    htmltomarkdown.NewConverter(),
		Extractor:   goquery.NewExtractor(),
		Limiter:     migrate.NewWriteLimiter(cfg.Migration.WriteDelay),
		Converters:  converterFunc(cfg.EmbedDetector()),
		Links:       cfg.LinkRemapper(),
		Variants:    cfg.MigrateVariants(),
		BatchSize:   cfg.Migration.BatchSize,
		Concurrency: cfg.Migration.Concurrency,
		PerPage:     cfg.Migration.PerPage,
		RetryDelays: cfg.Migration.RetryDelays,
		DryRun:      c.DryRun,
		Logger:      logger,
	}
	if c.PreviewDir != "" {
		migrator.Preview = fs.NewWriter(c.PreviewDir)
	}
	return migrator, nil
}

// newTarget returns the configured target store.
func (m *Main) newTarget(cfg *Config, c *RunCmd) (wpmigrate.TargetStore, error) {
	if m.Target != nil {
		return m.Target, nil
	}

	switch cfg.Target.Kind {
	case TargetSanity:
		if c.TargetToken == "" && !c.DryRun {
			return nil, wpmigrate.Errorf(wpmigrate.EUNAUTHORIZED, "target token required: set WPMIGRATE_TARGET_TOKEN")
		}
		return wphttp.NewTargetClient(cfg.Target.URL, cfg.Target.Dataset,
			wphttp.WithTimeout(cfg.Migration.Timeout),
			wphttp.WithToken(c.TargetToken),
		), nil
	default:
		if cfg.Target.Path == cfg.State {
			m.TargetDB = m.DB
		} else {
			m.TargetDB = sqlite.NewDB(cfg.Target.Path)
			if err := m.TargetDB.Open(); err != nil {
				return nil, fmt.Errorf("failed to open target database at %q: %w", cfg.Target.Path, err)
			}
		}
		return sqlite.NewDocumentStore(m.TargetDB), nil
	}
}

// converterFunc builds a block converter per variant.
func converterFunc(embeds *wpmigrate.EmbedDetector) migrate.ConverterFunc {
	return func(v migrate.Variant, assets wpmigrate.AssetResolver, links *wpmigrate.LinkRemapper) wpmigrate.BlockConverter {
		return goquery.NewConverter(goquery.Config{
			Assets:      assets,
			Links:       links,
			Embeds:      embeds,
			Placeholder: v.Placeholder,
		})
	}
}
