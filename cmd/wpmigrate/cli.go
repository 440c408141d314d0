package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/migrate"
	"github.com/fwojciec/wpmigrate/sqlite"
)

// Runner runs a migration.
type Runner interface {
	Run(ctx context.Context, progress migrate.ProgressFunc) (*migrate.Summary, error)
}

// StatusReader reports persisted migration state.
type StatusReader interface {
	Runs(ctx context.Context) ([]sqlite.RunSummary, error)
	AssetCount(ctx context.Context) (int, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Config

	Migrator  Runner
	Status    StatusReader
	Converter wpmigrate.BlockConverter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" default:"wpmigrate.yaml" type:"path" help:"Configuration file"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Run     RunCmd     `cmd:"" help:"Migrate content from WordPress to the target store"`
	Status  StatusCmd  `cmd:"" help:"Show checkpoint and asset map progress"`
	Convert ConvertCmd `cmd:"" help:"Convert a local HTML file and print the blocks"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	DryRun     bool   `name:"dry-run" help:"Convert and report without writing to the target or saving state"`
	PreviewDir string `name:"preview-dir" type:"path" help:"Write converted documents to this directory"`

	SourceUser     string `name:"source-user" env:"WPMIGRATE_SOURCE_USER" help:"WordPress user name"`
	SourcePassword string `name:"source-password" env:"WPMIGRATE_SOURCE_PASSWORD" help:"WordPress application password"`
	TargetToken    string `name:"target-token" env:"WPMIGRATE_TARGET_TOKEN" help:"Target API token"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// ConvertCmd is the "convert" subcommand.
type ConvertCmd struct {
	File string `arg:"" type:"existingfile" help:"HTML file to convert"`
	JSON bool   `help:"Print blocks as JSON"`
	ID   string `default:"local" help:"Source ID used in review findings"`
}
