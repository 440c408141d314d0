package main

import (
	"fmt"

	"github.com/fwojciec/wpmigrate"
	"github.com/fwojciec/wpmigrate/migrate"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	mode := "live"
	if c.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(deps.Stdout, "Migrating %d variant(s) (%s)\n", len(deps.Config.Variants), mode)

	var variant string
	progress := func(event migrate.ProgressEvent) {
		switch {
		case event.Phase == migrate.PhaseFetching:
			fmt.Fprintln(deps.Stdout, "  Fetching records")
		case event.Error != nil:
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", event.SourceID, wpmigrate.ErrorMessage(event.Error))
		case event.Phase == migrate.PhaseCommitting:
			if event.Variant != variant {
				variant = event.Variant
				fmt.Fprintf(deps.Stdout, "  Migrating %s (%d pending)\n", event.Variant, event.Total)
			}
			fmt.Fprintf(deps.Stdout, "  [%d/%d] %s\n", event.Completed, event.Total, event.SourceID)
		}
	}

	summary, err := deps.Migrator.Run(deps.Ctx, progress)
	if summary != nil {
		printSummary(deps, summary, c.DryRun)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", wpmigrate.ErrorMessage(err))
		return err
	}
	return nil
}

func printSummary(deps *Dependencies, s *migrate.Summary, dryRun bool) {
	if dryRun {
		fmt.Fprintf(deps.Stdout, "  Converted %d, failed %d\n", s.Converted, s.Failed)
	} else {
		fmt.Fprintf(deps.Stdout, "  Created %d, updated %d, skipped %d, failed %d\n",
			s.Created, s.Updated, s.Skipped, s.Failed)
		fmt.Fprintf(deps.Stdout, "  Uploaded %d asset(s) (%s), %d failed\n",
			s.AssetsUploaded, migrate.FormatBytes(s.AssetBytes), s.AssetsFailed)
	}
	if s.MissingAssets > 0 {
		fmt.Fprintf(deps.Stdout, "  %d image(s) omitted: asset not found\n", s.MissingAssets)
	}
	if s.Unmatched > 0 {
		fmt.Fprintf(deps.Stdout, "  %d unmatched link(s) logged to %s\n", s.Unmatched, s.UnmatchedLog)
	}
	if s.Embeds > 0 {
		fmt.Fprintf(deps.Stdout, "  %d stripped embed(s) logged to %s\n", s.Embeds, s.EmbedLog)
	}
}
