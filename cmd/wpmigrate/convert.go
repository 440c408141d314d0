package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/wpmigrate"
)

// Run executes the convert command.
func (c *ConvertCmd) Run(deps *Dependencies) error {
	html, err := os.ReadFile(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	conv, err := deps.Converter.Convert(deps.Ctx, wpmigrate.ConvertInput{SourceID: c.ID, HTML: string(html)})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", wpmigrate.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(conv.Blocks); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(deps.Stdout, wpmigrate.FormatBlocks(conv.Blocks))
	}

	for _, l := range conv.UnmatchedLinks {
		fmt.Fprintf(deps.Stderr, "unmatched link: %s (best guess %q)\n", l.Href, l.BestGuess)
	}
	for _, e := range conv.StrippedEmbeds {
		fmt.Fprintf(deps.Stderr, "stripped embed: %s\n", e.Fragment)
	}
	for _, src := range conv.MissingAssets {
		fmt.Fprintf(deps.Stderr, "missing asset: %s\n", src)
	}

	return nil
}
