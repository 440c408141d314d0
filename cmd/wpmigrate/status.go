package main

import (
	"fmt"

	"github.com/fwojciec/wpmigrate"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	runs, err := deps.Status.Runs(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", wpmigrate.ErrorMessage(err))
		return err
	}
	assets, err := deps.Status.AssetCount(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", wpmigrate.ErrorMessage(err))
		return err
	}

	done := make(map[string]bool, len(runs))
	for _, r := range runs {
		done[r.Run] = true
		fmt.Fprintf(deps.Stdout, "%s  %d record(s)  last commit %s\n",
			r.Run, r.Records, r.LastCommitted.Format("2006-01-02 15:04:05"))
	}
	if deps.Config != nil {
		for _, v := range deps.Config.Variants {
			if !done[v.Name] {
				fmt.Fprintf(deps.Stdout, "%s  not started\n", v.Name)
			}
		}
	}
	fmt.Fprintf(deps.Stdout, "%d asset(s) mapped\n", assets)

	return nil
}
