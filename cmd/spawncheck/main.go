// Spawn catalog checker: loads YAML spawn catalogs and reports every
// profile, group, entry, condition and template the director would drop.
//
// Usage:
//
//	go run ./cmd/spawncheck config/spawns.yaml           # check one catalog
//	go run ./cmd/spawncheck --quiet a.yaml b.yaml        # only print problems
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/udisondev/spawndirector/internal/data"
	"github.com/udisondev/spawndirector/internal/director"
)

func main() {
	args := os.Args[1:]

	quiet := false
	if len(args) > 0 && args[0] == "--quiet" {
		quiet = true
		args = args[1:]
	}
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	totalStart := time.Now()
	failed := 0
	for _, path := range args {
		start := time.Now()
		n, err := check(path, quiet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[spawncheck] FAILED %s: %v\n", path, err)
			failed++
			continue
		}
		if n > 0 {
			failed++
		}
		if !quiet {
			fmt.Printf("[spawncheck] %s: %d problem(s) (%s)\n", path, n, time.Since(start).Round(time.Millisecond))
		}
	}
	if !quiet {
		fmt.Printf("[spawncheck] all done (%s)\n", time.Since(totalStart).Round(time.Millisecond))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// check validates one catalog and returns how many problems it found.
func check(path string, quiet bool) (int, error) {
	repo, err := data.LoadFile(path)
	if err != nil {
		return 0, err
	}

	problems := 0
	for _, p := range repo.Profiles() {
		errs := director.Validate(p)
		for _, e := range errs {
			fmt.Printf("  %s: %v\n", path, e)
		}
		problems += len(errs)

		if !quiet {
			state := "active"
			if !p.Active {
				state = "inactive"
			}
			fmt.Printf("  %-24s %-8s groups=%d miniboss=%t\n", p.AreaResRef, state, len(p.Groups), p.MiniBoss != nil)
		}
	}

	templates, err := repo.LoadMutationTemplates(context.Background())
	if err != nil {
		return problems, err
	}
	for _, e := range director.ValidateTemplates(templates) {
		fmt.Printf("  %s: %v\n", path, e)
		problems++
	}
	if !quiet {
		fmt.Printf("  %d mutation template(s)\n", len(templates))
	}

	return problems, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/spawncheck [--quiet] <catalog.yaml ...>")
}
