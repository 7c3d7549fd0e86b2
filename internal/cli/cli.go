// Package cli holds the argument handling shared by the command line tools.
package cli

import "flag"

// ExitUsage is the status for missing or malformed arguments, matching the
// flag package convention.
const ExitUsage = 2

// ExitFailure is the status for runtime failures.
const ExitFailure = 1

// Parse parses args with fs, allowing flags before, between and after the
// positional arguments, and returns the positional arguments in order.
func Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
