// Command charter runs the constitutional policy verification engine:
// an HTTP service by default, plus one-shot verification and stats
// subcommands for operators.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/acgs-labs/charter/pkg/config"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split out for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServe(stdout, stderr)
	}

	switch args[1] {
	case "serve":
		return runServe(stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "stats":
		return runStatsCmd(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "charter %s\n", config.EngineVersion)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[1])
		usage(stderr)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: charter <command>

Commands:
  serve              start the verification service (default)
  verify -req FILE   verify a single request from a JSON file
  stats              print aggregate statistics from a running service
  version            print the engine version
`)
}
