// deathboard keeps a top-deaths hologram stack in sync with a game server's
// player statistics.
package main

import (
	"fmt"
	"io"
	"os"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "serve":
		return cmdServe(args[1:], stderr)
	case "start":
		return cmdStart(args[1:], stdout, stderr)
	case "delete":
		return cmdDelete(args[1:], stdout, stderr)
	case "report", "topdeaths":
		return cmdReport(args[1:], stdout, stderr)
	case "version":
		_, _ = fmt.Fprintf(stdout, "deathboard %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage: deathboard <command> [options]

Commands:
  serve                                   Run the refresh daemon and HTTP API
  start --x X --y Y --z Z [--yaw] [--pitch] [--facing]
                                          Create the hologram stack at a position
  delete                                  Remove every hologram of the stack
  report                                  Refresh now and print the ranking
  version                                 Show version
  help                                    Show this help

Client commands talk to a running daemon:
  --url <url>    Base URL of the daemon (default: derived from addr in config)

Configuration is read from $DEATHBOARD_CONFIG (YAML), then DEATHBOARD_* variables.
A .env file in the working directory is loaded first when present.
`)
}
