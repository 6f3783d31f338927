package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"
)

// runStatsCmd fetches aggregate statistics from a running service.
func runStatsCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "http://localhost:8443", "base URL of the verification service")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(*addr + "/v1/stats")
	if err != nil {
		fmt.Fprintf(stderr, "stats: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "stats: service returned %s\n", resp.Status)
		return 1
	}
	if _, err := io.Copy(stdout, resp.Body); err != nil {
		fmt.Fprintf(stderr, "stats: %v\n", err)
		return 1
	}
	return 0
}
