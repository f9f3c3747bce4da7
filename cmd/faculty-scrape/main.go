// Command faculty-scrape scrapes a faculty directory into CSV, XLSX, a
// terminal table, or a database.
//
// Usage (default site, CSV to stdout):
//
//	faculty-scrape scrape
//
// Usage (explicit pages, files, and a sink):
//
//	faculty-scrape scrape --url https://example.edu/people.html --letters A-Z \
//	  --csv faculty.csv --xlsx faculty.xlsx --store sqlite --dsn faculty.db
//
// Usage (saved pages):
//
//	faculty-scrape scrape --input-dir ./pages --table
//
// Debug (print selector matches while authoring rules):
//
//	curl -s https://example.edu/people.html | faculty-scrape debug --selector "div.profileinfo-teaser" --text
//
// Pages (print the page list a scrape would fetch):
//
//	faculty-scrape pages --url https://example.edu/people.html --letters A-C
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"faculty/internal/config"
	"faculty/internal/extracthtml"
	"faculty/internal/scraper"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, &http.Client{}))
}

// env carries the process boundary so commands can run in tests.
type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	client         *http.Client
	configPath     string
}

// usageError marks failures that exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usage(err error) error { return usageError{err: err} }

// run executes the command line and returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, client: httpClient}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "error: %v\n", err)

	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, scraper.ErrInvalidConfig) || errors.Is(err, extracthtml.ErrInvalidRules) {
		return 2
	}
	return 1
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "faculty-scrape",
		Short:         "Scrape a faculty directory into structured records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default ./faculty.yaml if present)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "log format (json, console)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usage(err) })

	root.AddCommand(newScrapeCmd(e), newDebugCmd(e), newPagesCmd(e))
	return root
}

// loadConfig reads configuration with cmd's flags bound over file and env.
func (e *env) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(e.configPath, cmd.Flags())
	if err != nil {
		return nil, usage(err)
	}
	return cfg, nil
}

// loadRules returns nil (built-in rules) when path is empty.
func loadRules(path string) (*extracthtml.Rules, error) {
	if path == "" {
		return nil, nil
	}
	r, err := extracthtml.LoadRules(path)
	if err != nil {
		return nil, usage(err)
	}
	return &r, nil
}
