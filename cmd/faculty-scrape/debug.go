package main

import (
	"errors"
	"time"

	"faculty/internal/extracthtml"

	"github.com/spf13/cobra"
)

func newDebugCmd(e *env) *cobra.Command {
	var (
		rawURL   string
		selector string
		textOnly bool
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Print the matches of a CSS selector from a URL or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if selector == "" {
				return usage(errors.New("missing --selector"))
			}
			loader := extracthtml.NewLoader(e.client, timeout)
			html, err := loader.Load(cmd.Context(), extracthtml.Input{URL: rawURL, Stdin: e.stdin})
			if err != nil {
				return err
			}
			return extracthtml.DebugPrintSelector(e.stdout, html, selector, textOnly)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rawURL, "url", "", "fetch HTML from this URL instead of stdin")
	f.StringVar(&selector, "selector", "", "CSS selector to print matches for")
	f.BoolVar(&textOnly, "text", false, "print normalized text instead of outer HTML")
	f.DurationVar(&timeout, "timeout", 20*time.Second, "timeout for --url fetch")
	return cmd
}
