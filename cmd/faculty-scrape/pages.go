package main

import (
	"fmt"

	"faculty/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPagesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Print the page URLs a scrape would fetch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Log, e.stderr)
			if err != nil {
				return usage(err)
			}
			s, err := e.newScraper(cfg, logger, nil)
			if err != nil {
				return err
			}
			pages, err := s.Pages(cmd.Context())
			if err != nil {
				return err
			}
			logger.Debug("pages resolved", zap.Int("count", len(pages)))
			for _, p := range pages {
				fmt.Fprintln(e.stdout, p)
			}
			return nil
		},
	}
	addSiteFlags(cmd)
	return cmd
}
