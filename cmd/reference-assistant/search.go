// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Look up a paper on the web and summarize it",
	Long: `Search asks the gateway, with web search grounding enabled, to find the
paper described by QUERY and summarize it. The summary is followed by the
web sources the answer was grounded on, deduplicated by URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, searcher, err := backends(cmd)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	out, err := searcher.Search(cmd.Context(), query)
	if err != nil {
		logger.Debug("search.failed", "error", err)
		return errors.New(apperr.UserMessage(err, apperr.MsgSearchFailed))
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(out, cmd.OutOrStdout())
	}
	search.FormatText(out, cmd.OutOrStdout())
	return nil
}

func init() {
	searchCmd.Flags().Bool("json", false, "output the result as JSON")
	addServerFlag(searchCmd)

	rootCmd.AddCommand(searchCmd)
}
