// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-assistant/internal/extract"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract SOURCE",
	Short: "Extract the bibliography of a PDF",
	Long: `Extract uploads a PDF to the gateway and prints the references it lists,
in document order. SOURCE is a local file, an arXiv ID, a DOI, or a URL. Each reference carries its printed label, the verbatim
citation text, and a cleaned query suitable for a web search.

Use --yaml to also save the list to a file.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctrl, err := newController(cmd)
	if err != nil {
		return err
	}
	doc, err := loadDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := ctrl.SubmitDocument(cmd.Context(), doc); err != nil {
		if msg := ctrl.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	refs := ctrl.Snapshot().References
	pages := pageCount(doc)

	if path, _ := cmd.Flags().GetString("yaml"); path != "" {
		list := extract.ReferenceList{Source: doc.Name, Pages: pages, References: refs}
		if err := extract.WriteYAML(path, list); err != nil {
			return err
		}
		logger.Info("extract.exported", "path", path, "references", len(refs), "pages", pages)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatReferences(cmd.OutOrStdout(), refs, pages, jsonOutput)
}

// formatReferences prints refs as JSON or as a table. A positive pages is
// shown in the table footer.
func formatReferences(w io.Writer, refs []types.ReferenceItem, pages int, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(refs)
	}

	if len(refs) == 0 {
		fmt.Fprintln(w, "No references found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-60s  %s\n", "#", "Label", "Citation", "Search query")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range refs {
		fmt.Fprintf(w, "%-4d  %-6s  %-60s  %s\n", i+1, clip(r.Index, 6), clip(r.Content, 60), clip(r.SearchQuery, 36))
	}
	if pages > 0 {
		fmt.Fprintf(w, "\n%d references (%d pages)\n", len(refs), pages)
	} else {
		fmt.Fprintf(w, "\n%d references\n", len(refs))
	}
	return nil
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	extractCmd.Flags().Bool("json", false, "output references as JSON")
	extractCmd.Flags().String("yaml", "", "also write the references to this YAML file")
	addServerFlag(extractCmd)

	rootCmd.AddCommand(extractCmd)
}
