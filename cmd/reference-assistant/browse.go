// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-assistant/internal/search"
	"github.com/pdiddy/reference-assistant/internal/session"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

var browseCmd = &cobra.Command{
	Use:   "browse [SOURCE]",
	Short: "Interactively browse a PDF's references and look them up",
	Long: `Browse runs an interactive session. It uploads SOURCE (a local file,
arXiv ID, DOI, or URL) or waits for "open SOURCE", lists the extracted
references, and then reads commands:

  N            look up reference number N
  /q TEXT      look up free text
  list         show the reference list again
  open SOURCE  upload another PDF (after reset)
  reset        discard the session and start over
  quit         exit

Only the most recent lookup is shown; a slower earlier lookup never
replaces it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctrl, err := newController(cmd)
	if err != nil {
		return err
	}
	b := newBrowser(ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
	if len(args) == 1 {
		b.open(cmd.Context(), args[0])
	}
	return b.run(cmd.Context())
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdQuit
	cmdHelp
	cmdList
	cmdReset
	cmdOpen
	cmdSelect
	cmdQuery
)

type command struct {
	kind     commandKind
	position int
	arg      string
}

// parseCommand interprets one line of browse input.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	if line == "/q" || strings.HasPrefix(line, "/q ") {
		return command{kind: cmdQuery, arg: strings.TrimSpace(line[2:])}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "help", "?":
		return command{kind: cmdHelp}, nil
	case "list", "ls":
		return command{kind: cmdList}, nil
	case "reset":
		return command{kind: cmdReset}, nil
	case "open":
		path := strings.TrimSpace(rest)
		if path == "" {
			return command{}, fmt.Errorf("usage: open SOURCE")
		}
		return command{kind: cmdOpen, arg: path}, nil
	}

	n, err := strconv.Atoi(word)
	if err != nil || rest != "" {
		return command{}, fmt.Errorf("unknown command %q (type help)", line)
	}
	if n < 1 {
		return command{}, fmt.Errorf("reference numbers start at 1")
	}
	return command{kind: cmdSelect, position: n - 1}, nil
}

// browser drives a session controller from line-oriented input.
type browser struct {
	ctrl *session.Controller
	in   *bufio.Scanner
	out  io.Writer

	// pages of the document being analyzed; 0 when unknown.
	pages int
}

func newBrowser(ctrl *session.Controller, in io.Reader, out io.Writer) *browser {
	b := &browser{ctrl: ctrl, in: bufio.NewScanner(in), out: out}
	ctrl.Subscribe(b.onChange)
	return b
}

// onChange reports transient states as they happen.
func (b *browser) onChange(s types.SessionState) {
	switch {
	case s.State == types.StateAnalyzingPDF && b.pages > 0:
		fmt.Fprintf(b.out, "Analyzing PDF (%d pages)...\n", b.pages)
	case s.State == types.StateAnalyzingPDF:
		fmt.Fprintln(b.out, "Analyzing PDF...")
	case s.Result != nil && s.Result.Loading:
		fmt.Fprintln(b.out, "Searching...")
	}
}

func (b *browser) run(ctx context.Context) error {
	b.prompt()
	for b.in.Scan() {
		c, err := parseCommand(b.in.Text())
		if err != nil {
			fmt.Fprintln(b.out, err)
			b.prompt()
			continue
		}

		switch c.kind {
		case cmdQuit:
			return nil
		case cmdHelp:
			fmt.Fprintln(b.out, "Commands: N, /q TEXT, list, open SOURCE, reset, quit")
		case cmdList:
			b.printReferences()
		case cmdReset:
			b.ctrl.Reset()
			fmt.Fprintln(b.out, "Session reset. Use \"open SOURCE\" to upload a PDF.")
		case cmdOpen:
			b.open(ctx, c.arg)
		case cmdSelect:
			done, err := b.ctrl.SelectIndex(ctx, c.position)
			b.await(done, err)
		case cmdQuery:
			if c.arg == "" {
				fmt.Fprintln(b.out, "usage: /q TEXT")
				break
			}
			done, err := b.ctrl.SubmitManualQuery(ctx, c.arg)
			b.await(done, err)
		}
		b.prompt()
	}
	return b.in.Err()
}

func (b *browser) open(ctx context.Context, path string) {
	doc, err := loadDocument(ctx, path)
	if err != nil {
		fmt.Fprintln(b.out, "Error:", err)
		return
	}
	b.pages = pageCount(doc)
	if err := b.ctrl.SubmitDocument(ctx, doc); err != nil {
		if msg := b.ctrl.Snapshot().Error; msg != "" {
			fmt.Fprintln(b.out, "Error:", msg)
			return
		}
		if errors.Is(err, session.ErrInvalidTransition) {
			fmt.Fprintln(b.out, "A document is already loaded; reset first.")
			return
		}
		fmt.Fprintln(b.out, "Error:", err)
		return
	}
	b.printReferences()
}

// await waits for a search to settle and prints the current result.
func (b *browser) await(done <-chan struct{}, err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrInvalidTransition):
		fmt.Fprintln(b.out, "No references loaded; use \"open SOURCE\" first.")
		return
	case errors.Is(err, session.ErrInvalidPosition):
		fmt.Fprintln(b.out, "No reference with that number.")
		return
	default:
		fmt.Fprintln(b.out, "Error:", err)
		return
	}
	<-done

	snap := b.ctrl.Snapshot()
	if snap.Result == nil || snap.Result.Loading {
		return
	}
	if ref, ok := snap.SelectedReference(); ok {
		fmt.Fprintf(b.out, "\n%s %s\n\n", ref.Index, ref.Content)
	}
	if snap.Result.Error != "" {
		fmt.Fprintln(b.out, "Search failed:", snap.Result.Error)
		return
	}
	search.FormatText(types.SearchOutcome{Summary: snap.Result.Summary, Sources: snap.Result.Sources}, b.out)
}

func (b *browser) printReferences() {
	snap := b.ctrl.Snapshot()
	if snap.State != types.StateBrowsingRefs {
		fmt.Fprintln(b.out, "No document loaded.")
		return
	}
	if len(snap.References) == 0 {
		fmt.Fprintln(b.out, "No references found in this document. Use /q TEXT to search manually.")
		return
	}
	for i, r := range snap.References {
		fmt.Fprintf(b.out, "%3d. %-6s %s\n", i+1, clip(r.Index, 6), clip(r.Content, 90))
	}
}

func (b *browser) prompt() {
	fmt.Fprint(b.out, "> ")
}

func init() {
	addServerFlag(browseCmd)

	rootCmd.AddCommand(browseCmd)
}
