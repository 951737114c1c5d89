// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session implements the application state controller: the state
// machine that owns one upload session's reference list, selection, and
// live search result, and coordinates extraction and search calls.
//
// States progress UPLOAD → ANALYZING_PDF → BROWSING_REFS, with Reset
// returning to UPLOAD from anywhere. Searches are last-writer-wins: each
// carries a generation number, and a result is committed only while its
// generation is still current. Overtaken calls are left to finish and their
// results are dropped.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Extractor turns a PDF into reference records.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) ([]types.ReferenceItem, error)
}

// Searcher looks up one query.
type Searcher interface {
	Search(ctx context.Context, query string) (types.SearchOutcome, error)
}

// Validation messages shown to users.
const (
	MsgNotPDF   = "please upload a PDF file"
	MsgTooLarge = "file too large, please upload a PDF under 20MB"
)

var (
	// ErrInvalidTransition is returned when an action is not valid in the
	// current state. The state is left unchanged.
	ErrInvalidTransition = errors.New("action not valid in current state")

	// ErrSuperseded is returned by SubmitDocument when the session was reset
	// while extraction was in flight; the extraction result was discarded.
	ErrSuperseded = errors.New("session reset while extraction was in flight")

	// ErrInvalidPosition is returned for a negative list position.
	ErrInvalidPosition = errors.New("invalid reference position")
)

// Controller owns one session. All state mutation happens under mu; callers
// observe state through Snapshot or Subscribe.
type Controller struct {
	extractor Extractor
	searcher  Searcher
	timeout   time.Duration
	log       *slog.Logger

	mu        sync.Mutex
	state     types.AppState
	refs      []types.ReferenceItem
	selected  int
	result    *types.SearchResult
	errMsg    string
	docGen    uint64
	searchGen uint64
	version   uint64

	notifyMu  sync.Mutex
	delivered uint64
	nextSub   int
	observers map[int]func(types.SessionState)
}

// New returns a controller in the UPLOAD state.
func New(e Extractor, s Searcher, cfg types.SessionConfig, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = types.DefaultCallTimeout
	}
	return &Controller{
		extractor: e,
		searcher:  s,
		timeout:   timeout,
		log:       logger,
		state:     types.StateUpload,
		selected:  types.NoSelection,
		observers: make(map[int]func(types.SessionState)),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() types.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots are delivered in mutation order; a snapshot older than one
// already delivered is skipped. fn runs synchronously and must not call
// Subscribe. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(types.SessionState)) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.observers[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.observers, id)
	}
}

// SubmitDocument validates doc and, if it passes, extracts its references.
// It blocks for the duration of the extraction call.
//
// Valid only from UPLOAD. A document that is not a PDF or exceeds the size
// limit sets a user-facing error and leaves the state at UPLOAD without any
// network call. On extraction success the session moves to BROWSING_REFS; on
// failure it returns to UPLOAD with the error message set.
func (c *Controller) SubmitDocument(ctx context.Context, doc types.Document) error {
	c.mu.Lock()
	if c.state != types.StateUpload {
		c.mu.Unlock()
		return ErrInvalidTransition
	}

	if err := validateDocument(doc); err != nil {
		c.errMsg = apperr.UserMessage(err, MsgNotPDF)
		snap, v := c.commitLocked()
		c.mu.Unlock()
		c.notify(snap, v)
		return err
	}

	c.errMsg = ""
	c.state = types.StateAnalyzingPDF
	c.docGen++
	gen := c.docGen
	snap, v := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, v)

	c.log.Info("session.extract.start", "document", doc.Name, "bytes", doc.Size(), "gen", gen)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	refs, err := c.extractor.Extract(callCtx, doc.Data)
	cancel()

	c.mu.Lock()
	if gen != c.docGen || c.state != types.StateAnalyzingPDF {
		c.mu.Unlock()
		c.log.Info("session.extract.discarded", "gen", gen)
		return ErrSuperseded
	}

	if err != nil {
		c.state = types.StateUpload
		c.refs = nil
		c.errMsg = apperr.UserMessage(err, apperr.MsgExtractFailed)
		snap, v = c.commitLocked()
		c.mu.Unlock()
		c.notify(snap, v)
		c.log.Error("session.extract.failed", "gen", gen, "error", err)
		return err
	}

	c.refs = append([]types.ReferenceItem(nil), refs...)
	c.selected = types.NoSelection
	c.result = nil
	c.state = types.StateBrowsingRefs
	snap, v = c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, v)
	c.log.Info("session.extract.ok", "gen", gen, "references", len(refs))
	return nil
}

// SelectReference makes the item at position the active selection and
// searches for it, using its search query when present and its citation
// text otherwise. Valid only from BROWSING_REFS.
//
// The call returns immediately. The returned channel is closed once the
// search result has been committed or discarded.
func (c *Controller) SelectReference(ctx context.Context, item types.ReferenceItem, position int) (<-chan struct{}, error) {
	if position < 0 {
		return nil, ErrInvalidPosition
	}
	return c.startSearch(ctx, position, item.Query())
}

// SelectIndex selects the reference at position in the current list.
func (c *Controller) SelectIndex(ctx context.Context, position int) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.state != types.StateBrowsingRefs {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if position < 0 || position >= len(c.refs) {
		c.mu.Unlock()
		return nil, ErrInvalidPosition
	}
	item := c.refs[position]
	c.mu.Unlock()
	return c.SelectReference(ctx, item, position)
}

// SubmitManualQuery searches for free text typed by the user. Text that is
// blank after trimming is ignored: no state change and no network call. The
// selection becomes types.ManualSelection. Valid only from BROWSING_REFS.
func (c *Controller) SubmitManualQuery(ctx context.Context, text string) (<-chan struct{}, error) {
	if strings.TrimSpace(text) == "" {
		return closedChan(), nil
	}
	return c.startSearch(ctx, types.ManualSelection, text)
}

// Reset returns the session to UPLOAD and clears all derived data. Any
// in-flight extraction or search result is discarded on arrival.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = types.StateUpload
	c.refs = nil
	c.selected = types.NoSelection
	c.result = nil
	c.errMsg = ""
	c.docGen++
	c.searchGen++
	snap, v := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, v)
	c.log.Info("session.reset")
}

// startSearch sets the loading placeholder and issues one search in the
// background tagged with a fresh generation.
func (c *Controller) startSearch(ctx context.Context, position int, query string) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.state != types.StateBrowsingRefs {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	c.selected = position
	c.searchGen++
	gen := c.searchGen
	loading := types.LoadingResult()
	c.result = &loading
	snap, v := c.commitLocked()
	c.mu.Unlock()
	c.notify(snap, v)

	c.log.Info("session.search.start", "gen", gen, "selected", position)

	done := make(chan struct{})
	go func() {
		defer close(done)

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := c.searcher.Search(callCtx, query)
		cancel()

		c.mu.Lock()
		if gen != c.searchGen || c.state != types.StateBrowsingRefs {
			c.mu.Unlock()
			c.log.Info("session.search.discarded", "gen", gen)
			return
		}
		var res types.SearchResult
		if err != nil {
			res = types.FailedResult(apperr.UserMessage(err, apperr.MsgSearchFailed))
		} else {
			res = types.ResultFromOutcome(out)
		}
		c.result = &res
		snap, v := c.commitLocked()
		c.mu.Unlock()
		c.notify(snap, v)

		if err != nil {
			c.log.Error("session.search.failed", "gen", gen, "error", err)
			return
		}
		c.log.Info("session.search.ok", "gen", gen, "sources", len(out.Sources))
	}()
	return done, nil
}

// validateDocument enforces the upload constraints.
func validateDocument(doc types.Document) error {
	if doc.ContentType != types.PDFContentType {
		return apperr.Validation(MsgNotPDF)
	}
	if doc.Size() > types.MaxDocumentSize {
		return apperr.Validation(MsgTooLarge)
	}
	return nil
}

// commitLocked records a mutation and returns the snapshot to deliver.
// c.mu must be held.
func (c *Controller) commitLocked() (types.SessionState, uint64) {
	c.version++
	return c.snapshotLocked(), c.version
}

func (c *Controller) snapshotLocked() types.SessionState {
	s := types.SessionState{
		State:      c.state,
		References: append([]types.ReferenceItem{}, c.refs...),
		Selected:   c.selected,
		Error:      c.errMsg,
	}
	if c.result != nil {
		r := *c.result
		r.Sources = append([]types.GroundingSource{}, c.result.Sources...)
		s.Result = &r
	}
	return s
}

// notify delivers snap to observers unless a newer snapshot already went out.
func (c *Controller) notify(snap types.SessionState, version uint64) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.delivered {
		return
	}
	c.delivered = version
	for _, fn := range c.observers {
		fn(snap)
	}
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
