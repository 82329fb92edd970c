package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/snapledger/snapledger/internal/batch"
	"github.com/snapledger/snapledger/internal/capture"
	"github.com/snapledger/snapledger/internal/edit"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

// Config holds configuration options for a scan session.
type Config struct {
	Mode    Mode
	Workers int // concurrent analysis requests during batch scan
	// Strict makes illegal transitions panic instead of logging and
	// returning the error. Enabled in development and tests.
	Strict bool
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Mode:    ModeSingle,
		Workers: 2,
	}
}

// Snapshot is an immutable view of session state handed to observers.
// Consumers never receive live references: batch state lives in the
// store and is copied out per snapshot.
type Snapshot struct {
	Phase    Phase
	Mode     Mode
	Dialog   Dialog
	Receipts []model.BatchReceipt
}

// Controller is the scan-session state machine. It owns the phase, the
// single active dialog, and the scan generation used to drop late
// analysis results after cancellation. All mutations are synchronous
// under one lock; analysis and persistence are the only suspension
// points and run outside it.
type Controller struct {
	buffer      *capture.Buffer
	store       *batch.Store
	gateway     service.AnalysisGateway
	dialog      Dialog
	subscribers []func(Snapshot)
	config      Config
	phase       Phase
	generation  uint64
	mu          sync.Mutex
}

// NewController creates an idle session over the given collaborators.
func NewController(buffer *capture.Buffer, store *batch.Store, gateway service.AnalysisGateway, config Config) *Controller {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.Mode == "" {
		config.Mode = DefaultConfig().Mode
	}
	return &Controller{
		buffer:  buffer,
		store:   store,
		gateway: gateway,
		config:  config,
		phase:   PhaseIdle,
	}
}

// Phase returns the current session phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Mode returns the session mode.
func (c *Controller) Mode() Mode {
	return c.config.Mode
}

// ActiveDialog returns the current dialog, or nil.
func (c *Controller) ActiveDialog() Dialog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// Store exposes the batch store, the single source of truth for batch
// item state.
func (c *Controller) Store() *batch.Store {
	return c.store
}

// Snapshot returns an immutable view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers an observer invoked after every state change.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// StartCapture begins a capture session: Idle -> Capturing.
func (c *Controller) StartCapture() error {
	c.mu.Lock()
	if err := c.requireLocked("startCapture", PhaseIdle); err != nil {
		c.mu.Unlock()
		return err
	}
	c.phase = PhaseCapturing
	c.mu.Unlock()

	c.notify()
	return nil
}

// ImageReady records a captured image. In single mode the session moves
// to Scanning and analysis begins immediately; in batch mode the image
// is buffered and the session stays in Capturing until the user
// finalizes the batch. Statement mode accepts no images.
func (c *Controller) ImageReady(ctx context.Context, image model.CapturedImage) error {
	c.mu.Lock()
	if err := c.requireLocked("imageReady", PhaseCapturing); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.config.Mode == ModeStatement {
		c.mu.Unlock()
		return c.illegal("imageReady", PhaseCapturing)
	}

	if _, err := c.buffer.Add(image); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.config.Mode == ModeBatch {
		c.mu.Unlock()
		c.notify()
		return nil
	}

	// Single mode: scan right away.
	c.phase = PhaseScanning
	generation := c.generation
	c.mu.Unlock()

	c.notify()
	go c.scanBuffered(ctx, generation)
	return nil
}

// FinalizeBatch closes capture and starts concurrent analysis of every
// buffered image: Capturing -> Scanning. Batch mode only.
func (c *Controller) FinalizeBatch(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireLocked("finalizeBatch", PhaseCapturing); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.config.Mode != ModeBatch {
		c.mu.Unlock()
		return c.illegal("finalizeBatch", PhaseCapturing)
	}
	if c.buffer.Count() == 0 {
		c.mu.Unlock()
		return fmt.Errorf("cannot finalize an empty batch")
	}

	c.phase = PhaseScanning
	generation := c.generation
	c.mu.Unlock()

	c.notify()
	go c.scanBuffered(ctx, generation)
	return nil
}

// scanBuffered analyzes every buffered image with bounded concurrency.
// Requests are issued in capture order; completion order is arbitrary.
// Results are held until all requests resolve (the join barrier), then
// ingested in capture order, so the store always lists receipts in the
// order the user captured them.
func (c *Controller) scanBuffered(ctx context.Context, generation uint64) {
	images := c.buffer.Images()

	slog.Info("starting batch analysis",
		"images", len(images),
		"workers", c.config.Workers)

	type indexed struct {
		draft *model.DraftTransaction
		err   error
	}
	results := make([]indexed, len(images))

	workChan := make(chan int, len(images))
	for i := range images {
		workChan <- i
	}
	close(workChan)

	var wg sync.WaitGroup
	workers := c.config.Workers
	if workers > len(images) {
		workers = len(images)
	}
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range workChan {
				draft, err := c.gateway.Analyze(ctx, images[i])
				results[i] = indexed{draft: draft, err: err}
			}
		}()
	}

	wg.Wait()

	c.mu.Lock()
	// A cancel may have landed while requests were in flight. The
	// results belong to a dead generation: drop them without touching
	// any state.
	if c.generation != generation || c.phase != PhaseScanning {
		c.mu.Unlock()
		slog.Debug("dropping stale analysis results",
			"generation", generation,
			"current_generation", c.generation)
		return
	}

	for i, image := range images {
		c.store.Ingest(image, results[i].draft, results[i].err)
	}
	c.buffer.Clear()
	c.phase = PhaseReviewing
	c.mu.Unlock()

	slog.Info("batch analysis complete", "receipts", c.store.Len())
	c.notify()
}

// RetryItem re-analyzes one ERROR or NEEDS_REVIEW item during review.
func (c *Controller) RetryItem(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.requireLocked("retryItem", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if _, err := c.store.RetryItem(ctx, id); err != nil {
		return err
	}
	c.notify()
	return nil
}

// DiscardItem removes one item during review. Idempotent.
func (c *Controller) DiscardItem(id string) error {
	c.mu.Lock()
	if err := c.requireLocked("discardItem", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.store.DiscardItem(id)
	c.notify()
	return nil
}

// UpdateItem replaces an item's transaction after a manual edit.
func (c *Controller) UpdateItem(id string, tx model.DraftTransaction) error {
	c.mu.Lock()
	if err := c.requireLocked("updateItem", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if _, err := c.store.UpdateItem(id, tx); err != nil {
		return err
	}
	c.notify()
	return nil
}

// EditItem builds and runs the editor command plan for the item shown
// at the given 1-based position. The ordinal is resolved against the
// store at call time; it is never cached across the edit.
func (c *Controller) EditItem(uiOrdinal int, runner edit.Runner) error {
	c.mu.Lock()
	if err := c.requireLocked("editItem", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	receipt, ok := c.store.ByOrdinal(uiOrdinal)
	if !ok {
		return fmt.Errorf("no batch item at position %d", uiOrdinal)
	}

	plan, err := edit.Edit(*receipt, uiOrdinal)
	if err != nil {
		return err
	}
	return edit.Run(runner, plan)
}

// CommitItem persists a single item: Reviewing -> Saving, then back to
// Reviewing while items remain, or Idle once the store drains. A
// persistence failure keeps the item, raises a CommitFailedDialog, and
// returns the error; other items are unaffected.
func (c *Controller) CommitItem(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.requireLocked("userAccepts", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.phase = PhaseSaving
	c.mu.Unlock()
	c.notify()

	commitErr := c.store.Commit(ctx, id)

	c.mu.Lock()
	if commitErr != nil {
		c.phase = PhaseReviewing
		c.setDialogLocked(CommitFailedDialog{ReceiptID: id, Message: commitErr.Error()})
	} else if c.store.Len() == 0 {
		c.resetLocked()
	} else {
		c.phase = PhaseReviewing
	}
	c.mu.Unlock()

	c.notify()
	return commitErr
}

// UserAccepts commits every READY item, each independently: Reviewing
// -> Saving -> Idle when everything persisted, or back to Reviewing
// with the failed and unready items retained. Partial success is the
// expected steady state, not an error.
func (c *Controller) UserAccepts(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireLocked("userAccepts", PhaseReviewing); err != nil {
		c.mu.Unlock()
		return err
	}
	c.phase = PhaseSaving
	c.mu.Unlock()
	c.notify()

	var firstErr error
	for _, id := range c.store.ReadyIDs() {
		if err := c.store.Commit(ctx, id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	c.mu.Lock()
	if c.store.Len() == 0 {
		c.resetLocked()
	} else {
		c.phase = PhaseReviewing
	}
	c.mu.Unlock()

	c.notify()
	return firstErr
}

// Cancel aborts the session. During capture and scanning it discards
// buffered images and invalidates in-flight analysis (late responses
// are dropped on arrival). During review and saving, analyzed but
// unsaved work exists, so cancel raises a confirmation dialog instead
// of discarding unconditionally.
func (c *Controller) Cancel() error {
	c.mu.Lock()

	switch c.phase {
	case PhaseIdle:
		c.mu.Unlock()
		return nil
	case PhaseCapturing, PhaseScanning, PhaseError:
		c.resetLocked()
	case PhaseReviewing, PhaseSaving:
		c.setDialogLocked(DiscardBatchDialog{ItemCount: c.store.Len()})
	}

	c.mu.Unlock()
	c.notify()
	return nil
}

// Acknowledge clears a fatal error: Error -> Idle.
func (c *Controller) Acknowledge() error {
	c.mu.Lock()
	if err := c.requireLocked("acknowledge", PhaseError); err != nil {
		c.mu.Unlock()
		return err
	}
	c.resetLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Fail moves the session to the Error phase with an error dialog. Used
// for session-fatal failures only; per-item failures stay on items.
func (c *Controller) Fail(message string) {
	c.mu.Lock()
	c.phase = PhaseError
	c.setDialogLocked(ErrorDialog{Message: message})
	c.mu.Unlock()

	c.notify()
}

// ConfirmDialog applies the active dialog's confirming action.
func (c *Controller) ConfirmDialog(ctx context.Context) error {
	c.mu.Lock()
	dialog := c.dialog
	c.mu.Unlock()

	switch d := dialog.(type) {
	case nil:
		return nil
	case DiscardBatchDialog:
		c.mu.Lock()
		c.resetLocked()
		c.mu.Unlock()
		c.notify()
		return nil
	case ErrorDialog:
		return c.Acknowledge()
	case CommitFailedDialog:
		c.mu.Lock()
		c.dialog = nil
		c.mu.Unlock()
		return c.CommitItem(ctx, d.ReceiptID)
	default:
		return fmt.Errorf("unknown dialog kind %T", dialog)
	}
}

// DeclineDialog dismisses the active dialog, leaving the session
// otherwise unchanged.
func (c *Controller) DeclineDialog() {
	c.mu.Lock()
	c.dialog = nil
	c.mu.Unlock()

	c.notify()
}

// resetLocked returns the session to Idle and tears down all transient
// state. Bumping the generation orphans any in-flight analysis.
func (c *Controller) resetLocked() {
	c.generation++
	c.phase = PhaseIdle
	c.dialog = nil
	c.buffer.Clear()
	c.store.Clear()
}

// setDialogLocked installs a dialog, replacing any prior one. Dialogs
// never stack. A dialog invalid for the current phase is refused.
func (c *Controller) setDialogLocked(d Dialog) {
	if !dialogAllowed(d, c.phase) {
		slog.Error("refusing dialog invalid for phase",
			"dialog", d.dialogKind(),
			"phase", c.phase)
		return
	}
	c.dialog = d
}

// requireLocked validates that the event is legal in the current phase.
func (c *Controller) requireLocked(event string, allowed ...Phase) error {
	for _, phase := range allowed {
		if c.phase == phase {
			return nil
		}
	}
	return c.illegal(event, c.phase)
}

// illegal reports a contract violation. Strict sessions fail loudly;
// otherwise the event is logged and refused without corrupting phase.
func (c *Controller) illegal(event string, from Phase) error {
	err := &IllegalTransitionError{Event: event, From: from, Mode: c.config.Mode}
	if c.config.Strict {
		panic(err)
	}
	slog.Error("illegal session transition refused",
		"event", event,
		"phase", from,
		"mode", c.config.Mode)
	return err
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:    c.phase,
		Mode:     c.config.Mode,
		Dialog:   c.dialog,
		Receipts: c.store.Receipts(),
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	subscribers := make([]func(Snapshot), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
