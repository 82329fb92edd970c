// Package batch maintains the per-item state of a multi-receipt
// capture session between analysis and persistence.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/confidence"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

// Store is the single source of truth for batch state. One entry per
// captured image, appended in capture order; entries leave the store
// on discard or successful commit. All mutations are synchronous and
// keyed by the receipt's stable id, never by position, because items
// may be removed while analysis results are still arriving.
type Store struct {
	gateway   service.AnalysisGateway
	persister service.Persister
	images    map[string]model.CapturedImage
	receipts  []*model.BatchReceipt
	nextIndex int
	mu        sync.Mutex
}

// NewStore creates an empty store using the given collaborators.
func NewStore(gateway service.AnalysisGateway, persister service.Persister) *Store {
	return &Store{
		gateway:   gateway,
		persister: persister,
		images:    make(map[string]model.CapturedImage),
	}
}

// Ingest records the analysis outcome for a captured image as a new
// batch receipt. On success the item is READY when the draft qualifies
// for quick save and NEEDS_REVIEW otherwise; on failure it is ERROR
// with confidence zero. The original image is retained so the item can
// be retried.
func (s *Store) Ingest(image model.CapturedImage, draft *model.DraftTransaction, analyzeErr error) *model.BatchReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt := &model.BatchReceipt{
		ID:       uuid.NewString(),
		Index:    s.nextIndex,
		ImageRef: image.ID,
	}
	s.nextIndex++

	s.applyResult(receipt, draft, analyzeErr)

	s.images[receipt.ID] = image
	s.receipts = append(s.receipts, receipt)

	slog.Debug("ingested batch receipt",
		"receipt_id", receipt.ID,
		"index", receipt.Index,
		"status", receipt.Status,
		"confidence", receipt.Confidence)

	snapshot := *receipt
	return &snapshot
}

// applyResult writes the outcome of an analysis onto the receipt.
// Caller holds the lock.
func (s *Store) applyResult(receipt *model.BatchReceipt, draft *model.DraftTransaction, analyzeErr error) {
	if analyzeErr != nil {
		receipt.Transaction = model.DraftTransaction{}
		receipt.Status = model.StatusError
		receipt.Confidence = 0
		receipt.Error = analyzeErr.Error()
		return
	}

	receipt.Transaction = *draft
	receipt.Error = ""
	receipt.Confidence = confidence.Score(*draft)
	if confidence.QualifiesForQuickSave(*draft) {
		receipt.Status = model.StatusReady
	} else {
		receipt.Status = model.StatusNeedsReview
	}
}

// DiscardItem removes the entry and its retained image. Discarding an
// id that is already gone is a no-op: duplicate UI events are expected.
func (s *Store) DiscardItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, receipt := range s.receipts {
		if receipt.ID == id {
			s.receipts = append(s.receipts[:i], s.receipts[i+1:]...)
			delete(s.images, id)
			return
		}
	}
}

// RetryItem re-analyzes the item's original image and replaces the
// entry's transaction, status, confidence, and error in place. The id
// and capture index never change: retry is a replace, not an append.
func (s *Store) RetryItem(ctx context.Context, id string) (*model.BatchReceipt, error) {
	s.mu.Lock()
	receipt := s.findLocked(id)
	if receipt == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("retry receipt %s: %w", id, common.ErrNotFound)
	}
	image, ok := s.images[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("retry receipt %s: source image gone: %w", id, common.ErrNotFound)
	}

	// Analysis happens outside the lock; it is the suspension point.
	draft, analyzeErr := s.gateway.Analyze(ctx, image)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The item may have been discarded while analysis was in flight.
	receipt = s.findLocked(id)
	if receipt == nil {
		return nil, fmt.Errorf("retry receipt %s: %w", id, common.ErrNotFound)
	}

	s.applyResult(receipt, draft, analyzeErr)

	slog.Info("retried batch receipt",
		"receipt_id", receipt.ID,
		"status", receipt.Status,
		"confidence", receipt.Confidence)

	snapshot := *receipt
	return &snapshot, nil
}

// UpdateItem replaces the item's transaction after a manual edit and
// recomputes status and confidence, so an edited item that now
// qualifies moves to READY.
func (s *Store) UpdateItem(id string, tx model.DraftTransaction) (*model.BatchReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt := s.findLocked(id)
	if receipt == nil {
		return nil, fmt.Errorf("update receipt %s: %w", id, common.ErrNotFound)
	}

	s.applyResult(receipt, &tx, nil)

	snapshot := *receipt
	return &snapshot, nil
}

// Commit persists the item's transaction. On success the item leaves
// the store; on failure it stays exactly as it was, with the error
// returned for user-facing retry. Commits are independent per item: a
// failure here never blocks or rolls back other items.
func (s *Store) Commit(ctx context.Context, id string) error {
	s.mu.Lock()
	receipt := s.findLocked(id)
	if receipt == nil {
		s.mu.Unlock()
		return fmt.Errorf("commit receipt %s: %w", id, common.ErrNotFound)
	}
	tx := receipt.Transaction
	s.mu.Unlock()

	if _, err := s.persister.SaveTransaction(ctx, tx); err != nil {
		slog.Warn("failed to persist batch receipt",
			"receipt_id", id,
			"error", err)
		return &common.PersistError{ReceiptID: id, Err: err}
	}

	s.DiscardItem(id)
	return nil
}

// Get returns a copy of the receipt with the given id.
func (s *Store) Get(id string) (*model.BatchReceipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt := s.findLocked(id)
	if receipt == nil {
		return nil, false
	}
	snapshot := *receipt
	return &snapshot, true
}

// ByOrdinal resolves a 1-based UI position to the receipt currently at
// that position. The mapping must be re-resolved on every access:
// items are removed concurrently, so a cached ordinal would go stale.
func (s *Store) ByOrdinal(uiOrdinal int) (*model.BatchReceipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := uiOrdinal - 1
	if idx < 0 || idx >= len(s.receipts) {
		return nil, false
	}
	snapshot := *s.receipts[idx]
	return &snapshot, true
}

// Receipts returns a snapshot of all entries in capture order.
func (s *Store) Receipts() []model.BatchReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.BatchReceipt, 0, len(s.receipts))
	for _, receipt := range s.receipts {
		out = append(out, *receipt)
	}
	return out
}

// ReadyIDs returns the ids of all READY entries in capture order.
func (s *Store) ReadyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, receipt := range s.receipts {
		if receipt.Status == model.StatusReady {
			ids = append(ids, receipt.ID)
		}
	}
	return ids
}

// Len returns the number of entries in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

// Clear removes every entry and retained image and resets capture
// indexing for the next batch.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts = nil
	s.images = make(map[string]model.CapturedImage)
	s.nextIndex = 0
}

func (s *Store) findLocked(id string) *model.BatchReceipt {
	for _, receipt := range s.receipts {
		if receipt.ID == id {
			return receipt
		}
	}
	return nil
}
