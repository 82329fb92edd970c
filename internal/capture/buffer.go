// Package capture holds photographed receipt images awaiting analysis.
package capture

import (
	"sync"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
)

// MaxImages is the hard cap on buffered images per batch.
const MaxImages = 10

// Buffer is a bounded, ordered collection of pending captured images.
// Insertion order is preserved and defines the capture index of the
// batch receipts derived from it.
type Buffer struct {
	images []model.CapturedImage
	seen   map[string]struct{}
	max    int
	mu     sync.Mutex
}

// NewBuffer creates an empty buffer with the given capacity. A
// non-positive capacity falls back to MaxImages.
func NewBuffer(maxImages int) *Buffer {
	if maxImages <= 0 {
		maxImages = MaxImages
	}
	return &Buffer{
		images: make([]model.CapturedImage, 0, maxImages),
		seen:   make(map[string]struct{}),
		max:    maxImages,
	}
}

// Add appends images in order, filling whatever capacity remains. It
// returns how many were accepted; when any image did not fit, a
// *common.CapacityError names the rejected ids so the caller can tell
// the user exactly which captures were refused. Truncation is never
// silent. Duplicate ids are rejected with common.ErrDuplicateEntry.
func (b *Buffer) Add(images ...model.CapturedImage) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, img := range images {
		if _, dup := b.seen[img.ID]; dup {
			return 0, common.ErrDuplicateEntry
		}
	}

	added := 0
	var rejected []string
	for _, img := range images {
		if len(b.images) >= b.max {
			rejected = append(rejected, img.ID)
			continue
		}
		b.images = append(b.images, img)
		b.seen[img.ID] = struct{}{}
		added++
	}

	if len(rejected) > 0 {
		return added, &common.CapacityError{Limit: b.max, RejectedIDs: rejected}
	}
	return added, nil
}

// Remove deletes the image with the given id, preserving the order of
// the rest. Removing an unknown id is a no-op.
func (b *Buffer) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, img := range b.images {
		if img.ID == id {
			b.images = append(b.images[:i], b.images[i+1:]...)
			delete(b.seen, id)
			return
		}
	}
}

// Clear discards all buffered images.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.images = b.images[:0]
	b.seen = make(map[string]struct{})
}

// Count returns the number of buffered images.
func (b *Buffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.images)
}

// CanAddMore reports whether the buffer has room for another image.
func (b *Buffer) CanAddMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.images) < b.max
}

// Images returns a snapshot of the buffered images in capture order.
func (b *Buffer) Images() []model.CapturedImage {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.CapturedImage, len(b.images))
	copy(out, b.images)
	return out
}
