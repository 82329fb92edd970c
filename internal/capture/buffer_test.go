package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
)

func testImage(id string) model.CapturedImage {
	img := model.NewCapturedImage([]byte("image-" + id))
	img.ID = id
	return img
}

func TestBufferAdd(t *testing.T) {
	b := NewBuffer(3)

	added, err := b.Add(testImage("a"), testImage("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, b.Count())
	assert.True(t, b.CanAddMore())
}

func TestBufferPreservesInsertionOrder(t *testing.T) {
	b := NewBuffer(5)

	for _, id := range []string{"first", "second", "third"} {
		_, err := b.Add(testImage(id))
		require.NoError(t, err)
	}

	images := b.Images()
	require.Len(t, images, 3)
	assert.Equal(t, "first", images[0].ID)
	assert.Equal(t, "second", images[1].ID)
	assert.Equal(t, "third", images[2].ID)
}

// The cap is a hard ceiling: the 11th image is refused and the count
// stays exactly at the limit.
func TestBufferCapacityIsHardCeiling(t *testing.T) {
	b := NewBuffer(MaxImages)

	for i := 0; i < MaxImages; i++ {
		_, err := b.Add(testImage(fmt.Sprintf("img-%d", i)))
		require.NoError(t, err)
	}
	require.Equal(t, MaxImages, b.Count())
	assert.False(t, b.CanAddMore())

	added, err := b.Add(testImage("one-too-many"))
	require.Error(t, err)
	assert.Equal(t, 0, added)
	assert.ErrorIs(t, err, common.ErrCapacityExceeded)
	assert.Equal(t, MaxImages, b.Count())
}

// Overfilling in one call accepts what fits and names every rejected
// image; truncation is never silent.
func TestBufferOverflowSignalsRejectedIDs(t *testing.T) {
	b := NewBuffer(2)

	added, err := b.Add(testImage("a"), testImage("b"), testImage("c"), testImage("d"))
	require.Error(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, b.Count())

	var capErr *common.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Limit)
	assert.Equal(t, []string{"c", "d"}, capErr.RejectedIDs)
}

func TestBufferRejectsDuplicateIDs(t *testing.T) {
	b := NewBuffer(5)

	_, err := b.Add(testImage("dup"))
	require.NoError(t, err)

	added, err := b.Add(testImage("dup"))
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, b.Count())
}

func TestBufferRemove(t *testing.T) {
	b := NewBuffer(5)
	_, err := b.Add(testImage("a"), testImage("b"), testImage("c"))
	require.NoError(t, err)

	b.Remove("b")
	images := b.Images()
	require.Len(t, images, 2)
	assert.Equal(t, "a", images[0].ID)
	assert.Equal(t, "c", images[1].ID)

	// Unknown id is a no-op
	b.Remove("nope")
	assert.Equal(t, 2, b.Count())

	// Removed id may be re-added
	_, err = b.Add(testImage("b"))
	assert.NoError(t, err)
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(5)
	_, err := b.Add(testImage("a"), testImage("b"))
	require.NoError(t, err)

	b.Clear()
	assert.Equal(t, 0, b.Count())
	assert.True(t, b.CanAddMore())

	// Cleared ids may be reused
	_, err = b.Add(testImage("a"))
	assert.NoError(t, err)
}

func TestNewCapturedImageAssignsUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		img := model.NewCapturedImage([]byte("same bytes"))
		_, dup := seen[img.ID]
		require.False(t, dup)
		seen[img.ID] = struct{}{}
	}
}
