package edit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapledger/snapledger/internal/model"
)

type recordingRunner struct {
	failOn   Command
	commands []Command
}

func (r *recordingRunner) Run(cmd Command) error {
	if r.failOn != nil && reflect.DeepEqual(cmd, r.failOn) {
		return errors.New("editor unavailable")
	}
	r.commands = append(r.commands, cmd)
	return nil
}

func sampleReceipt() model.BatchReceipt {
	return model.BatchReceipt{
		ID:       "receipt-1",
		ImageRef: "image-1",
		Index:    4,
		Transaction: model.DraftTransaction{
			Merchant: "Corner Store",
			Total:    1250,
		},
	}
}

func TestEditOrdinalConversion(t *testing.T) {
	tests := []struct {
		name      string
		uiOrdinal int
		wantIndex int
	}{
		{name: "first position", uiOrdinal: 1, wantIndex: 0},
		{name: "hundredth position", uiOrdinal: 100, wantIndex: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Edit(sampleReceipt(), tt.uiOrdinal)
			require.NoError(t, err)

			idx, ok := plan.Commands[0].(SetEditingIndex)
			require.True(t, ok)
			assert.Equal(t, tt.wantIndex, idx.Index)
		})
	}
}

func TestEditRejectsNonPositiveOrdinal(t *testing.T) {
	for _, ordinal := range []int{0, -1} {
		_, err := Edit(sampleReceipt(), ordinal)
		assert.Error(t, err, "ordinal %d", ordinal)
	}
}

// The command order is a contract: position context first, then the
// transaction, then mode, then navigation.
func TestEditCommandOrder(t *testing.T) {
	plan, err := Edit(sampleReceipt(), 3)
	require.NoError(t, err)

	assert.Equal(t, "receipt-1", plan.ReceiptID)
	require.Len(t, plan.Commands, 4)

	_, ok := plan.Commands[0].(SetEditingIndex)
	assert.True(t, ok)
	_, ok = plan.Commands[1].(SetTransaction)
	assert.True(t, ok)

	mode, ok := plan.Commands[2].(SetEditorMode)
	require.True(t, ok)
	assert.Equal(t, ModeExisting, mode.Mode)

	nav, ok := plan.Commands[3].(Navigate)
	require.True(t, ok)
	assert.Equal(t, EditorRoute, nav.Route)
}

func TestEditAttachesThumbnail(t *testing.T) {
	receipt := sampleReceipt()
	require.Empty(t, receipt.Transaction.ImageRef)

	plan, err := Edit(receipt, 1)
	require.NoError(t, err)

	setTx, ok := plan.Commands[1].(SetTransaction)
	require.True(t, ok)
	assert.Equal(t, "image-1", setTx.Transaction.ImageRef)
	assert.Equal(t, "Corner Store", setTx.Transaction.Merchant)
}

func TestEditWithoutThumbnailLeavesImageRef(t *testing.T) {
	receipt := sampleReceipt()
	receipt.ImageRef = ""
	receipt.Transaction.ImageRef = "already-set"

	plan, err := Edit(receipt, 1)
	require.NoError(t, err)

	setTx := plan.Commands[1].(SetTransaction)
	assert.Equal(t, "already-set", setTx.Transaction.ImageRef)
}

func TestRunExecutesInOrder(t *testing.T) {
	plan, err := Edit(sampleReceipt(), 2)
	require.NoError(t, err)

	runner := &recordingRunner{}
	require.NoError(t, Run(runner, plan))
	assert.Equal(t, plan.Commands, runner.commands)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	plan, err := Edit(sampleReceipt(), 2)
	require.NoError(t, err)

	runner := &recordingRunner{failOn: plan.Commands[1]}
	err = Run(runner, plan)
	require.Error(t, err)

	// Only the command before the failure ran; nothing after it did.
	require.Len(t, runner.commands, 1)
	assert.Equal(t, plan.Commands[0], runner.commands[0])
}
