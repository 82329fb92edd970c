package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
)

// MockResult scripts the outcome for one image id.
type MockResult struct {
	Draft *model.DraftTransaction
	Err   error
}

// MockGateway is a test implementation of service.AnalysisGateway. It
// returns scripted results per image id and can optionally hold each
// call on a release channel so tests can control completion order.
type MockGateway struct {
	results  map[string]MockResult
	gates    map[string]chan struct{}
	fallback MockResult
	calls    []string
	mu       sync.Mutex
}

// NewMockGateway creates an empty mock that fails unknown images.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		results: make(map[string]MockResult),
		gates:   make(map[string]chan struct{}),
		fallback: MockResult{
			Err: &common.AnalysisError{Message: "no scripted result"},
		},
	}
}

// Script sets the result returned for the given image id.
func (m *MockGateway) Script(imageID string, result MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[imageID] = result
}

// ScriptDraft is shorthand for scripting a successful analysis.
func (m *MockGateway) ScriptDraft(imageID string, draft model.DraftTransaction) {
	m.Script(imageID, MockResult{Draft: &draft})
}

// ScriptFailure is shorthand for scripting a failed analysis.
func (m *MockGateway) ScriptFailure(imageID, message string) {
	m.Script(imageID, MockResult{Err: &common.AnalysisError{Message: message}})
}

// Gate makes Analyze for the given image block until the returned
// channel is closed, letting tests force a completion order.
func (m *MockGateway) Gate(imageID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	gate := make(chan struct{})
	m.gates[imageID] = gate
	return gate
}

// Calls returns the image ids analyzed so far, in call order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Analyze returns the scripted result for the image, honoring any gate.
func (m *MockGateway) Analyze(ctx context.Context, image model.CapturedImage) (*model.DraftTransaction, error) {
	m.mu.Lock()
	m.calls = append(m.calls, image.ID)
	gate := m.gates[image.ID]
	result, ok := m.results[image.ID]
	if !ok {
		result = m.fallback
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if result.Err != nil {
		return nil, result.Err
	}
	if result.Draft == nil {
		return nil, fmt.Errorf("scripted result for %s has neither draft nor error", image.ID)
	}

	clone := *result.Draft
	return &clone, nil
}
