package analysis

import (
	"context"
	"errors"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

// RetryingGateway decorates a gateway with automatic retries for
// transient failures. Non-retryable failures (a parseable response the
// model simply got wrong, a rejected image) pass through immediately.
type RetryingGateway struct {
	upstream service.AnalysisGateway
	opts     service.RetryOptions
}

// NewRetryingGateway wraps upstream with the given retry policy.
func NewRetryingGateway(upstream service.AnalysisGateway, opts service.RetryOptions) *RetryingGateway {
	return &RetryingGateway{
		upstream: upstream,
		opts:     opts,
	}
}

// Analyze delegates upstream, retrying with backoff while the failure
// looks transient.
func (r *RetryingGateway) Analyze(ctx context.Context, image model.CapturedImage) (*model.DraftTransaction, error) {
	var draft *model.DraftTransaction

	err := common.WithRetry(ctx, func() error {
		result, analyzeErr := r.upstream.Analyze(ctx, image)
		if analyzeErr != nil {
			var analysisErr *common.AnalysisError
			if errors.As(analyzeErr, &analysisErr) && !common.IsRetryable(analysisErr.Err) {
				return &common.RetryableError{Err: analyzeErr, Retryable: false}
			}
			return analyzeErr
		}
		draft = result
		return nil
	}, r.opts)
	if err != nil {
		return nil, err
	}

	return draft, nil
}
