package analysis

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/snapledger/snapledger/internal/model"
	"github.com/snapledger/snapledger/internal/service"
)

const (
	defaultCacheTTL    = 15 * time.Minute
	cacheSweepInterval = 5 * time.Minute
)

// CachingGateway decorates a gateway with an in-memory result cache
// keyed by the image's content hash. A user retrying an item whose
// pixels already produced a successful draft gets the cached result
// instead of a second billable call. Failures are never cached, so a
// retry after an error always reaches the upstream gateway.
type CachingGateway struct {
	upstream service.AnalysisGateway
	cache    *gocache.Cache
}

// NewCachingGateway wraps upstream with a TTL cache. A zero ttl uses
// the default.
func NewCachingGateway(upstream service.AnalysisGateway, ttl time.Duration) *CachingGateway {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachingGateway{
		upstream: upstream,
		cache:    gocache.New(ttl, cacheSweepInterval),
	}
}

// Analyze returns a cached draft when the identical image was already
// analyzed successfully, otherwise delegates upstream.
func (c *CachingGateway) Analyze(ctx context.Context, image model.CapturedImage) (*model.DraftTransaction, error) {
	key := image.Hash()

	if cached, found := c.cache.Get(key); found {
		if draft, ok := cached.(*model.DraftTransaction); ok {
			slog.Debug("analysis cache hit", "image_id", image.ID)
			clone := *draft
			return &clone, nil
		}
	}

	draft, err := c.upstream.Analyze(ctx, image)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, draft, gocache.DefaultExpiration)
	return draft, nil
}
