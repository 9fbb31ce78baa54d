package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/storage"
)

// FarmReader is the chain reader being cached.
type FarmReader interface {
	GetFarmSwap(ctx context.Context, f *farm.Farm) (*farm.Quote, error)
	GetFarmInfo(ctx context.Context, f *farm.Farm) (*farm.FarmInfo, error)
	GetUserFarmInfo(ctx context.Context, f *farm.Farm) (*farm.UserFarmInfo, error)
}

// CachedReader serves pool quotes from a short-lived cache. Farm and user
// reads always go to the chain. Cache failures fall through to the reader.
type CachedReader struct {
	inner  FarmReader
	quotes storage.QuoteCache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedReader(inner FarmReader, quotes storage.QuoteCache, ttl time.Duration, logger *logrus.Logger) *CachedReader {
	if ttl <= 0 {
		ttl = constants.DefaultQuoteTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CachedReader{inner: inner, quotes: quotes, ttl: ttl, logger: logger}
}

func (r *CachedReader) GetFarmSwap(ctx context.Context, f *farm.Farm) (*farm.Quote, error) {
	q, ok, err := r.quotes.GetQuote(ctx, f.ID)
	if err != nil {
		r.logger.WithError(err).WithField("farm", f.ID).Debug("quote cache read failed")
	}
	if ok && q.ValidFor(f) {
		return q, nil
	}

	q, err = r.inner.GetFarmSwap(ctx, f)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, farm.ErrEmptyRead
	}
	if err := r.quotes.SetQuote(ctx, q, r.ttl); err != nil {
		r.logger.WithError(err).WithField("farm", f.ID).Debug("quote cache write failed")
	}
	return q, nil
}

func (r *CachedReader) GetFarmInfo(ctx context.Context, f *farm.Farm) (*farm.FarmInfo, error) {
	return r.inner.GetFarmInfo(ctx, f)
}

func (r *CachedReader) GetUserFarmInfo(ctx context.Context, f *farm.Farm) (*farm.UserFarmInfo, error) {
	return r.inner.GetUserFarmInfo(ctx, f)
}

// InvalidateQuote drops the cached quote so the next read hits the chain.
func (r *CachedReader) InvalidateQuote(ctx context.Context, farmID string) error {
	return r.quotes.DeleteQuote(ctx, farmID)
}
