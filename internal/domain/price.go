// internal/domain/price.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistoryKey is the cache key of the seven day XRP/USD series.
const PriceHistoryKey = "xrp_7d"

type PricePoint struct {
	Time     time.Time       `json:"time"`
	PriceUSD decimal.Decimal `json:"price_usd"`
}

// PriceCacheEntry is one cached price series. It is served only while
// ExpiresAt lies in the future.
type PriceCacheEntry struct {
	ID          int64
	CacheKey    string
	Prices      []PricePoint
	LastUpdated time.Time
	ExpiresAt   time.Time
}

func (e *PriceCacheEntry) Fresh(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}
