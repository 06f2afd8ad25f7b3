package rediscache

import (
	"time"

	"github.com/tofunori/farewatch/internal/models"
)

// OfferKey names the cached raw provider response for one date pair.
func OfferKey(q models.SearchQuery) string {
	return "offers:" + q.Key()
}

// RateLimitKey names the per-minute request counter for a provider.
// The minute is part of the key so counters roll over naturally with
// the window TTL.
func RateLimitKey(provider string, now time.Time) string {
	return "rl:provider:" + provider + ":" + now.UTC().Format("200601021504")
}
