package webhook

import (
	"time"

	"github.com/PostPilotHQ/PostPilot/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
)

// Deduper is an advisory fast path in front of the database idempotency
// guard. A hit short-circuits a known duplicate; a miss proves nothing.
type Deduper interface {
	Seen(provider, key string) bool
	Mark(provider, key string)
}

// StatsRecorder receives one sample per processed sub-event.
type StatsRecorder interface {
	Record(provider, outcome string)
}

const dedupTTL = 24 * time.Hour

// RedisDeduper remembers recently committed event ids in the shared cache.
// Entries are only written after the database transaction committed, so a
// cache hit is always a true duplicate. Cache outages degrade to DB-only.
type RedisDeduper struct{}

func (RedisDeduper) Seen(provider, key string) bool {
	val, err := cache.Get(dedupKey(provider, key))
	if err != nil {
		return false
	}
	return val == "1"
}

func (RedisDeduper) Mark(provider, key string) {
	if err := cache.Set(dedupKey(provider, key), "1", dedupTTL); err != nil {
		log.Debugf("webhook: dedup cache write failed: %v", err)
	}
}

func dedupKey(provider, key string) string {
	return "webhook:seen:" + provider + ":" + key
}
