package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PostPilotHQ/PostPilot/internal/pkg/cache"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/database"
	"github.com/gofiber/fiber/v2/log"
)

const webhookOutcomesKey = "webhook:counters:outcomes"

// AddWebhookOutcome increments the pending delivery counter for a
// provider/outcome pair in Redis
func AddWebhookOutcome(provider, outcome string) error {
	ctx := context.Background()
	field := provider + ":" + outcome
	return cache.GetClient().HIncrBy(ctx, webhookOutcomesKey, field, 1).Err()
}

// Recorder adapts the Redis counters to the webhook processor's
// StatsRecorder. Counter failures are logged and ignored; delivery handling
// never depends on the stats side channel.
type Recorder struct{}

func (Recorder) Record(provider, outcome string) {
	if err := AddWebhookOutcome(provider, outcome); err != nil {
		log.Debugf("webhook counter increment failed: %v", err)
	}
}

// FlushAll flushes pending delivery counters to the database
func FlushAll() error {
	return flushOutcomesToTable()
}

// flushOutcomesToTable drains the Redis hash atomically and applies batched
// increments to webhook_daily_stats.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushOutcomesToTable() error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", webhookOutcomesKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", webhookOutcomesKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type row struct {
		provider string
		outcome  string
		inc      int64
	}
	rows := make([]row, 0, len(data))
	for k, v := range data {
		provider, outcome, found := strings.Cut(k, ":")
		if !found || provider == "" || outcome == "" {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		rows = append(rows, row{provider: provider, outcome: outcome, inc: inc})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].provider != rows[j].provider {
			return rows[i].provider < rows[j].provider
		}
		return rows[i].outcome < rows[j].outcome
	})

	day := time.Now().UTC().Format("2006-01-02")
	now := time.Now()

	var builder strings.Builder
	args := make([]interface{}, 0, len(rows)*6)
	builder.WriteString("INSERT INTO webhook_daily_stats (day, provider, outcome, count, created_at, updated_at) VALUES ")
	for i, r := range rows {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?,?,?,?,?,?)")
		args = append(args, day, r.provider, r.outcome, r.inc, now, now)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE count = count + VALUES(count), updated_at = VALUES(updated_at)")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
