package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for the global request counters.
// Exported for use by the health service (reset, collect).
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"

	errorLogSize = 50
)

// HealthMarker records request stats in Redis (skip /, /health*, /metrics, favicon).
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || path == "/metrics" || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		lastReq := map[string]interface{}{
			"time":   time.Now(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		}
		b, _ := json.Marshal(lastReq)
		ctx := context.Background()
		_, _ = rdb.Set(ctx, KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Result()
		if status := c.Response().StatusCode(); status >= 500 {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
			entry, _ := json.Marshal(map[string]interface{}{
				"time":   time.Now(),
				"path":   c.OriginalURL(),
				"method": c.Method(),
				"status": status,
			})
			_, _ = rdb.LPush(ctx, KeyErrorLog, entry).Result()
			_, _ = rdb.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1).Result()
		}
		return err
	}
}
