// Package health gathers the runtime, traffic and dependency status served on /health.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"swifttasks-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DBPinger is optional. If nil, the database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// GormPinger pings the pool behind a gorm handle.
type GormPinger struct {
	DB *gorm.DB
}

func (p GormPinger) Ping() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Probe is an external HTTP dependency checked for reachability.
type Probe struct {
	Name string
	URL  string
}

type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapInMB int `json:"heapInUseMb"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// CollectHealth reads the traffic counters kept by middleware.HealthMarker, pings the
// database and Redis, and checks each probe. Status is "ok" only when database and Redis
// are both connected.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, probes []Probe) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disconnected"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()

	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"

			vals, _ := rdb.MGet(ctx,
				middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
				middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
			).Result()
			str := func(i int) string {
				if i < len(vals) {
					if s, ok := vals[i].(string); ok {
						return s
					}
				}
				return ""
			}

			if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
				startTimeMs = t
			} else {
				rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
			}
			stats.TotalRequests, _ = strconv.Atoi(str(0))
			stats.FailedCount, _ = strconv.Atoi(str(1))
			stats.SuccessCount = stats.TotalRequests - stats.FailedCount
			if stats.TotalRequests > 0 {
				stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
			}
			timeSum, _ := strconv.ParseFloat(str(2), 64)
			countSum, _ := strconv.Atoi(str(3))
			if countSum > 0 {
				stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
			}
			if last := str(5); last != "" {
				var lastReq map[string]interface{}
				_ = json.Unmarshal([]byte(last), &lastReq)
				stats.LastRequest = lastReq
			}
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapInMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	for _, p := range probes {
		if p.URL == "" {
			continue
		}
		ms := httpPing(ctx, p.URL, 3*time.Second)
		status := "unreachable"
		if ms != nil {
			status = "reachable"
		}
		result.Dependencies[p.Name] = DepStatus{Status: status, PingMs: ms}
	}

	if dbStatus == "connected" && redisStatus == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

// RecentErrors returns up to limit entries from the error log, newest first.
func RecentErrors(ctx context.Context, rdb *redis.Client, limit int64) ([]map[string]interface{}, error) {
	entries, err := rdb.LRange(ctx, middleware.KeyErrorLog, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reset clears the traffic counters and the error log and restarts the uptime clock.
func Reset(ctx context.Context, rdb *redis.Client, now time.Time) error {
	keys := []string{
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog,
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(now.UnixMilli(), 10), 0).Err()
}

func httpPing(ctx context.Context, url string, timeout time.Duration) *int64 {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	ms := time.Since(start).Milliseconds()
	return &ms
}
