package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
	CacheTTL          time.Duration
}

const (
	SessionCookieName  = "swifttasks.sid"
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
	// SessionEvictChannel carries session ids that every instance must drop from its cache.
	SessionEvictChannel = "session_evict"
	sessionMaxAge       = 24 * time.Hour

	localSessionData      = "session_data"
	localSessionID        = "session_id"
	localSessionDestroyed = "session_destroyed"
)

// SessionUser is the shape stored in the session under "user".
type SessionUser struct {
	UserID      string  `json:"user_id"`
	Fullname    string  `json:"fullname"`
	Email       string  `json:"email"`
	AccountType string  `json:"account_type"`
	TeamID      *string `json:"team_id"`
	IsTeamOwner bool    `json:"is_team_owner"`
}

// sessionCache keeps decoded sessions for a short, fixed TTL so hot paths skip Redis.
type sessionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	data    map[string]interface{}
	expires time.Time
}

func newSessionCache(ttl time.Duration) *sessionCache {
	return &sessionCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

func (sc *sessionCache) get(sid string) (map[string]interface{}, bool) {
	if sc.ttl <= 0 {
		return nil, false
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	e, ok := sc.entries[sid]
	if !ok {
		return nil, false
	}
	if sc.now().After(e.expires) {
		delete(sc.entries, sid)
		return nil, false
	}
	return copyMap(e.data), true
}

func (sc *sessionCache) put(sid string, data map[string]interface{}) {
	if sc.ttl <= 0 {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	now := sc.now()
	// Expired entries are swept on write so the map stays bounded by live sessions.
	for k, e := range sc.entries {
		if now.After(e.expires) {
			delete(sc.entries, k)
		}
	}
	sc.entries[sid] = cacheEntry{data: copyMap(data), expires: now.Add(sc.ttl)}
}

func (sc *sessionCache) drop(sid string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.entries, sid)
}

// follow drops cached sessions named on SessionEvictChannel until the client is closed.
func (sc *sessionCache) follow(rdb *redis.Client) {
	sub := rdb.Subscribe(context.Background(), SessionEvictChannel)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := sub.Receive(ctx); err != nil {
		log.Warn().Err(err).Msg("session eviction subscribe failed, retrying in background")
	}
	go func() {
		for msg := range sub.Channel() {
			sc.drop(msg.Payload)
		}
	}()
}

// EvictSessions tells every instance to forget its cached copy of sids.
func EvictSessions(ctx context.Context, rdb *redis.Client, sids ...string) {
	for _, sid := range sids {
		if err := rdb.Publish(ctx, SessionEvictChannel, sid).Err(); err != nil {
			log.Warn().Err(err).Msg("session eviction publish failed")
		}
	}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Session returns a Fiber middleware that loads the session from Redis (through the
// in-process cache) and saves it back after the handler ran.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	cache := newSessionCache(cfg.CacheTTL)
	if cfg.CacheTTL > 0 {
		cache.follow(rdb)
	}
	return sessionHandler(rdb, cache), rdb, nil
}

func sessionHandler(rdb *redis.Client, cache *sessionCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := parseSessionCookie(c.Cookies(SessionCookieName))
		ctx := context.Background()

		var data map[string]interface{}
		if sessionID != "" {
			if cached, ok := cache.get(sessionID); ok {
				data = cached
			} else if b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes(); err == nil {
				_ = json.Unmarshal(b, &data)
				if data != nil {
					cache.put(sessionID, data)
				}
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals(localSessionData, data)
		c.Locals(userLocal, data["user"])
		c.Locals(localSessionID, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if destroyed, _ := c.Locals(localSessionDestroyed).(bool); destroyed {
			cache.drop(sessionID)
			return nil
		}
		sid, _ := c.Locals(localSessionID).(string)
		if sid == "" {
			return nil
		}
		if sid != sessionID {
			cache.drop(sessionID)
		}
		updated, _ := c.Locals(localSessionData).(map[string]interface{})
		if len(updated) == 0 {
			return nil
		}
		b, _ := json.Marshal(updated)
		if sid == sessionID {
			// An existing session is only refreshed; one destroyed meanwhile stays gone.
			if ok, err := rdb.SetXX(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Result(); err != nil || !ok {
				cache.drop(sid)
				return nil
			}
		} else {
			rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge)
		}
		// Round-trip through JSON so cached values have the same types as a Redis read.
		var normalized map[string]interface{}
		if json.Unmarshal(b, &normalized) == nil {
			cache.put(sid, normalized)
		}
		return nil
	}
}

// parseSessionCookie accepts "s:id" or "s:id.signature" and returns the id.
func parseSessionCookie(v string) string {
	if strings.HasPrefix(v, "s:") {
		parts := strings.SplitN(v[2:], ".", 2)
		return parts[0]
	}
	return v
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// SetSessionUser stores user in the session; it is persisted after the handler returns.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals(localSessionData).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	var teamID interface{}
	if user.TeamID != nil {
		teamID = *user.TeamID
	}
	data["user"] = map[string]interface{}{
		"user_id":       user.UserID,
		"fullname":      user.Fullname,
		"email":         user.Email,
		"account_type":  user.AccountType,
		"team_id":       teamID,
		"is_team_owner": user.IsTeamOwner,
	}
	c.Locals(localSessionData, data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID creates a new session ID; the cookie value is "s:"+id.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(localSessionID, newID)
	return newID
}

// DestroySession clears the session for this request; nothing is written back.
func DestroySession(c *fiber.Ctx) {
	c.Locals(localSessionData, make(map[string]interface{}))
	c.Locals(userLocal, nil)
	c.Locals(localSessionDestroyed, true)
}

// SessionCookieConfig returns the cookie options for SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	secure := cfg.IsProduction || cfg.AllowCrossSiteDev
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

// IssueSession regenerates the session id for user, drops the previous session, tracks the
// new one under user_sessions:<id> and sets the cookie. Used after login and after any
// membership change.
func IssueSession(c *fiber.Ctx, rdb *redis.Client, cfg SessionConfig, user SessionUser) error {
	old := GetSessionID(c)
	sid := RegenerateSessionID(c)
	SetSessionUser(c, user)
	if rdb != nil {
		ctx := context.Background()
		if old != "" {
			rdb.Del(ctx, SessionRedisPrefix+old)
			rdb.SRem(ctx, UserSessionsPrefix+user.UserID, old)
		}
		if err := rdb.SAdd(ctx, UserSessionsPrefix+user.UserID, sid).Err(); err != nil {
			return err
		}
	}
	cookie := SessionCookieConfig(cfg)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)
	return nil
}
