package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/iliyamo/site-inspection-api/internal/config"
)

var limiterScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// decision is the outcome of one bucket check.
type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// SubjectReader returns the subject of a signed access token without a
// storage lookup.  utils.Tokens satisfies it.
type SubjectReader interface {
	Subject(raw string) (string, bool)
}

// NewTokenBucket limits requests per key (see buildRateKey).  Buckets live
// in Redis so every instance shares them; with rdb == nil an in-process
// limiter with the same capacity and refill rate is used instead.
//
// The limiter runs ahead of route-level JWTAuth, so the user part of the
// key comes from subjects when no user is in the context yet.  A nil
// subjects keys every caller as "anon".
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, subjects SubjectReader) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return passThrough
	}
	var check func(c echo.Context, key string) (decision, bool)
	if rdb != nil {
		check = func(c echo.Context, key string) (decision, bool) { return redisCheck(c, cfg, rdb, key) }
	} else {
		local := newLocalBuckets(cfg)
		check = func(_ echo.Context, key string) (decision, bool) { return local.take(key, time.Now()), true }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c, rateSubject(c, subjects))
			d, ok := check(c, key)
			if !ok {
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))

			if !d.allowed {
				secs := int(math.Ceil(d.retry.Seconds()))
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("[ratelimit] block key=%s remaining=%d retry=%s", key, d.remaining, d.retry)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// redisCheck runs the bucket script.  ok is false when Redis failed, in
// which case the request is let through.
func redisCheck(c echo.Context, cfg config.RateLimitConfig, rdb *redis.Client, key string) (decision, bool) {
	args := []any{
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL / time.Second),
	}
	vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
	if err != nil {
		if cfg.Debug {
			c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
		}
		return decision{}, false
	}
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		if cfg.Debug {
			c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
		}
		return decision{}, false
	}
	return decision{
		allowed:   asInt64(arr[0]) == 1 || fmt.Sprint(arr[0]) == "1",
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, true
}

// localBuckets is the single-instance fallback built on x/time/rate.
// Idle limiters are evicted after cfg.TTL.
type localBuckets struct {
	mu       sync.Mutex
	cfg      config.RateLimitConfig
	buckets  map[string]*localBucket
	lastScan time.Time
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalBuckets(cfg config.RateLimitConfig) *localBuckets {
	return &localBuckets{cfg: cfg, buckets: make(map[string]*localBucket)}
}

func (l *localBuckets) take(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastScan) > l.cfg.TTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.cfg.TTL {
				delete(l.buckets, k)
			}
		}
		l.lastScan = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Limit(l.cfg.PerSecond()), l.cfg.Capacity)}
		l.buckets[key] = b
	}
	b.seen = now

	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{allowed: false, remaining: 0, retry: delay}
	}
	return decision{allowed: true, remaining: int64(b.lim.TokensAt(now))}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// rateSubject prefers the user set by JWTAuth and falls back to the subject
// of a valid bearer token.  Invalid or missing tokens count as "anon".
func rateSubject(c echo.Context, subjects SubjectReader) string {
	if uid := userID(c); uid != "anon" || subjects == nil {
		return uid
	}
	raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return "anon"
	}
	if sub, ok := subjects.Subject(raw); ok {
		return sub
	}
	return "anon"
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context, uid string) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
