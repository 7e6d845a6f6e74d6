package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/table-reservation/internal/config"
)

const defaultCacheTTL = 5 * time.Minute

// Headers that belong to one exchange and are never replayed from cache.
var uncachedHeaders = map[string]bool{
    echo.HeaderContentLength: true,
    echo.HeaderXRequestID:    true,
    "X-Cache":                true,
    "X-Ratelimit-Limit":      true,
    "X-Ratelimit-Remaining":  true,
    "X-Ratelimit-Key":        true,
}

// cachedResponse is the Redis value for one cached route.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer up to limit bytes.
// Once a response outgrows the limit it is marked as overflowed and the
// buffer stops growing.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int64
    overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && int64(r.buf.Len()+len(b)) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

type responseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    ttl time.Duration
}

// key hashes the parts of the request selected by cfg.KeyStrategy.  The
// query is canonicalized so parameter order does not split entries.
func (rc *responseCache) key(c echo.Context) string {
    r := c.Request()
    query := r.URL.Query().Encode()
    var parts []string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        parts = []string{c.Path()}
    case "method_route":
        parts = []string{r.Method, c.Path()}
    case "method_route_query":
        parts = []string{r.Method, c.Path(), query}
    default: // route_query
        parts = []string{c.Path(), query}
    }
    sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
    return rc.cfg.Prefix + ":" + hex.EncodeToString(sum[:16])
}

func (rc *responseCache) load(ctx context.Context, key string) (cachedResponse, bool) {
    raw, err := rc.rdb.Get(ctx, key).Bytes()
    if err != nil {
        return cachedResponse{}, false
    }
    var cr cachedResponse
    if err := json.Unmarshal(raw, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

func (rc *responseCache) store(key string, cr cachedResponse) {
    raw, err := json.Marshal(cr)
    if err != nil {
        return
    }
    // the request context may already be cancelled once the client is served
    _ = rc.rdb.Set(context.Background(), key, raw, rc.ttl).Err()
}

func (rc *responseCache) replay(c echo.Context, cr cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range cr.Header {
        if uncachedHeaders[http.CanonicalHeaderKey(k)] {
            continue
        }
        h[k] = append([]string(nil), vals...)
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(cr.Status)
    _, err := c.Response().Write(cr.Body)
    return err
}

func (rc *responseCache) handle(next echo.HandlerFunc) echo.HandlerFunc {
    return func(c echo.Context) error {
        if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
            return next(c)
        }
        key := rc.key(c)
        if cr, ok := rc.load(c.Request().Context(), key); ok {
            return rc.replay(c, cr)
        }

        rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
        c.Response().Writer = rec
        c.Response().Header().Set("X-Cache", "MISS")
        if err := next(c); err != nil {
            return err
        }
        if rec.status != http.StatusOK || rec.overflow {
            return nil
        }
        rc.store(key, cachedResponse{
            Status: rec.status,
            Header: c.Response().Header().Clone(),
            Body:   rec.buf.Bytes(),
        })
        return nil
    }
}

// NewRedisCache caches successful responses in Redis, headers included, so
// a hit is byte-identical to the original response.  The key ignores the
// caller's identity: wrap only routes whose payload is the same for every
// user.  With caching disabled or no Redis client it passes through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    rc := &responseCache{cfg: cfg, rdb: rdb, ttl: cfg.TTL}
    if rc.ttl <= 0 {
        rc.ttl = defaultCacheTTL
    }
    return rc.handle
}
