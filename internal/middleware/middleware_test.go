package middleware

import (
    "bytes"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/table-reservation/internal/config"
    "github.com/iliyamo/table-reservation/internal/utils"
)

const secret = "mw-secret"

func bearer(t *testing.T, userID uint64, role string) string {
    t.Helper()
    at, err := utils.NewAccessToken(secret, userID, role, time.Minute)
    require.NoError(t, err)
    return "Bearer " + at.Token
}

func newEcho() *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    return e
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth(t *testing.T) {
    e := newEcho()
    e.GET("/me", func(c echo.Context) error {
        id, ok := CurrentUserID(c)
        return c.JSON(http.StatusOK, echo.Map{"id": id, "ok": ok, "role": CurrentRole(c)})
    }, JWTAuth(secret))

    rec := serve(e, http.MethodGet, "/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "authentication_required")

    rec = serve(e, http.MethodGet, "/me", "Bearer garbage")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    expired, err := utils.NewAccessToken(secret, 5, "CUSTOMER", -time.Minute)
    require.NoError(t, err)
    rec = serve(e, http.MethodGet, "/me", "Bearer "+expired.Token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = serve(e, http.MethodGet, "/me", bearer(t, 5, "CUSTOMER"))
    require.Equal(t, http.StatusOK, rec.Code)
    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, float64(5), body["id"])
    assert.Equal(t, true, body["ok"])
    assert.Equal(t, "CUSTOMER", body["role"])
}

func TestRequireRole(t *testing.T) {
    e := newEcho()
    e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        JWTAuth(secret), RequireRole("STAFF"))

    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bearer(t, 1, "CUSTOMER")).Code)
    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/admin", bearer(t, 1, "STAFF")).Code)
}

func rateCfg() config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            10 * time.Hour,
        KeyStrategy:    "ip_user_route",
        Prefix:         "rl",
    }
}

func TestTokenBucketRedis(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    e := newEcho()
    e.GET("/tables", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        JWTAuth(secret), NewTokenBucket(rateCfg(), rdb, zerolog.Nop()))

    alice, bob := bearer(t, 1, "CUSTOMER"), bearer(t, 2, "CUSTOMER")
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/tables", alice).Code)
    rec := serve(e, http.MethodGet, "/tables", alice)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    rec = serve(e, http.MethodGet, "/tables", alice)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
    assert.Contains(t, rec.Body.String(), "too_many_requests")

    // buckets are per user
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/tables", bob).Code)
    assert.True(t, mr.Exists("rl:ip:192.0.2.1:user:1:route:GET /tables"))
}

func TestTokenBucketRedisErrorFailsOpen(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
    defer rdb.Close()
    mr.Close()

    e := newEcho()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(rateCfg(), rdb, zerolog.Nop()))
    for i := 0; i < 4; i++ {
        assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
    }
}

func TestTokenBucketLocalFallback(t *testing.T) {
    e := newEcho()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(rateCfg(), nil, zerolog.Nop()))

    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
    rec := serve(e, http.MethodGet, "/x", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabled(t *testing.T) {
    cfg := rateCfg()
    cfg.Enabled = false
    e := newEcho()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, nil, zerolog.Nop()))
    for i := 0; i < 5; i++ {
        assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
    }
}

func TestRedisCache(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    calls := 0
    e := newEcho()
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
        KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 10,
    }
    e.GET("/tables", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, []int{1, 2, 3})
    }, NewRedisCache(cfg, rdb))

    first := serve(e, http.MethodGet, "/tables", "")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := serve(e, http.MethodGet, "/tables", "")
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, 1, calls)
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))

    mr.FastForward(2 * time.Minute)
    assert.Equal(t, "MISS", serve(e, http.MethodGet, "/tables", "").Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    e := newEcho()
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
        Prefix: "cache", MaxBodyBytes: 4,
    }
    e.GET("/big", func(c echo.Context) error {
        return c.String(http.StatusOK, "0123456789")
    }, NewRedisCache(cfg, rdb))

    serve(e, http.MethodGet, "/big", "")
    rec := serve(e, http.MethodGet, "/big", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, "0123456789", rec.Body.String())
}

func TestRedisCacheKeyAndReplay(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    calls := 0
    e := newEcho()
    e.Use(RequestID())
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache",
    }
    e.GET("/tables", func(c echo.Context) error {
        calls++
        if c.QueryParam("fail") != "" {
            return c.NoContent(http.StatusServiceUnavailable)
        }
        return c.JSON(http.StatusOK, map[string]int{"n": calls})
    }, NewRedisCache(cfg, rdb))

    first := serve(e, http.MethodGet, "/tables?a=1&b=2", "")
    second := serve(e, http.MethodGet, "/tables?b=2&a=1", "")
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"), "query order does not split entries")
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Len(t, second.Header().Values(echo.HeaderXRequestID), 1)
    assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), second.Header().Get(echo.HeaderXRequestID))

    serve(e, http.MethodGet, "/tables?fail=1", "")
    rec := serve(e, http.MethodGet, "/tables?fail=1", "")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "errors are not cached")
    assert.Equal(t, 3, calls)

    rec = serve(e, http.MethodPost, "/tables", "")
    assert.Empty(t, rec.Header().Get("X-Cache"), "method not configured")
}

func TestRequestLogger(t *testing.T) {
    var buf bytes.Buffer
    log := zerolog.New(&buf)
    e := newEcho()
    e.Use(RequestID(), RequestLogger(log))
    e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

    rec := serve(e, http.MethodGet, "/ok", "")
    require.Equal(t, http.StatusOK, rec.Code)
    id := rec.Header().Get(echo.HeaderXRequestID)
    assert.Len(t, id, 36)

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, id, line["request_id"])
    assert.Equal(t, "/ok", line["uri"])
    assert.Equal(t, float64(200), line["status"])
}
