package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/absolutely-right/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	// DefaultRate applies when no rate is configured
	DefaultRate = "60-M"
	// rateLimitPrefix namespaces limiter keys in Redis
	rateLimitPrefix = "absolutely_right_limiter"
)

// NewRedisClient parses redisURL and verifies the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RateLimit limits requests per client IP using a Redis-backed ulule limiter.
// rate uses the limiter format, e.g. "5-S" or "100-M".
func RateLimit(client *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return rateLimitWithStore(store, rate)
}

func rateLimitWithStore(store limiter.Store, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(limitReached),
	)
	return mw.Handler, nil
}

// limitReached tells clients when the window resets so uploads can resume
// instead of dropping rows. The limiter sets X-RateLimit-Reset before calling it.
func limitReached(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(w.Header().Get("X-RateLimit-Reset"), time.Now()), 10))
	respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", nil)
}

func retryAfterSeconds(reset string, now time.Time) int64 {
	unix, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return 1
	}
	if secs := unix - now.Unix(); secs > 0 {
		return secs
	}
	return 1
}
