package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/models"
	"github.com/benvon/absolutely-right/internal/services/signing"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// SetPath is the collector endpoint that stores one daily row
	SetPath = "/api/set"
	// DefaultTimeout bounds a single upload request
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimitRetries is how often one row is retried after a 429
	DefaultRateLimitRetries = 3
	// MaxRetryWait caps a single Retry-After wait
	MaxRetryWait = 65 * time.Second

	defaultRetryWait = time.Second
	maxErrorBody     = 512
)

// HTTPUploader posts rows to a collector's set endpoint
type HTTPUploader struct {
	endpoint         string
	client           *http.Client
	logger           *zap.Logger
	rateLimitRetries int
	sleep            func(ctx context.Context, d time.Duration) error
}

// HTTPOption configures an HTTPUploader
type HTTPOption func(*HTTPUploader)

// WithHTTPClient replaces the underlying client. The bearer transport is not
// added to a replaced client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(u *HTTPUploader) { u.client = c }
}

// WithRateLimitRetries sets how often a rate limited row is retried
func WithRateLimitRetries(n int) HTTPOption {
	return func(u *HTTPUploader) {
		if n >= 0 {
			u.rateLimitRetries = n
		}
	}
}

// WithLogger sets the logger used for per-row diagnostics
func WithLogger(l *zap.Logger) HTTPOption {
	return func(u *HTTPUploader) { u.logger = l }
}

// NewHTTPUploader creates an uploader for the collector at baseURL. When secret
// is set every request carries a short-lived HS256 bearer token.
func NewHTTPUploader(baseURL, secret string, timeout time.Duration, opts ...HTTPOption) (*HTTPUploader, error) {
	if baseURL == "" {
		return nil, errors.New("upload URL is empty")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("upload URL must be http or https: %s", logger.SanitizeURL(baseURL))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if secret != "" {
		client.Transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, &signedTokenSource{secret: secret, now: time.Now}),
			Base:   http.DefaultTransport,
		}
	}

	u := &HTTPUploader{
		endpoint: strings.TrimRight(baseURL, "/") + SetPath,
		client:           client,
		logger:           zap.NewNop(),
		rateLimitRetries: DefaultRateLimitRetries,
		sleep:            sleepContext,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Endpoint returns the full URL rows are posted to
func (u *HTTPUploader) Endpoint() string {
	return u.endpoint
}

// Upload posts one row. A 429 is retried after the collector's Retry-After
// so a long backfill is paced by the rate limit instead of losing rows.
func (u *HTTPUploader) Upload(ctx context.Context, row models.DailyRow) Result {
	body, err := json.Marshal(row)
	if err != nil {
		return Failed(fmt.Errorf("failed to encode row: %w", err))
	}

	for attempt := 0; ; attempt++ {
		res, wait, limited := u.post(ctx, row, body)
		if !limited || attempt >= u.rateLimitRetries {
			return res
		}

		u.logger.Info("upload_rate_limited",
			zap.String("day", row.Day),
			zap.Int("attempt", attempt+1),
			zap.Duration("retry_after", wait))
		if err := u.sleep(ctx, wait); err != nil {
			return Aborted(fmt.Errorf("upload cancelled: %w", err))
		}
	}
}

// post sends one attempt. limited reports a 429 together with the wait it asked for.
func (u *HTTPUploader) post(ctx context.Context, row models.DailyRow, body []byte) (res Result, wait time.Duration, limited bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return Aborted(fmt.Errorf("failed to create request: %w", err)), 0, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Aborted(fmt.Errorf("upload cancelled: %w", ctx.Err())), 0, false
		}
		u.logger.Debug("upload_request_failed",
			zap.String("day", row.Day),
			zap.String("error", logger.SanitizeError(err)))
		return Failed(fmt.Errorf("request failed: %w", err)), 0, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait = retryAfter(resp.Header.Get("Retry-After"), time.Now())
		limited = true
	}
	return u.classify(row, resp), wait, limited
}

// retryAfter reads a Retry-After value in seconds or as an HTTP date
func retryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultRetryWait
	}

	var wait time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		wait = at.Sub(now)
	} else {
		return defaultRetryWait
	}

	if wait < 0 {
		return 0
	}
	if wait > MaxRetryWait {
		return MaxRetryWait
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (u *HTTPUploader) classify(row models.DailyRow, resp *http.Response) Result {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Succeeded()
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       logger.SanitizeString(strings.TrimSpace(string(snippet)), maxErrorBody),
	}
	u.logger.Debug("upload_rejected",
		zap.String("day", row.Day),
		zap.Int("status", resp.StatusCode),
		zap.String("body", err.Body))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Aborted(err)
	}
	return Failed(err)
}

// StatusError is a non-2xx collector response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("collector returned status %d: %s", e.StatusCode, e.Body)
}

// signedTokenSource mints a fresh signed token whenever the cached one expires
type signedTokenSource struct {
	secret string
	now    func() time.Time
}

func (s *signedTokenSource) Token() (*oauth2.Token, error) {
	now := s.now()
	raw, err := signing.Sign(s.secret, now)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		// Refresh a little early so a token never expires in flight
		Expiry: now.Add(signing.DefaultTTL - time.Minute),
	}, nil
}
