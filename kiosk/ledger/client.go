// Package ledger talks to the external redemption ledger, the authoritative
// record of whether a code has been redeemed. The API is rate limited and
// occasionally errors; callers must treat every answer as possibly stale and
// never assume the claim endpoint is idempotent.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// EventMeta is the drop-level metadata the ledger returns with a status.
type EventMeta struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EndDate    string `json:"end_date"`
	ExpiryDate string `json:"expiry_date"`
}

// Status is the ledger's answer for one code. The upstream is unpredictable
// with its error/message keys, so both are carried and Errored collapses
// them.
type Status struct {
	Claimed bool       `json:"claimed"`
	Secret  string     `json:"secret"`
	Event   *EventMeta `json:"event"`

	Error    string `json:"error"`
	Message  string `json:"message"`
	MessageU string `json:"Message"`
}

// Errored reports whether the ledger answered with an error instead of a
// usable claim status.
func (s *Status) Errored() bool {
	return s.Error != "" || s.Message != "" || s.MessageU != ""
}

// Readable flattens the upstream's inconsistent error keys into one string.
func (s *Status) Readable() string {
	msg := s.Message
	if msg == "" {
		msg = s.MessageU
	}
	if s.Error != "" {
		return fmt.Sprintf("%s - %s", s.Error, msg)
	}
	return msg
}

type claimResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	MessageU   string `json:"Message"`
	StatusCode int    `json:"statusCode"`
}

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Client is the HTTP ledger client. Status reads go through a small LRU
// cache because the upstream throttles aggressively during busy drops.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    *lru.Cache
	cacheTTL time.Duration
}

type cacheEntry struct {
	status    *Status
	expiresAt time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ledger base URL is required")
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger cache: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		cache:    cache,
		cacheTTL: ttl,
	}, nil
}

// CheckStatus asks the ledger whether a code has been redeemed. API-level
// errors come back inside Status, not as a Go error; the returned error
// means the ledger was unreachable.
func (c *Client) CheckStatus(ctx context.Context, code string) (*Status, error) {
	if entry, ok := c.cache.Get(code); ok {
		cached := entry.(cacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.status, nil
		}
		c.cache.Remove(code)
	}

	start := time.Now()
	endpoint := fmt.Sprintf("%s/actions/claim-qr?qr_hash=%s", c.baseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger status check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ledger status read failed: %w", err)
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("ledger status decode failed: %w", err)
	}

	slog.Debug("Ledger status checked",
		slog.String("type", "ledger"),
		slog.Bool("claimed", status.Claimed),
		slog.Bool("errored", status.Errored()),
		slog.Duration("took", time.Since(start)))

	c.cache.Add(code, cacheEntry{status: &status, expiresAt: time.Now().Add(c.cacheTTL)})
	return &status, nil
}

// Claim redeems a code to an address. Never cached, never retried here; the
// ledger's claim endpoint is the true serialization point and must see each
// attempt exactly as the caller issued it.
func (c *Client) Claim(ctx context.Context, code, address, secret string, sendEmail bool) error {
	payload := map[string]interface{}{
		"qr_hash":   code,
		"address":   address,
		"secret":    secret,
		"sendEmail": sendEmail,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/actions/claim-qr", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger claim failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ledger claim read failed: %w", err)
	}

	var result claimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("ledger claim decode failed: %w", err)
	}

	if result.Error != "" {
		detail := result.Message
		if detail == "" {
			detail = result.MessageU
		}
		if detail == "" && result.StatusCode != 0 {
			detail = fmt.Sprintf("status %d", result.StatusCode)
		}
		if detail == "" {
			detail = "unknown details"
		}
		return fmt.Errorf("%s: %s", result.Error, detail)
	}

	// The code's local state catches up via reconciliation
	c.cache.Remove(code)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
