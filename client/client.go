// Package client talks to the remote quest backend and owns the cached copy
// of the current user's record. The cache is replaced wholesale on every
// successful fetch and optionally mirrored to redis; it is never merged.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/utils"
)

// ErrAlreadyCompleted marks the backend's "already completed today" rejection,
// which callers treat as a soft success.
var ErrAlreadyCompleted = errors.New("task already completed today")

const userCacheKeyPrefix = "solquest:user:"

// Options configure a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
	CacheTTL      time.Duration
	MirrorToRedis bool
}

// Client is the HTTP client for the quest backend.
type Client struct {
	base     string
	http     *http.Client
	limiter  *rate.Limiter
	log      *zap.SugaredLogger
	cacheTTL time.Duration
	mirror   bool

	mu      sync.RWMutex
	current *models.UserRecord
}

// New creates a backend client.
func New(opts Options, log *zap.SugaredLogger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 120
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute/4+1),
		log:      log,
		cacheTTL: opts.CacheTTL,
		mirror:   opts.MirrorToRedis,
	}
}

// CurrentUserData returns a copy of the cached user record, or nil when no
// user is logged in. Synchronous: never touches the network.
func (c *Client) CurrentUserData() *models.UserRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// ClearUserData drops the cached record, e.g. on wallet disconnect.
func (c *Client) ClearUserData() {
	c.mu.Lock()
	prev := c.current
	c.current = nil
	c.mu.Unlock()

	if c.mirror && prev != nil {
		utils.CacheDel(userCacheKeyPrefix + prev.WalletAddress)
	}
}

// setCurrent replaces the whole cached record. Partial merges are forbidden.
func (c *Client) setCurrent(rec *models.UserRecord) {
	c.mu.Lock()
	c.current = rec.Clone()
	c.mu.Unlock()

	if c.log != nil && rec != nil {
		c.log.Debugw("user record cache replaced", "wallet", rec.WalletAddress, "points", rec.Points)
	}
	if c.mirror && rec != nil {
		utils.CacheSetJSON(userCacheKeyPrefix+rec.WalletAddress, rec, c.cacheTTL)
	}
}

type loginRequest struct {
	WalletAddress    string `json:"wallet_address"`
	Signature        string `json:"signature"`
	TwitterUsername  string `json:"twitter_username,omitempty"`
	TelegramUsername string `json:"telegram_username,omitempty"`
}

// LoginOrRegister authenticates the wallet with a signed message and returns
// the (possibly freshly created) user record.
func (c *Client) LoginOrRegister(ctx context.Context, address, signatureBase64, twitter, telegram string) (*models.UserRecord, error) {
	body := loginRequest{
		WalletAddress:    address,
		Signature:        signatureBase64,
		TwitterUsername:  twitter,
		TelegramUsername: telegram,
	}

	var rec models.UserRecord
	if err := c.doJSON(ctx, http.MethodPost, "/login", body, &rec); err != nil {
		return nil, err
	}
	if rec.WalletAddress == "" {
		return nil, fmt.Errorf("login response missing wallet address")
	}
	c.setCurrent(&rec)
	return rec.Clone(), nil
}

// GetUserData fetches the user record and replaces the cache.
func (c *Client) GetUserData(ctx context.Context, address string) (*models.UserRecord, error) {
	var rec models.UserRecord
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(address), nil, &rec); err != nil {
		return nil, err
	}
	if rec.WalletAddress == "" {
		return nil, fmt.Errorf("user response missing wallet address")
	}
	c.setCurrent(&rec)
	return rec.Clone(), nil
}

type completeTaskRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
	TaskID        string `json:"task_id"`
}

// CompleteTaskResult distinguishes the backend's two success shapes: a
// pending marker (points will be credited later) or a full user record
// (credited immediately).
type CompleteTaskResult struct {
	Pending bool
	Record  *models.UserRecord
}

// CompleteTask submits a signed task completion. Errors carrying the
// backend's "already completed" marker satisfy errors.Is(err, ErrAlreadyCompleted).
func (c *Client) CompleteTask(ctx context.Context, address, signatureBase64, taskID string) (*CompleteTaskResult, error) {
	body := completeTaskRequest{
		WalletAddress: address,
		Signature:     signatureBase64,
		TaskID:        taskID,
	}

	raw, err := c.doRaw(ctx, http.MethodPost, "/complete-task", body)
	if err != nil {
		return nil, err
	}

	// Three disjoint shapes: {"status":"pending"}, a full user record, or an
	// error object. A pending marker wins over an error field.
	var probe struct {
		Status        string `json:"status"`
		Error         string `json:"error"`
		Message       string `json:"message"`
		WalletAddress string `json:"wallet_address"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode complete-task response: %w", err)
	}

	if probe.Status == "pending" {
		return &CompleteTaskResult{Pending: true}, nil
	}

	if probe.Error != "" {
		msg := probe.Error
		if probe.Message != "" {
			msg = probe.Message
		}
		if isAlreadyCompletedMessage(msg) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, msg)
		}
		return nil, fmt.Errorf("complete task rejected: %s", msg)
	}

	if probe.WalletAddress != "" {
		var rec models.UserRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode user record: %w", err)
		}
		c.setCurrent(&rec)
		return &CompleteTaskResult{Record: rec.Clone()}, nil
	}

	return nil, fmt.Errorf("complete task returned no result")
}

// GetLeaderboard fetches one page of ranking data. Pages are never cached.
func (c *Client) GetLeaderboard(ctx context.Context, page, limit int) (*models.LeaderboardPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var data models.LeaderboardPage
	if err := c.doJSON(ctx, http.MethodGet, "/leaderboard?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	if data.Users == nil {
		return nil, fmt.Errorf("leaderboard response missing users")
	}
	return &data, nil
}

func isAlreadyCompletedMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already completed") || strings.Contains(msg, "今日已完成")
}

// doJSON performs a request and decodes a 2xx JSON body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// doRaw performs a request and returns the body bytes. Non-2xx responses with
// a JSON error field become errors carrying the backend message; complete-task
// error shapes are handled by the caller, so 2xx bodies pass through as-is.
func (c *Client) doRaw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Status  string `json:"status"`
		}
		if json.Unmarshal(raw, &apiErr) == nil {
			// The backend signals "accepted as pending" with a 2xx, but be
			// lenient about error payloads that still carry a message.
			msg := apiErr.Error
			if msg == "" {
				msg = apiErr.Message
			}
			if msg != "" {
				if isAlreadyCompletedMessage(msg) {
					return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, msg)
				}
				return nil, fmt.Errorf("backend error (%d): %s", resp.StatusCode, msg)
			}
		}
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	return raw, nil
}
