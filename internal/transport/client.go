// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

// Wire dialects for the outgoing chat body.
const (
	DialectPortuguese = "pt"
	DialectEnglish    = "en"
)

// maxBodySize caps how much of a reply body is read.
const maxBodySize = 1 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the AgendeID client.
type ClientConfig struct {
	// BaseURL is the backend origin (default: http://127.0.0.1:5000)
	BaseURL string

	// Endpoint paths relative to BaseURL.
	ChatPath    string // default: /chat
	SessionPath string // default: /verificar-sessao
	StatusPath  string // default: /status

	// PagePath is fetched to scrape the csrf-token meta tag (default: /)
	PagePath string

	// CSRFToken, when set, is sent as-is and no scraping happens.
	CSRFToken string

	// Dialect selects the request body key: "pt" sends {"mensagem"},
	// "en" sends {"message"} (default: pt)
	Dialect string

	// Timeout for each request (default: 15s)
	Timeout time.Duration

	// RateLimitPerMinute throttles requests client-side (default: 30).
	// Negative disables throttling.
	RateLimitPerMinute int

	// UserAgent header value (default: agendeid-chat)
	UserAgent string

	// Logger receives request diagnostics (default: slog.Default())
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:            "http://127.0.0.1:5000",
		ChatPath:           "/chat",
		SessionPath:        "/verificar-sessao",
		StatusPath:         "/status",
		PagePath:           "/",
		Dialect:            DialectPortuguese,
		Timeout:            15 * time.Second,
		RateLimitPerMinute: 30,
		UserAgent:          "agendeid-chat",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// SessionInfo is the result of a session check.
type SessionInfo struct {
	LoggedIn bool
	Role     model.UserType
	User     string
}

// Client talks to the AgendeID backend. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu           sync.Mutex
	csrfToken    string
	csrfResolved bool
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()

	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.ChatPath == "" {
		config.ChatPath = defaults.ChatPath
	}
	if config.SessionPath == "" {
		config.SessionPath = defaults.SessionPath
	}
	if config.StatusPath == "" {
		config.StatusPath = defaults.StatusPath
	}
	if config.PagePath == "" {
		config.PagePath = defaults.PagePath
	}
	if config.Dialect == "" {
		config.Dialect = defaults.Dialect
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RateLimitPerMinute == 0 {
		config.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// cookiejar.New never returns a non-nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimitPerMinute > 0 {
		burst := config.RateLimitPerMinute / 6
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RateLimitPerMinute)), burst)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		limiter:      limiter,
		logger:       logger,
		csrfToken:    config.CSRFToken,
		csrfResolved: config.CSRFToken != "",
	}
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// CHAT
// =============================================================================

// Send posts text to the chat endpoint and returns the decoded JSON payload
// (an object, a string, or whatever the server sent).
func (c *Client) Send(ctx context.Context, text string) (any, error) {
	key := "mensagem"
	if c.config.Dialect == DialectEnglish {
		key = "message"
	}
	body, err := json.Marshal(map[string]string{key: text})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "failed to marshal request", Cause: err}
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	if token := c.csrf(ctx); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ce := classifyDoError(err)
		c.logger.Warn("chat request failed", "event", "chat_send_failed", "error_type", ce.Type.String(), "error", err)
		return nil, ce
	}
	defer resp.Body.Close()

	c.logger.Debug("chat request", "event", "chat_send", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, classifyStatus(resp)
	}

	var payload any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Status: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return payload, nil
}

// =============================================================================
// SESSION AND HEALTH
// =============================================================================

type sessionResponse struct {
	Logged  *bool  `json:"logged"`
	Logado  *bool  `json:"logado"`
	Type    string `json:"type"`
	Tipo    string `json:"tipo"`
	Usuario string `json:"usuario"`
	User    string `json:"user"`
}

// VerifySession asks the backend whether the cookie session is logged in.
func (c *Client) VerifySession(ctx context.Context) (SessionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+c.config.SessionPath, nil)
	if err != nil {
		return SessionInfo{}, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SessionInfo{}, classifyDoError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SessionInfo{}, classifyStatus(resp)
	}

	var sr sessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&sr); err != nil {
		return SessionInfo{}, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode session", Cause: err}
	}

	info := SessionInfo{User: sr.Usuario}
	if info.User == "" {
		info.User = sr.User
	}
	switch {
	case sr.Logged != nil:
		info.LoggedIn = *sr.Logged
	case sr.Logado != nil:
		info.LoggedIn = *sr.Logado
	}
	if sr.Type != "" {
		info.Role = model.ParseUserType(sr.Type)
	} else {
		info.Role = model.ParseUserType(sr.Tipo)
	}
	return info, nil
}

// Ping checks that the backend answers on its status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+c.config.StatusPath, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyDoError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", c.config.UserAgent)
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Type: ErrTypeRateLimited, Message: "client rate limit", Cause: err}
	}
	return nil
}

// csrf returns the CSRF token, scraping the page once when none is
// configured. A failed scrape is logged and not retried.
func (c *Client) csrf(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfResolved {
		return c.csrfToken
	}
	c.csrfResolved = true

	token, err := c.fetchCSRF(ctx)
	if err != nil {
		c.logger.Warn("csrf token unavailable", "event", "csrf_scrape_failed", "error", err)
		return ""
	}
	c.csrfToken = token
	return token
}

func (c *Client) fetchCSRF(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+c.config.PagePath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyDoError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(resp)
	}
	return ScrapeCSRFToken(io.LimitReader(resp.Body, maxBodySize)), nil
}

// ScrapeCSRFToken returns the content of the first <meta name="csrf-token">
// tag in r, or "" when none is present.
func ScrapeCSRFToken(r io.Reader) string {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(name, "csrf-token") {
				return content
			}
		}
	}
}
