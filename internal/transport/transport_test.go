// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

func newTestClient(t *testing.T, url string, mutate func(*ClientConfig)) *Client {
	t.Helper()
	cfg := &ClientConfig{BaseURL: url, RateLimitPerMinute: -1, Timeout: 2 * time.Second}
	if mutate != nil {
		mutate(cfg)
	}
	return NewClientWithConfig(cfg)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_PortugueseDialectAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><meta name="csrf-token" content="tok-123"></head><body></body></html>`))
		case "/chat":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "tok-123", r.Header.Get("X-CSRFToken"))
			assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Login", body["mensagem"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"resposta": "Informe seu email", "parametros": {"email": "coletando"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	payload, err := client.Send(context.Background(), "Login")
	require.NoError(t, err)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Informe seu email", obj["resposta"])
}

func TestSend_EnglishDialectAndConfiguredToken(t *testing.T) {
	var pageHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			pageHits.Add(1)
			return
		}
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])
		assert.Equal(t, "fixed", r.Header.Get("X-CSRFToken"))
		w.Write([]byte(`"plain string reply"`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(c *ClientConfig) {
		c.Dialect = DialectEnglish
		c.CSRFToken = "fixed"
	})
	payload, err := client.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "plain string reply", payload)
	assert.Equal(t, int32(0), pageHits.Load())
}

func TestSend_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusBadRequest, ErrTypeBadRequest},
		{http.StatusUnauthorized, ErrTypeForbidden},
		{http.StatusForbidden, ErrTypeForbidden},
		{http.StatusTooManyRequests, ErrTypeRateLimited},
		{http.StatusInternalServerError, ErrTypeServer},
		{http.StatusBadGateway, ErrTypeServer},
		{http.StatusNotFound, ErrTypeInvalidResponse},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, func(c *ClientConfig) { c.CSRFToken = "x" })
			_, err := client.Send(context.Background(), "oi")
			require.Error(t, err)
			assert.Equal(t, tc.want, TypeOf(err))

			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.status, ce.Status)
		})
	}
}

func TestSend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url, func(c *ClientConfig) { c.CSRFToken = "x" })
	_, err := client.Send(context.Background(), "oi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(c *ClientConfig) {
		c.CSRFToken = "x"
		c.Timeout = 20 * time.Millisecond
	})
	_, err := client.Send(context.Background(), "oi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestSend_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(c *ClientConfig) { c.CSRFToken = "x" })
	_, err := client.Send(context.Background(), "oi")
	assert.Equal(t, ErrTypeInvalidResponse, TypeOf(err))
}

func TestSend_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resposta":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(c *ClientConfig) {
		c.CSRFToken = "x"
		c.RateLimitPerMinute = 1
	})

	_, err := client.Send(context.Background(), "um")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Send(ctx, "dois")
	assert.Equal(t, ErrTypeRateLimited, TypeOf(err))
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestVerifySession(t *testing.T) {
	tests := []struct {
		name string
		body string
		want SessionInfo
	}{
		{"portuguese", `{"logado": true, "usuario": "ana@example.com", "tipo": "funcionario"}`,
			SessionInfo{LoggedIn: true, Role: model.UserStaff, User: "ana@example.com"}},
		{"english", `{"logged": true, "type": "client"}`,
			SessionInfo{LoggedIn: true, Role: model.UserClient}},
		{"anonymous", `{"logado": false}`, SessionInfo{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/verificar-sessao", r.URL.Path)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			info, err := newTestClient(t, srv.URL, nil).VerifySession(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, info)
		})
	}
}

func TestSessionCookiesAreKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			w.Write([]byte(`{"resposta":"__login_sucesso_cliente__"}`))
		case "/verificar-sessao":
			if c, err := r.Cookie("session"); err == nil && c.Value == "abc" {
				w.Write([]byte(`{"logado": true, "tipo": "cliente"}`))
				return
			}
			w.Write([]byte(`{"logado": false}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(c *ClientConfig) { c.CSRFToken = "x" })
	_, err := client.Send(context.Background(), "login")
	require.NoError(t, err)

	info, err := client.VerifySession(context.Background())
	require.NoError(t, err)
	assert.True(t, info.LoggedIn)
	assert.Equal(t, model.UserClient, info.Role)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(t, srv.URL, nil).Ping(context.Background()))

	bad := newTestClient(t, srv.URL, func(c *ClientConfig) { c.StatusPath = "/nope" })
	assert.Equal(t, ErrTypeServer, TypeOf(bad.Ping(context.Background())))
}

// =============================================================================
// CSRF TESTS
// =============================================================================

func TestScrapeCSRFToken(t *testing.T) {
	page := `<!doctype html><html><head>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width">
		<META NAME="csrf-token" CONTENT="abc&amp;def"/>
	</head></html>`
	assert.Equal(t, "abc&def", ScrapeCSRFToken(strings.NewReader(page)))
	assert.Equal(t, "", ScrapeCSRFToken(strings.NewReader("<html></html>")))
}

func TestErrorType_Is(t *testing.T) {
	err := &ClientError{Type: ErrTypeForbidden, Status: 403, Message: "access denied"}
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrServer))
	assert.Contains(t, err.Error(), "HTTP 403")
}
