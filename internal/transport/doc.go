// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport provides the HTTP client for the AgendeID backend.
//
// The client posts chat messages to /chat, checks the login session at
// /verificar-sessao, and probes /status for connectivity. It keeps session
// cookies in a jar, attaches the CSRF token (configured or scraped from the
// page's csrf-token meta tag), and throttles requests to the backend's
// published rate.
//
// Failures are returned as *ClientError values whose Type distinguishes the
// causes the chat engine reports differently: unreachable, timeout, bad
// request, forbidden, server error, rate limited, and invalid response.
//
// # Usage
//
//	client := transport.NewClientWithConfig(&transport.ClientConfig{
//	    BaseURL: "http://127.0.0.1:5000",
//	})
//	payload, err := client.Send(ctx, "Login")
//
// The client does not retry. Retry accounting belongs to the caller.
package transport
