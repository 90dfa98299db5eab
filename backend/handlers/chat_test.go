// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/efchatnet/efchat/backend/chat"
	"github.com/efchatnet/efchat/backend/middleware"
	"github.com/efchatnet/efchat/backend/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *middleware.Tokens) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	state := chat.NewSiteState(chat.DefaultConfig())
	svc := chat.NewService(state, chat.NewMemoryFloodGuard(nil), nil, logger)
	tokens := middleware.NewTokens("test-secret", "efchat", time.Hour)

	r := mux.NewRouter()
	r.Use(middleware.NewAuthMiddleware(tokens))
	RegisterRoutes(r,
		NewChatHandler(svc, tokens, logger),
		NewSupportHandler(chat.NewSupportService(svc), logger))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tokens
}

func postJSON(t *testing.T, srv *httptest.Server, token, path, body string) models.Response {
	t.Helper()
	req, err := http.NewRequest("POST", srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()

	// Domain failures never surface as transport errors.
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", res.StatusCode)
	}
	var resp models.Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return resp
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "", "/api/chat/register", `{"nickname":"alice"}`)
	if resp.Status != models.StatusOK {
		t.Fatalf("register failed: %s %s", resp.Status, resp.Message)
	}

	raw, _ := json.Marshal(resp.Payload)
	var auth models.AuthenticatedUser
	if err := json.Unmarshal(raw, &auth); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if auth.Token == "" || auth.User.Nickname != "alice" {
		t.Fatalf("unexpected payload %+v", auth)
	}

	// The token authenticates a ping.
	resp = postJSON(t, srv, auth.Token, "/api/chat/ping", `{"last_rooms_change":0}`)
	if resp.Status != models.StatusOK {
		t.Fatalf("ping with token failed: %s %s", resp.Status, resp.Message)
	}
}

func TestDomainErrorsRideTheEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "", "/api/chat/ping", `{"last_rooms_change":0}`)
	if resp.Status != models.StatusNotLoggedIn {
		t.Fatalf("expected not_logged_in, got %s", resp.Status)
	}

	resp = postJSON(t, srv, "", "/api/chat/room/join", `{not json`)
	if resp.Status != models.StatusBadRequest {
		t.Fatalf("expected bad_request for garbage body, got %s", resp.Status)
	}

	resp = postJSON(t, srv, "", "/api/chat/register", `{"nickname":""}`)
	if resp.Status != models.StatusBadRequest {
		t.Fatalf("expected bad_request for empty nickname, got %s", resp.Status)
	}
}
