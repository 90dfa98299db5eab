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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", "efchat", time.Hour)

	raw, err := tokens.Issue(42, 7, false, true)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.ChatUserID != 42 || claims.ContactID != 7 || claims.Anonymous || !claims.Support {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	tokens := NewTokens("test-secret", "efchat", time.Hour)
	forger := NewTokens("other-secret", "efchat", time.Hour)

	raw, err := forger.Issue(42, 0, false, false)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := tokens.Verify(raw); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}

	wrongIssuer := NewTokens("test-secret", "someone-else", time.Hour)
	raw, _ = wrongIssuer.Issue(42, 0, false, false)
	if _, err := tokens.Verify(raw); err == nil {
		t.Fatal("token from another issuer must be rejected")
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokens("test-secret", "efchat", time.Hour)
	mw := NewAuthMiddleware(tokens)

	var gotClaims *Claims
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotClaims, _ = GetClaims(r)
	})

	// No header: the request passes through anonymous.
	called, gotClaims = false, nil
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if !called || gotClaims != nil {
		t.Fatalf("missing header should pass through without claims, called=%v claims=%+v", called, gotClaims)
	}

	// Valid token: claims land in the context.
	raw, _ := tokens.Issue(42, 0, true, false)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	called, gotClaims = false, nil
	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if !called || gotClaims == nil || gotClaims.ChatUserID != 42 || !gotClaims.Anonymous {
		t.Fatalf("valid token should resolve claims, called=%v claims=%+v", called, gotClaims)
	}

	// Garbage token: transport-level 401, handler never runs.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	called = false
	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token should 401, called=%v code=%d", called, rec.Code)
	}

	// Malformed header: 401 as well.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed header should 401, got %d", rec.Code)
	}
}
