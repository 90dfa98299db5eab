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
	"log/slog"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/efchatnet/efchat/backend/chat"
	"github.com/efchatnet/efchat/backend/middleware"
	"github.com/efchatnet/efchat/backend/models"
)

var validate = validator.New()

// writeResponse sends the envelope. Domain failures ride in the envelope
// status, so the HTTP status is 200 either way.
func writeResponse(w http.ResponseWriter, logger *slog.Logger, resp models.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// decodeRequest parses and validates a JSON body. A false return means the
// BadRequest envelope has already been written.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeResponse(w, logger, models.Fail(models.StatusBadRequest, "invalid request body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeResponse(w, logger, models.Fail(models.StatusBadRequest, err.Error()))
		return false
	}
	return true
}

// callerFrom resolves the chat caller from the session claims and the
// client address.
func callerFrom(r *http.Request) chat.Caller {
	c := chat.Caller{IP: clientIP(r)}
	if claims, ok := middleware.GetClaims(r); ok {
		c.UserID = claims.ChatUserID
		c.ContactID = claims.ContactID
		c.Support = claims.Support
	}
	return c
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
