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
	"log/slog"
	"net/http"

	"github.com/efchatnet/efchat/backend/chat"
	"github.com/efchatnet/efchat/backend/models"
)

// SupportHandler exposes the support-side operations over HTTP.
type SupportHandler struct {
	svc    *chat.SupportService
	logger *slog.Logger
}

func NewSupportHandler(svc *chat.SupportService, logger *slog.Logger) *SupportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SupportHandler{svc: svc, logger: logger}
}

func (h *SupportHandler) EnterSupport(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.EnterSupport(r.Context(), callerFrom(r)))
}

func (h *SupportHandler) LeaveSupport(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.LeaveSupport(r.Context(), callerFrom(r)))
}

func (h *SupportHandler) SupportPing(w http.ResponseWriter, r *http.Request) {
	var req models.SupportPingRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.SupportPing(r.Context(), callerFrom(r), req.LastChange))
}

func (h *SupportHandler) TakeRoom(w http.ResponseWriter, r *http.Request) {
	var req models.RoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.SupportTakeRoom(r.Context(), callerFrom(r), req.RoomID))
}

func (h *SupportHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req models.RoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.SupportLeaveRoom(r.Context(), callerFrom(r), req.RoomID))
}

func (h *SupportHandler) InitiateChatByUserID(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateByUserRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.InitiateChatByUserID(r.Context(), callerFrom(r), req.UserID))
}

func (h *SupportHandler) InitiateChatByContactID(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateByContactRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.InitiateChatByContactID(r.Context(), callerFrom(r), req.ContactID))
}
