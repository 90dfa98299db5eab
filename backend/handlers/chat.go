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
	"github.com/efchatnet/efchat/backend/middleware"
	"github.com/efchatnet/efchat/backend/models"
)

// ChatHandler exposes the visitor-side chat operations over HTTP. It is a
// thin shell: decode, call the facade, encode the envelope.
type ChatHandler struct {
	svc    *chat.Service
	tokens *middleware.Tokens
	logger *slog.Logger
}

func NewChatHandler(svc *chat.Service, tokens *middleware.Tokens, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{svc: svc, tokens: tokens, logger: logger}
}

// withToken attaches a fresh session token to a successful register
// response so the client can authenticate follow-up calls.
func (h *ChatHandler) withToken(resp models.Response, contactID int) models.Response {
	if resp.Status != models.StatusOK {
		return resp
	}
	state, ok := resp.Payload.(models.ChatUserState)
	if !ok {
		return resp
	}
	token, err := h.tokens.Issue(state.ID, contactID, state.IsAnonymous, state.IsSupport)
	if err != nil {
		h.logger.Error("failed to issue session token", "user_id", state.ID, "error", err)
		return models.Fail(models.StatusUnknownError, "an unexpected error occurred")
	}
	resp.Payload = models.AuthenticatedUser{User: state, Token: token}
	return resp
}

func (h *ChatHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	c := callerFrom(r)
	resp := h.svc.Register(r.Context(), c, req.Nickname)
	writeResponse(w, h.logger, h.withToken(resp, c.ContactID))
}

func (h *ChatHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterGuestRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	c := callerFrom(r)
	resp := h.svc.RegisterGuest(r.Context(), c, req.Nickname)
	writeResponse(w, h.logger, h.withToken(resp, c.ContactID))
}

func (h *ChatHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.Logout(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) GetChatUserState(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.GetChatUserState(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) ChangeMyNickname(w http.ResponseWriter, r *http.Request) {
	var req models.NicknameRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.ChangeMyNickname(r.Context(), callerFrom(r), req.Nickname))
}

func (h *ChatHandler) SearchOnlineUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeResponse(w, h.logger, h.svc.SearchOnlineUsers(r.Context(), callerFrom(r), query))
}

func (h *ChatHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.GetPermissions(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) GetSupportEngineersOnlineCount(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.GetSupportEngineersOnlineCount(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) Ping(w http.ResponseWriter, r *http.Request) {
	var req models.PingRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	resp := h.svc.Ping(r.Context(), callerFrom(r),
		req.LastRoomsChange, req.LastUsersInRoomsChange,
		req.LastOnlineUsersChange, req.LastNotificationChange)
	writeResponse(w, h.logger, resp)
}

func (h *ChatHandler) PingRoom(w http.ResponseWriter, r *http.Request) {
	var req models.PingRoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	resp := h.svc.PingRoom(r.Context(), callerFrom(r), req.RoomID,
		req.RoomUsersLastChange, req.RoomMessagesLastChange, req.MaxMessagesCount)
	writeResponse(w, h.logger, resp)
}

func (h *ChatHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.JoinRoom(r.Context(), callerFrom(r), req.RoomID, req.Password))
}

func (h *ChatHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req models.RoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.LeaveRoom(r.Context(), callerFrom(r), req.RoomID))
}

func (h *ChatHandler) LeaveRoomPermanently(w http.ResponseWriter, r *http.Request) {
	var req models.RoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.LeaveRoomPermanently(r.Context(), callerFrom(r), req.RoomID))
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req models.PostMessageRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.PostMessage(r.Context(), callerFrom(r), req.RoomID, req.Text))
}

func (h *ChatHandler) PostMessageToUser(w http.ResponseWriter, r *http.Request) {
	var req models.PostWhisperRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.PostMessageToUser(r.Context(), callerFrom(r), req.RoomID, req.RecipientID, req.Text))
}

func (h *ChatHandler) RejectMessage(w http.ResponseWriter, r *http.Request) {
	var req models.RejectMessageRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.RejectMessage(r.Context(), callerFrom(r), req.RoomID, req.MessageID))
}

func (h *ChatHandler) CreateChatRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	resp := h.svc.CreateChatRoom(r.Context(), callerFrom(r),
		req.DisplayName, req.Private, req.Password, req.AllowAnonymous)
	writeResponse(w, h.logger, resp)
}

func (h *ChatHandler) CreateOneToOneChatRoom(w http.ResponseWriter, r *http.Request) {
	var req models.OneToOneRoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.CreateOneToOneChatRoom(r.Context(), callerFrom(r), req.SecondUserID))
}

func (h *ChatHandler) CreateSupportChatRoom(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.CreateSupportChatRoom(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) CreateSupportChatRoomManual(w http.ResponseWriter, r *http.Request) {
	var req models.SupportRoomManualRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.CreateSupportChatRoomManual(r.Context(), callerFrom(r), req.UserID))
}

func (h *ChatHandler) ChangeChatRoom(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeRoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	resp := h.svc.ChangeChatRoom(r.Context(), callerFrom(r), req.RoomID,
		req.DisplayName, req.HasPassword, req.Password, req.AllowAnonymous)
	writeResponse(w, h.logger, resp)
}

func (h *ChatHandler) DeleteChatRoom(w http.ResponseWriter, r *http.Request) {
	var req models.RoomRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.DeleteChatRoom(r.Context(), callerFrom(r), req.RoomID))
}

func (h *ChatHandler) KickUser(w http.ResponseWriter, r *http.Request) {
	var req models.RoomTargetRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.KickUser(r.Context(), callerFrom(r), req.RoomID, req.TargetID))
}

func (h *ChatHandler) KickUserPermanently(w http.ResponseWriter, r *http.Request) {
	var req models.RoomTargetRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.KickUserPermanently(r.Context(), callerFrom(r), req.RoomID, req.TargetID))
}

func (h *ChatHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.RoomTargetRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.AddAdmin(r.Context(), callerFrom(r), req.RoomID, req.TargetID))
}

func (h *ChatHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.RoomTargetRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.DeleteAdmin(r.Context(), callerFrom(r), req.RoomID, req.TargetID))
}

func (h *ChatHandler) InviteToRoom(w http.ResponseWriter, r *http.Request) {
	var req models.InviteRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.InviteToRoom(r.Context(), callerFrom(r), req.RoomID, req.UserID))
}

func (h *ChatHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.AcceptInvitation(r.Context(), callerFrom(r), req.NotificationID))
}

func (h *ChatHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.DeclineInvitation(r.Context(), callerFrom(r), req.NotificationID))
}

func (h *ChatHandler) CloseNotification(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.CloseNotification(r.Context(), callerFrom(r), req.NotificationID))
}

func (h *ChatHandler) CloseAllNotifications(w http.ResponseWriter, r *http.Request) {
	var req models.CloseAllNotificationsRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.CloseAllNotifications(r.Context(), callerFrom(r), req.UntilWhen))
}

func (h *ChatHandler) PingInitiate(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, h.logger, h.svc.PingInitiate(r.Context(), callerFrom(r)))
}

func (h *ChatHandler) AcceptChatRequest(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequestRef
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.AcceptChatRequest(r.Context(), callerFrom(r), req.RequestID))
}

func (h *ChatHandler) DeclineChatRequest(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequestRef
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	writeResponse(w, h.logger, h.svc.DeclineChatRequest(r.Context(), callerFrom(r), req.RequestID))
}
