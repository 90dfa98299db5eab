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
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes wires the chat API onto the router.
func RegisterRoutes(r *mux.Router, chat *ChatHandler, support *SupportHandler) {
	api := r.PathPrefix("/api/chat").Subrouter()

	// Session and identity
	api.HandleFunc("/register", chat.Register).Methods("POST")
	api.HandleFunc("/register-guest", chat.RegisterGuest).Methods("POST")
	api.HandleFunc("/logout", chat.Logout).Methods("POST")
	api.HandleFunc("/state", chat.GetChatUserState).Methods("GET")
	api.HandleFunc("/nickname", chat.ChangeMyNickname).Methods("POST")
	api.HandleFunc("/permissions", chat.GetPermissions).Methods("GET")
	api.HandleFunc("/users/search", chat.SearchOnlineUsers).Methods("GET")

	// Polling
	api.HandleFunc("/ping", chat.Ping).Methods("POST")
	api.HandleFunc("/room/ping", chat.PingRoom).Methods("POST")

	// Rooms and messages
	api.HandleFunc("/room/join", chat.JoinRoom).Methods("POST")
	api.HandleFunc("/room/leave", chat.LeaveRoom).Methods("POST")
	api.HandleFunc("/room/leave-permanently", chat.LeaveRoomPermanently).Methods("POST")
	api.HandleFunc("/room/message", chat.PostMessage).Methods("POST")
	api.HandleFunc("/room/whisper", chat.PostMessageToUser).Methods("POST")
	api.HandleFunc("/room/message/reject", chat.RejectMessage).Methods("POST")
	api.HandleFunc("/room/create", chat.CreateChatRoom).Methods("POST")
	api.HandleFunc("/room/one-to-one", chat.CreateOneToOneChatRoom).Methods("POST")
	api.HandleFunc("/room/support", chat.CreateSupportChatRoom).Methods("POST")
	api.HandleFunc("/room/support-manual", chat.CreateSupportChatRoomManual).Methods("POST")
	api.HandleFunc("/room/change", chat.ChangeChatRoom).Methods("POST")
	api.HandleFunc("/room/delete", chat.DeleteChatRoom).Methods("POST")
	api.HandleFunc("/room/kick", chat.KickUser).Methods("POST")
	api.HandleFunc("/room/kick-permanently", chat.KickUserPermanently).Methods("POST")
	api.HandleFunc("/room/admin/add", chat.AddAdmin).Methods("POST")
	api.HandleFunc("/room/admin/delete", chat.DeleteAdmin).Methods("POST")
	api.HandleFunc("/room/invite", chat.InviteToRoom).Methods("POST")

	// Notifications and invitations
	api.HandleFunc("/invitation/accept", chat.AcceptInvitation).Methods("POST")
	api.HandleFunc("/invitation/decline", chat.DeclineInvitation).Methods("POST")
	api.HandleFunc("/notification/close", chat.CloseNotification).Methods("POST")
	api.HandleFunc("/notification/close-all", chat.CloseAllNotifications).Methods("POST")

	// Initiated chats, visitor side
	api.HandleFunc("/initiate/ping", chat.PingInitiate).Methods("POST")
	api.HandleFunc("/initiate/accept", chat.AcceptChatRequest).Methods("POST")
	api.HandleFunc("/initiate/decline", chat.DeclineChatRequest).Methods("POST")

	// Support side
	api.HandleFunc("/support/online-count", chat.GetSupportEngineersOnlineCount).Methods("GET")
	api.HandleFunc("/support/enter", support.EnterSupport).Methods("POST")
	api.HandleFunc("/support/leave", support.LeaveSupport).Methods("POST")
	api.HandleFunc("/support/ping", support.SupportPing).Methods("POST")
	api.HandleFunc("/support/room/take", support.TakeRoom).Methods("POST")
	api.HandleFunc("/support/room/leave", support.LeaveRoom).Methods("POST")
	api.HandleFunc("/support/initiate/user", support.InitiateChatByUserID).Methods("POST")
	api.HandleFunc("/support/initiate/contact", support.InitiateChatByContactID).Methods("POST")
}

// Health is the liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
