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

package models

// Status is the closed set of response codes every chat operation returns.
// Domain failures are statuses, never transport errors.
type Status string

const (
	StatusOK                                  Status = "ok"
	StatusBadRequest                          Status = "bad_request"
	StatusNotLoggedIn                         Status = "not_logged_in"
	StatusAccessDenied                        Status = "access_denied"
	StatusFlooding                            Status = "flooding"
	StatusRoomNotFound                        Status = "room_not_found"
	StatusNotJoinedInARoom                    Status = "not_joined_in_a_room"
	StatusInvitationAlreadyAnswered           Status = "invitation_already_answered"
	StatusChatUserNotFound                    Status = "chat_user_not_found"
	StatusCanNotKickAdmin                     Status = "can_not_kick_admin"
	StatusWrongSecondUser                     Status = "wrong_second_user"
	StatusInitiatedChatRequestAlreadyAccepted Status = "initiated_chat_request_already_accepted"
	StatusSupportIsNotOnline                  Status = "support_is_not_online"
	StatusUnknownError                        Status = "unknown_error"
)

// Response is the uniform envelope returned by every operation.
type Response struct {
	Status  Status      `json:"status"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// OK wraps a successful payload.
func OK(payload interface{}) Response {
	return Response{Status: StatusOK, Payload: payload}
}

// Fail wraps a typed failure.
func Fail(status Status, message string) Response {
	return Response{Status: status, Message: message}
}
