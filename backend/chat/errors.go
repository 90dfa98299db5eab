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

package chat

import "github.com/efchatnet/efchat/backend/models"

// Error is an expected, typed failure raised by guard or state-machine
// logic. It maps 1:1 onto a response status and is normal control flow,
// never logged as a fault.
type Error struct {
	Status  models.Status
	Message string
}

func (e *Error) Error() string {
	return string(e.Status) + ": " + e.Message
}

func errBadRequest(msg string) *Error {
	return &Error{Status: models.StatusBadRequest, Message: msg}
}

func errNotLoggedIn() *Error {
	return &Error{Status: models.StatusNotLoggedIn, Message: "chat user is not logged in"}
}

func errAccessDenied(msg string) *Error {
	return &Error{Status: models.StatusAccessDenied, Message: msg}
}

func errFlooding() *Error {
	return &Error{Status: models.StatusFlooding, Message: "too many requests, slow down"}
}

func errRoomNotFound() *Error {
	return &Error{Status: models.StatusRoomNotFound, Message: "room does not exist"}
}

func errNotJoined() *Error {
	return &Error{Status: models.StatusNotJoinedInARoom, Message: "user is not joined in the room"}
}

func errInvitationAnswered() *Error {
	return &Error{Status: models.StatusInvitationAlreadyAnswered, Message: "invitation was already answered"}
}

func errUserNotFound() *Error {
	return &Error{Status: models.StatusChatUserNotFound, Message: "chat user does not exist"}
}

func errCanNotKickAdmin() *Error {
	return &Error{Status: models.StatusCanNotKickAdmin, Message: "room admins cannot be kicked"}
}

func errWrongSecondUser() *Error {
	return &Error{Status: models.StatusWrongSecondUser, Message: "invalid second user for one to one room"}
}

func errRequestAlreadyAccepted() *Error {
	return &Error{Status: models.StatusInitiatedChatRequestAlreadyAccepted, Message: "chat request was already accepted"}
}

func errSupportNotOnline() *Error {
	return &Error{Status: models.StatusSupportIsNotOnline, Message: "no support engineer is online"}
}
