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

// Request bodies of the chat endpoints. Watermarks are pointers: a missing
// field means the category is not requested, 0 asks for a full snapshot.

type RegisterRequest struct {
	Nickname string `json:"nickname" validate:"required,max=50"`
}

type RegisterGuestRequest struct {
	Nickname string `json:"nickname" validate:"max=50"`
}

type NicknameRequest struct {
	Nickname string `json:"nickname" validate:"required,max=50"`
}

type PingRequest struct {
	LastRoomsChange        *int64 `json:"last_rooms_change" validate:"omitempty,min=0"`
	LastUsersInRoomsChange *int64 `json:"last_users_in_rooms_change" validate:"omitempty,min=0"`
	LastOnlineUsersChange  *int64 `json:"last_online_users_change" validate:"omitempty,min=0"`
	LastNotificationChange *int64 `json:"last_notification_change" validate:"omitempty,min=0"`
}

type PingRoomRequest struct {
	RoomID                 int    `json:"room_id" validate:"required"`
	RoomUsersLastChange    *int64 `json:"room_users_last_change" validate:"omitempty,min=0"`
	RoomMessagesLastChange *int64 `json:"room_messages_last_change" validate:"omitempty,min=0"`
	MaxMessagesCount       *int   `json:"max_messages_count" validate:"omitempty,min=1,max=500"`
}

type JoinRoomRequest struct {
	RoomID   int    `json:"room_id" validate:"required"`
	Password string `json:"password"`
}

type RoomRequest struct {
	RoomID int `json:"room_id" validate:"required"`
}

type PostMessageRequest struct {
	RoomID int    `json:"room_id" validate:"required"`
	Text   string `json:"text" validate:"required,max=2000"`
}

type PostWhisperRequest struct {
	RoomID      int    `json:"room_id" validate:"required"`
	RecipientID int    `json:"recipient_id" validate:"required"`
	Text        string `json:"text" validate:"required,max=2000"`
}

type RejectMessageRequest struct {
	RoomID    int    `json:"room_id" validate:"required"`
	MessageID string `json:"message_id" validate:"required,uuid4"`
}

type CreateRoomRequest struct {
	DisplayName    string `json:"display_name" validate:"required,max=100"`
	Private        bool   `json:"private"`
	Password       string `json:"password" validate:"max=100"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

type OneToOneRoomRequest struct {
	SecondUserID int `json:"second_user_id" validate:"required"`
}

type ChangeRoomRequest struct {
	RoomID         int    `json:"room_id" validate:"required"`
	DisplayName    string `json:"display_name" validate:"required,max=100"`
	HasPassword    bool   `json:"has_password"`
	Password       string `json:"password" validate:"max=100"`
	AllowAnonymous bool   `json:"allow_anonymous"`
}

type RoomTargetRequest struct {
	RoomID   int `json:"room_id" validate:"required"`
	TargetID int `json:"target_id" validate:"required"`
}

type InviteRequest struct {
	RoomID int `json:"room_id" validate:"required"`
	UserID int `json:"user_id" validate:"required"`
}

type NotificationRequest struct {
	NotificationID string `json:"notification_id" validate:"required,uuid4"`
}

type CloseAllNotificationsRequest struct {
	UntilWhen int64 `json:"until_when" validate:"min=0"`
}

type ChatRequestRef struct {
	RequestID string `json:"request_id" validate:"required,uuid4"`
}

type SupportPingRequest struct {
	LastChange *int64 `json:"last_change" validate:"omitempty,min=0"`
}

type InitiateByUserRequest struct {
	UserID int `json:"user_id" validate:"required"`
}

type InitiateByContactRequest struct {
	ContactID int `json:"contact_id" validate:"required"`
}

type SupportRoomManualRequest struct {
	UserID int `json:"user_id" validate:"required"`
}

// AuthenticatedUser is the register response: the chat user state plus the
// session token carrying it.
type AuthenticatedUser struct {
	User  ChatUserState `json:"user"`
	Token string        `json:"token"`
}
