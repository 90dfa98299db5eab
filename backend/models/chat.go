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

import "time"

// RoomKind distinguishes the three room flavors.
type RoomKind string

const (
	RoomClassic  RoomKind = "classic"
	RoomOneToOne RoomKind = "one_to_one"
	RoomSupport  RoomKind = "support"
)

// AdminLevel is a user's standing in a room, independent of being online there.
type AdminLevel int

const (
	LevelNone AdminLevel = iota
	LevelJoin
	LevelAdmin
)

// NotificationKind tags addressed events in the notification center.
type NotificationKind string

const (
	NotificationInvitation         NotificationKind = "invitation"
	NotificationInvitationAccepted NotificationKind = "invitation_accepted"
	NotificationInvitationDeclined NotificationKind = "invitation_declined"
	NotificationAdminAdded         NotificationKind = "admin_added"
	NotificationAdminDeleted       NotificationKind = "admin_deleted"
)

// InitiatedChatState is the lifecycle of a support-originated contact request.
type InitiatedChatState string

const (
	InitiatedChatNew      InitiatedChatState = "new"
	InitiatedChatAccepted InitiatedChatState = "accepted"
	InitiatedChatDeclined InitiatedChatState = "declined"
	InitiatedChatDeleted  InitiatedChatState = "deleted"
)

// ChatUser is a chat participant. Users are never deleted; they age out of
// the online set once their last checking timestamp passes the idle timeout.
type ChatUser struct {
	ID           int       `json:"id"`
	Nickname     string    `json:"nickname"`
	IsAnonymous  bool      `json:"is_anonymous"`
	IsSupport    bool      `json:"is_support"`
	ContactID    int       `json:"contact_id,omitempty"`
	LastChecking time.Time `json:"-"`
	Online       bool      `json:"online"`
	ChangeStamp  int64     `json:"change"`
}

// ChatRoom is a conversation channel. DeleteChatRoom disables it instead of
// removing it so delta readers can observe the disappearance.
type ChatRoom struct {
	ID             int      `json:"id"`
	DisplayName    string   `json:"display_name"`
	CodeName       string   `json:"code_name"`
	Private        bool     `json:"private"`
	PasswordHash   string   `json:"-"`
	AllowAnonymous bool     `json:"allow_anonymous"`
	Kind           RoomKind `json:"kind"`
	Enabled        bool     `json:"enabled"`
	CreatedByID    int      `json:"created_by_id"`
	HasPassword    bool     `json:"has_password"`
	ChangeStamp    int64    `json:"change"`
}

// RoomMembership relates a user to a room. PermanentlyLeft means the
// membership was revoked: the user cannot rejoin without a fresh invitation.
type RoomMembership struct {
	RoomID          int        `json:"room_id"`
	UserID          int        `json:"user_id"`
	AdminLevel      AdminLevel `json:"admin_level"`
	PermanentlyLeft bool       `json:"permanently_left"`
}

// ChatMessage is a posted message. RecipientID != 0 marks a whisper visible
// only to the sender and the recipient. Rejected messages stay in the log
// but are excluded from every delta read.
type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      int       `json:"room_id"`
	SenderID    int       `json:"sender_id"`
	RecipientID int       `json:"recipient_id,omitempty"`
	Text        string    `json:"text"`
	PostedAt    time.Time `json:"posted_at"`
	Stamp       int64     `json:"change"`
	Rejected    bool      `json:"-"`
}

// ChatNotification is an addressed event for one user. Read is also the
// one-shot latch for invitation resolution.
type ChatNotification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	SenderID   int              `json:"sender_id"`
	ReceiverID int              `json:"receiver_id"`
	RoomID     int              `json:"room_id,omitempty"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"created_at"`
	Stamp      int64            `json:"change"`
}

// InitiatedChatRequest is a pending "contact me" request from support toward
// a visitor, addressed by contact id or authenticated user id.
type InitiatedChatRequest struct {
	ID        string             `json:"id"`
	UserID    int                `json:"user_id,omitempty"`
	ContactID int                `json:"contact_id,omitempty"`
	State     InitiatedChatState `json:"state"`
	RoomID    int                `json:"room_id"`
	Stamp     int64              `json:"change"`
}

// ChatUserState is the payload of Register/RegisterGuest/GetChatUserState.
type ChatUserState struct {
	ID          int    `json:"id"`
	Nickname    string `json:"nickname"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsSupport   bool   `json:"is_support"`
	IsLoggedIn  bool   `json:"is_logged_in"`
}

// ChatPermissions is the payload of GetPermissions.
type ChatPermissions struct {
	IsSupport      bool `json:"is_support"`
	CanManageRooms bool `json:"can_manage_rooms"`
}
