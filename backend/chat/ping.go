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

import (
	"context"
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// Watermark rules, identical for every category: a nil pointer means the
// caller does not want the category at all; 0 asks for the full snapshot;
// anything greater returns only items stamped strictly after it. An empty
// delta still carries its section so the client can advance the watermark.

// RoomsSection is the rooms category of a ping response.
type RoomsSection struct {
	Items      []models.ChatRoom `json:"items"`
	LastChange int64             `json:"last_change"`
}

// RoomCountsSection is the users-in-rooms category.
type RoomCountsSection struct {
	Items      []RoomOnlineCount `json:"items"`
	LastChange int64             `json:"last_change"`
}

// OnlineUsersSection is the global online-users category.
type OnlineUsersSection struct {
	Items      []models.ChatUser `json:"items"`
	LastChange int64             `json:"last_change"`
}

// NotificationsSection is the caller's notifications category.
type NotificationsSection struct {
	Items      []models.ChatNotification `json:"items"`
	LastChange int64                     `json:"last_change"`
}

// RoomUsersSection is the per-room users category.
type RoomUsersSection struct {
	Items      []RoomUser `json:"items"`
	LastChange int64      `json:"last_change"`
}

// RoomMessagesSection is the per-room messages category.
type RoomMessagesSection struct {
	Items      []models.ChatMessage `json:"items"`
	LastChange int64                `json:"last_change"`
}

// PingResult is the global sync payload; absent categories are omitted.
type PingResult struct {
	Rooms         *RoomsSection         `json:"rooms,omitempty"`
	UsersInRooms  *RoomCountsSection    `json:"users_in_rooms,omitempty"`
	OnlineUsers   *OnlineUsersSection   `json:"online_users,omitempty"`
	Notifications *NotificationsSection `json:"notifications,omitempty"`
}

// RoomPingResult is the room-scoped sync payload.
type RoomPingResult struct {
	Users    *RoomUsersSection    `json:"users,omitempty"`
	Messages *RoomMessagesSection `json:"messages,omitempty"`
}

// Ping is the global heartbeat and delta-sync call. It refreshes the
// caller's presence and answers only the categories the caller asked for.
func (s *Service) Ping(ctx context.Context, c Caller, lastRoomsChange, lastUsersInRoomsChange, lastOnlineUsersChange, lastNotificationChange *int64) models.Response {
	return s.run("Ping", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		s.state.Touch(u.ID, time.Now())

		result := PingResult{}
		if lastRoomsChange != nil {
			items, last := s.state.RoomsDelta(u.ID, *lastRoomsChange)
			result.Rooms = &RoomsSection{Items: items, LastChange: last}
		}
		if lastUsersInRoomsChange != nil {
			items, last := s.state.RoomCountsDelta(*lastUsersInRoomsChange)
			result.UsersInRooms = &RoomCountsSection{Items: items, LastChange: last}
		}
		if lastOnlineUsersChange != nil {
			items, last := s.state.OnlineUsersDelta(*lastOnlineUsersChange)
			result.OnlineUsers = &OnlineUsersSection{Items: items, LastChange: last}
		}
		if lastNotificationChange != nil {
			items, last := s.state.NotificationsDelta(u.ID, *lastNotificationChange)
			result.Notifications = &NotificationsSection{Items: items, LastChange: last}
		}
		return result, nil
	})
}

// PingRoom is the room-scoped sync call. It requires an active non-revoked
// membership; the membership check and the presence refresh are one atomic
// step, so a kick racing this call wins. maxMessagesCount bounds only the
// first-request message snapshot.
func (s *Service) PingRoom(ctx context.Context, c Caller, roomID int, roomUsersLastChange, roomMessagesLastChange *int64, maxMessagesCount *int) models.Response {
	return s.run("PingRoom", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if terr := s.state.TouchRoomPresence(u.ID, roomID, time.Now()); terr != nil {
			return nil, terr
		}
		s.state.Touch(u.ID, time.Now())

		result := RoomPingResult{}
		if roomUsersLastChange != nil {
			items, last, derr := s.state.RoomUsersDelta(roomID, *roomUsersLastChange)
			if derr != nil {
				return nil, derr
			}
			for i := range items {
				if member, ok := s.state.User(items[i].UserID); ok {
					items[i].Nickname = member.Nickname
				}
			}
			result.Users = &RoomUsersSection{Items: items, LastChange: last}
		}
		if roomMessagesLastChange != nil {
			max := s.state.cfg.DefaultMaxMessages
			if maxMessagesCount != nil && *maxMessagesCount > 0 {
				max = *maxMessagesCount
			}
			items, last, derr := s.state.RoomMessagesDelta(roomID, u.ID, *roomMessagesLastChange, max)
			if derr != nil {
				return nil, derr
			}
			result.Messages = &RoomMessagesSection{Items: items, LastChange: last}
		}
		return result, nil
	})
}
