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
	"fmt"

	"github.com/efchatnet/efchat/backend/models"
)

// JoinRoom joins the caller into a room, flood-guarded.
func (s *Service) JoinRoom(ctx context.Context, c Caller, roomID int, password string) models.Response {
	return s.run("JoinRoom", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodJoinRoom); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		room, jerr := s.state.JoinRoom(u, roomID, password)
		if jerr != nil {
			return nil, jerr
		}
		return room, nil
	})
}

// LeaveRoom takes the caller offline in the room; the membership persists.
func (s *Service) LeaveRoom(ctx context.Context, c Caller, roomID int) models.Response {
	return s.run("LeaveRoom", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if lerr := s.state.LeaveRoom(u.ID, roomID, false); lerr != nil {
			return nil, lerr
		}
		return nil, nil
	})
}

// LeaveRoomPermanently additionally revokes the membership on private rooms.
func (s *Service) LeaveRoomPermanently(ctx context.Context, c Caller, roomID int) models.Response {
	return s.run("LeaveRoomPermanently", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if lerr := s.state.LeaveRoom(u.ID, roomID, true); lerr != nil {
			return nil, lerr
		}
		return nil, nil
	})
}

// PostMessage appends a room-wide message, flood-guarded.
func (s *Service) PostMessage(ctx context.Context, c Caller, roomID int, text string) models.Response {
	return s.run("PostMessage", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodPostMessage); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		msg, perr := s.state.PostMessage(u.ID, roomID, 0, text)
		if perr != nil {
			return nil, perr
		}
		return msg, nil
	})
}

// PostMessageToUser appends a whisper; only sender and recipient will see
// it in delta reads.
func (s *Service) PostMessageToUser(ctx context.Context, c Caller, roomID, recipientID int, text string) models.Response {
	return s.run("PostMessageToUser", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodPostMessage); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if recipientID == 0 || recipientID == u.ID {
			return nil, errBadRequest("whisper needs a different recipient")
		}
		msg, perr := s.state.PostMessage(u.ID, roomID, recipientID, text)
		if perr != nil {
			return nil, perr
		}
		return msg, nil
	})
}

// RejectMessage soft-deletes a message, admin-only.
func (s *Service) RejectMessage(ctx context.Context, c Caller, roomID int, messageID string) models.Response {
	return s.run("RejectMessage", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if rerr := s.state.RejectMessage(u.ID, roomID, messageID); rerr != nil {
			return nil, rerr
		}
		s.audit(ctx, "RejectMessage", messageID, u.ID, roomID)
		return nil, nil
	})
}

// CreateChatRoom creates a classic room with the caller as admin.
func (s *Service) CreateChatRoom(ctx context.Context, c Caller, displayName string, private bool, password string, allowAnonymous bool) models.Response {
	return s.run("CreateChatRoom", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodCreateRoom); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		room, cerr := s.state.CreateRoom(u.ID, displayName, "", private, password, allowAnonymous, models.RoomClassic)
		if cerr != nil {
			return nil, cerr
		}
		s.audit(ctx, "CreateChatRoom", room.CodeName, u.ID, room.ID)
		return room, nil
	})
}

// CreateOneToOneChatRoom creates, or returns, the ad hoc private room
// between the caller and one other user. The deterministic code name makes
// repeated calls in either order land on the same room.
func (s *Service) CreateOneToOneChatRoom(ctx context.Context, c Caller, secondUserID int) models.Response {
	return s.run("CreateOneToOneChatRoom", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodCreateRoom); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if secondUserID == 0 || secondUserID == u.ID {
			return nil, errWrongSecondUser()
		}
		second, ok := s.state.User(secondUserID)
		if !ok {
			return nil, errWrongSecondUser()
		}

		code := OneToOneCodeName(u.ID, second.ID)
		if r, ok := s.state.roomByCode(code); ok {
			r.mu.RLock()
			room := r.room
			r.mu.RUnlock()
			return room, nil
		}

		name := fmt.Sprintf("%s - %s", u.Nickname, second.Nickname)
		room, cerr := s.state.CreateRoom(u.ID, name, code, true, "", true, models.RoomOneToOne)
		if cerr != nil {
			return nil, cerr
		}
		if err := s.state.EnsureMembership(second.ID, room.ID); err != nil {
			return nil, err
		}
		s.state.AddNotification(models.NotificationInvitation, u.ID, second.ID, room.ID)
		return room, nil
	})
}

// CreateSupportChatRoom opens, or returns, the caller's support room.
// Fails when no support engineer is online to pick it up.
func (s *Service) CreateSupportChatRoom(ctx context.Context, c Caller) models.Response {
	return s.run("CreateSupportChatRoom", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodCreateRoom); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if s.state.SupportOnlineCount() == 0 {
			return nil, errSupportNotOnline()
		}
		room, cerr := s.supportRoomFor(u)
		if cerr != nil {
			return nil, cerr
		}
		return room, nil
	})
}

// CreateSupportChatRoomManual opens a support room toward a named user,
// for support engineers reaching out first.
func (s *Service) CreateSupportChatRoomManual(ctx context.Context, c Caller, targetUserID int) models.Response {
	return s.run("CreateSupportChatRoomManual", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if !c.Support {
			return nil, errAccessDenied("only support engineers can open support rooms manually")
		}
		target, ok := s.state.User(targetUserID)
		if !ok {
			return nil, errUserNotFound()
		}
		room, cerr := s.supportRoomFor(target)
		if cerr != nil {
			return nil, cerr
		}
		if err := s.state.EnsureMembership(u.ID, room.ID); err != nil {
			return nil, err
		}
		return room, nil
	})
}

// supportRoomFor creates or reuses the per-user support room.
func (s *Service) supportRoomFor(user models.ChatUser) (models.ChatRoom, *Error) {
	code := SupportCodeName(user.ID)
	if r, ok := s.state.roomByCode(code); ok {
		r.mu.RLock()
		room := r.room
		r.mu.RUnlock()
		return room, nil
	}
	name := fmt.Sprintf("Support - %s", user.Nickname)
	return s.state.CreateRoom(user.ID, name, code, true, "", true, models.RoomSupport)
}

// KickUser throws a user out of a room without revoking the membership.
func (s *Service) KickUser(ctx context.Context, c Caller, roomID, targetID int) models.Response {
	return s.run("KickUser", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if kerr := s.state.KickUser(u.ID, targetID, roomID, false); kerr != nil {
			return nil, kerr
		}
		s.audit(ctx, "KickUser", fmt.Sprintf("target=%d", targetID), u.ID, roomID)
		return nil, nil
	})
}

// KickUserPermanently kicks and revokes the membership so the target
// cannot rejoin without a fresh invitation.
func (s *Service) KickUserPermanently(ctx context.Context, c Caller, roomID, targetID int) models.Response {
	return s.run("KickUserPermanently", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if kerr := s.state.KickUser(u.ID, targetID, roomID, true); kerr != nil {
			return nil, kerr
		}
		s.audit(ctx, "KickUserPermanently", fmt.Sprintf("target=%d", targetID), u.ID, roomID)
		return nil, nil
	})
}

// AddAdmin grants room admin level and notifies the target.
func (s *Service) AddAdmin(ctx context.Context, c Caller, roomID, targetID int) models.Response {
	return s.run("AddAdmin", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if aerr := s.state.SetAdmin(u.ID, targetID, roomID, true); aerr != nil {
			return nil, aerr
		}
		s.state.AddNotification(models.NotificationAdminAdded, u.ID, targetID, roomID)
		return nil, nil
	})
}

// DeleteAdmin revokes room admin level and notifies the target.
func (s *Service) DeleteAdmin(ctx context.Context, c Caller, roomID, targetID int) models.Response {
	return s.run("DeleteAdmin", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if aerr := s.state.SetAdmin(u.ID, targetID, roomID, false); aerr != nil {
			return nil, aerr
		}
		s.state.AddNotification(models.NotificationAdminDeleted, u.ID, targetID, roomID)
		return nil, nil
	})
}

// ChangeChatRoom mutates room metadata; room admins or users with the
// manage permission only.
func (s *Service) ChangeChatRoom(ctx context.Context, c Caller, roomID int, displayName string, hasPassword bool, password string, allowAnonymous bool) models.Response {
	return s.run("ChangeChatRoom", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if err := s.guardRoomAdmin(c, u.ID, roomID); err != nil {
			return nil, err
		}
		room, cerr := s.state.ChangeRoom(roomID, displayName, hasPassword, password, allowAnonymous)
		if cerr != nil {
			return nil, cerr
		}
		s.audit(ctx, "ChangeChatRoom", room.CodeName, u.ID, roomID)
		return room, nil
	})
}

// DeleteChatRoom soft-disables a room.
func (s *Service) DeleteChatRoom(ctx context.Context, c Caller, roomID int) models.Response {
	return s.run("DeleteChatRoom", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if err := s.guardRoomAdmin(c, u.ID, roomID); err != nil {
			return nil, err
		}
		if derr := s.state.DisableRoom(roomID); derr != nil {
			return nil, derr
		}
		s.audit(ctx, "DeleteChatRoom", "", u.ID, roomID)
		return nil, nil
	})
}

func (s *Service) guardRoomAdmin(c Caller, userID, roomID int) *Error {
	if s.perms.CanManageRooms(c) {
		return nil
	}
	m, ok := s.state.Membership(roomID, userID)
	if !ok || m.PermanentlyLeft || m.AdminLevel != models.LevelAdmin {
		return errAccessDenied("room admin level is required")
	}
	return nil
}
