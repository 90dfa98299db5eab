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
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/efchatnet/efchat/backend/models"
	"github.com/efchatnet/efchat/backend/storage"
)

// Caller is the resolved identity of the client making a request. UserID 0
// means no chat user is registered for this session yet.
type Caller struct {
	UserID    int
	ContactID int
	Support   bool
	IP        string
}

// BanList answers the pre-flight IP ban check.
type BanList interface {
	IsBanned(ip string) bool
}

// PermissionChecker authorizes administration actions beyond room-level
// admin standing.
type PermissionChecker interface {
	CanManageRooms(c Caller) bool
}

// rolePermissions is the default checker: support engineers manage rooms.
type rolePermissions struct{}

func (rolePermissions) CanManageRooms(c Caller) bool { return c.Support }

// Service is the chat request facade. Every operation runs its guards in a
// fixed order (ban, flood, identity, permission), performs one domain
// action against the site state and wraps the outcome into the response
// envelope. Expected failures become statuses; anything unanticipated is
// recovered, logged and surfaced as UnknownError.
type Service struct {
	state  *SiteState
	flood  FloodGuard
	perms  PermissionChecker
	bans   BanList
	events storage.EventLog
	log    *slog.Logger
}

func NewService(state *SiteState, flood FloodGuard, events storage.EventLog, logger *slog.Logger) *Service {
	if flood == nil {
		flood = NewMemoryFloodGuard(DefaultFloodLimits())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		state:  state,
		flood:  flood,
		perms:  rolePermissions{},
		events: events,
		log:    logger,
	}
}

// SetPermissionChecker swaps the default role-based checker.
func (s *Service) SetPermissionChecker(p PermissionChecker) {
	if p != nil {
		s.perms = p
	}
}

// SetBanList installs the IP ban collaborator.
func (s *Service) SetBanList(b BanList) {
	s.bans = b
}

// State exposes the owning site state to the support facade.
func (s *Service) State() *SiteState {
	return s.state
}

func (s *Service) run(op string, fn func() (interface{}, *Error)) (resp models.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("chat operation failed", "op", op, "panic", rec)
			s.audit(context.Background(), op, fmt.Sprintf("panic: %v", rec), 0, 0)
			resp = models.Fail(models.StatusUnknownError, "an unexpected error occurred")
		}
	}()

	if !s.state.cfg.Enabled {
		return models.Fail(models.StatusAccessDenied, "chat is not enabled for this site")
	}
	payload, err := fn()
	if err != nil {
		return models.Fail(err.Status, err.Message)
	}
	return models.OK(payload)
}

func (s *Service) audit(ctx context.Context, op, detail string, userID, roomID int) {
	if s.events == nil {
		return
	}
	ev := storage.Event{Operation: op, Detail: detail, UserID: userID, RoomID: roomID, At: time.Now()}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Warn("audit append failed", "op", op, "error", err)
	}
}

func (s *Service) guardBan(c Caller) *Error {
	if s.bans != nil && c.IP != "" && s.bans.IsBanned(c.IP) {
		return errAccessDenied("client address is banned")
	}
	return nil
}

func (s *Service) guardFlood(ctx context.Context, c Caller, op FloodOperation) *Error {
	key := c.IP
	if c.UserID != 0 {
		key = strconv.Itoa(c.UserID)
	}
	allowed, err := s.flood.Allow(ctx, key, op)
	if err != nil {
		// The flood store is advisory; fail open rather than refuse chat.
		s.log.Warn("flood check failed", "op", op, "error", err)
		return nil
	}
	if !allowed {
		return errFlooding()
	}
	return nil
}

func (s *Service) guardUser(c Caller) (models.ChatUser, *Error) {
	if err := s.guardBan(c); err != nil {
		return models.ChatUser{}, err
	}
	if c.UserID == 0 {
		return models.ChatUser{}, errNotLoggedIn()
	}
	u, ok := s.state.User(c.UserID)
	if !ok {
		return models.ChatUser{}, errNotLoggedIn()
	}
	return u, nil
}

func userState(u models.ChatUser) models.ChatUserState {
	return models.ChatUserState{
		ID:          u.ID,
		Nickname:    u.Nickname,
		IsAnonymous: u.IsAnonymous,
		IsSupport:   u.IsSupport,
		IsLoggedIn:  true,
	}
}

// Register creates the chat user for an authenticated site visitor.
func (s *Service) Register(ctx context.Context, c Caller, nickname string) models.Response {
	return s.run("Register", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		nickname = strings.TrimSpace(nickname)
		if nickname == "" {
			return nil, errBadRequest("nickname must not be empty")
		}
		u := s.state.RegisterUser(nickname, false, c.Support, c.ContactID)
		return userState(u), nil
	})
}

// RegisterGuest creates an anonymous chat user. An empty nickname gets a
// generated guest name.
func (s *Service) RegisterGuest(ctx context.Context, c Caller, nickname string) models.Response {
	return s.run("RegisterGuest", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		nickname = strings.TrimSpace(nickname)
		u := s.state.RegisterUser(nickname, true, false, c.ContactID)
		if nickname == "" {
			nick := fmt.Sprintf("guest_%d", u.ID)
			if err := s.state.ChangeNickname(u.ID, nick); err != nil {
				return nil, err
			}
			u.Nickname = nick
		}
		return userState(u), nil
	})
}

// Logout takes the caller offline everywhere. The chat user record stays.
func (s *Service) Logout(ctx context.Context, c Caller) models.Response {
	return s.run("Logout", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		s.state.OfflineEverywhere(u.ID)
		return nil, nil
	})
}

// GetChatUserState reports who the caller currently is. An unregistered
// caller gets a logged-out state, not an error.
func (s *Service) GetChatUserState(ctx context.Context, c Caller) models.Response {
	return s.run("GetChatUserState", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if c.UserID == 0 {
			return models.ChatUserState{IsLoggedIn: false}, nil
		}
		u, ok := s.state.User(c.UserID)
		if !ok {
			return models.ChatUserState{IsLoggedIn: false}, nil
		}
		return userState(u), nil
	})
}

// ChangeMyNickname renames the caller, flood-guarded.
func (s *Service) ChangeMyNickname(ctx context.Context, c Caller, nickname string) models.Response {
	return s.run("ChangeMyNickname", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.guardFlood(ctx, c, FloodChangeNickname); err != nil {
			return nil, err
		}
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if err := s.state.ChangeNickname(u.ID, nickname); err != nil {
			return nil, err
		}
		u, _ = s.state.User(u.ID)
		return userState(u), nil
	})
}

// SearchOnlineUsers finds online users by nickname substring.
func (s *Service) SearchOnlineUsers(ctx context.Context, c Caller, query string) models.Response {
	return s.run("SearchOnlineUsers", func() (interface{}, *Error) {
		if _, err := s.guardUser(c); err != nil {
			return nil, err
		}
		return s.state.SearchOnlineUsers(query), nil
	})
}

// GetPermissions reports the caller's chat permissions.
func (s *Service) GetPermissions(ctx context.Context, c Caller) models.Response {
	return s.run("GetPermissions", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		return models.ChatPermissions{
			IsSupport:      c.Support,
			CanManageRooms: s.perms.CanManageRooms(c),
		}, nil
	})
}

// GetSupportEngineersOnlineCount reports how many agents are in support.
func (s *Service) GetSupportEngineersOnlineCount(ctx context.Context, c Caller) models.Response {
	return s.run("GetSupportEngineersOnlineCount", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		return s.state.SupportOnlineCount(), nil
	})
}

// InviteToRoom sends an invitation notification. Inviting into a private
// room requires room admin standing; public rooms accept invitations from
// any member.
func (s *Service) InviteToRoom(ctx context.Context, c Caller, roomID, userID int) models.Response {
	return s.run("InviteToRoom", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		room, ok := s.state.Room(roomID)
		if !ok || !room.Enabled {
			return nil, errRoomNotFound()
		}
		member, ok := s.state.Membership(roomID, u.ID)
		if !ok || member.PermanentlyLeft {
			return nil, errNotJoined()
		}
		if room.Private && member.AdminLevel != models.LevelAdmin {
			return nil, errAccessDenied("only room admins can invite into a private room")
		}
		if _, ok := s.state.User(userID); !ok {
			return nil, errUserNotFound()
		}
		n := s.state.AddNotification(models.NotificationInvitation, u.ID, userID, roomID)
		return n, nil
	})
}

// AcceptInvitation consumes the invitation, activates the membership and
// notifies the inviter.
func (s *Service) AcceptInvitation(ctx context.Context, c Caller, notificationID string) models.Response {
	return s.run("AcceptInvitation", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		n, err := s.state.ResolveInvitation(notificationID, u.ID)
		if err != nil {
			return nil, err
		}
		if err := s.state.EnsureMembership(u.ID, n.RoomID); err != nil {
			// The invitation must not burn when the join failed; put the
			// latch back so the whole accept reads as never having happened.
			s.state.reopenInvitation(n.ID)
			return nil, err
		}
		s.state.AddNotification(models.NotificationInvitationAccepted, u.ID, n.SenderID, n.RoomID)
		room, _ := s.state.Room(n.RoomID)
		return room, nil
	})
}

// DeclineInvitation consumes the invitation and notifies the inviter.
func (s *Service) DeclineInvitation(ctx context.Context, c Caller, notificationID string) models.Response {
	return s.run("DeclineInvitation", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		n, err := s.state.ResolveInvitation(notificationID, u.ID)
		if err != nil {
			return nil, err
		}
		s.state.AddNotification(models.NotificationInvitationDeclined, u.ID, n.SenderID, n.RoomID)
		return nil, nil
	})
}

// CloseNotification marks a notification read; closing twice is fine.
func (s *Service) CloseNotification(ctx context.Context, c Caller, notificationID string) models.Response {
	return s.run("CloseNotification", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		if err := s.state.MarkNotificationRead(notificationID, u.ID); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// CloseAllNotifications catches up the caller's notification queue.
func (s *Service) CloseAllNotifications(ctx context.Context, c Caller, untilWhen int64) models.Response {
	return s.run("CloseAllNotifications", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		s.state.CloseAllNotifications(u.ID, untilWhen)
		return nil, nil
	})
}

// PingInitiate polls the caller's own "contact me" request.
func (s *Service) PingInitiate(ctx context.Context, c Caller) models.Response {
	return s.run("PingInitiate", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		req, ok := s.state.FindInitiatedRequest(c.UserID, c.ContactID)
		if !ok {
			return nil, nil
		}
		return req, nil
	})
}

// AcceptChatRequest accepts a support-initiated chat and joins the caller
// to its room.
func (s *Service) AcceptChatRequest(ctx context.Context, c Caller, requestID string) models.Response {
	return s.run("AcceptChatRequest", func() (interface{}, *Error) {
		u, err := s.guardUser(c)
		if err != nil {
			return nil, err
		}
		req, aerr := s.state.AcceptInitiatedRequest(requestID, u.ID, c.ContactID)
		if aerr != nil {
			return nil, aerr
		}
		if err := s.state.EnsureMembership(u.ID, req.RoomID); err != nil {
			return nil, err
		}
		room, _ := s.state.Room(req.RoomID)
		return room, nil
	})
}

// DeclineChatRequest declines a support-initiated chat. Declining a request
// that already moved on is a no-op.
func (s *Service) DeclineChatRequest(ctx context.Context, c Caller, requestID string) models.Response {
	return s.run("DeclineChatRequest", func() (interface{}, *Error) {
		if err := s.guardBan(c); err != nil {
			return nil, err
		}
		if err := s.state.DeclineInitiatedRequest(requestID, c.UserID, c.ContactID); err != nil {
			return nil, err
		}
		return nil, nil
	})
}
