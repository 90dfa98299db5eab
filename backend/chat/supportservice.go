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
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// SupportService is the support-side facade. Every operation additionally
// requires the support role; most require the agent to have entered
// support.
type SupportService struct {
	*Service
}

func NewSupportService(svc *Service) *SupportService {
	return &SupportService{Service: svc}
}

// SupportPingResult is the payload of SupportPing: rooms needing attention
// and pending visitor requests.
type SupportPingResult struct {
	Rooms         []SupportRoom                 `json:"rooms"`
	LastChange    int64                         `json:"last_change"`
	Requests      []models.InitiatedChatRequest `json:"requests"`
	OnlineSupport int                           `json:"online_support"`
}

func (s *SupportService) guardAgent(c Caller) (models.ChatUser, *Error) {
	u, err := s.guardUser(c)
	if err != nil {
		return models.ChatUser{}, err
	}
	if !c.Support {
		return models.ChatUser{}, errAccessDenied("support role is required")
	}
	return u, nil
}

func (s *SupportService) guardOnlineAgent(c Caller) (models.ChatUser, *Error) {
	u, err := s.guardAgent(c)
	if err != nil {
		return models.ChatUser{}, err
	}
	if !s.state.IsSupportOnline(u.ID) {
		return models.ChatUser{}, errSupportNotOnline()
	}
	return u, nil
}

// EnterSupport puts the agent on support duty.
func (s *SupportService) EnterSupport(ctx context.Context, c Caller) models.Response {
	return s.run("EnterSupport", func() (interface{}, *Error) {
		u, err := s.guardAgent(c)
		if err != nil {
			return nil, err
		}
		s.state.EnterSupport(u.ID)
		return nil, nil
	})
}

// LeaveSupport takes the agent off duty and releases their room claims.
func (s *SupportService) LeaveSupport(ctx context.Context, c Caller) models.Response {
	return s.run("LeaveSupport", func() (interface{}, *Error) {
		u, err := s.guardAgent(c)
		if err != nil {
			return nil, err
		}
		s.state.LeaveSupport(u.ID)
		return nil, nil
	})
}

// SupportPing is the support-side heartbeat: refreshes the agent's support
// presence and reports support rooms with traffic past the watermark,
// skipping rooms taken by a different agent.
func (s *SupportService) SupportPing(ctx context.Context, c Caller, lastChange *int64) models.Response {
	return s.run("SupportPing", func() (interface{}, *Error) {
		u, err := s.guardOnlineAgent(c)
		if err != nil {
			return nil, err
		}
		s.state.TouchSupport(u.ID)
		s.state.Touch(u.ID, time.Now())

		result := SupportPingResult{
			Requests:      s.state.PendingInitiatedRequests(),
			OnlineSupport: s.state.SupportOnlineCount(),
		}
		if lastChange != nil {
			result.Rooms, result.LastChange = s.state.SupportRoomsDelta(u.ID, *lastChange)
		}
		return result, nil
	})
}

// SupportTakeRoom claims a room for the agent, giving them message
// exclusivity among agents until released.
func (s *SupportService) SupportTakeRoom(ctx context.Context, c Caller, roomID int) models.Response {
	return s.run("SupportTakeRoom", func() (interface{}, *Error) {
		u, err := s.guardOnlineAgent(c)
		if err != nil {
			return nil, err
		}
		if terr := s.state.TakeRoom(u.ID, roomID); terr != nil {
			return nil, terr
		}
		if merr := s.state.EnsureMembership(u.ID, roomID); merr != nil {
			// A failed take must not leave a claim behind.
			_ = s.state.ReleaseRoom(u.ID, roomID)
			return nil, merr
		}
		return nil, nil
	})
}

// SupportLeaveRoom releases the agent's claim.
func (s *SupportService) SupportLeaveRoom(ctx context.Context, c Caller, roomID int) models.Response {
	return s.run("SupportLeaveRoom", func() (interface{}, *Error) {
		u, err := s.guardOnlineAgent(c)
		if err != nil {
			return nil, err
		}
		if rerr := s.state.ReleaseRoom(u.ID, roomID); rerr != nil {
			return nil, rerr
		}
		return nil, nil
	})
}

// InitiateChatByUserID opens a "contact me" request toward a registered
// chat user, with a support room ready for when they accept.
func (s *SupportService) InitiateChatByUserID(ctx context.Context, c Caller, userID int) models.Response {
	return s.run("InitiateChatByUserID", func() (interface{}, *Error) {
		u, err := s.guardOnlineAgent(c)
		if err != nil {
			return nil, err
		}
		target, ok := s.state.User(userID)
		if !ok {
			return nil, errUserNotFound()
		}
		room, rerr := s.initiateRoom(u, fmt.Sprintf("initiate_user_%d", userID))
		if rerr != nil {
			return nil, rerr
		}
		req, ierr := s.state.CreateInitiatedRequest(target.ID, 0, room.ID)
		if ierr != nil {
			return nil, ierr
		}
		return req, nil
	})
}

// InitiateChatByContactID opens a "contact me" request toward an anonymous
// visitor known only by marketing contact id.
func (s *SupportService) InitiateChatByContactID(ctx context.Context, c Caller, contactID int) models.Response {
	return s.run("InitiateChatByContactID", func() (interface{}, *Error) {
		u, err := s.guardOnlineAgent(c)
		if err != nil {
			return nil, err
		}
		if contactID == 0 {
			return nil, errBadRequest("contact id is required")
		}
		room, rerr := s.initiateRoom(u, fmt.Sprintf("initiate_contact_%d", contactID))
		if rerr != nil {
			return nil, rerr
		}
		req, ierr := s.state.CreateInitiatedRequest(0, contactID, room.ID)
		if ierr != nil {
			return nil, ierr
		}
		return req, nil
	})
}

// initiateRoom creates or reuses the support room backing an initiated
// chat request.
func (s *SupportService) initiateRoom(agent models.ChatUser, code string) (models.ChatRoom, *Error) {
	if r, ok := s.state.roomByCode(code); ok {
		r.mu.RLock()
		room := r.room
		r.mu.RUnlock()
		return room, nil
	}
	name := fmt.Sprintf("Support - %s", agent.Nickname)
	return s.state.CreateRoom(agent.ID, name, code, true, "", true, models.RoomSupport)
}
