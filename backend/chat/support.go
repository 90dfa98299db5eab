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
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// SupportRoom is one entry of the support ping: a support room that needs
// an agent's attention.
type SupportRoom struct {
	Room        models.ChatRoom `json:"room"`
	LastMessage int64           `json:"last_message"`
	TakenByID   int             `json:"taken_by_id,omitempty"`
}

// EnterSupport puts an agent into the online-support subset.
func (s *SiteState) EnterSupport(agentID int) {
	s.supportMu.Lock()
	defer s.supportMu.Unlock()
	s.supportOnline[agentID] = time.Now()
}

// LeaveSupport removes an agent from the online-support subset and releases
// every room claim they hold.
func (s *SiteState) LeaveSupport(agentID int) {
	s.supportMu.Lock()
	var released []int
	delete(s.supportOnline, agentID)
	for roomID, id := range s.takenRooms {
		if id == agentID {
			delete(s.takenRooms, roomID)
			released = append(released, roomID)
		}
	}
	s.supportMu.Unlock()

	for _, roomID := range released {
		s.tickRoomMessages(roomID)
	}
}

// IsSupportOnline reports whether the agent has entered support.
func (s *SiteState) IsSupportOnline(agentID int) bool {
	s.supportMu.RLock()
	defer s.supportMu.RUnlock()
	_, ok := s.supportOnline[agentID]
	return ok
}

// TouchSupport refreshes the agent's support presence.
func (s *SiteState) TouchSupport(agentID int) bool {
	s.supportMu.Lock()
	defer s.supportMu.Unlock()
	if _, ok := s.supportOnline[agentID]; !ok {
		return false
	}
	s.supportOnline[agentID] = time.Now()
	return true
}

// SupportOnlineCount returns the number of agents currently in support.
func (s *SiteState) SupportOnlineCount() int {
	s.supportMu.RLock()
	defer s.supportMu.RUnlock()
	return len(s.supportOnline)
}

// TakeRoom claims a room for an agent. Exactly one claim may exist per room
// at any time; re-taking one's own claim is a no-op.
func (s *SiteState) TakeRoom(agentID, roomID int) *Error {
	room, ok := s.Room(roomID)
	if !ok || !room.Enabled {
		return errRoomNotFound()
	}

	s.supportMu.Lock()
	defer s.supportMu.Unlock()
	if current, ok := s.takenRooms[roomID]; ok && current != agentID {
		return errAccessDenied("room is already taken by another engineer")
	}
	s.takenRooms[roomID] = agentID
	return nil
}

// ReleaseRoom drops an agent's claim so all agents see new traffic again.
func (s *SiteState) ReleaseRoom(agentID, roomID int) *Error {
	s.supportMu.Lock()
	current, ok := s.takenRooms[roomID]
	if ok && current != agentID {
		s.supportMu.Unlock()
		return errAccessDenied("room is taken by another engineer")
	}
	delete(s.takenRooms, roomID)
	s.supportMu.Unlock()

	if ok {
		// Advance the room's message clock past every watermark other
		// agents hold, so the room reappears in their next support ping.
		s.tickRoomMessages(roomID)
	}
	return nil
}

// TakenBy returns the agent holding the room claim, if any.
func (s *SiteState) TakenBy(roomID int) (int, bool) {
	s.supportMu.RLock()
	defer s.supportMu.RUnlock()
	id, ok := s.takenRooms[roomID]
	return id, ok
}

func (s *SiteState) tickRoomMessages(roomID int) {
	r, ok := s.roomState(roomID)
	if !ok {
		return
	}
	r.mu.Lock()
	r.messagesClock.next()
	r.mu.Unlock()
}

// SupportRoomsDelta lists support rooms needing the agent's attention:
// enabled support rooms with message traffic past the watermark, excluding
// rooms taken by a different agent. The returned watermark is the highest
// message stamp observed across support rooms.
func (s *SiteState) SupportRoomsDelta(agentID int, since int64) ([]SupportRoom, int64) {
	s.roomsMu.RLock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.roomsMu.RUnlock()

	out := make([]SupportRoom, 0)
	var max int64 = since
	for _, r := range rooms {
		r.mu.RLock()
		room := r.room
		stamp := r.messagesClock.current()
		r.mu.RUnlock()

		if room.Kind != models.RoomSupport || !room.Enabled {
			continue
		}
		if stamp > max {
			max = stamp
		}

		takenBy, taken := s.TakenBy(room.ID)
		if taken && takenBy != agentID {
			continue
		}
		if stamp > since {
			out = append(out, SupportRoom{Room: room, LastMessage: stamp, TakenByID: takenBy})
		}
	}
	return out, max
}
