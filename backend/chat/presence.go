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
	"strings"
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// RegisterUser creates a chat user and puts them in the online set.
func (s *SiteState) RegisterUser(nickname string, anonymous, support bool, contactID int) models.ChatUser {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	s.nextUserID++
	u := &models.ChatUser{
		ID:           s.nextUserID,
		Nickname:     nickname,
		IsAnonymous:  anonymous,
		IsSupport:    support,
		ContactID:    contactID,
		LastChecking: time.Now(),
		Online:       true,
		ChangeStamp:  s.onlineClock.next(),
	}
	s.users[u.ID] = u
	return *u
}

// User returns a snapshot of a chat user.
func (s *SiteState) User(id int) (models.ChatUser, bool) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.ChatUser{}, false
	}
	return *u, true
}

// Touch refreshes a user's last checking timestamp. A user who had aged out
// of the online set comes back online here.
func (s *SiteState) Touch(id int, now time.Time) bool {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false
	}
	u.LastChecking = now
	if !u.Online {
		u.Online = true
		u.ChangeStamp = s.onlineClock.next()
	}
	return true
}

// SetOffline removes a user from the global online set (logout). Room
// presence is cleared by the caller.
func (s *SiteState) SetOffline(id int) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if u, ok := s.users[id]; ok && u.Online {
		u.Online = false
		u.ChangeStamp = s.onlineClock.next()
	}
}

// OfflineEverywhere takes a user offline globally, in every room and in the
// support subset. Memberships and room claims are untouched.
func (s *SiteState) OfflineEverywhere(userID int) {
	s.SetOffline(userID)

	s.roomsMu.RLock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.roomsMu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		if m, ok := r.members[userID]; ok && m.online {
			m.online = false
			m.stamp = r.usersClock.next()
			r.countStamp = s.countsClock.next()
		}
		r.mu.Unlock()
	}

	s.supportMu.Lock()
	delete(s.supportOnline, userID)
	s.supportMu.Unlock()
}

// ChangeNickname renames a user. The rename is an online-users change so
// polling clients pick up the new name.
func (s *SiteState) ChangeNickname(id int, nickname string) *Error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return errBadRequest("nickname must not be empty")
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errUserNotFound()
	}
	u.Nickname = nickname
	u.ChangeStamp = s.onlineClock.next()
	return nil
}

// SearchOnlineUsers returns online users whose nickname contains the query,
// case-insensitively. An empty query matches everyone online.
func (s *SiteState) SearchOnlineUsers(query string) []models.ChatUser {
	query = strings.ToLower(strings.TrimSpace(query))

	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	out := make([]models.ChatUser, 0)
	for _, u := range s.users {
		if !u.Online {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Nickname), query) {
			continue
		}
		out = append(out, *u)
	}
	return out
}

// OnlineUsersDelta implements the online-users sync category. since == 0
// returns the full online snapshot; otherwise every user whose online state
// or nickname changed after the watermark, including ones that went
// offline so clients can drop them.
func (s *SiteState) OnlineUsersDelta(since int64) ([]models.ChatUser, int64) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	out := make([]models.ChatUser, 0)
	for _, u := range s.users {
		if since == 0 {
			if u.Online {
				out = append(out, *u)
			}
		} else if u.ChangeStamp > since {
			out = append(out, *u)
		}
	}
	return out, s.onlineClock.current()
}
