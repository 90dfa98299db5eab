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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// roomState is one room plus everything scoped to it: memberships, room
// presence and the message log. The single mutex covers all of it, which is
// what makes the membership-check-then-presence-write in PingRoom safe.
type roomState struct {
	mu            sync.RWMutex
	room          models.ChatRoom
	members       map[int]*memberState
	messages      []*models.ChatMessage
	usersClock    changeClock
	messagesClock changeClock
	countStamp    int64
}

type memberState struct {
	membership   models.RoomMembership
	online       bool
	lastChecking time.Time
	stamp        int64
}

// RoomUser is one entry of the per-room users sync category.
type RoomUser struct {
	UserID     int               `json:"user_id"`
	Nickname   string            `json:"nickname"`
	AdminLevel models.AdminLevel `json:"admin_level"`
	Online     bool              `json:"online"`
	Stamp      int64             `json:"change"`
}

// RoomOnlineCount is one entry of the users-in-rooms sync category.
type RoomOnlineCount struct {
	RoomID      int `json:"room_id"`
	OnlineCount int `json:"online_count"`
}

func hashRoomPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// OneToOneCodeName is the deterministic natural key for an ad hoc room
// between two users, identical for either argument order.
func OneToOneCodeName(userID1, userID2 int) string {
	lo, hi := userID1, userID2
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("adhoc_%d-%d", lo, hi)
}

// SupportCodeName is the natural key of a user's support room.
func SupportCodeName(userID int) string {
	return fmt.Sprintf("support_%d", userID)
}

// CreateRoom creates a room and joins the creator as its admin. The code
// name is a natural key; creating over an existing code name fails.
func (s *SiteState) CreateRoom(creatorID int, displayName, codeName string, private bool, password string, allowAnonymous bool, kind models.RoomKind) (models.ChatRoom, *Error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return models.ChatRoom{}, errBadRequest("room name must not be empty")
	}
	if codeName == "" {
		codeName = strings.ToLower(strings.ReplaceAll(displayName, " ", "_"))
	}

	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	if _, exists := s.byCode[codeName]; exists {
		return models.ChatRoom{}, errBadRequest("a room with this code name already exists")
	}

	s.nextRoomID++
	r := &roomState{
		room: models.ChatRoom{
			ID:             s.nextRoomID,
			DisplayName:    displayName,
			CodeName:       codeName,
			Private:        private,
			AllowAnonymous: allowAnonymous,
			Kind:           kind,
			Enabled:        true,
			CreatedByID:    creatorID,
			ChangeStamp:    s.roomsClock.next(),
		},
		members: make(map[int]*memberState),
	}
	if password != "" {
		r.room.PasswordHash = hashRoomPassword(password)
		r.room.HasPassword = true
	}
	r.members[creatorID] = &memberState{
		membership: models.RoomMembership{
			RoomID:     r.room.ID,
			UserID:     creatorID,
			AdminLevel: models.LevelAdmin,
		},
		stamp: r.usersClock.next(),
	}
	s.rooms[r.room.ID] = r
	s.byCode[codeName] = r.room.ID
	return r.room, nil
}

// roomByCode returns the room registered under a code name, enabled or not.
func (s *SiteState) roomByCode(codeName string) (*roomState, bool) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	id, ok := s.byCode[codeName]
	if !ok {
		return nil, false
	}
	return s.rooms[id], true
}

func (s *SiteState) roomState(roomID int) (*roomState, bool) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	r, ok := s.rooms[roomID]
	return r, ok
}

// Room returns a snapshot of a room.
func (s *SiteState) Room(roomID int) (models.ChatRoom, bool) {
	r, ok := s.roomState(roomID)
	if !ok {
		return models.ChatRoom{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.room, true
}

// Membership returns a snapshot of a user's membership in a room.
func (s *SiteState) Membership(roomID, userID int) (models.RoomMembership, bool) {
	r, ok := s.roomState(roomID)
	if !ok {
		return models.RoomMembership{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[userID]
	if !ok {
		return models.RoomMembership{}, false
	}
	return m.membership, true
}

// JoinRoom runs the join-rights check and, if it passes, activates the
// membership and marks the user online in the room. Private rooms only
// accept users who already hold a non-revoked membership (obtained through
// an accepted invitation); admins skip the password check.
func (s *SiteState) JoinRoom(user models.ChatUser, roomID int, password string) (models.ChatRoom, *Error) {
	r, ok := s.roomState(roomID)
	if !ok {
		return models.ChatRoom{}, errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return models.ChatRoom{}, errRoomNotFound()
	}
	if user.IsAnonymous && !r.room.AllowAnonymous {
		return models.ChatRoom{}, errAccessDenied("room does not allow anonymous users")
	}

	m := r.members[user.ID]
	if m != nil && m.membership.PermanentlyLeft {
		return models.ChatRoom{}, errAccessDenied("membership in this room was revoked")
	}
	if m == nil {
		if r.room.Private {
			return models.ChatRoom{}, errAccessDenied("room is private, an invitation is required")
		}
		if r.room.PasswordHash != "" && hashRoomPassword(password) != r.room.PasswordHash {
			return models.ChatRoom{}, errAccessDenied("wrong room password")
		}
		m = &memberState{
			membership: models.RoomMembership{
				RoomID:     roomID,
				UserID:     user.ID,
				AdminLevel: models.LevelJoin,
			},
		}
		r.members[user.ID] = m
	} else if m.membership.AdminLevel != models.LevelAdmin &&
		r.room.PasswordHash != "" && hashRoomPassword(password) != r.room.PasswordHash {
		return models.ChatRoom{}, errAccessDenied("wrong room password")
	}

	m.online = true
	m.lastChecking = time.Now()
	m.stamp = r.usersClock.next()
	r.countStamp = s.countsClock.next()
	return r.room, nil
}

// LeaveRoom takes the user offline in the room. The permanent variant also
// revokes the membership on private rooms; on public rooms permanent
// behaves like a plain leave.
func (s *SiteState) LeaveRoom(userID, roomID int, permanent bool) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[userID]
	if !ok {
		return errNotJoined()
	}
	if m.online {
		m.online = false
		m.stamp = r.usersClock.next()
		r.countStamp = s.countsClock.next()
	}
	if permanent && r.room.Private {
		m.membership.PermanentlyLeft = true
		m.membership.AdminLevel = models.LevelNone
		m.stamp = r.usersClock.next()
	}
	return nil
}

// KickUser throws a user out of the room. Admins cannot be kicked; they
// have to be demoted first. The permanent variant revokes the membership so
// the target cannot rejoin without a fresh invitation.
func (s *SiteState) KickUser(adminID, targetID, roomID int, permanent bool) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.members[adminID]
	if !ok || admin.membership.AdminLevel != models.LevelAdmin {
		return errAccessDenied("only room admins can kick users")
	}
	target, ok := r.members[targetID]
	if !ok {
		return errNotJoined()
	}
	if target.membership.AdminLevel == models.LevelAdmin {
		return errCanNotKickAdmin()
	}

	if target.online {
		target.online = false
		r.countStamp = s.countsClock.next()
	}
	if permanent {
		target.membership.PermanentlyLeft = true
		target.membership.AdminLevel = models.LevelNone
	}
	target.stamp = r.usersClock.next()
	return nil
}

// SetAdmin grants or revokes room admin level. Caller must be a room admin.
func (s *SiteState) SetAdmin(adminID, targetID, roomID int, grant bool) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.members[adminID]
	if !ok || admin.membership.AdminLevel != models.LevelAdmin {
		return errAccessDenied("only room admins can change admin levels")
	}
	target, ok := r.members[targetID]
	if !ok || target.membership.PermanentlyLeft {
		return errNotJoined()
	}

	if grant {
		target.membership.AdminLevel = models.LevelAdmin
	} else {
		target.membership.AdminLevel = models.LevelJoin
	}
	target.stamp = r.usersClock.next()
	return nil
}

// EnsureMembership creates or reactivates a Join-level membership. Used by
// invitation acceptance, which may override a revoked membership.
func (s *SiteState) EnsureMembership(userID, roomID int) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return errRoomNotFound()
	}
	m, ok := r.members[userID]
	if !ok {
		m = &memberState{
			membership: models.RoomMembership{
				RoomID:     roomID,
				UserID:     userID,
				AdminLevel: models.LevelJoin,
			},
		}
		r.members[userID] = m
	} else {
		m.membership.PermanentlyLeft = false
		if m.membership.AdminLevel == models.LevelNone {
			m.membership.AdminLevel = models.LevelJoin
		}
	}
	m.stamp = r.usersClock.next()
	return nil
}

// ChangeRoom mutates room metadata. hasPassword with an empty password
// keeps the current one; hasPassword == false clears it.
func (s *SiteState) ChangeRoom(roomID int, displayName string, hasPassword bool, password string, allowAnonymous bool) (models.ChatRoom, *Error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return models.ChatRoom{}, errBadRequest("room name must not be empty")
	}

	r, ok := s.roomState(roomID)
	if !ok {
		return models.ChatRoom{}, errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return models.ChatRoom{}, errRoomNotFound()
	}
	r.room.DisplayName = displayName
	r.room.AllowAnonymous = allowAnonymous
	switch {
	case !hasPassword:
		r.room.PasswordHash = ""
		r.room.HasPassword = false
	case password != "":
		r.room.PasswordHash = hashRoomPassword(password)
		r.room.HasPassword = true
	}
	r.room.ChangeStamp = s.roomsClock.next()
	return r.room, nil
}

// DisableRoom soft-deletes a room. The disabled room stays in the registry
// so delta readers observe Enabled == false and drop it.
func (s *SiteState) DisableRoom(roomID int) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return errRoomNotFound()
	}
	r.room.Enabled = false
	r.room.ChangeStamp = s.roomsClock.next()
	// Count watchers get one last entry so they drop the room too.
	r.countStamp = s.countsClock.next()
	return nil
}

// TouchRoomPresence is PingRoom's registry update. The membership check and
// the presence write happen under the room lock so a permanently kicked
// user cannot resurrect their membership by racing the kick.
func (s *SiteState) TouchRoomPresence(userID, roomID int, now time.Time) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return errRoomNotFound()
	}
	m, ok := r.members[userID]
	if !ok || m.membership.PermanentlyLeft {
		return errNotJoined()
	}
	m.lastChecking = now
	if !m.online {
		m.online = true
		m.stamp = r.usersClock.next()
		r.countStamp = s.countsClock.next()
	}
	return nil
}

// RoomUsersDelta implements the per-room users sync category. since == 0
// returns the currently online members; otherwise all members whose room
// presence or level changed after the watermark.
func (s *SiteState) RoomUsersDelta(roomID int, since int64) ([]RoomUser, int64, *Error) {
	r, ok := s.roomState(roomID)
	if !ok {
		return nil, 0, errRoomNotFound()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomUser, 0)
	for id, m := range r.members {
		include := false
		if since == 0 {
			include = m.online
		} else {
			include = m.stamp > since
		}
		if include {
			out = append(out, RoomUser{
				UserID:     id,
				AdminLevel: m.membership.AdminLevel,
				Online:     m.online,
				Stamp:      m.stamp,
			})
		}
	}
	return out, r.usersClock.current(), nil
}

// RoomsDelta implements the global rooms sync category for one caller.
// Visible rooms are enabled public non-support rooms plus rooms where the
// caller holds a non-revoked membership. Deltas additionally carry rooms
// that were disabled after the watermark.
func (s *SiteState) RoomsDelta(userID int, since int64) ([]models.ChatRoom, int64) {
	s.roomsMu.RLock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.roomsMu.RUnlock()

	out := make([]models.ChatRoom, 0)
	for _, r := range rooms {
		r.mu.RLock()
		member, isMember := r.members[userID]
		// Delta reads must keep a disabled public room visible: the final
		// Enabled == false record is how non-members learn to drop it.
		visible := (!r.room.Private && r.room.Kind != models.RoomSupport && (r.room.Enabled || since > 0)) ||
			(isMember && !member.membership.PermanentlyLeft)
		if visible {
			if since == 0 {
				if r.room.Enabled {
					out = append(out, r.room)
				}
			} else if r.room.ChangeStamp > since {
				out = append(out, r.room)
			}
		}
		r.mu.RUnlock()
	}
	return out, s.roomsClock.current()
}

// RoomCountsDelta implements the users-in-rooms sync category: online user
// counts for rooms whose presence changed after the watermark.
func (s *SiteState) RoomCountsDelta(since int64) ([]RoomOnlineCount, int64) {
	s.roomsMu.RLock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.roomsMu.RUnlock()

	out := make([]RoomOnlineCount, 0)
	for _, r := range rooms {
		r.mu.RLock()
		include := false
		if since == 0 {
			include = r.room.Enabled
		} else {
			include = r.countStamp > since
		}
		if include {
			// A disabled room reports zero as its final count.
			count := 0
			if r.room.Enabled {
				for _, m := range r.members {
					if m.online {
						count++
					}
				}
			}
			out = append(out, RoomOnlineCount{RoomID: r.room.ID, OnlineCount: count})
		}
		r.mu.RUnlock()
	}
	return out, s.countsClock.current()
}
