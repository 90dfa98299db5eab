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

	"github.com/google/uuid"

	"github.com/efchatnet/efchat/backend/models"
)

// PostMessage appends a message to the room log. The sender must hold an
// active membership and be online in the room. recipientID != 0 posts a
// whisper; delivery filtering happens at read time, not here.
func (s *SiteState) PostMessage(senderID, roomID, recipientID int, text string) (models.ChatMessage, *Error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, errBadRequest("message text must not be empty")
	}

	r, ok := s.roomState(roomID)
	if !ok {
		return models.ChatMessage{}, errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.room.Enabled {
		return models.ChatMessage{}, errRoomNotFound()
	}
	m, ok := r.members[senderID]
	if !ok || m.membership.PermanentlyLeft || !m.online {
		return models.ChatMessage{}, errNotJoined()
	}
	if recipientID != 0 {
		if _, ok := r.members[recipientID]; !ok {
			return models.ChatMessage{}, errUserNotFound()
		}
	}

	msg := &models.ChatMessage{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		PostedAt:    time.Now(),
		Stamp:       r.messagesClock.next(),
	}
	r.messages = append(r.messages, msg)
	return *msg, nil
}

// RejectMessage soft-deletes a message. The record stays in the log as an
// audit trail but disappears from every future delta read.
func (s *SiteState) RejectMessage(adminID, roomID int, messageID string) *Error {
	r, ok := s.roomState(roomID)
	if !ok {
		return errRoomNotFound()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.members[adminID]
	if !ok || admin.membership.AdminLevel != models.LevelAdmin {
		return errAccessDenied("only room admins can reject messages")
	}
	for _, msg := range r.messages {
		if msg.ID == messageID {
			msg.Rejected = true
			msg.Stamp = r.messagesClock.next()
			return nil
		}
	}
	return errBadRequest("message does not exist")
}

// messageVisible reports whether a message may be delivered to a reader.
// Rejected messages are invisible to everyone; whispers only to their two
// parties.
func messageVisible(msg *models.ChatMessage, readerID int) bool {
	if msg.Rejected {
		return false
	}
	if msg.RecipientID != 0 && msg.SenderID != readerID && msg.RecipientID != readerID {
		return false
	}
	return true
}

// RoomMessagesDelta implements the per-room messages sync category.
// since == 0 returns a snapshot of at most maxCount visible messages;
// deltas return every visible message stamped after the watermark,
// unconditionally, because they are bounded by the ping interval.
func (s *SiteState) RoomMessagesDelta(roomID, readerID int, since int64, maxCount int) ([]models.ChatMessage, int64, *Error) {
	r, ok := s.roomState(roomID)
	if !ok {
		return nil, 0, errRoomNotFound()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ChatMessage, 0)
	for _, msg := range r.messages {
		if !messageVisible(msg, readerID) {
			continue
		}
		if since == 0 || msg.Stamp > since {
			out = append(out, *msg)
		}
	}
	if since == 0 && maxCount > 0 && len(out) > maxCount {
		out = out[len(out)-maxCount:]
	}
	return out, r.messagesClock.current(), nil
}

// LastMessageStamp returns the stamp of the room's newest message, 0 when
// the room has none.
func (s *SiteState) LastMessageStamp(roomID int) int64 {
	r, ok := s.roomState(roomID)
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.messagesClock.current()
}
