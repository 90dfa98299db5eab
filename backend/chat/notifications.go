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

	"github.com/google/uuid"

	"github.com/efchatnet/efchat/backend/models"
)

// AddNotification queues an addressed event for one user.
func (s *SiteState) AddNotification(kind models.NotificationKind, senderID, receiverID, roomID int) models.ChatNotification {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	n := &models.ChatNotification{
		ID:         uuid.New().String(),
		Kind:       kind,
		SenderID:   senderID,
		ReceiverID: receiverID,
		RoomID:     roomID,
		CreatedAt:  time.Now(),
		Stamp:      s.notifClock.next(),
	}
	s.notifs[n.ID] = n
	s.byReceiver[receiverID] = append(s.byReceiver[receiverID], n)
	return *n
}

// MarkNotificationRead closes a notification. Closing an already-read
// notification is not an error; the read flag just stays set.
func (s *SiteState) MarkNotificationRead(id string, userID int) *Error {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return errBadRequest("notification does not exist")
	}
	if n.ReceiverID != userID {
		return errAccessDenied("notification belongs to another user")
	}
	if !n.Read {
		n.Read = true
		n.Stamp = s.notifClock.next()
	}
	return nil
}

// ResolveInvitation consumes an invitation notification. Resolution is
// one-shot: the read flag is the latch, so a second accept or decline fails
// with InvitationAlreadyAnswered.
func (s *SiteState) ResolveInvitation(id string, userID int) (models.ChatNotification, *Error) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return models.ChatNotification{}, errBadRequest("notification does not exist")
	}
	if n.ReceiverID != userID {
		return models.ChatNotification{}, errAccessDenied("notification belongs to another user")
	}
	if n.Kind != models.NotificationInvitation {
		return models.ChatNotification{}, errBadRequest("notification is not an invitation")
	}
	if n.Read {
		return models.ChatNotification{}, errInvitationAnswered()
	}
	n.Read = true
	n.Stamp = s.notifClock.next()
	return *n, nil
}

// reopenInvitation puts a consumed invitation back. Used when the action
// behind an accept fails after the latch was taken, so the caller can retry
// instead of losing the invitation.
func (s *SiteState) reopenInvitation(id string) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	n, ok := s.notifs[id]
	if !ok || n.Kind != models.NotificationInvitation {
		return
	}
	n.Read = false
	n.Stamp = s.notifClock.next()
}

// CloseAllNotifications bulk-marks the user's notifications with stamps up
// to untilWhen as read. Clients use it to catch up after being offline.
func (s *SiteState) CloseAllNotifications(userID int, untilWhen int64) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	for _, n := range s.byReceiver[userID] {
		if !n.Read && n.Stamp <= untilWhen {
			n.Read = true
			n.Stamp = s.notifClock.next()
		}
	}
}

// NotificationsDelta implements the notifications sync category for one
// receiver. since == 0 returns the unread set; deltas carry every
// notification changed after the watermark including read-flag flips.
func (s *SiteState) NotificationsDelta(userID int, since int64) ([]models.ChatNotification, int64) {
	s.notifMu.RLock()
	defer s.notifMu.RUnlock()

	out := make([]models.ChatNotification, 0)
	for _, n := range s.byReceiver[userID] {
		if since == 0 {
			if !n.Read {
				out = append(out, *n)
			}
		} else if n.Stamp > since {
			out = append(out, *n)
		}
	}
	return out, s.notifClock.current()
}
