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
	"github.com/google/uuid"

	"github.com/efchatnet/efchat/backend/models"
)

// CreateInitiatedRequest opens a "contact me" request from support toward a
// visitor, addressed by user id or marketing contact id. An existing New
// request for the same visitor is reused instead of duplicated.
func (s *SiteState) CreateInitiatedRequest(userID, contactID, roomID int) (models.InitiatedChatRequest, *Error) {
	if userID == 0 && contactID == 0 {
		return models.InitiatedChatRequest{}, errBadRequest("either user id or contact id is required")
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	for _, req := range s.initiated {
		if req.State != models.InitiatedChatNew {
			continue
		}
		if (userID != 0 && req.UserID == userID) || (contactID != 0 && req.ContactID == contactID) {
			return *req, nil
		}
	}

	req := &models.InitiatedChatRequest{
		ID:        uuid.New().String(),
		UserID:    userID,
		ContactID: contactID,
		State:     models.InitiatedChatNew,
		RoomID:    roomID,
		Stamp:     s.initClock.next(),
	}
	s.initiated[req.ID] = req
	return *req, nil
}

// FindInitiatedRequest returns the visitor's current non-deleted request.
func (s *SiteState) FindInitiatedRequest(userID, contactID int) (models.InitiatedChatRequest, bool) {
	s.initMu.RLock()
	defer s.initMu.RUnlock()

	var found *models.InitiatedChatRequest
	for _, req := range s.initiated {
		if req.State == models.InitiatedChatDeleted {
			continue
		}
		if (userID != 0 && req.UserID == userID) || (contactID != 0 && req.ContactID == contactID) {
			if found == nil || req.Stamp > found.Stamp {
				found = req
			}
		}
	}
	if found == nil {
		return models.InitiatedChatRequest{}, false
	}
	return *found, true
}

// ownsRequest checks the request is addressed to the caller, by contact id
// or authenticated user id.
func ownsRequest(req *models.InitiatedChatRequest, userID, contactID int) bool {
	if req.UserID != 0 && req.UserID == userID {
		return true
	}
	if req.ContactID != 0 && req.ContactID == contactID {
		return true
	}
	return false
}

// AcceptInitiatedRequest transitions New -> Accepted. Accepted and Deleted
// are terminal for accept.
func (s *SiteState) AcceptInitiatedRequest(id string, userID, contactID int) (models.InitiatedChatRequest, *Error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	req, ok := s.initiated[id]
	if !ok {
		return models.InitiatedChatRequest{}, errBadRequest("chat request does not exist")
	}
	if !ownsRequest(req, userID, contactID) {
		return models.InitiatedChatRequest{}, errAccessDenied("chat request belongs to another visitor")
	}
	switch req.State {
	case models.InitiatedChatNew:
		req.State = models.InitiatedChatAccepted
		req.Stamp = s.initClock.next()
		return *req, nil
	case models.InitiatedChatAccepted:
		return models.InitiatedChatRequest{}, errRequestAlreadyAccepted()
	default:
		return models.InitiatedChatRequest{}, errBadRequest("chat request can no longer be accepted")
	}
}

// DeclineInitiatedRequest transitions New -> Declined. Declining a request
// that is no longer New is a silent no-op, not an error.
func (s *SiteState) DeclineInitiatedRequest(id string, userID, contactID int) *Error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	req, ok := s.initiated[id]
	if !ok {
		return errBadRequest("chat request does not exist")
	}
	if !ownsRequest(req, userID, contactID) {
		return errAccessDenied("chat request belongs to another visitor")
	}
	if req.State == models.InitiatedChatNew {
		req.State = models.InitiatedChatDeclined
		req.Stamp = s.initClock.next()
	}
	return nil
}

// DeleteInitiatedRequest administratively closes a request.
func (s *SiteState) DeleteInitiatedRequest(id string) *Error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	req, ok := s.initiated[id]
	if !ok {
		return errBadRequest("chat request does not exist")
	}
	req.State = models.InitiatedChatDeleted
	req.Stamp = s.initClock.next()
	return nil
}

// PendingInitiatedRequests lists New requests for the support side.
func (s *SiteState) PendingInitiatedRequests() []models.InitiatedChatRequest {
	s.initMu.RLock()
	defer s.initMu.RUnlock()

	out := make([]models.InitiatedChatRequest, 0)
	for _, req := range s.initiated {
		if req.State == models.InitiatedChatNew {
			out = append(out, *req)
		}
	}
	return out
}
