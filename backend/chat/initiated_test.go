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
	"testing"

	"github.com/efchatnet/efchat/backend/models"
)

func TestCreateInitiatedRequestReusesNew(t *testing.T) {
	st := NewSiteState(DefaultConfig())

	first, err := st.CreateInitiatedRequest(7, 0, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := st.CreateInitiatedRequest(7, 0, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("a pending request for the same visitor must be reused")
	}

	if _, err := st.CreateInitiatedRequest(0, 0, 1); err == nil {
		t.Fatal("request without user or contact id must be refused")
	}
}

func TestAcceptInitiatedRequestStates(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	req, _ := st.CreateInitiatedRequest(7, 0, 1)

	if _, err := st.AcceptInitiatedRequest(req.ID, 8, 0); err == nil || err.Status != models.StatusAccessDenied {
		t.Fatalf("accepting someone else's request should be refused, got %v", err)
	}

	accepted, err := st.AcceptInitiatedRequest(req.ID, 7, 0)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.State != models.InitiatedChatAccepted {
		t.Fatalf("state should be accepted, got %s", accepted.State)
	}

	if _, err := st.AcceptInitiatedRequest(req.ID, 7, 0); err == nil || err.Status != models.StatusInitiatedChatRequestAlreadyAccepted {
		t.Fatalf("second accept must report the dedicated status, got %v", err)
	}

	if err := st.DeleteInitiatedRequest(req.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.AcceptInitiatedRequest(req.ID, 7, 0); err == nil || err.Status != models.StatusBadRequest {
		t.Fatalf("accepting a deleted request should be BadRequest, got %v", err)
	}
}

func TestDeclineInitiatedRequestIsQuietWhenStale(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	req, _ := st.CreateInitiatedRequest(0, 42, 1)

	if err := st.DeclineInitiatedRequest(req.ID, 0, 42); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	// The visitor dismissing an already-declined (or accepted) request is
	// not an error they should ever see.
	if err := st.DeclineInitiatedRequest(req.ID, 0, 42); err != nil {
		t.Fatalf("repeated decline must be a no-op, got %v", err)
	}

	got, ok := st.FindInitiatedRequest(0, 42)
	if !ok || got.State != models.InitiatedChatDeclined {
		t.Fatalf("request should stay declined, got %+v ok=%v", got, ok)
	}
}

func TestPendingInitiatedRequests(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	a, _ := st.CreateInitiatedRequest(1, 0, 1)
	b, _ := st.CreateInitiatedRequest(2, 0, 2)

	if _, err := st.AcceptInitiatedRequest(a.ID, 1, 0); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	pending := st.PendingInitiatedRequests()
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("only the untouched request should be pending, got %+v", pending)
	}
}
