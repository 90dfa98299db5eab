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
	"testing"

	"github.com/efchatnet/efchat/backend/models"
)

func TestSupportOpsGuardRoleAndDuty(t *testing.T) {
	svc := newTestService()
	support := NewSupportService(svc)
	ctx := context.Background()

	visitor := registerCaller(t, svc, "visitor")
	mustFail(t, support.EnterSupport(ctx, visitor), models.StatusAccessDenied)
	mustFail(t, support.SupportPing(ctx, visitor, i64(0)), models.StatusAccessDenied)

	agent := registerAgent(t, svc, "agent")
	// On-duty operations before entering support.
	mustFail(t, support.SupportPing(ctx, agent, i64(0)), models.StatusSupportIsNotOnline)
	mustFail(t, support.SupportTakeRoom(ctx, agent, 1), models.StatusSupportIsNotOnline)

	mustOK(t, support.EnterSupport(ctx, agent))
	mustOK(t, support.SupportPing(ctx, agent, i64(0)))
}

func TestSupportPingListsRoomsWithTraffic(t *testing.T) {
	svc := newTestService()
	support := NewSupportService(svc)
	ctx := context.Background()

	agent := registerAgent(t, svc, "agent")
	other := registerAgent(t, svc, "other")
	mustOK(t, support.EnterSupport(ctx, agent))
	mustOK(t, support.EnterSupport(ctx, other))

	visitor := registerCaller(t, svc, "visitor")
	room := mustOK(t, svc.CreateSupportChatRoom(ctx, visitor)).(models.ChatRoom)
	mustOK(t, svc.JoinRoom(ctx, visitor, room.ID, ""))
	mustOK(t, svc.PostMessage(ctx, visitor, room.ID, "help me"))

	result := mustOK(t, support.SupportPing(ctx, agent, i64(0))).(SupportPingResult)
	if len(result.Rooms) != 1 || result.Rooms[0].Room.ID != room.ID {
		t.Fatalf("support ping should list the room, got %+v", result.Rooms)
	}
	if result.OnlineSupport != 2 {
		t.Fatalf("expected 2 agents on duty, got %d", result.OnlineSupport)
	}
	mark := result.LastChange

	// Taking the room hides it from the other agent and lets the claimant
	// join and answer.
	mustOK(t, support.SupportTakeRoom(ctx, agent, room.ID))
	mustOK(t, svc.JoinRoom(ctx, agent, room.ID, ""))
	mustOK(t, svc.PostMessage(ctx, agent, room.ID, "on it"))

	otherView := mustOK(t, support.SupportPing(ctx, other, i64(0))).(SupportPingResult)
	if len(otherView.Rooms) != 0 {
		t.Fatalf("taken room must be hidden from other agents, got %+v", otherView.Rooms)
	}

	// Releasing brings it back past any watermark the other agent holds.
	mustOK(t, support.SupportLeaveRoom(ctx, agent, room.ID))
	otherView = mustOK(t, support.SupportPing(ctx, other, i64(mark))).(SupportPingResult)
	if len(otherView.Rooms) != 1 {
		t.Fatalf("released room should reappear, got %+v", otherView.Rooms)
	}
}

func TestInitiatedChatRoundTrip(t *testing.T) {
	svc := newTestService()
	support := NewSupportService(svc)
	ctx := context.Background()

	agent := registerAgent(t, svc, "agent")
	mustOK(t, support.EnterSupport(ctx, agent))
	visitor := registerCaller(t, svc, "visitor")

	req := mustOK(t, support.InitiateChatByUserID(ctx, agent, visitor.UserID)).(models.InitiatedChatRequest)
	if req.State != models.InitiatedChatNew {
		t.Fatalf("fresh request should be new, got %+v", req)
	}

	// The agent sees it pending; the visitor sees it on their poll.
	ping := mustOK(t, support.SupportPing(ctx, agent, nil)).(SupportPingResult)
	if len(ping.Requests) != 1 {
		t.Fatalf("request should be pending, got %+v", ping.Requests)
	}
	seen := mustOK(t, svc.PingInitiate(ctx, visitor)).(models.InitiatedChatRequest)
	if seen.ID != req.ID {
		t.Fatalf("visitor should see their request, got %+v", seen)
	}

	room := mustOK(t, svc.AcceptChatRequest(ctx, visitor, req.ID)).(models.ChatRoom)
	if room.ID != req.RoomID {
		t.Fatalf("accept should land in the prepared room, got %+v", room)
	}
	mustFail(t, svc.AcceptChatRequest(ctx, visitor, req.ID), models.StatusInitiatedChatRequestAlreadyAccepted)

	// Once accepted it is no longer pending.
	ping = mustOK(t, support.SupportPing(ctx, agent, nil)).(SupportPingResult)
	if len(ping.Requests) != 0 {
		t.Fatalf("accepted request must leave the pending list, got %+v", ping.Requests)
	}

	// Repeated initiation toward the same visitor reuses the open request,
	// never stacking duplicates.
	again := mustOK(t, support.InitiateChatByUserID(ctx, agent, visitor.UserID)).(models.InitiatedChatRequest)
	twice := mustOK(t, support.InitiateChatByUserID(ctx, agent, visitor.UserID)).(models.InitiatedChatRequest)
	if again.ID != twice.ID {
		t.Fatalf("open request should be reused, got %s and %s", again.ID, twice.ID)
	}
}

func TestInitiateChatByContactID(t *testing.T) {
	svc := newTestService()
	support := NewSupportService(svc)
	ctx := context.Background()

	agent := registerAgent(t, svc, "agent")
	mustOK(t, support.EnterSupport(ctx, agent))

	mustFail(t, support.InitiateChatByContactID(ctx, agent, 0), models.StatusBadRequest)

	req := mustOK(t, support.InitiateChatByContactID(ctx, agent, 314)).(models.InitiatedChatRequest)
	if req.ContactID != 314 || req.UserID != 0 {
		t.Fatalf("request should be addressed by contact id, got %+v", req)
	}

	// The anonymous visitor declines without ever registering.
	anon := Caller{ContactID: 314}
	mustOK(t, svc.DeclineChatRequest(ctx, anon, req.ID))
	// Dismissing it again stays quiet.
	mustOK(t, svc.DeclineChatRequest(ctx, anon, req.ID))
}
