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

// newSupportRoomWithTraffic sets up a visitor, their support room and one
// message in it.
func newSupportRoomWithTraffic(t *testing.T, st *SiteState) (models.ChatUser, models.ChatRoom) {
	t.Helper()
	visitor := st.RegisterUser("visitor", false, false, 0)
	room, err := st.CreateRoom(visitor.ID, "Support - visitor", SupportCodeName(visitor.ID), true, "", true, models.RoomSupport)
	if err != nil {
		t.Fatalf("create support room failed: %v", err)
	}
	if _, jerr := st.JoinRoom(visitor, room.ID, ""); jerr != nil {
		t.Fatalf("visitor join failed: %v", jerr)
	}
	if _, perr := st.PostMessage(visitor.ID, room.ID, 0, "I need help"); perr != nil {
		t.Fatalf("post failed: %v", perr)
	}
	return visitor, room
}

func TestSupportPresence(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	agent := st.RegisterUser("agent", false, true, 0)

	if st.IsSupportOnline(agent.ID) {
		t.Fatal("agent should start off duty")
	}
	if st.TouchSupport(agent.ID) {
		t.Fatal("touching an off-duty agent must fail")
	}

	st.EnterSupport(agent.ID)
	if !st.IsSupportOnline(agent.ID) || st.SupportOnlineCount() != 1 {
		t.Fatal("agent should be on duty after entering")
	}

	st.LeaveSupport(agent.ID)
	if st.IsSupportOnline(agent.ID) || st.SupportOnlineCount() != 0 {
		t.Fatal("agent should be off duty after leaving")
	}
}

func TestTakeRoomIsExclusive(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	_, room := newSupportRoomWithTraffic(t, st)
	agent1 := st.RegisterUser("agent1", false, true, 0)
	agent2 := st.RegisterUser("agent2", false, true, 0)

	if err := st.TakeRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	// Re-taking one's own claim is fine.
	if err := st.TakeRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("re-take failed: %v", err)
	}
	if err := st.TakeRoom(agent2.ID, room.ID); err == nil || err.Status != models.StatusAccessDenied {
		t.Fatalf("second agent's take should be refused, got %v", err)
	}
	if err := st.ReleaseRoom(agent2.ID, room.ID); err == nil || err.Status != models.StatusAccessDenied {
		t.Fatalf("releasing someone else's claim should be refused, got %v", err)
	}
	if err := st.ReleaseRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := st.TakeRoom(agent2.ID, room.ID); err != nil {
		t.Fatalf("take after release failed: %v", err)
	}
}

func TestTakeRoomRefusesDisabledRoom(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	_, room := newSupportRoomWithTraffic(t, st)
	agent := st.RegisterUser("agent", false, true, 0)

	if err := st.DisableRoom(room.ID); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	if err := st.TakeRoom(agent.ID, room.ID); err == nil || err.Status != models.StatusRoomNotFound {
		t.Fatalf("taking a disabled room should fail with RoomNotFound, got %v", err)
	}
	if _, taken := st.TakenBy(room.ID); taken {
		t.Fatal("no claim should exist after the refused take")
	}
}

func TestSupportRoomsDeltaSkipsTakenRooms(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	_, room := newSupportRoomWithTraffic(t, st)
	agent1 := st.RegisterUser("agent1", false, true, 0)
	agent2 := st.RegisterUser("agent2", false, true, 0)

	rooms, mark := st.SupportRoomsDelta(agent1.ID, 0)
	if len(rooms) != 1 || rooms[0].Room.ID != room.ID {
		t.Fatalf("untaken room with traffic should be listed, got %+v", rooms)
	}
	if mark == 0 {
		t.Fatal("watermark must be positive once traffic exists")
	}

	if err := st.TakeRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("take failed: %v", err)
	}

	// The claiming agent keeps seeing it; the other one does not.
	rooms, _ = st.SupportRoomsDelta(agent1.ID, 0)
	if len(rooms) != 1 || rooms[0].TakenByID != agent1.ID {
		t.Fatalf("claiming agent should still see the room, got %+v", rooms)
	}
	rooms, _ = st.SupportRoomsDelta(agent2.ID, 0)
	if len(rooms) != 0 {
		t.Fatalf("taken room must be hidden from other agents, got %+v", rooms)
	}

	// Releasing ticks the room's clock so it reappears past the watermark
	// other agents already hold.
	if err := st.ReleaseRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	rooms, _ = st.SupportRoomsDelta(agent2.ID, mark)
	if len(rooms) != 1 {
		t.Fatalf("released room should reappear for other agents, got %+v", rooms)
	}
}

func TestLeaveSupportReleasesClaims(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	_, room := newSupportRoomWithTraffic(t, st)
	agent1 := st.RegisterUser("agent1", false, true, 0)
	agent2 := st.RegisterUser("agent2", false, true, 0)
	st.EnterSupport(agent1.ID)
	st.EnterSupport(agent2.ID)

	if err := st.TakeRoom(agent1.ID, room.ID); err != nil {
		t.Fatalf("take failed: %v", err)
	}
	_, mark := st.SupportRoomsDelta(agent2.ID, 0)

	st.LeaveSupport(agent1.ID)

	if _, taken := st.TakenBy(room.ID); taken {
		t.Fatal("leaving support must drop the agent's claims")
	}
	rooms, _ := st.SupportRoomsDelta(agent2.ID, mark)
	if len(rooms) != 1 {
		t.Fatalf("orphaned room should reappear for remaining agents, got %+v", rooms)
	}
}
