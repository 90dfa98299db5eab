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
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

func TestSweepIdleTakesUsersOfflineEverywhere(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	active := st.RegisterUser("active", false, false, 0)
	idle := st.RegisterUser("idle", false, true, 0)

	room, _ := st.CreateRoom(idle.ID, "Town", "", false, "", true, models.RoomClassic)
	if _, jerr := st.JoinRoom(idle, room.ID, ""); jerr != nil {
		t.Fatalf("join failed: %v", jerr)
	}
	st.EnterSupport(idle.ID)

	_, mark := st.OnlineUsersDelta(0)

	// Keep one user fresh past the cutoff, then sweep.
	future := time.Now().Add(2 * st.Config().IdleTimeout)
	st.Touch(active.ID, future)
	st.SweepIdle(future)

	u, _ := st.User(idle.ID)
	if u.Online {
		t.Fatal("idle user should be offline after the sweep")
	}
	u, _ = st.User(active.ID)
	if !u.Online {
		t.Fatal("recently polling user must stay online")
	}

	users, _, err := st.RoomUsersDelta(room.ID, 0)
	if err != nil {
		t.Fatalf("room delta failed: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("room snapshot should have no one online, got %+v", users)
	}
	if st.IsSupportOnline(idle.ID) {
		t.Fatal("sweep must clear support presence too")
	}

	// The flip is observable through the online-users delta.
	changed, _ := st.OnlineUsersDelta(mark)
	found := false
	for _, c := range changed {
		if c.ID == idle.ID && !c.Online {
			found = true
		}
	}
	if !found {
		t.Fatalf("delta should report the idle user going offline, got %+v", changed)
	}

	// The next ping brings them straight back.
	if !st.Touch(idle.ID, future) {
		t.Fatal("touch failed")
	}
	u, _ = st.User(idle.ID)
	if !u.Online {
		t.Fatal("touch should revive the user")
	}
}

func TestOnlineUsersDeltaSnapshotAndNicknameChange(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	alice := st.RegisterUser("alice", false, false, 0)
	st.RegisterUser("bob", false, false, 0)

	users, mark := st.OnlineUsersDelta(0)
	if len(users) != 2 {
		t.Fatalf("snapshot should list both users, got %d", len(users))
	}

	users, mark2 := st.OnlineUsersDelta(mark)
	if len(users) != 0 || mark2 != mark {
		t.Fatalf("idle delta should be empty, got %d items", len(users))
	}

	if err := st.ChangeNickname(alice.ID, "alicia"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	users, _ = st.OnlineUsersDelta(mark)
	if len(users) != 1 || users[0].Nickname != "alicia" {
		t.Fatalf("rename should surface in the delta, got %+v", users)
	}
}

func TestSearchOnlineUsers(t *testing.T) {
	st := NewSiteState(DefaultConfig())
	st.RegisterUser("Alice", false, false, 0)
	bob := st.RegisterUser("Bob", false, false, 0)
	st.SetOffline(bob.ID)

	if got := st.SearchOnlineUsers("ali"); len(got) != 1 || got[0].Nickname != "Alice" {
		t.Fatalf("case-insensitive substring search failed, got %+v", got)
	}
	if got := st.SearchOnlineUsers("bob"); len(got) != 0 {
		t.Fatalf("offline users must not match, got %+v", got)
	}
	if got := st.SearchOnlineUsers(""); len(got) != 1 {
		t.Fatalf("empty query should list everyone online, got %+v", got)
	}
}
