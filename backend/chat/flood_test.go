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
	"time"
)

func TestMemoryFloodGuardLimit(t *testing.T) {
	g := NewMemoryFloodGuard(FloodLimits{
		FloodPostMessage: {Limit: 3, Window: time.Minute},
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := g.Allow(ctx, "1", FloodPostMessage)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}

	allowed, err := g.Allow(ctx, "1", FloodPostMessage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("hit over the limit should be refused")
	}

	// Another user is counted separately.
	allowed, _ = g.Allow(ctx, "2", FloodPostMessage)
	if !allowed {
		t.Fatal("different user key must have its own window")
	}

	// So is another operation for the same user.
	allowed, _ = g.Allow(ctx, "1", FloodJoinRoom)
	if !allowed {
		t.Fatal("unconfigured operation must not be limited")
	}
}

func TestMemoryFloodGuardWindowSlides(t *testing.T) {
	g := NewMemoryFloodGuard(FloodLimits{
		FloodJoinRoom: {Limit: 1, Window: 20 * time.Millisecond},
	})
	ctx := context.Background()

	if allowed, _ := g.Allow(ctx, "1", FloodJoinRoom); !allowed {
		t.Fatal("first hit should be allowed")
	}
	if allowed, _ := g.Allow(ctx, "1", FloodJoinRoom); allowed {
		t.Fatal("second hit inside the window should be refused")
	}

	time.Sleep(30 * time.Millisecond)

	if allowed, _ := g.Allow(ctx, "1", FloodJoinRoom); !allowed {
		t.Fatal("hit after the window passed should be allowed again")
	}
}
