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

package storage

import (
	"context"
	"time"
)

// Event is one audit record: a room lifecycle change, a moderation action
// or an unexpected failure, attributed to an operation and a user.
type Event struct {
	Operation string
	Detail    string
	UserID    int
	RoomID    int
	At        time.Time
}

// EventLog is the append-only audit trail.
type EventLog interface {
	Append(ctx context.Context, ev Event) error
}

// FloodStore counts operation hits per client identity within a sliding
// window and reports whether the hit stays under the limit.
type FloodStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, err error)
}
