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

package postgres

import (
	"context"

	"github.com/efchatnet/efchat/backend/storage"
)

// Append writes one audit event.
func (s *Store) Append(ctx context.Context, ev storage.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_events (operation, detail, user_id, room_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.Operation, ev.Detail, ev.UserID, ev.RoomID, ev.At)
	return err
}

// RecentEvents returns the newest audit events for a room.
func (s *Store) RecentEvents(ctx context.Context, roomID, limit int) ([]storage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operation, detail, user_id, room_id, created_at
		FROM chat_events
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []storage.Event
	for rows.Next() {
		var ev storage.Event
		if err := rows.Scan(&ev.Operation, &ev.Detail, &ev.UserID, &ev.RoomID, &ev.At); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
