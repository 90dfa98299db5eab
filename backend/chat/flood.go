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
	"fmt"
	"sync"
	"time"

	"github.com/efchatnet/efchat/backend/storage"
)

// FloodOperation names a rate-limited operation type.
type FloodOperation string

const (
	FloodJoinRoom       FloodOperation = "join_room"
	FloodPostMessage    FloodOperation = "post_message"
	FloodCreateRoom     FloodOperation = "create_room"
	FloodChangeNickname FloodOperation = "change_nickname"
)

// FloodLimit is the per-operation window configuration.
type FloodLimit struct {
	Limit  int
	Window time.Duration
}

// FloodLimits maps each guarded operation to its limit. Zero-limit entries
// disable the guard for that operation.
type FloodLimits map[FloodOperation]FloodLimit

// DefaultFloodLimits mirrors the historical per-operation windows.
func DefaultFloodLimits() FloodLimits {
	return FloodLimits{
		FloodJoinRoom:       {Limit: 10, Window: 30 * time.Second},
		FloodPostMessage:    {Limit: 15, Window: 10 * time.Second},
		FloodCreateRoom:     {Limit: 3, Window: time.Minute},
		FloodChangeNickname: {Limit: 3, Window: time.Minute},
	}
}

// FloodGuard gates an operation for a client identity. Implementations must
// be safe for concurrent use.
type FloodGuard interface {
	Allow(ctx context.Context, userKey string, op FloodOperation) (bool, error)
}

// StoreFloodGuard gates operations against a shared flood-counter store,
// typically Redis, so limits hold across server instances.
type StoreFloodGuard struct {
	store  storage.FloodStore
	limits FloodLimits
}

func NewStoreFloodGuard(store storage.FloodStore, limits FloodLimits) *StoreFloodGuard {
	return &StoreFloodGuard{store: store, limits: limits}
}

func (g *StoreFloodGuard) Allow(ctx context.Context, userKey string, op FloodOperation) (bool, error) {
	limit, ok := g.limits[op]
	if !ok || limit.Limit <= 0 {
		return true, nil
	}
	return g.store.Hit(ctx, fmt.Sprintf("%s:%s", op, userKey), limit.Limit, limit.Window)
}

// MemoryFloodGuard is a sliding-window guard held in process memory. It is
// the redis-less fallback and the test double.
type MemoryFloodGuard struct {
	limits FloodLimits

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryFloodGuard(limits FloodLimits) *MemoryFloodGuard {
	return &MemoryFloodGuard{
		limits: limits,
		hits:   make(map[string][]time.Time),
	}
}

func (g *MemoryFloodGuard) Allow(ctx context.Context, userKey string, op FloodOperation) (bool, error) {
	limit, ok := g.limits[op]
	if !ok || limit.Limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("%s:%s", op, userKey)
	now := time.Now()
	windowStart := now.Add(-limit.Window)

	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.hits[key][:0]
	for _, t := range g.hits[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit.Limit {
		g.hits[key] = kept
		return false, nil
	}

	g.hits[key] = append(kept, now)
	return true, nil
}
