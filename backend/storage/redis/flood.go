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

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const floodKeyPrefix = "chat:flood:" // chat:flood:{op}:{userKey} - sorted set of hits

// FloodStore counts operation hits in a sliding window backed by a Redis
// sorted set, so the limit holds across server instances.
type FloodStore struct {
	rdb *redis.Client
}

func NewFloodStore(rdb *redis.Client) *FloodStore {
	return &FloodStore{rdb: rdb}
}

// hitScript trims the window, counts, and records the hit atomically.
// Member uniqueness comes from an INCR counter, not the timestamp, so two
// hits in the same millisecond both count.
var hitScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		return 0
	end

	local counter = redis.call('INCR', key .. ':counter')
	redis.call('ZADD', key, now, now .. ':' .. counter)
	local expire_seconds = math.ceil(window_ms / 1000)
	redis.call('EXPIRE', key, expire_seconds)
	redis.call('EXPIRE', key .. ':counter', expire_seconds)
	return 1
`)

// Hit records one hit for the key and reports whether it stayed under the
// limit.
func (s *FloodStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	redisKey := floodKeyPrefix + key

	allowed, err := hitScript.Run(ctx, s.rdb, []string{redisKey},
		now.UnixMilli(), now.Add(-window).UnixMilli(), limit, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("flood script failed: %w", err)
	}
	return allowed == 1, nil
}

// Reset clears the window for a key.
func (s *FloodStore) Reset(ctx context.Context, key string) error {
	redisKey := floodKeyPrefix + key
	return s.rdb.Del(ctx, redisKey, redisKey+":counter").Err()
}
