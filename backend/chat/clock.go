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
	"sync"
	"time"
)

// changeClock issues strictly increasing stamps for one delta-sync
// category. Wall clock resolution is too coarse for back-to-back writes,
// so ties are broken by bumping past the last issued stamp. Stamps are
// always positive, which keeps 0 free as the "full snapshot" sentinel.
type changeClock struct {
	mu   sync.Mutex
	last int64
}

func (c *changeClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UnixNano()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// current returns the newest issued stamp, 0 if nothing was stamped yet.
func (c *changeClock) current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
