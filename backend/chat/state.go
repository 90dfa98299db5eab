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
	"sync"
	"time"

	"github.com/efchatnet/efchat/backend/models"
)

// Config tunes one site's chat state.
type Config struct {
	// Enabled is the feature-license gate. When false every operation is
	// refused up front.
	Enabled bool
	// IdleTimeout is how long after the last ping a user still counts as
	// online.
	IdleTimeout time.Duration
	// SweepInterval is how often the background sweep ages out idle users.
	SweepInterval time.Duration
	// DefaultMaxMessages bounds the first-request message snapshot when the
	// client does not say otherwise.
	DefaultMaxMessages int
}

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		IdleTimeout:        70 * time.Second,
		SweepInterval:      30 * time.Second,
		DefaultMaxMessages: 100,
	}
}

// SiteState owns all shared chat state for one site: users and presence,
// rooms, notifications, initiated chat requests and support claims. It is
// constructed explicitly and injected into the facades; all concurrent
// access goes through its per-collection locks.
type SiteState struct {
	cfg Config

	usersMu     sync.RWMutex
	users       map[int]*models.ChatUser
	nextUserID  int
	onlineClock changeClock

	roomsMu     sync.RWMutex
	rooms       map[int]*roomState
	byCode      map[string]int
	nextRoomID  int
	roomsClock  changeClock
	countsClock changeClock

	notifMu    sync.RWMutex
	notifs     map[string]*models.ChatNotification
	byReceiver map[int][]*models.ChatNotification
	notifClock changeClock

	initMu    sync.RWMutex
	initiated map[string]*models.InitiatedChatRequest
	initClock changeClock

	supportMu     sync.RWMutex
	supportOnline map[int]time.Time
	takenRooms    map[int]int
}

func NewSiteState(cfg Config) *SiteState {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	if cfg.DefaultMaxMessages <= 0 {
		cfg.DefaultMaxMessages = DefaultConfig().DefaultMaxMessages
	}
	return &SiteState{
		cfg:           cfg,
		users:         make(map[int]*models.ChatUser),
		rooms:         make(map[int]*roomState),
		byCode:        make(map[string]int),
		notifs:        make(map[string]*models.ChatNotification),
		byReceiver:    make(map[int][]*models.ChatNotification),
		initiated:     make(map[string]*models.InitiatedChatRequest),
		supportOnline: make(map[int]time.Time),
		takenRooms:    make(map[int]int),
	}
}

func (s *SiteState) Config() Config {
	return s.cfg
}

// StartSweeper runs the presence sweep until ctx is done. A client that
// stops polling is disconnected here, not on any request path.
func (s *SiteState) StartSweeper(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepIdle(time.Now())
			}
		}
	}()
}

// SweepIdle takes every user whose last checking timestamp is older than
// the idle timeout offline, everywhere.
func (s *SiteState) SweepIdle(now time.Time) {
	cutoff := now.Add(-s.cfg.IdleTimeout)

	var idle []int
	s.usersMu.Lock()
	for id, u := range s.users {
		if u.Online && u.LastChecking.Before(cutoff) {
			u.Online = false
			u.ChangeStamp = s.onlineClock.next()
			idle = append(idle, id)
		}
	}
	s.usersMu.Unlock()

	if len(idle) == 0 {
		return
	}

	s.roomsMu.RLock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.roomsMu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		changed := false
		for _, id := range idle {
			if m, ok := r.members[id]; ok && m.online {
				m.online = false
				m.stamp = r.usersClock.next()
				changed = true
			}
		}
		if changed {
			r.countStamp = s.countsClock.next()
		}
		r.mu.Unlock()
	}

	s.supportMu.Lock()
	for _, id := range idle {
		delete(s.supportOnline, id)
	}
	s.supportMu.Unlock()
}
