// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package player

import "sync"

// Handle is a non-owning reference to a playing Scheduler. A Handle is
// only valid between a Scheduler's Play and Stop; timing callbacks hold a
// Handle rather than the Scheduler and resolve it on each tick.
type Handle uint64

// handles is the process-wide handle registry.
var handles = registry{live: make(map[Handle]*Scheduler)}

type registry struct {
	mu   sync.Mutex
	next Handle
	live map[Handle]*Scheduler
}

func (r *registry) register(s *Scheduler) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.live[r.next] = s
	return r.next
}

func (r *registry) resolve(h Handle) (*Scheduler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.live[h]
	return s, ok
}

func (r *registry) release(h Handle) {
	r.mu.Lock()
	delete(r.live, h)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
