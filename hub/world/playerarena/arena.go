// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package playerarena hands out stable (slot, generation) identities for
// players, so a PlayerID stays meaningful without relying on pointer
// identity or GC liveness. It generalizes the retry-on-collision allocator
// in world/entity_id.go into a free-list slot allocator.
package playerarena

import "sync"

// Arena allocates slot/generation pairs. Slot 0 is never handed out, so the
// zero value of a packed ID can be used as an "invalid" sentinel.
type Arena struct {
	mu   sync.Mutex
	gens []uint32 // gens[slot] is the current generation of that slot
	free []uint32
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{gens: []uint32{0}} // slot 0 reserved, never allocated
}

// Acquire reserves a free slot and returns its current generation.
func (a *Arena) Acquire() (slot, generation uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
		return slot, a.gens[slot]
	}

	slot = uint32(len(a.gens))
	a.gens = append(a.gens, 1)
	return slot, a.gens[slot]
}

// Release frees a slot, bumping its generation so stale ids referencing it
// are detected by Valid.
func (a *Arena) Release(slot uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if slot == 0 || int(slot) >= len(a.gens) {
		return
	}
	a.gens[slot]++
	a.free = append(a.free, slot)
}

// Valid reports whether slot is currently allocated with the given generation.
func (a *Arena) Valid(slot, generation uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slot != 0 && int(slot) < len(a.gens) && a.gens[slot] == generation
}

// Pack combines a slot and generation into a single stable identifier.
func Pack(slot, generation uint32) uint64 {
	return uint64(generation)<<32 | uint64(slot)
}

// Unpack splits a packed identifier back into its slot and generation.
func Unpack(id uint64) (slot, generation uint32) {
	return uint32(id), uint32(id >> 32)
}
