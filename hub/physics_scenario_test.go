// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/tridentwake/hub/hub/terrain"
	"github.com/tridentwake/hub/hub/world"
)

// noTerrain is a Terrain that never collides and has no heightmap, so these
// scenario tests exercise boat/weapon combat without depending on the
// deterministic but otherwise irrelevant noise-generated terrain.
type noTerrain struct{}

func (noTerrain) At(world.AABB) *terrain.Data                 { return nil }
func (noTerrain) AtPos(world.Vec2f) byte                      { return 0 }
func (noTerrain) Clamp(aabb world.AABB) world.AABB            { return aabb }
func (noTerrain) Collides(*world.Entity, float32) bool        { return false }
func (noTerrain) Decode(*terrain.Data) ([]byte, error)        { return nil, nil }
func (noTerrain) Sculpt(world.Vec2f, float32)                 {}
func (noTerrain) Repair()                                     {}
func (noTerrain) Debug()                                      {}

// testClient is a minimal Client that does nothing on Send, so Physics/Update
// can run against it without a real websocket.
type testClient struct {
	ClientData
}

func (c *testClient) Close()            {}
func (c *testClient) Data() *ClientData { return &c.ClientData }
func (c *testClient) Destroy()          {}
func (c *testClient) Init()             {}
func (c *testClient) Send(out outbound) { out.Pool() }

// newScenarioHub builds a Hub big enough that nothing in these tests brushes
// up against the world border, with auth set so level>1 boats (e.g. the ram
// subkind) can be spawned directly.
func newScenarioHub() *Hub {
	h := NewHub(HubOptions{Auth: "test"})
	h.terrain = noTerrain{}
	return h
}

// spawnBoatAt spawns a named client's boat of the given type and forces its
// Transform to a known position/direction, bypassing spawnEntity's random
// placement so the scenario is deterministic. It returns the client and the
// EntityID: the *world.Entity itself must never be held across calls that
// mutate the World, since sectors reallocate their backing arrays on growth
// (see World.EntityByID's doc comment).
func spawnBoatAt(t *testing.T, h *Hub, entityType, name string, pos world.Vec2f) (*testClient, world.EntityID) {
	t.Helper()

	c := &testClient{}
	h.clients.Add(c)
	c.Data().Hub = h

	Spawn{Type: world.ParseEntityType(entityType), Name: name, Auth: "test"}.Inbound(h, c, &c.Data().Player)

	found := false
	h.world.EntityByID(c.Data().Player.EntityID, func(e *world.Entity) (_ bool) {
		if e == nil {
			return
		}
		e.Position = pos
		e.Direction = 0
		e.Velocity = 0
		found = true
		return
	})
	if !found {
		t.Fatalf("expected %s to spawn", entityType)
	}
	return c, c.Data().Player.EntityID
}

// entityDamagePercent and entityPosition re-fetch live state by EntityID
// rather than holding a *world.Entity across World mutations.
func entityDamagePercent(h *Hub, id world.EntityID) float32 {
	var percent float32
	h.world.EntityByID(id, func(e *world.Entity) (_ bool) {
		if e != nil {
			percent = e.DamagePercent()
		}
		return
	})
	return percent
}

func entityPosition(h *Hub, id world.EntityID) world.Vec2f {
	var pos world.Vec2f
	h.world.EntityByID(id, func(e *world.Entity) (_ bool) {
		if e != nil {
			pos = e.Position
		}
		return
	})
	return pos
}

// TestScenario_SpawnFireHit covers the spawn + fire + hit boundary scenario
// end to end against a real Hub: two distinct players spawn boats, the
// attacker fires a torpedo at the defender, and enough physics ticks run for
// the torpedo to travel and collide, applying damage and consuming the
// armament's reload slot.
func TestScenario_SpawnFireHit(t *testing.T) {
	h := newScenarioHub()

	attackerClient, attackerID := spawnBoatAt(t, h, "fairmileD", "attacker", world.Vec2f{X: 0, Y: 0})
	_, defenderID := spawnBoatAt(t, h, "fairmileD", "defender", world.Vec2f{X: 15, Y: 0})

	if entityDamagePercent(h, attackerID) != 0 || entityDamagePercent(h, defenderID) != 0 {
		t.Fatalf("expected both boats to start undamaged")
	}

	const torpedoIndex = 0 // fairmileD's mark18 torpedo, see entities.json
	Fire{
		PositionTarget: entityPosition(h, defenderID),
		Index:          torpedoIndex,
	}.Inbound(h, attackerClient, &attackerClient.Data().Player)

	consumedOnFire := false
	h.world.EntityByID(attackerID, func(e *world.Entity) (_ bool) {
		if e != nil && e.ArmamentConsumption()[torpedoIndex] != 0 {
			consumedOnFire = true
		}
		return
	})
	if !consumedOnFire {
		t.Fatalf("expected firing to put the torpedo on cooldown")
	}

	hit := false
	for i := 0; i < 100 && !hit; i++ {
		h.Physics(1)
		if entityDamagePercent(h, defenderID) > 0 {
			hit = true
		}
	}

	if !hit {
		t.Fatalf("expected the torpedo to hit the defender within 100 ticks, damage stayed at %v", entityDamagePercent(h, defenderID))
	}
}

// TestScenario_RamDealsMoreTakesLess covers the ram vs non-ram boundary
// scenario: a ram-subkind boat (osa) and a non-ram boat (fairmileD) of equal
// starting health collide head-on. The spec says a ram takes 1/3 damage and
// deals 3x damage relative to an equivalent non-ram collision, so the
// non-ram boat should end up far more damaged than the ram.
func TestScenario_RamDealsMoreTakesLess(t *testing.T) {
	h := newScenarioHub()

	_, ramID := spawnBoatAt(t, h, "osa", "ram", world.Vec2f{X: 0, Y: 0})
	_, otherID := spawnBoatAt(t, h, "fairmileD", "other", world.Vec2f{X: 5, Y: 0})

	for i := 0; i < 5; i++ {
		h.Physics(1)
	}

	ramDamage := entityDamagePercent(h, ramID)
	otherDamage := entityDamagePercent(h, otherID)

	if ramDamage == 0 && otherDamage == 0 {
		t.Fatalf("expected the collision to deal damage to at least one boat")
	}

	if otherDamage <= ramDamage {
		t.Fatalf("expected the non-ram boat to take more damage than the ram: ram=%v other=%v", ramDamage, otherDamage)
	}
}
