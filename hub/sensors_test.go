// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/tridentwake/hub/hub/world"
)

// observerChannels builds the sensorChannels a submarine observer would
// have once its altitude converges to targetAlt, mirroring Entity.Camera's
// altitude scaling (run through Entity.Update so the altitude easing in
// entity.go is exercised rather than poked directly).
func observerChannels(targetAlt float32) sensorChannels {
	owner := &world.Player{}
	owner.Spawn()
	defer owner.Despawn()

	sub := world.Entity{Owner: owner}
	sub.Initialize(world.ParseEntityType("kilo"))
	sub.SetAltitudeTarget(targetAlt)

	for i := 0; i < 20; i++ {
		sub.Update(world.TicksPerSecond, 1e6, nil)
	}

	_, visual, radar, sonar := sub.Camera()
	ch := sensorChannels{}
	if visual != 0 {
		ch.visualInv = 1.0 / square(visual)
	}
	if radar != 0 {
		ch.radarInv = 1.0 / square(radar)
	}
	if sonar != 0 {
		ch.sonarInv = 1.0 / square(sonar)
	}
	return ch
}

// TestContactUncertainty_SubmarineSurfacingMonotonic covers the sensor
// boundary scenario: with a stationary enemy boat, uncertainty decreases
// monotonically as a submerged observer submarine surfaces (altitude -1 ->
// 0), and increases again as the submarine dives back down.
func TestContactUncertainty_SubmarineSurfacingMonotonic(t *testing.T) {
	enemyOwner := &world.Player{}
	enemyOwner.Spawn()
	defer enemyOwner.Despawn()

	enemy := world.Entity{Owner: enemyOwner}
	enemy.Initialize(world.ParseEntityType("fairmileD"))
	enemy.Position = world.Vec2f{X: 500, Y: 0}

	surfacing := []float32{-1, -0.75, -0.5, -0.25, 0}
	var last float32 = 2 // uncertainty is bounded above by 1 per channel, so 2 is a safe "infinity"
	for i, alt := range surfacing {
		ch := observerChannels(alt)
		uncertainty, _ := contactUncertainty(ch, 500*500, &enemy)
		if i > 0 && uncertainty > last {
			t.Fatalf("expected uncertainty non-increasing while surfacing at alt=%v: got %v after %v", alt, uncertainty, last)
		}
		last = uncertainty
	}

	diving := []float32{0, -0.25, -0.5, -0.75, -1}
	last = -1
	for i, alt := range diving {
		ch := observerChannels(alt)
		uncertainty, _ := contactUncertainty(ch, 500*500, &enemy)
		if i > 0 && uncertainty < last {
			t.Fatalf("expected uncertainty non-decreasing while diving at alt=%v: got %v after %v", alt, uncertainty, last)
		}
		last = uncertainty
	}
}

// TestContactUncertainty_OutOfRangeNotEmitted covers the "contact beyond
// every sensor's range is not emitted" boundary scenario.
func TestContactUncertainty_OutOfRangeNotEmitted(t *testing.T) {
	enemyOwner := &world.Player{}
	enemyOwner.Spawn()
	defer enemyOwner.Despawn()

	enemy := world.Entity{Owner: enemyOwner}
	enemy.Initialize(world.ParseEntityType("fairmileD"))
	enemy.Position = world.Vec2f{X: 100000, Y: 0}

	ch := sensorChannels{
		visualInv: 1.0 / square(800),
		sonarInv:  1.0 / square(700),
	}

	uncertainty, _ := contactUncertainty(ch, 100000*100000, &enemy)
	if uncertainty < 1 {
		t.Fatalf("expected uncertainty >= 1 (not detected) at extreme range, got %v", uncertainty)
	}
}
