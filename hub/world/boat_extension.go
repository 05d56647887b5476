// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// BoatExtension holds everything a boat-type Entity's owning Player must
// track between Update calls: armament reload timers, turret angles,
// turret aim target, altitude and damage. It replaces the old extension
// interface (with its safeExtension/unsafeExtension copy-on-write
// implementations) with one value type. Since a Player is never shared
// or aliased, there is nothing to copy-on-write: armament/turret slices
// are mutated in place and reallocated only when the boat's EntityType
// changes size (setType).
type BoatExtension struct {
	typ             EntityType
	armaments       []Ticks // consumption/reload remaining per armament
	angles          []Angle // current angle per turret
	target          Vec2f   // turret aim target, world space
	targetRemaining Ticks   // ticks left before the aim-target latch expires; 0 = no latch
	alt             float32 // -1 (deep) .. 1 (high in the air)
	altTarget       float32
	damageAmount    float32
	spawnProtection Ticks
	rammed          bool // true once this boat has taken part in a ram collision
	activeSensors   bool // radar/sonar emitting (vs. passive-only listening)
}

// setType resets the extension for a (possibly new) boat EntityType,
// replenishing armaments and resetting turrets to their base angles. Turret
// target, altitude target and spawn protection survive a type change.
func (ext *BoatExtension) setType(entityType EntityType) {
	data := entityType.Data()

	*ext = BoatExtension{
		typ:             entityType,
		target:          ext.target,
		altTarget:       ext.altTarget,
		spawnProtection: ext.spawnProtection,
		activeSensors:   true,
	}

	ext.armaments = make([]Ticks, len(data.Armaments))

	turrets := data.Turrets
	ext.angles = make([]Angle, len(turrets))
	for i, turret := range turrets {
		ext.angles[i] = turret.Angle
	}
}

func (ext *BoatExtension) armamentConsumption() []Ticks {
	return ext.armaments
}

func (ext *BoatExtension) turretAngles() []Angle {
	return ext.angles
}

func (ext *BoatExtension) turretTarget() Vec2f {
	return ext.target
}

// setTurretTarget sets the turret aim target and (re)starts its latch
// countdown. Most-recent-wins: every call replaces the prior target and
// countdown, whatever it was.
func (ext *BoatExtension) setTurretTarget(target Vec2f, latch Ticks) {
	ext.target = target
	ext.targetRemaining = latch
}

// turretTargetLive reports whether the aim-target latch is still active.
func (ext *BoatExtension) turretTargetLive() bool {
	return ext.targetRemaining > 0
}

// decayTurretTarget counts the latch down by elapsed, clearing the target
// once it expires.
func (ext *BoatExtension) decayTurretTarget(elapsed Ticks) {
	if ext.targetRemaining == 0 {
		return
	}
	if elapsed >= ext.targetRemaining {
		ext.targetRemaining = 0
		ext.target = Vec2f{}
	} else {
		ext.targetRemaining -= elapsed
	}
}

func (ext *BoatExtension) altitude() float32 {
	return ext.alt
}

func (ext *BoatExtension) setAltitude(a float32) {
	ext.alt = a
}

func (ext *BoatExtension) altitudeTarget() float32 {
	return ext.altTarget
}

func (ext *BoatExtension) setAltitudeTarget(a float32) {
	ext.altTarget = a
}

func (ext *BoatExtension) damage() float32 {
	return ext.damageAmount
}

func (ext *BoatExtension) setDamage(d float32) {
	ext.damageAmount = d
}

func (ext *BoatExtension) rammedBefore() bool {
	return ext.rammed
}

func (ext *BoatExtension) setRammed() {
	ext.rammed = true
}

func (ext *BoatExtension) activeSensorsOn() bool {
	return ext.activeSensors
}

func (ext *BoatExtension) setActiveSensors(on bool) {
	ext.activeSensors = on
}

func (ext *BoatExtension) getSpawnProtection() Ticks {
	return ext.spawnProtection
}

func (ext *BoatExtension) setSpawnProtection(val Ticks) {
	ext.spawnProtection = val
}
