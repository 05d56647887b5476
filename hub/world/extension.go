// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

func (entity *Entity) ArmamentConsumption() []Ticks {
	entity.mustBoat()
	return entity.Owner.ext.armamentConsumption()
}

// -1 = deep, 0 = surface, 1 = high in the air
func (entity *Entity) Altitude() float32 {
	switch entity.EntityType.Data().Kind {
	case EntityKindBoat:
		return entity.Owner.ext.altitude()
	case EntityKindDecoy:
		switch entity.EntityType.Data().SubKind {
		case EntitySubKindSonar:
			return -0.9 * AltitudeCollisionThreshold
		}
	}

	switch entity.EntityType.Data().SubKind {
	case EntitySubKindTorpedo, EntitySubKindDepthCharge, EntitySubKindMine:
		// By multiplying by almost  negative one, these entities are allowed to
		// hit surface ships, but not much airborne things
		return -0.9 * AltitudeCollisionThreshold
	case EntitySubKindShell, EntitySubKindMissile, EntitySubKindRocket:
		// By multiplying by almost one, these entities are allowed to
		// hit surface ships, but not much underwater things
		return 0.9 * AltitudeCollisionThreshold
	case EntitySubKindAircraft:
		return 1
	default:
		return 0
	}
}

func (entity *Entity) SetAltitudeTarget(altitudeTarget float32) {
	entity.mustBoat()
	entity.Owner.ext.setAltitudeTarget(clamp(altitudeTarget, -1, 1))
}

// ActiveSensors reports whether this boat's radar/sonar are emitting (as
// opposed to passive-only listening). Emitting sensors are themselves
// easier for others to detect (see the sensor/visibility filter).
func (entity *Entity) ActiveSensors() bool {
	entity.mustBoat()
	return entity.Owner.ext.activeSensorsOn()
}

func (entity *Entity) SetActiveSensors(on bool) {
	entity.mustBoat()
	entity.Owner.ext.setActiveSensors(on)
}

func (entity *Entity) TurretAngles() []Angle {
	entity.mustBoat()
	return entity.Owner.ext.turretAngles()
}

func (entity *Entity) TurretTarget() Vec2f {
	entity.mustBoat()
	return entity.Owner.ext.turretTarget()
}

// OwnerBoatTurretTarget reads the owning player's turret target from any
// entity they own, not just their boat itself. Aircraft use this to fly
// towards wherever their carrier's turret was last aimed.
func (entity *Entity) OwnerBoatTurretTarget() Vec2f {
	return entity.Owner.ext.turretTarget()
}

// turretTargetLatch is how long (in ticks) a turret aim target remains
// active without being refreshed by another aimTurrets/manual inbound.
// Every SetTurretTarget call resets the latch: most-recent-wins.
const turretTargetLatch = Ticks(5 * TicksPerSecond)

func (entity *Entity) SetTurretTarget(target Vec2f) {
	entity.mustBoat()
	entity.Owner.ext.setTurretTarget(target, turretTargetLatch)
}

// Call when accessing entity.Owner.ext, which is ONLY valid
// on the owner's boat entity
func (entity *Entity) mustBoat() {
	if entity.Data().Kind != EntityKindBoat {
		panic("access extension of non-boat")
	}
}
