// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/chewxy/math32"
	"github.com/tridentwake/hub/hub/world"
)

// sensorChannels carries the inverted-squared range of each of an
// observer's sensor modalities, plus the observer's own speed (which
// factors into the sonar self-noise term).
type sensorChannels struct {
	visualInv float32
	radarInv  float32
	sonarInv  float32
	observerV float32
}

// contactUncertainty computes how well an observer with the given sensor
// ranges can make out entity at the given squared distance. 0 means
// perfectly known, 1 (or more) means not detected by any channel.
// visible reports whether the visual channel is what picked the contact up
// (governs extra field disclosure, see Hub.updateClient).
func contactUncertainty(ch sensorChannels, distanceSquared float32, entity *world.Entity) (uncertainty float32, visible bool) {
	data := entity.Data()
	isBoat := data.Kind == world.EntityKindBoat
	v := math32.Abs(entity.Velocity.Float())
	alt := entity.Altitude()

	base := distanceSquared * data.InvSize
	uncertainty = 1.0

	var activeSensorsOn bool
	if isBoat {
		activeSensorsOn = entity.ActiveSensors()
	}

	// Radar channel: submerged contacts are invisible to radar.
	if ch.radarInv != 0 && alt >= -0.1 {
		activeRatio := base * ch.radarInv * (15 / (15 + v))

		emission := float32(5)
		if isBoat {
			emission += 5
			if activeSensorsOn {
				emission += 20
			}
		}
		if data.SubKind == world.EntitySubKindMissile {
			emission += 30
		}
		passiveRatio := (base * ch.radarInv / emission) * (25 / emission)

		uncertainty = min(uncertainty, min(activeRatio, passiveRatio))
	}

	// Sonar channel: airborne contacts are invisible to sonar.
	if ch.sonarInv != 0 && alt <= 0 {
		activeRatio := base * ch.sonarInv

		noise := max(v-5, 10)
		if !isBoat {
			noise += 100
		} else if activeSensorsOn {
			noise += 20
		}
		passiveRatio := (activeRatio / noise) * (10 + ch.observerV)

		uncertainty = min(uncertainty, min(activeRatio, passiveRatio))
	}

	// Visual channel: attenuated by depth when the contact is submerged.
	if ch.visualInv != 0 {
		visualRatio := base * ch.visualInv
		if alt < 0 {
			visualRatio /= clamp(alt+1, 0.05, 1)
		}
		visible = visualRatio < 1
		uncertainty = min(uncertainty, visualRatio)
	}

	return
}
