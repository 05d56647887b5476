// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/tridentwake/hub/hub/world"
)

// Player is an extension of world.Player with extra data
type Player struct {
	world.Player
	ChatHistory ChatHistory
	FPS         float32

	// Optimizations
	TerrainArea world.AABB
}
