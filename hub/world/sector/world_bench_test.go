// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package sector

import (
	"testing"

	"github.com/tridentwake/hub/hub/world"
)

func BenchmarkWorld(b *testing.B) {
	world.Bench(b, func(radius int) world.World {
		return New(float32(radius))
	}, 4096)
}
