// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/tridentwake/hub/hub/world"
)

// TestTeamAccept covers the team-accept boundary scenario: player A creates
// team "alpha", player B requests to join, A accepts B by PlayerID, and B
// ends up a member while no longer appearing in any team's join requests.
func TestTeamAccept(t *testing.T) {
	h := &Hub{teams: make(map[world.TeamID]*Team)}

	a := &Player{}
	a.Spawn()
	defer a.Despawn()

	b := &Player{}
	b.Spawn()
	defer b.Despawn()

	CreateTeam{Name: "alpha"}.Inbound(h, nil, a)

	var teamID world.TeamID
	if err := teamID.UnmarshalText([]byte("alpha")); err != nil {
		t.Fatalf("unmarshal team id: %v", err)
	}
	if a.TeamID != teamID {
		t.Fatalf("expected A's TeamID to be set to alpha, got %v", a.TeamID)
	}

	team := h.teams[teamID]
	if team == nil {
		t.Fatalf("expected team alpha to exist after CreateTeam")
	}
	if team.Owner() != &a.Player {
		t.Fatalf("expected A to be team owner")
	}

	AddToTeam{TeamID: teamID}.Inbound(h, nil, b)

	if team.JoinRequests.GetByID(b.PlayerID()) == nil {
		t.Fatalf("expected B to appear in alpha's join requests after requesting to join")
	}
	if b.TeamID != world.TeamIDInvalid {
		t.Fatalf("expected B to not yet be on a team before being accepted")
	}

	// A (the owner) accepts B.
	AddToTeam{TeamID: teamID, PlayerID: b.PlayerID()}.Inbound(h, nil, a)

	if team.Members.GetByID(b.PlayerID()) == nil {
		t.Fatalf("expected B to be a member of alpha after being accepted")
	}
	if b.TeamID != teamID {
		t.Fatalf("expected B's TeamID to be set to alpha after being accepted, got %v", b.TeamID)
	}

	for id, other := range h.teams {
		if other.JoinRequests.GetByID(b.PlayerID()) != nil {
			t.Fatalf("expected B's join request to be cleared from every team, still present in %v", id)
		}
	}
}
