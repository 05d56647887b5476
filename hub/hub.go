// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"github.com/tridentwake/hub/hub/cloud"
	"github.com/tridentwake/hub/hub/terrain"
	"github.com/tridentwake/hub/hub/terrain/compressed"
	"github.com/tridentwake/hub/hub/terrain/noise"
	"github.com/tridentwake/hub/hub/world"
	"github.com/tridentwake/hub/hub/world/sector"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// HubOptions configures a Hub at construction time. See cmd/server for the
// command line flags that populate it.
type HubOptions struct {
	// Cloud sinks statistics/leaderboard/terrain snapshots. Pass Offline{} to
	// run without any of that.
	Cloud Cloud
	// MinClients is the minimum population (real + bot) the Hub keeps alive
	// by spawning bots.
	MinClients int
	// MaxBotSpawnLevel caps the boat level bots initially spawn as.
	MaxBotSpawnLevel uint8
	// MinBotRatio keeps at least this many bots per real player connected,
	// on top of the MinClients floor (e.g. 0.5 means 1 bot per 2 humans).
	MinBotRatio float32
	// Auth is the admin code required for privileged inbound messages.
	Auth string
}

const (
	botPeriod         = time.Second / 4
	debugPeriod       = time.Second * 5
	leaderboardPeriod = time.Second
	spawnPeriod       = leaderboardPeriod
	updatePeriod      = world.TickPeriod

	// encodeBotMessages makes BotClient.Send marshal json and check for errors.
	// Only useful for testing/benchmarking (drops performance significantly).
	encodeBotMessages = false
)

// Hub maintains the set of active clients and broadcasts messages to the clients.
type Hub struct {
	// World state
	world       *sector.World
	worldRadius float32 // interpolated
	terrain     terrain.Terrain
	clients     ClientList // implemented as double-linked list
	despawn     ClientList // clients that are being removed
	teams       map[world.TeamID]*Team

	// Flags
	minPlayers       int
	maxBotSpawnLevel uint8
	minBotRatio      float32
	auth             string

	// Cloud (and things that are served atomically by HTTP)
	cloud      Cloud
	statusJSON atomic.Value

	// ipConns counts in-progress connections per IP, to bound abuse.
	ipMu    sync.RWMutex
	ipConns map[string]int

	// chats are buffered until next update.
	chats []Chat
	// funcBenches are benchmarks of core Hub functions.
	funcBenches []funcBench

	// Inbound channels
	inbound    chan SignedInbound
	register   chan Client
	unregister chan Client

	// Timer based events
	cloudTicker       *time.Ticker
	updateTicker      *time.Ticker
	updateCounter     int
	updateTime        time.Time
	leaderboardTicker *time.Ticker
	debugTicker       *time.Ticker
	botsTicker        *time.Ticker
}

// NewHub constructs a Hub ready to Run. The cloud sink, population floor,
// bot strength cap, and admin auth code are all supplied by the caller
// (see cmd/server for how command line flags map onto HubOptions).
func NewHub(options HubOptions) *Hub {
	c := options.Cloud
	if c == nil {
		c = Offline{}
	}
	fmt.Println(c)

	minPlayers := options.MinClients
	maxBotSpawnLevel := options.MaxBotSpawnLevel
	if max := uint8(len(world.BoatEntityTypesByLevel) - 1); maxBotSpawnLevel == 0 || maxBotSpawnLevel > max {
		maxBotSpawnLevel = max
	}

	radius := max(world.MinRadius, world.RadiusOf(minPlayers))
	return &Hub{
		cloud:             c,
		world:             sector.New(radius),
		terrain:           compressed.New(noise.NewDefault()),
		worldRadius:       radius,
		teams:             make(map[world.TeamID]*Team),
		minPlayers:        minPlayers,
		maxBotSpawnLevel:  maxBotSpawnLevel,
		minBotRatio:       options.MinBotRatio,
		auth:              options.Auth,
		ipConns:           make(map[string]int),
		inbound:           make(chan SignedInbound, 16+minPlayers*2),
		register:          make(chan Client, 8+minPlayers/256),
		unregister:        make(chan Client, 16+minPlayers/128),
		cloudTicker:       time.NewTicker(cloud.UpdatePeriod),
		updateTicker:      time.NewTicker(updatePeriod),
		updateTime:        time.Now(),
		leaderboardTicker: time.NewTicker(leaderboardPeriod),
		debugTicker:       time.NewTicker(debugPeriod),
		botsTicker:        time.NewTicker(botPeriod),
	}
}

// Run processes inbound messages and timer events until the process exits.
// Intended to be launched in its own goroutine.
func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		}
		println("That's it, I'm out -hub") // Don't waste time debugging hub exists
		os.Exit(1)
	}()

	h.Cloud()

	for {
		select {
		case client := <-h.register:
			h.clients.Add(client)
			client.Data().Hub = h
			client.Init()

			if _, bot := client.(*BotClient); !bot {
				h.cloud.IncrementPlayerStatistic()
			}
		case client := <-h.unregister:
			client.Close()
			player := &client.Data().Player.Player

			// Player no longer is joining teams
			// May want to do this during despawn because clearing team requests in O(n).
			h.clearTeamRequests(player)

			// Removes team or transfers ownership, if applicable
			h.leaveTeam(player)

			client.Data().Hub = nil
			h.clients.Remove(client)

			// Remove in Despawn during leaderboard update.
			h.despawn.Add(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				// If not same hub the message is old
				data := in.Client.Data()
				if h == data.Hub {
					in.Inbound(h, in.Client, &data.Player)
				}

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case <-h.updateTicker.C:
			now := time.Now()
			timeDelta := now.Sub(h.updateTime) + updatePeriod/10 // Kludge factor
			h.updateTime = now

			// Falling behind skip tick
			if timeDelta%updatePeriod > updatePeriod/5 {
				break
			}

			ticks := world.Ticks(timeDelta / updatePeriod)
			h.Physics(ticks)
			h.Update()
		case <-h.leaderboardTicker.C:
			h.terrain.Repair()
			h.Despawn()
			h.Spawn()
			h.Leaderboard()

			h.worldRadius = world.Lerp(h.worldRadius, world.RadiusOf(h.clients.Len), 0.25)
			h.world.Resize(h.worldRadius)
		case <-h.debugTicker.C:
			h.Debug()
			h.SnapshotTerrain()
		case <-h.botsTicker.C:
			target := h.minPlayers
			humans := h.realPlayers()
			if ratioTarget := humans + int(h.minBotRatio*float32(humans)); ratioTarget > target {
				target = ratioTarget
			}

			// Add as many as fit in the channel but don't block because it would deadlock
			for i := h.clients.Len + len(h.register) - len(h.unregister); i < target; i++ {
				select {
				case h.register <- &BotClient{}:
				default:
					break
				}
			}
		case <-h.cloudTicker.C:
			h.Cloud()
		}
	}
}

// realPlayers counts connected Clients that are not BotClients.
func (h *Hub) realPlayers() int {
	n := 0
	for client := h.clients.First; client != nil; client = client.Data().Next {
		if _, bot := client.(*BotClient); !bot {
			n++
		}
	}
	return n
}

func (h *Hub) clearTeamRequests(player *world.Player) {
	for _, team := range h.teams {
		team.JoinRequests.Remove(player)
	}
}

// Removes a player from the team that they are on. If the player was the owner,
// transfers or deletes the team depending on if there are remaining members
func (h *Hub) leaveTeam(player *world.Player) {
	if team := h.teams[player.TeamID]; team != nil {
		team.Members.Remove(player)

		// Team is empty, delete it
		if len(team.Members) == 0 {
			delete(h.teams, player.TeamID)
		}
	}

	player.TeamID = world.TeamIDInvalid
}
