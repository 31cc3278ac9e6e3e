package network

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perudo-net/perudo/config"
	"github.com/perudo-net/perudo/players"
	"github.com/perudo-net/perudo/protocol"
)

func startTestServer(t *testing.T) (addr *net.TCPAddr, cfg config.Server) {
	t.Helper()
	cfg = config.DefaultServer()
	cfg.Port = 0
	cfg.IOTimeout = 5 * time.Second

	s, err := NewServer(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		s.Close()
	})
	return s.Addr().(*net.TCPAddr), cfg
}

func dialTest(t *testing.T, addr *net.TCPAddr, name string) *ClientManager {
	t.Helper()
	m, err := Dial("127.0.0.1", addr.Port, name, 5*time.Second, testLogger())
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestServer_RoomListStartsEmpty(t *testing.T) {
	addr, _ := startTestServer(t)
	alice := dialTest(t, addr, "Alice")
	rooms, err := alice.QueryRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestServer_CreateRoomAndPlayAgainstBot(t *testing.T) {
	addr, cfg := startTestServer(t)
	alice := dialTest(t, addr, "Alice")

	create := protocol.CreateRoom{
		RoomName:                "lounge",
		NumNetworkPlayers:       1,
		NumProbabilisticPlayers: 1,
	}
	err := alice.CreateRoom(create, cfg.MaxPlayersPerGame,
		players.NewRandomLegalPlayer("Alice", rand.New(rand.NewSource(11))))
	require.NoError(t, err)
}

func TestServer_RejectsBadRoomRequest(t *testing.T) {
	addr, cfg := startTestServer(t)
	alice := dialTest(t, addr, "Alice")

	// No network players: rejected locally, nothing reaches the server.
	err := alice.CreateRoom(protocol.CreateRoom{RoomName: "r", NumRandomPlayers: 4},
		cfg.MaxPlayersPerGame, players.NewRandomLegalPlayer("Alice", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network")
}

func TestServer_JoinMissingRoom(t *testing.T) {
	addr, _ := startTestServer(t)
	bob := dialTest(t, addr, "Bob")
	err := bob.JoinRoom("nowhere", players.NewRandomLegalPlayer("Bob", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no room")
}

func TestPickRoom_UniformAmongRoomsWithSpace(t *testing.T) {
	s, err := NewServer(config.DefaultServer(), testLogger())
	require.NoError(t, err)

	addRoom := func(name string, seats int) {
		creator, _ := pipePair(t, name+"-creator")
		create := protocol.CreateRoom{RoomName: name, NumNetworkPlayers: seats}
		s.rooms[name] = NewGameManager(create, creator, rand.New(rand.NewSource(1)), testLogger())
	}
	addRoom("east", 2)
	addRoom("west", 2)
	addRoom("packed", 1)

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		room, err := s.pickRoom("")
		require.NoError(t, err)
		seen[room.roomName]++
	}
	assert.Zero(t, seen["packed"], "a full room is never picked")
	assert.Positive(t, seen["east"])
	assert.Positive(t, seen["west"])

	room, err := s.pickRoom("east")
	require.NoError(t, err)
	assert.Equal(t, "east", room.roomName)
}

func TestServer_TwoClientsPlayEachOther(t *testing.T) {
	addr, cfg := startTestServer(t)
	alice := dialTest(t, addr, "Alice")
	bob := dialTest(t, addr, "Bob")

	aliceErr := make(chan error, 1)
	go func() {
		create := protocol.CreateRoom{RoomName: "duel", NumNetworkPlayers: 2}
		aliceErr <- alice.CreateRoom(create, cfg.MaxPlayersPerGame,
			players.NewRandomLegalPlayer("Alice", rand.New(rand.NewSource(21))))
	}()

	// Wait until the room is visible, then join it.
	require.Eventually(t, func() bool {
		rooms, err := bob.QueryRooms()
		if err != nil {
			return false
		}
		_, ok := rooms["duel"]
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	err := bob.JoinRoom("duel", players.NewRandomLegalPlayer("Bob", rand.New(rand.NewSource(22))))
	require.NoError(t, err)

	select {
	case err := <-aliceErr:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("creator's game loop did not finish")
	}
}
