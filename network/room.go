package network

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/players"
	"github.com/perudo-net/perudo/protocol"
)

var errRoomAbandoned = errors.New("all network players left before the game started")

// GameManager owns one room: the server-side bots, the remote players that
// joined, and the engine goroutine once the table fills. A room is alive
// from creation until its game ends or every remote abandons it.
type GameManager struct {
	roomName          string
	numNetworkPlayers int

	mu      sync.Mutex
	remotes []*RemotePlayer
	bots    []game.Player
	alive   bool

	done chan struct{}
	rng  *rand.Rand
	log  *slog.Logger

	// fillPollInterval is shortened by tests.
	fillPollInterval time.Duration
}

// NewGameManager builds a room from a validated CreateRoom request. The
// creator's connection takes the first remote seat.
func NewGameManager(create protocol.CreateRoom, creator *Connection, rng *rand.Rand, log *slog.Logger) *GameManager {
	if log == nil {
		log = slog.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &GameManager{
		roomName:          create.RoomName,
		numNetworkPlayers: create.NumNetworkPlayers,
		alive:             true,
		done:              make(chan struct{}),
		rng:               rng,
		log:               log.With("room", create.RoomName),
		fillPollInterval:  time.Second,
	}
	for i := 0; i < create.NumProbabilisticPlayers; i++ {
		name := fmt.Sprintf("ServerLocal-Prob-%d", i)
		m.bots = append(m.bots, players.NewProbabilisticPlayer(name, rng))
	}
	for i := 0; i < create.NumRandomPlayers; i++ {
		name := fmt.Sprintf("ServerLocal-Rando-%d", i)
		m.bots = append(m.bots, players.NewRandomLegalPlayer(name, rng))
	}
	m.remotes = append(m.remotes, NewRemotePlayer(creator, m.log))
	return m
}

// Done is closed when the room stops being alive, whether the game finished
// or the room was abandoned.
func (m *GameManager) Done() <-chan struct{} { return m.done }

func (m *GameManager) IsAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive
}

func (m *GameManager) HasSpace() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive && len(m.remotes) < m.numNetworkPlayers
}

// HasLiveRemote reports whether any remote link is still open. A room with
// none left is fair game for the purge loop.
func (m *GameManager) HasLiveRemote() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.remotes {
		if !r.IsClosed() {
			return true
		}
	}
	return false
}

// MemberNames lists everyone seated in the room, bots included, sorted for
// stable room listings.
func (m *GameManager) MemberNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.remotes)+len(m.bots))
	for _, r := range m.remotes {
		names = append(names, r.Name())
	}
	for _, b := range m.bots {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return names
}

// AddPlayer seats a joining connection. Rejections are reported to the peer
// and the connection closed.
func (m *GameManager) AddPlayer(conn *Connection) bool {
	reject := func(msg string) bool {
		_ = conn.Send(protocol.Error{Message: msg})
		_ = conn.Close()
		return false
	}
	m.mu.Lock()
	if !m.alive || len(m.remotes) >= m.numNetworkPlayers {
		m.mu.Unlock()
		return reject("room is full")
	}
	for _, r := range m.remotes {
		if r.Name() == conn.Name() {
			m.mu.Unlock()
			return reject(fmt.Sprintf("name %q is already taken in this room", conn.Name()))
		}
	}
	m.remotes = append(m.remotes, NewRemotePlayer(conn, m.log))
	m.mu.Unlock()
	return true
}

// Run waits for the room to fill, then plays the game to completion and
// broadcasts the final standings. It always marks the room dead on return.
func (m *GameManager) Run() {
	defer func() {
		m.mu.Lock()
		m.alive = false
		m.mu.Unlock()
		close(m.done)
		m.closeRemotes()
	}()

	if err := m.waitUntilFull(); err != nil {
		m.log.Info("room abandoned before start", "err", err)
		return
	}
	seated, ok := m.seatPlayers()
	if !ok {
		return
	}

	m.log.Info("starting game", "players", len(seated))
	g := game.New(seated, m.rng, m.log)
	winner := g.MainLoop(nil)
	summary := g.Summary(winner)
	m.log.Info("game over", "winner", summary.Winner)

	m.mu.Lock()
	remotes := append([]*RemotePlayer(nil), m.remotes...)
	m.mu.Unlock()
	for _, r := range remotes {
		if !r.IsClosed() {
			r.SendGameSummary(summary)
		}
	}
}

// waitUntilFull polls until enough remotes are seated, dropping any that
// disconnect while waiting. A room with no remotes left is abandoned.
func (m *GameManager) waitUntilFull() error {
	for {
		m.mu.Lock()
		m.dropClosedLocked()
		seated := len(m.remotes)
		m.mu.Unlock()
		if seated == 0 {
			return errRoomAbandoned
		}
		if seated >= m.numNetworkPlayers {
			break
		}
		time.Sleep(m.fillPollInterval)
	}

	// One active probe before starting: a client may have vanished without
	// the socket noticing.
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.remotes[:0]
	for _, r := range m.remotes {
		if r.Ping() {
			live = append(live, r)
		} else {
			r.Close()
		}
	}
	m.remotes = live
	if len(m.remotes) == 0 {
		return errRoomAbandoned
	}
	return nil
}

// seatPlayers assembles the final table: remotes first, then bots. Extra
// remotes beyond the requested count are turned away. A table needs at
// least one remote and two players total.
func (m *GameManager) seatPlayers() ([]game.Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.remotes) > m.numNetworkPlayers {
		extra := m.remotes[len(m.remotes)-1]
		m.remotes = m.remotes[:len(m.remotes)-1]
		_ = extra.conn.Send(protocol.Error{Message: "room filled up without you"})
		extra.Close()
	}
	if len(m.remotes) == 0 || len(m.remotes)+len(m.bots) < 2 {
		m.log.Warn("not enough players to start", "remotes", len(m.remotes), "bots", len(m.bots))
		return nil, false
	}
	seated := make([]game.Player, 0, len(m.remotes)+len(m.bots))
	for _, r := range m.remotes {
		seated = append(seated, r)
	}
	seated = append(seated, m.bots...)
	return seated, true
}

func (m *GameManager) dropClosedLocked() {
	live := m.remotes[:0]
	for _, r := range m.remotes {
		if r.IsClosed() {
			continue
		}
		live = append(live, r)
	}
	m.remotes = live
}

func (m *GameManager) closeRemotes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.remotes {
		r.Close()
	}
}
