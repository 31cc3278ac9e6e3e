package network

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/players"
	"github.com/perudo-net/perudo/protocol"
)

// ClientManager is the client's handle on the lobby: one authenticated
// connection over which it can list rooms, create one, or join one.
type ClientManager struct {
	conn *Connection
	log  *slog.Logger
}

// Dial connects to a lobby server with a fresh signing key and runs the
// handshake under the given display name.
func Dial(host string, port int, name string, timeout time.Duration, log *slog.Logger) (*ClientManager, error) {
	if log == nil {
		log = slog.Default()
	}
	keeper, err := protocol.NewEnvelopeKeeper(nil)
	if err != nil {
		return nil, err
	}
	raw, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), timeout)
	if err != nil {
		return nil, fmt.Errorf("dialing %s:%d: %w", host, port, err)
	}
	conn, err := ClientHandshake(raw, keeper, name, timeout, log)
	if err != nil {
		return nil, err
	}
	return &ClientManager{conn: conn, log: log}, nil
}

func (m *ClientManager) Close() { _ = m.conn.Close() }

// QueryRooms asks the lobby for its room listing.
func (m *ClientManager) QueryRooms() (map[string][]string, error) {
	rec, err := m.conn.Exchange(protocol.RequestRoomList{})
	if err != nil {
		return nil, err
	}
	switch rec := rec.(type) {
	case protocol.RoomsListResponse:
		return rec.RoomToMembers, nil
	case protocol.Error:
		return nil, errors.New(rec.Message)
	default:
		return nil, fmt.Errorf("unexpected reply %q to room list request", rec.Tag())
	}
}

// JoinRoom enters the named room, or any room with space when roomName is
// empty, and plays the game through the given player.
func (m *ClientManager) JoinRoom(roomName string, player game.Player) error {
	if err := m.conn.Send(protocol.JoinRoom{RoomName: roomName}); err != nil {
		return err
	}
	return newClientPlayer(m.conn, player, m.log).runGameLoop()
}

// CreateRoom opens a new room and plays the game through the given player.
// The request is validated locally first so an obviously bad mix never
// reaches the server.
func (m *ClientManager) CreateRoom(create protocol.CreateRoom, maxPlayers int, player game.Player) error {
	if msg := create.CheckForErrors(maxPlayers); msg != "" {
		return errors.New(msg)
	}
	if err := m.conn.Send(create); err != nil {
		return err
	}
	return newClientPlayer(m.conn, player, m.log).runGameLoop()
}

// clientPlayer drives the wrapped player from server messages. It keeps its
// own running view of the game, fed by Initialize and the round summaries,
// so the wrapped player gets a full observation even though each
// ActionRequest only carries the current round.
type clientPlayer struct {
	conn   *Connection
	player game.Player
	render bool
	log    *slog.Logger

	seat       int
	numPlayers int

	// curDice holds remaining dice per seat entering the current round.
	curDice        []int
	numDiceHistory [][]int
	pastActions    []game.Actions
	reveals        [][]game.DiceCounts
	singleHistory  []bool
}

func newClientPlayer(conn *Connection, player game.Player, log *slog.Logger) *clientPlayer {
	// The server paces the game from here on; a human on another seat may
	// take minutes, so reads must not time out.
	conn.timeout = 0
	_, isHuman := player.(*players.HumanPlayer)
	return &clientPlayer{
		conn:   conn,
		player: player,
		render: isHuman,
		log:    log,
	}
}

// runGameLoop processes server messages until the game ends or the link
// breaks. Any Error or Corrupted from the server ends the session.
func (c *clientPlayer) runGameLoop() error {
	for {
		rec, err := c.conn.Receive()
		if err != nil {
			return fmt.Errorf("receiving: %w", err)
		}
		switch rec := rec.(type) {
		case protocol.Error:
			return fmt.Errorf("server: %s", rec.Message)
		case protocol.Corrupted:
			return fmt.Errorf("unverifiable message from server: %s", rec.Details)
		case game.NoOp:
			// Liveness probe, nothing to do.
		case protocol.Initialize:
			c.handleInitialize(rec)
		case protocol.SetDice:
			c.player.SetDice(rec.Dice)
		case protocol.ActionRequest:
			action := c.player.GetAction(c.buildObservation(rec))
			if err := c.conn.Send(action); err != nil {
				return fmt.Errorf("sending action: %w", err)
			}
		case protocol.RoundSummary:
			c.handleRoundSummary(rec.RoundSummary)
		case protocol.GameSummary:
			if c.render {
				players.RenderGameSummary(rec.GameSummary)
			}
			c.log.Info("game over", "winner", rec.Winner)
			return nil
		default:
			return fmt.Errorf("unexpected message %q mid-game", rec.Tag())
		}
	}
}

func (c *clientPlayer) handleInitialize(init protocol.Initialize) {
	c.seat = init.Seat
	c.numPlayers = init.NumPlayers
	c.player.Initialize(init.Seat, init.NumPlayers)
	c.curDice = make([]int, init.NumPlayers)
	for i := range c.curDice {
		c.curDice[i] = game.StartingDice
	}
}

// handleRoundSummary folds a finished round into the local view: the round's
// actions and revealed dice go into history, and each loser's dice count
// drops by one for the next round.
func (c *clientPlayer) handleRoundSummary(summary game.RoundSummary) {
	c.player.ReactToRoundSummary(summary)
	if c.render {
		players.RenderRoundSummary(summary)
	}
	if c.numPlayers == 0 {
		return
	}
	snapshot := append([]int(nil), c.curDice...)
	c.numDiceHistory = append(c.numDiceHistory, snapshot)
	c.pastActions = append(c.pastActions, summary.Actions)
	c.reveals = append(c.reveals, summary.DiceByPlayer)
	c.singleHistory = append(c.singleHistory, summary.SingleDieRound)
	for _, loser := range summary.Losers {
		for seat, name := range summary.Players {
			if name == loser && c.curDice[seat] > 0 {
				c.curDice[seat]--
				break
			}
		}
	}
}

// buildObservation merges the request's current-round view with the locally
// accumulated history.
func (c *clientPlayer) buildObservation(req protocol.ActionRequest) game.Observation {
	obs := game.Observation{
		PreviousAction:    lastBid(req.RoundActions),
		IsSingleDieRound:  req.IsSingleDieRound,
		NumPlayers:        c.numPlayers,
		NumLivingPlayers:  req.NumPlayersAlive,
		NumDiceInPlay:     req.NumDiceInPlay,
		AllRoundsActions:  append(append([]game.Actions(nil), c.pastActions...), req.RoundActions),
		DiceRevealHistory: c.reveals,
	}
	if obs.NumPlayers == 0 {
		// Initialize never arrived; fall back to what the request carries.
		obs.NumPlayers = req.NumPlayersAlive
	}
	if c.curDice != nil {
		obs.NumDiceByPlayerHistory = append(append([][]int(nil), c.numDiceHistory...), append([]int(nil), c.curDice...))
	}
	return obs
}

func lastBid(actions game.Actions) *game.Bid {
	for i := len(actions) - 1; i >= 0; i-- {
		if bid, ok := actions[i].(game.Bid); ok {
			return &bid
		}
	}
	return nil
}
