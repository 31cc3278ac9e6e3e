package network

import (
	"log/slog"

	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/protocol"
)

// RemotePlayer adapts a client connection to game.Player so the engine can
// seat it next to local bots. Every engine callback turns into a wire
// exchange; failures degrade to an InvalidAction instead of stalling the
// game, so a vanished client simply loses its rounds until the purge loop
// reaps it.
type RemotePlayer struct {
	conn *Connection
	log  *slog.Logger
}

func NewRemotePlayer(conn *Connection, log *slog.Logger) *RemotePlayer {
	if log == nil {
		log = slog.Default()
	}
	return &RemotePlayer{conn: conn, log: log}
}

func (p *RemotePlayer) Name() string { return p.conn.Name() }

func (p *RemotePlayer) IsClosed() bool { return p.conn.IsClosed() }

func (p *RemotePlayer) Ping() bool { return p.conn.Ping() }

func (p *RemotePlayer) Close() { _ = p.conn.Close() }

// Initialize is best effort: a client that misses it will still receive an
// ActionRequest and can resign itself to playing blind.
func (p *RemotePlayer) Initialize(seat, numPlayers int) {
	if err := p.conn.Send(protocol.Initialize{Seat: seat, NumPlayers: numPlayers}); err != nil {
		p.log.Warn("failed to send initialize", "player", p.Name(), "err", err)
	}
}

func (p *RemotePlayer) SetDice(dice game.DiceCounts) {
	if err := p.conn.Send(protocol.SetDice{Dice: dice}); err != nil {
		p.log.Warn("failed to send dice", "player", p.Name(), "err", err)
	}
}

// GetAction asks the client for its move. Whatever comes back that is not a
// game action, including a transport failure or a corrupted frame, becomes
// an InvalidAction, which the engine treats as losing the round.
func (p *RemotePlayer) GetAction(obs game.Observation) game.Action {
	req := protocol.ActionRequest{
		IsSingleDieRound: obs.IsSingleDieRound,
		NumDiceInPlay:    obs.NumDiceInPlay,
		NumPlayersAlive:  obs.NumLivingPlayers,
	}
	if n := len(obs.AllRoundsActions); n > 0 {
		req.RoundActions = obs.AllRoundsActions[n-1]
	}

	rec, err := p.conn.Exchange(req)
	if err != nil {
		p.log.Warn("action request failed", "player", p.Name(), "err", err)
		return game.InvalidAction{Attempted: "none", Reason: "connection failure"}
	}
	action, ok := rec.(game.Action)
	if !ok {
		p.log.Warn("client replied with a non-action", "player", p.Name(), "tag", rec.Tag())
		return game.InvalidAction{Attempted: rec.Tag(), Reason: "reply is not an action"}
	}
	return action
}

func (p *RemotePlayer) ReactToRoundSummary(summary game.RoundSummary) {
	if err := p.conn.Send(protocol.RoundSummary{RoundSummary: summary}); err != nil {
		p.log.Warn("failed to send round summary", "player", p.Name(), "err", err)
	}
}

// SendGameSummary delivers the final standings after the engine stops.
func (p *RemotePlayer) SendGameSummary(summary game.GameSummary) {
	if err := p.conn.Send(protocol.GameSummary{GameSummary: summary}); err != nil {
		p.log.Warn("failed to send game summary", "player", p.Name(), "err", err)
	}
}
