package protocol

import (
	"fmt"

	"github.com/perudo-net/perudo/game"
)

// ServerGreeting is the fixed text the server opens every handshake with.
const ServerGreeting = "Who dis?"

// Error tells a peer why it is about to be disconnected.
type Error struct {
	Message string `json:"message"`
}

func (Error) Tag() string { return "Error" }

// Corrupted stands in for a message that could not be read or verified. It
// is produced locally by the receive path and never sent by a well-behaved
// peer.
type Corrupted struct {
	Details string `json:"details"`
}

func (Corrupted) Tag() string { return "Corrupted" }

// ServerHello opens the handshake, server to client.
type ServerHello struct {
	Message string `json:"message"`
}

func (ServerHello) Tag() string { return "ServerHello" }

// ClientHello answers the handshake with the client's display name.
type ClientHello struct {
	Name string `json:"name"`
}

func (ClientHello) Tag() string { return "ClientHello" }

// ActionRequest asks a remote player for its move. The fields mirror what a
// local player sees in its observation for the current round.
type ActionRequest struct {
	RoundActions     game.Actions `json:"round_actions"`
	IsSingleDieRound bool         `json:"is_single_die_round"`
	NumDiceInPlay    int          `json:"num_dice_in_play"`
	NumPlayersAlive  int          `json:"num_players_alive"`
}

func (ActionRequest) Tag() string { return "ActionRequest" }

// SetDice hands a remote player its roll for the round.
type SetDice struct {
	Dice game.DiceCounts `json:"dice"`
}

func (SetDice) Tag() string { return "SetDice" }

// Initialize tells a remote player its seat and the table size.
type Initialize struct {
	Seat       int `json:"seat"`
	NumPlayers int `json:"num_players"`
}

func (Initialize) Tag() string { return "Initialize" }

type RequestRoomList struct{}

func (RequestRoomList) Tag() string { return "RequestRoomList" }

type RoomsListResponse struct {
	RoomToMembers map[string][]string `json:"room_to_members"`
}

func (RoomsListResponse) Tag() string { return "RoomsListResponse" }

// JoinRoom asks for a seat in a room. An empty name means any room with
// space.
type JoinRoom struct {
	RoomName string `json:"room_name"`
}

func (JoinRoom) Tag() string { return "JoinRoom" }

type CreateRoom struct {
	RoomName                string `json:"room_name"`
	NumNetworkPlayers       int    `json:"num_network_players"`
	NumRandomPlayers        int    `json:"num_random_players"`
	NumProbabilisticPlayers int    `json:"num_probabilistic_players"`
}

func (CreateRoom) Tag() string { return "CreateRoom" }

func (cr CreateRoom) NumPlayers() int {
	return cr.NumNetworkPlayers + cr.NumRandomPlayers + cr.NumProbabilisticPlayers
}

// CheckForErrors validates the requested player mix. It returns a message
// suitable for showing to the requester, or empty when the request is fine.
func (cr CreateRoom) CheckForErrors(maxPlayers int) string {
	switch {
	case cr.NumNetworkPlayers <= 0:
		return "must have at least one network player"
	case cr.NumRandomPlayers < 0:
		return "random player count must be non-negative"
	case cr.NumProbabilisticPlayers < 0:
		return "probabilistic player count must be non-negative"
	case cr.NumPlayers() > maxPlayers:
		return fmt.Sprintf("too many players: %d > %d", cr.NumPlayers(), maxPlayers)
	case cr.NumPlayers() < 2:
		return "must have at least two players"
	}
	return ""
}

// RoundSummary and GameSummary wrap the engine's summaries so they can
// travel as records.
type RoundSummary struct {
	game.RoundSummary
}

func (RoundSummary) Tag() string { return "RoundSummary" }

type GameSummary struct {
	game.GameSummary
}

func (GameSummary) Tag() string { return "GameSummary" }
