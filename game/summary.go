package game

// RoundSummary is the public record of a finished round. It carries player
// names rather than seat indices so it is safe to hand to remote observers.
type RoundSummary struct {
	// Players holds every player name in seat order, dead seats included,
	// so Actions index mod len(Players) names the actor.
	Players []string `json:"players"`

	// DiceByPlayer is the revealed roll of each seat. Dead seats hold an
	// empty count.
	DiceByPlayer []DiceCounts `json:"dice_by_player"`

	Actions        Actions  `json:"actions"`
	SingleDieRound bool     `json:"single_die_round"`
	Losers         []string `json:"losers"`
}

// GameSummary is the public record of a whole game.
type GameSummary struct {
	AllRoundsActions      []Actions      `json:"all_rounds_actions"`
	AllRoundsDice         [][]DiceCounts `json:"all_rounds_dice"`
	AllRoundsLivingNames  [][]string     `json:"all_rounds_living_players"`
	AllRoundsLoserNames   [][]string     `json:"all_rounds_losers"`
	SingleDieRoundHistory []bool         `json:"single_die_round_history"`
	Winner                string         `json:"winner"`
}
