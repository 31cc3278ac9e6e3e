package players

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/perudo-net/perudo/game"
)

// RenderRoundSummary prints a finished round in a box: revealed hands, the
// aligned action log, and who lost a die.
func RenderRoundSummary(summary game.RoundSummary) {
	body := ""
	for i, name := range summary.Players {
		if summary.DiceByPlayer[i].NumDice() == 0 {
			continue
		}
		body += pterm.Sprintfln("%s: %s", name, summary.DiceByPlayer[i].String())
	}
	body += pterm.Sprintfln("---")
	for i, action := range summary.Actions {
		if game.IsNoOp(action) {
			continue
		}
		actor := summary.Players[i%len(summary.Players)]
		body += pterm.Sprintfln("%s: %s", actor, action.String())
	}
	body += pterm.Sprintfln("---")
	body += pterm.Sprintf("Loser(s): %s", joinNames(summary.Losers))

	title := "|ROUND|"
	if summary.SingleDieRound {
		title = "|ROUND (single die)|"
	}
	pterm.DefaultBox.
		WithTitle(pterm.LightYellow(title)).
		WithTitleTopCenter().
		Println(body)
}

// RenderGameSummary prints every round of a finished game and the winner.
func RenderGameSummary(summary game.GameSummary) {
	for round := range summary.AllRoundsActions {
		pterm.Info.Printfln("Round %d", round+1)
		RenderRoundSummary(game.RoundSummary{
			Players:        roundSeatNames(summary, round),
			DiceByPlayer:   summary.AllRoundsDice[round],
			Actions:        summary.AllRoundsActions[round],
			SingleDieRound: summary.SingleDieRoundHistory[round],
			Losers:         summary.AllRoundsLoserNames[round],
		})
	}
	pterm.Success.Printfln("Winner: %s", summary.Winner)
}

// roundSeatNames rebuilds the per-seat name list for one round. The living
// list is ordered from that round's opener, and the opener's seat is the
// number of skip pads at the front of the log.
func roundSeatNames(summary game.GameSummary, round int) []string {
	numSeats := len(summary.AllRoundsDice[round])
	pad := 0
	for _, a := range summary.AllRoundsActions[round] {
		if _, ok := a.(game.NoOpFirstTurnSkip); ok {
			pad++
			continue
		}
		break
	}

	names := make([]string, numSeats)
	for seat := range names {
		names[seat] = fmt.Sprintf("(out %d)", seat)
	}
	living := summary.AllRoundsLivingNames[round]
	next := 0
	for offset := 0; offset < numSeats && next < len(living); offset++ {
		seat := (pad + offset) % numSeats
		if summary.AllRoundsDice[round][seat].NumDice() > 0 {
			names[seat] = living[next]
			next++
		}
	}
	return names
}

func joinNames(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}
