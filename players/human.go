package players

import (
	"strconv"

	"github.com/pterm/pterm"

	"github.com/perudo-net/perudo/game"
)

// HumanPlayer asks for each move interactively. Illegal input is rejected
// locally and re-prompted, so the engine only ever sees legal moves from a
// human (the engine still re-validates anyway).
type HumanPlayer struct {
	base
}

func NewHumanPlayer(name string) *HumanPlayer {
	return &HumanPlayer{base: base{name: name}}
}

func (p *HumanPlayer) SetDice(dice game.DiceCounts) {
	pterm.Info.Printfln("%s dice - %s", p.name, dice.String())
	p.base.SetDice(dice)
}

func (p *HumanPlayer) GetAction(obs game.Observation) game.Action {
	fixedFace := 0
	if obs.IsSingleDieRound && obs.PreviousAction != nil {
		fixedFace = obs.PreviousAction.Face
	}

	for {
		var action game.Action
		if obs.PreviousAction == nil {
			action = promptBid(fixedFace)
		} else {
			choice, _ := pterm.DefaultInteractiveSelect.
				WithOptions([]string{"Bid", "Challenge", "Exact"}).
				Show("Choose your action")
			switch choice {
			case "Challenge":
				action = game.Challenge{}
			case "Exact":
				action = game.Exact{}
			default:
				action = promptBid(fixedFace)
			}
		}

		validated := action.Validate(previousAsAction(obs.PreviousAction), obs.IsSingleDieRound)
		if invalid, ok := validated.(game.InvalidAction); ok {
			pterm.Warning.Printfln("Illegal action: %s", invalid.Reason)
			continue
		}
		return validated
	}
}

func previousAsAction(prev *game.Bid) game.Action {
	if prev == nil {
		return nil
	}
	return *prev
}

func promptBid(fixedFace int) game.Action {
	face := fixedFace
	if face == 0 {
		options := make([]string, 0, game.NumFaces)
		for f := game.MinFace; f <= game.MaxFace; f++ {
			options = append(options, strconv.Itoa(f))
		}
		chosen, _ := pterm.DefaultInteractiveSelect.
			WithOptions(options).
			Show("Choose a die face")
		face, _ = strconv.Atoi(chosen)
	} else {
		pterm.Info.Printfln("Single die round: bids are fixed to face %d", fixedFace)
	}

	for {
		raw, _ := pterm.DefaultInteractiveTextInput.Show("Enter dice count")
		count, err := strconv.Atoi(raw)
		if err != nil || count < 1 {
			pterm.Warning.Println("Count must be a positive number")
			continue
		}
		return game.Bid{Face: face, Count: count}
	}
}
