package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/players"
)

func localCmd() *cobra.Command {
	var (
		names     []string
		numRandom int
		numProb   int
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Play a game at this terminal against local bots",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			if len(names) == 0 {
				name, _ := pterm.DefaultInteractiveTextInput.
					WithDefaultText("Enter your name").
					WithDefaultValue("Human-0").Show()
				names = append(names, name)
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			seated, err := buildLocalPlayers(names, numRandom, numProb, rng)
			if err != nil {
				return err
			}
			g := game.New(seated, rng, slog.Default())
			winner := g.MainLoop(func(winner game.Player) {
				pterm.Success.Printfln("%s wins the game!", winner.Name())
			})
			players.RenderGameSummary(g.Summary(winner))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&names, "humans", nil, "names of interactive players, repeatable; prompted when omitted")
	cmd.Flags().IntVar(&numRandom, "random", 0, "number of random-legal bots")
	cmd.Flags().IntVar(&numProb, "probabilistic", 1, "number of probabilistic bots")
	cmd.Flags().Int64Var(&seed, "seed", 0, "dice seed, 0 for time-based")
	return cmd
}

// buildLocalPlayers seats the humans first, then the bots. Humans are
// wrapped so every finished round is rendered at the terminal.
func buildLocalPlayers(humanNames []string, numRandom, numProb int, rng *rand.Rand) ([]game.Player, error) {
	total := len(humanNames) + numRandom + numProb
	if total < 2 {
		return nil, fmt.Errorf("need at least two players, got %d", total)
	}
	seated := make([]game.Player, 0, total)
	for _, name := range humanNames {
		seated = append(seated, renderingPlayer{players.NewHumanPlayer(name)})
	}
	for i := 0; i < numProb; i++ {
		seated = append(seated, players.NewProbabilisticPlayer(fmt.Sprintf("Prob-%d", i), rng))
	}
	for i := 0; i < numRandom; i++ {
		seated = append(seated, players.NewRandomLegalPlayer(fmt.Sprintf("Rando-%d", i), rng))
	}
	return seated, nil
}

// renderingPlayer prints each round summary before passing it through. Only
// the humans get one so bots-only games stay silent.
type renderingPlayer struct {
	game.Player
}

func (p renderingPlayer) ReactToRoundSummary(summary game.RoundSummary) {
	players.RenderRoundSummary(summary)
	p.Player.ReactToRoundSummary(summary)
}
