package main

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

func main() {
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	slog.SetDefault(slog.New(handler))

	if err := rootCmd().Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func banner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("P", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("erudo", pterm.FgDarkGray.ToStyle()),
	).Render()
}
