package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/perudo-net/perudo/config"
	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/network"
	"github.com/perudo-net/perudo/players"
	"github.com/perudo-net/perudo/protocol"
)

const dialTimeout = 10 * time.Second

type clientOpts struct {
	host        string
	port        int
	name        string
	playerClass string
}

func (o *clientOpts) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.host, "host", "localhost", "lobby server host")
	cmd.PersistentFlags().IntVarP(&o.port, "port", "p", config.DefaultServer().Port, "lobby server port")
	cmd.PersistentFlags().StringVarP(&o.name, "name", "n", "", "your display name, prompted when empty")
	cmd.PersistentFlags().StringVar(&o.playerClass, "player-class", "HumanPlayer",
		fmt.Sprintf("player class: %s", strings.Join(sortedClassNames(), ", ")))
}

func sortedClassNames() []string {
	names := players.ClassNames()
	sort.Strings(names)
	return names
}

// dial prompts for a name when none was given, then connects to the lobby.
func (o *clientOpts) dial() (*network.ClientManager, error) {
	if o.name == "" {
		o.name, _ = pterm.DefaultInteractiveTextInput.
			WithDefaultText("Enter your name").Show()
	}
	if o.name == "" {
		return nil, fmt.Errorf("a name is required")
	}
	return network.Dial(o.host, o.port, o.name, dialTimeout, slog.Default())
}

func (o *clientOpts) buildPlayer() (game.Player, error) {
	return players.FromClassName(o.playerClass, o.name)
}

func clientCmd() *cobra.Command {
	opts := &clientOpts{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Connect to a lobby server to list, create, or join game rooms",
	}
	opts.register(cmd)
	cmd.AddCommand(queryCmd(opts), createCmd(opts), joinCmd(opts))
	return cmd
}

func queryCmd(opts *clientOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "List the rooms on the server and who is in them",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.dial()
			if err != nil {
				return err
			}
			defer m.Close()
			rooms, err := m.QueryRooms()
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				pterm.Info.Println("No rooms open. Create one with 'perudo client create'.")
				return nil
			}
			rows := pterm.TableData{{"Room", "Players"}}
			names := make([]string, 0, len(rooms))
			for name := range rooms {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				rows = append(rows, []string{name, strings.Join(rooms[name], ", ")})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func createCmd(opts *clientOpts) *cobra.Command {
	var (
		roomName string
		netSeats int
		random   int
		prob     int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and play once it fills",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			m, err := opts.dial()
			if err != nil {
				return err
			}
			defer m.Close()
			player, err := opts.buildPlayer()
			if err != nil {
				return err
			}
			create := protocol.CreateRoom{
				RoomName:                roomName,
				NumNetworkPlayers:       netSeats,
				NumRandomPlayers:        random,
				NumProbabilisticPlayers: prob,
			}
			pterm.Info.Printfln("Creating room %q, waiting for %d network player(s)...", roomName, netSeats)
			return m.CreateRoom(create, config.DefaultServer().MaxPlayersPerGame, player)
		},
	}
	cmd.Flags().StringVarP(&roomName, "room", "r", "", "name of the room to create")
	cmd.Flags().IntVar(&netSeats, "network", 1, "network player seats, including yours")
	cmd.Flags().IntVar(&random, "random", 0, "random-legal bots hosted by the server")
	cmd.Flags().IntVar(&prob, "probabilistic", 1, "probabilistic bots hosted by the server")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func joinCmd(opts *clientOpts) *cobra.Command {
	var roomName string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a room, or any room with space when none is named",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			m, err := opts.dial()
			if err != nil {
				return err
			}
			defer m.Close()
			player, err := opts.buildPlayer()
			if err != nil {
				return err
			}
			if roomName == "" {
				pterm.Info.Println("Joining any room with space...")
			} else {
				pterm.Info.Printfln("Joining room %q...", roomName)
			}
			return m.JoinRoom(roomName, player)
		},
	}
	cmd.Flags().StringVarP(&roomName, "room", "r", "", "room to join, empty for any with space")
	return cmd
}
