package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/cardtable/go/internal/config"
)

var (
	cfg *config.Config

	configPath string
	gameID     uint64
	joinCode   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "cardtable",
	Short: "Join and follow card games from the terminal",
	Long: `cardtable connects to a game server's socket as one player, keeps that
player's view of the table in sync and sends game actions.

Settings come from .env, an optional YAML file (--config or CARDTABLE_CONFIG)
and CARDTABLE_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		zerolog.SetGlobalLevel(loaded.LogLevel())
		cfg = loaded
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.Uint64VarP(&gameID, "game", "g", 0, "game id")
	flags.StringVar(&joinCode, "code", "", "join code, used when --game is not given")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(watchCmd, peekCmd, readyCmd, sortCmd)
}
