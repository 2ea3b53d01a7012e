package cli

import (
	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameAvailableCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameGuessCmd())
	cmd.AddCommand(newGameAbandonCmd())
	cmd.AddCommand(newGameCurrentCmd())
	cmd.AddCommand(newGameHistoryCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new game with a random secret word",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CreateGameResult

			if err := client.Post("/game/create", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List your games waiting to be joined",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AvailableGamesResult

			if err := client.Get("/game/available", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Start playing one of your games",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result JoinGameResult

			if err := client.Post("/game/join", map[string]string{"game_id": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <letter>",
		Short: "Guess a letter in your active game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GuessResult

			if err := client.Post("/game/guess", map[string]string{"letter": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Abandon your active game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameMessage

			if err := client.Post("/game/abandon", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(result.Message)
			return nil
		},
	}
}

func newGameCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show your active game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CurrentGameResult

			if err := client.Get("/game/current", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your finished games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HistoryResult

			if err := client.Get("/game/history", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
