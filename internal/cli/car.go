package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newCarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "car",
		Short: "Car commands",
	}

	cmd.AddCommand(newCarCreateCmd())
	cmd.AddCommand(newCarListCmd())
	cmd.AddCommand(newCarGetCmd())
	cmd.AddCommand(newCarDeleteCmd())
	cmd.AddCommand(newCarRepairCmd())
	cmd.AddCommand(newCarForwardCmd())
	cmd.AddCommand(newCarTurnCmd("left"))
	cmd.AddCommand(newCarTurnCmd("right"))
	cmd.AddCommand(newCarBackCmd())
	cmd.AddCommand(newCarMovesCmd())

	return cmd
}

func carPath(name string, parts ...string) string {
	path := "/api/v1/cars/" + url.PathEscape(name)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func newCarCreateCmd() *cobra.Command {
	var carType string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[0], "type": carType}
			var result Car

			if err := client.Post("/api/v1/cars", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&carType, "type", "t", "NORMAL", "Car type: NORMAL, RACER, MONSTER_TRUCK")

	return cmd
}

func newCarListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Car

			if err := client.Get("/api/v1/cars", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newCarGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Get a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Car

			if err := client.Get(carPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newCarDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a car that is not racing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(carPath(args[0])); err != nil {
				return err
			}

			output(cmd).PrintMessage("Car deleted")
			return nil
		},
	}
}

func newCarRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <name>",
		Short: "Repair a crashed car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Car

			if err := client.Post(carPath(args[0], "repair"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newCarForwardCmd() *cobra.Command {
	var distance int

	cmd := &cobra.Command{
		Use:   "forward <name>",
		Short: "Move a car forward in its running game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{}
			if cmd.Flags().Changed("distance") {
				req["distance"] = distance
			}
			var result CommandAccepted

			if err := client.Post(carPath(args[0], "forward"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&distance, "distance", "d", 0, "Cells to move (default: the car's maximum)")

	return cmd
}

func newCarTurnCmd(side string) *cobra.Command {
	return &cobra.Command{
		Use:   side + " <name>",
		Short: fmt.Sprintf("Turn a car %s", side),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CommandAccepted

			if err := client.Post(carPath(args[0], side), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newCarBackCmd() *cobra.Command {
	var gameID int64
	var moves int

	cmd := &cobra.Command{
		Use:   "back <name>",
		Short: "Undo a car's last moves in a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID <= 0 {
				return fmt.Errorf("--game is required")
			}
			req := map[string]any{"game_id": gameID, "moves": moves}
			var result CommandAccepted

			if err := client.Post(carPath(args[0], "back"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&gameID, "game", "g", 0, "Game ID")
	cmd.Flags().IntVarP(&moves, "moves", "n", 1, "Number of moves to undo")

	return cmd
}

func newCarMovesCmd() *cobra.Command {
	var gameID int64
	var limit int

	cmd := &cobra.Command{
		Use:   "moves <name>",
		Short: "Show a car's recorded moves, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if gameID > 0 {
				query.Set("game_id", strconv.FormatInt(gameID, 10))
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			path := carPath(args[0], "moves")
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result []MoveEvent
			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&gameID, "game", "g", 0, "Only moves in this game")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of moves")

	return cmd
}
