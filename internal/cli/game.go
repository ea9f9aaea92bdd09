package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameSnapshotCmd())
	cmd.AddCommand(newGameAddCarCmd())
	cmd.AddCommand(newGameRemoveCarCmd())
	cmd.AddCommand(newGameEventsCmd())

	return cmd
}

func parseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid game id %q", s)
	}
	return id, nil
}

func newGameStartCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "start <map>",
		Short: "Start a game on a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"map": args[0]}
			if name != "" {
				req["name"] = name
			}
			var result Game

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Game name (default: the map name)")

	return cmd
}

func newGameListCmd() *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/games"
			if len(statuses) > 0 {
				path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
			}
			var result []Game

			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status: RUNNING, FINISHED, INTERRUPTED")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get game details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			var result Game

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d", id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <id>",
		Short: "Show where every car in a running game is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			var result Snapshot

			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/snapshot", id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameAddCarCmd() *cobra.Command {
	var x, y int

	cmd := &cobra.Command{
		Use:   "add-car <id> <car>",
		Short: "Put a car into a running game",
		Long: `Put a car into a running game at 1-indexed --x/--y, or on a random
empty road cell when no position is given. The car starts facing NORTH.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("x") != cmd.Flags().Changed("y") {
				return fmt.Errorf("--x and --y must be given together")
			}

			req := map[string]any{"name": args[1]}
			if cmd.Flags().Changed("x") {
				req["x"] = x
				req["y"] = y
			}
			var result Game

			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/cars", id), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "Column, from 1")
	cmd.Flags().IntVar(&y, "y", 0, "Row, from 1")

	return cmd
}

func newGameRemoveCarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-car <id> <car>",
		Short: "Take a car out of a running game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(fmt.Sprintf("/api/v1/games/%d/cars/%s", id, url.PathEscape(args[1]))); err != nil {
				return err
			}

			output(cmd).PrintMessage("Car removed")
			return nil
		},
	}
}
