package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map commands",
	}

	cmd.AddCommand(newMapUploadCmd())
	cmd.AddCommand(newMapListCmd())
	cmd.AddCommand(newMapGetCmd())
	cmd.AddCommand(newMapDeleteCmd())

	return cmd
}

func mapPath(name string) string {
	return "/api/v1/maps/" + url.PathEscape(name)
}

func newMapUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <name> <file>",
		Short: "Upload a map from a CSV file ('-' reads stdin)",
		Long: `Upload a square map. Each CSV row is a row of the grid:
0 is a wall, 1 is a road. All roads must be connected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("failed to read map: %w", err)
			}

			req := map[string]string{"name": args[0], "csv": string(data)}
			var result GameMap

			if err := client.Post("/api/v1/maps", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMapListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []GameMap

			if err := client.Get("/api/v1/maps", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMapGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a map and its roads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameMap

			if err := client.Get(mapPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMapDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a map that no running game uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(mapPath(args[0])); err != nil {
				return err
			}

			output(cmd).PrintMessage("Map deleted")
			return nil
		},
	}
}
