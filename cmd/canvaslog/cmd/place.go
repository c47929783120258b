package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// placeCmd represents the place command
var placeCmd = &cobra.Command{
	Use:   "place <pos> <col>",
	Short: "Place a pixel",
	Long: `Append a PlacementInsert placing palette color <col> at packed
position <pos>.

Example:
  canvaslog place 4242 3
  canvaslog place 4242 3 --quiet --time 1648817050000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parseUint64("position", args[0])
		if err != nil {
			return err
		}
		col, err := parseUint32("color", args[1])
		if err != nil {
			return err
		}

		rec := maybeQuiet(cmd, canvas.PlacementInsert{Time: eventTime(cmd), Pos: pos, Col: col})
		return appendRecords(cmd, rec)
	},
}

// fillCmd represents the fill command
var fillCmd = &cobra.Command{
	Use:   "fill <start> <end> <col>",
	Short: "Fill an area",
	Long: `Append a PlacementInsertFill filling the area between the packed
positions <start> and <end> with palette color <col>.

Example:
  canvaslog fill 0 999 2`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bounds, err := parseBounds(args[0], args[1])
		if err != nil {
			return err
		}
		col, err := parseUint32("color", args[2])
		if err != nil {
			return err
		}

		rec := maybeQuiet(cmd, canvas.PlacementInsertFill{Time: eventTime(cmd), Pos: bounds, Col: col})
		return appendRecords(cmd, rec)
	},
}

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <pos> | remove <start> <end>",
	Short: "Undo placements",
	Long: `Append a PlacementRemove for one position, or a PlacementRemoveFill
when given a start and end position.

Example:
  canvaslog remove 4242
  canvaslog remove 0 999 --quiet`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec canvas.Record
		if len(args) == 1 {
			pos, err := parseUint64("position", args[0])
			if err != nil {
				return err
			}
			rec = canvas.PlacementRemove{Time: eventTime(cmd), Pos: pos}
		} else {
			bounds, err := parseBounds(args[0], args[1])
			if err != nil {
				return err
			}
			rec = canvas.PlacementRemoveFill{Time: eventTime(cmd), Pos: bounds}
		}
		return appendRecords(cmd, maybeQuiet(cmd, rec))
	},
}

func parseBounds(start, end string) (canvas.Bounds, error) {
	s, err := parseUint64("start", start)
	if err != nil {
		return canvas.Bounds{}, err
	}
	e, err := parseUint64("end", end)
	if err != nil {
		return canvas.Bounds{}, err
	}
	return canvas.Bounds{Start: s, End: e}, nil
}

func init() {
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(removeCmd)

	addRecordFlags(placeCmd)
	addRecordFlags(fillCmd)
	addRecordFlags(removeCmd)
}
