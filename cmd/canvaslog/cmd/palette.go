package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// paletteCmd groups the palette commands
var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Edit the canvas palette",
}

var paletteAddCmd = &cobra.Command{
	Use:   "add <offset> <color>...",
	Short: "Insert palette colors",
	Long: `Append a PaletteInsert writing the given colors starting at <offset>.
Colors are RRGGBB or RRGGBBAA hex; alpha defaults to FF.

Example:
  canvaslog palette add 0 '#FFFFFF' '#000000' FF450080`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseUint32("offset", args[0])
		if err != nil {
			return err
		}

		colors := make([]canvas.Color, 0, len(args)-1)
		for _, arg := range args[1:] {
			c, err := parseColor(arg)
			if err != nil {
				return err
			}
			colors = append(colors, c)
		}

		return appendRecords(cmd, canvas.PaletteInsert{Offset: offset, Colors: colors})
	},
}

var paletteRemoveCmd = &cobra.Command{
	Use:   "remove <offset> [length]",
	Short: "Remove palette colors",
	Long: `Append a PaletteRemove dropping [length] entries (default 1)
starting at <offset>.

Example:
  canvaslog palette remove 3
  canvaslog palette remove 3 4`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := parseUint32("offset", args[0])
		if err != nil {
			return err
		}
		length := canvas.DefaultPaletteRemoveLength
		if len(args) == 2 {
			if length, err = parseUint32("length", args[1]); err != nil {
				return err
			}
		}

		return appendRecords(cmd, canvas.PaletteRemove{Offset: offset, Length: length})
	},
}

func init() {
	rootCmd.AddCommand(paletteCmd)
	paletteCmd.AddCommand(paletteAddCmd)
	paletteCmd.AddCommand(paletteRemoveCmd)
}
