package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/buildfmt/grpart/art"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles <catalog>",
	Short: "List tile dimensions from an ART catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)
}

func runTiles(cmd *cobra.Command, args []string) error {
	src, closeSrc, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer closeSrc() //nolint:errcheck // read-only source

	c, err := art.Open(src)
	if err != nil {
		return err
	}
	tiles, err := c.Tiles()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWIDTH\tHEIGHT")
	for _, tile := range tiles {
		fmt.Fprintf(w, "%d\t%d\t%d\n", tile.ID, tile.Width, tile.Height)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(tiles) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d tiles, ids %d-%d\n",
			len(tiles), tiles[0].ID, tiles[len(tiles)-1].ID)
	}
	return nil
}
