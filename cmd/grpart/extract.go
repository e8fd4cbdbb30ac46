package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildfmt/grpart/grp"
)

var extractOutput string

var extractCmd = &cobra.Command{
	Use:   "extract <archive> <member>",
	Short: "Extract a single member to a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output path (default: the member name)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	src, closeSrc, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer closeSrc() //nolint:errcheck // read-only source

	a, err := grp.Open(src)
	if err != nil {
		return err
	}
	e, ok, err := a.Find(args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("member %q not found", args[1])
	}
	data, err := a.ReadEntry(e)
	if err != nil {
		return err
	}

	out := extractOutput
	if out == "" {
		out = e.Name()
	}
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // extracted game data is not sensitive
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
	return nil
}
