package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/buildfmt/grpart/grp"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List archive members with sizes and offsets",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	src, closeSrc, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer closeSrc() //nolint:errcheck // read-only source

	a, err := grp.Open(src)
	if err != nil {
		return err
	}
	entries, err := a.Entries()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tOFFSET")
	var total uint64
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\n", e.Name(), e.Size, e.Offset)
		total += uint64(e.Size)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d members, %d payload bytes\n", len(entries), total)
	return nil
}
