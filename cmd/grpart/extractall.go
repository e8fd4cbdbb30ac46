package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildfmt/grpart/internal/extract"
)

var (
	extractAllDest      string
	extractAllWorkers   int
	extractAllReads     int
	extractAllOverwrite bool
)

var extractAllCmd = &cobra.Command{
	Use:   "extract-all <archive>",
	Short: "Extract every member into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractAll,
}

func init() {
	extractAllCmd.Flags().StringVarP(&extractAllDest, "dest", "C", ".", "destination directory")
	extractAllCmd.Flags().IntVar(&extractAllWorkers, "workers", 0, "extraction workers (0 = auto, negative = serial)")
	extractAllCmd.Flags().IntVar(&extractAllReads, "read-concurrency", 1, "concurrent range reads for remote sources")
	extractAllCmd.Flags().BoolVar(&extractAllOverwrite, "overwrite", false, "replace existing files")
	rootCmd.AddCommand(extractAllCmd)
}

func runExtractAll(cmd *cobra.Command, args []string) error {
	src, closeSrc, err := openRandomSource(args[0])
	if err != nil {
		return err
	}
	defer closeSrc() //nolint:errcheck // read-only source

	if err := os.MkdirAll(extractAllDest, 0o750); err != nil {
		return err
	}

	opts := []extract.ProcessorOption{
		extract.WithWorkers(extractAllWorkers),
		extract.WithReadConcurrency(extractAllReads),
	}
	if log := logger(); log != nil {
		opts = append(opts, extract.WithProcessorLogger(log))
	}
	p := extract.NewProcessor(src, opts...)
	sink := extract.NewFileSink(extractAllDest, extract.WithOverwrite(extractAllOverwrite))

	stats, err := p.Extract(sink)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "extracted %d members (%d bytes), skipped %d\n",
		stats.Processed, stats.TotalBytes, stats.Skipped)
	return nil
}
