package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/msreader/pkg/dta"
	"github.com/ChrisMcGann/msreader/pkg/mgf"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
	"github.com/ChrisMcGann/msreader/pkg/mzdata"
	"github.com/ChrisMcGann/msreader/pkg/mzxml"
	"github.com/ChrisMcGann/msreader/pkg/progress"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Open a spectrum file in sequential mode and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func openSequential(path, format string) (msformat.SpectrumSource, error) {
	opts := msreader.Options{Logger: progress.LogrusLogger{}}
	switch format {
	case "mzxml":
		return mzxml.Open(path, opts)
	case "mzdata":
		return mzdata.Open(path, opts)
	case "mgf":
		return mgf.Open(path, opts)
	case "dta":
		return dta.Open(path, opts)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := detectFormat(path)
	if err != nil {
		return err
	}

	reader, err := openSequential(path, format)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer reader.Close()

	if err := reader.ReadAndCacheEntireFile(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	scanNumbers := reader.GetScanNumberList()
	msLevelCounts := make(map[int]int)
	for i := 0; i < reader.CachedSpectrumCount(); i++ {
		var s msmodel.Spectrum
		if !reader.GetSpectrumByIndex(i, &s) {
			continue
		}
		msLevelCounts[s.MSLevel]++
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Spectrum count: %d\n", reader.CachedSpectrumCount())
	if len(scanNumbers) > 0 {
		fmt.Printf("Scan number range: %d - %d\n", reader.CachedSpectraScanNumberMin(), reader.CachedSpectraScanNumberMax())
	}

	levels := make([]int, 0, len(msLevelCounts))
	for level := range msLevelCounts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	fmt.Println("MS level histogram:")
	for _, level := range levels {
		fmt.Printf("  MS%d: %d\n", level, msLevelCounts[level])
	}

	return nil
}
