package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
	"github.com/ChrisMcGann/msreader/pkg/mzdataaccess"
	"github.com/ChrisMcGann/msreader/pkg/mzxmlaccess"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file> <scanNumber>",
	Short: "Print one spectrum's peaks by scan number",
	Args:  cobra.ExactArgs(2),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	scanNumber, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid scan number %q: %w", args[1], err)
	}

	format, err := detectFormat(path)
	if err != nil {
		return err
	}

	var s msmodel.Spectrum
	var found bool

	switch format {
	case "mzxml":
		r, err := mzxmlaccess.Open(path, mzxmlaccess.Options{IgnoreEmbeddedIndex: ignoreEmbeddedIndex})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer r.Close()
		found = r.GetSpectrumByScanNumber(scanNumber, &s)
	case "mzdata":
		r, err := mzdataaccess.Open(path, msreader.Options{})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer r.Close()
		found = r.GetSpectrumByScanNumber(scanNumber, &s)
	case "mgf", "dta":
		reader, err := openSequential(path, format)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer reader.Close()
		if err := reader.ReadAndCacheEntireFile(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		found = reader.GetSpectrumByScanNumber(scanNumber, &s)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if !found {
		return fmt.Errorf("scan number %d not found in %s", scanNumber, path)
	}

	fmt.Printf("Scan %d (MS%d), %d peaks\n", s.ScanNumber, s.MSLevel, s.PeaksCount())
	for i := 0; i < s.PeaksCount(); i++ {
		fmt.Printf("%12.4f  %12.2f\n", s.MzList[i], s.IntensityList[i])
	}

	return nil
}
