// Package cmd provides the msreader CLI command implementations.
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	formatOverride      string
	ignoreEmbeddedIndex bool
)

var rootCmd = &cobra.Command{
	Use:   "msreader",
	Short: "msreader - mass-spectrometry spectrum file inspector",
	Long: `msreader reads mzXML, mzData, MGF, and concatenated-DTA spectrum
files and prints a summary or a single spectrum's peaks.

It exists to exercise the library's public surface; it is not itself
part of the library.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(dumpCmd)

	rootCmd.PersistentFlags().StringVar(&formatOverride, "format", "", "spectrum format: mzxml, mzdata, mgf, dta (auto-detect from extension if not set)")
	rootCmd.PersistentFlags().BoolVar(&ignoreEmbeddedIndex, "ignore-embedded-index", false, "skip mzXML's embedded <index>, always rescan")
}

// detectFormat maps a file extension to one of this module's four
// supported formats, the same auto-detect-from-extension idiom the
// teacher's convert command uses for its own input formats.
func detectFormat(path string) (string, error) {
	if formatOverride != "" {
		return strings.ToLower(formatOverride), nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mzxml":
		return "mzxml", nil
	case ".mzdata":
		return "mzdata", nil
	case ".mgf":
		return "mgf", nil
	case ".dta":
		return "dta", nil
	default:
		return "", fmt.Errorf("cannot auto-detect format from extension %q, pass --format", ext)
	}
}
