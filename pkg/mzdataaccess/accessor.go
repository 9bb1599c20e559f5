// Package mzdataaccess implements the indexed, random-access mzData
// reader. mzData defines no embedded index format, so this accessor
// always builds its ScanIndex via a single full rescan.
package mzdataaccess

import (
	"os"

	"github.com/ChrisMcGann/msreader/pkg/msaccess"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
	"github.com/ChrisMcGann/msreader/pkg/mzdata"
)

// Reader is the mzData indexed accessor (msformat.Accessor).
type Reader struct {
	*msaccess.Base
}

func parseFragment(opts msreader.Options) msaccess.FragmentParser {
	return func(wrapped []byte) (msmodel.Spectrum, error) {
		r, err := mzdata.OpenTextStream(wrapped, opts)
		if err != nil {
			return msmodel.Spectrum{}, err
		}
		defer r.Close()
		var s msmodel.Spectrum
		ok, err := r.ReadNextSpectrum(&s)
		if err != nil {
			return msmodel.Spectrum{}, err
		}
		if !ok {
			return msmodel.Spectrum{}, msformat.NewFormatError(msformat.VariantMalformedXML, 0, "no <spectrum> found in extracted fragment")
		}
		return s, nil
	}
}

func openSequential(data []byte, opts msreader.Options) (msformat.SpectrumSource, error) {
	return mzdata.OpenTextStream(data, opts)
}

// Open opens path, always building the index via a full rescan: mzData
// has no standard embedded index to read instead.
func Open(path string, opts msreader.Options) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, msformat.NewIOError("mzdataaccess.Open", err)
	}
	return OpenBytes(data, opts)
}

// OpenBytes builds the accessor directly from in-memory file contents.
func OpenBytes(data []byte, opts msreader.Options) (*Reader, error) {
	base := msaccess.NewBase(data, "spectrum", "id", parseFragment(opts), openSequential, opts)
	return &Reader{Base: base}, nil
}

var _ msformat.Accessor = (*Reader)(nil)
