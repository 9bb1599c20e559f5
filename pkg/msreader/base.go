// Package msreader provides the sequential-reader base every format
// parser (dta, mgf, mzxml, mzdata) embeds. It owns the spectrum cache,
// the scan-number index, and the progress/abort/logging collaborators;
// format packages own only the bytes-to-Spectrum parsing.
package msreader

import (
	"sort"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
)

// Options configures a Base reader at construction time.
type Options struct {
	// AutoShrinkDataLists releases a cached spectrum's peak arrays back
	// to nil once AutoShrinkSpectrumCount spectra have been cached past
	// it, bounding memory use on very large sequential reads.
	AutoShrinkDataLists     bool
	AutoShrinkSpectrumCount int

	// ParseFilesWithUnknownVersion is stored with the other options, but
	// no reader in this module inspects a file's format-version
	// declaration, so the flag has no effect and UnrecognizedVersionError
	// is never returned.
	ParseFilesWithUnknownVersion bool

	Progress msformat.ProgressSink
	Logger   msformat.Logger
}

func (o Options) withDefaults() Options {
	if o.Progress == nil {
		o.Progress = msformat.NopProgressSink{}
	}
	if o.Logger == nil {
		o.Logger = msformat.NopLogger{}
	}
	if o.AutoShrinkSpectrumCount <= 0 {
		o.AutoShrinkSpectrumCount = 200
	}
	return o
}

// Base is embedded by every format reader. It is not itself a
// msformat.SpectrumSource: it has no ReadNextSpectrum, since that is
// inherently format-specific. Everything index/cache/progress-related
// lives here so format packages implement only parsing.
type Base struct {
	opts Options

	cache       []msmodel.Spectrum
	scanToIndex map[int]int
	scanNumbers []int // kept sorted; backs GetScanNumberList and binary search

	lastErr error
}

// NewBase constructs a Base with the given options, filling in defaults
// for any collaborator left nil.
func NewBase(opts Options) *Base {
	return &Base{
		opts:        opts.withDefaults(),
		scanToIndex: make(map[int]int),
	}
}

func (b *Base) Progress() msformat.ProgressSink { return b.opts.Progress }
func (b *Base) Logger() msformat.Logger         { return b.opts.Logger }

func (b *Base) LastError() error { return b.lastErr }

func (b *Base) setLastError(err error) error {
	b.lastErr = err
	return err
}

// CacheSpectrum appends (or, on a repeat scan number, overwrites) a fully
// validated spectrum, records it in the scan-number map, and inserts its
// scan number into the sorted list by binary search.
func (b *Base) CacheSpectrum(s msmodel.Spectrum) {
	if idx, ok := b.scanToIndex[s.ScanNumber]; ok {
		b.cache[idx] = s
		if b.opts.AutoShrinkDataLists {
			b.shrinkOlderThan(idx)
		}
		return
	}

	idx := len(b.cache)
	b.cache = append(b.cache, s)
	b.scanToIndex[s.ScanNumber] = idx

	pos := sort.SearchInts(b.scanNumbers, s.ScanNumber)
	b.scanNumbers = append(b.scanNumbers, 0)
	copy(b.scanNumbers[pos+1:], b.scanNumbers[pos:])
	b.scanNumbers[pos] = s.ScanNumber

	if b.opts.AutoShrinkDataLists {
		b.shrinkOlderThan(idx)
	}
}

// shrinkOlderThan releases the peak arrays of the one cached spectrum that
// sits exactly AutoShrinkSpectrumCount entries behind newestIdx. Called
// after every append, this releases every spectrum that far back or more.
func (b *Base) shrinkOlderThan(newestIdx int) {
	cutoff := newestIdx - b.opts.AutoShrinkSpectrumCount
	if cutoff < 0 {
		return
	}
	s := &b.cache[cutoff]
	if s.MzList == nil && s.IntensityList == nil {
		return
	}
	s.MzList = nil
	s.IntensityList = nil
}

// GetSpectrumByIndex copies the idx'th cached spectrum into out.
func (b *Base) GetSpectrumByIndex(idx int, out *msmodel.Spectrum) bool {
	if idx < 0 || idx >= len(b.cache) {
		if len(b.cache) == 0 {
			b.lastErr = &msformat.NotCachedError{Op: "GetSpectrumByIndex"}
		}
		return false
	}
	*out = *b.cache[idx].DeepClone()
	return true
}

// GetSpectrumByScanNumber copies the spectrum with the given scan number
// into out, using the scan-number index for O(1) lookup.
func (b *Base) GetSpectrumByScanNumber(scanNumber int, out *msmodel.Spectrum) bool {
	idx, ok := b.scanToIndex[scanNumber]
	if !ok {
		if len(b.cache) == 0 {
			b.lastErr = &msformat.NotCachedError{Op: "GetSpectrumByScanNumber"}
		}
		return false
	}
	return b.GetSpectrumByIndex(idx, out)
}

// GetScanNumberList returns the cached scan numbers in ascending order.
// The returned slice is a copy; callers may mutate it without affecting
// the reader.
func (b *Base) GetScanNumberList() []int {
	out := make([]int, len(b.scanNumbers))
	copy(out, b.scanNumbers)
	return out
}

func (b *Base) CachedSpectrumCount() int { return len(b.cache) }

func (b *Base) ScanCount() int { return len(b.cache) }

func (b *Base) CachedSpectraScanNumberMin() int {
	if len(b.scanNumbers) == 0 {
		return 0
	}
	return b.scanNumbers[0]
}

func (b *Base) CachedSpectraScanNumberMax() int {
	if len(b.scanNumbers) == 0 {
		return 0
	}
	return b.scanNumbers[len(b.scanNumbers)-1]
}

// Aborted polls the injected ProgressSink for cooperative cancellation.
// Format readers call this between spectra during
// ReadAndCacheEntireFile and translate a true result into
// msformat.AbortedError.
func (b *Base) Aborted() bool { return b.opts.Progress.Aborted() }

// WrapIOError is a convenience the format readers use so every I/O
// failure is recorded as both the reader's LastError and an *msformat.IOError.
func (b *Base) WrapIOError(op string, err error) error {
	return b.setLastError(msformat.NewIOError(op, err))
}
