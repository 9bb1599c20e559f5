package msaccess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

// FragmentParser turns one already-wrapped XML fragment (header bytes +
// a single element's bytes + footer bytes) into a Spectrum. mzxml and
// mzdata satisfy this with their own OpenTextStream + ReadNextSpectrum.
type FragmentParser func(wrapped []byte) (msmodel.Spectrum, error)

// SequentialOpener opens a fresh sequential msformat.SpectrumSource over
// the whole file, for the ReadAndCacheEntireFileNonIndexed fallback.
type SequentialOpener func(data []byte, opts msreader.Options) (msformat.SpectrumSource, error)

// Base implements the shared half of msformat.Accessor: scan-number
// index, header/footer bytes, and on-demand fragment extraction.
// mzxmlaccess and mzdataaccess each supply the tag name, FragmentParser
// and SequentialOpener and differ only in how the index itself gets
// built (embedded vs. always-rescan).
type Base struct {
	*msreader.Base

	data   []byte
	opts   msreader.Options
	tagDoc string // "scan" (mzXML) or "spectrum" (mzData), for GetSourceXMLHeader

	index  *ScanIndex
	header []byte
	footer []byte

	embeddedIndexUsed bool

	parse   FragmentParser
	openSeq SequentialOpener

	nextCursor int

	lastErr error
}

// NewBase builds an accessor Base by performing the generic rescan
// immediately; a caller that wants to try an embedded index first
// (mzxmlaccess) calls UseEmbeddedIndex afterward to replace the
// rescanned index if validation succeeds.
func NewBase(data []byte, tagName, idAttr string, parse FragmentParser, openSeq SequentialOpener, opts msreader.Options) *Base {
	idx, header, footer := RescanOffsets(data, tagName, idAttr)
	return &Base{
		Base:    msreader.NewBase(opts),
		data:    data,
		opts:    opts,
		tagDoc:  tagName,
		index:   idx,
		header:  header,
		footer:  footer,
		parse:   parse,
		openSeq: openSeq,
	}
}

// UseEmbeddedIndex replaces the rescanned index with one parsed from an
// embedded index structure, marking it as such for diagnostics.
func (b *Base) UseEmbeddedIndex(idx *ScanIndex, header, footer []byte) {
	b.index = idx
	b.header = header
	b.footer = footer
	b.embeddedIndexUsed = true
}

// EmbeddedIndexUsed reports whether the active index came from the
// file's own embedded index rather than a full rescan.
func (b *Base) EmbeddedIndexUsed() bool { return b.embeddedIndexUsed }

func (b *Base) wrapFragment(entry IndexEntry) []byte {
	if entry.ByteStart < 0 || entry.ByteEnd > int64(len(b.data)) || entry.ByteStart > entry.ByteEnd {
		return nil
	}
	fragment := b.data[entry.ByteStart:entry.ByteEnd]
	out := make([]byte, 0, len(b.header)+len(fragment)+len(b.footer))
	out = append(out, b.header...)
	out = append(out, fragment...)
	out = append(out, b.footer...)
	return out
}

func (b *Base) fetchEntry(entry IndexEntry, headerOnly bool) (msmodel.Spectrum, error) {
	wrapped := b.wrapFragment(entry)
	if wrapped == nil {
		return msmodel.Spectrum{}, msformat.NewFormatError(msformat.VariantMalformedXML, entry.ByteStart, "index entry byte range out of bounds")
	}
	s, err := b.parse(wrapped)
	if err != nil {
		return msmodel.Spectrum{}, err
	}
	if headerOnly {
		s.MzList = nil
		s.IntensityList = nil
	}
	return s, nil
}

// IndexedSpectrumCount implements msformat.Accessor.
func (b *Base) IndexedSpectrumCount() int { return b.index.Len() }

// GetSpectrumByIndex implements msformat.SpectrumSource over the index:
// fetched on demand, rather than requiring a prior caching pass.
func (b *Base) GetSpectrumByIndex(idx int, out *msmodel.Spectrum) bool {
	entry, ok := b.index.EntryAt(idx)
	if !ok {
		b.lastErr = &msformat.NotCachedError{}
		return false
	}
	s, err := b.fetchEntry(entry, false)
	if err != nil {
		b.lastErr = err
		return false
	}
	*out = s
	return true
}

// GetSpectrumByScanNumber implements msformat.SpectrumSource over the
// index.
func (b *Base) GetSpectrumByScanNumber(scanNumber int, out *msmodel.Spectrum) bool {
	entry, ok := b.index.Lookup(scanNumber)
	if !ok {
		b.lastErr = &msformat.NotCachedError{}
		return false
	}
	s, err := b.fetchEntry(entry, false)
	if err != nil {
		b.lastErr = err
		return false
	}
	*out = s
	return true
}

// GetSpectrumHeaderInfoByIndex implements msformat.Accessor: identical to
// GetSpectrumByIndex but with peak arrays omitted.
func (b *Base) GetSpectrumHeaderInfoByIndex(idx int, out *msmodel.Spectrum) bool {
	entry, ok := b.index.EntryAt(idx)
	if !ok {
		b.lastErr = &msformat.NotCachedError{}
		return false
	}
	s, err := b.fetchEntry(entry, true)
	if err != nil {
		b.lastErr = err
		return false
	}
	*out = s
	return true
}

// GetSourceXMLByIndex implements msformat.Accessor: the raw, wrapped XML
// text for one spectrum.
func (b *Base) GetSourceXMLByIndex(idx int) (string, bool) {
	entry, ok := b.index.EntryAt(idx)
	if !ok {
		return "", false
	}
	wrapped := b.wrapFragment(entry)
	if wrapped == nil {
		return "", false
	}
	return string(wrapped), true
}

// GetScanNumberList implements msformat.SpectrumSource over the index,
// overriding the embedded msreader.Base (which only knows about
// explicitly-cached spectra).
func (b *Base) GetScanNumberList() []int { return b.index.ScanNumbers() }

// ScanCount implements msformat.SpectrumSource over the index.
func (b *Base) ScanCount() int { return b.index.Len() }

// GetSourceXMLHeader implements msformat.Accessor. It returns the file's
// leading bytes (declarations, run-level metadata) and, when scanNumber
// is positive, appends a synthetic open tag carrying the requested scan
// number and retention-time bounds, so a caller assembling a standalone
// document from a subrange of fragments (retrieved via
// GetSourceXMLByIndex) has somewhere to hang those attributes without
// re-parsing the original run-level element.
func (b *Base) GetSourceXMLHeader(scanNumber int, rtStart, rtEnd *float64) string {
	if scanNumber <= 0 {
		return string(b.header)
	}
	var attrs strings.Builder
	fmt.Fprintf(&attrs, ` num="%s"`, strconv.Itoa(scanNumber))
	if rtStart != nil {
		fmt.Fprintf(&attrs, ` retentionTimeStart="PT%gS"`, *rtStart)
	}
	if rtEnd != nil {
		fmt.Fprintf(&attrs, ` retentionTimeEnd="PT%gS"`, *rtEnd)
	}
	return string(b.header) + "<" + b.tagDoc + attrs.String() + ">"
}

// GetSourceXMLFooter implements msformat.Accessor.
func (b *Base) GetSourceXMLFooter() string { return string(b.footer) }

// ReadNextSpectrum implements msformat.SpectrumSource by walking the
// index in order, one entry per call.
func (b *Base) ReadNextSpectrum(out *msmodel.Spectrum) (bool, error) {
	if b.nextCursor >= b.index.Len() {
		return false, nil
	}
	entry, _ := b.index.EntryAt(b.nextCursor)
	s, err := b.fetchEntry(entry, false)
	if err != nil {
		return false, b.Base.WrapIOError("msaccess.ReadNextSpectrum", err)
	}
	b.nextCursor++
	*out = s
	return true, nil
}

// ReadAndCacheEntireFile implements msformat.SpectrumSource by reading
// every indexed entry in scan-number order into the shared cache.
func (b *Base) ReadAndCacheEntireFile() error {
	for {
		if b.Base.Aborted() {
			return b.Base.WrapIOError("msaccess.ReadAndCacheEntireFile", &msformat.AbortedError{})
		}
		var s msmodel.Spectrum
		ok, err := b.ReadNextSpectrum(&s)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		b.Base.CacheSpectrum(s)
	}
}

// ReadAndCacheEntireFileNonIndexed implements msformat.Accessor: the
// fallback for files too large to index, bypassing the ScanIndex
// entirely in favor of the format's own sequential reader.
func (b *Base) ReadAndCacheEntireFileNonIndexed() error {
	seq, err := b.openSeq(b.data, b.opts)
	if err != nil {
		return b.Base.WrapIOError("msaccess.ReadAndCacheEntireFileNonIndexed", err)
	}
	defer seq.Close()

	for {
		if b.Base.Aborted() {
			return b.Base.WrapIOError("msaccess.ReadAndCacheEntireFileNonIndexed", &msformat.AbortedError{})
		}
		var s msmodel.Spectrum
		ok, err := seq.ReadNextSpectrum(&s)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		b.Base.CacheSpectrum(s)
	}
}

// Close releases no resources of its own: Base holds file contents in
// memory rather than an open handle, since the rescan needs the whole
// stream anyway.
func (b *Base) Close() error { return nil }

// LastError overrides the embedded msreader.Base so that lookup
// failures recorded by GetSpectrumByIndex/GetSpectrumByScanNumber are
// visible even though those methods bypass the embedded Base's own
// cache-miss bookkeeping.
func (b *Base) LastError() error {
	if b.lastErr != nil {
		return b.lastErr
	}
	return b.Base.LastError()
}

var _ msformat.Accessor = (*Base)(nil)
