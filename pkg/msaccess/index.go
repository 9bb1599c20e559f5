// Package msaccess provides the generic indexed-accessor layer shared by
// the mzXML and mzData random-access readers: a scan-number ->
// byte-offset index plus on-demand extraction of a single spectrum's raw
// XML fragment, wrapped in the file's header/footer bytes and handed to
// the format's own parser.
package msaccess

import "sort"

// IndexEntry locates one spectrum's XML element within the source file.
type IndexEntry struct {
	ScanNumber int
	ByteStart  int64
	ByteEnd    int64
	MSLevel    int
}

// ScanIndex is an ordered-by-scan-number index with O(log N) lookup: a
// sorted slice plus sort.Search, rather than a linear scan.
type ScanIndex struct {
	entries []IndexEntry
}

// NewScanIndex builds a ScanIndex from an unordered set of entries,
// sorting them by scan number once up front.
func NewScanIndex(entries []IndexEntry) *ScanIndex {
	sorted := append([]IndexEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ScanNumber < sorted[j].ScanNumber })
	return &ScanIndex{entries: sorted}
}

// Len returns the number of indexed spectra.
func (idx *ScanIndex) Len() int { return len(idx.entries) }

// EntryAt returns the i'th entry in scan-number order.
func (idx *ScanIndex) EntryAt(i int) (IndexEntry, bool) {
	if i < 0 || i >= len(idx.entries) {
		return IndexEntry{}, false
	}
	return idx.entries[i], true
}

// Lookup finds the entry for an exact scan number via binary search.
func (idx *ScanIndex) Lookup(scanNumber int) (IndexEntry, bool) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].ScanNumber >= scanNumber
	})
	if i < len(idx.entries) && idx.entries[i].ScanNumber == scanNumber {
		return idx.entries[i], true
	}
	return IndexEntry{}, false
}

// ScanNumbers returns every indexed scan number in ascending order.
func (idx *ScanIndex) ScanNumbers() []int {
	out := make([]int, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.ScanNumber
	}
	return out
}
