package mzxmlaccess

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

func encodePeaks(pairs [][2]float64) string {
	buf := make([]byte, len(pairs)*2*8)
	i := 0
	for _, p := range pairs {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(p[0]))
		i++
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(p[1]))
		i++
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func plainDoc() []byte {
	peaks := encodePeaks([][2]float64{{100.0, 10}, {200.0, 20}})
	return []byte(`<mzXML><msRun scanCount="2">
<scan num="1" msLevel="1" peaksCount="2"><peaks precision="64" byteOrder="network">` + peaks + `</peaks></scan>
<scan num="2" msLevel="1" peaksCount="2"><peaks precision="64" byteOrder="network">` + peaks + `</peaks></scan>
</msRun></mzXML>`)
}

func TestOpenBytesFallsBackToRescanWithoutEmbeddedIndex(t *testing.T) {
	r, err := OpenBytes(plainDoc(), Options{})
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	if r.EmbeddedIndexUsed() {
		t.Error("EmbeddedIndexUsed() = true, want false (no embedded index present)")
	}
	if got := r.IndexedSpectrumCount(); got != 2 {
		t.Fatalf("IndexedSpectrumCount() = %d, want 2", got)
	}

	var s msmodel.Spectrum
	if !r.GetSpectrumByScanNumber(2, &s) {
		t.Fatalf("GetSpectrumByScanNumber(2) = false, lastErr=%v", r.LastError())
	}
	if s.ScanNumber != 2 {
		t.Errorf("ScanNumber = %d, want 2", s.ScanNumber)
	}
}

func docWithEmbeddedIndex(withSha1, corruptSha1 bool) []byte {
	peaks := encodePeaks([][2]float64{{100.0, 10}})
	run := `<mzXML><msRun scanCount="2">
<scan num="1" msLevel="1" peaksCount="1"><peaks precision="64" byteOrder="network">` + peaks + `</peaks></scan>
<scan num="2" msLevel="1" peaksCount="1"><peaks precision="64" byteOrder="network">` + peaks + `</peaks></scan>
</msRun>
`
	scan1Off := indexOfByte([]byte(run), `<scan num="1"`)
	scan2Off := indexOfByte([]byte(run), `<scan num="2"`)

	indexBlock := fmt.Sprintf(`<index name="scan"><offset id="1">%d</offset><offset id="2">%d</offset></index>`, scan1Off, scan2Off)

	pos := len(run)
	doc := run + indexBlock + fmt.Sprintf(`<indexOffset>%d</indexOffset>`, pos)
	if withSha1 {
		sum := sha1.Sum([]byte(run))
		hexDigest := fmt.Sprintf("%x", sum)
		if corruptSha1 {
			hexDigest = "0000000000000000000000000000000000000000"
		}
		doc += `<sha1>` + hexDigest + `</sha1>`
	}
	doc += `</mzXML>`
	return []byte(doc)
}

func indexOfByte(data []byte, sub string) int {
	for i := 0; i+len(sub) <= len(data); i++ {
		if string(data[i:i+len(sub)]) == sub {
			return i
		}
	}
	return -1
}

func TestOpenBytesUsesValidEmbeddedIndex(t *testing.T) {
	r, err := OpenBytes(docWithEmbeddedIndex(true, false), Options{})
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	if !r.EmbeddedIndexUsed() {
		t.Error("EmbeddedIndexUsed() = false, want true (valid embedded index present)")
	}
	if got := r.IndexedSpectrumCount(); got != 2 {
		t.Fatalf("IndexedSpectrumCount() = %d, want 2", got)
	}

	var s msmodel.Spectrum
	if !r.GetSpectrumByScanNumber(1, &s) {
		t.Fatalf("GetSpectrumByScanNumber(1) = false, lastErr=%v", r.LastError())
	}
	if s.ScanNumber != 1 {
		t.Errorf("ScanNumber = %d, want 1", s.ScanNumber)
	}
}

func TestOpenBytesFallsBackOnSha1Mismatch(t *testing.T) {
	r, err := OpenBytes(docWithEmbeddedIndex(true, true), Options{})
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	if r.EmbeddedIndexUsed() {
		t.Error("EmbeddedIndexUsed() = true, want false (sha1 mismatch should force rescan)")
	}
	if got := r.IndexedSpectrumCount(); got != 2 {
		t.Fatalf("IndexedSpectrumCount() = %d, want 2 (rescan should still find both scans)", got)
	}
}

func TestOpenBytesIgnoreEmbeddedIndexOption(t *testing.T) {
	r, err := OpenBytes(docWithEmbeddedIndex(true, false), Options{IgnoreEmbeddedIndex: true})
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	if r.EmbeddedIndexUsed() {
		t.Error("EmbeddedIndexUsed() = true, want false (IgnoreEmbeddedIndex set)")
	}
}

func TestReadAndCacheEntireFileNonIndexed(t *testing.T) {
	r, err := OpenBytes(plainDoc(), Options{Options: msreader.Options{}})
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	if err := r.ReadAndCacheEntireFileNonIndexed(); err != nil {
		t.Fatalf("ReadAndCacheEntireFileNonIndexed() error = %v", err)
	}
	if got := r.CachedSpectrumCount(); got != 2 {
		t.Fatalf("CachedSpectrumCount() = %d, want 2", got)
	}
}
