// Package mzxmlaccess implements the indexed, random-access mzXML reader:
// it prefers the file's own trailing <index
// name="scan">...</index>/<indexOffset>/<sha1> block and falls back to
// pkg/msaccess's generic rescan whenever that block is absent, truncated,
// or fails SHA-1 verification.
package mzxmlaccess

import (
	"bytes"
	"crypto/sha1"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msreader/pkg/msaccess"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
	"github.com/ChrisMcGann/msreader/pkg/mzxml"
)

// Options extends msreader.Options with the accessor-specific flag for
// skipping the embedded index.
type Options struct {
	msreader.Options
	IgnoreEmbeddedIndex bool
}

// Reader is the mzXML indexed accessor (msformat.Accessor).
type Reader struct {
	*msaccess.Base
}

func parseFragment(opts msreader.Options) msaccess.FragmentParser {
	return func(wrapped []byte) (msmodel.Spectrum, error) {
		r, err := mzxml.OpenTextStream(wrapped, opts)
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
			return msmodel.Spectrum{}, msformat.NewFormatError(msformat.VariantMalformedXML, 0, "no <scan> found in extracted fragment")
		}
		return s, nil
	}
}

func openSequential(data []byte, opts msreader.Options) (msformat.SpectrumSource, error) {
	return mzxml.OpenTextStream(data, opts)
}

// Open opens path, attempting the embedded index before falling back to
// a full rescan.
func Open(path string, opts Options) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, msformat.NewIOError("mzxmlaccess.Open", err)
	}
	return OpenBytes(data, opts)
}

// OpenBytes builds the accessor directly from in-memory file contents.
func OpenBytes(data []byte, opts Options) (*Reader, error) {
	base := msaccess.NewBase(data, "scan", "num", parseFragment(opts.Options), openSequential, opts.Options)

	if !opts.IgnoreEmbeddedIndex {
		if idx, header, footer, ok := loadEmbeddedIndex(data, base.Logger()); ok {
			base.UseEmbeddedIndex(idx, header, footer)
		}
	}
	return &Reader{Base: base}, nil
}

// loadEmbeddedIndex locates <indexOffset>, parses the <index
// name="scan"> block at that offset, and verifies its SHA-1 (when
// present) over bytes [0, indexOffset). A SHA-1 mismatch is logged and
// reported as not ok, so the caller keeps the rescanned index.
func loadEmbeddedIndex(data []byte, logger msformat.Logger) (*msaccess.ScanIndex, []byte, []byte, bool) {
	tailStart := len(data) - 1024
	if tailStart < 0 {
		tailStart = 0
	}
	tail := data[tailStart:]

	const openTag = "<indexOffset>"
	const closeTag = "</indexOffset>"
	oi := bytes.Index(tail, []byte(openTag))
	if oi == -1 {
		return nil, nil, nil, false
	}
	ci := bytes.Index(tail[oi:], []byte(closeTag))
	if ci == -1 {
		return nil, nil, nil, false
	}
	posText := strings.TrimSpace(string(tail[oi+len(openTag) : oi+ci]))
	pos, err := strconv.ParseInt(posText, 10, 64)
	if err != nil || pos < 0 || pos >= int64(len(data)) {
		return nil, nil, nil, false
	}

	// Tolerate a little whitespace between the run body and the index:
	// the <index element must begin within 2 bytes of pos.
	candidateStart := bytes.IndexByte(data[pos:minInt(pos+2, int64(len(data)))], '<')
	if candidateStart == -1 || !bytes.HasPrefix(data[pos+int64(candidateStart):], []byte("<index")) {
		return nil, nil, nil, false
	}

	entries, sha1Hex, indexEnd, ok := parseIndexBlock(data[pos:])
	if !ok {
		return nil, nil, nil, false
	}

	if sha1Hex != "" {
		sum := sha1.Sum(data[:pos])
		if fmt.Sprintf("%x", sum) != strings.ToLower(sha1Hex) {
			logger.Log("mzXML embedded index SHA-1 mismatch; using full rescan instead")
			return nil, nil, nil, false
		}
	}

	_ = indexEnd
	header, footer := splitHeaderFooterFromEntries(data, entries)
	return msaccess.NewScanIndex(entries), header, footer, true
}

func isScanTagBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '>' || b == '/'
}

func minInt(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// parseIndexBlock parses the <index name="scan">...<offset
// id="N">BYTE</offset>...</index> element starting at data[0], plus an
// optional following <sha1>HEX</sha1>.
func parseIndexBlock(data []byte) (entries []msaccess.IndexEntry, sha1Hex string, end int, ok bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	inIndex := false
	inSha1 := false
	var sha1Text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "index":
				inIndex = true
			case "offset":
				if !inIndex {
					continue
				}
				idAttr := ""
				for _, a := range t.Attr {
					if a.Name.Local == "id" {
						idAttr = a.Value
					}
				}
				id, err := strconv.Atoi(idAttr)
				if err != nil {
					continue
				}
				text, terr := readCharData(dec, "offset")
				if terr != nil {
					return nil, "", 0, false
				}
				byteOff, perr := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
				if perr != nil {
					continue
				}
				entries = append(entries, msaccess.IndexEntry{ScanNumber: id, ByteStart: byteOff})
			case "sha1":
				inSha1 = true
			}
		case xml.CharData:
			if inSha1 {
				sha1Text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "index":
				inIndex = false
				end = int(dec.InputOffset())
			case "sha1":
				inSha1 = false
			}
		}
	}

	if len(entries) == 0 {
		return nil, "", 0, false
	}
	return entries, strings.TrimSpace(sha1Text.String()), end, true
}

func readCharData(dec *xml.Decoder, stopOn string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == stopOn {
				return sb.String(), nil
			}
		}
	}
}

// splitHeaderFooterFromEntries derives header/footer bytes the same way
// the generic rescan would: from file start to the first entry's start,
// and from the last entry's matching close tag through EOF. The
// embedded index only records each scan's open offset, so the matching
// "</scan>" is found by depth-tracking forward from there (nested MSn
// scans share the same tag name, so a naive nearest-"</scan>" search
// would stop at a child's close instead of the entry's own).
func splitHeaderFooterFromEntries(data []byte, entries []msaccess.IndexEntry) (header, footer []byte) {
	minStart := int64(len(data))
	maxEnd := int64(0)
	for i := range entries {
		if entries[i].ByteStart < minStart {
			minStart = entries[i].ByteStart
		}
		end, ok := matchScanClose(data, entries[i].ByteStart)
		if !ok {
			continue
		}
		entries[i].ByteEnd = end
		if end > maxEnd {
			maxEnd = end
		}
	}
	if minStart > int64(len(data)) {
		minStart = 0
	}
	return data[:minStart], data[maxEnd:]
}

// matchScanClose finds the "</scan>" that closes the <scan ...> element
// opening at openStart, tracking nesting depth so an inner MSn scan's
// close tag doesn't get mistaken for the outer one's.
func matchScanClose(data []byte, openStart int64) (int64, bool) {
	gt := bytes.IndexByte(data[openStart:], '>')
	if gt == -1 {
		return 0, false
	}
	pos := int(openStart) + gt + 1
	depth := 1
	openPrefix := []byte("<scan")
	closeTag := []byte("</scan>")

	for pos < len(data) {
		oi := bytes.Index(data[pos:], openPrefix)
		ci := bytes.Index(data[pos:], closeTag)
		if ci == -1 {
			return 0, false
		}
		if oi != -1 {
			oi += pos
		}
		ci += pos

		if oi != -1 && oi < ci && isScanTagBoundary(data[oi+len(openPrefix)]) {
			depth++
			innerGt := bytes.IndexByte(data[oi:], '>')
			if innerGt == -1 {
				return 0, false
			}
			pos = oi + innerGt + 1
			continue
		}

		depth--
		end := ci + len(closeTag)
		if depth == 0 {
			return int64(end), true
		}
		pos = end
	}
	return 0, false
}

var _ msformat.Accessor = (*Reader)(nil)
