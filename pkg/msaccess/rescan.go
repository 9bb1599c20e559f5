package msaccess

import "bytes"

// openFrame tracks one still-open element instance while rescanning.
type openFrame struct {
	start int64
	id    int
	hasID bool
}

func isTagBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '>' || b == '/'
}

// extractIntAttr pulls name="123" (or name='123') out of a raw opening
// tag's bytes.
func extractIntAttr(tag []byte, name string) (int, bool) {
	needle := []byte(name + "=")
	i := bytes.Index(tag, needle)
	if i == -1 {
		return 0, false
	}
	rest := tag[i+len(needle):]
	if len(rest) == 0 {
		return 0, false
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return 0, false
	}
	rest = rest[1:]
	end := bytes.IndexByte(rest, quote)
	if end == -1 {
		return 0, false
	}
	value := rest[:end]

	n := 0
	for _, c := range value {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// RescanOffsets performs the full-rescan fallback: scan `data` for every
// `<tagName ... idAttr="N">...
// </tagName>` element (tracking nesting depth so mzXML's nested <scan>
// works correctly), recording each one's byte range. header is
// everything before the first open tag; footer is everything after the
// last close tag, so a caller can wrap a single extracted fragment back
// into a valid document.
func RescanOffsets(data []byte, tagName, idAttr string) (index *ScanIndex, header, footer []byte) {
	openPrefix := []byte("<" + tagName)
	closeTag := []byte("</" + tagName + ">")

	var entries []IndexEntry
	var frames []openFrame

	firstOpen := int64(-1)
	lastCloseEnd := int64(0)

	pos := 0
	for pos < len(data) {
		oi := bytes.Index(data[pos:], openPrefix)
		ci := bytes.Index(data[pos:], closeTag)
		if oi >= 0 {
			oi += pos
		}
		if ci >= 0 {
			ci += pos
		}

		if oi == -1 && ci == -1 {
			break
		}

		if oi != -1 && (ci == -1 || oi < ci) {
			boundaryPos := oi + len(openPrefix)
			if boundaryPos < len(data) && isTagBoundary(data[boundaryPos]) {
				gt := bytes.IndexByte(data[oi:], '>')
				if gt == -1 {
					break // truncated opening tag; stop rescanning
				}
				tagEnd := oi + gt + 1
				id, hasID := extractIntAttr(data[oi:tagEnd], idAttr)
				if firstOpen == -1 {
					firstOpen = int64(oi)
				}
				frames = append(frames, openFrame{start: int64(oi), id: id, hasID: hasID})
				pos = tagEnd
				continue
			}
			// Not actually this tag (e.g. "<scanEvent"); keep scanning.
			pos = oi + 1
			continue
		}

		endOffset := int64(ci) + int64(len(closeTag))
		if len(frames) > 0 {
			f := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			if f.hasID {
				entries = append(entries, IndexEntry{ScanNumber: f.id, ByteStart: f.start, ByteEnd: endOffset})
			}
		}
		lastCloseEnd = endOffset
		pos = int(endOffset)
	}

	if firstOpen < 0 {
		firstOpen = 0
	}
	header = data[:firstOpen]
	footer = data[lastCloseEnd:]
	return NewScanIndex(entries), header, footer
}
