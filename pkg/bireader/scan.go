package bireader

import (
	"io"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
)

const maxLineWindow = 256 * 1024 * 1024

// codeUnitAt reads the code unit (a byte for UTF-8, a 16-bit unit for
// UTF-16) starting at byte index idx of window. ok is false if idx falls
// outside the window or a full code unit isn't available there.
func codeUnitAt(window []byte, idx int, enc TextEncoding) (value uint16, ok bool) {
	unit := enc.codeUnitSize()
	if idx < 0 || idx+unit > len(window) {
		return 0, false
	}
	if unit == 1 {
		return uint16(window[idx]), true
	}
	if enc == EncodingUTF16LE {
		return uint16(window[idx]) | uint16(window[idx+1])<<8, true
	}
	return uint16(window[idx])<<8 | uint16(window[idx+1]), true
}

// scanForwardForTerminator looks for the nearest line terminator starting
// at fromRel within window. windowReachedEOF tells it whether the window's
// right edge is the true end of stream (so a CR sitting exactly at the
// edge can be resolved as a lone CR rather than requiring more bytes to
// rule out a following LF).
func scanForwardForTerminator(window []byte, fromRel int, enc TextEncoding, windowReachedEOF bool) (contentEndRel int, termEndRel int, term Terminator, found bool) {
	unit := enc.codeUnitSize()
	for i := fromRel; i+unit <= len(window); i += unit {
		v, _ := codeUnitAt(window, i, enc)
		switch v {
		case 0x0A:
			return i, i + unit, TerminatorLF, true
		case 0x0D:
			if i+2*unit <= len(window) {
				v2, _ := codeUnitAt(window, i+unit, enc)
				if v2 == 0x0A {
					return i, i + 2*unit, TerminatorCRLF, true
				}
				return i, i + unit, TerminatorCR, true
			}
			if windowReachedEOF {
				return i, i + unit, TerminatorCR, true
			}
			// Ambiguous: CR sits at the window's right edge and more bytes
			// exist beyond it. Report not-found so the caller grows the
			// window and retries.
			return 0, 0, TerminatorNone, false
		}
	}
	return 0, 0, TerminatorNone, false
}

// scanBackwardForTerminator looks for the nearest line terminator ending
// at or before beforeRel within window, scanning toward index 0.
// windowReachedBOF tells it whether the window's left edge is the true
// start of stream.
func scanBackwardForTerminator(window []byte, beforeRel int, enc TextEncoding, windowReachedBOF bool) (contentEndRel int, termEndRel int, term Terminator, found bool) {
	unit := enc.codeUnitSize()
	for i := beforeRel - unit; i >= 0; i -= unit {
		v, _ := codeUnitAt(window, i, enc)
		switch v {
		case 0x0A:
			if i-unit >= 0 {
				v2, _ := codeUnitAt(window, i-unit, enc)
				if v2 == 0x0D {
					return i - unit, i + unit, TerminatorCRLF, true
				}
			} else if !windowReachedBOF {
				return 0, 0, TerminatorNone, false
			}
			return i, i + unit, TerminatorLF, true
		case 0x0D:
			return i, i + unit, TerminatorCR, true
		}
	}
	return 0, 0, TerminatorNone, false
}

func (r *Reader) loadWindowAt(start, end int64) error {
	if start < 0 {
		start = 0
	}
	if end > r.length {
		end = r.length
	}
	if end < start {
		end = start
	}
	n := end - start
	if n == 0 {
		r.window = r.window[:0]
		r.windowStart = start
		return nil
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, start); err != nil && err != io.EOF {
		return err
	}
	r.window = buf
	r.windowStart = start
	return nil
}

func (r *Reader) setCurrentLine(start, end, termEnd int64, term Terminator) error {
	raw := r.window[start-r.windowStart : end-r.windowStart]
	// Copy out of the window so a later refill can't mutate bytes the
	// caller is still holding onto.
	owned := make([]byte, len(raw))
	copy(owned, raw)

	text, err := decodeLineBytes(owned, r.encoding)
	if err != nil {
		return msformat.NewFormatError(msformat.VariantMalformedHeader, start, "invalid text encoding in line")
	}

	r.currentLineStart = start
	r.currentLineEnd = end
	r.currentLineTermEnd = termEnd
	r.currentLineTerminator = term
	r.currentLineRaw = owned
	r.currentLineText = text
	r.haveLine = true
	return nil
}

// ReadLine advances the cursor one line in the given direction and makes
// that line's content available via CurrentLine and friends. It returns
// false (with no error) when there is no further line in that direction.
func (r *Reader) ReadLine(dir Direction) (bool, error) {
	if dir == Forward {
		return r.readLineForward()
	}
	return r.readLineReverse()
}

func (r *Reader) readLineForward() (bool, error) {
	if r.pos >= r.length {
		r.haveLine = false
		return false, nil
	}

	lineStart := r.pos
	size := r.windowSize
	for {
		if err := r.loadWindowAt(lineStart, lineStart+int64(size)); err != nil {
			r.lastError = msformat.NewIOError("bireader.ReadLine", err)
			return false, r.lastError
		}
		reachedEOF := lineStart+int64(len(r.window)) >= r.length

		contentEndRel, termEndRel, term, found := scanForwardForTerminator(r.window, 0, r.encoding, reachedEOF)
		if found {
			contentEnd := lineStart + int64(contentEndRel)
			termEnd := lineStart + int64(termEndRel)
			if err := r.setCurrentLine(lineStart, contentEnd, termEnd, term); err != nil {
				r.lastError = err
				return false, err
			}
			r.pos = termEnd
			return true, nil
		}
		if reachedEOF {
			contentEnd := r.length
			if err := r.setCurrentLine(lineStart, contentEnd, contentEnd, TerminatorNone); err != nil {
				r.lastError = err
				return false, err
			}
			r.pos = contentEnd
			return true, nil
		}

		size *= 2
		if size > maxLineWindow {
			r.lastError = msformat.NewFormatError(msformat.VariantTruncated, lineStart, "line exceeds maximum buffer size")
			return false, r.lastError
		}
	}
}

func (r *Reader) readLineReverse() (bool, error) {
	if r.pos <= r.bomLen {
		r.haveLine = false
		return false, nil
	}

	limit := r.pos
	size := r.windowSize
	for {
		start := limit - int64(size)
		if start < r.bomLen {
			start = r.bomLen
		}
		if err := r.loadWindowAt(start, limit); err != nil {
			r.lastError = msformat.NewIOError("bireader.ReadLine", err)
			return false, r.lastError
		}
		reachedBOF := start <= r.bomLen
		limitRel := int(limit - start)

		endContentRel, endTermRel, endTerm, endFound := scanBackwardForTerminator(r.window, limitRel, r.encoding, reachedBOF)
		var lineEndRel, lineEndTermRel, lineStartRel int
		var lineTerm Terminator

		switch {
		case endFound && endTermRel == limitRel:
			// The nearest terminator behind the cursor ends exactly at the
			// cursor, so it terminates the line we're about to return.
			lineEndRel, lineEndTermRel, lineTerm = endContentRel, endTermRel, endTerm

			_, startTermEndRel, _, startFound := scanBackwardForTerminator(r.window, lineEndRel, r.encoding, reachedBOF)
			if startFound {
				lineStartRel = startTermEndRel
			} else if reachedBOF {
				lineStartRel = 0
			} else {
				size *= 2
				if size > maxLineWindow {
					r.lastError = msformat.NewFormatError(msformat.VariantTruncated, limit, "line exceeds maximum buffer size")
					return false, r.lastError
				}
				continue
			}
		case endFound:
			// A terminator exists further back, but content sits between its
			// end and the cursor: that content is an unterminated trailing
			// line, and the found terminator starts it rather than ending it.
			lineEndRel, lineEndTermRel, lineTerm = limitRel, limitRel, TerminatorNone
			lineStartRel = endTermRel
		case reachedBOF:
			lineEndRel, lineEndTermRel, lineTerm = limitRel, limitRel, TerminatorNone
			lineStartRel = 0
		default:
			size *= 2
			if size > maxLineWindow {
				r.lastError = msformat.NewFormatError(msformat.VariantTruncated, limit, "line exceeds maximum buffer size")
				return false, r.lastError
			}
			continue
		}

		lineStart := start + int64(lineStartRel)
		lineEnd := start + int64(lineEndRel)
		lineTermEnd := start + int64(lineEndTermRel)

		if err := r.setCurrentLine(lineStart, lineEnd, lineTermEnd, lineTerm); err != nil {
			r.lastError = err
			return false, err
		}
		r.pos = lineStart
		return true, nil
	}
}
