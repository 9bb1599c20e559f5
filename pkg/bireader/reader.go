// Package bireader implements a bidirectional, byte-offset-addressable text
// line reader. The line-oriented format parsers (dta, mgf) read through
// it moving forward. The XML parsers (mzxml, mzdata) and the indexed
// accessors do not use it: they work on an xml.Decoder or on the file's
// bytes held in memory.
package bireader

import (
	"bytes"
	"io"
	"os"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
)

// Direction selects which way ReadLine advances the cursor.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Terminator identifies how the current line ended on disk.
type Terminator int

const (
	TerminatorNone Terminator = iota
	TerminatorLF
	TerminatorCR
	TerminatorCRLF
)

const (
	defaultWindowSize = 64 * 1024
	sniffSize         = 4096
)

// Reader is a bidirectional line reader over an io.ReaderAt. It keeps a
// single sliding window of the underlying bytes in memory; lines are
// decoded from that window on demand and never held beyond the caller's
// current line.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	length int64

	encoding   TextEncoding
	bomLen     int64
	windowSize int

	window      []byte
	windowStart int64

	pos int64 // logical cursor: byte offset of the next line's first code unit

	currentLineStart      int64
	currentLineEnd        int64 // offset just past the line's content, before terminator
	currentLineTermEnd    int64 // offset just past the terminator
	currentLineTerminator Terminator
	currentLineRaw        []byte
	currentLineText       string
	haveLine              bool

	lastError error
}

// Open opens path and detects its text encoding from a BOM or, failing
// that, a heuristic sample of the first few KiB.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, msformat.NewIOError("bireader.Open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, msformat.NewIOError("bireader.Open", err)
	}
	r, err := newReader(f, f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// OpenTextStream wraps an in-memory byte slice as a bireader.Reader.
func OpenTextStream(data []byte) (*Reader, error) {
	return newReader(bytes.NewReader(data), nil, int64(len(data)))
}

func newReader(src io.ReaderAt, closer io.Closer, length int64) (*Reader, error) {
	r := &Reader{
		src:        src,
		closer:     closer,
		length:     length,
		windowSize: defaultWindowSize,
	}

	head := make([]byte, minInt64(sniffSize, length))
	if len(head) > 0 {
		if _, err := src.ReadAt(head, 0); err != nil && err != io.EOF {
			return nil, msformat.NewIOError("bireader.sniff", err)
		}
	}

	enc, bomLen := detectBOM(head)
	if enc == EncodingUnknown {
		enc = detectHeuristic(head)
	}
	r.encoding = enc
	r.bomLen = int64(bomLen)
	r.pos = r.bomLen

	return r, nil
}

// Close releases the underlying file, if Open (not OpenTextStream) was used.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// FileLengthBytes returns the total byte length of the underlying stream.
func (r *Reader) FileLengthBytes() int64 { return r.length }

// Encoding returns the detected text encoding.
func (r *Reader) Encoding() TextEncoding { return r.encoding }

// LastError returns the most recent I/O error, or nil.
func (r *Reader) LastError() error { return r.lastError }

// MoveToBeginning positions the cursor just after any byte-order mark.
func (r *Reader) MoveToBeginning() {
	r.pos = r.bomLen
	r.haveLine = false
}

// MoveToEnd positions the cursor at end-of-stream.
func (r *Reader) MoveToEnd() {
	r.pos = r.length
	r.haveLine = false
}

// MoveToByteOffset positions the cursor at an arbitrary byte offset. The
// offset need not fall on a line boundary: a subsequent ReadLine(Forward)
// reads from offset to the next terminator, and ReadLine(Reverse) reads
// from the start of the line offset falls within back to offset.
func (r *Reader) MoveToByteOffset(offset int64) error {
	if offset < 0 || offset > r.length {
		return msformat.NewFormatError(msformat.VariantTruncated, offset, "byte offset out of range")
	}
	r.pos = offset
	r.haveLine = false
	return nil
}

// CurrentLineByteOffsetStart is the offset of the first content byte of
// the line last returned by ReadLine.
func (r *Reader) CurrentLineByteOffsetStart() int64 { return r.currentLineStart }

// CurrentLineByteOffsetEnd is the offset just past the terminator (or just
// past the content, if the line has no terminator) of the line last
// returned by ReadLine. This is also the offset ReadLine(Forward) will
// resume from.
func (r *Reader) CurrentLineByteOffsetEnd() int64 { return r.currentLineTermEnd }

// CurrentLineTerminator reports how the current line ended on disk.
func (r *Reader) CurrentLineTerminator() Terminator { return r.currentLineTerminator }

// CurrentLine returns the decoded text of the line last returned by
// ReadLine, terminator excluded.
func (r *Reader) CurrentLine() string { return r.currentLineText }

// CurrentLineTextBytes returns the raw on-disk bytes of the current line,
// terminator excluded, before encoding decode.
func (r *Reader) CurrentLineTextBytes() []byte { return r.currentLineRaw }

// HasCurrentLine reports whether a current line is available. A
// successful ReadLine sets it; a Move* call, or a ReadLine that finds no
// further line, clears it.
func (r *Reader) HasCurrentLine() bool { return r.haveLine }

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
