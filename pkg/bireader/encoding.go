package bireader

import (
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is the byte-level encoding of the underlying stream, fixed
// for the file's lifetime once detected.
type TextEncoding int

const (
	EncodingUnknown TextEncoding = iota
	EncodingUTF8
	EncodingUTF16LE
	EncodingUTF16BE
)

// codeUnitSize is the number of bytes a single line-terminator code unit
// occupies: 1 for UTF-8 (and other 8-bit supersets), 2 for UTF-16.
func (e TextEncoding) codeUnitSize() int {
	switch e {
	case EncodingUTF16LE, EncodingUTF16BE:
		return 2
	default:
		return 1
	}
}

// detectBOM inspects up to the first 3 bytes of the stream for a byte-order
// mark: EF BB BF => UTF-8, FF FE => UTF-16LE, FE FF => UTF-16BE.
// Returns the encoding and how many leading bytes the BOM itself occupies
// (0 if none was found).
func detectBOM(head []byte) (TextEncoding, int) {
	switch {
	case len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
		return EncodingUTF8, 3
	case len(head) >= 2 && head[0] == 0xFF && head[1] == 0xFE:
		return EncodingUTF16LE, 2
	case len(head) >= 2 && head[0] == 0xFE && head[1] == 0xFF:
		return EncodingUTF16BE, 2
	default:
		return EncodingUnknown, 0
	}
}

// detectHeuristic guesses UTF-16-ness from a sample of the stream when no
// BOM is present, by counting zero bytes at even vs. odd positions: a
// strong skew toward one parity indicates UTF-16 text where every other
// byte of a Latin-range code unit is 0x00.
func detectHeuristic(sample []byte) TextEncoding {
	if len(sample) < 4 {
		return EncodingUTF8
	}

	var zerosEven, zerosOdd int
	for i, b := range sample {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			zerosEven++
		} else {
			zerosOdd++
		}
	}

	total := len(sample)
	const skewThreshold = 0.2 // at least 20% of one parity's bytes are zero

	if float64(zerosOdd) > float64(total/2)*skewThreshold && zerosOdd > zerosEven*4 {
		// High byte (odd position) mostly zero => little-endian UTF-16 of
		// mostly-ASCII text.
		return EncodingUTF16LE
	}
	if float64(zerosEven) > float64(total/2)*skewThreshold && zerosEven > zerosOdd*4 {
		return EncodingUTF16BE
	}
	return EncodingUTF8
}

// decodeLineBytes turns the raw on-disk bytes of a single line (terminator
// excluded) into a Go string, using golang.org/x/text/encoding/unicode for
// the UTF-16 cases.
func decodeLineBytes(raw []byte, enc TextEncoding) (string, error) {
	switch enc {
	case EncodingUTF16LE:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case EncodingUTF16BE:
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return string(raw), nil
	}
}
