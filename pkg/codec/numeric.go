// Package codec decodes the base64-encoded, optionally zlib-compressed,
// big/little-endian 32/64-bit IEEE-754 peak arrays embedded in mzXML and
// mzData spectra.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/ChrisMcGann/msreader/pkg/msformat"
)

// Endianness selects the byte order a numeric array was written in.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// DecodeNumericArray trims whitespace, base64-decodes, optionally
// zlib-inflates, then reinterprets the result as a sequence of
// precision-bit IEEE-754 floats in the given endianness, widened to float64.
func DecodeNumericArray(text string, precision int, endian Endianness, zlibCompressed bool) ([]float64, error) {
	if precision != 32 && precision != 64 {
		return nil, msformat.NewFormatError(msformat.VariantMalformedPeaks, 0, "unsupported precision")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []float64{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		// Some writers omit base64 padding; retry with the raw encoding
		// before giving up.
		raw, err = base64.RawStdEncoding.DecodeString(trimmed)
		if err != nil {
			return nil, msformat.NewFormatError(msformat.VariantMalformedBase64, 0, err.Error())
		}
	}

	if zlibCompressed {
		inflated, err := inflateZlib(raw)
		if err != nil {
			return nil, msformat.NewFormatError(msformat.VariantMalformedZlib, 0, err.Error())
		}
		// Trust the length of the decoded bytes, not any declared
		// compressedLen attribute the writer may have gotten wrong.
		raw = inflated
	}

	wordSize := precision / 8
	if len(raw)%wordSize != 0 {
		return nil, msformat.NewFormatError(
			msformat.VariantMalformedPeaks, 0,
			"decoded byte length is not a multiple of the element width",
		)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if endian == BigEndian {
		order = binary.BigEndian
	}

	count := len(raw) / wordSize
	out := make([]float64, count)

	switch precision {
	case 32:
		for i := 0; i < count; i++ {
			bits := order.Uint32(raw[i*4 : i*4+4])
			out[i] = float64(math.Float32frombits(bits))
		}
	case 64:
		for i := 0; i < count; i++ {
			bits := order.Uint64(raw[i*8 : i*8+8])
			out[i] = math.Float64frombits(bits)
		}
	}

	return out, nil
}

func inflateZlib(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
