package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func encodeFloat64LE(t *testing.T, values []float64) string {
	t.Helper()
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func encodeFloat32BE(t *testing.T, values []float32) string {
	t.Helper()
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func encodeZlibFloat64LE(t *testing.T, values []float64) string {
	t.Helper()
	raw := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return base64.StdEncoding.EncodeToString(compressed.Bytes())
}

func TestDecodeNumericArrayFloat64LittleEndian(t *testing.T) {
	want := []float64{100.5, 200.25, 300.125}
	text := encodeFloat64LE(t, want)

	got, err := DecodeNumericArray(text, 64, LittleEndian, false)
	if err != nil {
		t.Fatalf("DecodeNumericArray() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeNumericArrayFloat32BigEndian(t *testing.T) {
	want := []float32{1.5, 2.25, 3.125}
	text := encodeFloat32BE(t, want)

	got, err := DecodeNumericArray(text, 32, BigEndian, false)
	if err != nil {
		t.Fatalf("DecodeNumericArray() error = %v", err)
	}
	for i := range want {
		if float32(got[i]) != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeNumericArrayZlibCompressed(t *testing.T) {
	want := []float64{1.0, 2.0, 3.0, 4.0}
	text := encodeZlibFloat64LE(t, want)

	got, err := DecodeNumericArray(text, 64, LittleEndian, true)
	if err != nil {
		t.Fatalf("DecodeNumericArray() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeNumericArrayEmptyText(t *testing.T) {
	got, err := DecodeNumericArray("   ", 64, LittleEndian, false)
	if err != nil {
		t.Fatalf("DecodeNumericArray() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty array, got %d values", len(got))
	}
}

func TestDecodeNumericArrayMisalignedLength(t *testing.T) {
	// 3 bytes cannot be evenly divided into 4-byte (32-bit) words.
	text := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	if _, err := DecodeNumericArray(text, 32, LittleEndian, false); err == nil {
		t.Error("expected error for misaligned byte length")
	}
}

func TestDecodeNumericArrayInvalidBase64(t *testing.T) {
	if _, err := DecodeNumericArray("not-valid-base64!!!", 64, LittleEndian, false); err == nil {
		t.Error("expected error for invalid base64 input")
	}
}

func TestSplitInterleavedPairs(t *testing.T) {
	mz, intensity := SplitInterleavedPairs([]float64{100.0, 10.0, 200.0, 20.0})
	if len(mz) != 2 || len(intensity) != 2 {
		t.Fatalf("expected 2 pairs, got mz=%d intensity=%d", len(mz), len(intensity))
	}
	if mz[0] != 100.0 || intensity[0] != 10.0 {
		t.Errorf("pair 0 = (%v, %v), want (100.0, 10.0)", mz[0], intensity[0])
	}
	if mz[1] != 200.0 || intensity[1] != 20.0 {
		t.Errorf("pair 1 = (%v, %v), want (200.0, 20.0)", mz[1], intensity[1])
	}
}
