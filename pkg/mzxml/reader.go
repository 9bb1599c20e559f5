// Package mzxml implements the mzXML streaming reader: an element-level
// walker over <msRun>/<scan>, decoding base64/zlib peak arrays via
// pkg/codec and handling arbitrarily nested MSn scans.
package mzxml

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msreader/pkg/codec"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

// scanFrame is a partially-built spectrum still open on the nesting stack.
type scanFrame struct {
	spec      msmodel.Spectrum
	peaksSeen bool
}

// Reader sequentially parses an mzXML stream.
type Reader struct {
	*msreader.Base

	dec    *xml.Decoder
	closer io.Closer

	stack        []*scanFrame
	pending      []msmodel.Spectrum
	nextSpectrum int
	done         bool
}

// Open opens path as an mzXML file.
func Open(path string, opts msreader.Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, msformat.NewIOError("mzxml.Open", err)
	}
	return &Reader{
		Base:   msreader.NewBase(opts),
		dec:    xml.NewDecoder(f),
		closer: f,
	}, nil
}

// OpenTextStream wraps in-memory mzXML text (or an already-extracted
// <scan> fragment, as produced by the accessor layer).
func OpenTextStream(data []byte, opts msreader.Options) (*Reader, error) {
	return &Reader{
		Base: msreader.NewBase(opts),
		dec:  xml.NewDecoder(strings.NewReader(string(data))),
	}, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func attrFloat(attrs []xml.Attr, name string) *float64 {
	v, ok := attrValue(attrs, name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func attrInt(attrs []xml.Attr, name string) (int, bool) {
	v, ok := attrValue(attrs, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseISO8601Seconds parses mzXML's "PT<seconds>S" retention-time
// duration format into a plain float number of seconds.
func parseISO8601Seconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "PT") || !strings.HasSuffix(s, "S") {
		return 0, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "PT"), "S")
	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Reader) startScan(attrs []xml.Attr) *scanFrame {
	frame := &scanFrame{}
	s := &frame.spec
	s.SourceFormat = "mzxml"
	s.SpectrumID = r.nextSpectrum
	s.ScanCount = 1
	s.MzXML = &msmodel.MzXMLFields{}

	if n, ok := attrInt(attrs, "num"); ok {
		s.ScanNumber = n
		s.ScanNumberEnd = n
	}
	if n, ok := attrInt(attrs, "msLevel"); ok {
		s.MSLevel = n
	} else {
		s.MSLevel = 1
	}
	if rt, ok := attrValue(attrs, "retentionTime"); ok {
		if seconds, ok := parseISO8601Seconds(rt); ok {
			minutes := seconds / 60.0
			s.RetentionTimeMinutes = &minutes
		}
	}
	if v := attrFloat(attrs, "lowMz"); v != nil {
		s.MzRangeStart = v
	} else if v := attrFloat(attrs, "startMz"); v != nil {
		s.MzRangeStart = v
	}
	if v := attrFloat(attrs, "highMz"); v != nil {
		s.MzRangeEnd = v
	} else if v := attrFloat(attrs, "endMz"); v != nil {
		s.MzRangeEnd = v
	}
	s.TotalIonCurrent = attrFloat(attrs, "totIonCurrent")
	s.BasePeakMZ = attrFloat(attrs, "basePeakMz")
	s.BasePeakIntensity = attrFloat(attrs, "basePeakIntensity")

	if p, ok := attrValue(attrs, "polarity"); ok {
		switch p {
		case "+":
			s.Polarity = msmodel.PolarityPositive
		case "-":
			s.Polarity = msmodel.PolarityNegative
		}
	}
	if c, ok := attrInt(attrs, "centroided"); ok {
		s.Centroided = c != 0
	}
	s.MzXML.ActivationMethod, _ = attrValue(attrs, "activationMethod")
	s.MzXML.FilterLine, _ = attrValue(attrs, "filterLine")

	r.nextSpectrum++
	return frame
}

func (r *Reader) readCharData(stopOn string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := r.dec.Token()
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

func (r *Reader) handlePrecursorMz(attrs []xml.Attr) error {
	text, err := r.readCharData("precursorMz")
	if err != nil {
		return err
	}
	if len(r.stack) == 0 {
		return nil
	}
	top := r.stack[len(r.stack)-1]
	if mz, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		top.spec.ParentIonMZ = &mz
	}
	if c, ok := attrInt(attrs, "precursorCharge"); ok {
		top.spec.ParentIonCharge = &c
	}
	return nil
}

func (r *Reader) handlePeaks(attrs []xml.Attr) error {
	text, err := r.readCharData("peaks")
	if err != nil {
		return err
	}
	if len(r.stack) == 0 {
		return nil
	}
	top := r.stack[len(r.stack)-1]

	precision := 32
	if p, ok := attrInt(attrs, "precision"); ok {
		precision = p
	}
	endian := codec.LittleEndian
	if order, ok := attrValue(attrs, "byteOrder"); ok && order == "network" {
		endian = codec.BigEndian
	}
	zlibCompressed := false
	if ct, ok := attrValue(attrs, "compressionType"); ok && ct == "zlib" {
		zlibCompressed = true
	}

	values, err := codec.DecodeNumericArray(text, precision, endian, zlibCompressed)
	if err != nil {
		top.spec.Warnings = append(top.spec.Warnings, "peaks decode failed: "+err.Error())
		return nil
	}
	mz, intensity := codec.SplitInterleavedPairs(values)
	top.spec.SetPeaks(mz, intensity)
	top.peaksSeen = true

	top.spec.MzXML.PeaksPrecision = msmodel.Precision(precision)
	if endian == codec.BigEndian {
		top.spec.MzXML.PeaksEndian = "big"
	} else {
		top.spec.MzXML.PeaksEndian = "little"
	}
	if zlibCompressed {
		top.spec.MzXML.PeaksCompression = msmodel.CompressionZlib
	}
	return nil
}

func (r *Reader) finalize(frame *scanFrame) (msmodel.Spectrum, error) {
	if err := frame.spec.Validate(true, true); err != nil {
		return msmodel.Spectrum{}, err
	}
	return frame.spec, nil
}

// ReadNextSpectrum implements msformat.SpectrumSource. It walks the mzXML
// token stream, maintaining a stack of open <scan> frames. A scan is
// yielded at its close tag, except that an outer scan whose peaks have
// already been read is yielded as soon as a nested scan opens.
func (r *Reader) ReadNextSpectrum(out *msmodel.Spectrum) (bool, error) {
	if len(r.pending) > 0 {
		*out = r.pending[0]
		r.pending = r.pending[1:]
		return true, nil
	}
	if r.done {
		return false, nil
	}

	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return false, r.WrapIOError("mzxml.ReadNextSpectrum",
				msformat.NewFormatError(msformat.VariantMalformedXML, r.dec.InputOffset(), err.Error()))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "scan":
				if len(r.stack) > 0 {
					outer := r.stack[len(r.stack)-1]
					if outer.peaksSeen {
						spec, verr := r.finalize(outer)
						if verr != nil {
							return false, r.WrapIOError("mzxml.ReadNextSpectrum", verr)
						}
						r.pending = append(r.pending, spec)
						r.stack = r.stack[:len(r.stack)-1]
					}
				}
				r.stack = append(r.stack, r.startScan(t.Attr))
			case "precursorMz":
				if err := r.handlePrecursorMz(t.Attr); err != nil {
					return false, r.WrapIOError("mzxml.ReadNextSpectrum", err)
				}
			case "peaks":
				if err := r.handlePeaks(t.Attr); err != nil {
					return false, r.WrapIOError("mzxml.ReadNextSpectrum", err)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "scan" && len(r.stack) > 0 {
				frame := r.stack[len(r.stack)-1]
				r.stack = r.stack[:len(r.stack)-1]
				spec, verr := r.finalize(frame)
				if verr != nil {
					return false, r.WrapIOError("mzxml.ReadNextSpectrum", verr)
				}
				r.pending = append(r.pending, spec)
			}
		}

		if len(r.pending) > 0 {
			break
		}
	}

	if len(r.pending) == 0 {
		return false, nil
	}
	*out = r.pending[0]
	r.pending = r.pending[1:]
	return true, nil
}

// ReadAndCacheEntireFile implements msformat.SpectrumSource.
func (r *Reader) ReadAndCacheEntireFile() error {
	for {
		if r.Aborted() {
			return r.WrapIOError("mzxml.ReadAndCacheEntireFile", &msformat.AbortedError{})
		}
		var s msmodel.Spectrum
		ok, err := r.ReadNextSpectrum(&s)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		r.CacheSpectrum(s)
	}
}

var _ msformat.SpectrumSource = (*Reader)(nil)
