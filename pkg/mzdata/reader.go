// Package mzdata implements the mzData streaming reader: a walker over
// <spectrumList>/<spectrum id="N">, reading metadata from cvParam
// name/value pairs and decoding the two parallel binary arrays
// via pkg/codec.
package mzdata

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

// Reader sequentially parses an mzData stream.
type Reader struct {
	*msreader.Base

	dec    *xml.Decoder
	closer io.Closer

	nextSpectrum int
	done         bool
}

// Open opens path as an mzData file.
func Open(path string, opts msreader.Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, msformat.NewIOError("mzdata.Open", err)
	}
	return &Reader{Base: msreader.NewBase(opts), dec: xml.NewDecoder(f), closer: f}, nil
}

// OpenTextStream wraps in-memory mzData text (or an extracted <spectrum>
// fragment, as produced by the accessor layer).
func OpenTextStream(data []byte, opts msreader.Options) (*Reader, error) {
	return &Reader{Base: msreader.NewBase(opts), dec: xml.NewDecoder(strings.NewReader(string(data)))}, nil
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

// cvParam is a single <cvParam name="..." value="..."/> entry.
type cvParam struct {
	name  string
	value string
}

func readCvParamAttrs(attrs []xml.Attr) cvParam {
	name, _ := attrValue(attrs, "name")
	value, _ := attrValue(attrs, "value")
	return cvParam{name: name, value: value}
}

func parseFloatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// applyCvParam dispatches a cvParam to the spectrum field it names,
// scoped by which container element it was found under.
func applyCvParam(s *msmodel.Spectrum, context string, p cvParam) {
	switch context {
	case "spectrumInstrument":
		switch p.name {
		case "msLevel":
			if n, err := strconv.Atoi(p.value); err == nil {
				s.MSLevel = n
			}
		case "mzRangeStart":
			s.MzRangeStart = parseFloatPtr(p.value)
		case "mzRangeStop":
			s.MzRangeEnd = parseFloatPtr(p.value)
		case "TimeInMinutes":
			s.RetentionTimeMinutes = parseFloatPtr(p.value)
		case "TimeInSeconds":
			if v := parseFloatPtr(p.value); v != nil {
				minutes := *v / 60.0
				s.RetentionTimeMinutes = &minutes
			}
		case "Polarity":
			switch strings.ToLower(p.value) {
			case "positive", "+":
				s.Polarity = msmodel.PolarityPositive
			case "negative", "-":
				s.Polarity = msmodel.PolarityNegative
			}
		case "ScanMode":
			s.MzData.ScanMode = p.value
		case "ScanNumber":
			if n, err := strconv.Atoi(p.value); err == nil {
				s.ScanNumber = n
				s.ScanNumberEnd = n
			}
		}
	case "ionSelection":
		switch p.name {
		case "MassToChargeRatio":
			s.ParentIonMZ = parseFloatPtr(p.value)
		case "ChargeState":
			if n, err := strconv.Atoi(p.value); err == nil {
				s.ParentIonCharge = &n
			}
		}
	case "activation":
		switch p.name {
		case "CollisionEnergy":
			s.MzData.CollisionEnergy = parseFloatPtr(p.value)
		case "CollisionEnergyUnits":
			s.MzData.CollisionEnergyUnits = p.value
		case "Method":
			s.MzData.CollisionMethod = p.value
		}
	}
}

func newSpectrum(id int) msmodel.Spectrum {
	s := msmodel.Spectrum{
		SourceFormat:  "mzdata",
		SpectrumID:    id,
		ScanNumber:    id,
		ScanNumberEnd: id,
		ScanCount:     1,
		MSLevel:       1,
	}
	s.MzData = &msmodel.MzDataFields{
		CollisionEnergyUnits: "Percent",
		CollisionMethod:      "CID",
		ScanMode:             "MassScan",
	}
	return s
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

func (r *Reader) readBinaryArray(attrs []xml.Attr) ([]float64, error) {
	// <data precision=".." endian=".." length="..">base64</data> is the
	// only child we expect inside *ArrayBinary.
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "data" {
				precision := 32
				if p, ok := attrInt(t.Attr, "precision"); ok {
					precision = p
				}
				endian := codec.LittleEndian
				if v, ok := attrValue(t.Attr, "endian"); ok && v == "big" {
					endian = codec.BigEndian
				}
				text, err := r.readCharData("data")
				if err != nil {
					return nil, err
				}
				return codec.DecodeNumericArray(text, precision, endian, false)
			}
		case xml.EndElement:
			if t.Name.Local == "mzArrayBinary" || t.Name.Local == "intenArrayBinary" {
				return nil, nil
			}
		}
	}
}

// ReadNextSpectrum implements msformat.SpectrumSource.
func (r *Reader) ReadNextSpectrum(out *msmodel.Spectrum) (bool, error) {
	if r.done {
		return false, nil
	}

	var spec *msmodel.Spectrum
	var context []string
	var mzValues, intensityValues []float64

	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			r.done = true
			return false, nil
		}
		if err != nil {
			return false, r.WrapIOError("mzdata.ReadNextSpectrum",
				msformat.NewFormatError(msformat.VariantMalformedXML, r.dec.InputOffset(), err.Error()))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "spectrum":
				id, _ := attrInt(t.Attr, "id")
				s := newSpectrum(id)
				spec = &s
			case "spectrumInstrument", "ionSelection", "activation":
				// The msLevel attribute is read first; a later msLevel
				// cvParam inside the element overrides it.
				if t.Name.Local == "spectrumInstrument" && spec != nil {
					if level, ok := attrInt(t.Attr, "msLevel"); ok {
						spec.MSLevel = level
					}
				}
				context = append(context, t.Name.Local)
			case "precursor":
				if spec == nil {
					continue
				}
				if ref, ok := attrInt(t.Attr, "spectrumRef"); ok {
					spec.MzData.ParentIonSpectrumID = ref
				}
				if level, ok := attrInt(t.Attr, "msLevel"); ok {
					spec.MzData.ParentIonSpectrumMSLevel = level
				}
			case "cvParam":
				if spec == nil || len(context) == 0 {
					continue
				}
				p := readCvParamAttrs(t.Attr)
				applyCvParam(spec, context[len(context)-1], p)
			case "mzArrayBinary":
				values, err := r.readBinaryArray(t.Attr)
				if err != nil {
					return false, r.WrapIOError("mzdata.ReadNextSpectrum", err)
				}
				mzValues = values
			case "intenArrayBinary":
				values, err := r.readBinaryArray(t.Attr)
				if err != nil {
					return false, r.WrapIOError("mzdata.ReadNextSpectrum", err)
				}
				intensityValues = values
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "spectrumInstrument", "ionSelection", "activation":
				if len(context) > 0 {
					context = context[:len(context)-1]
				}
			case "spectrum":
				if spec == nil {
					continue
				}
				intensity32 := make([]float32, len(intensityValues))
				for i, v := range intensityValues {
					intensity32[i] = float32(v)
				}
				spec.SetPeaks(mzValues, intensity32)
				if err := spec.Validate(true, true); err != nil {
					return false, r.WrapIOError("mzdata.ReadNextSpectrum", err)
				}
				r.nextSpectrum++
				*out = *spec
				return true, nil
			}
		}
	}
}

// ReadAndCacheEntireFile implements msformat.SpectrumSource.
func (r *Reader) ReadAndCacheEntireFile() error {
	for {
		if r.Aborted() {
			return r.WrapIOError("mzdata.ReadAndCacheEntireFile", &msformat.AbortedError{})
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
