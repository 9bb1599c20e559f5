// Package mgf parses MGF (Mascot Generic Format) spectrum files: text
// blocks delimited by "BEGIN IONS"/"END IONS", a handful of recognized
// header keys, and whitespace-separated peak lines.
package mgf

import (
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msreader/pkg/bireader"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

// Reader sequentially parses an MGF stream.
type Reader struct {
	*msreader.Base

	br           *bireader.Reader
	nextSpectrum int
}

// Open opens path as an MGF file.
func Open(path string, opts msreader.Options) (*Reader, error) {
	br, err := bireader.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{Base: msreader.NewBase(opts), br: br}, nil
}

// OpenTextStream wraps in-memory MGF text.
func OpenTextStream(data []byte, opts msreader.Options) (*Reader, error) {
	br, err := bireader.OpenTextStream(data)
	if err != nil {
		return nil, err
	}
	return &Reader{Base: msreader.NewBase(opts), br: br}, nil
}

func (r *Reader) Close() error { return r.br.Close() }

// parseCharge parses MGF's "2+" / "2-" / "2" charge notation.
func parseCharge(value string) (int, bool) {
	value = strings.TrimSpace(value)
	sign := 1
	if strings.HasSuffix(value, "+") {
		value = strings.TrimSuffix(value, "+")
	} else if strings.HasSuffix(value, "-") {
		sign = -1
		value = strings.TrimSuffix(value, "-")
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return sign * n, true
}

func parsePeakLine(line string) (mz float64, intensity float32, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, false
	}
	mzVal, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	intVal, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return mzVal, float32(intVal), true
}

// ReadNextSpectrum implements msformat.SpectrumSource.
func (r *Reader) ReadNextSpectrum(out *msmodel.Spectrum) (bool, error) {
	// Skip forward to the next BEGIN IONS, ignoring blank lines and any
	// preamble between blocks.
	for {
		ok, err := r.br.ReadLine(bireader.Forward)
		if err != nil {
			return false, r.WrapIOError("mgf.ReadNextSpectrum", err)
		}
		if !ok {
			return false, nil
		}
		if strings.EqualFold(strings.TrimSpace(r.br.CurrentLine()), "BEGIN IONS") {
			break
		}
	}

	spec := msmodel.Spectrum{
		MSLevel:      2,
		SpectrumID:   r.nextSpectrum,
		SourceFormat: "mgf",
	}

	var mz []float64
	var intensity []float32
	var rtSeconds *float64

	for {
		ok, err := r.br.ReadLine(bireader.Forward)
		if err != nil {
			return false, r.WrapIOError("mgf.ReadNextSpectrum", err)
		}
		if !ok {
			return false, r.WrapIOError("mgf.ReadNextSpectrum",
				msformat.NewFormatError(msformat.VariantTruncated, r.br.FileLengthBytes(), "MGF block missing END IONS"))
		}

		line := strings.TrimSpace(r.br.CurrentLine())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "END IONS") {
			break
		}

		if key, value, ok := splitHeaderLine(line); ok {
			switch strings.ToUpper(key) {
			case "TITLE":
				// Carried only for diagnostics; no field in the common record.
			case "PEPMASS":
				fields := strings.Fields(value)
				if len(fields) >= 1 {
					if mzVal, err := strconv.ParseFloat(fields[0], 64); err == nil {
						spec.ParentIonMZ = &mzVal
					}
				}
			case "CHARGE":
				if charge, ok := parseCharge(value); ok {
					spec.ParentIonCharge = &charge
				}
			case "RTINSECONDS":
				if rt, err := strconv.ParseFloat(strings.Fields(value)[0], 64); err == nil {
					rtSeconds = &rt
				}
			case "SCANS":
				if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
					spec.ScanNumber = n
					spec.ScanNumberEnd = n
				}
			}
			continue
		}

		if v, i, ok := parsePeakLine(line); ok {
			mz = append(mz, v)
			intensity = append(intensity, i)
		}
	}

	if spec.ScanNumber == 0 {
		spec.ScanNumber = r.nextSpectrum + 1
		spec.ScanNumberEnd = spec.ScanNumber
	}
	spec.ScanCount = 1
	if rtSeconds != nil {
		rtMinutes := *rtSeconds / 60.0
		spec.RetentionTimeMinutes = &rtMinutes
	}

	spec.SetPeaks(mz, intensity)
	if err := spec.Validate(true, true); err != nil {
		return false, r.WrapIOError("mgf.ReadNextSpectrum", err)
	}

	*out = spec
	r.nextSpectrum++
	return true, nil
}

// splitHeaderLine splits "KEY=value" style MGF header lines.
func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx <= 0 {
		return "", "", false
	}
	return line[:idx], line[idx+1:], true
}

// ReadAndCacheEntireFile implements msformat.SpectrumSource.
func (r *Reader) ReadAndCacheEntireFile() error {
	for {
		if r.Aborted() {
			return r.WrapIOError("mgf.ReadAndCacheEntireFile", &msformat.AbortedError{})
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
