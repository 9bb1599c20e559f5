// Package dta parses concatenated-DTA spectrum files: a plain-text stream
// of `=====`-separated blocks, each a single header line followed by
// whitespace-separated `m/z intensity` pairs.
package dta

import (
	"strconv"
	"strings"

	"github.com/ChrisMcGann/msreader/pkg/bireader"
	"github.com/ChrisMcGann/msreader/pkg/msformat"
	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

// Reader sequentially parses a concatenated-DTA stream.
type Reader struct {
	*msreader.Base

	br           *bireader.Reader
	nextSpectrum int
	pendingLine  string
	havePending  bool
	eof          bool
}

// Open opens path as a concatenated-DTA file.
func Open(path string, opts msreader.Options) (*Reader, error) {
	br, err := bireader.Open(path)
	if err != nil {
		return nil, err
	}
	return newReader(br, opts), nil
}

// OpenTextStream wraps in-memory DTA text.
func OpenTextStream(data []byte, opts msreader.Options) (*Reader, error) {
	br, err := bireader.OpenTextStream(data)
	if err != nil {
		return nil, err
	}
	return newReader(br, opts), nil
}

func newReader(br *bireader.Reader, opts msreader.Options) *Reader {
	return &Reader{
		Base: msreader.NewBase(opts),
		br:   br,
	}
}

func (r *Reader) Close() error { return r.br.Close() }

func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 5 && strings.Count(trimmed, "=") == len(trimmed)
}

// nextNonBlankLine returns the next non-blank line (or the pushed-back
// one), skipping separator lines, which carry no information beyond
// marking a block boundary. The bool is false once no line is left.
func (r *Reader) nextNonBlankLine() (string, bool) {
	if r.havePending {
		r.havePending = false
		return r.pendingLine, true
	}
	for {
		ok, err := r.br.ReadLine(bireader.Forward)
		if err != nil {
			r.eof = true
			return "", false
		}
		if !ok {
			r.eof = true
			return "", false
		}
		line := r.br.CurrentLine()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isSeparator(line) {
			continue
		}
		return line, true
	}
}

func (r *Reader) pushBack(line string) {
	r.pendingLine = line
	r.havePending = true
}

// parseHeader parses "<Base>.<StartScan>.<EndScan>.<Charge>.dta   <ParentMH>".
func parseHeader(line string) (base string, startScan, endScan, charge int, parentMH float64, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		err = msformat.NewFormatError(msformat.VariantMalformedHeader, 0, "dta header missing parent mass field")
		return
	}

	parentMH, perr := strconv.ParseFloat(fields[1], 64)
	if perr != nil {
		err = msformat.NewFormatError(msformat.VariantMalformedHeader, 0, "dta header parent mass is not numeric")
		return
	}

	parts := strings.Split(fields[0], ".")
	if len(parts) < 5 {
		err = msformat.NewFormatError(msformat.VariantMalformedHeader, 0, "dta header name does not match Base.Start.End.Charge.dta")
		return
	}

	base = strings.Join(parts[:len(parts)-4], ".")
	startScan, e1 := strconv.Atoi(parts[len(parts)-4])
	endScan, e2 := strconv.Atoi(parts[len(parts)-3])
	charge, e3 := strconv.Atoi(parts[len(parts)-2])
	if e1 != nil || e2 != nil || e3 != nil {
		err = msformat.NewFormatError(msformat.VariantMalformedHeader, 0, "dta header scan/charge fields are not numeric")
		return
	}
	return base, startScan, endScan, charge, parentMH, nil
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
	headerLine, ok := r.nextNonBlankLine()
	if !ok {
		return false, nil
	}

	base, startScan, endScan, charge, parentMH, err := parseHeader(headerLine)
	if err != nil {
		return false, r.WrapIOError("dta.ReadNextSpectrum", err)
	}

	var mz []float64
	var intensity []float32
	for {
		line, ok := r.nextNonBlankLine()
		if !ok {
			break
		}
		if isSeparator(line) {
			continue
		}
		v, i, ok := parsePeakLine(line)
		if !ok {
			// Not a peak pair: this is the next spectrum's header line.
			r.pushBack(line)
			break
		}
		mz = append(mz, v)
		intensity = append(intensity, i)
	}

	spec := msmodel.Spectrum{
		ScanNumber:    startScan,
		ScanNumberEnd: endScan,
		MSLevel:       2,
		SpectrumID:    r.nextSpectrum,
		SourceFormat:  "dta",
	}
	if endScan > startScan {
		spec.ScanCount = endScan - startScan + 1
	} else {
		spec.ScanCount = 1
	}
	spec.ParentIonMH = &parentMH
	if charge != 0 {
		spec.ParentIonCharge = &charge
	}
	_ = base // retained for header fidelity; not part of the common record
	spec.SetPeaks(mz, intensity)

	if err := spec.Validate(true, true); err != nil {
		return false, r.WrapIOError("dta.ReadNextSpectrum", err)
	}

	*out = spec
	r.nextSpectrum++
	return true, nil
}

// ReadAndCacheEntireFile implements msformat.SpectrumSource.
func (r *Reader) ReadAndCacheEntireFile() error {
	for {
		if r.Aborted() {
			return r.WrapIOError("dta.ReadAndCacheEntireFile", &msformat.AbortedError{})
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
