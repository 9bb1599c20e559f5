// Package msmodel provides the intermediate representation (IR) models and
// validation logic for mass-spectrum records shared by every format reader.
package msmodel

import (
	"fmt"
	"math"
)

// Polarity is the ion polarity of a scan.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	PolarityPositive
	PolarityNegative
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "Positive"
	case PolarityNegative:
		return "Negative"
	default:
		return "Unknown"
	}
}

// Status tracks a spectrum's validation lifecycle.
type Status int

const (
	StatusInitialized Status = iota
	StatusDataDefined
	StatusValidated
)

// Precision is the bit width of a peak array's on-disk numeric encoding.
type Precision int

const (
	Precision32 Precision = 32
	Precision64 Precision = 64
)

// Compression names the compression, if any, applied to an encoded peak array.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZlib
)

// Peak is a single (m/z, intensity) point.
type Peak struct {
	MZ        float64
	Intensity float32
}

// Spectrum is the common record every format reader produces.
// Format-specific fields are grouped into nested structs rather than
// subtyped: no inheritance of state is needed here, fields are composed,
// not inherited.
type Spectrum struct {
	ScanNumber    int
	ScanNumberEnd int
	ScanCount     int
	MSLevel       int

	RetentionTimeMinutes *float64
	MzRangeStart         *float64
	MzRangeEnd           *float64
	BasePeakMZ           *float64
	BasePeakIntensity    *float64
	TotalIonCurrent      *float64

	ParentIonMZ     *float64
	ParentIonCharge *int

	// ParentIonMH is the parent ion mass (M+H) as captured verbatim from a
	// DTA header line; ParentIonMZ is left for the consumer to derive from
	// it via ParentIonMZFromMH, not computed here.
	ParentIonMH *float64

	MzList        []float64
	IntensityList []float32

	Polarity    Polarity
	Centroided  bool
	Status      Status
	SpectrumID  int

	SourceFormat string // "mzxml", "mzdata", "mgf", "dta"

	MzXML  *MzXMLFields
	MzData *MzDataFields

	// Warnings accumulates non-fatal per-point or per-field problems found
	// while parsing or validating: invalid scan data is recorded here
	// rather than raised as an error.
	Warnings []string
}

// MzXMLFields carries mzXML-specific metadata.
type MzXMLFields struct {
	ActivationMethod  string
	SpectrumType      string // "discrete" | "continuous"
	FilterLine        string
	PeaksEndian       string // "little" | "big"
	PeaksPrecision    Precision
	PeaksCompression  Compression
}

// MzDataFields carries mzData-specific metadata.
type MzDataFields struct {
	CollisionEnergy           *float64
	CollisionEnergyUnits      string // default "Percent"
	CollisionMethod           string // default "CID"
	ScanMode                  string // default "MassScan"
	ParentIonSpectrumID       int
	ParentIonSpectrumMSLevel  int
	NumericPrecisionMZ        Precision
	NumericPrecisionIntensity Precision
	PeaksEndianMZ             string // "little" | "big"
	PeaksEndianIntensity      string // "little" | "big"
}

// PeaksCount returns the peak count, which must equal len(MzList) and
// len(IntensityList).
func (s *Spectrum) PeaksCount() int {
	return len(s.MzList)
}

// ValidationError reports a problem found by Validate that prevents the
// spectrum from being considered well-formed.
type ValidationError struct {
	ScanNumber int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("spectrum scan %d: %s", e.ScanNumber, e.Message)
}

// Validate checks cross-field consistency, fills in derived fields, and
// mutates the spectrum in place, always transitioning Status to
// StatusValidated on success.
func (s *Spectrum) Validate(computeBasePeakAndTIC, updateMzRange bool) error {
	if len(s.MzList) != len(s.IntensityList) {
		return &ValidationError{
			ScanNumber: s.ScanNumber,
			Message:    fmt.Sprintf("mz_list length %d != intensity_list length %d", len(s.MzList), len(s.IntensityList)),
		}
	}

	if len(s.MzList) == 0 {
		s.BasePeakMZ = nil
		s.BasePeakIntensity = nil
		zero := 0.0
		s.TotalIonCurrent = &zero
	} else if computeBasePeakAndTIC {
		var tic float64
		bestIdx := 0
		var bestIntensity float32 = -1
		for i, intensity := range s.IntensityList {
			tic += float64(intensity)
			if intensity > bestIntensity {
				bestIntensity = intensity
				bestIdx = i
			} else if intensity == bestIntensity && s.MzList[i] < s.MzList[bestIdx] {
				bestIdx = i
			}
		}
		s.TotalIonCurrent = &tic
		bpMZ := s.MzList[bestIdx]
		bpIntensity := float64(bestIntensity)
		s.BasePeakMZ = &bpMZ
		s.BasePeakIntensity = &bpIntensity
	}

	if len(s.MzList) > 0 && updateMzRange {
		lo, hi := s.MzList[0], s.MzList[0]
		for _, mz := range s.MzList[1:] {
			if mz < lo {
				lo = mz
			}
			if mz > hi {
				hi = mz
			}
		}
		s.MzRangeStart = &lo
		s.MzRangeEnd = &hi
	}

	// mzData spectra key their scans by spectrum ID, not scan number.
	if s.ScanNumber == 0 && s.SpectrumID != 0 {
		s.ScanNumber = s.SpectrumID
	}

	for i, mz := range s.MzList {
		if mz <= 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("peak %d has non-positive m/z %g", i, mz))
		}
		if math.IsNaN(mz) || math.IsInf(mz, 0) {
			s.Warnings = append(s.Warnings, fmt.Sprintf("peak %d has non-finite m/z", i))
		}
	}
	for i, intensity := range s.IntensityList {
		if intensity < 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("peak %d has negative intensity %g", i, intensity))
		}
	}

	s.Status = StatusValidated
	return nil
}

// touch transitions a Validated spectrum back to DataDefined: any
// subsequent mutator invalidates a prior Validate call.
func (s *Spectrum) touch() {
	if s.Status == StatusValidated {
		s.Status = StatusDataDefined
	}
}

// SetPeaks replaces the peak arrays and marks the spectrum no longer validated.
func (s *Spectrum) SetPeaks(mz []float64, intensity []float32) {
	s.MzList = mz
	s.IntensityList = intensity
	s.touch()
}

// DeepClone returns a spectrum with independently-owned peak arrays and
// nested metadata structs.
func (s *Spectrum) DeepClone() *Spectrum {
	clone := *s

	clone.MzList = append([]float64(nil), s.MzList...)
	clone.IntensityList = append([]float32(nil), s.IntensityList...)
	clone.Warnings = append([]string(nil), s.Warnings...)

	if s.MzXML != nil {
		fields := *s.MzXML
		clone.MzXML = &fields
	}
	if s.MzData != nil {
		fields := *s.MzData
		clone.MzData = &fields
		if s.MzData.CollisionEnergy != nil {
			ce := *s.MzData.CollisionEnergy
			clone.MzData.CollisionEnergy = &ce
		}
	}
	clone.RetentionTimeMinutes = clonePtr(s.RetentionTimeMinutes)
	clone.MzRangeStart = clonePtr(s.MzRangeStart)
	clone.MzRangeEnd = clonePtr(s.MzRangeEnd)
	clone.BasePeakMZ = clonePtr(s.BasePeakMZ)
	clone.BasePeakIntensity = clonePtr(s.BasePeakIntensity)
	clone.TotalIonCurrent = clonePtr(s.TotalIonCurrent)
	clone.ParentIonMZ = clonePtr(s.ParentIonMZ)
	clone.ParentIonMH = clonePtr(s.ParentIonMH)
	if s.ParentIonCharge != nil {
		charge := *s.ParentIonCharge
		clone.ParentIonCharge = &charge
	}

	return &clone
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
