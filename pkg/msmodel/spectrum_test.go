package msmodel

import (
	"math"
	"testing"
)

func TestValidateComputesBasePeakAndTIC(t *testing.T) {
	spec := &Spectrum{
		ScanNumber:    1,
		MzList:        []float64{100.0, 200.0, 300.0},
		IntensityList: []float32{10.0, 50.0, 20.0},
	}

	if err := spec.Validate(true, true); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if spec.Status != StatusValidated {
		t.Errorf("expected Status Validated, got %v", spec.Status)
	}
	if spec.BasePeakMZ == nil || *spec.BasePeakMZ != 200.0 {
		t.Errorf("expected base peak m/z 200.0, got %v", spec.BasePeakMZ)
	}
	if spec.TotalIonCurrent == nil || *spec.TotalIonCurrent != 80.0 {
		t.Errorf("expected TIC 80.0, got %v", spec.TotalIonCurrent)
	}
	if *spec.MzRangeStart != 100.0 || *spec.MzRangeEnd != 300.0 {
		t.Errorf("expected mz range [100,300], got [%v,%v]", *spec.MzRangeStart, *spec.MzRangeEnd)
	}
}

func TestValidateBasePeakTieBreaksOnLowestMZ(t *testing.T) {
	spec := &Spectrum{
		MzList:        []float64{300.0, 100.0, 200.0},
		IntensityList: []float32{50.0, 50.0, 10.0},
	}

	if err := spec.Validate(true, false); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if *spec.BasePeakMZ != 100.0 {
		t.Errorf("expected tie to resolve to lowest m/z 100.0, got %v", *spec.BasePeakMZ)
	}
}

func TestValidateEmptySpectrum(t *testing.T) {
	spec := &Spectrum{}
	if err := spec.Validate(true, true); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if spec.BasePeakMZ != nil {
		t.Errorf("expected nil base peak for empty spectrum")
	}
	if spec.TotalIonCurrent == nil || *spec.TotalIonCurrent != 0 {
		t.Errorf("expected TIC 0 for empty spectrum")
	}
}

func TestValidateMismatchedLengths(t *testing.T) {
	spec := &Spectrum{
		MzList:        []float64{1, 2, 3},
		IntensityList: []float32{1, 2},
	}
	if err := spec.Validate(false, false); err == nil {
		t.Error("expected error for mismatched peak array lengths")
	}
}

func TestValidateFlagsNonPositiveMZAsWarning(t *testing.T) {
	spec := &Spectrum{
		MzList:        []float64{-1.0, 100.0},
		IntensityList: []float32{5, 5},
	}
	if err := spec.Validate(false, false); err != nil {
		t.Fatalf("Validate() error = %v, want nil (warnings are non-fatal)", err)
	}
	if len(spec.Warnings) == 0 {
		t.Error("expected a warning for non-positive m/z")
	}
	if spec.Status != StatusValidated {
		t.Errorf("spectrum with warnings should still validate, got status %v", spec.Status)
	}
}

func TestValidateMzDataScanNumberDefaultsToSpectrumID(t *testing.T) {
	spec := &Spectrum{
		ScanNumber: 0,
		SpectrumID: 42,
	}
	if err := spec.Validate(false, false); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if spec.ScanNumber != 42 {
		t.Errorf("expected ScanNumber to default to SpectrumID 42, got %d", spec.ScanNumber)
	}
}

func TestDeepCloneIsIndependent(t *testing.T) {
	rt := 1.5
	spec := &Spectrum{
		ScanNumber:           7,
		MzList:               []float64{1, 2, 3},
		IntensityList:        []float32{4, 5, 6},
		RetentionTimeMinutes: &rt,
		MzXML:                &MzXMLFields{ActivationMethod: "HCD"},
	}

	clone := spec.DeepClone()
	clone.MzList[0] = 999
	*clone.RetentionTimeMinutes = 999
	clone.MzXML.ActivationMethod = "CID"

	if spec.MzList[0] != 1 {
		t.Error("mutating clone's MzList affected original")
	}
	if *spec.RetentionTimeMinutes != 1.5 {
		t.Error("mutating clone's RetentionTimeMinutes affected original")
	}
	if spec.MzXML.ActivationMethod != "HCD" {
		t.Error("mutating clone's MzXML fields affected original")
	}
}

func TestSetPeaksReturnsStatusToDataDefined(t *testing.T) {
	spec := &Spectrum{MzList: []float64{1}, IntensityList: []float32{1}}
	if err := spec.Validate(false, false); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	spec.SetPeaks([]float64{2}, []float32{2})
	if spec.Status != StatusDataDefined {
		t.Errorf("expected Status DataDefined after SetPeaks, got %v", spec.Status)
	}
}

func TestPeaksCount(t *testing.T) {
	spec := &Spectrum{MzList: []float64{1, 2, 3}, IntensityList: []float32{1, 2, 3}}
	if spec.PeaksCount() != 3 {
		t.Errorf("expected PeaksCount 3, got %d", spec.PeaksCount())
	}
}

func TestPolarityString(t *testing.T) {
	tests := []struct {
		p    Polarity
		want string
	}{
		{PolarityPositive, "Positive"},
		{PolarityNegative, "Negative"},
		{PolarityUnknown, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Polarity(%d).String() = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestParentIonMZFromMH(t *testing.T) {
	mh := 1296.69
	charge := 3
	mz := ParentIonMZFromMH(mh, charge)
	want := (mh - ProtonMass) / float64(charge) + ProtonMass
	if math.Abs(mz-want) > 1e-9 {
		t.Errorf("ParentIonMZFromMH() = %v, want %v", mz, want)
	}
}
