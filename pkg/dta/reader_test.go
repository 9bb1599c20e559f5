package dta

import (
	"testing"

	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

const sample = `=====
Angiotensin.3.3.2.dta   1296.69
432.90   230000000
500.12   1000.0
600.55   50.0
=====
Angiotensin.4.4.2.dta   800.40
200.0   10.0
201.0   20.0
`

func TestReadNextSpectrumParsesHeaderAndPeaks(t *testing.T) {
	r, err := OpenTextStream([]byte(sample), msreader.Options{})
	if err != nil {
		t.Fatalf("OpenTextStream() error = %v", err)
	}
	defer r.Close()

	var s msmodel.Spectrum
	ok, err := r.ReadNextSpectrum(&s)
	if err != nil {
		t.Fatalf("ReadNextSpectrum() error = %v", err)
	}
	if !ok {
		t.Fatal("ReadNextSpectrum() = false, want true")
	}
	if s.ScanNumber != 3 || s.ScanNumberEnd != 3 {
		t.Errorf("ScanNumber/End = %d/%d, want 3/3", s.ScanNumber, s.ScanNumberEnd)
	}
	if s.MSLevel != 2 {
		t.Errorf("MSLevel = %d, want 2", s.MSLevel)
	}
	if s.PeaksCount() != 3 {
		t.Errorf("PeaksCount() = %d, want 3", s.PeaksCount())
	}
	if s.ParentIonMH == nil || *s.ParentIonMH != 1296.69 {
		t.Errorf("ParentIonMH = %v, want 1296.69", s.ParentIonMH)
	}
	if s.ParentIonCharge == nil || *s.ParentIonCharge != 2 {
		t.Errorf("ParentIonCharge = %v, want 2", s.ParentIonCharge)
	}
	if s.BasePeakMZ == nil || *s.BasePeakMZ != 432.90 {
		t.Errorf("BasePeakMZ = %v, want 432.90", s.BasePeakMZ)
	}
}

func TestReadAndCacheEntireFile(t *testing.T) {
	r, err := OpenTextStream([]byte(sample), msreader.Options{})
	if err != nil {
		t.Fatalf("OpenTextStream() error = %v", err)
	}
	defer r.Close()

	if err := r.ReadAndCacheEntireFile(); err != nil {
		t.Fatalf("ReadAndCacheEntireFile() error = %v", err)
	}
	if got := r.CachedSpectrumCount(); got != 2 {
		t.Fatalf("CachedSpectrumCount() = %d, want 2", got)
	}
	if got := r.GetScanNumberList(); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("GetScanNumberList() = %v, want [3 4]", got)
	}
}

func TestReadNextSpectrumWithoutSeparators(t *testing.T) {
	const noSep = "Sample.1.1.1.dta   500.0\n100.0 10.0\n200.0 20.0\n\nSample.2.2.1.dta   600.0\n150.0 15.0\n"
	r, err := OpenTextStream([]byte(noSep), msreader.Options{})
	if err != nil {
		t.Fatalf("OpenTextStream() error = %v", err)
	}
	defer r.Close()

	if err := r.ReadAndCacheEntireFile(); err != nil {
		t.Fatalf("ReadAndCacheEntireFile() error = %v", err)
	}
	if got := r.CachedSpectrumCount(); got != 2 {
		t.Fatalf("CachedSpectrumCount() = %d, want 2", got)
	}
}
