package mzdata

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"strconv"
	"testing"

	"github.com/ChrisMcGann/msreader/pkg/msmodel"
	"github.com/ChrisMcGann/msreader/pkg/msreader"
)

func encodeFloat64LE(t *testing.T, values []float64) string {
	t.Helper()
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func TestReadNextSpectrumParsesCvParamsAndArrays(t *testing.T) {
	mz := encodeFloat64LE(t, []float64{661.65, 700.0})
	intensity := encodeFloat64LE(t, []float64{100.0, 50.0})

	doc := `<mzData>
<spectrumList>
<spectrum id="141">
<spectrumDesc>
<spectrumSettings>
<spectrumInstrument msLevel="2">
<cvParam name="TimeInMinutes" value="3.80"/>
<cvParam name="Polarity" value="Positive"/>
</spectrumInstrument>
</spectrumSettings>
<precursorList count="1">
<precursor msLevel="1" spectrumRef="139">
<ionSelection>
<cvParam name="MassToChargeRatio" value="661.65"/>
</ionSelection>
<activation>
<cvParam name="CollisionEnergy" value="28"/>
</activation>
</precursor>
</precursorList>
</spectrumDesc>
<mzArrayBinary>
<data precision="64" endian="little" length="2">` + mz + `</data>
</mzArrayBinary>
<intenArrayBinary>
<data precision="64" endian="little" length="2">` + intensity + `</data>
</intenArrayBinary>
</spectrum>
</spectrumList>
</mzData>`

	r, err := OpenTextStream([]byte(doc), msreader.Options{})
	if err != nil {
		t.Fatalf("OpenTextStream() error = %v", err)
	}

	var s msmodel.Spectrum
	ok, err := r.ReadNextSpectrum(&s)
	if err != nil {
		t.Fatalf("ReadNextSpectrum() error = %v", err)
	}
	if !ok {
		t.Fatal("ReadNextSpectrum() = false, want true")
	}

	if s.SpectrumID != 141 || s.ScanNumber != 141 {
		t.Errorf("SpectrumID/ScanNumber = %d/%d, want 141/141", s.SpectrumID, s.ScanNumber)
	}
	if s.MSLevel != 2 {
		t.Errorf("MSLevel = %d, want 2", s.MSLevel)
	}
	if s.RetentionTimeMinutes == nil || *s.RetentionTimeMinutes != 3.80 {
		t.Errorf("RetentionTimeMinutes = %v, want 3.80", s.RetentionTimeMinutes)
	}
	if s.Polarity != msmodel.PolarityPositive {
		t.Errorf("Polarity = %v, want Positive", s.Polarity)
	}
	if s.ParentIonMZ == nil || *s.ParentIonMZ != 661.65 {
		t.Errorf("ParentIonMZ = %v, want 661.65", s.ParentIonMZ)
	}
	if s.MzData == nil || s.MzData.CollisionEnergy == nil || *s.MzData.CollisionEnergy != 28 {
		t.Errorf("CollisionEnergy = %v", s.MzData)
	}
	if s.MzData.CollisionEnergyUnits != "Percent" {
		t.Errorf("CollisionEnergyUnits = %q, want default Percent", s.MzData.CollisionEnergyUnits)
	}
	if s.MzData.ParentIonSpectrumID != 139 {
		t.Errorf("ParentIonSpectrumID = %d, want 139", s.MzData.ParentIonSpectrumID)
	}
	if s.MzData.ParentIonSpectrumMSLevel != 1 {
		t.Errorf("ParentIonSpectrumMSLevel = %d, want 1", s.MzData.ParentIonSpectrumMSLevel)
	}
	if s.PeaksCount() != 2 {
		t.Fatalf("PeaksCount() = %d, want 2", s.PeaksCount())
	}
	if s.MzList[0] != 661.65 {
		t.Errorf("MzList[0] = %v, want 661.65", s.MzList[0])
	}
}

func TestReadAndCacheEntireFileMultipleSpectra(t *testing.T) {
	arr := encodeFloat64LE(t, []float64{1.0})
	block := func(id int) string {
		return `<spectrum id="` + strconv.Itoa(id) + `">
<mzArrayBinary><data precision="64" endian="little">` + arr + `</data></mzArrayBinary>
<intenArrayBinary><data precision="64" endian="little">` + arr + `</data></intenArrayBinary>
</spectrum>`
	}
	doc := `<mzData><spectrumList>` + block(1) + block(2) + block(3) + `</spectrumList></mzData>`

	r, err := OpenTextStream([]byte(doc), msreader.Options{})
	if err != nil {
		t.Fatalf("OpenTextStream() error = %v", err)
	}
	if err := r.ReadAndCacheEntireFile(); err != nil {
		t.Fatalf("ReadAndCacheEntireFile() error = %v", err)
	}
	if got := r.CachedSpectrumCount(); got != 3 {
		t.Fatalf("CachedSpectrumCount() = %d, want 3", got)
	}
}
