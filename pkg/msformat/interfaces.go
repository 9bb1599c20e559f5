package msformat

import "github.com/ChrisMcGann/msreader/pkg/msmodel"

// ProgressSink is the only progress-reporting collaborator the core
// consumes. Implementations are the caller's concern: a GUI, a log line,
// or a no-op.
type ProgressSink interface {
	SetTask(task string)
	SetPercent(percent float32)
	Aborted() bool
}

// Logger appends a single line of diagnostic text.
type Logger interface {
	Log(line string)
}

// NopProgressSink never reports and never aborts.
type NopProgressSink struct{}

func (NopProgressSink) SetTask(string)     {}
func (NopProgressSink) SetPercent(float32) {}
func (NopProgressSink) Aborted() bool      { return false }

// NopLogger discards every line.
type NopLogger struct{}

func (NopLogger) Log(string) {}

// ReadMode selects how a SpectrumSource serves spectra.
type ReadMode int

const (
	ModeSequential ReadMode = iota
	ModeCached
	ModeIndexed
)

// SpectrumSource is the common contract every format reader implements.
// The four format parsers are concrete variants; no inheritance of state
// is used, only composition.
type SpectrumSource interface {
	ReadNextSpectrum(out *msmodel.Spectrum) (bool, error)
	ReadAndCacheEntireFile() error
	GetSpectrumByIndex(idx int, out *msmodel.Spectrum) bool
	GetSpectrumByScanNumber(scanNumber int, out *msmodel.Spectrum) bool
	GetScanNumberList() []int

	ScanCount() int
	CachedSpectrumCount() int
	CachedSpectraScanNumberMin() int
	CachedSpectraScanNumberMax() int

	Close() error
	LastError() error
}

// Accessor refines SpectrumSource with index-based random access over XML
// formats.
type Accessor interface {
	SpectrumSource

	IndexedSpectrumCount() int
	GetSpectrumHeaderInfoByIndex(idx int, out *msmodel.Spectrum) bool
	GetSourceXMLByIndex(idx int) (string, bool)
	GetSourceXMLHeader(scanNumber int, rtStart, rtEnd *float64) string
	GetSourceXMLFooter() string
	ReadAndCacheEntireFileNonIndexed() error
}
