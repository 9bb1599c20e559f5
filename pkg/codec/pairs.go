package codec

// SplitInterleavedPairs splits a flat (mz, intensity, mz, intensity, ...)
// sequence, as produced by mzXML's <peaks> element, into separate mz and
// intensity slices.
func SplitInterleavedPairs(values []float64) (mz []float64, intensity []float32) {
	n := len(values) / 2
	mz = make([]float64, n)
	intensity = make([]float32, n)
	for i := 0; i < n; i++ {
		mz[i] = values[i*2]
		intensity[i] = float32(values[i*2+1])
	}
	return mz, intensity
}
