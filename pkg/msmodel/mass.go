package msmodel

import "math"

// ProtonMass is the mass of a proton in daltons, used to convert between a
// DTA parent ion MH and an m/z at a given charge. The conversion itself is
// a consumer responsibility, not computed while parsing, so this constant
// is exported for callers that want to perform it without hand-copying
// the value.
const ProtonMass = 1.00727649

// ParentIonMZFromMH converts a parent ion MH (as captured from a DTA header)
// to m/z for a given charge state.
func ParentIonMZFromMH(mh float64, charge int) float64 {
	return (mh-ProtonMass)/float64(charge) + ProtonMass
}

// RoundFloat rounds a float to n decimal places.
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
