package models

// IndicatorSet holds the computed indicator values for one symbol.
// Indicators whose window did not fit the series are listed in Missing
// instead of carrying a fabricated value.
type IndicatorSet struct {
	Symbol  string             `json:"symbol"`
	Values  map[string]float64 `json:"values"`
	Missing []string           `json:"missing,omitempty"`
}

// Value returns (value, true) when the indicator was computed.
func (s *IndicatorSet) Value(name string) (float64, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// IsMissing reports whether the named indicator could not be computed.
func (s *IndicatorSet) IsMissing(name string) bool {
	for _, m := range s.Missing {
		if m == name {
			return true
		}
	}
	return false
}
