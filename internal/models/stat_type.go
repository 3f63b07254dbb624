package models

import "fmt"

// StatType identifies which box-score statistic a prediction or line refers to
type StatType string

const (
	StatTypePoints   StatType = "points"
	StatTypeRebounds StatType = "rebounds"
	StatTypeAssists  StatType = "assists"
	StatTypeThrees   StatType = "threes"
)

// AllStatTypes lists every supported statistic in display order
func AllStatTypes() []StatType {
	return []StatType{StatTypePoints, StatTypeRebounds, StatTypeAssists, StatTypeThrees}
}

// Valid reports whether the stat type is one of the supported values
func (s StatType) Valid() bool {
	switch s {
	case StatTypePoints, StatTypeRebounds, StatTypeAssists, StatTypeThrees:
		return true
	}
	return false
}

// String returns the lowercase wire form of the stat type
func (s StatType) String() string {
	return string(s)
}

// ParseStatType converts a string into a StatType
func ParseStatType(s string) (StatType, error) {
	st := StatType(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown stat type %q", s)
	}
	return st, nil
}
