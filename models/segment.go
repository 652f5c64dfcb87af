package models

import (
	"strings"
)

// Segment identifies one outcome category of the wheel
type Segment string

const (
	SegmentOne       Segment = "1"
	SegmentTwo       Segment = "2"
	SegmentFive      Segment = "5"
	SegmentTen       Segment = "10"
	SegmentCoinFlip  Segment = "CoinFlip"
	SegmentPachinko  Segment = "Pachinko"
	SegmentCashHunt  Segment = "CashHunt"
	SegmentCrazyTime Segment = "CrazyTime"
)

// AllSegments lists every segment in display order
var AllSegments = []Segment{
	SegmentOne,
	SegmentTwo,
	SegmentFive,
	SegmentTen,
	SegmentCoinFlip,
	SegmentPachinko,
	SegmentCashHunt,
	SegmentCrazyTime,
}

// segmentAliases maps normalized spellings to canonical segments.
// Keys are lowercase with spaces, hyphens and underscores removed.
var segmentAliases = map[string]Segment{
	"1":         SegmentOne,
	"2":         SegmentTwo,
	"5":         SegmentFive,
	"10":        SegmentTen,
	"coinflip":  SegmentCoinFlip,
	"coin":      SegmentCoinFlip,
	"pachinko":  SegmentPachinko,
	"cashhunt":  SegmentCashHunt,
	"crazytime": SegmentCrazyTime,
}

// ParseSegment resolves a user supplied identifier to its canonical segment
func ParseSegment(raw string) (Segment, error) {
	key := normalizeSegmentKey(raw)
	if seg, ok := segmentAliases[key]; ok {
		return seg, nil
	}
	return "", &UnknownSegmentError{Segment: raw}
}

// IsBonus returns true for the four bonus game segments
func (s Segment) IsBonus() bool {
	switch s {
	case SegmentCoinFlip, SegmentPachinko, SegmentCashHunt, SegmentCrazyTime:
		return true
	default:
		return false
	}
}

// IsKnown reports whether s is one of the canonical segments
func (s Segment) IsKnown() bool {
	for _, seg := range AllSegments {
		if seg == s {
			return true
		}
	}
	return false
}

func (s Segment) String() string {
	return string(s)
}

func normalizeSegmentKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
}
