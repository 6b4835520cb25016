package textgrid

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrParse marks a document that is not a readable TextGrid.
var ErrParse = errors.New("textgrid parse error")

// ErrNoPhoneTier is returned when no tier can serve as the phone tier.
var ErrNoPhoneTier = errors.New("textgrid has no phone tier")

// TierClass is the Praat tier type.
type TierClass string

const (
	IntervalTier TierClass = "IntervalTier"
	TextTier     TierClass = "TextTier"
)

// Interval is one labelled span of an interval tier, in seconds.
type Interval struct {
	Start float64
	End   float64
	Label string
}

// Point is one mark of a point (text) tier.
type Point struct {
	Time float64
	Mark string
}

// Tier is one annotation layer.
type Tier struct {
	Name      string
	Class     TierClass
	Start     float64
	End       float64
	Intervals []Interval
	Points    []Point
}

// TextGrid is a parsed document.
type TextGrid struct {
	Start float64
	End   float64
	Tiers []Tier
}

// ParseFile reads and parses the TextGrid at path.
func ParseFile(path string) (*TextGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read textgrid: %w", err)
	}
	tg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tg, nil
}

// Tier returns the first tier named name, compared case-insensitively.
func (tg *TextGrid) Tier(name string) (*Tier, bool) {
	for i := range tg.Tiers {
		if strings.EqualFold(tg.Tiers[i].Name, name) {
			return &tg.Tiers[i], true
		}
	}
	return nil, false
}

// PhoneTier picks the tier holding phone labels: an interval tier named
// "phones", else the second tier (aligners write words then phones), else the
// only tier.
func (tg *TextGrid) PhoneTier() (*Tier, error) {
	if tier, ok := tg.Tier("phones"); ok && tier.Class == IntervalTier {
		return tier, nil
	}
	if len(tg.Tiers) > 1 && tg.Tiers[1].Class == IntervalTier {
		return &tg.Tiers[1], nil
	}
	if len(tg.Tiers) == 1 && tg.Tiers[0].Class == IntervalTier {
		return &tg.Tiers[0], nil
	}
	return nil, fmt.Errorf("%w (%d tiers)", ErrNoPhoneTier, len(tg.Tiers))
}
