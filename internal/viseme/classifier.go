package viseme

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Category is a visually distinct mouth shape.
type Category string

// Rest is the closed-mouth fallback every classifier must define.
const Rest Category = "rest"

// silenceLabels map to Rest in every language regardless of table contents.
var silenceLabels = map[string]struct{}{
	"":      {},
	"sil":   {},
	"sp":    {},
	"spn":   {},
	"None":  {},
	"<eps>": {},
}

// Classifier maps aligner phone labels to categories for one language.
type Classifier struct {
	categories []Category
	table      map[string]Category
	labels     []string
}

// NewClassifier builds a classifier from an ordered category set and a label
// table. Labels are NFC-normalized and trimmed. Every table value must be a
// member of categories and categories must contain Rest.
func NewClassifier(categories []Category, table map[string]Category, order []string) (Classifier, error) {
	known := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		if c == "" {
			return Classifier{}, fmt.Errorf("empty category name")
		}
		if _, dup := known[c]; dup {
			return Classifier{}, fmt.Errorf("duplicate category %q", c)
		}
		known[c] = struct{}{}
	}
	if _, ok := known[Rest]; !ok {
		return Classifier{}, fmt.Errorf("category set must include %q", Rest)
	}

	normalized := make(map[string]Category, len(table))
	labels := make([]string, 0, len(table))
	add := func(label string, category Category) error {
		if _, ok := known[category]; !ok {
			return fmt.Errorf("label %q maps to unknown category %q", label, category)
		}
		key := normalizeLabel(label)
		if _, seen := normalized[key]; !seen {
			labels = append(labels, key)
		}
		normalized[key] = category
		return nil
	}
	// order fixes the label listing; labels missing from it follow in map order.
	for _, label := range order {
		category, ok := table[label]
		if !ok {
			continue
		}
		if err := add(label, category); err != nil {
			return Classifier{}, err
		}
	}
	for label, category := range table {
		if _, done := normalized[normalizeLabel(label)]; done {
			continue
		}
		if err := add(label, category); err != nil {
			return Classifier{}, err
		}
	}

	return Classifier{
		categories: append([]Category(nil), categories...),
		table:      normalized,
		labels:     labels,
	}, nil
}

// Classify returns the category for label. It never fails: labels that are
// not in the table are retried without tone letters or stress digits, and
// anything still unknown is Rest.
func (c Classifier) Classify(label string) Category {
	key := normalizeLabel(label)
	if category, ok := c.table[key]; ok {
		return category
	}
	if _, ok := silenceLabels[key]; ok {
		return Rest
	}
	if base := stripSuprasegmentals(key); base != key && base != "" {
		if category, ok := c.table[base]; ok {
			return category
		}
	}
	return Rest
}

// Categories returns the ordered category set.
func (c Classifier) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Labels returns the table labels in definition order.
func (c Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Has reports whether category belongs to this classifier.
func (c Classifier) Has(category Category) bool {
	for _, known := range c.categories {
		if known == category {
			return true
		}
	}
	return false
}

func normalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// stripSuprasegmentals drops trailing IPA tone letters (U+02E5..U+02E9) and
// ARPAbet stress digits so "a˦" falls back to "a" and "AA" variants share a base.
func stripSuprasegmentals(label string) string {
	return strings.TrimRightFunc(label, func(r rune) bool {
		return (r >= 0x02E5 && r <= 0x02E9) || unicode.IsDigit(r)
	})
}
