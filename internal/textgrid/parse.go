package textgrid

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type tokenKind int

const (
	tokString tokenKind = iota
	tokNumber
	tokFlag
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

// Parse reads a TextGrid document in either text layout.
func Parse(data []byte) (*TextGrid, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parse()
}

// decodeText honours a UTF-8 or UTF-16 byte-order mark and assumes UTF-8
// otherwise.
func decodeText(data []byte) (string, error) {
	var fallback encoding.Encoding = xunicode.UTF8
	decoder := xunicode.BOMOverride(fallback.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// tokenize keeps quoted strings, numbers, and <flags>. Labels such as
// "xmin =", "item [1]:" and "intervals: size =" carry no data and are dropped,
// which makes the long and short layouts produce the same token stream.
func tokenize(text string) ([]token, error) {
	var tokens []token
	line := 1
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == '"':
			start := line
			var b strings.Builder
			i++
			closed := false
			for i < len(text) {
				if text[i] == '"' {
					if i+1 < len(text) && text[i+1] == '"' {
						b.WriteByte('"')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				if text[i] == '\n' {
					line++
				}
				b.WriteByte(text[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated string starting on line %d", ErrParse, start)
			}
			tokens = append(tokens, token{kind: tokString, text: b.String(), line: start})
		case c == '!':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == ' ' || c == '\t' || c == '\r':
			i++
		default:
			j := i
			for j < len(text) && !isSpace(text[j]) && text[j] != '"' {
				j++
			}
			word := text[i:j]
			i = j
			if strings.HasPrefix(word, "<") && strings.HasSuffix(word, ">") {
				tokens = append(tokens, token{kind: tokFlag, text: word, line: line})
				continue
			}
			if num, err := strconv.ParseFloat(word, 64); err == nil {
				tokens = append(tokens, token{kind: tokNumber, num: num, text: word, line: line})
			}
		}
	}
	return tokens, nil
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) next() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, fmt.Errorf("%w: unexpected end of document", ErrParse)
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) str(what string) (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokString {
		return "", fmt.Errorf("%w: line %d: expected %s string, got %q", ErrParse, t.line, what, t.text)
	}
	return t.text, nil
}

func (p *parser) number(what string) (float64, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	if t.kind != tokNumber {
		return 0, fmt.Errorf("%w: line %d: expected %s number, got %q", ErrParse, t.line, what, t.text)
	}
	return t.num, nil
}

func (p *parser) count(what string) (int, error) {
	n, err := p.number(what)
	if err != nil {
		return 0, err
	}
	if n < 0 || n != float64(int(n)) {
		return 0, fmt.Errorf("%w: invalid %s %v", ErrParse, what, n)
	}
	return int(n), nil
}

func (p *parser) parse() (*TextGrid, error) {
	fileType, err := p.str("file type")
	if err != nil {
		return nil, err
	}
	if fileType != "ooTextFile" {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrParse, fileType)
	}
	class, err := p.str("object class")
	if err != nil {
		return nil, err
	}
	if class != "TextGrid" {
		return nil, fmt.Errorf("%w: object class %q is not TextGrid", ErrParse, class)
	}

	tg := &TextGrid{}
	if tg.Start, err = p.number("xmin"); err != nil {
		return nil, err
	}
	if tg.End, err = p.number("xmax"); err != nil {
		return nil, err
	}
	flag, err := p.next()
	if err != nil {
		return nil, err
	}
	if flag.kind != tokFlag {
		return nil, fmt.Errorf("%w: line %d: expected <exists> or <absent>", ErrParse, flag.line)
	}
	if flag.text == "<absent>" {
		return tg, nil
	}
	size, err := p.count("tier count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < size; i++ {
		tier, err := p.tier()
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i+1, err)
		}
		tg.Tiers = append(tg.Tiers, tier)
	}
	return tg, nil
}

func (p *parser) tier() (Tier, error) {
	var tier Tier
	class, err := p.str("tier class")
	if err != nil {
		return tier, err
	}
	tier.Class = TierClass(class)
	if tier.Name, err = p.str("tier name"); err != nil {
		return tier, err
	}
	if tier.Start, err = p.number("xmin"); err != nil {
		return tier, err
	}
	if tier.End, err = p.number("xmax"); err != nil {
		return tier, err
	}
	n, err := p.count("item count")
	if err != nil {
		return tier, err
	}

	switch tier.Class {
	case IntervalTier:
		tier.Intervals = make([]Interval, 0, n)
		for i := 0; i < n; i++ {
			var iv Interval
			if iv.Start, err = p.number("interval xmin"); err != nil {
				return tier, err
			}
			if iv.End, err = p.number("interval xmax"); err != nil {
				return tier, err
			}
			if iv.Label, err = p.str("interval text"); err != nil {
				return tier, err
			}
			if iv.End < iv.Start {
				return tier, fmt.Errorf("%w: interval %d of %q ends before it starts", ErrParse, i+1, tier.Name)
			}
			tier.Intervals = append(tier.Intervals, iv)
		}
	case TextTier:
		tier.Points = make([]Point, 0, n)
		for i := 0; i < n; i++ {
			var pt Point
			if pt.Time, err = p.number("point time"); err != nil {
				return tier, err
			}
			if pt.Mark, err = p.str("point mark"); err != nil {
				return tier, err
			}
			tier.Points = append(tier.Points, pt)
		}
	default:
		return tier, fmt.Errorf("%w: unknown tier class %q", ErrParse, class)
	}
	return tier, nil
}
