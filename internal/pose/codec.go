package pose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ErrParse marks a pose document that is not a valid snapshot.
var ErrParse = errors.New("pose parse error")

// Encode writes s as an indented JSON document.
func Encode(w io.Writer, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal renders s as an indented JSON document with a trailing newline.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if len(s.Controls) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}
	buf.WriteString("{\n")
	for i, c := range s.Controls {
		buf.WriteString("    ")
		writeKey(&buf, c.Name)
		if len(c.Attributes) == 0 {
			buf.WriteString(": {}")
		} else {
			buf.WriteString(": {\n")
			for j, a := range c.Attributes {
				if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
					return nil, fmt.Errorf("%s.%s: value %v is not representable in JSON", c.Name, a.Name, a.Value)
				}
				buf.WriteString("        ")
				writeKey(&buf, a.Name)
				buf.WriteString(": ")
				buf.WriteString(formatNumber(a.Value))
				if j < len(c.Attributes)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString("    }")
		}
		if i < len(s.Controls)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(key)
	// Encoder appends a newline.
	buf.Truncate(buf.Len() - 1)
}

// formatNumber keeps integral values looking like floats ("1.0") so files
// round-trip with tools that distinguish int and float attributes.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if math.Trunc(v) == v && math.Abs(v) < 1e15 {
		s = strconv.FormatFloat(v, 'f', 1, 64)
	}
	return s
}

// Decode reads a pose document, preserving key order. Boolean attribute
// values decode as 1 and 0.
func Decode(r io.Reader) (Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	seen := map[string]struct{}{}
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return Snapshot{}, err
		}
		if _, dup := seen[name]; dup {
			return Snapshot{}, fmt.Errorf("%w: duplicate control %q", ErrParse, name)
		}
		seen[name] = struct{}{}
		control, err := decodeControl(dec, name)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Controls = append(snap.Controls, control)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Snapshot{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Snapshot{}, fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	return snap, nil
}

func decodeControl(dec *json.Decoder, name string) (Control, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Control{}, fmt.Errorf("control %q: %w", name, err)
	}
	control := Control{Name: name}
	seen := map[string]struct{}{}
	for dec.More() {
		attr, err := readKey(dec)
		if err != nil {
			return Control{}, err
		}
		if _, dup := seen[attr]; dup {
			return Control{}, fmt.Errorf("%w: duplicate attribute %s.%s", ErrParse, name, attr)
		}
		seen[attr] = struct{}{}
		tok, err := dec.Token()
		if err != nil {
			return Control{}, fmt.Errorf("%w: %s.%s: %v", ErrParse, name, attr, err)
		}
		var value float64
		switch v := tok.(type) {
		case json.Number:
			value, err = v.Float64()
			if err != nil {
				return Control{}, fmt.Errorf("%w: %s.%s: %v", ErrParse, name, attr, err)
			}
		case bool:
			if v {
				value = 1
			}
		default:
			return Control{}, fmt.Errorf("%w: %s.%s: expected number, got %v", ErrParse, name, attr, tok)
		}
		control.Attributes = append(control.Attributes, Attribute{Name: attr, Value: value})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Control{}, err
	}
	return control, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrParse, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrParse, want, tok)
	}
	return nil
}
