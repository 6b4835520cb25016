package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"lipsync/internal/fileutil"
)

// ErrUndecodable is returned when no supported encoding decodes a transcript.
var ErrUndecodable = errors.New("transcript is not in a supported encoding")

// Encoding names, in fallback order.
const (
	UTF8    = "utf-8"
	GB18030 = "gb18030"
	Big5    = "big5"
	GBK     = "gbk"
)

var legacy = map[string]encoding.Encoding{
	GB18030: simplifiedchinese.GB18030,
	Big5:    traditionalchinese.Big5,
	GBK:     simplifiedchinese.GBK,
}

// Order lists the encodings Decode tries.
func Order() []string {
	return []string{UTF8, GB18030, Big5, GBK}
}

// Decoded is a transcript converted to text.
type Decoded struct {
	Text     string
	Encoding string
}

// Decode converts data using the first encoding in Order that accepts it.
func Decode(data []byte) (Decoded, error) {
	for _, name := range Order() {
		text, err := DecodeAs(data, name)
		if err == nil {
			return Decoded{Text: text, Encoding: name}, nil
		}
	}
	return Decoded{}, fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(Order(), ", "))
}

// DecodeAs decodes data with the named encoding only. A leading UTF-8
// byte-order mark is dropped.
func DecodeAs(data []byte, name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == UTF8 || name == "utf8" {
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrUndecodable)
		}
		return string(data), nil
	}
	enc, ok := legacy[name]
	if !ok {
		return "", fmt.Errorf("unknown encoding %q", name)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUndecodable, name, err)
	}
	reencoded, err := enc.NewEncoder().Bytes(decoded)
	if err != nil || !bytes.Equal(reencoded, data) {
		return "", fmt.Errorf("%w: %s does not round-trip", ErrUndecodable, name)
	}
	return string(decoded), nil
}

// DecodeFile reads and decodes a transcript file. A non-empty encoding skips
// the fallback chain.
func DecodeFile(path, encodingName string) (Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Decoded{}, fmt.Errorf("read transcript: %w", err)
	}
	if strings.TrimSpace(encodingName) != "" {
		text, err := DecodeAs(data, encodingName)
		if err != nil {
			return Decoded{}, fmt.Errorf("%s: %w", path, err)
		}
		return Decoded{Text: text, Encoding: strings.ToLower(strings.TrimSpace(encodingName))}, nil
	}
	decoded, err := Decode(data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

// WriteUTF8 writes text to path as UTF-8 without a byte-order mark.
func WriteUTF8(path, text string) error {
	return fileutil.WriteFileAtomic(path, []byte(text), 0o644)
}
