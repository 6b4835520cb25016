package ffprobe

import (
	"math"
	"strings"
	"testing"
)

const monoWAV = `{
  "streams": [
    {"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "16000", "channels": 1, "duration": "2.500000"}
  ],
  "format": {"filename": "line.wav", "nb_streams": 1, "format_name": "wav", "duration": "2.500000"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(monoWAV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stream, ok := result.AudioStream()
	if !ok {
		t.Fatal("expected audio stream")
	}
	if stream.SampleRateHz() != 16000 {
		t.Fatalf("unexpected sample rate %d", stream.SampleRateHz())
	}
	if result.DurationSeconds() != 2.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if warnings := result.AlignmentWarnings(); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestAlignmentWarnings(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", CodecName: "mp3", SampleRate: "44100", Channels: 2}},
		Format:  Format{FormatName: "mp3"},
	}
	warnings := result.AlignmentWarnings()
	if len(warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[2], "44100") {
		t.Fatalf("expected sample rate warning, got %q", warnings[2])
	}

	if got := (Result{}).AlignmentWarnings(); len(got) != 1 || got[0] != "no audio stream" {
		t.Fatalf("unexpected warnings for empty result: %v", got)
	}
}

func TestInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Stream{SampleRate: "-1"}).SampleRateHz() != 0 {
		t.Fatal("expected negative sample rate to read as 0")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
