// Package ffprobe provides a typed wrapper around ffprobe JSON output, used
// to sanity-check dialogue audio before it is handed to the aligner.
//
// Inspect executes ffprobe and returns the parsed Result; AlignmentWarnings
// lists the ways a file deviates from the 16 kHz mono PCM WAV the aligner
// models were trained on.
package ffprobe
