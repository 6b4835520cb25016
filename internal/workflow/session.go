package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lipsync/internal/config"
	"lipsync/internal/language"
	"lipsync/internal/services"
	"lipsync/internal/transcript"
)

// ErrMissingInput reports an audio or transcript path that does not exist.
var ErrMissingInput = errors.New("required input missing")

// Session is the immutable description of one generate run.
type Session struct {
	runID      string
	audio      string
	transcript string
	encoding   string
	textGrid   string
	profile    language.Profile
	cfg        *config.Config
}

// SessionOption configures optional Session fields.
type SessionOption func(*Session)

// WithEncoding forces the transcript encoding instead of probing.
func WithEncoding(name string) SessionOption {
	return func(s *Session) {
		s.encoding = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) SessionOption {
	return func(s *Session) {
		if strings.TrimSpace(id) != "" {
			s.runID = strings.TrimSpace(id)
		}
	}
}

// WithTextGridCopy keeps a copy of the aligner output at path.
func WithTextGridCopy(path string) SessionOption {
	return func(s *Session) {
		s.textGrid = strings.TrimSpace(path)
	}
}

// NewSession validates the inputs and returns a Session.
func NewSession(cfg *config.Config, profile language.Profile, audio, transcriptPath string, opts ...SessionOption) (Session, error) {
	if cfg == nil {
		return Session{}, services.Wrap(services.ErrConfiguration, "session", "new", "config required", nil)
	}
	s := Session{
		runID:   uuid.NewString(),
		profile: profile,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(&s)
	}

	var err error
	if s.audio, err = requireFile("audio", audio); err != nil {
		return Session{}, err
	}
	if s.transcript, err = requireFile("transcript", transcriptPath); err != nil {
		return Session{}, err
	}
	if s.encoding != "" && !knownEncoding(s.encoding) {
		return Session{}, services.Wrap(services.ErrValidation, "session", "new",
			fmt.Sprintf("unsupported transcript encoding %q (supported: %s)", s.encoding, strings.Join(transcript.Order(), ", ")), nil)
	}
	return s, nil
}

func requireFile(kind, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "session", "new", kind+" path required", ErrMissingInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "session", "new", kind+" path invalid", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "session", "new", fmt.Sprintf("%s %s", kind, abs), errors.Join(ErrMissingInput, err))
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "session", "new", fmt.Sprintf("%s %s is a directory", kind, abs), ErrMissingInput)
	}
	return abs, nil
}

func knownEncoding(name string) bool {
	for _, known := range transcript.Order() {
		if known == name {
			return true
		}
	}
	return false
}

// RunID identifies the run in logs and staging.
func (s Session) RunID() string { return s.runID }

// Audio is the absolute dialogue audio path.
func (s Session) Audio() string { return s.audio }

// Transcript is the absolute transcript path.
func (s Session) Transcript() string { return s.transcript }

// Encoding is the forced transcript encoding, or "" to probe.
func (s Session) Encoding() string { return s.encoding }

// TextGridCopy is where the aligner output is kept, or "".
func (s Session) TextGridCopy() string { return s.textGrid }

// Profile is the active language profile.
func (s Session) Profile() language.Profile { return s.profile }

// Config is the run configuration.
func (s Session) Config() *config.Config { return s.cfg }

// BaseName is the stem shared by the staged audio and transcript.
func (s Session) BaseName() string {
	base := filepath.Base(s.audio)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
