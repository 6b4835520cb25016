package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lipsync/internal/config"
	"lipsync/internal/fileutil"
	"lipsync/internal/language"
	"lipsync/internal/logging"
	"lipsync/internal/pose"
	"lipsync/internal/preflight"
	"lipsync/internal/scene"
	"lipsync/internal/services"
	"lipsync/internal/services/mfa"
	"lipsync/internal/staging"
	"lipsync/internal/telemetry"
	"lipsync/internal/textgrid"
	"lipsync/internal/timeline"
	"lipsync/internal/transcript"
)

// Aligner runs forced alignment over a staged input directory.
type Aligner interface {
	Align(ctx context.Context, inputDir, outputDir string, progress func(mfa.ProgressEvent)) (string, error)
}

// AlignerFactory builds the aligner for a language.
type AlignerFactory func(spec language.AlignerSpec, timeoutSeconds int) (Aligner, error)

// Option configures a Runner.
type Option func(*Runner)

// WithAlignerFactory replaces the MFA client (primarily for tests).
func WithAlignerFactory(factory AlignerFactory) Option {
	return func(r *Runner) {
		if factory != nil {
			r.newAligner = factory
		}
	}
}

// WithProgress receives every aligner progress event.
func WithProgress(fn func(mfa.ProgressEvent)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithPreflight toggles the aligner and directory checks before staging.
func WithPreflight(enabled bool) Option {
	return func(r *Runner) {
		r.preflight = enabled
	}
}

// Runner executes sessions.
type Runner struct {
	logger     *slog.Logger
	newAligner AlignerFactory
	progress   func(mfa.ProgressEvent)
	preflight  bool
}

// NewRunner constructs a Runner that aligns with MFA.
func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		logger:    logger,
		preflight: true,
		newAligner: func(spec language.AlignerSpec, timeoutSeconds int) (Aligner, error) {
			return mfa.New(spec, timeoutSeconds)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate aligns the session's audio and transcript and compiles the result
// onto the scene.
func (r *Runner) Generate(ctx context.Context, s Session) (report Report, err error) {
	started := time.Now()
	cfg := s.Config()
	profile := s.Profile()

	ctx = services.WithRunID(ctx, s.RunID())
	ctx = services.WithLanguage(ctx, profile.Name)
	ctx, span := telemetry.Tracer("lipsync/workflow").Start(ctx, "workflow.generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generate failed")
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("run_id", s.RunID()),
		attribute.String("language", profile.Name),
	)

	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow"))
	report = Report{RunID: s.RunID(), Language: profile.Name, Audio: s.Audio(), Transcript: s.Transcript()}
	defer func() { report.Duration = time.Since(started) }()

	logger.Info("generate started",
		logging.String("audio", s.Audio()),
		logging.String("transcript", s.Transcript()),
		logging.String(logging.FieldEventType, "generate_started"),
	)

	if err := cfg.EnsureDirectories(); err != nil {
		return report, services.Wrap(services.ErrConfiguration, "preflight", "ensure directories", "create working directories", err)
	}
	if r.preflight {
		if err := r.runPreflight(ctx, logger, cfg, profile, s.Audio(), &report); err != nil {
			return report, err
		}
	}

	ws, err := staging.Prepare(cfg.Paths.StagingDir, s.RunID())
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "staging", "prepare", "create staging workspace", err)
	}
	defer ws.Cleanup(logger)

	if err := r.stage(ctx, logger, s, ws, &report); err != nil {
		return report, err
	}

	gridPath, err := r.align(ctx, logger, s, ws)
	if err != nil {
		return report, err
	}
	if keep := s.TextGridCopy(); keep != "" {
		if _, err := fileutil.CopyFileVerified(gridPath, keep); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("keep textgrid: %v", err))
			logging.WarnWithContext(logger, "failed to keep textgrid", "textgrid_copy_failed",
				logging.String("path", keep),
				logging.Error(err),
				logging.String(logging.FieldImpact, "alignment is discarded with the staging workspace"),
			)
		} else {
			report.TextGrid = keep
		}
	}

	intervals, err := readIntervals(gridPath)
	if err != nil {
		return report, err
	}
	report.Intervals = len(intervals)

	result, err := r.compile(ctx, logger, cfg, profile, intervals, s.Audio(), &report)
	report.Result = result
	if err != nil {
		return report, err
	}

	logger.Info("generate finished",
		logging.Int("intervals", report.Intervals),
		logging.Int("keys", len(result.Instructions)),
		logging.Int("skipped", len(result.Skipped())),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "generate_finished"),
	)
	return report, nil
}

// CompileTextGrid compiles an existing TextGrid onto the scene without
// running the aligner.
func (r *Runner) CompileTextGrid(ctx context.Context, cfg *config.Config, profile language.Profile, path string) (Report, error) {
	started := time.Now()
	ctx = services.WithLanguage(ctx, profile.Name)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow"))
	report := Report{Language: profile.Name, TextGrid: path}

	intervals, err := readIntervals(path)
	if err != nil {
		return report, err
	}
	report.Intervals = len(intervals)

	result, err := r.compile(ctx, logger, cfg, profile, intervals, "", &report)
	report.Result = result
	report.Duration = time.Since(started)
	return report, err
}

func (r *Runner) runPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, profile language.Profile, audio string, report *Report) error {
	ctx = services.WithStage(ctx, "preflight")
	results := preflight.RunAll(ctx, cfg, profile)
	for _, res := range results {
		if res.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail),
			logging.Bool("optional", res.Optional),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "run lipsync doctor for the full report"),
		)
	}
	if err := preflight.Failures(results); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "check", "aligner not ready", err)
	}

	audioCheck := preflight.CheckAudio(ctx, cfg, audio)
	if !audioCheck.Passed {
		report.Warnings = append(report.Warnings, audioCheck.Detail)
		logging.WarnWithContext(logger, "audio format may reduce alignment quality", "audio_format_warning",
			logging.String("detail", audioCheck.Detail),
			logging.String(logging.FieldErrorHint, "convert to 16 kHz mono WAV"),
			logging.String(logging.FieldImpact, "alignment may fail or drift"),
		)
	}
	return nil
}

func (r *Runner) stage(ctx context.Context, logger *slog.Logger, s Session, ws staging.Workspace, report *Report) error {
	decoded, err := transcript.DecodeFile(s.Transcript(), s.Encoding())
	if err != nil {
		marker := services.ErrValidation
		if !errors.Is(err, transcript.ErrUndecodable) {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "staging", "decode transcript", "transcript could not be decoded", err)
	}
	report.Encoding = decoded.Encoding

	audioDst := filepath.Join(ws.Input, filepath.Base(s.Audio()))
	digest, err := fileutil.CopyFileVerified(s.Audio(), audioDst)
	if err != nil {
		return services.Wrap(services.ErrTransient, "staging", "copy audio", "stage audio", err)
	}
	textDst := filepath.Join(ws.Input, s.BaseName()+".txt")
	if err := transcript.WriteUTF8(textDst, decoded.Text); err != nil {
		return services.Wrap(services.ErrTransient, "staging", "write transcript", "stage transcript", err)
	}

	logger.Info("inputs staged",
		logging.String("workspace", ws.Root),
		logging.String("encoding", decoded.Encoding),
		logging.String("audio_sha256", digest),
		logging.String(logging.FieldEventType, "inputs_staged"),
	)
	return ctx.Err()
}

func (r *Runner) align(ctx context.Context, logger *slog.Logger, s Session, ws staging.Workspace) (string, error) {
	ctx, span := telemetry.Tracer("lipsync/workflow").Start(ctx, "aligner.align")
	defer span.End()

	cfg := s.Config()
	aligner, err := r.newAligner(s.Profile().Aligner, cfg.Aligner.TimeoutSeconds)
	if err != nil {
		return "", err
	}

	sampler := logging.NewProgressSampler(25)
	progress := func(ev mfa.ProgressEvent) {
		if sampler.ShouldLog(ev.Percent, "align") {
			logger.Info("aligner progress",
				logging.Float64("percent", ev.Percent),
				logging.String("line", ev.Line),
				logging.String(logging.FieldEventType, "aligner_progress"),
			)
		}
		if r.progress != nil {
			r.progress(ev)
		}
	}

	path, err := aligner.Align(services.WithStage(ctx, "align"), ws.Input, ws.Output, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alignment failed")
		return "", err
	}
	logger.Info("alignment produced",
		logging.String("textgrid", path),
		logging.String(logging.FieldEventType, "alignment_produced"),
	)
	return path, nil
}

func (r *Runner) compile(ctx context.Context, logger *slog.Logger, cfg *config.Config, profile language.Profile, intervals []timeline.PhoneInterval, audio string, report *Report) (timeline.Result, error) {
	ctx = services.WithStage(ctx, "compile")

	sc, err := scene.Open(ctx, cfg.Paths.SceneDB)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, scene.ErrSceneLocked) {
			marker = services.ErrValidation
		}
		return timeline.Result{}, services.Wrap(marker, "compile", "open scene", "scene unavailable", err)
	}
	defer func() {
		if cerr := sc.Close(); cerr != nil {
			logging.WarnWithContext(logger, "failed to close scene", "scene_close_failed", logging.Error(cerr))
		}
	}()

	if audio != "" {
		if err := sc.SetSoundtrack(ctx, audio); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("soundtrack: %v", err))
			logging.WarnWithContext(logger, "could not attach soundtrack", "soundtrack_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "keys are set without a reference soundtrack"),
			)
		}
	}

	return timeline.Compile(ctx, timeline.Request{
		Intervals: intervals,
		Profile:   profile,
		Loader:    pose.NewFileLoader(),
		Rig:       sc,
		Logger:    logger,
	})
}

func readIntervals(path string) ([]timeline.PhoneInterval, error) {
	grid, err := textgrid.ParseFile(path)
	if err != nil {
		marker := services.ErrValidation
		if !errors.Is(err, textgrid.ErrParse) {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "parse", "read textgrid", "alignment unreadable", err)
	}
	tier, err := grid.PhoneTier()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "parse", "phone tier", "alignment has no phone tier", err)
	}
	return timeline.FromTier(tier), nil
}
