package mfa

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"lipsync/internal/language"
	"lipsync/internal/services"
)

// ErrNoAlignment reports that the aligner exited without producing a TextGrid.
var ErrNoAlignment = errors.New("aligner produced no TextGrid")

// expectedLines approximates how many non-empty output lines one alignment
// prints; it drives the percent estimate.
const expectedLines = 12

// ProgressEvent is one line of aligner output.
type ProgressEvent struct {
	Line    string
	Count   int
	Percent float64
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, env []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps aligner CLI interactions for one language.
type Client struct {
	spec    language.AlignerSpec
	timeout time.Duration
	exec    Executor
}

// New constructs an aligner client.
func New(spec language.AlignerSpec, timeoutSeconds int, opts ...Option) (*Client, error) {
	if strings.TrimSpace(spec.Binary()) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "align", "new client", "aligner command required", nil)
	}
	switch spec.Dialect {
	case language.DialectV1, language.DialectV3:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "align", "new client", fmt.Sprintf("unsupported aligner dialect %q", spec.Dialect), nil)
	}
	client := &Client{
		spec:    spec,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Command returns the binary, arguments and extra environment for aligning
// inputDir into outputDir.
func (c *Client) Command(inputDir, outputDir string) (string, []string, []string) {
	binary := c.spec.Binary()
	operands := []string{inputDir, c.spec.Lexicon, c.spec.Model, outputDir}
	if c.spec.Dialect == language.DialectV1 {
		return binary, operands, nil
	}
	args := append([]string{"-m", "montreal_forced_aligner.command_line.mfa", "align"}, operands...)
	var prefix []string
	if c.spec.Root != "" {
		prefix = append(prefix, filepath.Join(c.spec.Root, "Library", "bin"), filepath.Join(c.spec.Root, "bin"))
	}
	prefix = append(prefix, os.Getenv("PATH"))
	env := []string{"PATH=" + strings.Join(prefix, string(os.PathListSeparator))}
	return binary, args, env
}

// Align runs the aligner over inputDir and returns the TextGrid path it wrote
// under outputDir.
func (c *Client) Align(ctx context.Context, inputDir, outputDir string, progress func(ProgressEvent)) (string, error) {
	if inputDir == "" || outputDir == "" {
		return "", services.Wrap(services.ErrValidation, "align", "align", "input and output directories required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "align", "prepare output", "create aligner output directory", err)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	binary, args, env := c.Command(inputDir, outputDir)
	count := 0
	onLine := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		count++
		if progress == nil {
			return
		}
		percent := float64(count) / expectedLines * 100
		if percent > 99 {
			percent = 99
		}
		progress(ProgressEvent{Line: line, Count: count, Percent: percent})
	}

	if err := c.exec.Run(runCtx, binary, args, env, onLine); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "align", "run aligner", fmt.Sprintf("aligner exceeded %s", c.timeout), err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "align", "run aligner", "aligner failed", err)
	}

	path, err := FindTextGrid(outputDir)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(ProgressEvent{Line: "alignment complete", Count: count, Percent: 100})
	}
	return path, nil
}

// FindTextGrid walks dir for *.TextGrid files and returns the first in
// lexical path order.
func FindTextGrid(dir string) (string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".TextGrid") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("scan aligner output: %w", err)
	}
	if len(found) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "align", "find textgrid", fmt.Sprintf("no TextGrid under %s", dir), ErrNoAlignment)
	}
	sort.Strings(found)
	return found[0], nil
}

// pipeGrace bounds how long Wait keeps reading output after the aligner
// exits or is cancelled.
const pipeGrace = 5 * time.Second

type commandExecutor struct{}

// Run starts the aligner in its own process group so cancellation reaches the
// worker processes it spawns, and streams stdout and stderr lines to onLine.
func (commandExecutor) Run(ctx context.Context, binary string, args []string, env []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killGroup(cmd.Process) }
	cmd.WaitDelay = pipeGrace

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var scanErr error
	var once sync.Once

	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if onLine != nil {
			onLine(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
			// Keep the writer side unblocked until the process is done.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(outR)
	go scan(errR)

	waitErr := cmd.Wait()
	_ = outW.Close()
	_ = errW.Close()
	wg.Wait()

	if waitErr != nil {
		return fmt.Errorf("wait command: %w", waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}

// killGroup sends SIGKILL to the process group led by p.
func killGroup(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return nil
}
