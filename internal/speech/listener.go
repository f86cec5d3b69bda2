package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"smartreminder/internal/runner"
)

var (
	// ErrNoSpeech means nothing intelligible was captured.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrListenerUnavailable means the input source is closed or missing.
	ErrListenerUnavailable = errors.New("listener unavailable")
)

// Listener returns the next utterance as text.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// LineListener reads typed lines, one utterance per line.
type LineListener struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	prompt  io.Writer
}

// NewLineListener reads from r. prompt may be nil; when set, "> " is written
// before every read.
func NewLineListener(r io.Reader, prompt io.Writer) *LineListener {
	return &LineListener{scanner: bufio.NewScanner(r), prompt: prompt}
}

func (l *LineListener) Listen(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.prompt != nil {
		fmt.Fprint(l.prompt, "> ")
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", ErrListenerUnavailable
	}
	text := strings.TrimSpace(l.scanner.Text())
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// CommandListener runs a speech-to-text program per utterance and takes its
// standard output as the transcript.
type CommandListener struct {
	commandLine string
	// PhraseLimit bounds one capture.
	PhraseLimit time.Duration
}

func NewCommandListener(commandLine string, phraseLimit time.Duration) (*CommandListener, error) {
	if strings.TrimSpace(commandLine) == "" {
		return nil, fmt.Errorf("speech-to-text command: %w", ErrListenerUnavailable)
	}
	return &CommandListener{commandLine: commandLine, PhraseLimit: phraseLimit}, nil
}

func (l *CommandListener) Listen(ctx context.Context) (string, error) {
	res, err := runner.Run(ctx, runner.Shell(l.commandLine), l.PhraseLimit)
	if err != nil {
		if errors.Is(err, runner.ErrTimeout) {
			return "", fmt.Errorf("%w: %v", ErrNoSpeech, err)
		}
		return "", fmt.Errorf("%w: %v", ErrListenerUnavailable, err)
	}
	text := strings.TrimSpace(string(res.Stdout))
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// ListDevices runs command and returns its non-empty output lines, one capture
// device per line.
func ListDevices(ctx context.Context, command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("device listing command: %w", ErrListenerUnavailable)
	}
	res, err := runner.Run(ctx, runner.Shell(command), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var devices []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			devices = append(devices, line)
		}
	}
	return devices, nil
}
