// Package speech provides text-to-speech output and transcript input for the
// voice-driven console and the web voice dialogue.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"smartreminder/internal/runner"
)

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

const windowsSpeakScript = `Add-Type -AssemblyName System.Speech
$s = New-Object System.Speech.Synthesis.SpeechSynthesizer
$s.Rate = 1
$s.Speak($env:REMINDER_SPEECH)`

// CommandSpeaker speaks through an external text-to-speech program. Calls
// are serialized so utterances never overlap.
type CommandSpeaker struct {
	mu      sync.Mutex
	build   func(text string) runner.Command
	timeout time.Duration
}

// NewCommandSpeaker uses commandLine when set, with the text appended as its
// last argument. Otherwise it picks espeak, say or PowerShell for the OS.
func NewCommandSpeaker(commandLine string, timeout time.Duration) (*CommandSpeaker, error) {
	if commandLine != "" {
		return &CommandSpeaker{
			build: func(text string) runner.Command {
				return runner.Shell(commandLine, text)
			},
			timeout: timeout,
		}, nil
	}
	build, tool := platformVoice(runtime.GOOS)
	if build == nil {
		return nil, fmt.Errorf("text-to-speech not supported on %s", runtime.GOOS)
	}
	if _, err := exec.LookPath(tool); err != nil {
		return nil, fmt.Errorf("speech engine %s not found: %w", tool, err)
	}
	return &CommandSpeaker{build: build, timeout: timeout}, nil
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := runner.Run(ctx, s.build(text), s.timeout); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func platformVoice(goos string) (func(text string) runner.Command, string) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return func(text string) runner.Command {
			return runner.Command{Name: "espeak", Args: []string{"-s", "175", "--", text}}
		}, "espeak"
	case "darwin":
		return func(text string) runner.Command {
			return runner.Command{Name: "say", Args: []string{"-r", "175", "--", text}}
		}, "say"
	case "windows":
		return func(text string) runner.Command {
			return runner.Command{
				Name: "powershell",
				Args: []string{"-NoProfile", "-NonInteractive", "-Command", windowsSpeakScript},
				Env:  []string{"REMINDER_SPEECH=" + text},
			}
		}, "powershell"
	default:
		return nil, ""
	}
}

// WriterSpeaker echoes spoken text to a writer, usually stdout.
type WriterSpeaker struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSpeaker(w io.Writer) *WriterSpeaker {
	return &WriterSpeaker{w: w}
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "[Speaking]: %s\n", text)
	return err
}

// MultiSpeaker speaks through every backend and joins the errors.
type MultiSpeaker struct {
	speakers []Speaker
}

func NewMultiSpeaker(speakers ...Speaker) *MultiSpeaker {
	return &MultiSpeaker{speakers: speakers}
}

func (m *MultiSpeaker) Speak(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m.speakers {
		if err := s.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpSpeaker stays silent.
type NoOpSpeaker struct{}

func (NoOpSpeaker) Speak(ctx context.Context, text string) error {
	return nil
}
