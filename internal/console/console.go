// Package console runs the voice-driven foreground loop: it prompts, listens
// for a command and dispatches it against the reminder service.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"smartreminder/internal/core"
	"smartreminder/internal/speech"
)

const (
	promptCommand = "Say add, show, delete or exit."
	promptTask    = "Please say the task description."
	promptTime    = "Please say the time. Example: six thirty pm or sixteen thirty."
	promptIndex   = "Say the number of the task to delete."
)

// Tasks is the part of the reminder service the console drives.
type Tasks interface {
	List(ctx context.Context) ([]core.Task, error)
	AddPhrase(ctx context.Context, text, phrase string) (core.Task, int, error)
	DeleteAt(ctx context.Context, index int) (core.Task, error)
}

// Options configures a Console.
type Options struct {
	Tasks    Tasks
	Speaker  speech.Speaker
	Listener speech.Listener
	// Out receives the task list and help text.
	Out io.Writer
	// DevicesCommand lists capture devices for the mics command.
	DevicesCommand string
	Logger         *slog.Logger
}

// Console is the interactive command loop.
type Console struct {
	tasks          Tasks
	speaker        speech.Speaker
	listener       speech.Listener
	out            io.Writer
	devicesCommand string
	logger         *slog.Logger
	registry       *Registry
}

// New creates a console with the default command set.
func New(opts Options) *Console {
	c := &Console{
		tasks:          opts.Tasks,
		speaker:        opts.Speaker,
		listener:       opts.Listener,
		out:            opts.Out,
		devicesCommand: opts.DevicesCommand,
		logger:         opts.Logger,
	}
	if c.speaker == nil {
		c.speaker = speech.NoOpSpeaker{}
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.registry = c.defaultRegistry()
	return c
}

// Run loops until the user says exit, the input closes or ctx is cancelled.
// Closed input ends the loop without error.
func (c *Console) Run(ctx context.Context) error {
	c.say(ctx, "Smart Task Reminder started.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		heard, err := c.listen(ctx, promptCommand)
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			c.say(ctx, "No command detected.")
			continue
		case errors.Is(err, speech.ErrListenerUnavailable):
			c.logger.Info("console input closed")
			return nil
		case err != nil:
			return err
		}

		cmd, ok := c.registry.Match(heard)
		if !ok {
			c.say(ctx, "Command not recognized. Please try again.")
			continue
		}
		c.logger.Debug("console command", "command", cmd.Name, "heard", heard)
		exit, err := cmd.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, speech.ErrListenerUnavailable) {
				c.logger.Info("console input closed")
				return nil
			}
			c.logger.Error("console command failed", "command", cmd.Name, "err", err)
			c.say(ctx, "Something went wrong. Please try again.")
		}
		if exit {
			return nil
		}
	}
}

func (c *Console) say(ctx context.Context, text string) {
	if err := c.speaker.Speak(ctx, text); err != nil {
		c.logger.Warn("speak", "err", err)
	}
}

// listen speaks prompt when non-empty and returns the trimmed utterance.
func (c *Console) listen(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		c.say(ctx, prompt)
	}
	text, err := c.listener.Listen(ctx)
	if err != nil {
		if errors.Is(err, speech.ErrNoSpeech) {
			c.logger.Debug("no speech captured", "err", err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
