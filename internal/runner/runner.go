// Package runner executes the external programs used for toasts, speech and
// audio capture.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// ErrTimeout is returned when a command outlives its timeout.
var ErrTimeout = errors.New("command timed out")

// killGrace is how long a terminated process gets before it is killed.
const killGrace = 2 * time.Second

// Command describes a program invocation.
type Command struct {
	Name string
	Args []string
	// Env is appended to the current environment.
	Env   []string
	Stdin io.Reader
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Shell wraps a user-configured command line so extra arguments reach it as
// positional parameters ("$@") instead of being spliced into the string.
func Shell(commandLine string, args ...string) Command {
	return shellFor(runtime.GOOS, commandLine, args...)
}

func shellFor(goos, commandLine string, args ...string) Command {
	if goos == "windows" {
		// cmd has no argv of its own. Arguments travel in the environment and
		// are expanded with delayed expansion, after cmd has parsed the line.
		line := commandLine
		env := make([]string, 0, len(args))
		for i, a := range args {
			name := fmt.Sprintf("REMINDER_ARG_%d", i+1)
			env = append(env, name+"="+a)
			line += ` "!` + name + `!"`
		}
		return Command{Name: "cmd", Args: []string{"/V:ON", "/C", line}, Env: env} // #nosec G204
	}
	shellArgs := []string{"-c", commandLine + ` "$@"`, "sh"}
	return Command{Name: "/bin/sh", Args: append(shellArgs, args...)}
}

// Run executes c and waits for it. A timeout of zero disables the watchdog.
func Run(ctx context.Context, c Command, timeout time.Duration) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec G204
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	// Grandchildren holding the pipes open must not block Wait forever.
	cmd.WaitDelay = killGrace

	var stdout, stderr syncBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", c.Name, err)
	}

	var timedOut atomic.Bool
	var watchdog *time.Timer
	if timeout > 0 {
		watchdog = time.AfterFunc(timeout, func() {
			timedOut.Store(true)
			sendTermination(cmd.Process)
			time.AfterFunc(killGrace, func() {
				_ = cmd.Process.Kill()
			})
		})
	}
	waitErr := cmd.Wait()
	if watchdog != nil {
		watchdog.Stop()
	}

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	switch {
	case timedOut.Load():
		return res, fmt.Errorf("%s: %w after %s", c.Name, ErrTimeout, timeout)
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, fmt.Errorf("%s exited with code %d: %s", c.Name, exitErr.ExitCode(), bytes.TrimSpace(res.Stderr))
		}
		return res, fmt.Errorf("wait %s: %w", c.Name, waitErr)
	}
	return res, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func sendTermination(process *os.Process) {
	if process == nil {
		return
	}
	if runtime.GOOS == "windows" {
		_ = process.Kill()
		return
	}
	_ = process.Signal(syscall.SIGTERM)
}
