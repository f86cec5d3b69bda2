package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"smartreminder/internal/runner"
)

const windowsToastScript = `Add-Type -AssemblyName System.Windows.Forms
$n = New-Object System.Windows.Forms.NotifyIcon
$n.Icon = [System.Drawing.SystemIcons]::Information
$n.Visible = $true
$n.ShowBalloonTip(10000, $env:REMINDER_TITLE, $env:REMINDER_BODY, 'Info')
Start-Sleep -Seconds 10
$n.Dispose()`

// DesktopNotifier shows a toast through the platform's notification tool.
type DesktopNotifier struct {
	build   func(title, body string) runner.Command
	timeout time.Duration
}

// NewDesktopNotifier picks notify-send, osascript or PowerShell depending on the OS.
// commandLine overrides the choice; title and body are passed to it as arguments.
func NewDesktopNotifier(commandLine string, timeout time.Duration) (*DesktopNotifier, error) {
	if commandLine != "" {
		return &DesktopNotifier{
			build: func(title, body string) runner.Command {
				return runner.Shell(commandLine, title, body)
			},
			timeout: timeout,
		}, nil
	}
	build, tool := platformToast(runtime.GOOS)
	if build == nil {
		return nil, fmt.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}
	if _, err := exec.LookPath(tool); err != nil {
		return nil, fmt.Errorf("desktop notifier %s not found: %w", tool, err)
	}
	return &DesktopNotifier{build: build, timeout: timeout}, nil
}

func (d *DesktopNotifier) Send(ctx context.Context, title, body string) error {
	if _, err := runner.Run(ctx, d.build(title, body), d.timeout); err != nil {
		return fmt.Errorf("show desktop notification: %w", err)
	}
	return nil
}

func platformToast(goos string) (func(title, body string) runner.Command, string) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return func(title, body string) runner.Command {
			return runner.Command{Name: "notify-send", Args: []string{"--app-name=smartreminder", title, body}}
		}, "notify-send"
	case "darwin":
		return func(title, body string) runner.Command {
			script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(body), appleScriptQuote(title))
			return runner.Command{Name: "osascript", Args: []string{"-e", script}}
		}, "osascript"
	case "windows":
		return func(title, body string) runner.Command {
			return runner.Command{
				Name: "powershell",
				Args: []string{"-NoProfile", "-NonInteractive", "-Command", windowsToastScript},
				Env:  []string{"REMINDER_TITLE=" + title, "REMINDER_BODY=" + body},
			}
		}, "powershell"
	default:
		return nil, ""
	}
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
