package runner

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

func TestRunCapturesStdout(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Shell("echo", "hello world"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestShellPassesArgumentsVerbatim(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Shell("printf '%s|'", "a b", "$HOME", `"q"`), time.Second)
	require.NoError(t, err)
	assert.Equal(t, `a b|$HOME|"q"|`, string(res.Stdout))
}

func TestShellForWindowsKeepsArgumentsOutOfTheLine(t *testing.T) {
	c := shellFor("windows", "say-it", `x" & calc & "`, "100%PATH%")

	assert.Equal(t, "cmd", c.Name)
	require.Len(t, c.Args, 3)
	assert.Equal(t, []string{"/V:ON", "/C"}, c.Args[:2])
	assert.Equal(t, `say-it "!REMINDER_ARG_1!" "!REMINDER_ARG_2!"`, c.Args[2])
	assert.NotContains(t, c.Args[2], "calc")
	assert.Equal(t, []string{`REMINDER_ARG_1=x" & calc & "`, "REMINDER_ARG_2=100%PATH%"}, c.Env)
}

func TestShellForPosix(t *testing.T) {
	c := shellFor("linux", "notify", "a b")
	assert.Equal(t, "/bin/sh", c.Name)
	assert.Equal(t, []string{"-c", `notify "$@"`, "sh", "a b"}, c.Args)
	assert.Empty(t, c.Env)
}

func TestRunNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Shell("echo oops >&2; exit 3"), time.Second)
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, err.Error(), "oops")
}

func TestRunTimeout(t *testing.T) {
	skipOnWindows(t)
	start := time.Now()
	_, err := Run(context.Background(), Shell("sleep 5"), 100*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunWithEnvAndStdin(t *testing.T) {
	skipOnWindows(t)
	c := Shell(`read line; echo "$GREETING $line"`)
	c.Env = []string{"GREETING=hi"}
	c.Stdin = strings.NewReader("there\n")
	res, err := Run(context.Background(), c, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", string(res.Stdout))
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"}, time.Second)
	assert.Error(t, err)
}
