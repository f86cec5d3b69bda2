package speech

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
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

func TestWriterSpeaker(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSpeaker(&buf)
	require.NoError(t, s.Speak(context.Background(), "Reminder: stretch"))
	assert.Equal(t, "[Speaking]: Reminder: stretch\n", buf.String())
}

type failingSpeaker struct{}

func (failingSpeaker) Speak(ctx context.Context, text string) error {
	return errors.New("no audio device")
}

func TestMultiSpeakerJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	m := NewMultiSpeaker(failingSpeaker{}, NewWriterSpeaker(&buf), NoOpSpeaker{})
	err := m.Speak(context.Background(), "hello")
	assert.ErrorContains(t, err, "no audio device")
	assert.Equal(t, "[Speaking]: hello\n", buf.String())
}

func TestCommandSpeakerCustomCommand(t *testing.T) {
	skipOnWindows(t)
	out := filepath.Join(t.TempDir(), "spoken.txt")
	s, err := NewCommandSpeaker("printf '%s' >> "+out, time.Second)
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "Task added: call mom at 18:30"))
	require.NoError(t, s.Speak(context.Background(), "   "))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Task added: call mom at 18:30", string(data))
}

func TestPlatformVoice(t *testing.T) {
	build, tool := platformVoice("linux")
	require.NotNil(t, build)
	assert.Equal(t, "espeak", tool)
	assert.Equal(t, []string{"-s", "175", "--", "-hi"}, build("-hi").Args)

	build, _ = platformVoice("windows")
	assert.Contains(t, build("hi").Env, "REMINDER_SPEECH=hi")

	build, _ = platformVoice("plan9")
	assert.Nil(t, build)
}

func TestLineListener(t *testing.T) {
	var prompt bytes.Buffer
	l := NewLineListener(strings.NewReader("  add \n\nsix thirty pm\n"), &prompt)
	ctx := context.Background()

	text, err := l.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "add", text)

	_, err = l.Listen(ctx)
	assert.ErrorIs(t, err, ErrNoSpeech)

	text, err = l.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "six thirty pm", text)

	_, err = l.Listen(ctx)
	assert.ErrorIs(t, err, ErrListenerUnavailable)
	assert.Equal(t, "> > > > ", prompt.String())
}

func TestLineListenerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLineListener(strings.NewReader("add\n"), nil).Listen(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandListener(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	l, err := NewCommandListener("echo '  buy milk  '", time.Second)
	require.NoError(t, err)
	text, err := l.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", text)

	silent, err := NewCommandListener("true", time.Second)
	require.NoError(t, err)
	_, err = silent.Listen(ctx)
	assert.ErrorIs(t, err, ErrNoSpeech)

	slow, err := NewCommandListener("sleep 5", 100*time.Millisecond)
	require.NoError(t, err)
	_, err = slow.Listen(ctx)
	assert.ErrorIs(t, err, ErrNoSpeech)

	broken, err := NewCommandListener("exit 2", time.Second)
	require.NoError(t, err)
	_, err = broken.Listen(ctx)
	assert.ErrorIs(t, err, ErrListenerUnavailable)

	_, err = NewCommandListener(" ", time.Second)
	assert.ErrorIs(t, err, ErrListenerUnavailable)
}

func TestListDevices(t *testing.T) {
	skipOnWindows(t)
	devices, err := ListDevices(context.Background(), `printf 'Built-in Microphone\n\nUSB Headset\n'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Built-in Microphone", "USB Headset"}, devices)

	_, err = ListDevices(context.Background(), "")
	assert.ErrorIs(t, err, ErrListenerUnavailable)
}
