package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Send(ctx context.Context, title, body string) error {
	s.calls++
	return s.err
}

func TestMultiNotifierTriesEveryBackend(t *testing.T) {
	failing := &stubNotifier{err: errors.New("boom")}
	ok := &stubNotifier{}
	m := NewMultiNotifier(failing, ok)

	err := m.Send(context.Background(), "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 2, m.Len())

	assert.NoError(t, NewMultiNotifier().Send(context.Background(), "t", "b"))
	assert.NoError(t, (&NoOpNotifier{}).Send(context.Background(), "t", "b"))
}

func TestBarkNotifierSend(t *testing.T) {
	var gotTitle, gotBody, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotTitle = r.URL.Query().Get("title")
		gotBody = r.URL.Query().Get("body")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBarkNotifier(srv.URL + "/devicekey/")
	require.NoError(t, err)
	require.NoError(t, b.Send(context.Background(), "⏰ Task Reminder", "drink water & stretch"))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/devicekey", gotPath)
	assert.Equal(t, "⏰ Task Reminder", gotTitle)
	assert.Equal(t, "drink water & stretch", gotBody)
}

func TestBarkNotifierErrors(t *testing.T) {
	_, err := NewBarkNotifier("  ")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	b, err := NewBarkNotifier(srv.URL)
	require.NoError(t, err)
	assert.ErrorContains(t, b.Send(context.Background(), "t", "b"), "400")
}

func TestDesktopNotifierCustomCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	out := filepath.Join(t.TempDir(), "toast.txt")
	d, err := NewDesktopNotifier(`printf '%s/%s' > `+out, time.Second)
	require.NoError(t, err)

	require.NoError(t, d.Send(context.Background(), "Title", "it's \"quoted\""))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `Title/it's "quoted"`, string(data))
}

func TestPlatformToast(t *testing.T) {
	build, tool := platformToast("darwin")
	require.NotNil(t, build)
	assert.Equal(t, "osascript", tool)
	cmd := build(`say "hi"`, "body")
	assert.Equal(t, []string{"-e", `display notification "body" with title "say \"hi\""`}, cmd.Args)

	build, tool = platformToast("linux")
	require.NotNil(t, build)
	assert.Equal(t, "notify-send", tool)
	assert.Equal(t, []string{"--app-name=smartreminder", "t", "b"}, build("t", "b").Args)

	build, _ = platformToast("windows")
	assert.Contains(t, build("t", "b").Env, "REMINDER_TITLE=t")

	build, _ = platformToast("plan9")
	assert.Nil(t, build)
}
