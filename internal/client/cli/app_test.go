package cli

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

func TestNewApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if app.client == nil || app.reader == nil {
		t.Fatalf("app not wired: %+v", app)
	}
}

func TestIsLoggedIn(t *testing.T) {
	if (&App{}).isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == false without user name")
	}
	if !(&App{userName: "alice"}).isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == true with user name")
	}
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	app := &App{}
	var buf bytes.Buffer

	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&buf)

	app.setMode(ModeOnline)
	if app.Mode != ModeOnline {
		t.Fatalf("expected mode to be %q, got %q", ModeOnline, app.Mode)
	}
	if got := buf.String(); got == "" {
		t.Fatalf("expected log output on mode change, got empty")
	}

	buf.Reset()

	app.setMode(ModeOnline)
	if got := buf.String(); got != "" {
		t.Fatalf("expected no log output when mode doesn't change, got: %q", got)
	}

	app.setMode(ModeOffline)
	if app.Mode != ModeOffline {
		t.Fatalf("expected mode to be %q, got %q", ModeOffline, app.Mode)
	}
}

func TestCheckOnline(t *testing.T) {
	f := &fakeClient{}
	app := &App{client: f}

	app.checkOnline(context.Background())
	if app.mode() != ModeOnline {
		t.Fatalf("want online, got %q", app.mode())
	}

	f.pingErr = errors.New("down")
	app.checkOnline(context.Background())
	if app.mode() != ModeOffline {
		t.Fatalf("want offline, got %q", app.mode())
	}
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	f := &fakeClient{}
	app := &App{client: f}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for app.mode() != ModeOnline {
		select {
		case <-deadline:
			t.Fatal("watcher never pinged")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
