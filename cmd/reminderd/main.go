package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartreminder/internal/api"
	"smartreminder/internal/config"
	"smartreminder/internal/console"
	"smartreminder/internal/core"
	"smartreminder/internal/logging"
	remindermcp "smartreminder/internal/mcp"
	"smartreminder/internal/notify"
	"smartreminder/internal/speech"
	"smartreminder/internal/store"
)

const backendTimeout = 30 * time.Second

// app holds the components shared by every run mode.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	service   *core.Service
	scheduler *core.Scheduler
	history   *store.History
	location  *time.Location
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	// stdout carries console prompts in cli mode and the protocol in mcp modes.
	logOut := io.Writer(os.Stdout)
	if cfg.Mode != config.ModeHTTP {
		logOut = os.Stderr
	}
	logger := logging.NewWithWriter(logOut, cfg.Log.Level)

	baseCtx := context.Background()
	tasks, err := store.OpenTaskFile(cfg.TaskFile)
	if err != nil {
		logger.Error("open task file", "path", cfg.TaskFile, "err", err)
		os.Exit(1)
	}
	history, err := store.OpenHistory(baseCtx, cfg.StateDir, cfg.HistoryKeep)
	if err != nil {
		logger.Error("open history", "err", err)
		os.Exit(1)
	}
	defer history.Close()

	location := time.Local
	if cfg.UseUTC {
		location = time.UTC
	}

	// Reminders are echoed to stdout only where stdout belongs to the user.
	var echo io.Writer
	if cfg.Mode == config.ModeCLI || cfg.Mode == config.ModeHTTP {
		echo = os.Stdout
	}
	notifier := buildNotifier(cfg, logger)
	speaker := buildSpeaker(cfg, logger, echo)
	alerter := core.NewAlerter(notifier, speaker, history, logger)
	service := core.NewService(tasks, alerter, logger, location)
	scheduler := core.NewScheduler(tasks, alerter, logger, location, cfg.CheckInterval)

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	scheduler.Start(ctx)
	logger.Info("smart reminder started", "mode", cfg.Mode, "task_file", tasks.Path())

	a := &app{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		scheduler: scheduler,
		history:   history,
		location:  location,
	}

	switch cfg.Mode {
	case config.ModeCLI:
		runCLIMode(a, speaker, ctx, cancel)
	case config.ModeHTTP:
		runHTTPMode(a, speaker, ctx, cancel)
	case config.ModeMCP:
		runMCPMode(a, ctx, cancel)
	case config.ModeBoth:
		runBothMode(a, speaker, ctx, cancel)
	}

	a.stopScheduler()
}

// runCLIMode runs the voice console in the foreground.
func runCLIMode(a *app, speaker speech.Speaker, ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			a.logger.Info("received signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	c := console.New(console.Options{
		Tasks:          a.service,
		Speaker:        speaker,
		Listener:       buildListener(a.cfg, os.Stdin, os.Stdout, a.logger),
		Out:            os.Stdout,
		DevicesCommand: a.cfg.Speech.DevicesCommand,
		Logger:         a.logger,
	})
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("console", "err", err)
	}
	cancel()
}

// runHTTPMode starts only the HTTP server.
func runHTTPMode(a *app, speaker speech.Speaker, ctx context.Context, cancel context.CancelFunc) {
	server, err := a.newHTTPServer(speaker, nil)
	if err != nil {
		a.logger.Error("create server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		a.logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		a.logger.Error("server error", "err", err)
	}

	a.shutdownServer(server)
	cancel()
}

// runMCPMode serves the MCP tools on stdio.
func runMCPMode(a *app, ctx context.Context, cancel context.CancelFunc) {
	mcpServer := remindermcp.NewMCPServer(a.service, a.history, a.logger, a.location)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	mcpErr := make(chan error, 1)
	go func() {
		mcpErr <- mcpServer.Run()
	}()

	select {
	case sig := <-sigs:
		a.logger.Info("received signal, shutting down...", "signal", sig.String())
	case err := <-mcpErr:
		if err != nil {
			a.logger.Error("mcp server error", "err", err)
		}
	}
	cancel()
}

// runBothMode starts the HTTP server and the MCP stdio server.
func runBothMode(a *app, speaker speech.Speaker, ctx context.Context, cancel context.CancelFunc) {
	mcpServer := remindermcp.NewMCPServer(a.service, a.history, a.logger, a.location)
	mcpErr := make(chan error, 1)
	go func() {
		if err := mcpServer.Run(); err != nil {
			mcpErr <- err
		}
	}()

	server, err := a.newHTTPServer(speaker, mcpServer)
	if err != nil {
		a.logger.Error("create server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		a.logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		a.logger.Error("server error", "err", err)
	case err := <-mcpErr:
		a.logger.Error("mcp server error", "err", err)
	}

	a.shutdownServer(server)
	cancel()
	// The MCP stdio server ends with the process.
	a.logger.Info("shutdown complete")
}

func (a *app) newHTTPServer(speaker speech.Speaker, mcpServer *remindermcp.MCPServer) (*api.Server, error) {
	if mcpServer == nil {
		mcpServer = remindermcp.NewMCPServer(a.service, a.history, a.logger, a.location)
	}
	opts := api.Options{
		Addr:      a.cfg.Server.Addr,
		AuthToken: a.cfg.Server.AuthToken,
		Reminders: a.service,
		History:   a.history,
		Speaker:   speaker,
		MCP:       mcpServer,
		Logger:    a.logger,
		Location:  a.location,
	}
	// Voice on the web needs a capture command; stdin is not a microphone.
	if a.cfg.Speech.ListenCommand != "" {
		opts.Listener = buildListener(a.cfg, nil, nil, a.logger)
	}
	return api.NewServer(opts)
}

func (a *app) shutdownServer(server *api.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", "err", err)
	}
}

func (a *app) stopScheduler() {
	stopCtx := a.scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(a.cfg.ShutdownGrace):
		a.logger.Warn("scheduler stop timed out")
	}
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) core.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notification.Desktop.Enabled {
		desktop, err := notify.NewDesktopNotifier(cfg.Notification.Desktop.Command, backendTimeout)
		if err != nil {
			logger.Warn("desktop notifications disabled", "err", err)
		} else {
			notifiers = append(notifiers, desktop)
		}
	}
	if cfg.Notification.Bark.Enabled {
		bark, err := notify.NewBarkNotifier(cfg.Notification.Bark.URL)
		if err != nil {
			logger.Warn("bark notifications disabled", "err", err)
		} else {
			notifiers = append(notifiers, bark)
		}
	}
	if len(notifiers) == 0 {
		logger.Info("no notification backend configured")
		return &notify.NoOpNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

// buildSpeaker combines the speech engine with an optional text echo.
func buildSpeaker(cfg *config.Config, logger *slog.Logger, echo io.Writer) speech.Speaker {
	var speakers []speech.Speaker
	if echo != nil {
		speakers = append(speakers, speech.NewWriterSpeaker(echo))
	}
	if cfg.Speech.Enabled {
		engine, err := speech.NewCommandSpeaker(cfg.Speech.Command, backendTimeout)
		if err != nil {
			logger.Warn("text-to-speech disabled", "err", err)
		} else {
			speakers = append(speakers, engine)
		}
	}
	if len(speakers) == 0 {
		return speech.NoOpSpeaker{}
	}
	return speech.NewMultiSpeaker(speakers...)
}

// buildListener prefers the speech-to-text command and falls back to typed
// lines from in. A nil in means no fallback.
func buildListener(cfg *config.Config, in io.Reader, prompt io.Writer, logger *slog.Logger) speech.Listener {
	if cfg.Speech.ListenCommand != "" {
		l, err := speech.NewCommandListener(cfg.Speech.ListenCommand, cfg.Speech.ListenTimeout)
		if err == nil {
			return l
		}
		logger.Warn("speech-to-text disabled", "err", err)
	}
	if in == nil {
		return nil
	}
	logger.Info("reading commands from standard input")
	return speech.NewLineListener(in, prompt)
}
