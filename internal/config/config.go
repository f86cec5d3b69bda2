package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smartreminder/internal/core"

	"github.com/joho/godotenv"
)

// Run modes.
const (
	ModeCLI  = "cli"
	ModeHTTP = "http"
	ModeMCP  = "mcp"
	ModeBoth = "both"
)

// ServerConfig holds web server settings.
type ServerConfig struct {
	Addr      string
	AuthToken string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// BarkConfig holds Bark notification settings.
type BarkConfig struct {
	URL     string
	Enabled bool
}

// DesktopConfig holds desktop toast settings.
type DesktopConfig struct {
	Enabled bool
	// Command overrides the platform toast tool.
	Command string
}

// NotificationConfig holds all notification settings.
type NotificationConfig struct {
	Bark    BarkConfig
	Desktop DesktopConfig
}

// SpeechConfig holds text-to-speech and speech-to-text settings.
type SpeechConfig struct {
	Enabled bool
	// Command overrides the platform speech engine.
	Command string
	// ListenCommand prints one transcript on stdout per run. Empty means typed input.
	ListenCommand string
	ListenTimeout time.Duration
	// DevicesCommand prints one capture device per line.
	DevicesCommand string
}

// Config holds all runtime configuration options for the daemon.
type Config struct {
	Mode         string
	Server       ServerConfig
	Log          LogConfig
	Notification NotificationConfig
	Speech       SpeechConfig

	StateDir      string
	TaskFile      string
	CheckInterval time.Duration
	HistoryKeep   int
	UseUTC        bool
	ShutdownGrace time.Duration
}

const (
	defaultMode           = ModeCLI
	defaultAddr           = "127.0.0.1:5000"
	defaultLogLevel       = "info"
	defaultHistoryKeep    = 100
	defaultShutdownGrace  = 5 * time.Second
	defaultListenTimeout  = 7 * time.Second
	defaultDevicesCommand = "arecord -l"
	taskFileName          = "tasks.json"
)

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt returns the environment variable as int or default
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool returns the environment variable as bool or default
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Parse reads the process arguments and environment into Config.
func Parse() (*Config, error) {
	// .env files are optional: current directory first, then the config directory.
	envFiles := []string{}
	if _, err := os.Stat(".env"); err == nil {
		envFiles = append(envFiles, ".env")
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(configDir, "smartreminder", ".env")
		if _, err := os.Stat(path); err == nil {
			envFiles = append(envFiles, path)
		}
	}
	if len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}
	return ParseArgs(os.Args[1:])
}

// ParseArgs builds Config from args and the environment.
// Priority: CLI flags > environment variables > .env file > defaults
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{
		Mode: getEnvString("REMINDER_MODE", defaultMode),
		Server: ServerConfig{
			Addr:      getEnvString("REMINDER_ADDR", defaultAddr),
			AuthToken: getEnvString("REMINDER_AUTH_TOKEN", ""),
		},
		Log: LogConfig{
			Level: getEnvString("REMINDER_LOG_LEVEL", defaultLogLevel),
		},
		Notification: NotificationConfig{
			Bark: BarkConfig{
				URL:     getEnvString("REMINDER_BARK_URL", ""),
				Enabled: getEnvBool("REMINDER_BARK_ENABLED", false),
			},
			Desktop: DesktopConfig{
				Enabled: getEnvBool("REMINDER_DESKTOP_ENABLED", true),
				Command: getEnvString("REMINDER_DESKTOP_COMMAND", ""),
			},
		},
		Speech: SpeechConfig{
			Enabled:        getEnvBool("REMINDER_SPEECH_ENABLED", true),
			Command:        getEnvString("REMINDER_SPEECH_COMMAND", ""),
			ListenCommand:  getEnvString("REMINDER_LISTEN_COMMAND", ""),
			ListenTimeout:  getEnvDuration("REMINDER_LISTEN_TIMEOUT", defaultListenTimeout),
			DevicesCommand: getEnvString("REMINDER_DEVICES_COMMAND", defaultDevicesCommand),
		},
		StateDir:      getEnvString("REMINDER_STATE_DIR", ""),
		TaskFile:      getEnvString("REMINDER_TASK_FILE", ""),
		CheckInterval: getEnvDuration("REMINDER_CHECK_INTERVAL", core.DefaultCheckInterval),
		HistoryKeep:   getEnvInt("REMINDER_HISTORY_KEEP", defaultHistoryKeep),
		UseUTC:        getEnvBool("REMINDER_USE_UTC", false),
		ShutdownGrace: getEnvDuration("REMINDER_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	fs := flag.NewFlagSet("reminderd", flag.ContinueOnError)
	var (
		mode, addr, logLevel, stateDir, taskFile string
		listenCommand                            string
		checkInterval, shutdownGrace             time.Duration
		historyKeep                              int
		useUTC, quiet                            bool
	)
	fs.StringVar(&mode, "mode", "", "Run mode: cli, http, mcp or both")
	fs.StringVar(&addr, "addr", "", "HTTP listen address (overrides env)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&stateDir, "state-dir", "", "Directory for the task file and history database")
	fs.StringVar(&taskFile, "task-file", "", "Path of the JSON task file (default <state-dir>/tasks.json)")
	fs.StringVar(&listenCommand, "listen-command", "", "Speech-to-text command; empty reads typed input")
	fs.DurationVar(&checkInterval, "check-interval", 0, "How often the reminder loop checks the clock (1s-60s)")
	fs.DurationVar(&shutdownGrace, "shutdown-grace", 0, "Grace period when shutting down")
	fs.IntVar(&historyKeep, "history-keep", 0, "Number of fired reminders to keep in history")
	fs.BoolVar(&useUTC, "use-utc", false, "Match reminder times in UTC instead of local time")
	fs.BoolVar(&quiet, "quiet", false, "Disable text-to-speech")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if mode != "" {
		cfg.Mode = mode
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if taskFile != "" {
		cfg.TaskFile = taskFile
	}
	if listenCommand != "" {
		cfg.Speech.ListenCommand = listenCommand
	}
	if historyKeep > 0 {
		cfg.HistoryKeep = historyKeep
	}
	// For bool and duration flags, check if explicitly set via fs.Visit
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "use-utc":
			cfg.UseUTC = useUTC
		case "quiet":
			cfg.Speech.Enabled = !quiet
		case "check-interval":
			cfg.CheckInterval = checkInterval
		case "shutdown-grace":
			cfg.ShutdownGrace = shutdownGrace
		}
	})

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch cfg.Mode {
	case ModeCLI, ModeHTTP, ModeMCP, ModeBoth:
	default:
		return nil, fmt.Errorf("invalid mode %q (valid: cli, http, mcp, both)", cfg.Mode)
	}

	if cfg.Notification.Bark.URL != "" && !cfg.Notification.Bark.Enabled {
		if _, set := os.LookupEnv("REMINDER_BARK_ENABLED"); !set {
			cfg.Notification.Bark.Enabled = true
		}
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default state dir: %w", err)
		}
		cfg.StateDir = dir
	}
	if cfg.TaskFile == "" {
		cfg.TaskFile = filepath.Join(cfg.StateDir, taskFileName)
	}

	cfg.CheckInterval = core.ClampInterval(cfg.CheckInterval)
	if cfg.HistoryKeep < 1 {
		cfg.HistoryKeep = defaultHistoryKeep
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = defaultShutdownGrace
	}
	if cfg.Speech.ListenTimeout <= 0 {
		cfg.Speech.ListenTimeout = defaultListenTimeout
	}

	return cfg, nil
}

func defaultStateDir() (string, error) {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(baseDir, "smartreminder")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
