package api

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"smartreminder/internal/core"
	"smartreminder/internal/speech"
	"smartreminder/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Reminders is the reminder service behind the web surface.
type Reminders interface {
	List(ctx context.Context) ([]core.Task, error)
	Add(ctx context.Context, text string, at core.ClockTime) (core.Task, int, error)
	AddPhrase(ctx context.Context, text, phrase string) (core.Task, int, error)
	AddPhraseOrSoon(ctx context.Context, text, phrase string) (core.Task, int, bool, error)
	DeleteAt(ctx context.Context, index int) (core.Task, error)
	Delete(ctx context.Context, id string) (core.Task, error)
	Preview(phrase string) (core.ClockTime, error)
}

// HistoryReader lists fired reminders, newest first.
type HistoryReader interface {
	ListFirings(ctx context.Context, limit, offset int) ([]*core.Firing, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr      string
	AuthToken string
	Reminders Reminders
	// History, Speaker, Listener and MCP are optional.
	History  HistoryReader
	Speaker  speech.Speaker
	Listener speech.Listener
	MCP      http.Handler
	Logger   *slog.Logger
	Location *time.Location
}

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	reminders  Reminders
	history    HistoryReader
	speaker    speech.Speaker
	listener   speech.Listener
	mcp        http.Handler
	logger     *slog.Logger
	location   *time.Location
	authToken  string
	page       *template.Template

	// voiceMu admits one voice dialogue at a time; there is one microphone.
	voiceMu sync.Mutex
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	page, err := web.IndexTemplate()
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		reminders: opts.Reminders,
		history:   opts.History,
		speaker:   opts.Speaker,
		listener:  opts.Listener,
		mcp:       opts.MCP,
		logger:    opts.Logger,
		location:  opts.Location,
		authToken: opts.AuthToken,
		page:      page,
	}
	if s.speaker == nil {
		s.speaker = speech.NoOpSpeaker{}
	}
	if s.location == nil {
		s.location = time.Local
	}
	router.Use(requestLogger(s.logger))
	s.registerRoutes(web.Files())

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(staticFS fs.FS) {
	fileServer := http.StripPrefix("/assets/", http.FileServer(http.FS(staticFS)))

	s.router.Handle("/assets/*", fileServer)
	s.router.Get("/healthz", s.handleHealth)

	// The page and its form routes; the page forwards ?token= to each call.
	s.router.Group(func(r chi.Router) {
		if s.authToken != "" {
			r.Use(AuthMiddleware(s.authToken))
		}
		r.Get("/", s.handleIndex)
		r.Post("/add_ajax", s.handleAddAjax)
		r.Post("/delete/{index}", s.handleDeleteAt)
		r.Post("/voice", s.handleVoice)
	})

	if s.mcp != nil {
		var mcpHandler = s.mcp
		if s.authToken != "" {
			mcpHandler = AuthMiddleware(s.authToken)(mcpHandler)
		}
		s.router.Handle("/mcp", mcpHandler)
	}

	s.router.Route("/v1", func(r chi.Router) {
		if s.authToken != "" {
			r.Use(AuthMiddleware(s.authToken))
		}

		r.Post("/time/parse", s.handleTimeParse)
		r.Get("/history", s.handleListHistory)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Delete("/{taskID}", s.handleDeleteTask)
		})
	})
}

type indexView struct {
	Tasks        []core.Task
	Location     string
	VoiceEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.reminders.List(r.Context())
	if err != nil {
		s.logger.Error("list tasks for index", "err", err)
		http.Error(w, "failed to load tasks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view := indexView{Tasks: tasks, Location: s.location.String(), VoiceEnabled: s.listener != nil}
	if err := s.page.Execute(w, view); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
