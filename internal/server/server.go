package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/korjavin/tgclasses/internal/classapi"
	"github.com/korjavin/tgclasses/internal/config"
	"github.com/korjavin/tgclasses/internal/identity"
	"github.com/korjavin/tgclasses/internal/viewstate"
)

// Server hosts the mini-app frontend: it binds each browser session to
// its own view-state engine and exposes the navigation and action
// surface over HTTP.
type Server struct {
	config       *config.Config
	validator    *identity.Validator
	sessionStore *sessions.CookieStore
	router       *http.ServeMux

	mu      sync.Mutex
	engines map[string]*viewstate.Engine
}

func New(cfg *config.Config) *Server {
	s := &Server{
		config:       cfg,
		validator:    identity.NewValidator(cfg.BotToken, cfg.InitDataMaxAge),
		sessionStore: sessions.NewCookieStore([]byte(cfg.SessionSecret)),
		router:       http.NewServeMux(),
		engines:      make(map[string]*viewstate.Engine),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Static files
	fs := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/", http.StripPrefix("/static/", fs))

	s.router.HandleFunc("/", s.handleApp)
	s.router.HandleFunc("/app", s.handleApp)
	s.router.HandleFunc("/healthz", s.handleHealthz)

	// Identity binding
	s.router.HandleFunc("/auth/telegram", s.handleAuthTelegram)

	// Mutating actions
	s.router.HandleFunc("/actions/create", s.handleCreate)
	s.router.HandleFunc("/actions/edit", s.handleEdit)
	s.router.HandleFunc("/actions/cancel", s.handleCancel)
	s.router.HandleFunc("/actions/rsvp", s.handleRSVP)
	s.router.HandleFunc("/actions/question", s.handleQuestion)
}

// Handler returns the router wrapped with CSRF protection for the form
// posts.
func (s *Server) Handler() http.Handler {
	protect := csrf.Protect(
		[]byte(s.config.SessionSecret),
		csrf.Secure(false), // mini-app host terminates TLS
		csrf.Path("/"),
	)
	return protect(s.router)
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

// engineFor returns the engine bound to the request's session, creating
// both on first contact. Each session's engine holds that viewer's
// snapshot, navigation state and containers.
func (s *Server) engineFor(w http.ResponseWriter, r *http.Request) *viewstate.Engine {
	session, _ := s.sessionStore.Get(r, "app-session")

	id, ok := session.Values["engine_id"].(string)
	if !ok || id == "" {
		id = uuid.New().String()
		session.Values["engine_id"] = id
		// Best effort; a failed save just means a fresh engine next time.
		_ = session.Save(r, w)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	eng, ok := s.engines[id]
	if !ok {
		eng = viewstate.NewEngine(classapi.New(s.config.APIBaseURL, s.config.HTTPTimeout))
		s.engines[id] = eng
	}
	return eng
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
