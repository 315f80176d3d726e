package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"torn_tools/internal/app"
	"torn_tools/internal/config"
	"torn_tools/internal/processing"
	"torn_tools/internal/render"
	"torn_tools/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Authenticator is the login state used by the handlers
type Authenticator interface {
	Login(ctx context.Context, apiKey string) (session.State, error)
	CurrentUser(ctx context.Context) (session.State, error)
	APIKey(ctx context.Context, fallback string) (string, error)
	Logout(ctx context.Context) error
}

// LoaderFactory builds a war status loader for an API key
type LoaderFactory func(apiKey string) processing.WarStatusLoader

// Server serves the warhits page and its JSON API
type Server struct {
	engine    *gin.Engine
	srv       *http.Server
	auth      Authenticator
	newLoader LoaderFactory
	renderer  *render.Renderer
}

// NewServer wires the routes onto a fresh gin engine
func NewServer(addr string, auth Authenticator, newLoader LoaderFactory, renderer *render.Renderer) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(AccessLog())

	s := &Server{
		engine:    engine,
		auth:      auth,
		newLoader: newLoader,
		renderer:  renderer,
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: config.ServerReadHeaderTimeout,
			ReadTimeout:       config.ServerReadTimeout,
			WriteTimeout:      config.ServerWriteTimeout,
			IdleTimeout:       config.ServerIdleTimeout,
		},
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/warhits")
	})
	engine.GET("/warhits", s.handleWarhitsPage)
	engine.GET("/api/warhits", s.handleWarhitsJSON)
	engine.GET("/api/session", s.handleSession)
	engine.POST("/login", s.handleLogin)
	engine.POST("/logout", s.handleLogout)

	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.srv.Addr).
		Msg("HTTP server listening")
	return s.srv.ListenAndServe()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// loadStatus aggregates the war status for the stored key. ok is false when
// nobody is logged in.
func (s *Server) loadStatus(ctx context.Context) (*app.WarStatus, bool, error) {
	apiKey, err := s.auth.APIKey(ctx, "")
	if err != nil {
		return nil, false, err
	}
	if apiKey == "" {
		return nil, false, nil
	}
	return s.newLoader(apiKey).Load(ctx), true, nil
}

func (s *Server) writePage(c *gin.Context, code int, auth render.AuthView, status *app.WarStatus) {
	var buf bytes.Buffer
	if err := s.renderer.RenderPage(&buf, auth, status); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(code, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleWarhitsPage(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := s.auth.CurrentUser(ctx)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to read session")
		return
	}

	auth := render.AuthView{LoggedIn: state.LoggedIn, Username: state.Username}
	if !state.LoggedIn {
		s.writePage(c, http.StatusOK, auth, nil)
		return
	}

	status, _, err := s.loadStatus(ctx)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to read session")
		return
	}
	s.writePage(c, http.StatusOK, auth, status)
}

func (s *Server) handleWarhitsJSON(c *gin.Context) {
	status, ok, err := s.loadStatus(c.Request.Context())
	switch {
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
	case !ok:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
	case status.Failed():
		c.JSON(http.StatusBadGateway, status)
	default:
		c.JSON(http.StatusOK, status)
	}
}

func (s *Server) handleSession(c *gin.Context) {
	state, err := s.auth.CurrentUser(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleLogin(c *gin.Context) {
	_, err := s.auth.Login(c.Request.Context(), c.PostForm("api_key"))
	if errors.Is(err, session.ErrEmptyAPIKey) {
		s.writePage(c, http.StatusBadRequest, render.AuthView{Error: err.Error()}, nil)
		return
	}
	if err != nil {
		_ = c.Error(err)
		s.writePage(c, http.StatusInternalServerError, render.AuthView{Error: "Failed to save API key"}, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, "/warhits")
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to log out")
		return
	}
	c.Redirect(http.StatusSeeOther, "/warhits")
}
