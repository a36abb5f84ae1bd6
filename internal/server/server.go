// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdiddy/medical-agent/internal/pipeline"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// Agent answers questions. *pipeline.Agent satisfies it.
type Agent interface {
	Ask(ctx context.Context, question string) types.Response
	Trace(ctx context.Context, question string) types.Trace
}

// Server routes HTTP requests to an Agent.
type Server struct {
	agent  Agent
	cfg    types.ServerConfig
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the router. The trace endpoint is only mounted when
// cfg.Debug is set.
func New(agent Agent, cfg types.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{agent: agent, cfg: cfg, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.cors())

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/ask", s.ask)
		if cfg.Debug {
			api.POST("/trace", s.trace)
		}
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr, "debug", s.cfg.Debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type askRequest struct {
	Question *string `json:"question"`
}

// question binds the request body and reports a 400 when the question is
// missing or blank.
func (s *Server) question(c *gin.Context) (string, bool) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return "", false
	}
	if req.Question == nil || strings.TrimSpace(*req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or empty 'question' field"})
		return "", false
	}
	return *req.Question, true
}

// ask handles POST /api/ask.
func (s *Server) ask(c *gin.Context) {
	q, ok := s.question(c)
	if !ok {
		return
	}
	resp := s.agent.Ask(c.Request.Context(), q)
	c.JSON(statusFor(resp), resp)
}

// trace handles POST /api/trace.
func (s *Server) trace(c *gin.Context) {
	q, ok := s.question(c)
	if !ok {
		return
	}
	tr := s.agent.Trace(c.Request.Context(), q)
	c.JSON(statusFor(tr.Final), tr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "agent": "ready"})
}

// statusFor maps a pipeline response to an HTTP status. Validation
// rejections are answers, not transport failures.
func statusFor(resp types.Response) int {
	if resp.ErrorKind == types.ErrorUnexpected {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(pipeline.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(RequestIDHeader),
		)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			switch {
			case slices.Contains(s.cfg.CORSOrigins, "*"):
				c.Header("Access-Control-Allow-Origin", "*")
			case slices.Contains(s.cfg.CORSOrigins, origin):
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
