package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
)

// Agent is the control surface consumed by the UI.
type Agent interface {
	Start(ctx context.Context, cfg domain.AgentConfig) error
	Stop(ctx context.Context) error
	RunOnce(ctx context.Context, cfg domain.AgentConfig) (domain.RunResult, error)
	Status() domain.AgentStatus
}

// LogReader exposes the activity log.
type LogReader interface {
	Entries(after uint64) []domain.LogEntry
}

type Server struct {
	agent      Agent
	logs       LogReader
	defaults   domain.AgentConfig
	runLimiter *rate.Limiter
	logger     *slog.Logger
}

// NewServer wires the agent; defaults fill fields that requests leave empty.
func NewServer(agent Agent, logs LogReader, defaults domain.AgentConfig, cfg config.ServerConfig, logger *slog.Logger) *Server {
	perMinute := cfg.RunRatePerMin
	if perMinute <= 0 {
		perMinute = 6
	}
	burst := cfg.RunBurst
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		agent:      agent,
		logs:       logs,
		defaults:   defaults,
		runLimiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
		logger:     logger,
	}
}

// NewRouter builds the gin engine with recovery, request logging and CORS.
func NewRouter(s *Server, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	} else {
		r.Use(cors.Default())
	}

	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1/agent")
	{
		v1.GET("/status", s.status)
		v1.GET("/logs", s.listLogs)
		v1.POST("/start", s.start)
		v1.POST("/stop", s.stop)
		v1.POST("/run", rateLimit(s.runLimiter), s.runOnce)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	respond(c, http.StatusOK, "ok", "success", s.agent.Status())
}

func (s *Server) listLogs(c *gin.Context) {
	var after uint64
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			respond(c, http.StatusBadRequest, "invalid_request", "after must be a non-negative integer", nil)
			return
		}
		after = n
	}
	respond(c, http.StatusOK, "ok", "success", s.logs.Entries(after))
}

func (s *Server) start(c *gin.Context) {
	cfg, ok := s.bindConfig(c)
	if !ok {
		return
	}

	err := s.agent.Start(c.Request.Context(), cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", "Agent démarré - recherche automatique activée", s.agent.Status())
}

func (s *Server) stop(c *gin.Context) {
	if err := s.agent.Stop(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", "Agent arrêté", s.agent.Status())
}

func (s *Server) runOnce(c *gin.Context) {
	cfg, ok := s.bindConfig(c)
	if !ok {
		return
	}

	result, err := s.agent.RunOnce(c.Request.Context(), cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}

	message := "success"
	switch {
	case result.Err != nil:
		message = result.Err.Error()
	case result.Report != nil:
		message = result.Report.Summary
	}
	respond(c, http.StatusOK, "ok", message, result)
}

// configRequest mirrors domain.AgentConfig; empty fields take the server defaults.
type configRequest struct {
	SourceToken     string `json:"sourceToken"`
	SinkBotToken    string `json:"sinkBotToken"`
	SinkChannelID   string `json:"sinkChannelId"`
	Category        string `json:"category"`
	IntervalMinutes int    `json:"intervalMinutes"`
}

func (s *Server) bindConfig(c *gin.Context) (domain.AgentConfig, bool) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return domain.AgentConfig{}, false
	}

	cfg := s.defaults
	if req.SourceToken != "" {
		cfg.SourceToken = req.SourceToken
	}
	if req.SinkBotToken != "" {
		cfg.SinkBotToken = req.SinkBotToken
	}
	if req.SinkChannelID != "" {
		cfg.SinkChannelID = req.SinkChannelID
	}
	if req.Category != "" {
		cfg.Category = domain.Category(req.Category)
	}
	if req.IntervalMinutes != 0 {
		cfg.IntervalMinutes = req.IntervalMinutes
	}

	cfg = cfg.Normalize()
	if !cfg.Category.Valid() {
		respond(c, http.StatusBadRequest, "invalid_category", "unsupported category "+string(cfg.Category), nil)
		return domain.AgentConfig{}, false
	}
	return cfg, true
}

func (s *Server) respondError(c *gin.Context, err error) {
	var cfgErr *domain.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		respond(c, http.StatusBadRequest, "config_error", "Veuillez remplir tous les champs", gin.H{"missing": cfgErr.Missing})
	case errors.Is(err, domain.ErrAgentRunning):
		respond(c, http.StatusConflict, "already_running", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond(c, http.StatusServiceUnavailable, "cancelled", err.Error(), nil)
	default:
		if s.logger != nil {
			s.logger.Error("control request failed", "path", c.FullPath(), "error", err)
		}
		respond(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func respond(c *gin.Context, status int, code, message string, data any) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limited",
				"message": "too many manual runs, retry later",
			})
			return
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(started),
		)
	}
}
