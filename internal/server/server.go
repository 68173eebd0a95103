// Package server exposes the word pipeline over HTTP. The two JSON
// endpoints are the compatibility contract; routing stays thin and all
// pipeline semantics live in internal/pipeline.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lexforge/lexforge/internal/config"
	"github.com/lexforge/lexforge/internal/domain"
	"github.com/lexforge/lexforge/internal/pipeline"
	"github.com/lexforge/lexforge/internal/ports"
)

// Server wires the HTTP surface around the pipeline service.
type Server struct {
	svc            *pipeline.Service
	engine         ports.InferenceEngine
	profiles       config.Profiles
	baseSampling   domain.SamplingConfig
	requestTimeout time.Duration
	log            zerolog.Logger
}

// New builds a Server. requestTimeout bounds each request end to end,
// covering admission wait and every generation attempt.
func New(
	svc *pipeline.Service,
	engine ports.InferenceEngine,
	profiles config.Profiles,
	baseSampling domain.SamplingConfig,
	requestTimeout time.Duration,
	log zerolog.Logger,
) *Server {
	return &Server{
		svc:            svc,
		engine:         engine,
		profiles:       profiles,
		baseSampling:   baseSampling,
		requestTimeout: requestTimeout,
		log:            log,
	}
}

// Router assembles the gin engine with logging and routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/v1/word", s.handleWord)
	r.POST("/v1/words", s.handleWords)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// handleHealth reports engine availability.
func (s *Server) handleHealth(c *gin.Context) {
	if !s.engine.Available(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "engine": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": true})
}
