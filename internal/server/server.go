// =============================================================================
// Purchase Order Form Engine - HTTP Editor API
// =============================================================================
//
// The editor API exposes the form engine over HTTP. Requests are stateless:
// every request that works on a form carries the complete form HTML and
// receives the updated HTML back.
//
// ROUTES:
//   GET  /                 default form
//   GET  /api/template     default form
//   GET  /api/generate     random field map
//   POST /api/export       form HTML -> XML
//   POST /api/reorder      swap columns, rows, sections or pair members
//   POST /api/populate     fill from random, chatgpt or explicit fields
//   POST /api/edit         set one field and recalculate dependents
//   POST /api/validate     filled/empty report and warnings
//   ANY  /api/chatgpt      OpenAI chat-completions proxy (POST only)
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/purchase-order-xml/internal/calc"
	"github.com/ginjaninja78/purchase-order-xml/internal/config"
	"github.com/ginjaninja78/purchase-order-xml/internal/converter"
	"github.com/ginjaninja78/purchase-order-xml/internal/llm"
	"github.com/ginjaninja78/purchase-order-xml/internal/populate"
	"github.com/ginjaninja78/purchase-order-xml/internal/reorder"
)

// Server wires the editor components to gin handlers.
type Server struct {
	cfg       *config.MainConfig
	exporter  *converter.Exporter
	engine    *reorder.Engine
	calc      *calc.Calculator
	populator *populate.Populator
	llm       *llm.Client
	logger    *zap.Logger
}

// New creates a Server. The exporter provides the shared column mapper and
// section locator; the reorder engine refreshes open previews through it.
// A nil client leaves the OpenAI routes unconfigured.
func New(cfg *config.MainConfig, exporter *converter.Exporter, client *llm.Client, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultMainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = llm.New(llm.Config{}, logger)
	}
	mapper, locator := exporter.Mapper(), exporter.Locator()
	calculator := calc.New(mapper, locator, logger)

	engine := reorder.New(reorder.Policy{
		AllowRowReorder:  cfg.Editor.AllowRowReorder,
		DragOverDebounce: cfg.Editor.DragOverDebounce,
	}, mapper, calculator, logger)
	engine.SetPreviewer(exporter)

	return &Server{
		cfg:       cfg,
		exporter:  exporter,
		engine:    engine,
		calc:      calculator,
		populator: populate.New(mapper, locator, logger),
		llm:       client,
		logger:    logger,
	}
}

// CORSConfig builds the CORS policy from the allowed origins.
func CORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	return corsConfig
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(CORSConfig(s.cfg.Server.AllowedOrigins)))

	r.GET("/", s.Template())

	api := r.Group("/api")
	api.GET("/template", s.Template())
	api.GET("/generate", s.Generate())
	api.POST("/export", s.Export())
	api.POST("/reorder", s.Reorder())
	api.POST("/populate", s.Populate())
	api.POST("/edit", s.Edit())
	api.POST("/validate", s.Validate())
	api.Any("/chatgpt", s.ChatGPT())

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("editor API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
