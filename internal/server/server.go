package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taylorbuilt/drawline/internal/config"
	"github.com/taylorbuilt/drawline/internal/invoicedoc"
	projectdomain "github.com/taylorbuilt/drawline/internal/project/domain"
	"github.com/taylorbuilt/drawline/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	l := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	billing    *config.BillingConfigHolder
	projectSvc projectdomain.Service
	assembler  *invoicedoc.Assembler
	renderer   pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Billing    *config.BillingConfigHolder
	ProjectSvc projectdomain.Service
	Assembler  *invoicedoc.Assembler
	Renderer   pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		billing:    p.Billing,
		projectSvc: p.ProjectSvc,
		assembler:  p.Assembler,
		renderer:   p.Renderer,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/projects", s.InitializeProject)
	api.GET("/projects", s.ListProjects)
	api.POST("/projects/import", s.ImportProject)
	api.GET("/projects/:id", s.GetProject)
	api.DELETE("/projects/:id", s.DeleteProject)
	api.GET("/projects/:id/export", s.ExportProject)

	api.POST("/projects/:id/calculate", s.CalculateDraw)
	api.POST("/projects/:id/draws", s.CreateDraw)
	api.POST("/projects/:id/holdback/release", s.ReleaseHoldback)
	api.POST("/projects/:id/draws/:num/paid", s.MarkDrawPaid)
	api.GET("/projects/:id/draws/:num/pdf", s.RenderDrawPDF)
}
