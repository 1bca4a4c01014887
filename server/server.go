package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/mailpress/mailpress/api"
	"github.com/mailpress/mailpress/config"
	"github.com/mailpress/mailpress/internal/cron"
	"github.com/mailpress/mailpress/internal/logger"
	"github.com/mailpress/mailpress/internal/models"
	"github.com/mailpress/mailpress/internal/tracing"
	"github.com/mailpress/mailpress/services"
)

// Server runs the daemon mode: scheduled ingestion plus a small status
// API for operators.
type Server struct {
	config       *config.Config
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	cronManager  *cron.CronManager
	tracerCloser io.Closer

	reportMutex sync.RWMutex
	lastReport  *models.RunReport
}

func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize services
	svcs := services.InitServices(cfg, appLogger)

	cronManager := cron.NewCronManager(cfg, appLogger, svcs.PipelineService)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		router:       router,
		services:     svcs,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize(ctx context.Context) error {
	s.cronManager.OnReport(s.storeReport)

	api.RegisterRoutes(ctx, s.router, s.services, s.config.AppConfig.APIKey, s.getReport, s.storeReport)
	return nil
}

func (s *Server) storeReport(report *models.RunReport) {
	s.reportMutex.Lock()
	s.lastReport = report
	s.reportMutex.Unlock()
}

func (s *Server) getReport() *models.RunReport {
	s.reportMutex.RLock()
	defer s.reportMutex.RUnlock()
	return s.lastReport
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)
		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		log.Printf("❌ Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Initialize(ctx); err != nil {
		return err
	}

	log.Println("Starting cron manager...")
	if err := s.cronManager.StartCron(); err != nil {
		return err
	}

	go func() {
		s.wrapGoroutine("http_server", func() {
			log.Printf("Status API listening on %s", s.httpServer.Addr)
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("❌ HTTP server error: %v", err)
			}
		})
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	s.cronManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	if s.tracerCloser != nil {
		_ = s.tracerCloser.Close()
	}

	return nil
}
