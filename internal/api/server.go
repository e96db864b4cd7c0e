package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/hanyuejun/health-recorder/internal/config"
	"github.com/hanyuejun/health-recorder/internal/exercise"
	"github.com/hanyuejun/health-recorder/internal/journal"
)

// Server handles the HTTP API
type Server struct {
	app       *fiber.App
	config    *config.Config
	journal   *journal.Service
	exercises *exercise.Service
	logger    *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, journalSvc *journal.Service, exerciseSvc *exercise.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:       app,
		config:    cfg,
		journal:   journalSvc,
		exercises: exerciseSvc,
		logger:    log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Middleware
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	if s.config.Server.RateLimit > 0 {
		s.app.Use(s.rateLimitMiddleware(s.config.Server.RateLimit))
	}
	s.app.Use(s.metricsMiddleware())

	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Health Recorder API is running"})
	})
	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/api/metrics", s.handleMetricsJSON)

	api := s.app.Group("/api")

	// Records
	records := api.Group("/records")
	records.Get("/", s.handleListRecords)
	records.Post("/", s.handleCreateRecord)
	records.Get("/range", s.handleRecordsInRange)
	records.Get("/export_excel", s.handleExportExcel)
	records.Get("/:date/:time_of_day", s.handleGetRecord)
	records.Delete("/:id", s.handleDeleteRecord)

	// Daily summaries
	summaries := api.Group("/summaries")
	summaries.Get("/:date", s.handleGetSummary)
	summaries.Post("/", s.handleUpsertSummary)

	// Exercises
	exercises := api.Group("/exercises")
	exercises.Get("/config", s.handleGetExerciseConfig)
	exercises.Post("/config", s.handleUpdateExerciseConfig)
	exercises.Get("/logs", s.handleListExerciseLogs)
	exercises.Get("/export", s.handleExportMarkdown)
	exercises.Get("/logs/:date", s.handleGetExerciseLog)
	exercises.Post("/logs/:date", s.handleSaveExerciseLog)
	exercises.Delete("/logs/:date", s.handleDeleteExerciseLog)
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
