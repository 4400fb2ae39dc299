package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/unihub/core/internal/adapters/google"
	httpHandlers "github.com/unihub/core/internal/adapters/http"
	"github.com/unihub/core/internal/adapters/repository"
	"github.com/unihub/core/internal/application/services"
	"github.com/unihub/core/internal/infrastructure/config"
	"github.com/unihub/core/internal/infrastructure/database"
	"github.com/unihub/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}

	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	authRepo := repository.NewAuthRepository(db)

	googleVerifier := google.NewVerifier(cfg.Google.ClientID)

	// Services
	contactService := services.NewContactService(db, contactRepo, accountRepo, notificationRepo, appLogger)
	authService := services.NewAuthService(db, accountRepo, authRepo, googleVerifier, contactService, cfg.JWT, appLogger)
	groupService := services.NewGroupService(db, groupRepo, contactRepo, appLogger)
	boardService := services.NewBoardService(db, boardRepo, contactRepo, groupRepo, appLogger)
	notificationService := services.NewNotificationService(notificationRepo, appLogger)
	studyService := services.NewStudyService(institutionRepo, courseRepo, categoryRepo, absenceRepo, assessmentRepo, appLogger)
	calendarService := services.NewCalendarService(calendarRepo, appLogger)

	// Handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	contactHandler := httpHandlers.NewContactHandler(contactService, appLogger)
	groupHandler := httpHandlers.NewGroupHandler(groupService, appLogger)
	boardHandler := httpHandlers.NewBoardHandler(boardService, appLogger)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService, appLogger)
	studyHandler := httpHandlers.NewStudyHandler(studyService, appLogger)
	calendarHandler := httpHandlers.NewCalendarHandler(calendarService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(authHandler, contactHandler, groupHandler, boardHandler, notificationHandler, studyHandler, calendarHandler, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	contactHandler *httpHandlers.ContactHandler,
	groupHandler *httpHandlers.GroupHandler,
	boardHandler *httpHandlers.BoardHandler,
	notificationHandler *httpHandlers.NotificationHandler,
	studyHandler *httpHandlers.StudyHandler,
	calendarHandler *httpHandlers.CalendarHandler,
	authService *services.AuthService,
) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger.json", func(c echo.Context) error {
		return c.File("docs/swagger.json")
	})

	auth := s.authMiddleware(authService)

	// Auth routes
	authGroup := s.echo.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/google", authHandler.GoogleLogin)
	authGroup.POST("/refresh", authHandler.RefreshToken)
	authGroup.POST("/logout", authHandler.Logout, auth)
	authGroup.DELETE("/account", authHandler.DeleteAccount, auth)

	// Contact routes
	contactGroup := s.echo.Group("/contato", auth)
	contactGroup.GET("", contactHandler.ListContacts)
	contactGroup.POST("", contactHandler.CreateContact)
	contactGroup.GET("/pesquisa", contactHandler.SearchContacts)
	contactGroup.GET("/pendentes", contactHandler.ListPendingInvitations)
	contactGroup.POST("/pendentes/:id/aceitar", contactHandler.AcceptInvitation)
	contactGroup.POST("/pendentes/:id/rejeitar", contactHandler.RejectInvitation)
	contactGroup.PUT("/:id", contactHandler.UpdateContact)
	contactGroup.DELETE("/:id", contactHandler.DeleteContact)

	// Group routes
	groupGroup := s.echo.Group("/api/grupos", auth)
	groupGroup.GET("", groupHandler.ListGroups)
	groupGroup.POST("", groupHandler.CreateGroup)
	groupGroup.GET("/pesquisa", groupHandler.SearchGroups)
	groupGroup.GET("/:id", groupHandler.GetGroup)
	groupGroup.PUT("/:id", groupHandler.UpdateGroup)
	groupGroup.DELETE("/:id", groupHandler.DeleteGroup)
	groupGroup.DELETE("/:id/sair", groupHandler.LeaveGroup)

	// Planning board routes
	boardGroup := s.echo.Group("/quadros-planejamento", auth)
	boardGroup.GET("", boardHandler.ListBoards)
	boardGroup.POST("", boardHandler.CreateBoard)
	boardGroup.GET("/:id", boardHandler.GetBoard)
	boardGroup.PUT("/:id", boardHandler.UpdateBoard)
	boardGroup.DELETE("/:id", boardHandler.DeleteBoard)
	boardGroup.PUT("/:id/tarefas/:taskId/status", boardHandler.UpdateTaskStatus)

	// Assessment routes
	assessmentGroup := s.echo.Group("/api/avaliacoes", auth)
	assessmentGroup.GET("", studyHandler.ListAssessments)
	assessmentGroup.POST("", studyHandler.CreateAssessment)
	assessmentGroup.GET("/pesquisa", studyHandler.SearchAssessments)
	assessmentGroup.GET("/:id", studyHandler.GetAssessment)
	assessmentGroup.PUT("/:id", studyHandler.UpdateAssessment)
	assessmentGroup.DELETE("/:id", studyHandler.DeleteAssessment)

	// Course routes
	courseGroup := s.echo.Group("/disciplinas", auth)
	courseGroup.GET("", studyHandler.ListCourses)
	courseGroup.POST("", studyHandler.CreateCourse)
	courseGroup.GET("/:id", studyHandler.GetCourse)
	courseGroup.PUT("/:id", studyHandler.UpdateCourse)
	courseGroup.DELETE("/:id", studyHandler.DeleteCourse)

	// Institution routes
	institutionGroup := s.echo.Group("/instituicoes", auth)
	institutionGroup.GET("", studyHandler.ListInstitutions)
	institutionGroup.POST("", studyHandler.CreateInstitution)
	institutionGroup.GET("/:id", studyHandler.GetInstitution)
	institutionGroup.PUT("/:id", studyHandler.UpdateInstitution)
	institutionGroup.DELETE("/:id", studyHandler.DeleteInstitution)

	// Category routes
	categoryGroup := s.echo.Group("/categorias", auth)
	categoryGroup.GET("", studyHandler.ListCategories)
	categoryGroup.POST("", studyHandler.CreateCategory)
	categoryGroup.GET("/:id", studyHandler.GetCategory)
	categoryGroup.PUT("/:id", studyHandler.UpdateCategory)
	categoryGroup.DELETE("/:id", studyHandler.DeleteCategory)

	// Absence routes
	absenceGroup := s.echo.Group("/ausencias", auth)
	absenceGroup.GET("", studyHandler.ListAbsences)
	absenceGroup.POST("", studyHandler.CreateAbsence)
	absenceGroup.GET("/:id", studyHandler.GetAbsence)
	absenceGroup.PUT("/:id", studyHandler.UpdateAbsence)
	absenceGroup.DELETE("/:id", studyHandler.DeleteAbsence)

	// Notification routes
	notificationGroup := s.echo.Group("/api/notificacoes", auth)
	notificationGroup.GET("", notificationHandler.ListNotifications)
	notificationGroup.GET("/config", notificationHandler.GetPreferences)
	notificationGroup.PUT("/config", notificationHandler.UpdatePreferences)
	notificationGroup.PUT("/:id/lida", notificationHandler.MarkRead)

	// Calendar link routes
	calendarGroup := s.echo.Group("/api/google/calendar", auth)
	calendarGroup.GET("/status", calendarHandler.Status)
	calendarGroup.POST("/connect", calendarHandler.Connect)
	calendarGroup.DELETE("/disconnect", calendarHandler.Disconnect)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		default:
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
