package mockapi

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"

	"seostrategy-go/pkg/logger"
)

// Config controls the mock backend.
type Config struct {
	// Secret signs access tokens. A random secret is generated when empty.
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Logger     *logger.Logger
}

// Server emulates the SEO strategy backend: the auth endpoints under
// /api/auth plus the analysis and blueprint endpoints. State lives in
// memory.
type Server struct {
	app    *fiber.App
	users  *userStore
	tokens *tokenIssuer
	log    *logger.Logger
}

func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = time.Hour
	}

	s := &Server{
		users:  newUserStore(config.BcryptCost),
		tokens: newTokenIssuer(config.Secret, config.TokenTTL),
		log:    log.Component("mockapi"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "seostrategy-mockapi",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := s.app.Group("/api/auth")
	auth.Post("/login", s.login)
	auth.Post("/register", s.register)
	auth.Post("/forgot-password", s.forgotPassword)
	auth.Post("/reset-password", s.resetPassword)
	auth.Post("/verify-email", s.verifyEmail)
	auth.Get("/me", s.requireAuth, s.getProfile)
	auth.Put("/me", s.requireAuth, s.updateProfile)
	auth.Post("/change-password", s.requireAuth, s.changePassword)

	s.app.Post("/api/process", s.process)
	s.app.Post("/api/blueprints/generate", s.generateBlueprint)
}

// App exposes the fiber app, mainly for app.Test in unit tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("Mock API listening")
	return s.app.Listen(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.WithFields(map[string]interface{}{
		"method":      c.Method(),
		"path":        c.Path(),
		"status":      c.Response().StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Request served")
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.WithError(err).Error("Request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
