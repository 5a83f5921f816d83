package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/muurk/rfqedit/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	DataFile string // YAML file the store is persisted to (empty = memory only)
}

// Server serves the record and line table API from a Store.
type Server struct {
	config *Config
	store  *Store
	app    *fiber.App
}

// New creates a server. The store is loaded from config.DataFile when set.
func New(config *Config) (*Server, error) {
	store := NewStore()
	if config.DataFile != "" {
		var err error
		store, err = OpenStore(config.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}
	return NewWithStore(config, store), nil
}

// NewWithStore creates a server over an existing store.
func NewWithStore(config *Config, store *Store) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(requestLogger)

	s := &Server{config: config, store: store, app: app}
	s.routes()
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// App returns the fiber application, for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler adapts the server to net/http, for httptest.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Start listens and blocks until a shutdown signal or a listener error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logging.Info("Starting mock RFQ server",
		zap.String("addr", addr),
		zap.String("data_file", s.config.DataFile),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.app.Listen(addr)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		logging.Warn("Shutdown did not complete cleanly", zap.Error(err))
		return err
	}
	logging.Sync()
	return nil
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logging.Debug("Request served",
		zap.String("request_id", c.Get("X-Request-ID")),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status_code", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}
