package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// APIServer wraps the Fiber engine and its listen address
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer creates the HTTP server
func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:   "vetcase-api",
			BodyLimit: 25 << 20, // slide uploads
		}),
		listenAddress: listenAddress,
	}
}

// GetEngine exposes the underlying Fiber app for route registration
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run starts listening; blocks until the server stops
func (s *APIServer) Run() error {
	log.Printf("Starting API server on %s", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown gracefully stops the server
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
