// Package api exposes the advisor-facing HTTP surface of the systematic
// order gateway.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/internal/orders"
)

// Server is the inbound API server.
type Server struct {
	router    *gin.Engine
	logger    *zap.Logger
	orders    *orders.Service
	jwtSecret string
}

// NewServer creates the API server with the order orchestrator injected.
func NewServer(logger *zap.Logger, ordersSvc *orders.Service, jwtSecret string) *Server {
	server := &Server{
		logger:    logger,
		orders:    ordersSvc,
		jwtSecret: jwtSecret,
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	public := s.router.Group("/api/v1")
	{
		public.GET("/metrics", gin.WrapH(promhttp.Handler()))
		public.GET("/health", s.healthCheck)
	}

	protected := s.router.Group("/api/v1")
	protected.Use(s.advisorAuth())
	{
		protected.POST("/orders", s.registerOrder)
		protected.POST("/orders/:id/cancel", s.cancelOrder)
		protected.GET("/orders/:id/installments", s.installmentHistory)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
