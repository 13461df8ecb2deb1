package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finvera/wealthgate/internal/orders"
	"github.com/finvera/wealthgate/pkg/errors"
)

// registerOrder handles POST /api/v1/orders
func (s *Server) registerOrder(c *gin.Context) {
	var req orders.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.orders.Register(c.Request.Context(), advisorID(c), &req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// cancelOrder handles POST /api/v1/orders/:id/cancel
func (s *Server) cancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	result, err := s.orders.Cancel(c.Request.Context(), advisorID(c), orderID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// installmentHistory handles GET /api/v1/orders/:id/installments
func (s *Server) installmentHistory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	children, err := s.orders.InstallmentHistory(c.Request.Context(), advisorID(c), orderID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installments": children})
}

// renderError maps the error taxonomy to HTTP statuses. Fatal submission
// failures keep the order id visible so operators can find the recoverable
// CREATED record.
func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	var typed *errors.Error
	if errors.As(err, &typed) {
		c.JSON(status, gin.H{"error": typed.Message, "kind": typed.Kind})
		return
	}
	c.JSON(status, gin.H{"error": "internal error"})
}
