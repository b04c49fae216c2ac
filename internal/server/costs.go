package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/logging"
)

type costsResponse struct {
	Summary cost.DaySummary `json:"summary"`
	Alert   cost.Alert      `json:"alert"`
}

func (s *Server) costsToday(c *gin.Context) {
	s.respondDay(c, s.ledger.Today())
}

func (s *Server) costsDay(c *gin.Context) {
	s.respondDay(c, c.Param("date"))
}

func (s *Server) respondDay(c *gin.Context, date string) {
	summary, err := s.ledger.Day(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, cost.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logging.FromContext(c.Request.Context(), s.log).Error("failed to read cost ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cost ledger unavailable"})
		return
	}
	c.JSON(http.StatusOK, costsResponse{
		Summary: summary,
		Alert:   s.ledger.Alert(summary.TotalCost),
	})
}

func (s *Server) costsReset(c *gin.Context) {
	if err := s.ledger.Reset(c.Request.Context()); err != nil {
		logging.FromContext(c.Request.Context(), s.log).Error("failed to reset cost ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cost ledger unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "date": s.ledger.Today()})
}
