package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/logging"
	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/prompt"
	"github.com/alnah/go-contentflow/internal/recycle"
)

type recycleResponse struct {
	Success         bool             `json:"success"`
	RecycledContent content.Bundle   `json:"recycledContent"`
	CostData        cost.Breakdown   `json:"costData"`
	Metrics         recycleMetrics   `json:"metrics"`
	FailedPlatforms []failedPlatform `json:"failedPlatforms,omitempty"`
}

type recycleMetrics struct {
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

type failedPlatform struct {
	Platform string `json:"platform"`
	Error    string `json:"error"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) recycle(c *gin.Context) {
	start := s.now()
	log := logging.FromContext(c.Request.Context(), s.log)

	var req recycle.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res, err := s.rec.Recycle(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, prompt.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Error("recycling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "recycling failed"})
		return
	}

	resp := recycleResponse{
		Success:         true,
		RecycledContent: res.Bundle,
		CostData:        res.Cost,
		Metrics:         recycleMetrics{ProcessingTimeMs: s.now().Sub(start).Milliseconds()},
	}
	for _, f := range res.Failed {
		resp.FailedPlatforms = append(resp.FailedPlatforms, failedPlatform{
			Platform: f.Platform.String(),
			Error:    f.Err.Error(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

type platformInfo struct {
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
	MaxCharacters int    `json:"maxCharacters"`
	HashtagLimit  int    `json:"hashtagLimit"`
	Shape         string `json:"shape"`
	Description   string `json:"description"`
}

// recycleInfo describes the recycling endpoint.
func (s *Server) recycleInfo(c *gin.Context) {
	platforms := platform.Recyclable()
	info := make([]platformInfo, 0, len(platforms))
	for _, p := range platforms {
		cs := p.Constraints()
		info = append(info, platformInfo{
			Name:          p.String(),
			DisplayName:   cs.DisplayName,
			MaxCharacters: cs.MaxCharacters,
			HashtagLimit:  cs.HashtagLimit,
			Shape:         cs.Shape.String(),
			Description:   cs.Description,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"endpoint":           "/api/recycle",
		"method":             http.MethodPost,
		"description":        "Recycle one piece of content into platform-specific formats",
		"supportedPlatforms": info,
		"tones":              platform.ToneNames(),
		"maxContentLength":   prompt.MaxContentLength,
		"request": gin.H{
			"content":   "string, required",
			"platforms": "string[], optional, defaults to every platform above",
			"tone":      "string, optional, defaults to " + string(platform.DefaultTone),
			"industry":  "string, optional",
		},
	})
}
