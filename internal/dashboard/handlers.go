package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/pond-monitor/internal/version"
)

type deviceRequest struct {
	DeviceID *string `json:"device_id"`
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.source.State()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": st.SessionID,
		"device":  st.DeviceID,
		"version": version.Version,
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.State())
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.State().History)
}

// handleSetDevice switches the polled device. An empty id is accepted and
// pauses polling.
func (s *Server) handleSetDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DeviceID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id is required"})
		return
	}

	if !s.limiter.Allow() {
		s.logger.Warn("device change rate limited", "client", c.ClientIP())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many device changes"})
		return
	}

	deviceID := strings.TrimSpace(*req.DeviceID)
	if err := s.source.SetDevice(c.Request.Context(), deviceID); err != nil {
		s.logger.Error("failed to change device", "device", deviceID, "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device change failed"})
		return
	}

	c.JSON(http.StatusOK, s.source.State())
}

func (s *Server) handleChart(c *gin.Context) {
	st := s.source.State()
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", RenderChart(st.History, s.now()))
}
