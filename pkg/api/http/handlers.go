package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/studiomuse/internal/application/orchestrator"
	"github.com/aescanero/studiomuse/pkg/ports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DemystifyRequest is the body of POST /palette/demystify. When
// physical_palette_name is set and physical_palette_data is not, the
// physical palette is loaded from storage.
type DemystifyRequest struct {
	orchestrator.DemystifyRequest
	PhysicalPaletteName string `json:"physical_palette_name,omitempty"`
}

// PaletteListResponse is the body of GET /palettes
type PaletteListResponse struct {
	Success  bool     `json:"success"`
	Palettes []string `json:"palettes"`
	Total    int      `json:"total"`
}

func errorBody(message string) gin.H {
	return gin.H{"success": false, "error": message}
}

// handleRoot answers the plain liveness probe
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "StudioMuse Backend API is running"})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	checks := gin.H{"orchestrator": "ok"}
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"checks":    checks,
	}

	if s.registry != nil {
		body["providers"] = s.registry.Providers()
	}
	if s.pool != nil {
		status := s.pool.Health().GetStatus()
		body["call_pool"] = status
		if status.Healthy {
			checks["call_pool"] = "ok"
		} else {
			checks["call_pool"] = "saturated"
		}
	}

	c.JSON(http.StatusOK, body)
}

// handleConfig returns the configuration without secrets
func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.public)
}

// handleDemystify matches GIMP colors to a physical palette
func (s *Server) handleDemystify(c *gin.Context) {
	var req DemystifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid demystify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var out *orchestrator.Outcome
	if req.PhysicalPaletteData == nil && req.PhysicalPaletteName != "" {
		out = s.orchestrator.DemystifyByName(c.Request.Context(), orchestrator.DemystifyByNameRequest{
			GimpColors:          req.GimpColors,
			PhysicalPaletteName: req.PhysicalPaletteName,
			Provider:            req.Provider,
			Temperature:         req.Temperature,
		})
	} else {
		out = s.orchestrator.Demystify(c.Request.Context(), req.DemystifyRequest)
	}

	c.JSON(statusFor(out), out)
}

// handleCreate builds a physical palette from free text
func (s *Server) handleCreate(c *gin.Context) {
	var req orchestrator.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid create request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	out := s.orchestrator.Create(c.Request.Context(), req)
	c.JSON(statusFor(out), out)
}

// handleListPalettes lists stored palette names
func (s *Server) handleListPalettes(c *gin.Context) {
	names, err := s.orchestrator.Storage().List(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list palettes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("failed to list palettes"))
		return
	}

	c.JSON(http.StatusOK, PaletteListResponse{
		Success:  true,
		Palettes: names,
		Total:    len(names),
	})
}

// handleGetPalette returns one stored palette
func (s *Server) handleGetPalette(c *gin.Context) {
	name := c.Param("name")

	palette, err := s.orchestrator.Storage().Load(c.Request.Context(), name)
	if err != nil {
		s.storageError(c, name, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": palette})
}

// handleDeletePalette removes a stored palette
func (s *Server) handleDeletePalette(c *gin.Context) {
	name := c.Param("name")

	if err := s.orchestrator.DeletePalette(c.Request.Context(), name); err != nil {
		s.storageError(c, name, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) storageError(c *gin.Context, name string, err error) {
	if errors.Is(err, ports.ErrPaletteNotFound) {
		c.JSON(http.StatusNotFound, errorBody("palette not found: "+name))
		return
	}

	s.logger.Error("palette storage failed", zap.String("name", name), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorBody("palette storage failed"))
}

// statusFor maps an outcome onto an HTTP status
func statusFor(out *orchestrator.Outcome) int {
	if out.Success {
		return http.StatusOK
	}

	switch out.ErrorKind {
	case orchestrator.KindValidation:
		return http.StatusBadRequest
	case orchestrator.KindConfiguration:
		return http.StatusUnprocessableEntity
	case orchestrator.KindTransport:
		return http.StatusBadGateway
	case orchestrator.KindNotFound:
		return http.StatusNotFound
	case orchestrator.KindFormat:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
