package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlintlin/Grade-Converter/internal/models"
	"github.com/jlintlin/Grade-Converter/internal/service"
	"github.com/jlintlin/Grade-Converter/pkg/config"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
	"github.com/jlintlin/Grade-Converter/pkg/response"
)

// GradeHandler exposes grade calculation and export endpoints.
type GradeHandler struct {
	grading  *service.GradingService
	sessions *service.SessionService
	exports  *service.ExportService
	metrics  *service.MetricsService
	defaults config.GradingConfig
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grading *service.GradingService, sessions *service.SessionService, exports *service.ExportService, metrics *service.MetricsService, defaults config.GradingConfig) *GradeHandler {
	return &GradeHandler{grading: grading, sessions: sessions, exports: exports, metrics: metrics, defaults: defaults}
}

// Calculate godoc
// @Summary Calculate final grades for a session
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.CalcConfig true "Grading configuration"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id}/calculate [post]
func (h *GradeHandler) Calculate(c *gin.Context) {
	cfg, session, err := h.resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, err := h.grading.Calculate(&session.Gradebook, cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveCalculation(len(report.Results), time.Since(start))
	response.JSON(c, http.StatusOK, report)
}

// Export godoc
// @Summary Export calculated grades as a downloadable file
// @Tags Grades
// @Accept json
// @Produce text/csv
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf" default(csv)
// @Param payload body models.CalcConfig true "Grading configuration"
// @Success 200 {file} binary
// @Router /gradebooks/{id}/export [post]
func (h *GradeHandler) Export(c *gin.Context) {
	cfg, session, err := h.resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, err := h.grading.Calculate(&session.Gradebook, cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveCalculation(len(report.Results), time.Since(start))

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	file, err := h.exports.Generate(report, cfg.Categories, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExport(format)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// DefaultScale godoc
// @Summary Get the default grading scale
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading-scale/default [get]
func (h *GradeHandler) DefaultScale(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"scale":       models.DefaultGradingScale,
		"description": "Standard grading scale",
	})
}

func (h *GradeHandler) resolve(c *gin.Context) (models.CalcConfig, *models.GradebookSession, error) {
	var cfg models.CalcConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		return cfg, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	h.applyDefaults(&cfg)
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		return cfg, nil, err
	}
	return cfg, session, nil
}

func (h *GradeHandler) applyDefaults(cfg *models.CalcConfig) {
	if len(cfg.GradingScale) == 0 {
		cfg.GradingScale = models.DefaultGradingScale
	}
	if cfg.MaxExtraCreditPercent <= 0 {
		cfg.MaxExtraCreditPercent = h.defaults.MaxExtraCreditPercent
	}
	if cfg.PassingThreshold <= 0 {
		cfg.PassingThreshold = h.defaults.PassingThreshold
	}
}
