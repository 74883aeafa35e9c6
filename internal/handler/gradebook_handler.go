package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlintlin/Grade-Converter/internal/models"
	"github.com/jlintlin/Grade-Converter/internal/service"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
	"github.com/jlintlin/Grade-Converter/pkg/response"
)

// UploadResponse returns the parsed gradebook with its session id.
type UploadResponse struct {
	SessionID string           `json:"session_id"`
	Gradebook models.Gradebook `json:"gradebook"`
}

// GradebookHandler exposes upload and session endpoints.
type GradebookHandler struct {
	parser    *service.ParserService
	sessions  *service.SessionService
	metrics   *service.MetricsService
	maxUpload int64
}

// NewGradebookHandler constructs handler.
func NewGradebookHandler(parser *service.ParserService, sessions *service.SessionService, metrics *service.MetricsService, maxUpload int64) *GradebookHandler {
	return &GradebookHandler{parser: parser, sessions: sessions, metrics: metrics, maxUpload: maxUpload}
}

// Upload godoc
// @Summary Upload and parse a Canvas gradebook CSV
// @Tags Gradebooks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Canvas CSV export"
// @Success 201 {object} response.Envelope
// @Router /gradebooks [post]
func (h *GradebookHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUpload, "multipart field \"file\" required"))
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		response.Error(c, appErrors.Clone(appErrors.ErrUpload, fmt.Sprintf("file exceeds %d byte limit", h.maxUpload)))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	start := time.Now()
	gradebook, err := h.parser.Parse(file, fileHeader.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveParse(time.Since(start))

	session, err := h.sessions.Create(c.Request.Context(), gradebook)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, UploadResponse{SessionID: session.ID, Gradebook: session.Gradebook})
}

// Get godoc
// @Summary Retrieve a parsed gradebook session
// @Tags Gradebooks
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /gradebooks/{id} [get]
func (h *GradebookHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Gradebook)
}

// Delete godoc
// @Summary Delete a gradebook session and all its data
// @Tags Gradebooks
// @Param id path string true "Session ID"
// @Success 204
// @Router /gradebooks/{id} [delete]
func (h *GradebookHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
