package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/pkg/response"
)

type portfolioService interface {
	GetStudentPortfolio(ctx context.Context, studentID string) ([]models.PortfolioItem, error)
	DeleteProject(ctx context.Context, projectID string) error
	DeleteSnapshot(ctx context.Context, studentID, snapshotID string) error
	DeleteAllSnapshots(ctx context.Context, studentID string) error
	ExportPortfolioPDF(ctx context.Context, studentID string) ([]byte, error)
}

// PortfolioHandler exposes the merged portfolio view and the deletion
// endpoints that feed it.
type PortfolioHandler struct {
	service portfolioService
}

// NewPortfolioHandler constructs the handler.
func NewPortfolioHandler(service portfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

// Get godoc
// @Summary Get a student's merged portfolio
// @Tags Portfolio
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/portfolio [get]
func (h *PortfolioHandler) Get(c *gin.Context) {
	items, err := h.service.GetStudentPortfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Export godoc
// @Summary Export a student's portfolio as PDF
// @Tags Portfolio
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Router /students/{id}/portfolio/export [get]
func (h *PortfolioHandler) Export(c *gin.Context) {
	pdf, err := h.service.ExportPortfolioPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="portfolio.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// DeleteProject godoc
// @Summary Delete a project, snapshotting completed work first
// @Tags Portfolio
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func (h *PortfolioHandler) DeleteProject(c *gin.Context) {
	if err := h.service.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSnapshot removes one of the caller's own snapshots.
func (h *PortfolioHandler) DeleteSnapshot(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSnapshot(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAllSnapshots removes every snapshot the caller owns.
func (h *PortfolioHandler) DeleteAllSnapshots(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAllSnapshots(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
