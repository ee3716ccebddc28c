package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-circulation-backend/internal/circulation"
)

// ListTitles handles GET /api/titles.
func (h *Handler) ListTitles(c *gin.Context) {
	titles, err := h.engine.ListTitles(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, titles)
}

type addTitleRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title" binding:"required"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Copies int    `json:"copies"`
}

// AddTitle handles POST /api/titles.
func (h *Handler) AddTitle(c *gin.Context) {
	var req addTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	title, err := h.engine.AddTitle(c.Request.Context(), circulation.NewTitle{
		ISBN:   req.ISBN,
		Name:   req.Title,
		Author: req.Author,
		Genre:  req.Genre,
		Copies: req.Copies,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, title)
}

type addCopiesRequest struct {
	Count int `json:"count" binding:"required"`
}

// AddCopies handles POST /api/titles/:id/copies.
func (h *Handler) AddCopies(c *gin.Context) {
	var req addCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	title, err := h.engine.AddCopies(c.Request.Context(), c.Param("id"), req.Count)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// ArchiveTitle handles DELETE /api/titles/:id.
func (h *Handler) ArchiveTitle(c *gin.Context) {
	if _, err := h.engine.ArchiveTitle(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCounts handles GET /api/titles/:id/counts.
func (h *Handler) GetCounts(c *gin.Context) {
	counts, err := h.engine.GetInventoryCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GetTitleHistory handles GET /api/titles/:id/history.
func (h *Handler) GetTitleHistory(c *gin.Context) {
	entries, err := h.engine.GetHistoryForTitle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
